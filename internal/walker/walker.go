// Package walker lists repository files, honoring .gitignore, a built-in
// denylist and configured ignore globs.
package walker

import (
	"bufio"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultDenylist names directories that are never descended into.
var DefaultDenylist = []string{".git", "node_modules", "dist", ".repobrief"}

// ListFiles returns the sorted, slash-separated relative paths of every
// regular file under root. Dot-prefixed files and directories are skipped.
func ListFiles(root string, extraIgnores []string) ([]string, error) {
	patterns := append(normalize(extraIgnores), loadGitignore(root)...)

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			// Unreadable entries below the root are skipped.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if isIgnored(rel, d.Name(), d.IsDir(), patterns) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Directories returns the distinct parent directories of files, excluding
// the root itself.
func Directories(files []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, f := range files {
		for dir := path.Dir(f); dir != "." && !seen[dir]; dir = path.Dir(dir) {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

func isIgnored(rel, name string, isDir bool, patterns []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if isDir {
		for _, deny := range DefaultDenylist {
			if name == deny {
				return true
			}
		}
	}

	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		// "dir/**" also excludes the directory entry itself.
		if isDir && strings.HasSuffix(pattern, "/**") {
			if ok, _ := doublestar.Match(strings.TrimSuffix(pattern, "/**"), rel); ok {
				return true
			}
		}
	}
	return false
}

// loadGitignore converts root .gitignore lines into doublestar patterns.
// Negations are not supported and are dropped.
func loadGitignore(root string) []string {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return normalizeGitignore(lines)
}

func normalizeGitignore(lines []string) []string {
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		line = strings.TrimSuffix(line, "/")
		if line == "" {
			continue
		}

		anchored := strings.Contains(line, "/")
		line = strings.TrimPrefix(line, "/")
		if !anchored && !strings.HasPrefix(line, "**/") {
			line = "**/" + line
		}
		patterns = append(patterns, line, line+"/**")
	}
	return patterns
}

func normalize(globs []string) []string {
	var out []string
	for _, g := range globs {
		g = strings.TrimSpace(g)
		if g == "" || strings.HasPrefix(g, "#") {
			continue
		}
		if doublestar.ValidatePattern(g) {
			out = append(out, g)
		}
	}
	return out
}
