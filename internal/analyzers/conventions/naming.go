package conventions

import (
	"path"
	"regexp"
	"strings"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Sampling limits.
const (
	MaxNamingFiles  = 300
	MaxContentFiles = 80
	MaxContentBytes = 25000
)

// SourceExtensions is the extension allow-list for sampled files.
var SourceExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py", ".rs", ".go", ".swift"}

var (
	camelRe = regexp.MustCompile(`^[a-z]+(?:[A-Z][a-z0-9]*)+$`)
	snakeRe = regexp.MustCompile(`^[a-z0-9]+(?:_[a-z0-9]+)+$`)
	kebabRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)+$`)
)

// IsSource reports whether file has an allow-listed extension.
func IsSource(file string) bool {
	ext := strings.ToLower(path.Ext(file))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SourceFiles filters files to the allow-list, keeping at most limit.
func SourceFiles(files []string, limit int) []string {
	var out []string
	for _, f := range files {
		if len(out) == limit {
			break
		}
		if IsSource(f) {
			out = append(out, f)
		}
	}
	return out
}

// ClassifyName returns the naming convention of a base name, or "" when it
// fits none.
func ClassifyName(base string) string {
	switch {
	case camelRe.MatchString(base):
		return repoctx.NamingCamel
	case snakeRe.MatchString(base):
		return repoctx.NamingSnake
	case kebabRe.MatchString(base):
		return repoctx.NamingKebab
	}
	return ""
}

// Naming votes over the base names of files. A tie at the maximum, including
// no votes at all, yields mixed.
func Naming(files []string) string {
	counts := map[string]int{}
	for _, f := range files {
		base := path.Base(f)
		base = strings.TrimSuffix(base, path.Ext(base))
		if c := ClassifyName(base); c != "" {
			counts[c]++
		}
	}

	winner, best, tied := repoctx.NamingMixed, 0, false
	for _, c := range []string{repoctx.NamingCamel, repoctx.NamingSnake, repoctx.NamingKebab} {
		switch n := counts[c]; {
		case n > best:
			winner, best, tied = c, n, false
		case n == best:
			tied = true
		}
	}
	if best == 0 || tied {
		return repoctx.NamingMixed
	}
	return winner
}
