package repoctx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileName is the name of the persisted snapshot inside the output directory.
const FileName = "context.json"

// ErrInvalid is returned by Load when the file exists but cannot be decoded.
var ErrInvalid = errors.New("invalid context file")

// Save writes ctx as indented JSON to path, creating parent directories.
func Save(path string, ctx *Context) error {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling context: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads a context previously written by Save. A missing file returns an
// error wrapping fs.ErrNotExist; an undecodable one wraps ErrInvalid.
func Load(path string) (*Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if ctx.GeneratedAt == "" || ctx.RootDir == "" {
		return nil, fmt.Errorf("%w: %s: missing generatedAt or rootDir", ErrInvalid, path)
	}
	ctx.normalize()
	return &ctx, nil
}

// LoadOptional is Load but maps an absent or invalid file to nil.
func LoadOptional(path string) *Context {
	ctx, err := Load(path)
	if err != nil {
		return nil
	}
	return ctx
}

// IsNotExist reports whether err came from a missing context file.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

// normalize replaces nil lists from hand-edited files with empty ones.
func (c *Context) normalize() {
	fill := func(s *[]string) {
		if *s == nil {
			*s = []string{}
		}
	}
	fill(&c.Structure.KeyDirectories)
	fill(&c.Structure.EntryPoints)
	fill(&c.Structure.Detection.Languages)
	fill(&c.Structure.Detection.EntryPoints)
	fill(&c.Conventions.ErrorHandlingIdioms)
	fill(&c.Conventions.LintersFormatters)
	fill(&c.Conventions.CISystems)
	fill(&c.Conventions.MonorepoTooling)
	fill(&c.Conventions.ContainerFiles)
	if c.Structure.ProjectKind == "" {
		c.Structure.ProjectKind = ProjectSingle
	}
	if c.Dependencies.Runtime == nil {
		c.Dependencies.Runtime = []DependencyRecord{}
	}
	if c.Dependencies.Dev == nil {
		c.Dependencies.Dev = []DependencyRecord{}
	}
	if c.Churn.HotFiles == nil {
		c.Churn.HotFiles = []HotFile{}
	}
	if c.Churn.RecentCommits == nil {
		c.Churn.RecentCommits = []Commit{}
	}
	if c.Churn.Contributors == nil {
		c.Churn.Contributors = []Contributor{}
	}
}
