// Package sections renders the human-readable documents written next to
// context.json on every run.
package sections

import (
	"context"
	"fmt"
	"strings"

	"github.com/joeynyc/repobrief/internal/renderers"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Name is the renderer identifier.
const Name = "sections"

// Document file names.
const (
	ArchitectureFile = "architecture.md"
	DependenciesFile = "dependencies.md"
	PatternsFile     = "patterns.md"
	HotFilesFile     = "hotfiles.md"
)

// Renderer produces the architecture, dependency, pattern and hot-file documents.
type Renderer struct{}

// New creates a sections renderer.
func New() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Name() string {
	return Name
}

func (r *Renderer) Render(_ context.Context, c *repoctx.Context) ([]renderers.Artifact, error) {
	docs := []struct {
		name    string
		content string
	}{
		{ArchitectureFile, Architecture(c)},
		{DependenciesFile, Dependencies(c)},
		{PatternsFile, Patterns(c)},
		{HotFilesFile, HotFiles(c)},
	}

	artifacts := make([]renderers.Artifact, 0, len(docs))
	for _, d := range docs {
		artifacts = append(artifacts, renderers.Artifact{
			Name:    d.name,
			Content: []byte(d.content),
			Type:    "text/markdown",
		})
	}
	return artifacts, nil
}

// Architecture renders the project shape.
func Architecture(c *repoctx.Context) string {
	s := c.Structure
	var sb strings.Builder
	sb.WriteString("# Architecture\n\n")
	fmt.Fprintf(&sb, "- Project type: **%s**\n", s.ProjectKind)
	fmt.Fprintf(&sb, "- Languages: %s\n", orDefault(strings.Join(s.Detection.Languages, ", "), "Unknown"))
	fmt.Fprintf(&sb, "- Framework: %s\n", orDefault(s.Detection.Framework, "Unknown"))
	fmt.Fprintf(&sb, "- Build system: %s\n", orDefault(s.Detection.BuildSystem, "Unknown"))
	if len(s.Workspaces) > 0 {
		fmt.Fprintf(&sb, "- Workspaces: %s\n", strings.Join(s.Workspaces, ", "))
	}
	sb.WriteString("\n## Key directories\n")
	sb.WriteString(bullets(s.KeyDirectories, "- None detected"))
	sb.WriteString("\n\n## Entry points\n")
	sb.WriteString(bullets(s.EntryPoints, "- None detected"))
	sb.WriteString("\n")
	return sb.String()
}

// Dependencies renders both dependency lists with their source manifests.
func Dependencies(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("# Dependencies\n\n## Runtime\n")
	sb.WriteString(dependencyList(c.Dependencies.Runtime))
	sb.WriteString("\n\n## Dev\n")
	sb.WriteString(dependencyList(c.Dependencies.Dev))
	sb.WriteString("\n")
	return sb.String()
}

// Patterns renders the convention profile.
func Patterns(c *repoctx.Context) string {
	p := c.Conventions
	var sb strings.Builder
	sb.WriteString("# Patterns\n\n")
	fmt.Fprintf(&sb, "- Naming convention: **%s**\n", p.NamingConvention)
	fmt.Fprintf(&sb, "- Import style: **%s**\n", p.ModuleStyle)
	if p.TestFramework != "" {
		fmt.Fprintf(&sb, "- Testing framework: %s\n", p.TestFramework)
	}
	fmt.Fprintf(&sb, "- Test command: `%s`\n", p.TestCommand)
	sb.WriteString("\n## Error handling\n")
	sb.WriteString(bullets(p.ErrorHandlingIdioms, "- None detected"))
	sb.WriteString("\n")

	tooling := []struct {
		title string
		items []string
	}{
		{"Linters and formatters", p.LintersFormatters},
		{"CI/CD", p.CISystems},
		{"Monorepo tooling", p.MonorepoTooling},
		{"Containers", p.ContainerFiles},
	}
	for _, t := range tooling {
		if len(t.items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n%s\n", t.title, bullets(t.items, ""))
	}
	return sb.String()
}

// HotFiles renders the churn ranking.
func HotFiles(c *repoctx.Context) string {
	lines := make([]string, 0, len(c.Churn.HotFiles))
	for _, f := range c.Churn.HotFiles {
		lines = append(lines, fmt.Sprintf("- %s (%d commits)", f.Path, f.Commits))
	}
	return "# Hot Files\n\n" + orDefault(strings.Join(lines, "\n"), "- No history available") + "\n"
}

func dependencyList(deps []repoctx.DependencyRecord) string {
	lines := make([]string, 0, len(deps))
	for _, d := range deps {
		lines = append(lines, fmt.Sprintf("- %s@%s (%s)", d.Name, d.Version, d.Source))
	}
	return orDefault(strings.Join(lines, "\n"), "- None")
}

func bullets(items []string, empty string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return orDefault(strings.Join(lines, "\n"), empty)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
