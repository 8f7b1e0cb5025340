package agents

import (
	"fmt"
	"strings"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

func renderCursor(c *repoctx.Context) string {
	s := c.Structure
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are working in a %s repository.\n", s.ProjectKind)
	fmt.Fprintf(&sb, "Languages: %s.\n", languages(c))
	fmt.Fprintf(&sb, "Framework: %s. Build: %s.\n\n", orDefault(s.Detection.Framework, "Unknown"), orDefault(s.Detection.BuildSystem, "Unknown"))

	sb.WriteString("Conventions to follow:\n")
	fmt.Fprintf(&sb, "- Naming: %s\n", c.Conventions.NamingConvention)
	fmt.Fprintf(&sb, "- Module style: %s\n", c.Conventions.ModuleStyle)
	fmt.Fprintf(&sb, "- Error handling: %s\n\n", orDefault(strings.Join(c.Conventions.ErrorHandlingIdioms, ", "), "not strongly established"))

	sb.WriteString("Likely entry points:\n")
	sb.WriteString(bullets(s.EntryPoints, "- none"))
	sb.WriteString("\n\nHigh-churn files (be careful when editing):\n")
	var hot []string
	for _, f := range head(c.Churn.HotFiles, 10) {
		hot = append(hot, f.Path)
	}
	sb.WriteString(bullets(hot, "- unavailable"))
	sb.WriteString("\n")
	return sb.String()
}

func renderCodex(c *repoctx.Context) string {
	s := c.Structure
	var sb strings.Builder
	sb.WriteString("# AGENTS.md\n\n## Project Context\n")
	fmt.Fprintf(&sb, "- Type: %s\n", s.ProjectKind)
	fmt.Fprintf(&sb, "- Languages: %s\n", languages(c))
	fmt.Fprintf(&sb, "- Framework: %s\n", orDefault(s.Detection.Framework, "Unknown"))
	fmt.Fprintf(&sb, "- Build system: %s\n", orDefault(s.Detection.BuildSystem, "Unknown"))

	sb.WriteString("\n## Entry Points\n")
	sb.WriteString(bullets(s.EntryPoints, "- None"))

	sb.WriteString("\n\n## Code Conventions\n")
	fmt.Fprintf(&sb, "- Naming style: %s\n", c.Conventions.NamingConvention)
	fmt.Fprintf(&sb, "- Imports: %s\n", c.Conventions.ModuleStyle)
	fmt.Fprintf(&sb, "- Error handling patterns: %s\n", orDefault(strings.Join(c.Conventions.ErrorHandlingIdioms, ", "), "None detected"))
	fmt.Fprintf(&sb, "- Test command: `%s`\n", c.Conventions.TestCommand)

	sb.WriteString("\n## Dependency Snapshot\n")
	fmt.Fprintf(&sb, "- Runtime deps: %d\n", len(c.Dependencies.Runtime))
	fmt.Fprintf(&sb, "- Dev deps: %d\n", len(c.Dependencies.Dev))

	sb.WriteString("\n## Hot Files\n")
	sb.WriteString(hotFileList(head(c.Churn.HotFiles, 20), " commits", "- Not available"))
	sb.WriteString("\n")
	return sb.String()
}

func renderMarkdown(c *repoctx.Context) string {
	s := c.Structure
	var sb strings.Builder
	fmt.Fprintf(&sb, "# RepoBrief Context\n\nGenerated: %s\n\n", c.GeneratedAt)

	sb.WriteString("## Structure\n")
	fmt.Fprintf(&sb, "- Type: %s\n", s.ProjectKind)
	fmt.Fprintf(&sb, "- Languages: %s\n", languages(c))
	fmt.Fprintf(&sb, "- Framework: %s\n", orDefault(s.Detection.Framework, "Unknown"))
	fmt.Fprintf(&sb, "- Build: %s\n", orDefault(s.Detection.BuildSystem, "Unknown"))

	sb.WriteString("\n## Entry Points\n")
	sb.WriteString(bullets(s.EntryPoints, "- None"))

	sb.WriteString("\n\n## Dependencies\n### Runtime\n")
	sb.WriteString(dependencyList(c.Dependencies.Runtime, "- None"))
	sb.WriteString("\n\n### Dev\n")
	sb.WriteString(dependencyList(c.Dependencies.Dev, "- None"))

	sb.WriteString("\n\n## Patterns\n")
	fmt.Fprintf(&sb, "- Naming: %s\n", c.Conventions.NamingConvention)
	fmt.Fprintf(&sb, "- Imports: %s\n", c.Conventions.ModuleStyle)
	fmt.Fprintf(&sb, "- Error handling: %s\n", orDefault(strings.Join(c.Conventions.ErrorHandlingIdioms, ", "), "None detected"))

	sb.WriteString("\n## Git Hot Files\n")
	sb.WriteString(hotFileList(c.Churn.HotFiles, "", "- No git data"))
	sb.WriteString("\n")
	return sb.String()
}

func languages(c *repoctx.Context) string {
	return orDefault(strings.Join(c.Languages(), ", "), "Unknown")
}

func dependencyList(deps []repoctx.DependencyRecord, empty string) string {
	lines := make([]string, 0, len(deps))
	for _, d := range deps {
		lines = append(lines, fmt.Sprintf("- %s@%s", d.Name, d.Version))
	}
	return orDefault(strings.Join(lines, "\n"), empty)
}

// hotFileList renders "- path (N<suffix>)" lines.
func hotFileList(files []repoctx.HotFile, suffix, empty string) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("- %s (%d%s)", f.Path, f.Commits, suffix))
	}
	return orDefault(strings.Join(lines, "\n"), empty)
}

func bullets(items []string, empty string) string {
	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return orDefault(strings.Join(lines, "\n"), empty)
}

func head[T any](list []T, n int) []T {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
