package agents

import (
	"fmt"
	"strings"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

// DefaultMaxTokens is used when the configured budget is not positive.
const DefaultMaxTokens = 4000

const claudeHeader = "# CLAUDE.md — Project Context for Claude Code\n\n"

// brief renders the Claude target using progressive summarization.
type brief struct {
	maxTokens int
}

func newBrief(maxTokens int) *brief {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &brief{maxTokens: maxTokens}
}

// section holds a rendered section with its display name.
type section struct {
	name    string
	content string
}

// render orders sections by priority; lower-priority sections are truncated
// or omitted first when the token budget is tight.
func (b *brief) render(c *repoctx.Context) string {
	sections := []section{
		{"Project Overview", b.renderOverview(c)},
		{"Rules to Follow", b.renderRules(c)},
		{"Entry Points", b.renderEntryPoints(c)},
		{"Key Dependencies", b.renderDependencies(c)},
		{"High-Churn Files", b.renderHotFiles(c)},
		{"Framework Guidelines", b.renderGuidelines(c)},
		{"File Tree", b.renderTree(c)},
		{"Quick Start", b.renderQuickStart(c)},
	}
	return fit(claudeHeader, sections, b.maxTokens)
}

// fit writes sections after header within maxTokens*4 characters.
func fit(header string, sections []section, maxTokens int) string {
	maxChars := maxTokens * 4 // rough estimate: 1 token ~= 4 chars
	remaining := maxChars - len(header)

	var sb strings.Builder
	sb.WriteString(header)

	for i, sec := range sections {
		if sec.content == "" {
			continue
		}
		if len(sec.content) <= remaining {
			sb.WriteString(sec.content)
			remaining -= len(sec.content)
			continue
		}
		if remaining > 200 {
			cut := cutAtLine(sec.content, remaining-100)
			sb.WriteString(cut)
			fmt.Fprintf(&sb, "\n\n---\n*[Truncated in: %s]*\n", sec.name)
			var omitted []string
			for _, s := range sections[i+1:] {
				if s.content != "" {
					omitted = append(omitted, s.name)
				}
			}
			if len(omitted) > 0 {
				fmt.Fprintf(&sb, "*[Omitted: %s]*\n", strings.Join(omitted, ", "))
			}
			break
		}
		var omitted []string
		for _, s := range sections[i:] {
			if s.content != "" {
				omitted = append(omitted, s.name)
			}
		}
		fmt.Fprintf(&sb, "\n\n---\n*[Omitted: %s]*\n", strings.Join(omitted, ", "))
		break
	}
	return sb.String()
}

// cutAtLine shortens s to at most n bytes, ending on a line boundary when one exists.
func cutAtLine(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	s = s[:n]
	if i := strings.LastIndexByte(s, '\n'); i > 0 {
		return s[:i+1]
	}
	return s
}

func (b *brief) renderOverview(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString(OneLiner(c) + "\n\n")
	sb.WriteString("## Project Overview\n\n")
	fmt.Fprintf(&sb, "- Shape: %s\n", Overview(c))
	fmt.Fprintf(&sb, "- Languages: %s\n", languages(c))
	if len(c.Structure.Workspaces) > 0 {
		fmt.Fprintf(&sb, "- Workspaces: %s\n", strings.Join(c.Structure.Workspaces, ", "))
	}
	if len(c.Conventions.CISystems) > 0 {
		fmt.Fprintf(&sb, "- CI/CD: %s\n", strings.Join(c.Conventions.CISystems, ", "))
	}
	if len(c.Conventions.ContainerFiles) > 0 {
		fmt.Fprintf(&sb, "- Containers: %s\n", strings.Join(c.Conventions.ContainerFiles, ", "))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *brief) renderRules(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## Rules to Follow in This Repo\n\n")
	for i, rule := range Rules(c) {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, rule)
	}
	if idioms := c.Conventions.ErrorHandlingIdioms; len(idioms) > 0 {
		fmt.Fprintf(&sb, "%d. Handle errors the way the codebase already does: %s.\n", len(Rules(c))+1, strings.Join(idioms, ", "))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *brief) renderEntryPoints(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## Entry Points and Responsibilities\n\n")
	if len(c.Structure.EntryPoints) == 0 {
		sb.WriteString("_No entry points detected._\n\n")
		return sb.String()
	}
	for _, e := range c.Structure.EntryPoints {
		fmt.Fprintf(&sb, "- `%s`: %s\n", e, DescribeEntryPoint(e, c))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *brief) renderDependencies(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## Key Dependencies (what they do here)\n\n")
	top := head(c.Dependencies.Runtime, 10)
	if len(top) == 0 {
		sb.WriteString("_No runtime dependencies declared._\n\n")
		return sb.String()
	}
	for _, d := range top {
		fmt.Fprintf(&sb, "- **%s@%s**: %s\n", d.Name, d.Version, DescribeDependency(d))
	}
	if rest := len(c.Dependencies.Runtime) - len(top); rest > 0 {
		fmt.Fprintf(&sb, "- ...and %d more runtime dependencies\n", rest)
	}
	fmt.Fprintf(&sb, "\nDev dependencies: %d\n\n", len(c.Dependencies.Dev))
	return sb.String()
}

func (b *brief) renderHotFiles(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## High-Churn Files (review before major changes)\n\n")
	sb.WriteString(hotFileList(head(c.Churn.HotFiles, 15), " commits", "- No git history available"))
	sb.WriteString("\n\n")
	return sb.String()
}

func (b *brief) renderGuidelines(c *repoctx.Context) string {
	guidelines := Guidelines(c.Structure.Detection.Framework)
	if len(guidelines) == 0 {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s Guidelines\n\n", c.Structure.Detection.Framework)
	sb.WriteString(bullets(guidelines, ""))
	sb.WriteString("\n\n")
	return sb.String()
}

func (b *brief) renderTree(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## File Tree (key directories, depth=2)\n\n")
	sb.WriteString("```text\n")
	sb.WriteString(Tree(c.RootDir, c.Structure.KeyDirectories))
	sb.WriteString("\n```\n\n")
	return sb.String()
}

func (b *brief) renderQuickStart(c *repoctx.Context) string {
	var sb strings.Builder
	sb.WriteString("## Quick Start for AI Agents\n\n")
	step := 1
	if len(c.Structure.EntryPoints) > 0 {
		fmt.Fprintf(&sb, "%d. Start reading at `%s`.\n", step, c.Structure.EntryPoints[0])
		step++
	}
	fmt.Fprintf(&sb, "%d. Run `%s` to verify changes.\n", step, c.Conventions.TestCommand)
	step++
	if len(c.Churn.HotFiles) > 0 {
		fmt.Fprintf(&sb, "%d. Take extra care in `%s`; it changes most often.\n", step, c.Churn.HotFiles[0].Path)
		step++
	}
	fmt.Fprintf(&sb, "%d. Run `repobrief update` after structural changes to refresh this file.\n", step)
	return sb.String()
}
