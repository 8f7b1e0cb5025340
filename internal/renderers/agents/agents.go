// Package agents renders the context files consumed by coding agents:
// CLAUDE.md, .cursorrules, AGENTS.md and CODEMAP.md.
package agents

import (
	"context"
	"fmt"

	"github.com/joeynyc/repobrief/internal/renderers"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Export format names.
const (
	FormatClaude   = "claude"
	FormatCursor   = "cursor"
	FormatCodex    = "codex"
	FormatMarkdown = "markdown"
)

// Formats lists every export format in registration order.
var Formats = []string{FormatClaude, FormatCursor, FormatCodex, FormatMarkdown}

// Target renders one agent context file.
type Target struct {
	name   string
	file   string
	render func(*repoctx.Context) string
}

func (t *Target) Name() string {
	return t.name
}

func (t *Target) Render(_ context.Context, c *repoctx.Context) ([]renderers.Artifact, error) {
	if c == nil {
		return nil, fmt.Errorf("rendering %s: nil context", t.name)
	}
	return []renderers.Artifact{{
		Name:    t.file,
		Content: []byte(t.render(c)),
		Type:    "text/markdown",
	}}, nil
}

// Claude returns the CLAUDE.md target bounded by maxTokens.
func Claude(maxTokens int) *Target {
	b := newBrief(maxTokens)
	return &Target{name: FormatClaude, file: "CLAUDE.md", render: b.render}
}

// Cursor returns the .cursorrules target.
func Cursor() *Target {
	return &Target{name: FormatCursor, file: ".cursorrules", render: renderCursor}
}

// Codex returns the AGENTS.md target.
func Codex() *Target {
	return &Target{name: FormatCodex, file: "AGENTS.md", render: renderCodex}
}

// Markdown returns the CODEMAP.md target.
func Markdown() *Target {
	return &Target{name: FormatMarkdown, file: "CODEMAP.md", render: renderMarkdown}
}

// Targets returns every export target in Formats order.
func Targets(maxTokens int) []*Target {
	return []*Target{Claude(maxTokens), Cursor(), Codex(), Markdown()}
}
