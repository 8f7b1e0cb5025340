package server

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/joeynyc/repobrief/internal/diff"
	"github.com/joeynyc/repobrief/internal/engine"
	"github.com/joeynyc/repobrief/internal/logging"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Resource URIs.
const (
	ContextURI = "repobrief://context"
	BriefURI   = "repobrief://brief"
)

// briefFormat is the preferred export target behind BriefURI.
const briefFormat = "claude"

// Server wraps the MCP server and connects it to the analysis engine.
type Server struct {
	mcp     *mcp.Server
	eng     *engine.Engine
	log     zerolog.Logger
	version string
}

// New creates a new MCP server wired to the given engine.
func New(eng *engine.Engine, log zerolog.Logger, version string) (*Server, error) {
	s := &Server{
		eng:     eng,
		log:     logging.Component(log, "server"),
		version: version,
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "repobrief",
		Version: version,
	}, nil)

	s.registerResources()
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on the stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Str("version", s.version).Msg("starting MCP server on stdio transport")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// registerResources adds MCP resources for the persisted context.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         ContextURI,
		Name:        "Repository Context",
		Description: "The repository context snapshot (context.json)",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := s.contextJSON()
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: text, MIMEType: "application/json"},
			},
		}, nil
	})

	s.mcp.AddResource(&mcp.Resource{
		URI:         BriefURI,
		Name:        "Repository Brief",
		Description: "Agent-ready markdown brief rendered from the repository context",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		text, err := s.brief(ctx)
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: req.Params.URI, Text: text, MIMEType: "text/markdown"},
			},
		}, nil
	})
}

// rootArgs are the arguments shared by the generation tools.
type rootArgs struct {
	Root string `json:"root,omitempty" jsonschema:"Repository root to analyze. Defaults to the configured root."`
}

// exportArgs are the arguments for the export_context tool.
type exportArgs struct {
	Format string `json:"format" jsonschema:"Export target: claude, cursor, codex, or markdown"`
	Root   string `json:"root,omitempty" jsonschema:"Repository root. Defaults to the configured root."`
}

// registerTools adds MCP tools for context generation and export.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "generate_context",
		Description: "Analyze a repository and write .repobrief/context.json plus the architecture, dependency, pattern and hot-file documents.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args rootArgs) (*mcp.CallToolResult, any, error) {
		return s.generate(ctx, args), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_context",
		Description: "Re-analyze a repository and report material changes since the previous context.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args rootArgs) (*mcp.CallToolResult, any, error) {
		return s.update(ctx, args), nil, nil
	})

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "export_context",
		Description: "Render the stored context into an agent context file (CLAUDE.md, .cursorrules, AGENTS.md or CODEMAP.md) at the repository root.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args exportArgs) (*mcp.CallToolResult, any, error) {
		return s.export(ctx, args), nil, nil
	})
}

func (s *Server) generate(ctx context.Context, args rootArgs) *mcp.CallToolResult {
	res, err := s.eng.Init(ctx, args.Root)
	if err != nil {
		s.log.Error().Err(err).Msg("generate_context failed")
		return errorResult(fmt.Sprintf("context generation failed: %v", err))
	}

	c := res.Context
	var sb strings.Builder
	sb.WriteString("Context generated successfully.\n\n")
	fmt.Fprintf(&sb, "- Repository: %s\n", c.RootDir)
	fmt.Fprintf(&sb, "- Files analyzed: %d across %d directories\n", c.Structure.FilesAnalyzed, c.Structure.DirectoriesAnalyzed)
	fmt.Fprintf(&sb, "- Languages: %s\n", strings.Join(c.Languages(), ", "))
	fmt.Fprintf(&sb, "- Dependencies: %d\n", c.DependencyCount())
	fmt.Fprintf(&sb, "- Git commits: %d\n\n", c.Churn.TotalCommitCount)
	for _, sum := range res.Summaries {
		fmt.Fprintf(&sb, "- %s: %s\n", sum.Analyzer, sum.Text)
	}
	fmt.Fprintf(&sb, "\nRead the %s resource for the agent-ready brief.", BriefURI)
	return textResult(sb.String())
}

func (s *Server) update(ctx context.Context, args rootArgs) *mcp.CallToolResult {
	res, err := s.eng.Update(ctx, args.Root)
	if err != nil {
		s.log.Error().Err(err).Msg("update_context failed")
		return errorResult(fmt.Sprintf("context update failed: %v", err))
	}
	if len(res.Diff) == 0 {
		return textResult(diff.NoChanges)
	}
	return textResult(strings.Join(res.Diff, "\n"))
}

func (s *Server) export(ctx context.Context, args exportArgs) *mcp.CallToolResult {
	if args.Format == "" {
		return errorResult("format is required: " + strings.Join(s.eng.Exporters(), ", "))
	}
	path, err := s.eng.Export(ctx, args.Root, args.Format)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult("Wrote " + path)
}

// current returns the context assembled by this process for the configured
// root, or the persisted one.
func (s *Server) current() (*repoctx.Context, error) {
	root, err := s.eng.ResolveRoot("")
	if err != nil {
		return nil, err
	}
	if c := s.eng.Last(); c != nil && c.RootDir == root {
		return c, nil
	}
	return s.eng.Load(root)
}

func (s *Server) contextJSON() (string, error) {
	c, err := s.current()
	if err != nil {
		return "", fmt.Errorf("no context available: %w (run generate_context first)", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling context: %w", err)
	}
	return string(data), nil
}

func (s *Server) brief(ctx context.Context) (string, error) {
	format := briefFormat
	if names := s.eng.Exporters(); !slices.Contains(names, format) && len(names) > 0 {
		format = names[0]
	}
	a, err := s.eng.Render(ctx, "", format)
	if err != nil {
		return "", fmt.Errorf("no brief available: %w (run generate_context first)", err)
	}
	return string(a.Content), nil
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
