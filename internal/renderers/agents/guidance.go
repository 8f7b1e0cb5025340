package agents

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

var dependencyRoles = map[string]string{
	"react":      "drives the component-based UI layer",
	"react-dom":  "renders React components into the browser DOM",
	"next":       "provides the app framework, routing, and server rendering",
	"express":    "powers the HTTP server and route handling",
	"vite":       "handles fast local development and production bundling",
	"vitest":     "runs unit/integration tests in the JS/TS toolchain",
	"jest":       "runs tests and snapshot assertions",
	"typescript": "provides static typing and TS transpilation",
	"commander":  "powers the CLI command interface",
	"chalk":      "adds terminal colors for clearer CLI output",
	"simple-git": "collects git history and churn insights",
	"glob":       "scans and filters files by patterns",
	"handlebars": "renders text templates for generated outputs",
	"ora":        "shows spinner/progress states in CLI flows",
	"fastify":    "powers high-performance HTTP routes and plugins",
	"flask":      "provides the Python web app and route layer",
	"fastapi":    "powers typed Python APIs with OpenAPI support",
	"pydantic":   "defines validated request/response schemas",
	"uvicorn":    "runs the ASGI app in development/production",
	"django":     "provides batteries-included web framework structure",

	"github.com/spf13/cobra":      "powers the CLI command interface",
	"github.com/gin-gonic/gin":    "powers the HTTP server and route handling",
	"github.com/labstack/echo/v4": "powers the HTTP server and route handling",
	"github.com/rs/zerolog":       "provides structured logging",
	"github.com/stretchr/testify": "adds assertions to Go tests",
}

var frameworkGuidelines = map[string][]string{
	"Next.js": {"Follow app/pages router boundaries already used in this repository."},
	"React":   {"Keep components focused and colocate related UI logic when patterns do so."},
	"Express": {"Follow existing middleware ordering and route/module organization."},
	"Nest.js": {"Keep module/provider/controller separation consistent."},
	"FastAPI": {"Prefer typed route signatures and Pydantic models for request/response shapes."},
	"Django":  {"Respect app boundaries and migration workflow for schema changes."},
	"Tauri":   {"Keep Rust command definitions aligned with frontend invocations."},
	"Gin":     {"Follow established route grouping and middleware practices."},
	"Flask":   {"Match existing blueprint and app-factory patterns if present."},
}

// treeSkip names are never shown in the file tree.
var treeSkip = map[string]bool{
	".git": true, "node_modules": true, "dist": true, "build": true, "coverage": true,
	".next": true, ".turbo": true, ".repobrief": true, "test-results": true,
}

var treeDirs = []string{"src", "app", "apps", "packages", "lib", "tests", "test", "docs", "scripts"}

var importantRootFiles = []string{
	"README.md", "package.json", "pyproject.toml", "requirements.txt", "Cargo.toml",
	"go.mod", "composer.json", "Gemfile", "Dockerfile",
}

// maxTreeChildren caps the entries listed under each directory.
const maxTreeChildren = 8

// Overview is the "<type> <framework> project using <build>" phrase.
func Overview(c *repoctx.Context) string {
	d := c.Structure.Detection
	return fmt.Sprintf("%s %s project using %s",
		c.Structure.ProjectKind,
		orDefault(d.Framework, "Unknown framework"),
		orDefault(d.BuildSystem, "unknown build system"))
}

// Category guesses what kind of software the repository holds.
func Category(c *repoctx.Context) string {
	deps := make(map[string]bool, len(c.Dependencies.Runtime))
	for _, d := range c.Dependencies.Runtime {
		deps[strings.ToLower(d.Name)] = true
	}
	hasAny := func(names ...string) bool {
		return slices.ContainsFunc(names, func(n string) bool { return deps[n] })
	}

	for _, e := range c.Structure.EntryPoints {
		if strings.Contains(strings.ToLower(e), "cli") {
			return "CLI"
		}
	}
	switch {
	case hasAny("commander", "github.com/spf13/cobra"):
		return "CLI"
	case hasAny("next", "react", "vue", "svelte"):
		return "web application"
	case hasAny("express", "fastify", "fastapi", "flask"):
		return "backend service"
	case c.Structure.ProjectKind == repoctx.ProjectMulti:
		return "monorepo"
	}
	return "software"
}

// OneLiner is the opening sentence of the Claude brief.
func OneLiner(c *repoctx.Context) string {
	framework := orDefault(c.Structure.Detection.Framework, "general-purpose")

	var tech []string
	if b := c.Structure.Detection.BuildSystem; b != "" {
		tech = append(tech, b)
	}
	if f := c.Conventions.TestFramework; f != "" {
		tech = append(tech, f)
	}
	for _, d := range head(c.Dependencies.Runtime, 2) {
		tech = append(tech, d.Name)
	}
	summary := "its existing toolchain"
	if len(tech) > 0 {
		summary = strings.Join(tech, ", ")
	}
	return fmt.Sprintf("This is a %s %s project built with %s.", framework, Category(c), summary)
}

// DescribeDependency says what a dependency does here.
func DescribeDependency(d repoctx.DependencyRecord) string {
	if role, ok := dependencyRoles[d.Name]; ok {
		return role
	}
	return "used by this project via " + d.Source
}

// DescribeEntryPoint names the likely responsibility of an entry file.
func DescribeEntryPoint(entry string, c *repoctx.Context) string {
	lower := strings.ToLower(entry)
	switch {
	case strings.Contains(lower, "cli"):
		return "CLI bootstrap: parses commands/options and dispatches command handlers."
	case strings.HasSuffix(lower, "main.py"), strings.HasSuffix(lower, "__main__.py"):
		return "Python runtime entry: starts the app/service process."
	case strings.HasSuffix(lower, "main.swift"), strings.HasSuffix(lower, "(@main)"):
		return "Swift app entry: initializes the app runtime and routes."
	case strings.HasSuffix(lower, "main.go"):
		return "Go service entry: wires server setup and startup."
	case strings.HasSuffix(lower, "main.rs"):
		return "Rust binary entry: parses input and starts the runtime."
	}
	switch c.Structure.Detection.Framework {
	case "Next.js":
		return "Framework entry surface for routing/render lifecycle."
	case "Express", "Fastify":
		return "Server entry: configures middleware/plugins and mounts routes."
	case "FastAPI", "Flask":
		return "API entry: registers routes and request handling."
	}
	return "Primary application entry point for runtime startup."
}

func namingRule(naming string) string {
	switch naming {
	case repoctx.NamingKebab:
		return "Use kebab-case file names to match the dominant project convention."
	case repoctx.NamingSnake:
		return "Use snake_case naming where applicable to match existing code style."
	case repoctx.NamingCamel:
		return "Use camelCase naming for new symbols/files where feasible."
	}
	return "Naming is mixed: follow the local convention in each folder before introducing new files."
}

func importRule(style string) string {
	switch style {
	case repoctx.ModuleESM:
		return "Use ESM imports/exports, not CommonJS require/module.exports."
	case repoctx.ModuleCommonJS:
		return "Use CommonJS modules (require/module.exports) unless the folder already uses ESM."
	}
	return "Module style is mixed: copy the import/export style used in the file you are editing."
}

// Rules lists the conventions an agent must follow.
func Rules(c *repoctx.Context) []string {
	p := c.Conventions
	lint := "No explicit linter detected: preserve existing formatting and style in touched files."
	if len(p.LintersFormatters) > 0 {
		lint = fmt.Sprintf("Respect lint/format tooling: %s.", strings.Join(p.LintersFormatters, ", "))
	}
	return []string{
		importRule(p.ModuleStyle),
		namingRule(p.NamingConvention),
		fmt.Sprintf("Tests use %s: run %s before committing.", orDefault(p.TestFramework, "the detected test stack"), p.TestCommand),
		lint,
	}
}

// Guidelines returns framework-specific advice, or nil when no framework is known.
func Guidelines(framework string) []string {
	if framework == "" {
		return nil
	}
	if g, ok := frameworkGuidelines[framework]; ok {
		return g
	}
	return []string{fmt.Sprintf("Follow established %s conventions already present in this repo.", framework)}
}

// Tree draws the root's important files and key directories two levels deep.
func Tree(root string, keyDirs []string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ".\n└── (unable to read repository tree at export time)"
	}

	var dirs, files []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir() && !treeSkip[name] && (slices.Contains(keyDirs, name) || slices.Contains(treeDirs, name)):
			dirs = append(dirs, name)
		case e.Type().IsRegular() && slices.Contains(importantRootFiles, name):
			files = append(files, name)
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)

	lines := []string{"."}
	for _, f := range files {
		lines = append(lines, "├── "+f)
	}
	for i, dir := range dirs {
		branch, prefix := "├──", "│   "
		if i == len(dirs)-1 {
			branch, prefix = "└──", "    "
		}
		lines = append(lines, branch+" "+dir+"/")

		children := treeChildren(filepath.Join(root, dir))
		for j, child := range children {
			childBranch := "├──"
			if j == len(children)-1 {
				childBranch = "└──"
			}
			lines = append(lines, prefix+childBranch+" "+child)
		}
	}
	return strings.Join(lines, "\n")
}

func treeChildren(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if treeSkip[name] || strings.HasPrefix(name, ".") {
			continue
		}
		if e.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return head(names, maxTreeChildren)
}
