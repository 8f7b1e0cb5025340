package ecosystem

import (
	"regexp"
	"strings"
)

// Rule is one (predicate, label) row of a precedence table.
type Rule struct {
	Label string
	Match func(*Sources) bool
}

// FirstMatch returns the label of the first matching rule, or "".
func FirstMatch(rules []Rule, s *Sources) string {
	for _, r := range rules {
		if r.Match(s) {
			return r.Label
		}
	}
	return ""
}

// Framework returns the single winning framework label, or "".
func Framework(s *Sources) string {
	return FirstMatch(FrameworkRules, s)
}

// BuildSystem returns the single winning build system label, or "".
func BuildSystem(s *Sources) string {
	return FirstMatch(BuildRules, s)
}

type jsFramework struct {
	label   string
	deps    []string
	keyword string
}

// Meta-frameworks precede the UI library they build on.
var jsFrameworks = []jsFramework{
	{"Next.js", []string{"next"}, "next"},
	{"React", []string{"react"}, "react"},
	{"Nuxt", []string{"nuxt"}, "nuxt"},
	{"Vue", []string{"vue"}, "vue"},
	{"SvelteKit", []string{"@sveltejs/kit"}, "sveltekit"},
	{"Svelte", []string{"svelte"}, "svelte"},
	{"Angular", []string{"@angular/core"}, "angular"},
	{"NestJS", []string{"@nestjs/core", "nestjs"}, "nestjs"},
	{"Express", []string{"express"}, "express"},
	{"Fastify", []string{"fastify"}, "fastify"},
	{"Koa", []string{"koa"}, "koa"},
	{"Hono", []string{"hono"}, "hono"},
}

// FrameworkRules is the cross-ecosystem framework precedence table:
// JS/TS dependencies, JS/TS package name, requirements.txt, pyproject.toml,
// Cargo.toml, go.mod, Package.swift.
var FrameworkRules = buildFrameworkRules()

func buildFrameworkRules() []Rule {
	var rules []Rule
	for _, fw := range jsFrameworks {
		deps := fw.deps
		rules = append(rules, Rule{fw.label, func(s *Sources) bool {
			for _, d := range deps {
				if s.dep(d) {
					return true
				}
			}
			return false
		}})
	}
	for _, fw := range jsFrameworks {
		keyword := fw.keyword
		rules = append(rules, Rule{fw.label, func(s *Sources) bool {
			return s.Package != nil && strings.Contains(strings.ToLower(s.Package.Name), keyword)
		}})
	}

	python := []struct{ label, name string }{
		{"Django", "django"},
		{"FastAPI", "fastapi"},
		{"Flask", "flask"},
	}
	for _, p := range python {
		re := regexp.MustCompile(`(?im)^\s*` + p.name + `\b`)
		rules = append(rules, Rule{p.label, func(s *Sources) bool {
			return re.MatchString(s.Requirements)
		}})
	}
	for _, p := range python {
		re := regexp.MustCompile(`(?i)["']` + p.name + `\b`)
		rules = append(rules, Rule{p.label, func(s *Sources) bool {
			return re.MatchString(s.Pyproject)
		}})
	}

	rust := []struct{ label, crate string }{
		{"Tauri", "tauri"},
		{"Actix Web", "actix-web"},
		{"Axum", "axum"},
		{"Rocket", "rocket"},
	}
	for _, c := range rust {
		re := regexp.MustCompile(`(?m)^\s*` + regexp.QuoteMeta(c.crate) + `\s*=`)
		rules = append(rules, Rule{c.label, func(s *Sources) bool {
			return re.MatchString(s.Cargo)
		}})
	}

	goModules := []struct{ label, path string }{
		{"Gin", "github.com/gin-gonic/gin"},
		{"Echo", "github.com/labstack/echo"},
		{"Fiber", "github.com/gofiber/fiber"},
		{"Chi", "github.com/go-chi/chi"},
		{"Gorilla Mux", "github.com/gorilla/mux"},
	}
	for _, m := range goModules {
		prefix := m.path
		rules = append(rules, Rule{m.label, func(s *Sources) bool {
			return requiresModule(s, prefix)
		}})
	}

	swift := []struct{ label, pkg string }{
		{"Vapor", "vapor/vapor"},
		{"Hummingbird", "hummingbird"},
	}
	for _, p := range swift {
		needle := p.pkg
		rules = append(rules, Rule{p.label, func(s *Sources) bool {
			return strings.Contains(strings.ToLower(s.Swift), needle)
		}})
	}
	return rules
}

// requiresModule reports whether go.mod requires path or one of its major
// versions. Without a parsed file it falls back to the raw text.
func requiresModule(s *Sources, path string) bool {
	if s.GoMod == nil {
		return strings.Contains(s.GoModRaw, path)
	}
	for _, req := range s.GoMod.Require {
		p := req.Mod.Path
		if p == path || strings.HasPrefix(p, path+"/") {
			return true
		}
	}
	return false
}

func pythonBackend(fragment string) func(*Sources) bool {
	return func(s *Sources) bool {
		return s.Has("pyproject.toml") && strings.Contains(strings.ToLower(s.BuildBackend), fragment)
	}
}

// BuildRules is the build system precedence table.
var BuildRules = []Rule{
	{"Vite", func(s *Sources) bool { return strings.Contains(s.buildScript(), "vite") || s.dep("vite") }},
	{"Webpack", func(s *Sources) bool { return s.dep("webpack") }},
	{"Turborepo", func(s *Sources) bool { return s.dep("turbo") }},
	{"npm scripts", func(s *Sources) bool { return s.buildScript() != "" }},
	{"Cargo", func(s *Sources) bool { return s.Has("Cargo.toml") }},
	{"Go modules", func(s *Sources) bool { return s.Has("go.mod") }},
	{"Swift Package Manager", func(s *Sources) bool { return s.Has("Package.swift") }},
	{"Poetry", pythonBackend("poetry")},
	{"Hatch", pythonBackend("hatchling")},
	{"PDM", pythonBackend("pdm")},
	{"Flit", pythonBackend("flit")},
	{"setuptools", pythonBackend("setuptools")},
	{"pip/pyproject", func(s *Sources) bool { return s.Has("pyproject.toml") || s.Has("requirements.txt") }},
	{"Bundler", func(s *Sources) bool { return s.Has("Gemfile") }},
	{"Maven", func(s *Sources) bool { return s.Has("pom.xml") }},
}
