package conventions

import (
	"path"
	"strings"

	"github.com/joeynyc/repobrief/internal/manifest"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

type testFramework struct {
	label   string
	command string
}

var (
	vitest     = testFramework{"Vitest", "npx vitest run"}
	jest       = testFramework{"Jest", "npx jest"}
	mocha      = testFramework{"Mocha", "npx mocha"}
	playwright = testFramework{"Playwright", "npx playwright test"}
	cypress    = testFramework{"Cypress", "npx cypress run"}
	ava        = testFramework{"AVA", "npx ava"}
	jasmine    = testFramework{"Jasmine", "npx jasmine"}
	pytest     = testFramework{"pytest", "pytest"}
	unittest   = testFramework{"unittest", "python -m unittest"}
	testify    = testFramework{"testify", "go test ./..."}
	ginkgo     = testFramework{"Ginkgo", "go test ./..."}
	goTesting  = testFramework{"Go testing", "go test ./..."}
	rustTests  = testFramework{"Rust built-in tests", "cargo test"}
	xctest     = testFramework{"XCTest", "swift test"}
	jsTests    = testFramework{"JavaScript test files", ""}
)

// Declared test dependencies, highest priority first.
var testDependencies = []struct {
	name string
	fw   testFramework
}{
	{"vitest", vitest},
	{"jest", jest},
	{"mocha", mocha},
	{"@playwright/test", playwright},
	{"cypress", cypress},
	{"ava", ava},
	{"jasmine", jasmine},
	{"pytest", pytest},
	{"github.com/stretchr/testify", testify},
	{"github.com/onsi/ginkgo/v2", ginkgo},
}

// One keyword per ecosystem, sniffed from sampled content.
var testKeywords = []struct {
	keyword string
	fw      testFramework
}{
	{"testing.T", goTesting},
	{"#[test]", rustTests},
	{"XCTest", xctest},
	{"unittest", unittest},
}

// Filename patterns over the whole listing.
var testFilePatterns = []struct {
	match func(base string) bool
	fw    testFramework
}{
	{func(b string) bool { return strings.HasSuffix(b, "_test.go") }, goTesting},
	{func(b string) bool {
		return strings.HasSuffix(b, ".py") && (strings.HasPrefix(b, "test_") || strings.HasSuffix(b, "_test.py"))
	}, pytest},
	{func(b string) bool { return strings.HasSuffix(b, "Tests.swift") }, xctest},
	{func(b string) bool {
		for _, marker := range []string{".test.", ".spec."} {
			if strings.Contains(b, marker) && IsSource(b) {
				return true
			}
		}
		return false
	}, jsTests},
}

// DetectTestFramework checks declared dependencies, then content keywords,
// then file names. The first successful check wins.
func DetectTestFramework(deps repoctx.Dependencies, samples []string, files []string) (label, command string) {
	declared := make(map[string]bool)
	for _, d := range deps.Runtime {
		declared[d.Name] = true
	}
	for _, d := range deps.Dev {
		declared[d.Name] = true
	}
	for _, td := range testDependencies {
		if declared[td.name] {
			return td.fw.label, td.fw.command
		}
	}

	for _, tk := range testKeywords {
		for _, s := range samples {
			if strings.Contains(s, tk.keyword) {
				return tk.fw.label, tk.fw.command
			}
		}
	}

	for _, tp := range testFilePatterns {
		for _, f := range files {
			if tp.match(path.Base(f)) {
				return tp.fw.label, tp.fw.command
			}
		}
	}
	return "", ""
}

// npmDefaultTest is the placeholder script written by npm init.
const npmDefaultTest = `echo "Error: no test specified" && exit 1`

// lockfiles select the package manager that runs the test script.
var lockfiles = []struct {
	file    string
	command string
}{
	{"pnpm-lock.yaml", "pnpm test"},
	{"yarn.lock", "yarn test"},
	{"bun.lockb", "bun run test"},
	{"bun.lock", "bun run test"},
	{"package-lock.json", "npm test"},
}

// TestCommand prefers the package.json test script, then the framework's
// canonical command, then a generic instruction.
func TestCommand(r *manifest.Reader, frameworkCommand string) string {
	if content, ok := r.Probe("package.json"); ok {
		if pkg, err := manifest.ParsePackageJSON(content); err == nil {
			script := strings.TrimSpace(pkg.Scripts["test"])
			if script != "" && script != npmDefaultTest {
				for _, lf := range lockfiles {
					if r.Exists(lf.file) {
						return lf.command
					}
				}
				return "npm test"
			}
		}
	}
	if frameworkCommand != "" {
		return frameworkCommand
	}
	return repoctx.DefaultTestCommand
}
