package conventions

import (
	"regexp"

	"github.com/joeynyc/repobrief/internal/repoctx"
)

var (
	esmImportRe = regexp.MustCompile(`(?m)^\s*import\s.+from\s+['"]`)
	esmExportRe = regexp.MustCompile(`(?m)^\s*export\s`)
	cjsRequire  = regexp.MustCompile(`\brequire\(['"].+['"]\)`)
	cjsExports  = regexp.MustCompile(`module\.exports\s*=`)
)

// ModuleStyle classifies samples by the presence of ESM and CommonJS syntax.
func ModuleStyle(samples []string) string {
	esm, cjs := 0, 0
	for _, s := range samples {
		if esmImportRe.MatchString(s) || esmExportRe.MatchString(s) {
			esm++
		}
		if cjsRequire.MatchString(s) || cjsExports.MatchString(s) {
			cjs++
		}
	}
	switch {
	case esm > 0 && cjs == 0:
		return repoctx.ModuleESM
	case cjs > 0 && esm == 0:
		return repoctx.ModuleCommonJS
	case esm > 0 && cjs > 0:
		return repoctx.ModuleMixed
	}
	return repoctx.ModuleUnknown
}

type idiom struct {
	label string
	re    *regexp.Regexp
}

// errorIdioms are reported in table order.
var errorIdioms = []idiom{
	{"try/catch", regexp.MustCompile(`try\s*\{[\s\S]*?\}\s*catch\s*[({]`)},
	{"Promise.catch", regexp.MustCompile(`\.catch\s*\(`)},
	{"throw new Error", regexp.MustCompile(`throw\s+new\s+Error\s*\(`)},
	{"console.error logging", regexp.MustCompile(`console\.error\s*\(`)},
	{"if err != nil checks", regexp.MustCompile(`if\s+err\s*!=\s*nil`)},
	{"fmt.Errorf wrapping", regexp.MustCompile(`fmt\.Errorf\([^)]*%w`)},
	{"try/except", regexp.MustCompile(`(?m)^\s*except\b`)},
	{"raise exceptions", regexp.MustCompile(`(?m)^\s*raise\s+\w`)},
	{"Result types", regexp.MustCompile(`\bResult<`)},
	{"? operator", regexp.MustCompile(`\)\?[;.]`)},
	{"do/catch", regexp.MustCompile(`\bdo\s*\{[\s\S]*?\}\s*catch\b`)},
}

// ErrorIdioms returns the labels of idioms present in any sample.
func ErrorIdioms(samples []string) []string {
	found := []string{}
	for _, id := range errorIdioms {
		for _, s := range samples {
			if id.re.MatchString(s) {
				found = append(found, id.label)
				break
			}
		}
	}
	return found
}
