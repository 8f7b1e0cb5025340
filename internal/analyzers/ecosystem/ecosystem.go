// Package ecosystem infers languages, framework, build system and entry
// points from the manifest files at a repository root.
package ecosystem

import (
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/joeynyc/repobrief/internal/manifest"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Language labels.
const (
	LangJS     = "JavaScript/TypeScript"
	LangRust   = "Rust"
	LangSwift  = "Swift"
	LangGo     = "Go"
	LangPython = "Python"
	LangRuby   = "Ruby"
	LangJava   = "Java"
)

// Manifest is one row of the manifest table.
type Manifest struct {
	File     string
	Language string
}

// Manifests is probed in order; language insertion order follows this table.
var Manifests = []Manifest{
	{"package.json", LangJS},
	{"Cargo.toml", LangRust},
	{"Package.swift", LangSwift},
	{"go.mod", LangGo},
	{"requirements.txt", LangPython},
	{"pyproject.toml", LangPython},
	{"Gemfile", LangRuby},
	{"pom.xml", LangJava},
}

// CommonEntries are generic top-level entry files probed in every repository.
var CommonEntries = []string{
	"src/index.ts",
	"src/cli.ts",
	"src/main.ts",
	"index.ts",
	"index.js",
	"src/index.js",
	"src/app.ts",
	"src/app.js",
	"app.ts",
	"app.js",
}

// PythonEntries are conventional Python entry files.
var PythonEntries = []string{"__main__.py", "main.py", "app.py", "manage.py"}

// SwiftMainEntry marks a Swift package manifest that declares @main.
const SwiftMainEntry = "Package.swift (@main)"

var swiftMainRe = regexp.MustCompile(`@main\b`)

// Sources holds the manifest contents one detection pass reads. A nil or
// false field means the manifest is absent or unusable.
type Sources struct {
	Present map[string]bool

	Package      *manifest.PackageJSON
	Requirements string
	Pyproject    string
	BuildBackend string
	Cargo        string
	GoMod        *modfile.File
	GoModRaw     string
	Swift        string
}

// Has reports whether the named manifest exists.
func (s *Sources) Has(file string) bool { return s.Present[file] }

func (s *Sources) dep(name string) bool {
	return s.Package != nil && s.Package.HasDependency(name)
}

func (s *Sources) buildScript() string {
	if s.Package == nil {
		return ""
	}
	return s.Package.Scripts["build"]
}

// Load probes every manifest concurrently and parses what it finds.
// Malformed content is logged and left empty.
func Load(r *manifest.Reader, log zerolog.Logger) *Sources {
	present := make([]bool, len(Manifests))
	var g errgroup.Group
	for i, m := range Manifests {
		g.Go(func() error {
			present[i] = r.Exists(m.File)
			return nil
		})
	}
	_ = g.Wait()

	s := &Sources{Present: make(map[string]bool, len(Manifests))}
	for i, m := range Manifests {
		s.Present[m.File] = present[i]
	}

	if content, ok := r.Probe("package.json"); ok {
		pkg, err := manifest.ParsePackageJSON(content)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring malformed package.json")
		} else {
			s.Package = pkg
		}
	}
	s.Requirements, _ = r.Probe("requirements.txt")
	s.Cargo, _ = r.Probe("Cargo.toml")
	s.Swift, _ = r.Probe("Package.swift")

	if content, ok := r.Probe("pyproject.toml"); ok {
		s.Pyproject = content
		var doc struct {
			BuildSystem struct {
				BuildBackend string `toml:"build-backend"`
			} `toml:"build-system"`
		}
		if err := toml.Unmarshal([]byte(content), &doc); err != nil {
			log.Debug().Err(err).Msg("pyproject.toml is not valid TOML")
		} else {
			s.BuildBackend = doc.BuildSystem.BuildBackend
		}
	}

	if content, ok := r.Probe("go.mod"); ok {
		s.GoModRaw = content
		f, err := modfile.ParseLax("go.mod", []byte(content), nil)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring malformed go.mod")
		} else {
			s.GoMod = f
		}
	}
	return s
}

// Detect runs the full detection over the manifests readable through r.
func Detect(r *manifest.Reader, log zerolog.Logger) repoctx.ProjectDetection {
	s := Load(r, log)
	return repoctx.ProjectDetection{
		Languages:   Languages(s),
		Framework:   Framework(s),
		BuildSystem: BuildSystem(s),
		EntryPoints: EntryPoints(s, r),
	}
}

// Languages returns the distinct labels of present manifests in table order.
func Languages(s *Sources) []string {
	langs := []string{}
	seen := make(map[string]bool)
	for _, m := range Manifests {
		if s.Has(m.File) && !seen[m.Language] {
			seen[m.Language] = true
			langs = append(langs, m.Language)
		}
	}
	return langs
}

// EntryPoints unions declared manifest entries with conventional files that
// exist, preserving first-seen order.
func EntryPoints(s *Sources, r *manifest.Reader) []string {
	set := newOrderedSet()
	if s.Package != nil {
		set.add(s.Package.Main)
		set.add(s.Package.Module)
		for _, bin := range s.Package.BinPaths() {
			set.add(bin)
		}
	}

	probe := func(candidates ...string) {
		for _, c := range candidates {
			if r.Exists(c) {
				set.add(c)
			}
		}
	}
	if s.Has("Cargo.toml") {
		probe("src/main.rs", "src/lib.rs")
	}
	if s.Has("go.mod") {
		probe("main.go")
	}
	if s.Has("Package.swift") {
		probe("main.swift")
		if swiftMainRe.MatchString(s.Swift) {
			set.add(SwiftMainEntry)
		}
	}
	if s.Has("pyproject.toml") || s.Has("requirements.txt") {
		probe(PythonEntries...)
	}
	probe(CommonEntries...)

	return set.items
}

type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), items: []string{}}
}

func (o *orderedSet) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || o.seen[v] {
		return
	}
	o.seen[v] = true
	o.items = append(o.items, v)
}
