// Package repoctx defines the repository context snapshot produced by the
// analysis pipeline and persisted as context.json.
package repoctx

import "time"

// ProjectKind classifies a repository as one project or a group of projects.
type ProjectKind string

const (
	ProjectSingle ProjectKind = "single"
	ProjectMulti  ProjectKind = "monorepo"
)

// Role is the role a dependency plays in its manifest.
type Role string

const (
	RoleRuntime Role = "runtime"
	RoleDev     Role = "dev"
)

// Naming convention verdicts.
const (
	NamingCamel = "camelCase"
	NamingSnake = "snake_case"
	NamingKebab = "kebab-case"
	NamingMixed = "mixed"
)

// Module style verdicts.
const (
	ModuleESM      = "esm"
	ModuleCommonJS = "commonjs"
	ModuleMixed    = "mixed"
	ModuleUnknown  = "unknown"
)

// DefaultTestCommand is used when no test command can be inferred.
const DefaultTestCommand = "Run the project's test suite (no test command detected)"

// Hard caps on churn lists.
const (
	MaxHotFiles      = 20
	MaxRecentCommits = 30
	MaxContributors  = 10
)

// ProjectDetection is the Ecosystem Detector's verdict.
type ProjectDetection struct {
	Languages   []string `json:"languages"`
	Framework   string   `json:"framework,omitempty"`
	BuildSystem string   `json:"buildSystem,omitempty"`
	EntryPoints []string `json:"entryPoints"`
}

// DependencyRecord is one declared dependency. Records are not deduplicated
// across manifests.
type DependencyRecord struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Role    Role   `json:"type"`
	Source  string `json:"source"`
}

// StructureSnapshot describes the layout of the repository.
type StructureSnapshot struct {
	ProjectKind         ProjectKind      `json:"projectType"`
	KeyDirectories      []string         `json:"keyDirectories"`
	EntryPoints         []string         `json:"entryPoints"`
	Workspaces          []string         `json:"workspaces,omitempty"`
	FilesAnalyzed       int              `json:"filesAnalyzed"`
	DirectoriesAnalyzed int              `json:"directoriesAnalyzed"`
	Detection           ProjectDetection `json:"detection"`
}

// Dependencies holds the runtime and dev dependency lists, each sorted by name.
type Dependencies struct {
	Runtime []DependencyRecord `json:"runtime"`
	Dev     []DependencyRecord `json:"dev"`
}

// ConventionProfile holds inferred stylistic and tooling characteristics.
type ConventionProfile struct {
	NamingConvention    string   `json:"namingConvention"`
	ModuleStyle         string   `json:"importStyle"`
	ErrorHandlingIdioms []string `json:"errorHandling"`
	TestFramework       string   `json:"testingFramework,omitempty"`
	TestCommand         string   `json:"testCommand"`
	LintersFormatters   []string `json:"lintersFormatters"`
	CISystems           []string `json:"ciCd"`
	MonorepoTooling     []string `json:"monorepoTooling"`
	ContainerFiles      []string `json:"docker"`
}

// HotFile is a path and the number of recent commits that touched it.
type HotFile struct {
	Path    string `json:"path"`
	Commits int    `json:"commits"`
}

// Commit is one entry of the recent commit list.
type Commit struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Author  string `json:"author"`
}

// Contributor is one line of the aggregate author summary.
type Contributor struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Commits int    `json:"commits"`
}

// ChurnSnapshot summarizes recent version-control activity.
type ChurnSnapshot struct {
	HotFiles         []HotFile     `json:"hotFiles"`
	RecentCommits    []Commit      `json:"recentCommits"`
	Contributors     []Contributor `json:"contributors"`
	TotalCommitCount int           `json:"totalCommits"`
}

// Context is the repository context snapshot. A Context is never mutated
// once the engine has assembled it; each run produces a new one.
type Context struct {
	GeneratedAt  string            `json:"generatedAt"`
	RootDir      string            `json:"rootDir"`
	Structure    StructureSnapshot `json:"structure"`
	Dependencies Dependencies      `json:"dependencies"`
	Churn        ChurnSnapshot     `json:"gitHistory"`
	Conventions  ConventionProfile `json:"patterns"`
}

// New returns a context for root stamped with at, with every fragment set to
// its degraded default.
func New(root string, at time.Time) *Context {
	return &Context{
		GeneratedAt:  at.UTC().Format(time.RFC3339),
		RootDir:      root,
		Structure:    EmptyStructure(),
		Dependencies: EmptyDependencies(),
		Churn:        EmptyChurn(),
		Conventions:  DefaultConventions(),
	}
}

// EmptyStructure is the structure fragment used when nothing is detected.
func EmptyStructure() StructureSnapshot {
	return StructureSnapshot{
		ProjectKind:    ProjectSingle,
		KeyDirectories: []string{},
		EntryPoints:    []string{},
		Detection: ProjectDetection{
			Languages:   []string{},
			EntryPoints: []string{},
		},
	}
}

// EmptyDependencies returns empty, non-nil dependency lists.
func EmptyDependencies() Dependencies {
	return Dependencies{Runtime: []DependencyRecord{}, Dev: []DependencyRecord{}}
}

// EmptyChurn is the churn fragment for a directory without version control.
func EmptyChurn() ChurnSnapshot {
	return ChurnSnapshot{
		HotFiles:      []HotFile{},
		RecentCommits: []Commit{},
		Contributors:  []Contributor{},
	}
}

// DefaultConventions is the convention fragment used when nothing is detected.
func DefaultConventions() ConventionProfile {
	return ConventionProfile{
		NamingConvention:    NamingMixed,
		ModuleStyle:         ModuleUnknown,
		ErrorHandlingIdioms: []string{},
		TestCommand:         DefaultTestCommand,
		LintersFormatters:   []string{},
		CISystems:           []string{},
		MonorepoTooling:     []string{},
		ContainerFiles:      []string{},
	}
}

// Fragment is the typed partial result of one analyzer.
type Fragment interface {
	Apply(*Context)
}

func (s StructureSnapshot) Apply(c *Context) { c.Structure = s }
func (d Dependencies) Apply(c *Context)      { c.Dependencies = d }
func (p ConventionProfile) Apply(c *Context) { c.Conventions = p }
func (h ChurnSnapshot) Apply(c *Context)     { c.Churn = h }

// Languages returns the detected languages, or nil.
func (c *Context) Languages() []string { return c.Structure.Detection.Languages }

// PrimaryLanguage is the first detected language, or "Unknown".
func (c *Context) PrimaryLanguage() string {
	if len(c.Structure.Detection.Languages) == 0 {
		return "Unknown"
	}
	return c.Structure.Detection.Languages[0]
}

// DependencyCount is the number of runtime and dev records.
func (c *Context) DependencyCount() int {
	return len(c.Dependencies.Runtime) + len(c.Dependencies.Dev)
}
