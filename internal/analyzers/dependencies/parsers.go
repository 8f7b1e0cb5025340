package dependencies

import (
	"regexp"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/joeynyc/repobrief/internal/manifest"
	"github.com/joeynyc/repobrief/internal/repoctx"
)

// Manifest file names read by the extractor.
const (
	PackageJSON  = "package.json"
	Requirements = "requirements.txt"
	CargoToml    = "Cargo.toml"
	Pyproject    = "pyproject.toml"
	GoMod        = "go.mod"
)

const anyVersion = "*"

var (
	versionOpRe     = regexp.MustCompile(`==|>=|<=|~=|>|<`)
	pyRuntimeListRe = regexp.MustCompile(`(?m)^\s*dependencies\s*=\s*\[([\s\S]*?)\]\s*(?:#.*)?$`)
	quotedRe        = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	cargoVersionRe  = regexp.MustCompile(`\bversion\s*=\s*"([^"]*)"`)
)

func record(name, version string, role repoctx.Role, source string) repoctx.DependencyRecord {
	if version == "" {
		version = anyVersion
	}
	return repoctx.DependencyRecord{Name: name, Version: version, Role: role, Source: source}
}

// SplitSpec splits a requirement spec on the first version operator.
// "flask==3.0.0" yields ("flask", "3.0.0"); "requests" yields ("requests", "*").
func SplitSpec(spec string) (name, version string) {
	spec = strings.TrimSpace(spec)
	if i := strings.Index(spec, ";"); i >= 0 {
		spec = strings.TrimSpace(spec[:i])
	}
	loc := versionOpRe.FindStringIndex(spec)
	if loc == nil {
		return spec, anyVersion
	}
	name = strings.TrimSpace(spec[:loc[0]])
	version = strings.TrimSpace(spec[loc[1]:])
	if version == "" {
		version = anyVersion
	}
	return name, version
}

// ParsePackageJSON reads dependencies and devDependencies.
func ParsePackageJSON(content string) (runtime, dev []repoctx.DependencyRecord, err error) {
	pkg, err := manifest.ParsePackageJSON(content)
	if err != nil {
		return nil, nil, err
	}
	for name, version := range pkg.Dependencies {
		runtime = append(runtime, record(name, version, repoctx.RoleRuntime, PackageJSON))
	}
	for name, version := range pkg.DevDependencies {
		dev = append(dev, record(name, version, repoctx.RoleDev, PackageJSON))
	}
	return runtime, dev, nil
}

// ParseRequirements reads a pip requirements file. Every entry is runtime.
func ParseRequirements(content string) []repoctx.DependencyRecord {
	var out []repoctx.DependencyRecord
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		// Skip comments and pip options such as -r or --index-url.
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "-") {
			continue
		}
		name, version := SplitSpec(line)
		if name == "" {
			continue
		}
		out = append(out, record(name, version, repoctx.RoleRuntime, Requirements))
	}
	return out
}

type cargoSection int

const (
	cargoNone cargoSection = iota
	cargoRuntime
	cargoDev
)

// ParseCargo reads the [dependencies] and [dev-dependencies] sections of a
// Cargo manifest. Any other section header ends the current section.
func ParseCargo(content string) (runtime, dev []repoctx.DependencyRecord) {
	state := cargoNone
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "" || strings.HasPrefix(line, "#"):
			continue
		case strings.HasPrefix(line, "[dependencies]"):
			state = cargoRuntime
			continue
		case strings.HasPrefix(line, "[dev-dependencies]"):
			state = cargoDev
			continue
		case strings.HasPrefix(line, "["):
			state = cargoNone
			continue
		}
		if state == cargoNone {
			continue
		}

		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		version := anyVersion
		if strings.HasPrefix(value, "{") {
			if m := cargoVersionRe.FindStringSubmatch(value); m != nil {
				version = m[1]
			}
		} else {
			version = strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
		}

		if state == cargoDev {
			dev = append(dev, record(name, version, repoctx.RoleDev, CargoToml))
		} else {
			runtime = append(runtime, record(name, version, repoctx.RoleRuntime, CargoToml))
		}
	}
	return runtime, dev
}

// ParsePyproject reads the project dependencies list as runtime and every
// quoted spec under [project.optional-dependencies] as dev.
func ParsePyproject(content string) (runtime, dev []repoctx.DependencyRecord) {
	if m := pyRuntimeListRe.FindStringSubmatch(content); m != nil {
		for _, spec := range quotedStrings(m[1]) {
			if name, version := SplitSpec(spec); name != "" {
				runtime = append(runtime, record(name, version, repoctx.RoleRuntime, Pyproject))
			}
		}
	}
	for _, spec := range quotedStrings(optionalDependencies(content)) {
		if name, version := SplitSpec(spec); name != "" {
			dev = append(dev, record(name, version, repoctx.RoleDev, Pyproject))
		}
	}
	return runtime, dev
}

// optionalDependencies returns the body of [project.optional-dependencies]
// up to the next line starting a section.
func optionalDependencies(content string) string {
	const header = "[project.optional-dependencies]"
	i := strings.Index(content, header)
	if i < 0 {
		return ""
	}
	body := content[i+len(header):]
	lines := strings.Split(body, "\n")
	for j, line := range lines {
		if j > 0 && strings.HasPrefix(strings.TrimSpace(line), "[") && !strings.Contains(line, "=") {
			return strings.Join(lines[:j], "\n")
		}
	}
	return body
}

func quotedStrings(s string) []string {
	var out []string
	for _, m := range quotedRe.FindAllStringSubmatch(s, -1) {
		v := m[1]
		if v == "" {
			v = m[2]
		}
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ParseGoMod reads the direct requirements of a go.mod file.
func ParseGoMod(content string) ([]repoctx.DependencyRecord, error) {
	f, err := modfile.ParseLax(GoMod, []byte(content), nil)
	if err != nil {
		return nil, err
	}
	var out []repoctx.DependencyRecord
	for _, req := range f.Require {
		if req.Indirect {
			continue
		}
		out = append(out, record(req.Mod.Path, req.Mod.Version, repoctx.RoleRuntime, GoMod))
	}
	return out, nil
}
