package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PackageJSON is the subset of an npm package manifest that the analyzers read.
type PackageJSON struct {
	Name            string            `json:"name"`
	Main            string            `json:"main"`
	Module          string            `json:"module"`
	Bin             json.RawMessage   `json:"bin"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Workspaces      json.RawMessage   `json:"workspaces"`
}

// ParsePackageJSON decodes a package.json document.
func ParsePackageJSON(content string) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}
	return &pkg, nil
}

// HasDependency reports whether name is declared as a runtime or dev dependency.
func (p *PackageJSON) HasDependency(name string) bool {
	if _, ok := p.Dependencies[name]; ok {
		return true
	}
	_, ok := p.DevDependencies[name]
	return ok
}

// BinPaths returns the declared executables. A string bin yields one path;
// a map yields its values ordered by command name.
func (p *PackageJSON) BinPaths() []string {
	if len(p.Bin) == 0 {
		return nil
	}
	var single string
	if err := json.Unmarshal(p.Bin, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var named map[string]string
	if err := json.Unmarshal(p.Bin, &named); err != nil {
		return nil
	}
	keys := make([]string, 0, len(named))
	for k := range named {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var paths []string
	for _, k := range keys {
		if named[k] != "" {
			paths = append(paths, named[k])
		}
	}
	return paths
}

// WorkspaceGlobs returns the workspaces field, in either its array form or
// the {"packages": [...]} object form.
func (p *PackageJSON) WorkspaceGlobs() []string {
	if len(p.Workspaces) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(p.Workspaces, &list); err == nil {
		return list
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(p.Workspaces, &obj); err == nil {
		return obj.Packages
	}
	return nil
}
