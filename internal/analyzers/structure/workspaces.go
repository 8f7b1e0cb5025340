package structure

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/joeynyc/repobrief/internal/manifest"
)

// Workspaces lists declared workspace members from package.json,
// pnpm-workspace.yaml, Cargo.toml and go.work, in that order.
func Workspaces(r *manifest.Reader, log zerolog.Logger) []string {
	var members []string
	seen := make(map[string]bool)
	add := func(list []string) {
		for _, m := range list {
			if m != "" && !seen[m] {
				seen[m] = true
				members = append(members, m)
			}
		}
	}

	if content, ok := r.Probe("package.json"); ok {
		if pkg, err := manifest.ParsePackageJSON(content); err == nil {
			add(pkg.WorkspaceGlobs())
		}
	}

	if content, ok := r.Probe("pnpm-workspace.yaml"); ok {
		var doc struct {
			Packages []string `yaml:"packages"`
		}
		if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
			log.Warn().Err(err).Msg("ignoring malformed pnpm-workspace.yaml")
		} else {
			add(doc.Packages)
		}
	}

	if content, ok := r.Probe("Cargo.toml"); ok {
		var doc struct {
			Workspace struct {
				Members []string `toml:"members"`
			} `toml:"workspace"`
		}
		if err := toml.Unmarshal([]byte(content), &doc); err != nil {
			log.Debug().Err(err).Msg("Cargo.toml is not valid TOML")
		} else {
			add(doc.Workspace.Members)
		}
	}

	if content, ok := r.Probe("go.work"); ok {
		wf, err := modfile.ParseWork("go.work", []byte(content), nil)
		if err != nil {
			log.Warn().Err(err).Msg("ignoring malformed go.work")
		} else {
			var dirs []string
			for _, u := range wf.Use {
				dirs = append(dirs, u.Path)
			}
			add(dirs)
		}
	}
	return members
}
