package golang

import (
	"golang.org/x/mod/modfile"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// GoMod extracts require directives from go.mod. Indirect requirements
// are kept in the "indirect" group. A replace directive pointing at a
// local directory turns the requirement into a path source; one pointing
// at another module is recorded in metadata.
type GoMod struct{}

func (GoMod) Supports(name string) bool { return name == "go.mod" }

func (GoMod) Extract(path string, content []byte) ([]deps.Dependency, error) {
	f, err := modfile.ParseLax(path, content, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	replaced := make(map[string]*modfile.Replace, len(f.Replace))
	for _, r := range f.Replace {
		replaced[r.Old.Path] = r
	}

	out := make([]deps.Dependency, 0, len(f.Require))
	for _, r := range f.Require {
		group := "direct"
		if r.Indirect {
			group = "indirect"
		}
		req := deps.Requirement{File: path, Requirement: r.Mod.Version, Groups: []string{group}}
		if rep, ok := replaced[r.Mod.Path]; ok && (rep.Old.Version == "" || rep.Old.Version == r.Mod.Version) {
			if rep.New.Version == "" {
				req.Source = &deps.Source{Kind: deps.SourcePath, URL: rep.New.Path}
			} else {
				req.Metadata = map[string]string{"replace": rep.New.Path + "@" + rep.New.Version}
			}
		}
		out = append(out, deps.Dependency{
			Name:         r.Mod.Path,
			Version:      r.Mod.Version,
			Ecosystem:    "go_modules",
			Requirements: []deps.Requirement{req},
		})
	}
	return deps.Merge(out), nil
}
