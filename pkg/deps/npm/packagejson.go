package npm

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// PackageJSON extracts dependencies from package.json. It reads
// dependencies, devDependencies, peerDependencies and
// optionalDependencies.
type PackageJSON struct{}

func (PackageJSON) Supports(name string) bool { return strings.EqualFold(name, "package.json") }

func (PackageJSON) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var pkg packageFile
	if err := json.Unmarshal(content, &pkg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	var out []deps.Dependency
	for _, s := range []struct {
		group string
		deps  map[string]string
	}{
		{"dependencies", pkg.Dependencies},
		{"devDependencies", pkg.DevDependencies},
		{"peerDependencies", pkg.PeerDependencies},
		{"optionalDependencies", pkg.OptionalDependencies},
	} {
		names := make([]string, 0, len(s.deps))
		for name := range s.deps {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, dependency(path, s.group, name, s.deps[name]))
		}
	}
	return deps.Merge(out), nil
}

func dependency(path, group, name, spec string) deps.Dependency {
	req := deps.Requirement{File: path, Requirement: spec, Groups: []string{group}}
	switch {
	case strings.HasPrefix(spec, "npm:"):
		// "npm:real-name@range" installs real-name under an alias
		alias := strings.TrimPrefix(spec, "npm:")
		if i := strings.LastIndex(alias, "@"); i > 0 {
			req.Metadata = map[string]string{"alias": name}
			name, req.Requirement = alias[:i], alias[i+1:]
		}
	case strings.HasPrefix(spec, "file:"), strings.HasPrefix(spec, "link:"), strings.HasPrefix(spec, "workspace:"):
		req.Source = &deps.Source{Kind: deps.SourcePath, URL: spec}
	case isGit(spec):
		url, ref, _ := strings.Cut(spec, "#")
		req.Source = &deps.Source{Kind: deps.SourceGit, URL: url, Ref: ref}
	case strings.HasPrefix(spec, "http://"), strings.HasPrefix(spec, "https://"):
		req.Source = &deps.Source{Kind: deps.SourceHTTPArchive, URL: spec}
	}
	return deps.Dependency{Name: name, Ecosystem: "npm", Requirements: []deps.Requirement{req}}
}

func isGit(spec string) bool {
	for _, p := range []string{"git+", "git://", "github:", "gitlab:", "bitbucket:"} {
		if strings.HasPrefix(spec, p) {
			return true
		}
	}
	// "owner/repo" GitHub shorthand
	return !strings.HasPrefix(spec, "@") && strings.Count(spec, "/") == 1 && !strings.ContainsAny(spec, " <>=^~:")
}

type packageFile struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}
