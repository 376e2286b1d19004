package composer

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// ComposerJSON extracts require and require-dev entries from
// composer.json. Platform packages (php, ext-*, lib-*, composer-*) are not
// dependencies; they are recorded as requirement metadata instead.
type ComposerJSON struct{}

func (ComposerJSON) Supports(name string) bool { return strings.EqualFold(name, "composer.json") }

func (ComposerJSON) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var f composerFile
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	meta := map[string]string{}
	if php := f.Config.Platform["php"]; php != "" {
		meta[MetaPHP] = php
	}
	var exts []string
	for _, m := range []map[string]string{f.Require, f.RequireDev, f.Config.Platform} {
		for name := range m {
			if ext, ok := strings.CutPrefix(strings.ToLower(name), "ext-"); ok {
				exts = append(exts, ext)
			}
		}
	}
	if len(exts) > 0 {
		sort.Strings(exts)
		meta[MetaExtensions] = strings.Join(exts, ",")
	}

	var out []deps.Dependency
	for _, s := range []struct {
		group string
		deps  map[string]string
	}{
		{"require", f.Require},
		{"require-dev", f.RequireDev},
	} {
		names := make([]string, 0, len(s.deps))
		for name := range s.deps {
			if isPackage(name) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			req := deps.Requirement{File: path, Requirement: s.deps[name], Groups: []string{s.group}}
			if len(meta) > 0 {
				req.Metadata = make(map[string]string, len(meta))
				for k, v := range meta {
					req.Metadata[k] = v
				}
			}
			out = append(out, deps.Dependency{
				Name:         strings.ToLower(name),
				Ecosystem:    "composer",
				Requirements: []deps.Requirement{req},
			})
		}
	}
	return deps.Merge(out), nil
}

// isPackage reports whether name is a "vendor/package" rather than a
// platform requirement.
func isPackage(name string) bool {
	return strings.Contains(name, "/")
}

// ComposerLock reads the resolved versions from composer.lock. The
// dependencies it returns carry a version and no requirements.
type ComposerLock struct{}

func (ComposerLock) Supports(name string) bool { return strings.EqualFold(name, "composer.lock") }

func (ComposerLock) Extract(path string, content []byte) ([]deps.Dependency, error) {
	var f struct {
		Packages    []lockedPackage `json:"packages"`
		PackagesDev []lockedPackage `json:"packages-dev"`
	}
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	var out []deps.Dependency
	for _, p := range append(f.Packages, f.PackagesDev...) {
		if p.Name == "" || p.Version == "" {
			continue
		}
		out = append(out, deps.Dependency{
			Name:      strings.ToLower(p.Name),
			Version:   strings.TrimPrefix(p.Version, "v"),
			Ecosystem: "composer",
		})
	}
	return deps.Merge(out), nil
}

type lockedPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type composerFile struct {
	Name       string            `json:"name"`
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
	Config     struct {
		Platform map[string]string `json:"platform"`
	} `json:"config"`
}
