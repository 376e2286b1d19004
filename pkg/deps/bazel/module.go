package bazel

import (
	"github.com/bazelbuild/buildtools/build"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Metadata keys recorded on bzlmod requirements.
const (
	MetaRepoName = "repo_name"
	MetaOverride = "override"
)

// Module extracts bazel_dep calls from MODULE.bazel. Dev dependencies land
// in the "dev" group and the rest in "default". A module pinned by
// single_version_override keeps that version as its current one;
// git, archive and local_path overrides turn the requirement into a
// non-registry source, so it is reported but never rewritten.
type Module struct{}

func (Module) Supports(name string) bool { return IsModuleFile(name) }

func (Module) Extract(path string, content []byte) ([]deps.Dependency, error) {
	f, err := build.ParseModule(path, content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	overrides := map[string]*deps.Source{}
	pinned := map[string]string{}
	for _, call := range calls(f) {
		name := stringAttr(call, "module_name")
		if name == "" {
			continue
		}
		switch callName(call) {
		case "single_version_override":
			if v := stringAttr(call, "version"); v != "" {
				pinned[name] = v
			}
		case "git_override":
			overrides[name] = &deps.Source{
				Kind:   deps.SourceGit,
				URL:    stringAttr(call, "remote"),
				Commit: stringAttr(call, "commit"),
				Tag:    stringAttr(call, "tag"),
				Ref:    stringAttr(call, "branch"),
			}
		case "archive_override":
			src := &deps.Source{Kind: deps.SourceHTTPArchive}
			if urls := stringsAttr(call, "urls"); len(urls) > 0 {
				src.URL = urls[0]
			}
			overrides[name] = src
		case "local_path_override":
			overrides[name] = &deps.Source{Kind: deps.SourcePath, URL: stringAttr(call, "path")}
		}
	}

	var out []deps.Dependency
	for _, call := range calls(f) {
		if callName(call) != "bazel_dep" {
			continue
		}
		name := stringAttr(call, "name")
		if name == "" {
			continue
		}
		req := deps.Requirement{File: path, Requirement: stringAttr(call, "version"), Groups: []string{"default"}}
		if boolAttr(call, "dev_dependency") {
			req.Groups = []string{"dev"}
		}
		if repo := stringAttr(call, "repo_name"); repo != "" {
			req.Metadata = map[string]string{MetaRepoName: repo}
		}
		dep := deps.Dependency{Name: name, Ecosystem: "bazel", Version: req.Requirement}
		if src, ok := overrides[name]; ok {
			req.Source = src
			req.Metadata = withMeta(req.Metadata, MetaOverride, string(src.Kind))
		}
		if v, ok := pinned[name]; ok {
			dep.Version = v
			req.Metadata = withMeta(req.Metadata, MetaOverride, "single_version")
		}
		dep.Requirements = []deps.Requirement{req}
		out = append(out, dep)
	}
	return deps.Merge(out), nil
}

// RewriteModuleFile sets the version of every bazel_dep named name in a
// MODULE.bazel file and returns the reformatted file. It reports false
// when no bazel_dep matched.
func RewriteModuleFile(content []byte, name, version string) ([]byte, bool, error) {
	f, err := build.ParseModule(ModuleFile, content)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", ModuleFile)
	}
	changed := false
	for _, call := range calls(f) {
		if callName(call) != "bazel_dep" || stringAttr(call, "name") != name {
			continue
		}
		if setStringAttr(call, "version", version) {
			changed = true
		}
	}
	if !changed {
		return content, false, nil
	}
	return build.Format(f), true, nil
}

func withMeta(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = map[string]string{}
	}
	m[k] = v
	return m
}
