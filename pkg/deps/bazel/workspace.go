package bazel

import (
	"context"
	"strings"

	"github.com/bazelbuild/buildtools/build"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/github"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Metadata keys recorded on WORKSPACE requirements.
const (
	MetaURLs        = "urls"
	MetaStripPrefix = "strip_prefix"
)

// Workspace extracts http_archive and git_repository rules from WORKSPACE
// files. The version of an archive is read from its GitHub release or tag
// URL; rules whose version cannot be recovered are skipped.
type Workspace struct{}

func (Workspace) Supports(name string) bool { return name == WorkspaceFile || name == WorkspaceBazel }

func (Workspace) Extract(path string, content []byte) ([]deps.Dependency, error) {
	f, err := build.ParseWorkspace(path, content)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	var out []deps.Dependency
	for _, call := range calls(f) {
		name := stringAttr(call, "name")
		if name == "" {
			continue
		}
		var req deps.Requirement
		switch callName(call) {
		case "http_archive":
			urls := stringsAttr(call, "urls")
			if u := stringAttr(call, "url"); u != "" {
				urls = append([]string{u}, urls...)
			}
			v, from := "", ""
			for _, u := range urls {
				if v = versionFromURL(u); v != "" {
					from = u
					break
				}
			}
			if v == "" {
				continue
			}
			req = deps.Requirement{
				Requirement: v,
				Source:      &deps.Source{Kind: deps.SourceHTTPArchive, URL: from},
				Metadata:    map[string]string{MetaURLs: strings.Join(urls, " ")},
			}
			if p := stringAttr(call, "strip_prefix"); p != "" {
				req.Metadata[MetaStripPrefix] = p
			}
		case "git_repository":
			src := &deps.Source{
				Kind:   deps.SourceGit,
				URL:    stringAttr(call, "remote"),
				Tag:    stringAttr(call, "tag"),
				Commit: stringAttr(call, "commit"),
			}
			if src.Tag == "" {
				continue
			}
			req = deps.Requirement{Requirement: src.Tag, Source: src}
		default:
			continue
		}
		req.File = path
		req.Groups = []string{"workspace"}
		out = append(out, deps.Dependency{
			Name:         name,
			Ecosystem:    "bazel",
			Version:      req.Requirement,
			Requirements: []deps.Requirement{req},
		})
	}
	return deps.Merge(out), nil
}

var archiveMarkers = []string{"/releases/download/", "/archive/refs/tags/", "/archive/"}

var archiveExts = []string{".tar.gz", ".tar.bz2", ".tar.xz", ".tgz", ".zip"}

// versionFromURL reads the tag out of a GitHub release asset or source
// archive URL.
func versionFromURL(u string) string {
	if _, _, ok := github.ParseRepoURL(u); !ok {
		return ""
	}
	for _, marker := range archiveMarkers {
		i := strings.Index(u, marker)
		if i < 0 {
			continue
		}
		seg, _, _ := strings.Cut(u[i+len(marker):], "/")
		for _, ext := range archiveExts {
			seg = strings.TrimSuffix(seg, ext)
		}
		if version.Correct(version.Generic, seg) {
			return seg
		}
	}
	return ""
}

// workspaceRepo returns the GitHub repository of a dependency declared
// only in WORKSPACE files.
func workspaceRepo(dep deps.Dependency) (string, bool) {
	repo := ""
	for _, r := range dep.Requirements {
		if !inWorkspace(r.File) || r.Source == nil {
			return "", false
		}
		if owner, name, ok := github.ParseRepoURL(r.Source.URL); ok && repo == "" {
			repo = owner + "/" + name
		}
	}
	return repo, repo != ""
}

// workspaceChecker resolves WORKSPACE rules against GitHub releases and
// carries version changes into archive URLs and strip_prefix. A registry
// override replaces the GitHub API root.
type workspaceChecker struct {
	*deps.Base
}

func newWorkspaceChecker(dep deps.Dependency, opts deps.Options, repo string) (deps.Checker, error) {
	opts = opts.WithDefaults()
	client := github.NewClient(opts.Cache, "", opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "bazel",
		Registry:  "github",
		Scheme:    version.Generic,
		Grammar:   Grammar{Scheme: version.Generic},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, repo, refresh)
		},
		Applies: func(r deps.Requirement) bool {
			return inWorkspace(r.File) && r.Source != nil
		},
	})
	if err != nil {
		return nil, err
	}
	return &workspaceChecker{Base: b}, nil
}

func (c *workspaceChecker) UpdatedRequirements(ctx context.Context) ([]deps.Requirement, error) {
	updated, err := c.Base.UpdatedRequirements(ctx)
	if err != nil {
		return nil, err
	}
	for i := range updated {
		old := c.Dependency.Requirements[i].Requirement
		if updated[i].Requirement == old {
			continue
		}
		rewriteArchive(&updated[i], old, updated[i].Requirement)
	}
	return updated, nil
}

// rewriteArchive substitutes the new version for the old one in the
// source and archive metadata of r. Tags with a "v" prefix are also
// replaced in their bare form, as used by strip_prefix.
func rewriteArchive(r *deps.Requirement, from, to string) {
	rep := strings.NewReplacer(from, to)
	if bareFrom := strings.TrimPrefix(from, "v"); bareFrom != from {
		rep = strings.NewReplacer(from, to, bareFrom, strings.TrimPrefix(to, "v"))
	}
	if r.Source != nil {
		r.Source.URL = rep.Replace(r.Source.URL)
		if r.Source.Tag == from {
			r.Source.Tag = to
			r.Source.Commit = ""
		}
	}
	for _, k := range []string{MetaURLs, MetaStripPrefix} {
		if v, ok := r.Metadata[k]; ok {
			r.Metadata[k] = rep.Replace(v)
		}
	}
}
