package bazel

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/bcr"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Manifest file names.
const (
	ModuleFile     = "MODULE.bazel"
	WorkspaceFile  = "WORKSPACE"
	WorkspaceBazel = "WORKSPACE.bazel"
)

var Ecosystem = &deps.Ecosystem{
	Name:            "bazel",
	DefaultRegistry: "bcr",
	RegistryAliases: map[string]string{"bcr.bazel.build": "bcr", "bazel-central-registry": "bcr"},
	ManifestFiles:   []string{ModuleFile, "*." + ModuleFile, WorkspaceFile, WorkspaceBazel},
	NewChecker:      NewChecker,
	NewExtractors:   func() []deps.Extractor { return []deps.Extractor{Module{}, Workspace{}} },
}

// NewChecker returns a registry checker for bzlmod dependencies, or a
// GitHub checker for WORKSPACE rules that only reference a GitHub
// repository.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	if repo, ok := workspaceRepo(dep); ok {
		return newWorkspaceChecker(dep, opts, repo)
	}
	client := bcr.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...).WithBaseURL(opts.Registry)
	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "bazel",
		Registry:  "bcr",
		Scheme:    Scheme,
		Grammar:   Grammar{Scheme: Scheme},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return client.FetchReleases(ctx, dep.Name, refresh)
		},
		Applies: inModuleFile,
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// IsModuleFile reports whether path is MODULE.bazel or a segment such as
// go.MODULE.bazel included from it.
func IsModuleFile(path string) bool {
	return strings.HasSuffix(path, ModuleFile)
}

func inModuleFile(r deps.Requirement) bool {
	return deps.RegistryOnly(r) && IsModuleFile(r.File)
}

func inWorkspace(path string) bool {
	base := filepath.Base(path)
	return base == WorkspaceFile || base == WorkspaceBazel
}

// Grammar implements deps.Grammar for exact version pins.
type Grammar struct {
	Scheme version.Scheme
}

func (g Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	pinned, err := g.Scheme.Parse(strings.TrimSpace(req))
	if err != nil {
		return false, err
	}
	return pinned.Compare(v) == 0, nil
}

func (Grammar) RenderUpdated(_ string, target version.Version, _ deps.Strategy) (string, error) {
	return target.String(), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }
