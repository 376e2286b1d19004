package deps

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Ecosystem ties a package manager's version scheme, grammar, registry and
// manifest formats together.
type Ecosystem struct {
	Name            string
	DefaultRegistry string
	RegistryAliases map[string]string
	ManifestFiles   []string
	NewChecker      func(dep Dependency, opts Options) (Checker, error)
	NewExtractors   func() []Extractor

	// ValidateName checks a dependency name; nil uses
	// errors.ValidatePackageName.
	ValidateName func(name string) error
}

// Registry resolves a registry name or alias. The empty name is the
// default registry.
func (e *Ecosystem) Registry(name string) (string, error) {
	if name == "" {
		return e.DefaultRegistry, nil
	}
	if v, ok := e.RegistryAliases[name]; ok {
		name = v
	}
	if name != e.DefaultRegistry {
		return "", fmt.Errorf("unknown registry %q (available: %s)", name, e.DefaultRegistry)
	}
	return name, nil
}

// Checker validates dep and builds its checker.
func (e *Ecosystem) Checker(dep Dependency, opts Options) (Checker, error) {
	validate := e.ValidateName
	if validate == nil {
		validate = errors.ValidatePackageName
	}
	if err := validate(dep.Name); err != nil {
		return nil, err
	}
	dep.Ecosystem = e.Name
	return e.NewChecker(dep, opts.WithDefaults())
}

// Extractor returns the extractor for a manifest path.
func (e *Ecosystem) Extractor(path string) (Extractor, bool) {
	if e.NewExtractors == nil {
		return nil, false
	}
	x, err := DetectExtractor(path, e.NewExtractors()...)
	return x, err == nil
}

// HasManifest reports whether the file name is one of the ecosystem's
// manifests.
func (e *Ecosystem) HasManifest(path string) bool {
	base := filepath.Base(path)
	return slices.ContainsFunc(e.ManifestFiles, func(m string) bool {
		if strings.ContainsAny(m, "*?[") {
			ok, _ := filepath.Match(m, base)
			return ok
		}
		return strings.EqualFold(m, base)
	})
}
