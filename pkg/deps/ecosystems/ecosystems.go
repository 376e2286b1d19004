// Package ecosystems provides the complete list of supported ecosystems.
//
// The individual ecosystem packages import pkg/deps, so pkg/deps cannot
// import them back. Consumers that need the full list import this package.
//
//	for _, eco := range ecosystems.All {
//	    fmt.Println(eco.Name)
//	}
package ecosystems

import (
	"sort"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/deps/bazel"
	"github.com/matzehuels/updatecheck/pkg/deps/bundler"
	"github.com/matzehuels/updatecheck/pkg/deps/cargo"
	"github.com/matzehuels/updatecheck/pkg/deps/composer"
	"github.com/matzehuels/updatecheck/pkg/deps/docker"
	"github.com/matzehuels/updatecheck/pkg/deps/golang"
	"github.com/matzehuels/updatecheck/pkg/deps/helm"
	"github.com/matzehuels/updatecheck/pkg/deps/maven"
	"github.com/matzehuels/updatecheck/pkg/deps/npm"
	"github.com/matzehuels/updatecheck/pkg/deps/nuget"
	"github.com/matzehuels/updatecheck/pkg/errors"
)

// All is the canonical list of supported ecosystems.
var All = []*deps.Ecosystem{
	bazel.Ecosystem,
	bundler.Ecosystem,
	cargo.Ecosystem,
	composer.Ecosystem,
	docker.Ecosystem,
	golang.Ecosystem,
	helm.Ecosystem,
	maven.Ecosystem,
	npm.Ecosystem,
	nuget.Ecosystem,
}

// aliases maps common alternative names to ecosystem names.
var aliases = map[string]string{
	"go":       "go_modules",
	"gomod":    "go_modules",
	"rubygems": "bundler",
	"ruby":     "bundler",
	"rust":     "cargo",
	"php":      "composer",
	"node":     "npm",
	"dotnet":   "nuget",
	"gradle":   "maven",
	"bzlmod":   "bazel",
}

// Find returns the ecosystem with the given name or alias, or nil.
func Find(name string) *deps.Ecosystem {
	name = strings.ToLower(strings.TrimSpace(name))
	if v, ok := aliases[name]; ok {
		name = v
	}
	for _, e := range All {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Lookup is Find with an INVALID_ECOSYSTEM error for unknown names.
func Lookup(name string) (*deps.Ecosystem, error) {
	if e := Find(name); e != nil {
		return e, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidEcosystem, "unknown ecosystem %q (available: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the ecosystem names in sorted order.
func Names() []string {
	out := make([]string, len(All))
	for i, e := range All {
		out[i] = e.Name
	}
	sort.Strings(out)
	return out
}

// ForManifest returns the ecosystem and extractor handling path.
func ForManifest(path string) (*deps.Ecosystem, deps.Extractor, bool) {
	for _, e := range All {
		if !e.HasManifest(path) {
			continue
		}
		if x, ok := e.Extractor(path); ok {
			return e, x, true
		}
	}
	return nil, nil, false
}
