package deps

import (
	"path/filepath"
	"slices"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Extractor reads the declared dependencies of a manifest file.
type Extractor interface {
	// Supports reports whether this extractor handles the given filename.
	Supports(filename string) bool
	// Extract parses content, read from path, into dependencies.
	Extract(path string, content []byte) ([]Dependency, error)
}

// DetectExtractor finds an extractor that supports the given file path.
// Returns an error if no extractor matches.
func DetectExtractor(path string, extractors ...Extractor) (Extractor, error) {
	name := filepath.Base(path)
	for _, x := range extractors {
		if x.Supports(name) {
			return x, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInvalidManifest, "unsupported manifest: %s", name)
}

// Merge folds dependencies with the same name into one, concatenating
// their requirements. The first non-empty version wins. Identical
// declarations in the same file collapse into one requirement carrying
// every group.
func Merge(in []Dependency) []Dependency {
	var out []Dependency
	index := map[string]int{}
	for _, d := range in {
		i, ok := index[d.Name]
		if !ok {
			index[d.Name] = len(out)
			out = append(out, d)
			continue
		}
		if out[i].Version == "" {
			out[i].Version = d.Version
		}
		for _, r := range d.Requirements {
			out[i].Requirements = mergeRequirement(out[i].Requirements, r)
		}
	}
	return out
}

func mergeRequirement(reqs []Requirement, r Requirement) []Requirement {
	for i, have := range reqs {
		if have.File != r.File || have.Requirement != r.Requirement || !sameSource(have.Source, r.Source) {
			continue
		}
		for _, g := range r.Groups {
			if !slices.Contains(have.Groups, g) {
				reqs[i].Groups = append(reqs[i].Groups, g)
			}
		}
		return reqs
	}
	return append(reqs, r)
}

func sameSource(a, b *Source) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
