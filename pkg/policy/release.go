package policy

import (
	"time"

	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Release is a registry release with its parsed version. Version is nil
// when Raw could not be parsed by the ecosystem's scheme.
type Release struct {
	Version     version.Version
	Raw         string
	PublishedAt time.Time
	Yanked      bool
	Retracted   bool
	Deprecated  bool
	Digest      string
}

// FromRegistry parses registry releases under scheme. Unparsable versions
// are kept with a nil Version so the pipeline can account for them.
func FromRegistry(scheme version.Scheme, releases []integrations.Release) []Release {
	out := make([]Release, 0, len(releases))
	for _, r := range releases {
		rel := Release{
			Raw:         r.Version,
			PublishedAt: r.PublishedAt,
			Yanked:      r.Yanked,
			Retracted:   r.Retracted,
			Deprecated:  r.Deprecated,
			Digest:      r.Digest,
		}
		if v, err := scheme.Parse(r.Version); err == nil {
			rel.Version = v
		}
		out = append(out, rel)
	}
	return out
}

// Versions returns the parsed versions of releases, skipping nil ones.
func Versions(releases []Release) []version.Version {
	out := make([]version.Version, 0, len(releases))
	for _, r := range releases {
		if r.Version != nil {
			out = append(out, r.Version)
		}
	}
	return out
}
