package deps

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/config"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Dependency is one dependency of a project.
type Dependency struct {
	Name         string        `json:"name"`
	Version      string        `json:"version,omitempty"` // resolved version, may be empty
	Ecosystem    string        `json:"ecosystem,omitempty"`
	Requirements []Requirement `json:"requirements,omitempty"`
}

// Clone returns a deep copy of d.
func (d Dependency) Clone() Dependency {
	out := d
	out.Requirements = make([]Requirement, len(d.Requirements))
	for i, r := range d.Requirements {
		out.Requirements[i] = r.Clone()
	}
	return out
}

// Requirement is a version requirement declared in one file.
type Requirement struct {
	File        string            `json:"file"`
	Requirement string            `json:"requirement,omitempty"`
	Source      *Source           `json:"source,omitempty"`
	Groups      []string          `json:"groups,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy of r.
func (r Requirement) Clone() Requirement {
	out := r
	if r.Source != nil {
		s := *r.Source
		out.Source = &s
	}
	out.Groups = slices.Clone(r.Groups)
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// SourceKind tells where a requirement is fetched from.
type SourceKind string

const (
	SourceRegistry    SourceKind = "registry"
	SourceGit         SourceKind = "git"
	SourcePath        SourceKind = "path"
	SourceDocker      SourceKind = "docker"
	SourceHTTPArchive SourceKind = "http_archive"
)

// Source describes a non-default origin of a requirement. Only the fields
// relevant to Kind are set.
type Source struct {
	Kind     SourceKind `json:"kind"`
	URL      string     `json:"url,omitempty"`
	Registry string     `json:"registry,omitempty"`
	Ref      string     `json:"ref,omitempty"`
	Tag      string     `json:"tag,omitempty"`
	Commit   string     `json:"commit,omitempty"`
	Digest   string     `json:"digest,omitempty"`
}

// Strategy controls how requirements are rewritten.
type Strategy int

const (
	// BumpVersionsIfNecessary keeps requirements the target satisfies.
	BumpVersionsIfNecessary Strategy = iota
	// BumpVersions rewrites every requirement to the target.
	BumpVersions
	// WidenRanges extends ranges to admit the target, never narrowing.
	WidenRanges
	// LockfileOnly leaves requirements untouched.
	LockfileOnly
)

var strategyNames = map[Strategy]string{
	BumpVersionsIfNecessary: "bump_versions_if_necessary",
	BumpVersions:            "bump_versions",
	WidenRanges:             "widen_ranges",
	LockfileOnly:            "lockfile_only",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy parses a strategy name. Dashes and case are ignored, so
// "widen-ranges" and "WIDEN_RANGES" both work. The empty string is
// BumpVersionsIfNecessary.
func ParseStrategy(s string) (Strategy, error) {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	if n == "" {
		return BumpVersionsIfNecessary, nil
	}
	for k, v := range strategyNames {
		if v == n {
			return k, nil
		}
	}
	return 0, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", s)
}

// Options configures checkers.
type Options struct {
	Config   *config.Config
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Strategy Strategy
	Refresh  bool // bypass cached registry responses

	// Policy holds per-dependency rules; PolicyOptions apply to every
	// dependency after them.
	Policy        *policy.File
	PolicyOptions []policy.Option

	// Registry overrides the ecosystem's default registry base URL.
	Registry string

	// OnOutcome is called by Batch as each dependency finishes. Calls may
	// be concurrent.
	OnOutcome func(Outcome)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Config == nil {
		opts.Config = config.Default()
	} else {
		cfg := *opts.Config
		opts.Config = cfg.WithDefaults()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// PolicyFor compiles the policy for dep under scheme. m, when not nil,
// parses conditions in the ecosystem's own grammar.
func (o Options) PolicyFor(ecosystem string, dep Dependency, scheme version.Scheme, m policy.Matcher) (*policy.Policy, error) {
	opts := o.Policy.For(ecosystem, dep.Name)
	opts = append(opts, o.PolicyOptions...)
	if m != nil {
		opts = append(opts, policy.WithMatcher(m))
	}
	return policy.NewPolicy(scheme, opts...)
}

// ClientOptions configures registry clients from o.
func (o Options) ClientOptions() []integrations.Option {
	opts := []integrations.Option{integrations.WithConfig(o.Config)}
	if o.Logger != nil {
		opts = append(opts, integrations.WithLogger(o.Logger))
	}
	if o.Keyer != nil {
		opts = append(opts, integrations.WithKeyer(o.Keyer))
	}
	return opts
}
