package deps

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/updatecheck/pkg/cache"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/observability"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Checker answers update questions for one dependency.
type Checker interface {
	// LatestVersion is the highest candidate after filtering, or the
	// current version when nothing newer qualifies.
	LatestVersion(ctx context.Context) (version.Version, error)
	// LatestResolvableVersion is the highest candidate the existing
	// requirements admit.
	LatestResolvableVersion(ctx context.Context) (version.Version, error)
	// LowestSecurityFixVersion is the lowest candidate no advisory affects.
	LowestSecurityFixVersion(ctx context.Context) (version.Version, error)
	UpdatedRequirements(ctx context.Context) ([]Requirement, error)
	CanUpdate(ctx context.Context) (bool, error)
	UpToDate(ctx context.Context) (bool, error)
}

// Targeter is implemented by checkers that pick the update target
// themselves, such as the security fix in security-only mode.
type Targeter interface {
	Target(ctx context.Context) (version.Version, error)
}

// ResolvedUpdate is the outcome of checking one dependency.
type ResolvedUpdate struct {
	Dependency              Dependency    `json:"dependency"`
	Version                 string        `json:"version,omitempty"`
	LatestVersion           string        `json:"latest_version,omitempty"`
	LatestResolvableVersion string        `json:"latest_resolvable_version,omitempty"`
	Requirements            []Requirement `json:"requirements,omitempty"`
	CanUpdate               bool          `json:"can_update"`
	UpToDate                bool          `json:"up_to_date"`
	Replacements            []Replacement `json:"replacements,omitempty"`
}

// Replacement is a text substitution in a manifest.
type Replacement struct {
	File string `json:"file"`
	Old  string `json:"old"`
	New  string `json:"new"`
}

// Check runs c and assembles the update for dep.
func Check(ctx context.Context, c Checker, dep Dependency) (upd *ResolvedUpdate, err error) {
	start := time.Now()
	observability.Resolver().OnCheckStart(ctx, dep.Ecosystem, dep.Name)
	defer func() {
		outcome := "error"
		switch {
		case err != nil:
		case upd.CanUpdate:
			outcome = "update"
		default:
			outcome = "current"
		}
		observability.Resolver().OnCheckComplete(ctx, dep.Ecosystem, dep.Name, outcome, time.Since(start), err)
	}()

	latest, err := c.LatestVersion(ctx)
	if err != nil {
		return nil, err
	}
	target := latest
	if t, ok := c.(Targeter); ok {
		if target, err = t.Target(ctx); err != nil {
			return nil, err
		}
	}
	resolvable, err := c.LatestResolvableVersion(ctx)
	if err != nil {
		return nil, err
	}
	canUpdate, err := c.CanUpdate(ctx)
	if err != nil {
		return nil, err
	}
	upToDate, err := c.UpToDate(ctx)
	if err != nil {
		return nil, err
	}

	upd = &ResolvedUpdate{
		Dependency:              dep,
		Version:                 str(target),
		LatestVersion:           str(latest),
		LatestResolvableVersion: str(resolvable),
		Requirements:            dep.Clone().Requirements,
		CanUpdate:               canUpdate,
		UpToDate:                upToDate,
	}
	if !canUpdate {
		return upd, nil
	}
	if upd.Requirements, err = c.UpdatedRequirements(ctx); err != nil {
		return nil, err
	}
	upd.Replacements = Replacements(dep.Requirements, upd.Requirements)
	return upd, nil
}

// Replacements lists the requirement strings that changed between before
// and after, which must be parallel slices.
func Replacements(before, after []Requirement) []Replacement {
	var out []Replacement
	for i := range before {
		if i >= len(after) {
			break
		}
		if before[i].Requirement != after[i].Requirement {
			out = append(out, Replacement{File: before[i].File, Old: before[i].Requirement, New: after[i].Requirement})
		}
	}
	return out
}

func str(v version.Version) string {
	if v == nil {
		return ""
	}
	return v.String()
}

var shaPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// IsSHA reports whether s is a full git commit SHA.
func IsSHA(s string) bool { return shaPattern.MatchString(s) }

// FetchFunc lists the registry releases of a dependency.
type FetchFunc func(ctx context.Context, refresh bool) ([]integrations.Release, error)

// Spec describes an ecosystem to NewBase.
type Spec struct {
	Ecosystem string
	Registry  string
	Scheme    version.Scheme
	Grammar   Grammar
	Fetch     FetchFunc

	// Matcher parses ignore and advisory conditions; nil uses the generic
	// comparator grammar.
	Matcher policy.Matcher
	// Prefilter narrows the parsed releases before the policy pipeline.
	// It runs after the release cache, so it may depend on the dependency.
	Prefilter func(ctx context.Context, rs []policy.Release) ([]policy.Release, error)
	// Applies selects requirements to rewrite. Defaults to RegistryOnly.
	Applies func(Requirement) bool
	// ResolvableTarget moves requirements toward the latest resolvable
	// version instead of the latest one under BumpVersionsIfNecessary, as
	// lockfile-driven managers do.
	ResolvableTarget bool
}

// Base implements Checker on top of a Spec. Ecosystems embed it and
// override what differs.
type Base struct {
	Spec
	Dependency Dependency
	Policy     *policy.Policy
	Strategy   Strategy
	Logger     *log.Logger

	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool

	mu       sync.Mutex
	fetched  bool
	releases []policy.Release
}

// NewBase builds the shared checker for dep.
func NewBase(dep Dependency, opts Options, s Spec) (*Base, error) {
	opts = opts.WithDefaults()
	if s.Applies == nil {
		s.Applies = RegistryOnly
	}
	p, err := opts.PolicyFor(s.Ecosystem, dep, s.Scheme, s.Matcher)
	if err != nil {
		return nil, err
	}
	return &Base{
		Spec:       s,
		Dependency: dep,
		Policy:     p,
		Strategy:   opts.Strategy,
		Logger:     opts.Logger.With("ecosystem", s.Ecosystem),
		cache:      opts.Cache,
		keyer:      opts.Keyer,
		ttl:        opts.Config.CacheTTL,
		refresh:    opts.Refresh,
	}, nil
}

// Current is the parsed current version, or nil.
func (b *Base) Current() version.Version {
	if b.Dependency.Version == "" {
		return nil
	}
	v, err := b.Scheme.Parse(b.Dependency.Version)
	if err != nil {
		return nil
	}
	return v
}

// Releases returns the parsed registry releases. The list is fetched once
// per checker and shared through the cache under the dependency's release
// key.
func (b *Base) Releases(ctx context.Context) ([]policy.Release, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetched {
		return b.releases, nil
	}

	key := b.keyer.ReleasesKey(b.Ecosystem, b.Registry, b.Dependency.Name)
	var raw []integrations.Release
	hit := false
	if !b.refresh {
		if data, ok, err := b.cache.Get(ctx, key); err == nil && ok {
			hit = json.Unmarshal(data, &raw) == nil
		}
	}
	if !hit {
		var err error
		if raw, err = b.Fetch(ctx, b.refresh); err != nil {
			return nil, err
		}
		if data, err := json.Marshal(raw); err == nil {
			if _, err := cache.Add(ctx, b.cache, key, data, b.ttl); err != nil {
				b.Logger.Debug("release cache write failed", "dependency", b.Dependency.Name, "err", err)
			}
		}
	}

	rs := policy.FromRegistry(b.Scheme, raw)
	if b.Prefilter != nil {
		var err error
		if rs, err = b.Prefilter(ctx, rs); err != nil {
			return nil, err
		}
	}
	b.releases, b.fetched = rs, true
	b.Logger.Debug("releases", "dependency", b.Dependency.Name, "count", len(rs), "cached", hit)
	return rs, nil
}

// Filtered runs the policy pipeline over the releases. security forces
// security-only filtering.
func (b *Base) Filtered(ctx context.Context, security bool) ([]policy.Release, error) {
	rs, err := b.Releases(ctx)
	if err != nil {
		return nil, err
	}
	p := b.Policy
	if security && (p == nil || !p.SecurityOnly) {
		cp := policy.Policy{}
		if p != nil {
			cp = *p
		}
		cp.SecurityOnly = true
		p = &cp
	}
	pipe := policy.Pipeline{
		Policy:                p,
		Name:                  b.Dependency.Name,
		RequirementPrerelease: b.requirementPrerelease(),
		Logger:                b.Logger,
	}
	return pipe.Filter(rs, b.Current())
}

func (b *Base) requirementPrerelease() bool {
	for _, r := range b.Dependency.Requirements {
		if NamesPrerelease(r.Requirement, b.Scheme) {
			return true
		}
	}
	return false
}

// NamesPrerelease reports whether any version token in req parses as a
// pre-release under scheme.
func NamesPrerelease(req string, scheme version.Scheme) bool {
	tokens := strings.FieldsFunc(req, func(r rune) bool {
		return strings.ContainsRune(" ,|<>=!~^[]()", r)
	})
	for _, tok := range tokens {
		if v, err := scheme.Parse(tok); err == nil && v.Prerelease() {
			return true
		}
	}
	return false
}

func (b *Base) LatestVersion(ctx context.Context) (version.Version, error) {
	rs, err := b.Filtered(ctx, false)
	if err != nil {
		return nil, err
	}
	if latest := Latest(rs); latest != nil {
		return latest, nil
	}
	return b.Current(), nil
}

func (b *Base) LatestResolvableVersion(ctx context.Context) (version.Version, error) {
	rs, err := b.Filtered(ctx, false)
	if err != nil {
		return nil, err
	}
	if v := LatestSatisfying(rs, b.Dependency.Requirements, b.Grammar); v != nil {
		return v, nil
	}
	return b.Current(), nil
}

func (b *Base) LowestSecurityFixVersion(ctx context.Context) (version.Version, error) {
	rs, err := b.Filtered(ctx, true)
	if err != nil {
		return nil, err
	}
	return LowestSecurityFix(rs, b.Current(), b.Policy), nil
}

// Target is the lowest security fix in security-only mode and the latest
// version otherwise.
func (b *Base) Target(ctx context.Context) (version.Version, error) {
	switch {
	case b.Policy != nil && b.Policy.SecurityOnly:
		return b.LowestSecurityFixVersion(ctx)
	case b.ResolvableTarget && b.Strategy == BumpVersionsIfNecessary:
		return b.LatestResolvableVersion(ctx)
	}
	return b.LatestVersion(ctx)
}

func (b *Base) UpdatedRequirements(ctx context.Context) ([]Requirement, error) {
	target, err := b.Target(ctx)
	if err != nil {
		return nil, err
	}
	return UpdateRequirements(b.Dependency.Requirements, target, b.Strategy, b.Grammar, UpdateOptions{Applies: b.Applies}), nil
}

// CanUpdate reports whether a newer version is available, or, for
// dependencies without a resolved version, whether any requirement would
// change. An ignore condition covering every version disables updates.
func (b *Base) CanUpdate(ctx context.Context) (bool, error) {
	if b.Policy.IgnoresAll() {
		return false, nil
	}
	if b.Dependency.Version != "" {
		up, err := b.versionUpToDate(ctx)
		return !up, err
	}
	return b.requirementsChange(ctx)
}

func (b *Base) UpToDate(ctx context.Context) (bool, error) {
	if b.Dependency.Version != "" {
		return b.versionUpToDate(ctx)
	}
	changed, err := b.requirementsChange(ctx)
	return !changed, err
}

// Vulnerable reports whether an advisory affects the current version.
func (b *Base) Vulnerable() bool {
	return b.Policy.Vulnerable(b.Current())
}

func (b *Base) versionUpToDate(ctx context.Context) (bool, error) {
	target, err := b.Target(ctx)
	if err != nil {
		return false, err
	}
	if IsSHA(b.Dependency.Version) {
		return target == nil || strings.HasPrefix(target.String(), b.Dependency.Version), nil
	}
	current := b.Current()
	if target == nil || current == nil {
		return true, nil
	}
	return target.Compare(current) <= 0, nil
}

func (b *Base) requirementsChange(ctx context.Context) (bool, error) {
	updated, err := b.UpdatedRequirements(ctx)
	if err != nil {
		return false, err
	}
	return len(Replacements(b.Dependency.Requirements, updated)) > 0, nil
}
