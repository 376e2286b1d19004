package docker

import (
	"context"
	"strings"
	"sync"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/integrations"
	"github.com/matzehuels/updatecheck/pkg/integrations/oci"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// maxLatestLookups bounds the digest requests made to find the version
// "latest" points at.
const maxLatestLookups = 20

const latestTag = "latest"

var Ecosystem = &deps.Ecosystem{
	Name:            "docker",
	DefaultRegistry: "docker.io",
	RegistryAliases: map[string]string{"dockerhub": "docker.io", "hub.docker.com": "docker.io", oci.DockerHub: "docker.io"},
	ManifestFiles: []string{
		"Dockerfile", "*.Dockerfile", "Dockerfile.*", "Containerfile",
		"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml",
	},
	NewChecker:    NewChecker,
	NewExtractors: func() []deps.Extractor { return []deps.Extractor{Dockerfile{}, Compose{}} },
}

// Checker resolves image tags. It embeds the shared pipeline for ignore,
// cooldown and advisory filtering and adds tag matching, precision
// handling and digest checks on top.
type Checker struct {
	*deps.Base

	client  *oci.Client
	ref     oci.Reference
	tag     string
	current *Tag

	mu      sync.Mutex
	digests map[string]string
}

// NewChecker returns a checker for an image. The registry comes from
// opts.Registry, then from the requirement source, then from the image
// name itself.
func NewChecker(dep deps.Dependency, opts deps.Options) (deps.Checker, error) {
	c := &Checker{
		client:  oci.NewClient(opts.Cache, opts.Config.CacheTTL, opts.ClientOptions()...),
		ref:     Reference(dep, opts.Registry),
		tag:     currentTag(dep),
		digests: map[string]string{},
	}
	c.current, _ = ParseTag(c.tag)

	b, err := deps.NewBase(dep, opts, deps.Spec{
		Ecosystem: "docker",
		Registry:  "docker.io",
		Scheme:    TagScheme,
		Grammar:   Grammar{},
		Fetch: func(ctx context.Context, refresh bool) ([]integrations.Release, error) {
			return c.client.FetchTags(ctx, c.ref, refresh)
		},
		Prefilter: c.candidates,
		Applies:   imageSource,
	})
	if err != nil {
		return nil, err
	}
	if pinnedDigest(dep) && b.Policy != nil && b.Policy.RaiseOnIgnored {
		p := *b.Policy
		p.RaiseOnIgnored = false
		b.Policy = &p
	}
	c.Base = b
	return c, nil
}

// Reference locates the repository of dep. A non-empty registry overrides
// the one recorded on the requirements.
func Reference(dep deps.Dependency, registry string) oci.Reference {
	if registry != "" {
		return oci.Reference{Registry: registry, Repository: dep.Name}
	}
	for _, r := range dep.Requirements {
		if r.Source != nil && r.Source.Registry != "" {
			return oci.ParseReference(r.Source.Registry + "/" + dep.Name)
		}
	}
	return oci.ParseReference(dep.Name)
}

func currentTag(dep deps.Dependency) string {
	if dep.Version != "" {
		return dep.Version
	}
	for _, r := range dep.Requirements {
		if r.Source != nil && r.Source.Tag != "" {
			return r.Source.Tag
		}
	}
	return ""
}

func pinnedDigest(dep deps.Dependency) bool {
	for _, r := range dep.Requirements {
		if r.Source != nil && r.Source.Digest != "" {
			return true
		}
	}
	return false
}

func imageSource(r deps.Requirement) bool {
	return r.Source == nil || r.Source.Kind == deps.SourceDocker || r.Source.Kind == deps.SourceRegistry
}

// candidates keeps the tags comparable with the current one and flags
// tags newer than "latest" as pre-releases.
func (c *Checker) candidates(ctx context.Context, rs []policy.Release) ([]policy.Release, error) {
	if c.current == nil {
		return nil, nil
	}
	var out []policy.Release
	for _, r := range rs {
		t, ok := r.Version.(*Tag)
		if !ok || !c.current.Comparable(t) {
			continue
		}
		out = append(out, r)
	}
	if c.current.Prerelease() {
		return out, nil
	}
	latest, err := c.versionOfLatest(ctx, rs)
	if err != nil || latest == nil {
		return out, err
	}
	for i, r := range out {
		if t := r.Version.(*Tag); t.Compare(latest) > 0 {
			out[i].Version = t.asPrerelease()
		}
	}
	return out, nil
}

// versionOfLatest finds the newest canonical tag sharing the digest of
// "latest". It returns nil when there is no "latest" tag or no match.
func (c *Checker) versionOfLatest(ctx context.Context, rs []policy.Release) (*Tag, error) {
	hasLatest := false
	var canonical []version.Version
	for _, r := range rs {
		if r.Raw == latestTag {
			hasLatest = true
		}
		if t, ok := r.Version.(*Tag); ok && t.Canonical() {
			canonical = append(canonical, t)
		}
	}
	if !hasLatest {
		return nil, nil
	}
	want, err := c.digest(ctx, latestTag)
	if err != nil || want == "" {
		return nil, err
	}
	version.Sort(canonical)
	for i, n := len(canonical)-1, 0; i >= 0 && n < maxLatestLookups; i, n = i-1, n+1 {
		t := canonical[i].(*Tag)
		d, err := c.digest(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		if d == want {
			return t, nil
		}
	}
	return nil, nil
}

func (c *Checker) digest(ctx context.Context, tag string) (string, error) {
	c.mu.Lock()
	d, ok := c.digests[tag]
	c.mu.Unlock()
	if ok {
		return d, nil
	}
	d, err := c.client.Digest(ctx, c.ref, tag, false)
	if err != nil {
		return "", err
	}
	c.mu.Lock()
	c.digests[tag] = d
	c.mu.Unlock()
	return d, nil
}

// LatestVersion is the newest comparable tag. A more precise tag only
// replaces the newest tag at the current precision when their digests
// differ. Without a comparable current tag, the current tag is returned.
func (c *Checker) LatestVersion(ctx context.Context) (version.Version, error) {
	if c.current == nil {
		return nil, nil
	}
	rs, err := c.Filtered(ctx, false)
	if err != nil {
		return nil, err
	}
	latest, same := c.newest(rs)
	if latest == nil {
		return c.current, nil
	}
	if latest.SamePrecision(c.current) || same == nil || !same.SameButLessPrecise(latest) {
		return latest, nil
	}
	a, err := c.digest(ctx, same.Name)
	if err != nil {
		return nil, err
	}
	b, err := c.digest(ctx, latest.Name)
	if err != nil {
		return nil, err
	}
	if a != "" && a == b {
		return same, nil
	}
	return latest, nil
}

// newest returns the highest candidate, preferring the current precision
// on ties, and the highest candidate at the current precision.
func (c *Checker) newest(rs []policy.Release) (latest, same *Tag) {
	for _, r := range rs {
		t, ok := r.Version.(*Tag)
		if !ok {
			continue
		}
		if latest == nil {
			latest = t
		} else if cmp := t.Compare(latest); cmp > 0 || cmp == 0 && t.SamePrecision(c.current) {
			latest = t
		}
		if t.SamePrecision(c.current) && (same == nil || t.Compare(same) > 0) {
			same = t
		}
	}
	return latest, same
}

// LatestResolvableVersion equals LatestVersion: image tags have no
// resolution constraints.
func (c *Checker) LatestResolvableVersion(ctx context.Context) (version.Version, error) {
	return c.LatestVersion(ctx)
}

func (c *Checker) Target(ctx context.Context) (version.Version, error) {
	if c.Policy != nil && c.Policy.SecurityOnly {
		return c.LowestSecurityFixVersion(ctx)
	}
	return c.LatestVersion(ctx)
}

// targetTag is the tag to move to, falling back to the current tag. A
// digest pinned without a tag follows "latest".
func (c *Checker) targetTag(ctx context.Context) (string, error) {
	v, err := c.Target(ctx)
	if err != nil {
		return "", err
	}
	switch {
	case v != nil:
		return v.String(), nil
	case c.tag == "" && pinnedDigest(c.Dependency):
		return latestTag, nil
	}
	return c.tag, nil
}

// UpToDate compares digests when any requirement pins one, and tag
// versions otherwise.
func (c *Checker) UpToDate(ctx context.Context) (bool, error) {
	if pinnedDigest(c.Dependency) {
		return c.digestUpToDate(ctx)
	}
	v, err := c.Target(ctx)
	if err != nil || v == nil || c.current == nil {
		return true, err
	}
	return v.Compare(c.current) <= 0, nil
}

func (c *Checker) CanUpdate(ctx context.Context) (bool, error) {
	if c.Policy.IgnoresAll() {
		return false, nil
	}
	up, err := c.UpToDate(ctx)
	return !up, err
}

func (c *Checker) digestUpToDate(ctx context.Context) (bool, error) {
	tag, err := c.targetTag(ctx)
	if err != nil || tag == "" {
		return true, err
	}
	want, err := c.digest(ctx, tag)
	if err != nil || want == "" {
		return true, err
	}
	for _, r := range c.Dependency.Requirements {
		if r.Source != nil && r.Source.Digest != "" && r.Source.Digest != want {
			return false, nil
		}
	}
	return true, nil
}

// UpdatedRequirements moves tags to the target and digests to the
// target's digest. The requirement text is rendered as tag[@digest].
func (c *Checker) UpdatedRequirements(ctx context.Context) ([]deps.Requirement, error) {
	tag, err := c.targetTag(ctx)
	if err != nil {
		return nil, err
	}
	var digest string
	if pinnedDigest(c.Dependency) && tag != "" {
		if digest, err = c.digest(ctx, tag); err != nil {
			return nil, err
		}
	}

	out := make([]deps.Requirement, len(c.Dependency.Requirements))
	for i, r := range c.Dependency.Requirements {
		out[i] = r.Clone()
		if c.Strategy == deps.LockfileOnly || !c.Applies(r) || r.Source == nil {
			continue
		}
		src := out[i].Source
		if src.Tag != "" && tag != "" {
			if t, err := ParseTag(src.Tag); err == nil && c.current != nil && c.current.Comparable(t) {
				src.Tag = tag
			}
		}
		if src.Digest != "" && digest != "" {
			src.Digest = digest
		}
		if r.Requirement != "" {
			out[i].Requirement = RenderReference(src.Tag, src.Digest)
		}
	}
	return out, nil
}

// RenderReference joins a tag and digest as they follow an image name.
func RenderReference(tag, digest string) string {
	switch {
	case digest == "":
		return tag
	case tag == "":
		return "@" + digest
	}
	return tag + "@" + digest
}

// Grammar implements deps.Grammar for tag[@digest] requirements. A tag
// admits only itself.
type Grammar struct{}

func (Grammar) SatisfiedBy(req string, v version.Version) (bool, error) {
	tag, _, _ := strings.Cut(req, "@")
	t, err := ParseTag(tag)
	if err != nil {
		return false, err
	}
	return t.Compare(v) == 0, nil
}

func (Grammar) RenderUpdated(req string, target version.Version, _ deps.Strategy) (string, error) {
	_, digest, _ := strings.Cut(req, "@")
	return RenderReference(target.String(), digest), nil
}

func (Grammar) Pin(target version.Version) string { return target.String() }
