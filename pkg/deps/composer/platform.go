package composer

import (
	"context"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/integrations/packagist"
	"github.com/matzehuels/updatecheck/pkg/policy"
	"github.com/matzehuels/updatecheck/pkg/version"
)

// Requirement metadata keys written by ComposerJSON.
const (
	MetaPHP        = "platform-php"
	MetaExtensions = "extensions"
)

// Platform is the PHP runtime a project installs on.
type Platform struct {
	// PHP is the platform PHP version; nil skips the PHP check.
	PHP version.Version
	// Extensions are the declared "ext-*" names, without the prefix.
	Extensions []string
}

// PlatformOf reads the platform recorded on dep's requirements.
func PlatformOf(dep deps.Dependency) Platform {
	var p Platform
	for _, r := range dep.Requirements {
		if v, err := Scheme.Parse(r.Metadata[MetaPHP]); err == nil && p.PHP == nil {
			p.PHP = v
		}
		for _, ext := range strings.Split(r.Metadata[MetaExtensions], ",") {
			if ext = strings.TrimSpace(ext); ext != "" && !slices.Contains(p.Extensions, ext) {
				p.Extensions = append(p.Extensions, ext)
			}
		}
	}
	return p
}

type platformFilter struct {
	client   *packagist.Client
	name     string
	platform Platform
	attempts int
	refresh  bool
	logger   *log.Logger
}

func (f *platformFilter) filter(ctx context.Context, rs []policy.Release) ([]policy.Release, error) {
	versions, err := f.client.FetchVersions(ctx, f.name, f.refresh)
	if err != nil {
		return nil, err
	}
	reqs := make(map[string]map[string]string, len(versions))
	for _, v := range versions {
		reqs[v.Version] = v.Platform
	}

	var assumed []string
	out, err := deps.Discover(ctx, f.attempts, func(known []string) ([]policy.Release, error) {
		assumed = known
		return Installable(rs, reqs, f.platform, known)
	})
	if err != nil {
		return nil, err
	}
	if len(assumed) > 0 {
		f.logger.Info("assuming platform extensions", "dependency", f.name, "extensions", assumed)
	}
	return out, nil
}

// Installable drops releases the platform cannot install. reqs maps a
// release's raw version to its platform requirements. When the newest
// release is blocked only by undeclared extensions, a
// *deps.NeedMoreContextError naming them is returned so discovery can
// assume them and retry.
func Installable(rs []policy.Release, reqs map[string]map[string]string, p Platform, assumed []string) ([]policy.Release, error) {
	available := append(slices.Clone(p.Extensions), assumed...)

	var (
		out     []policy.Release
		newest  *policy.Release
		missing []string
	)
	for i, r := range rs {
		if r.Version == nil {
			continue
		}
		if !phpAllows(reqs[r.Raw]["php"], p.PHP) {
			continue
		}
		need := missingExtensions(reqs[r.Raw], available)
		if len(need) == 0 {
			out = append(out, r)
		}
		if !r.Version.Prerelease() && (newest == nil || r.Version.Compare(newest.Version) > 0) {
			newest, missing = &rs[i], need
		}
	}
	if len(missing) > 0 {
		return nil, &deps.NeedMoreContextError{Items: missing}
	}
	return out, nil
}

func phpAllows(req string, php version.Version) bool {
	if req == "" || php == nil {
		return true
	}
	c, err := Dialect.Parse(req)
	if err != nil {
		return true
	}
	return c.Check(php)
}

func missingExtensions(reqs map[string]string, available []string) []string {
	var out []string
	for name := range reqs {
		ext, ok := strings.CutPrefix(name, "ext-")
		if ok && !slices.ContainsFunc(available, func(a string) bool { return strings.EqualFold(a, ext) }) {
			out = append(out, ext)
		}
	}
	slices.Sort(out)
	return out
}
