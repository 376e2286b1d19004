package api

import (
	"time"

	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/policy"
)

// CheckRequest is the body of POST /v1/check. Dependencies and Manifests
// may be combined; manifest dependencies are appended in order.
type CheckRequest struct {
	Ecosystem    string            `json:"ecosystem"`
	Strategy     string            `json:"strategy,omitempty"`
	Registry     string            `json:"registry,omitempty"`
	Dependencies []deps.Dependency `json:"dependencies,omitempty"`
	Manifests    []Manifest        `json:"manifests,omitempty"`

	Ignore          []string              `json:"ignore,omitempty"`
	Advisories      []policy.AdvisorySpec `json:"security_advisories,omitempty"`
	Cooldown        *policy.Cooldown      `json:"cooldown,omitempty"`
	RaiseOnIgnored  bool                  `json:"raise_on_ignored,omitempty"`
	AllowPrerelease bool                  `json:"allow_prerelease,omitempty"`
	SecurityOnly    bool                  `json:"security_only,omitempty"`
	Refresh         bool                  `json:"refresh,omitempty"`
}

// Manifest is a manifest file sent inline.
type Manifest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// CheckResponse is the body answering POST /v1/check.
type CheckResponse struct {
	RunID     string         `json:"run_id"`
	Ecosystem string         `json:"ecosystem"`
	Duration  string         `json:"duration"`
	Outcomes  []deps.Outcome `json:"outcomes"`
}

// Options layers the request's settings over base.
func (r *CheckRequest) Options(base deps.Options) (deps.Options, error) {
	opts := base
	s, err := deps.ParseStrategy(r.Strategy)
	if err != nil {
		return opts, err
	}
	opts.Strategy = s
	opts.Refresh = base.Refresh || r.Refresh
	if r.Registry != "" {
		if err := errors.ValidateRegistry(r.Registry); err != nil {
			return opts, err
		}
		opts.Registry = r.Registry
	}

	popts := append([]policy.Option(nil), base.PolicyOptions...)
	if len(r.Ignore) > 0 {
		popts = append(popts, policy.WithIgnored(r.Ignore...))
	}
	if len(r.Advisories) > 0 {
		popts = append(popts, policy.WithAdvisories(r.Advisories...))
	}
	if r.Cooldown != nil {
		popts = append(popts, policy.WithCooldown(r.Cooldown))
	}
	if r.RaiseOnIgnored {
		popts = append(popts, policy.WithRaiseOnIgnored(true))
	}
	if r.AllowPrerelease {
		popts = append(popts, policy.WithAllowPrerelease(true))
	}
	if r.SecurityOnly {
		popts = append(popts, policy.WithSecurityOnly(true))
	}
	opts.PolicyOptions = popts
	return opts, nil
}

// Resolve returns the dependencies to check: the explicit ones followed
// by those extracted from the manifests.
func (r *CheckRequest) Resolve(eco *deps.Ecosystem) ([]deps.Dependency, error) {
	out := append([]deps.Dependency(nil), r.Dependencies...)
	for _, m := range r.Manifests {
		if err := errors.ValidatePath(m.Path); err != nil {
			return nil, err
		}
		x, ok := eco.Extractor(m.Path)
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "%s is not a %s manifest", m.Path, eco.Name)
		}
		found, err := x.Extract(m.Path, []byte(m.Content))
		if err != nil {
			return nil, err
		}
		out = append(out, found...)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no dependencies to check")
	}
	return out, nil
}

// CooldownDays is a cooldown applying the same window to every update.
func CooldownDays(days int) *policy.Cooldown {
	if days <= 0 {
		return nil
	}
	return &policy.Cooldown{DefaultDays: days}
}

func elapsed(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
