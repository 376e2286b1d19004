package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/updatecheck/internal/api"
	"github.com/matzehuels/updatecheck/pkg/deps"
	"github.com/matzehuels/updatecheck/pkg/deps/ecosystems"
	"github.com/matzehuels/updatecheck/pkg/errors"
	"github.com/matzehuels/updatecheck/pkg/policy"
)

// checkFlags holds the flags of the check command.
type checkFlags struct {
	ecosystem       string
	name            string
	version         string
	requirements    []string
	file            string
	manifests       []string
	strategy        string
	registry        string
	ignore          []string
	advisories      []string
	cooldownDays    int
	raiseOnIgnored  bool
	allowPrerelease bool
	securityOnly    bool
	json            bool
}

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check dependencies for updates",
		Long: `Check one dependency, or every dependency declared in manifest files, for
updates.

A single dependency is given with --ecosystem and --name, plus --version
and/or --requirement. Manifests are given with --manifest; their ecosystem
is detected from the file name unless --ecosystem is set.`,
		Example: `  updatecheck check -e npm --name lodash --version 4.17.20 --requirement ^4.17.20
  updatecheck check -e cargo --name serde --requirement 1.0 --strategy widen_ranges
  updatecheck check --manifest package.json --manifest go.mod
  updatecheck check --manifest Dockerfile --ignore ">= 2.0"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.invoke(cmd, func(opts deps.Options) error {
				return c.runCheck(cmd.Context(), f, opts)
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.ecosystem, "ecosystem", "e", "", "ecosystem: "+strings.Join(ecosystems.Names(), ", "))
	flags.StringVar(&f.name, "name", "", "dependency name")
	flags.StringVar(&f.version, "version", "", "current resolved version")
	flags.StringArrayVar(&f.requirements, "requirement", nil, "declared requirement (repeatable)")
	flags.StringVar(&f.file, "file", "", "manifest file the requirements are declared in")
	flags.StringArrayVarP(&f.manifests, "manifest", "m", nil, "manifest file to extract dependencies from (repeatable)")
	flags.StringVar(&f.strategy, "strategy", "", "bump_versions_if_necessary, bump_versions, widen_ranges or lockfile_only")
	flags.StringVar(&f.registry, "registry", "", "registry base URL overriding the ecosystem default")
	flags.StringArrayVar(&f.ignore, "ignore", nil, "ignore condition, e.g. \">= 2.0\" or \"1.5.x\" (repeatable)")
	flags.StringArrayVar(&f.advisories, "security-advisory", nil, "advisory as VULNERABLE[;SAFE] ranges (repeatable)")
	flags.IntVar(&f.cooldownDays, "cooldown-days", 0, "skip releases younger than this many days")
	flags.BoolVar(&f.raiseOnIgnored, "raise-on-ignored", false, "fail when ignore conditions exclude every newer version")
	flags.BoolVar(&f.allowPrerelease, "allow-prerelease", false, "consider pre-releases")
	flags.BoolVar(&f.securityOnly, "security-only", false, "only update to fix advisories")
	flags.BoolVar(&f.json, "json", false, "print results as JSON")
	registerCheckCompletions(cmd)

	return cmd
}

// request turns the flags into an API request without dependencies.
func (f checkFlags) request() (api.CheckRequest, error) {
	req := api.CheckRequest{
		Ecosystem:       f.ecosystem,
		Strategy:        f.strategy,
		Registry:        f.registry,
		Ignore:          f.ignore,
		Cooldown:        api.CooldownDays(f.cooldownDays),
		RaiseOnIgnored:  f.raiseOnIgnored,
		AllowPrerelease: f.allowPrerelease,
		SecurityOnly:    f.securityOnly,
	}
	for _, a := range f.advisories {
		spec, err := parseAdvisory(a)
		if err != nil {
			return req, err
		}
		req.Advisories = append(req.Advisories, spec)
	}
	return req, nil
}

// parseAdvisory reads "VULNERABLE[;SAFE]".
func parseAdvisory(s string) (policy.AdvisorySpec, error) {
	vulnerable, safe, _ := strings.Cut(s, ";")
	vulnerable, safe = strings.TrimSpace(vulnerable), strings.TrimSpace(safe)
	if vulnerable == "" && safe == "" {
		return policy.AdvisorySpec{}, errors.New(errors.ErrCodeInvalidPolicy, "empty security advisory")
	}
	var spec policy.AdvisorySpec
	if vulnerable != "" {
		spec.VulnerableVersions = []string{vulnerable}
	}
	if safe != "" {
		spec.SafeVersions = []string{safe}
	}
	return spec, nil
}

// dependency builds the single dependency described by the flags.
func (f checkFlags) dependency() (deps.Dependency, error) {
	if f.name == "" {
		return deps.Dependency{}, errors.New(errors.ErrCodeInvalidInput, "--name or --manifest is required")
	}
	if f.version == "" && len(f.requirements) == 0 {
		return deps.Dependency{}, errors.New(errors.ErrCodeInvalidInput, "--version or --requirement is required")
	}
	dep := deps.Dependency{Name: f.name, Version: f.version}
	for _, r := range f.requirements {
		dep.Requirements = append(dep.Requirements, deps.Requirement{File: f.file, Requirement: r})
	}
	return dep, nil
}

// batch is the set of dependencies of one ecosystem to check.
type batch struct {
	eco  *deps.Ecosystem
	deps []deps.Dependency
}

// collect groups the dependencies to check by ecosystem.
func (f checkFlags) collect() ([]batch, error) {
	if len(f.manifests) == 0 {
		eco, err := ecosystems.Lookup(f.ecosystem)
		if err != nil {
			return nil, err
		}
		dep, err := f.dependency()
		if err != nil {
			return nil, err
		}
		return []batch{{eco: eco, deps: []deps.Dependency{dep}}}, nil
	}

	var out []batch
	index := map[string]int{}
	for _, path := range f.manifests {
		eco, found, err := extractManifest(path, f.ecosystem)
		if err != nil {
			return nil, err
		}
		i, ok := index[eco.Name]
		if !ok {
			i = len(out)
			index[eco.Name] = i
			out = append(out, batch{eco: eco})
		}
		out[i].deps = append(out[i].deps, found...)
	}
	return out, nil
}

func extractManifest(path, ecosystem string) (*deps.Ecosystem, []deps.Dependency, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.New(errors.ErrCodeFileNotFound, "manifest %s not found", path)
		}
		return nil, nil, err
	}

	var (
		eco *deps.Ecosystem
		x   deps.Extractor
		ok  bool
	)
	if ecosystem != "" {
		if eco, err = ecosystems.Lookup(ecosystem); err != nil {
			return nil, nil, err
		}
		x, ok = eco.Extractor(path)
	} else {
		eco, x, ok = ecosystems.ForManifest(path)
	}
	if !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidManifest, "unsupported manifest: %s", path)
	}
	found, err := x.Extract(path, content)
	if err != nil {
		return nil, nil, err
	}
	return eco, found, nil
}

func (c *CLI) runCheck(ctx context.Context, f checkFlags, base deps.Options) error {
	req, err := f.request()
	if err != nil {
		return err
	}
	opts, err := req.Options(base)
	if err != nil {
		return err
	}
	batches, err := f.collect()
	if err != nil {
		return err
	}

	interactive := c.Interactive && !f.json
	results := make(map[string][]deps.Outcome, len(batches))
	failed := 0
	for _, b := range batches {
		prog := newProgress(c.Logger)
		outcomes := c.runBatch(ctx, b, opts, interactive)
		prog.done("checked dependencies", "ecosystem", b.eco.Name, "count", len(outcomes))
		results[b.eco.Name] = outcomes
		for _, o := range outcomes {
			if o.Diagnostic != nil {
				failed++
			}
		}
		if !f.json {
			printOutcomes(b.eco.Name, outcomes)
		}
	}

	if f.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of the checks failed", failed)
	}
	return nil
}
