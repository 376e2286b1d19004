package deps

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// Outcome is the result for one dependency of a batch. Exactly one of
// Update and Diagnostic is set.
type Outcome struct {
	Dependency Dependency         `json:"dependency"`
	Update     *ResolvedUpdate    `json:"update,omitempty"`
	Diagnostic *errors.Diagnostic `json:"diagnostic,omitempty"`
}

// Batch checks deps concurrently, bounded by the configured concurrency.
// A failing dependency yields a diagnostic and never affects the others.
// Outcomes are returned in input order.
func Batch(ctx context.Context, eco *Ecosystem, deps []Dependency, opts Options) []Outcome {
	opts = opts.WithDefaults()
	out := make([]Outcome, len(deps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Config.Concurrency)
	for i, dep := range deps {
		dep.Ecosystem = eco.Name
		out[i].Dependency = dep
		g.Go(func() error {
			upd, err := checkOne(gctx, eco, dep, opts)
			if err != nil {
				opts.Logger.Warn("check failed", "ecosystem", eco.Name, "dependency", dep.Name, "err", err)
				out[i].Diagnostic = errors.Diagnose(err)
			} else {
				out[i].Update = upd
			}
			if opts.OnOutcome != nil {
				opts.OnOutcome(out[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func checkOne(ctx context.Context, eco *Ecosystem, dep Dependency, opts Options) (*ResolvedUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "check cancelled")
	}
	c, err := eco.Checker(dep, opts)
	if err != nil {
		return nil, err
	}
	return Check(ctx, c, dep)
}
