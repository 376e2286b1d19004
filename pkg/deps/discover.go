package deps

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/updatecheck/pkg/errors"
)

// NeedMoreContextError signals that a resolution attempt needs more
// knowledge, such as PHP extensions a package requires, before it can
// succeed.
type NeedMoreContextError struct {
	Items []string
}

func (e *NeedMoreContextError) Error() string {
	return fmt.Sprintf("missing: %s", strings.Join(e.Items, ", "))
}

// NextKnowledge folds a signal into the known items. retry is false when
// the signal adds nothing new, since another attempt would fail the same
// way.
func NextKnowledge(known []string, signal *NeedMoreContextError) (next []string, retry bool) {
	next = slices.Clone(known)
	if signal == nil {
		return next, false
	}
	for _, item := range signal.Items {
		if item != "" && !slices.Contains(next, item) {
			next = append(next, item)
			retry = true
		}
	}
	slices.Sort(next)
	return next, retry
}

// Discover calls run with growing knowledge until it stops asking for more
// or maxAttempts is reached. Exhausted or stalled discovery returns a
// MISSING_EXTENSIONS error.
func Discover[T any](ctx context.Context, maxAttempts int, run func(known []string) (T, error)) (T, error) {
	var (
		zero  T
		known []string
	)
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		res, err := run(known)
		var need *NeedMoreContextError
		if !errors.As(err, &need) {
			return res, err
		}
		next, retry := NextKnowledge(known, need)
		if !retry || attempt >= maxAttempts {
			return zero, errors.Wrap(errors.ErrCodeMissingExtensions, err, "gave up after %d attempts", attempt)
		}
		known = next
	}
}
