// Package sequencer runs work items strictly one at a time with a minimum
// spacing between starts, reporting progress after each completion.
package sequencer

import (
	"context"
	"math"
	"time"

	"golang.org/x/time/rate"
)

// Options configures a run.
type Options struct {
	// Pace is the minimum interval between the starts of two consecutive
	// items. Zero disables pacing.
	Pace time.Duration
	// OnProgress receives the rounded percentage (0-100) of completed items
	// after every item, successful or not.
	OnProgress func(percent int)
}

// Failure records one item whose operation returned an error.
type Failure struct {
	Index int
	Err   error
}

// Outcome summarizes a run.
type Outcome struct {
	Total     int
	Attempted int
	Failures  []Failure
}

// OK reports whether every item was attempted and succeeded.
func (o Outcome) OK() bool {
	return o.Attempted == o.Total && len(o.Failures) == 0
}

// Succeeded is the number of attempted items without failure.
func (o Outcome) Succeeded() int {
	return o.Attempted - len(o.Failures)
}

// Run calls op for each item in order. A failing item does not stop the run;
// it is recorded in the outcome. Cancellation is checked before each item and
// while waiting for the pace interval, in which case the outcome so far is
// returned together with the context error.
func Run[T any](ctx context.Context, items []T, op func(context.Context, T) error, opts Options) (Outcome, error) {
	out := Outcome{Total: len(items)}
	limit := rate.Inf
	if opts.Pace > 0 {
		limit = rate.Every(opts.Pace)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		if err := limiter.Wait(ctx); err != nil {
			return out, err
		}

		out.Attempted++
		if err := op(ctx, item); err != nil {
			out.Failures = append(out.Failures, Failure{Index: i, Err: err})
		}

		if opts.OnProgress != nil {
			opts.OnProgress(Percent(i+1, len(items)))
		}
	}
	return out, nil
}

// Percent returns round(done*100/total), or 100 when total is zero.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
