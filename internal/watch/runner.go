package watch

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Runner serialises rebuilds. Triggers arriving while a build runs collapse
// into exactly one follow-up build.
type Runner struct {
	svc      build.Service
	req      build.Request
	triggers chan string
	onResult func(res *build.Result, err error)
}

// NewRunner returns a runner that executes req against svc on every trigger.
func NewRunner(svc build.Service, req build.Request) *Runner {
	return &Runner{
		svc:      svc,
		req:      req,
		triggers: make(chan string, 1),
		onResult: func(*build.Result, error) {},
	}
}

// OnResult registers a callback invoked after every build.
func (r *Runner) OnResult(fn func(res *build.Result, err error)) {
	if fn != nil {
		r.onResult = fn
	}
}

// Trigger requests a rebuild without blocking. It reports false when a
// rebuild was already pending.
func (r *Runner) Trigger(reason string) bool {
	select {
	case r.triggers <- reason:
		return true
	default:
		slog.Debug("Rebuild already pending", slog.String("reason", reason))
		return false
	}
}

// Run executes builds until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-r.triggers:
			slog.Info("Rebuilding site", logfields.SiteID(r.req.SiteID), slog.String("reason", reason))
			res, err := r.svc.Build(ctx, r.req)
			if err != nil {
				slog.Error("Rebuild failed", logfields.SiteID(r.req.SiteID), logfields.Error(err))
			}
			r.onResult(res, err)
		}
	}
}
