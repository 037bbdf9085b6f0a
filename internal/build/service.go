package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/models"
)

// Service is the canonical interface for executing site builds.
// The CLI, the watch loop and tests all route through it.
type Service interface {
	// Build runs the pipeline: clear → preflight → config → static → resolve → render.
	// Fatal failures return a non-nil error alongside a Result describing how far the build got.
	Build(ctx context.Context, req Request) (*Result, error)
}

// Request contains the inputs of one build.
type Request struct {
	// SiteID identifies the site to build. Required.
	SiteID string

	// TargetItemID narrows the build to one item plus the ancestors it
	// needs. Empty builds every resolvable item.
	TargetItemID string

	// SkipClear keeps the previous contents of the staging directory.
	SkipClear bool

	// OnProgress receives a localized progress message after every rendered item.
	OnProgress func(message string)
}

// Result contains the outcome of a build execution.
type Result struct {
	// Status indicates overall build outcome.
	Status Status

	// BuildID is a fresh UUID assigned to every build.
	BuildID string

	SiteID string

	// Descriptors are the descriptors handed to the renderer, in render order.
	Descriptors []models.Descriptor

	// Main is the target descriptor of a partial build (nil otherwise).
	Main *models.Descriptor

	// Report carries stage timings, per-item failures and file counts.
	Report *Report

	// Duration is the total build execution time.
	Duration time.Duration

	// StartTime is when the build started.
	StartTime time.Time

	// EndTime is when the build completed.
	EndTime time.Time
}

// Items returns what the caller asked for: the single main descriptor for a
// partial build, or every rendered descriptor for a full build.
func (r *Result) Items() []models.Descriptor {
	if r == nil {
		return nil
	}
	if r.Main != nil {
		return []models.Descriptor{*r.Main}
	}
	return r.Descriptors
}

// Status represents the outcome of a build execution.
type Status string

const (
	// StatusSuccess indicates every descriptor rendered.
	StatusSuccess Status = "success"

	// StatusFailed indicates a fatal stage error or at least one failed item.
	StatusFailed Status = "failed"

	// StatusCancelled indicates the context was cancelled mid-build.
	StatusCancelled Status = "cancelled"
)

// IsTerminal returns true if the status represents a final state.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

// IsSuccess returns true if the build completed successfully.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}
