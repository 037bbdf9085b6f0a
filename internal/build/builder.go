package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/i18n"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/observability"
	"git.home.luguber.info/inful/sitebuilder/internal/resolve"
	"git.home.luguber.info/inful/sitebuilder/internal/sanitize"
	"git.home.luguber.info/inful/sitebuilder/internal/sequencer"
	"git.home.luguber.info/inful/sitebuilder/internal/staging"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Stage names, in execution order.
const (
	StageLock           = "lock"
	StagePrepareStaging = "prepare_staging"
	StagePreflight      = "preflight"
	StageWriteConfig    = "write_config"
	StageCopyStatic     = "copy_static"
	StageResolve        = "resolve"
	StageRender         = "render"
)

// Renderer dispatches descriptors to render handlers. *render.Registry implements it.
type Renderer interface {
	Missing(descs []models.Descriptor) *models.Descriptor
	Render(ctx context.Context, d *models.Descriptor) ([]models.OutputFile, error)
}

// Builder is the standard implementation of Service.
type Builder struct {
	store    storage.Store
	themes   theme.ManifestSource
	renderer Renderer
	staging  *staging.Manager

	notifier notify.Notifier
	messages *i18n.Messages
	recorder metrics.Recorder
	pace     time.Duration
	lock     bool
	newID    func() string
}

var _ Service = (*Builder)(nil)

// NewBuilder creates a Builder with a 300ms pace, English messages, no
// metrics and the staging lock enabled.
func NewBuilder(store storage.Store, themes theme.ManifestSource, renderer Renderer, stage *staging.Manager) *Builder {
	return &Builder{
		store:    store,
		themes:   themes,
		renderer: renderer,
		staging:  stage,
		notifier: notify.Nop{},
		messages: i18n.New("en"),
		recorder: metrics.NoopRecorder{},
		pace:     300 * time.Millisecond,
		lock:     true,
		newID:    uuid.NewString,
	}
}

// WithNotifier sets the sink for user-visible alerts and file errors.
func (b *Builder) WithNotifier(n notify.Notifier) *Builder {
	if n != nil {
		b.notifier = n
	}
	return b
}

// WithMessages sets the catalog used for progress and alert strings.
func (b *Builder) WithMessages(m *i18n.Messages) *Builder {
	if m != nil {
		b.messages = m
	}
	return b
}

// WithRecorder sets the metrics recorder.
func (b *Builder) WithRecorder(r metrics.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithPace sets the minimum interval between two item renders. Zero disables pacing.
func (b *Builder) WithPace(d time.Duration) *Builder {
	b.pace = d
	return b
}

// WithLock toggles the cross-process staging lock.
func (b *Builder) WithLock(enabled bool) *Builder {
	b.lock = enabled
	return b
}

// Build executes the complete build pipeline.
func (b *Builder) Build(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	buildID := b.newID()
	result := &Result{
		BuildID:   buildID,
		SiteID:    req.SiteID,
		StartTime: start,
		Report:    newReport(buildID, req, start),
	}
	ctx = observability.WithBuildID(ctx, buildID)

	if strings.TrimSpace(req.SiteID) == "" {
		return b.fail(ctx, result, sberrors.ValidationFailed("site_id", "site id is required"))
	}
	ctx = observability.WithSiteID(ctx, req.SiteID)
	observability.InfoContext(ctx, "Starting build",
		slog.String("target", req.TargetItemID),
		slog.Bool("skip_clear", req.SkipClear))

	if b.lock {
		var lock *staging.Lock
		err := b.runStage(ctx, result.Report, StageLock, StageErrorFatal, func(context.Context) error {
			var err error
			lock, err = b.staging.Lock()
			return err
		})
		if err != nil {
			return b.fail(ctx, result, err)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				observability.WarnContext(ctx, "Failed to release staging lock", logfields.Error(err))
			}
		}()
	}

	if !req.SkipClear {
		if err := b.runStage(ctx, result.Report, StagePrepareStaging, StageErrorFatal, b.staging.Clear); err != nil {
			return b.fail(ctx, result, err)
		}
	}

	resolver := resolve.New(b.store, b.themes,
		resolve.WithNotifier(b.notifier),
		resolve.WithMessages(b.messages))

	// The site and its theme manifest are checked before anything is written.
	var (
		site     *models.Site
		manifest *models.ThemeManifest
	)
	err := b.runStage(ctx, result.Report, StagePreflight, StageErrorFatal, func(ctx context.Context) error {
		s, err := b.store.Site(ctx, req.SiteID)
		if err != nil {
			return sberrors.StorageError("get_site", err).WithContext("site", req.SiteID)
		}
		m, err := resolver.Manifest(ctx, s)
		if err != nil {
			return err
		}
		site, manifest = s, m
		return nil
	})
	if err != nil {
		return b.fail(ctx, result, err)
	}

	err = b.runStage(ctx, result.Report, StageWriteConfig, StageErrorFatal, func(ctx context.Context) error {
		if err := b.staging.WriteSiteConfig(sanitize.Site(site)); err != nil {
			return err
		}
		items, err := b.store.Items(ctx, site.ID)
		if err != nil {
			return sberrors.StorageError("get_items", err).WithContext("site", site.ID)
		}
		return b.staging.WriteItemsConfig(sanitize.Items(items))
	})
	if err != nil {
		return b.fail(ctx, result, err)
	}

	// Static assets are best effort: only cancellation stops the build here.
	err = b.runStage(ctx, result.Report, StageCopyStatic, StageErrorWarning, func(ctx context.Context) error {
		n, err := b.staging.CopyStatic(ctx)
		result.Report.StaticFiles = n
		return err
	})
	if err != nil {
		return b.fail(ctx, result, err)
	}

	err = b.runStage(ctx, result.Report, StageResolve, StageErrorFatal, func(ctx context.Context) error {
		descs, err := resolver.Descriptors(ctx, site, manifest)
		if err != nil {
			return err
		}
		if req.TargetItemID != "" {
			main, subset, err := resolve.Partial(descs, req.TargetItemID)
			if err != nil {
				return sberrors.Wrap(err, sberrors.CategoryValidation, sberrors.SeverityFatal, "target item is not part of the site structure").
					WithContext("item", req.TargetItemID)
			}
			result.Main = &main
			descs = subset
		}
		result.Descriptors = descs
		result.Report.Descriptors = len(descs)
		b.recorder.SetDescriptors(len(descs))
		return nil
	})
	if err != nil {
		return b.fail(ctx, result, err)
	}

	err = b.runStage(ctx, result.Report, StageRender, StageErrorFatal, func(ctx context.Context) error {
		return b.render(ctx, result, req.OnProgress)
	})
	if err != nil {
		return b.fail(ctx, result, err)
	}

	b.finish(result, StatusSuccess, metrics.BuildOutcomeSuccess)
	observability.InfoContext(ctx, "Build completed",
		slog.Int("rendered", result.Report.Rendered),
		slog.Int("files", result.Report.FilesWritten),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

func (b *Builder) render(ctx context.Context, result *Result, onProgress func(string)) error {
	descs := result.Descriptors
	if missing := b.renderer.Missing(descs); missing != nil {
		b.notifier.Alert(ctx, b.messages.Sprintf(i18n.KeyHandlerMissing, missing.Parser, missing.ItemID()))
		return sberrors.HandlerMissing(missing.Parser, missing.ItemID())
	}

	report := result.Report
	outcome, err := sequencer.Run(ctx, descs, func(ctx context.Context, d models.Descriptor) error {
		return b.renderOne(ctx, report, d)
	}, sequencer.Options{
		Pace: b.pace,
		OnProgress: func(percent int) {
			observability.DebugContext(ctx, "Build progress", logfields.Progress(percent))
			if onProgress != nil {
				onProgress(b.messages.BuildingProgress(percent))
			}
		},
	})

	report.Rendered = outcome.Succeeded()
	for _, f := range outcome.Failures {
		d := descs[f.Index]
		report.Failures = append(report.Failures, ItemFailure{ItemID: d.ItemID(), Path: d.Path, Error: f.Err.Error()})
	}
	if err != nil {
		return err
	}
	if !outcome.OK() {
		return sberrors.BuildFailed(StageRender, fmt.Errorf("%w: %d of %d", ErrItemsFailed, len(outcome.Failures), outcome.Total))
	}
	return nil
}

// renderOne renders d and writes its files. Only a handler error fails the
// item; file write failures are counted and reported by the staging manager.
func (b *Builder) renderOne(ctx context.Context, report *Report, d models.Descriptor) error {
	ctx = observability.WithItemID(ctx, d.ItemID())
	start := time.Now()
	files, err := b.renderer.Render(ctx, &d)
	b.recorder.ObserveRenderDuration(d.Parser, time.Since(start), err == nil)
	if err != nil {
		observability.ErrorContext(ctx, "Render failed",
			logfields.Path(d.Path),
			logfields.Parser(d.Parser),
			logfields.Error(err))
		return err
	}

	res := b.staging.WriteOutputFiles(ctx, &d, files)
	report.FilesWritten += len(res.Written)
	report.FilesFailed += len(res.Failed)
	b.recorder.AddOutputFiles(true, len(res.Written))
	if !res.OK() {
		b.recorder.AddOutputFiles(false, len(res.Failed))
	}
	observability.DebugContext(ctx, "Rendered item",
		logfields.Path(d.Path),
		logfields.Template(d.TemplateID),
		slog.Int("files", len(res.Written)))
	return nil
}

// runStage times fn under name and records the result. Fatal failures come
// back as *StageError; warning stages log and always return nil.
func (b *Builder) runStage(ctx context.Context, report *Report, name string, kind StageErrorKind, fn func(context.Context) error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	b.recorder.ObserveStageDuration(name, d)

	switch {
	case err == nil:
		b.recorder.IncStageResult(name, metrics.ResultSuccess)
		report.record(name, d, metrics.ResultSuccess, nil)
		return nil
	case isCancellation(err):
		b.recorder.IncStageResult(name, metrics.ResultCanceled)
		report.record(name, d, metrics.ResultCanceled, err)
		return &StageError{Stage: name, Kind: StageErrorFatal, Err: err}
	case kind == StageErrorWarning:
		observability.WarnContext(ctx, "Stage finished with warnings", logfields.Error(err))
		b.recorder.IncStageResult(name, metrics.ResultWarning)
		report.record(name, d, metrics.ResultWarning, err)
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", name, err))
		return nil
	default:
		b.recorder.IncStageResult(name, metrics.ResultFatal)
		report.record(name, d, metrics.ResultFatal, err)
		return &StageError{Stage: name, Kind: StageErrorFatal, Err: err}
	}
}

func (b *Builder) fail(ctx context.Context, result *Result, err error) (*Result, error) {
	switch {
	case isCancellation(err):
		b.finish(result, StatusCancelled, metrics.BuildOutcomeCanceled)
	case errors.Is(err, ErrItemsFailed):
		b.finish(result, StatusFailed, metrics.BuildOutcomePartial)
	default:
		b.finish(result, StatusFailed, metrics.BuildOutcomeFailed)
	}
	observability.ErrorContext(ctx, "Build failed", logfields.Error(err))
	return result, err
}

func (b *Builder) finish(result *Result, status Status, outcome metrics.BuildOutcomeLabel) {
	result.Status = status
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Report.Status = status
	result.Report.End = result.EndTime
	b.recorder.IncBuildOutcome(outcome)
	b.recorder.ObserveBuildDuration(result.Duration)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
