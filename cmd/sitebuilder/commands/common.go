package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/i18n"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/notify"
	"git.home.luguber.info/inful/sitebuilder/internal/render"
	"git.home.luguber.info/inful/sitebuilder/internal/render/builtin"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
	"git.home.luguber.info/inful/sitebuilder/internal/staging"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
	"git.home.luguber.info/inful/sitebuilder/internal/theme"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitebuilder.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" help:"Build a site into the staging directory"`
	Plan   PlanCmd   `cmd:"" help:"List the pages a build would render without rendering them"`
	Import ImportCmd `cmd:"" help:"Import a YAML site document into the configured store"`
	Watch  WatchCmd  `cmd:"" help:"Rebuild a site whenever themes, static assets or content change"`
	Clear  ClearCmd  `cmd:"" help:"Empty the staging directory"`
}

// AfterApply runs after flag parsing; it installs a default logger until the
// configuration (with its logging section) is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// NewLogger builds the slog logger described by cfg. --verbose forces debug.
func NewLogger(cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := cfg.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// app holds the components wired from one configuration.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.ReadWriter
	themes   *theme.Dir
	registry *render.Registry
	staging  *staging.Manager
	messages *i18n.Messages
	notifier notify.Notifier
	metrics  *metrics.PrometheusRecorder
}

// loadApp loads the configuration, replaces the default logger and opens the store.
func loadApp(root *CLI) (*app, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, root.Verbose)
}

func newApp(cfg *config.Config, verbose bool) (*app, error) {
	logger := NewLogger(cfg.Logging, verbose)
	slog.SetDefault(logger)

	store, err := storage.Open(string(cfg.Storage.Driver), cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	rc := cfg.Storage.Retry
	store = storage.WithRetry(store, retry.NewPolicy(retry.Mode(rc.Mode), rc.Initial, rc.Max, rc.MaxRetries))

	messages := i18n.New(cfg.Build.Language)
	notifier := notify.Multi{
		notify.LogNotifier{Logger: logger},
		notify.NewWriterNotifier(os.Stderr),
	}
	themes := theme.NewDir(cfg.Paths.Themes)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		themes:   themes,
		registry: builtin.NewRegistry(themes),
		staging: staging.New(cfg.Paths.Buffer, cfg.Paths.Public,
			staging.WithLogger(logger),
			staging.WithNotifier(notifier),
			staging.WithFailureMessage(func(path string, err error) string {
				return messages.Sprintf(i18n.KeyFileWriteFailed, path, err)
			})),
		messages: messages,
		notifier: notifier,
		metrics:  metrics.NewPrometheusRecorder(nil),
	}, nil
}

func (a *app) builder() *build.Builder {
	return build.NewBuilder(a.store, a.themes, a.registry, a.staging).
		WithNotifier(a.notifier).
		WithMessages(a.messages).
		WithRecorder(a.metrics).
		WithPace(a.cfg.Build.PaceOrDefault())
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", "error", err)
	}
}
