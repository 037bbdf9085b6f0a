package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Site     string        `arg:"" help:"ID of the site to keep built"`
	Every    time.Duration `help:"Also rebuild on this interval (e.g. 15m)"`
	Cron     string        `help:"Also rebuild on this cron schedule (five fields)"`
	Debounce time.Duration `default:"500ms" help:"Quiet period after the last change before rebuilding"`
	Metrics  string        `help:"Serve Prometheus metrics on this address, overriding metrics.listen"`
}

func (w *WatchCmd) Run(_ *Global, root *CLI) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return w.run(ctx, a, os.Stdout)
}

func (w *WatchCmd) run(ctx context.Context, a *app, out io.Writer) error {
	runner := watch.NewRunner(a.builder(), build.Request{SiteID: w.Site})
	runner.OnResult(func(res *build.Result, err error) {
		if err != nil || res == nil {
			return
		}
		_, _ = fmt.Fprintf(out, "Built %d item(s) in %s\n", len(res.Items()), res.Duration.Round(time.Millisecond))
	})

	watcher, err := watch.NewWatcher(watchPaths(a.cfg), func(reason string) { runner.Trigger(reason) },
		watch.WithDebounce(w.Debounce),
		watch.WithIgnore(a.cfg.Paths.Buffer, a.staging.LockPath()))
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	sched, err := watch.NewScheduler()
	if err != nil {
		return err
	}
	if w.Every > 0 {
		if _, err := sched.ScheduleEvery("interval-rebuild", w.Every, func() { runner.Trigger("interval") }); err != nil {
			return err
		}
	}
	if w.Cron != "" {
		if _, err := sched.ScheduleCron("cron-rebuild", w.Cron, func() { runner.Trigger("cron") }); err != nil {
			return err
		}
	}
	sched.Start(ctx)
	defer func() { _ = sched.Stop(context.Background()) }()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return runner.Run(ctx) })
	g.Go(func() error { return watcher.Run(ctx) })

	listen := a.cfg.Metrics.Listen
	if w.Metrics != "" {
		listen = w.Metrics
	}
	if listen != "" {
		srv := &http.Server{Addr: listen, Handler: metricsMux(a), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			a.logger.Info("Serving metrics", "addr", listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	runner.Trigger("startup")
	return g.Wait()
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.HTTPHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// watchPaths lists the inputs that change a build: themes, static assets and
// the content store. A SQLite database is watched as a file, a YAML store as
// a directory tree.
func watchPaths(cfg *config.Config) []string {
	paths := []string{cfg.Paths.Themes, cfg.Paths.Public}
	if cfg.Storage.Driver == config.StorageDriverSQLite {
		return append(paths, filepath.Clean(cfg.Storage.Path))
	}
	return append(paths, cfg.Storage.Path)
}
