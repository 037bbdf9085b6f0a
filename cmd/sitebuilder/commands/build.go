package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/build"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Site      string `arg:"" help:"ID of the site to build"`
	Item      string `short:"i" help:"Build only this item plus the ancestors it needs"`
	SkipClear bool   `name:"skip-clear" help:"Keep the previous contents of the staging directory"`
	Report    string `help:"Write a JSON build report to this path" type:"path"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return b.run(ctx, a, os.Stdout)
}

func (b *BuildCmd) run(ctx context.Context, a *app, out io.Writer) error {
	res, buildErr := a.builder().Build(ctx, build.Request{
		SiteID:       b.Site,
		TargetItemID: b.Item,
		SkipClear:    b.SkipClear,
		OnProgress:   func(msg string) { _, _ = fmt.Fprintln(out, msg) },
	})

	if b.Report != "" && res != nil {
		if err := res.Report.WriteJSON(b.Report); err != nil {
			a.logger.Warn("Failed to write build report", "path", b.Report, "error", err)
		}
	}
	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("Failed to write metrics textfile", "path", path, "error", err)
		}
	}
	if buildErr != nil {
		return buildErr
	}

	for _, d := range res.Items() {
		_, _ = fmt.Fprintf(out, "%s\t%s\n", d.ItemID(), d.Path)
	}
	_, _ = fmt.Fprintf(out, "Built %d item(s) into %s in %s\n", res.Report.Rendered, a.staging.Dir(), res.Duration.Round(time.Millisecond))
	return nil
}
