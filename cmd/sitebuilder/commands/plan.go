package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/models"
	"git.home.luguber.info/inful/sitebuilder/internal/resolve"
	"git.home.luguber.info/inful/sitebuilder/internal/structure"
)

// PlanCmd implements the 'plan' command.
type PlanCmd struct {
	Site string `arg:"" help:"ID of the site to inspect"`
	Item string `short:"i" help:"Show only what a partial build of this item would render"`
	Tree bool   `help:"Print the content structure as a titled tree instead of a table"`
}

func (p *PlanCmd) Run(_ *Global, root *CLI) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}
	defer a.Close()
	return p.run(context.Background(), a, os.Stdout)
}

func (p *PlanCmd) run(ctx context.Context, a *app, out io.Writer) error {
	site, err := a.store.Site(ctx, p.Site)
	if err != nil {
		return sberrors.StorageError("get_site", err).WithContext("site", p.Site)
	}

	if p.Tree {
		items, err := a.store.ItemsByID(ctx, site.ID, structure.IDs(structure.Paths(site.Structure)))
		if err != nil {
			return sberrors.StorageError("get_items", err).WithContext("site", site.ID)
		}
		_, _ = fmt.Fprintln(out, renderTree(structure.Annotate(site.Structure, items, func(it *models.Item) map[string]any {
			return map[string]any{"title": it.Title, "slug": it.Slug}
		})))
		return nil
	}

	resolver := resolve.New(a.store, a.themes, resolve.WithNotifier(a.notifier), resolve.WithMessages(a.messages))
	descs, err := resolver.Resolve(ctx, site)
	if err != nil {
		return err
	}
	if p.Item != "" {
		_, subset, err := resolve.Partial(descs, p.Item)
		if err != nil {
			return sberrors.Wrap(err, sberrors.CategoryValidation, sberrors.SeverityFatal, "target item is not part of the site structure").
				WithContext("item", p.Item)
		}
		descs = subset
	}

	_, _ = fmt.Fprintln(out, renderPlan(descs, func(parser string) bool {
		_, ok := a.registry.Lookup(parser)
		return ok
	}))
	return nil
}

func renderPlan(descs []models.Descriptor, handled func(parser string) bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Item", "Title", "Path", "Template", "Parser", "Depth"})
	for _, d := range descs {
		parser := d.Parser
		if !handled(parser) {
			parser += " (missing)"
		}
		title := ""
		if d.Item != nil {
			title = d.Item.Title
		}
		tw.AppendRow(table.Row{d.ItemID(), title, d.Path, d.TemplateID, parser, len(d.AncestorIDs())})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{"", "", "", "", "Pages", len(descs)})
	return tw.Render()
}

func renderTree(nodes []structure.AnnotatedNode) string {
	lw := list.NewWriter()
	lw.SetStyle(list.StyleConnectedRounded)
	appendNodes(lw, nodes)
	return lw.Render()
}

func appendNodes(lw list.Writer, nodes []structure.AnnotatedNode) {
	for _, n := range nodes {
		label := n.Key + " (unknown item)"
		if n.Data != nil {
			label = fmt.Sprintf("%v [%s]", n.Data["title"], n.Key)
		}
		lw.AppendItem(label)
		if len(n.Children) > 0 {
			lw.Indent()
			appendNodes(lw, n.Children)
			lw.UnIndent()
		}
	}
}
