package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/storage"
)

// ImportCmd implements the 'import' command.
type ImportCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML document with a site and its items"`
}

func (i *ImportCmd) Run(_ *Global, root *CLI) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}
	defer a.Close()
	return i.run(context.Background(), a, os.Stdout)
}

func (i *ImportCmd) run(ctx context.Context, a *app, out io.Writer) error {
	// #nosec G304 -- the path comes from the command line
	data, err := os.ReadFile(i.File)
	if err != nil {
		return sberrors.Wrap(err, sberrors.CategoryFileSystem, sberrors.SeverityError, "failed to read site document").
			WithContext("file", i.File)
	}

	var doc storage.SiteDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return sberrors.Wrap(err, sberrors.CategoryValidation, sberrors.SeverityError, "invalid site document").
			WithContext("file", i.File)
	}

	now := time.Now().UTC()
	if strings.TrimSpace(doc.Site.ID) == "" {
		doc.Site.ID = uuid.NewString()
	}
	doc.Site.UpdatedAt = now
	if err := a.store.PutSite(ctx, &doc.Site); err != nil {
		return sberrors.StorageError("put_site", err).WithContext("site", doc.Site.ID)
	}

	for _, item := range doc.Items {
		if item == nil {
			continue
		}
		if strings.TrimSpace(item.ID) == "" {
			item.ID = uuid.NewString()
		}
		item.SiteID = doc.Site.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = now
		}
		item.UpdatedAt = now
		if err := a.store.PutItem(ctx, item); err != nil {
			return sberrors.StorageError("put_item", err).WithContext("item", item.ID)
		}
	}

	a.logger.Info("Imported site", "site", doc.Site.ID, "items", len(doc.Items))
	_, _ = fmt.Fprintln(out, doc.Site.ID)
	return nil
}
