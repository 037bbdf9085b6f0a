// Package i18n formats the user-facing strings emitted during a build.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyBuildingProgress     = "building_progress"
	KeyThemeManifestMissing = "theme_manifest_missing"
	KeyHandlerMissing       = "handler_missing"
	KeyFileWriteFailed      = "file_write_failed"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		KeyBuildingProgress:     "Building… %d%%",
		KeyThemeManifestMissing: "Theme %q has no manifest. The build was stopped.",
		KeyHandlerMissing:       "No renderer is registered for parser %q (item %s).",
		KeyFileWriteFailed:      "Could not write %s: %v",
	},
	language.Norwegian: {
		KeyBuildingProgress:     "Bygger… %d%%",
		KeyThemeManifestMissing: "Temaet %q mangler manifest. Byggingen ble stoppet.",
		KeyHandlerMissing:       "Ingen renderer er registrert for parser %q (element %s).",
		KeyFileWriteFailed:      "Kunne ikke skrive %s: %v",
	},
	language.German: {
		KeyBuildingProgress:     "Erstelle… %d%%",
		KeyThemeManifestMissing: "Das Theme %q hat kein Manifest. Der Build wurde abgebrochen.",
		KeyHandlerMissing:       "Für den Parser %q ist kein Renderer registriert (Eintrag %s).",
		KeyFileWriteFailed:      "%s konnte nicht geschrieben werden: %v",
	},
}

var (
	builder   = newBuilder()
	supported = []language.Tag{language.English, language.Norwegian, language.German}
	matcher   = language.NewMatcher(supported)
)

func newBuilder() *catalog.Builder {
	b, err := buildCatalog(translations)
	if err != nil {
		panic(err)
	}
	return b
}

// buildCatalog loads every translation, failing on the first message the
// catalog rejects.
func buildCatalog(set map[language.Tag]map[string]string) (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range set {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("i18n: message %q (%s): %w", key, tag, err)
			}
		}
	}
	return b, nil
}

// Messages formats catalog messages for one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns the catalog for lang (a BCP 47 tag such as "en" or "nb-NO").
// Unknown or unparsable languages fall back to English.
func New(lang string) *Messages {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Messages{tag: tag, printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// Language reports the matched language.
func (m *Messages) Language() language.Tag { return m.tag }

// Sprintf formats the message stored under key.
func (m *Messages) Sprintf(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

// BuildingProgress renders the progress line for percent (0-100).
func (m *Messages) BuildingProgress(percent int) string {
	return m.Sprintf(KeyBuildingProgress, percent)
}
