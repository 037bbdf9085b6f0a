package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeySiteID     = "site_id"
	KeyItemID     = "item_id"
	KeyParser     = "parser"
	KeyTemplate   = "template"
	KeyTheme      = "theme"
	KeyStage      = "stage"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyProgress   = "progress"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func SiteID(id string) slog.Attr      { return slog.String(KeySiteID, id) }
func ItemID(id string) slog.Attr      { return slog.String(KeyItemID, id) }
func Parser(p string) slog.Attr       { return slog.String(KeyParser, p) }
func Template(id string) slog.Attr    { return slog.String(KeyTemplate, id) }
func Theme(name string) slog.Attr     { return slog.String(KeyTheme, name) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(name string) slog.Attr      { return slog.String(KeyFile, name) }
func Progress(percent int) slog.Attr  { return slog.Int(KeyProgress, percent) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
