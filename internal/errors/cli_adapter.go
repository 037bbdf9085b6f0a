package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if sbe, ok := As(err); ok {
		return a.exitCodeFromSiteBuilder(sbe)
	}

	return 1
}

// exitCodeFromSiteBuilder maps SiteBuilderError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromSiteBuilder(err *SiteBuilderError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategoryStorage:
		return 8 // External system error
	case CategoryTheme, CategoryRender:
		return 9 // Theme or handler error
	case CategoryBuild, CategoryFileSystem:
		return 11 // Build error
	case CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if sbe, ok := As(err); ok {
		return a.formatSiteBuilder(sbe)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatSiteBuilder formats a SiteBuilderError for display.
func (a *CLIErrorAdapter) formatSiteBuilder(err *SiteBuilderError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryConfig, CategoryValidation:
		return err.Message
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	_, _ = fmt.Fprintf(a.out, "%s\n", message)
	a.exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if sbe, ok := As(err); ok {
		return sbe.Category == CategoryInternal ||
			sbe.Category == CategoryRuntime ||
			sbe.Severity == SeverityFatal
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if sbe, ok := As(err); ok {
		level := a.slogLevelFromSeverity(sbe.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(sbe.Category)),
		}
		for k, v := range sbe.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if sbe.Cause != nil {
			attrs = append(attrs, slog.String("cause", sbe.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), level, sbe.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts SiteBuilderError severity to slog level.
func (a *CLIErrorAdapter) slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
