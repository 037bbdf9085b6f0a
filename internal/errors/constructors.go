package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteBuilderError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *SiteBuilderError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *SiteBuilderError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build pipeline errors

func BuildFailed(stage string, cause error) *SiteBuilderError {
	return Wrap(cause, CategoryBuild, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func StagingError(operation string, cause error) *SiteBuilderError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "staging operation failed").
		WithContext("operation", operation)
}

func ThemeManifestMissing(theme string, cause error) *SiteBuilderError {
	return Wrap(cause, CategoryTheme, SeverityFatal, "theme manifest not found").
		WithContext("theme", theme)
}

func HandlerMissing(parser, itemID string) *SiteBuilderError {
	return New(CategoryRender, SeverityFatal, "no render handler for parser").
		WithContext("parser", parser).
		WithContext("item", itemID)
}

// Storage errors

func StorageError(operation string, cause error) *SiteBuilderError {
	return Wrap(cause, CategoryStorage, SeverityFatal, "storage lookup failed").
		WithContext("operation", operation)
}

// Internal errors

func InternalError(message string, cause error) *SiteBuilderError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
