package config

import (
	"log/slog"
	"strings"
)

// StorageDriver selects the storage backend.
type StorageDriver string

const (
	StorageDriverSQLite StorageDriver = "sqlite"
	StorageDriverYAML   StorageDriver = "yaml"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// normalizeEnum lowercases and trims raw. Empty input yields def; input that
// matches no known value is returned cleaned so validation can reject it.
func normalizeEnum[T ~string](raw string, def T, known ...T) T {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if cleaned == "" {
		return def
	}
	for _, k := range known {
		if string(k) == cleaned {
			return k
		}
	}
	return T(cleaned)
}

func NormalizeStorageDriver(raw string) StorageDriver {
	return normalizeEnum(raw, StorageDriverSQLite, StorageDriverSQLite, StorageDriverYAML)
}

func NormalizeLogLevel(raw string) LogLevel {
	if strings.EqualFold(strings.TrimSpace(raw), "warning") {
		return LogLevelWarn
	}
	return normalizeEnum(raw, LogLevelInfo, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)
}

func NormalizeLogFormat(raw string) LogFormat {
	return normalizeEnum(raw, LogFormatText, LogFormatJSON, LogFormatText)
}

// SlogLevel maps the configured level onto slog.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
