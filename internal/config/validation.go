package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

var configValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report yaml key names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks struct constraints and the cross-field rules the tags cannot express.
func Validate(cfg *Config) error {
	if cfg == nil {
		return sberrors.ConfigRequired("config")
	}
	if err := configValidate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return sberrors.ValidationFailed(trimNamespace(fe.Namespace()), fmt.Sprintf("failed %q (value %v)", fe.Tag(), fe.Value()))
		}
		return sberrors.Wrap(err, sberrors.CategoryConfig, sberrors.SeverityFatal, "invalid configuration")
	}
	if !strings.Contains(lastElem(cfg.Paths.Buffer), "buffer") {
		return sberrors.ValidationFailed("paths.buffer", "directory name must contain \"buffer\"")
	}
	switch cfg.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return sberrors.ValidationFailed("logging.level", fmt.Sprintf("unsupported level %q", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case LogFormatJSON, LogFormatText:
	default:
		return sberrors.ValidationFailed("logging.format", fmt.Sprintf("unsupported format %q", cfg.Logging.Format))
	}
	return nil
}

// trimNamespace turns "Config.paths.buffer" into "paths.buffer".
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func lastElem(p string) string {
	p = strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		return p[i+1:]
	}
	return p
}
