package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	sberrors "git.home.luguber.info/inful/sitebuilder/internal/errors"
)

// DefaultPace is the minimum spacing between two consecutive item renders.
const DefaultPace = 300 * time.Millisecond

// Config represents the application configuration. It is loaded once and
// passed explicitly to every pipeline component.
type Config struct {
	Paths   PathsConfig   `yaml:"paths"`
	Storage StorageConfig `yaml:"storage"`
	Build   BuildConfig   `yaml:"build"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// PathsConfig locates the directories the pipeline reads from and writes to.
type PathsConfig struct {
	// Buffer is the staging directory receiving build output. Its base name
	// must contain "buffer" or clearing is refused.
	Buffer string `yaml:"buffer" validate:"required"`
	// Public holds static passthrough assets copied verbatim into Buffer.
	Public string `yaml:"public"`
	// Themes holds one directory per theme (manifest.json plus templates).
	Themes string `yaml:"themes" validate:"required"`
}

// StorageConfig selects where sites and items are read from.
type StorageConfig struct {
	Driver StorageDriver `yaml:"driver" validate:"oneof=sqlite yaml"`
	Path   string        `yaml:"path" validate:"required"`
	Retry  RetryConfig   `yaml:"retry"`
}

// RetryConfig controls how reads that hit a locked database are retried.
// Zero values keep the defaults; a negative maxRetries disables retrying.
type RetryConfig struct {
	Mode       string        `yaml:"mode" validate:"omitempty,oneof=fixed linear exponential"`
	Initial    time.Duration `yaml:"initial" validate:"gte=0"`
	Max        time.Duration `yaml:"max" validate:"gte=0"`
	MaxRetries int           `yaml:"maxRetries"`
}

// BuildConfig tunes the render loop.
type BuildConfig struct {
	// Pace is the minimum spacing between item renders. Unset means
	// DefaultPace; an explicit 0s disables pacing.
	Pace     *time.Duration `yaml:"pace" validate:"omitempty,gte=0"`
	Language string         `yaml:"language"`
}

// PaceOrDefault resolves Pace.
func (b BuildConfig) PaceOrDefault() time.Duration {
	if b.Pace == nil {
		return DefaultPace
	}
	return *b.Pace
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig enables Prometheus exposition.
type MetricsConfig struct {
	// Listen serves /metrics over HTTP in watch mode (e.g. ":9090").
	Listen string `yaml:"listen,omitempty"`
	// Textfile writes a metrics snapshot after each CLI build.
	Textfile string `yaml:"textfile,omitempty"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, sberrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolveRelative(filepath.Dir(configPath))
	return cfg, nil
}

// Parse decodes YAML configuration, expanding ${VAR} references, applying
// defaults and validating the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, sberrors.Wrap(err, sberrors.CategoryConfig, sberrors.SeverityFatal, "failed to unmarshal config")
	}
	cfg.applyDefaults()

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Paths.Buffer == "" {
		c.Paths.Buffer = "./buffer"
	}
	if c.Paths.Public == "" {
		c.Paths.Public = "./public"
	}
	if c.Paths.Themes == "" {
		c.Paths.Themes = "./themes"
	}
	c.Storage.Driver = NormalizeStorageDriver(string(c.Storage.Driver))
	if c.Storage.Path == "" {
		if c.Storage.Driver == StorageDriverYAML {
			c.Storage.Path = "./sites"
		} else {
			c.Storage.Path = "./sites.db"
		}
	}
	if c.Build.Language == "" {
		c.Build.Language = "en"
	}
	c.Logging.Level = NormalizeLogLevel(string(c.Logging.Level))
	c.Logging.Format = NormalizeLogFormat(string(c.Logging.Format))
}

// resolveRelative anchors relative paths at the configuration file's directory.
func (c *Config) resolveRelative(base string) {
	for _, p := range []*string{&c.Paths.Buffer, &c.Paths.Public, &c.Paths.Themes, &c.Storage.Path} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// loadEnvFile loads environment variables from .env/.env.local files.
// It stops at the first file that parses; existing variables are never overwritten.
func loadEnvFile() error {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err == nil {
			fmt.Fprintf(os.Stderr, "Loaded environment variables from %s\n", envPath)
			return nil
		}
	}
	return fmt.Errorf("no .env file found")
}
