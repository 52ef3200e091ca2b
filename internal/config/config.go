package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/marang/brewkit/pkg/brewkit"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the name of the configuration file.
const ConfigFileName = "brewkit.yaml"

// Environment variables that override the configuration file.
const (
	EnvPrefix      = "BREWKIT_PREFIX"
	EnvCache       = "BREWKIT_CACHE"
	EnvFormulaPath = "BREWKIT_FORMULA_PATH"
)

// RetryConfig tunes download retries.
type RetryConfig struct {
	MaxAttempts  *int   `yaml:"max_attempts,omitempty"`
	InitialDelay string `yaml:"initial_delay,omitempty"`
	MaxDelay     string `yaml:"max_delay,omitempty"`
}

// Config is the brewkit.yaml configuration.
type Config struct {
	Prefix      string      `yaml:"prefix"`
	Cache       string      `yaml:"cache"`
	FormulaDirs []string    `yaml:"formula_dirs"`
	SearchDirs  []string    `yaml:"search_dirs"`
	Timeout     string      `yaml:"timeout"`
	LockTimeout string      `yaml:"lock_timeout"`
	Retry       RetryConfig `yaml:"retry"`
}

// DefaultPath is the per-user configuration file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "brewkit", ConfigFileName), nil
}

// Load reads the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w: %w", path, brewkit.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Options control where Resolve looks.
type Options struct {
	// Path is an explicit config file. It must exist when set.
	Path string

	// DotEnv is a .env file whose variables are consulted after the
	// process environment. A missing file is ignored.
	DotEnv string

	// LookupEnv reads the process environment. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)

	// Prefix overrides the file and the environment, e.g. from --prefix.
	// A relative path is taken from the working directory.
	Prefix string
}

// Resolve loads the configuration file, applies environment overrides
// and fills defaults. Without an explicit path a missing per-user file
// is not an error.
func Resolve(opts Options) (*Config, error) {
	path := opts.Path
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultPath(); err != nil {
			path = ""
		}
	}

	cfg := &Config{}
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, ErrConfigNotFound) && !explicit:
		default:
			return nil, err
		}
	}

	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if opts.DotEnv != "" {
		dotenv, err := godotenv.Read(opts.DotEnv)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", opts.DotEnv, err)
		}
		lookup = chainLookup(lookup, dotenv)
	}

	cfg.ApplyEnv(lookup)
	if opts.Prefix != "" {
		prefix, err := filepath.Abs(opts.Prefix)
		if err != nil {
			return nil, fmt.Errorf("resolving prefix %q: %w: %w", opts.Prefix, brewkit.ErrInvalidConfig, err)
		}
		cfg.Prefix = prefix
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func chainLookup(primary func(string) (string, bool), fallback map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}

// ApplyEnv overrides file settings with BREWKIT_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPrefix); ok && v != "" {
		c.Prefix = v
	}
	if v, ok := lookup(EnvCache); ok && v != "" {
		c.Cache = v
	}
	if v, ok := lookup(EnvFormulaPath); ok && v != "" {
		c.FormulaDirs = filepath.SplitList(v)
	}
}

// ApplyDefaults fills unset locations and expands a leading ~.
func (c *Config) ApplyDefaults() error {
	home, _ := os.UserHomeDir()

	if c.Prefix == "" {
		if home == "" {
			return fmt.Errorf("no prefix configured and no home directory: %w", brewkit.ErrInvalidConfig)
		}
		c.Prefix = filepath.Join(home, ".brewkit")
	}
	if c.Cache == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = filepath.Join(c.Prefix, "var", "cache")
		}
		c.Cache = filepath.Join(dir, "brewkit")
	}

	c.Prefix = expandHome(c.Prefix, home)
	c.Cache = expandHome(c.Cache, home)
	for i, dir := range c.FormulaDirs {
		c.FormulaDirs[i] = expandHome(dir, home)
	}
	for i, dir := range c.SearchDirs {
		c.SearchDirs[i] = expandHome(dir, home)
	}
	return nil
}

func expandHome(path, home string) string {
	if home == "" {
		return path
	}
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if !filepath.IsAbs(c.Prefix) {
		errs = append(errs, fmt.Errorf("prefix must be an absolute path, got %q: %w", c.Prefix, brewkit.ErrInvalidConfig))
	}
	for name, value := range map[string]string{
		"timeout":             c.Timeout,
		"lock_timeout":        c.LockTimeout,
		"retry.initial_delay": c.Retry.InitialDelay,
		"retry.max_delay":     c.Retry.MaxDelay,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q: %w", name, value, brewkit.ErrInvalidConfig))
		}
	}
	if c.Retry.MaxAttempts != nil && *c.Retry.MaxAttempts < -1 {
		errs = append(errs, fmt.Errorf("retry.max_attempts must be -1 or greater: %w", brewkit.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// InstallTimeout bounds a whole install; zero means no limit.
func (c *Config) InstallTimeout() time.Duration {
	return durationOr(c.Timeout, 0)
}

// PrefixLockTimeout is how long to wait for another install to finish.
func (c *Config) PrefixLockTimeout() time.Duration {
	return durationOr(c.LockTimeout, brewkit.DefaultLockTimeout)
}

// RetryMaxAttempts is the number of download retries.
func (c *Config) RetryMaxAttempts() int {
	if c.Retry.MaxAttempts == nil {
		return brewkit.DefaultRetryMaxAttempts
	}
	return *c.Retry.MaxAttempts
}

// RetryInitialDelay is the delay before the first download retry.
func (c *Config) RetryInitialDelay() time.Duration {
	return durationOr(c.Retry.InitialDelay, brewkit.DefaultRetryInitialDelay)
}

// RetryMaxDelay caps the delay between download retries.
func (c *Config) RetryMaxDelay() time.Duration {
	return durationOr(c.Retry.MaxDelay, brewkit.DefaultRetryMaxDelay)
}

func durationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
