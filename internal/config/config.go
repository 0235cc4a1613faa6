// Package config loads httpsaudit settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/getlantern/httpsaudit/internal/report"
)

// Config holds everything a scan needs besides the paths to scan.
type Config struct {
	RulesDir    string   `yaml:"rulesDir"`
	Include     []string `yaml:"include"`
	Exclude     []string `yaml:"exclude"`
	Workers     int      `yaml:"workers"`
	Strict      bool     `yaml:"strict"`
	Format      string   `yaml:"format"`
	MetricsFile string   `yaml:"metricsFile"`
	Verbose     bool     `yaml:"verbose"`

	baseDir string
}

// Default returns the settings used when no config file is given.
func Default() *Config {
	return &Config{
		Exclude: []string{".git", "**/node_modules"},
		Format:  report.FormatText,
	}
}

// Load reads a YAML config file on top of the defaults. Relative paths in the
// file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	cfg.baseDir = filepath.Dir(absPath)
	cfg.RulesDir = cfg.resolvePath(cfg.RulesDir)
	cfg.MetricsFile = cfg.resolvePath(cfg.MetricsFile)

	return cfg, nil
}

func (c *Config) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// ValidationError lists every problem found in a Config.
type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

// Validate checks the config, returning a *ValidationError when anything is
// wrong.
func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.RulesDir == "" {
		v.Add("rulesDir is required")
	} else if info, err := os.Stat(c.RulesDir); err != nil {
		v.Add("rulesDir invalid: %v", err)
	} else if !info.IsDir() {
		v.Add("rulesDir invalid: %s is not a directory", c.RulesDir)
	}

	if c.Workers < 0 {
		v.Add("workers must not be negative")
	}

	switch c.Format {
	case report.FormatText, report.FormatJSON:
	default:
		v.Add("format must be %q or %q", report.FormatText, report.FormatJSON)
	}

	for _, p := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			v.Add("invalid glob %q", p)
		}
	}

	if len(v.Problems) > 0 {
		return v
	}
	return nil
}

// IsValidationError reports whether err carries validation problems.
func IsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := errors.As(err, &verr)
	return verr, ok
}
