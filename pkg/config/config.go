// Package config loads ctlcat conversion settings from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/ctlcat/pkg/catalog"
	"github.com/coolbeans/ctlcat/pkg/logging"
	"github.com/coolbeans/ctlcat/pkg/source"
)

// Config holds every setting a conversion run needs.
type Config struct {
	// Title is the catalog title; the CLI flag overrides it.
	Title        string `yaml:"title"`
	Version      string `yaml:"version"`
	OSCALVersion string `yaml:"oscal_version"`
	ControlClass string `yaml:"control_class"`

	// OnStructuralError is one of abort, skip or prose.
	OnStructuralError catalog.ErrorPolicy `yaml:"on_structural_error"`

	// TrimContinuation trims continuation lines joined into prose.
	TrimContinuation bool `yaml:"trim_continuation"`

	// Workers bounds concurrent statement parsing. Zero means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Source source.Options `yaml:"source"`
	Log    logging.Config `yaml:"log"`
}

// Default returns the settings for the standard control workbook.
func Default() Config {
	return Config{
		Version:           catalog.DefaultVersion,
		OSCALVersion:      catalog.DefaultOSCALVersion,
		ControlClass:      catalog.DefaultControlClass,
		OnStructuralError: catalog.PolicyAbort,
		Source:            source.DefaultOptions(),
		Log:               logging.Config{Level: "info", Format: "console"},
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. A columns
// block replaces the default column map as a whole.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	cfg.Source.Columns = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing YAML: %w", err)
	}
	if cfg.Source.Columns == nil {
		cfg.Source.Columns = source.DefaultColumnMap()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values. Title is not required here because the CLI
// may supply it.
func (c Config) Validate() error {
	if !c.OnStructuralError.Valid() {
		return fmt.Errorf("on_structural_error must be abort, skip or prose, got %q", c.OnStructuralError)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if !source.SupportedEncoding(c.Source.Encoding) {
		return fmt.Errorf("unsupported source encoding %q", c.Source.Encoding)
	}
	if c.Source.SkipRows < 0 || c.Source.MaxRows < 0 {
		return fmt.Errorf("source skip_rows and max_rows must not be negative")
	}
	if err := c.Source.Columns.Validate(); err != nil {
		return err
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("unsupported log level %q", c.Log.Level)
	}
	switch strings.ToLower(strings.TrimSpace(c.Log.Format)) {
	case "", "console", "json", "pretty":
	default:
		return fmt.Errorf("unsupported log format %q", c.Log.Format)
	}
	return nil
}

// BuilderOptions maps the config onto catalog builder options.
func (c Config) BuilderOptions(log logging.Logger) catalog.Options {
	return catalog.Options{
		Title:            c.Title,
		Version:          c.Version,
		OSCALVersion:     c.OSCALVersion,
		ControlClass:     c.ControlClass,
		Policy:           c.OnStructuralError,
		Workers:          c.Workers,
		TrimContinuation: c.TrimContinuation,
		Logger:           log,
	}
}
