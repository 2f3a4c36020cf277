// Package config loads linestat configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/idelchi/linestat/internal/linestat"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".linestat.yaml"

// DefaultTitle is the report heading of the built-in configuration.
const DefaultTitle = "HARDWAREONE — FIRST-PARTY SOURCE LINE COUNT"

//nolint:gochecknoglobals // Config constant
var (
	// Outputs lists the supported output formats.
	Outputs = []string{"table", "json", "markdown", "html"}
	// Layouts lists the supported table layouts.
	Layouts = []string{"auto", "flat", "sections"}
	// SourceExtensions are the C and C++ source extensions.
	SourceExtensions = []string{".cpp", ".h", ".c"}
)

// Target represents one directory to scan.
type Target struct {
	// Dir is the directory, relative to Root unless absolute.
	Dir string `yaml:"dir"`

	// Label names the section in the report (defaults to Dir).
	Label string `yaml:"label,omitempty"`

	// Extensions accepted in Dir.
	Extensions []string `yaml:"extensions"`

	// Depth is the maximum depth of counted files (1 = direct children, -1 = unlimited).
	Depth int `yaml:"depth,omitempty"`
}

// Config represents linestat configuration options.
type Config struct {
	// Root is the directory targets are resolved against.
	Root string `yaml:"root"`

	// Title is the report heading.
	Title string `yaml:"title"`

	// Output is the output format.
	Output string `yaml:"output"`

	// Layout is the table layout.
	Layout string `yaml:"layout"`

	// Excludes are regex patterns matched against root-relative paths.
	Excludes []string `yaml:"excludes,omitempty"`

	// Targets are the directories to scan, in report order.
	Targets []Target `yaml:"targets"`
}

// Default returns the built-in configuration: the first-party source
// directories of the firmware tree, scanned flat.
func Default() *Config {
	return &Config{
		Root:   ".",
		Title:  DefaultTitle,
		Output: "table",
		Layout: "auto",
		Targets: []Target{
			{Dir: "components/hardwareone", Extensions: slices.Clone(SourceExtensions), Depth: 1},
			{Dir: "main", Extensions: slices.Clone(SourceExtensions), Depth: 1},
			{Dir: "randomscripts", Extensions: append(slices.Clone(SourceExtensions), ".py"), Depth: 1},
		},
	}
}

// Load loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed or invalid, returns an error.
// Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	cfg.merge(&fileCfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %q: %w", path, err)
	}

	return cfg, nil
}

// merge overlays the non-zero fields of other onto c.
func (c *Config) merge(other *Config) {
	if other.Root != "" {
		c.Root = other.Root
	}

	if other.Title != "" {
		c.Title = other.Title
	}

	if other.Output != "" {
		c.Output = other.Output
	}

	if other.Layout != "" {
		c.Layout = other.Layout
	}

	if other.Excludes != nil {
		c.Excludes = other.Excludes
	}

	if other.Targets != nil {
		c.Targets = other.Targets
	}
}

// Validate checks the configuration for unsupported values.
func (c *Config) Validate() error {
	if !slices.Contains(Outputs, c.Output) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.Output, Outputs)
	}

	if !slices.Contains(Layouts, c.Layout) {
		return fmt.Errorf("invalid layout %q: must be one of %v", c.Layout, Layouts)
	}

	if len(c.Targets) == 0 {
		return errors.New("no targets configured")
	}

	for i, t := range c.Targets {
		if t.Dir == "" {
			return fmt.Errorf("target %d: dir is required", i+1)
		}

		if len(t.Extensions) == 0 {
			return fmt.Errorf("target %q: at least one extension is required", t.Dir)
		}

		if t.Depth < -1 {
			return fmt.Errorf("target %q: depth cannot be less than -1", t.Dir)
		}
	}

	return nil
}

// Options converts the configuration into run options.
func (c *Config) Options() linestat.Options {
	targets := make([]linestat.Target, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, linestat.Target{
			Dir:        t.Dir,
			Label:      t.Label,
			Extensions: t.Extensions,
			Depth:      t.Depth,
		})
	}

	return linestat.Options{
		Root:     c.Root,
		Title:    c.Title,
		Targets:  targets,
		Excludes: c.Excludes,
		Output:   c.Output,
		Layout:   c.Layout,
	}
}
