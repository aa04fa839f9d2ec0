// Package config handles the .gracedec.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/reoring/gracedec/introspect"
)

// CurrentVersion is the current version of the config file format.
const CurrentVersion = 1

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = ".gracedec.yaml"

// DefaultOutput is the generated file name used when Output is empty.
const DefaultOutput = "models_gracedec.go"

// Config represents the .gracedec.yaml project configuration file.
type Config struct {
	Version      int      `yaml:"version"`
	PackageDir   string   `yaml:"package_dir"`
	Types        []string `yaml:"types"`
	Output       string   `yaml:"output,omitempty"`
	NamingPolicy string   `yaml:"naming_policy,omitempty"`
	Registry     string   `yaml:"registry,omitempty"`
	// AllowShadowedKeys lets a later field claim a wire key an earlier
	// field already claims.
	AllowShadowedKeys bool `yaml:"allow_shadowed_keys,omitempty"`
}

// Default returns a config for the package in the working directory.
func Default() *Config {
	return &Config{Version: CurrentVersion, PackageDir: "."}
}

// Load reads a Config from path. Relative PackageDir and Output are
// resolved against the directory holding the file.
func Load(path string) (*Config, error) {
	f, err := os.Open(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	base := filepath.Dir(path)
	if cfg.PackageDir != "" && !filepath.IsAbs(cfg.PackageDir) {
		cfg.PackageDir = filepath.Join(base, cfg.PackageDir)
	}
	if cfg.Output != "" && !filepath.IsAbs(cfg.Output) {
		cfg.Output = filepath.Join(base, cfg.Output)
	}
	return &cfg, nil
}

// Save writes the Config to path.
func (c *Config) Save(path string) error {
	f, err := os.Create(path) //nolint:gosec // path is provided by caller
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return errors.New("unsupported config version")
	}
	if c.PackageDir == "" {
		return errors.New("package_dir is required")
	}
	if len(c.Types) == 0 {
		return errors.New("at least one type is required")
	}
	for _, t := range c.Types {
		if t == "" || strings.ContainsAny(t, ". \t") {
			return fmt.Errorf("invalid type name %q", t)
		}
	}
	if c.Output != "" && !strings.HasSuffix(c.Output, ".go") {
		return fmt.Errorf("output %q must be a .go file", c.Output)
	}
	if _, err := introspect.ParseNamingPolicy(c.NamingPolicy); err != nil {
		return err
	}
	return nil
}

// OutputPath returns the file the gen command writes.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.PackageDir, DefaultOutput)
}
