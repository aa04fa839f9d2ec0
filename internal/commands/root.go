// Package commands contains the gracedec CLI command definitions.
package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/reoring/gracedec/internal/config"
	"github.com/reoring/gracedec/introspect"
)

type rootOptions struct {
	configPath string
	verbose    bool
	log        zerolog.Logger
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	root := &rootOptions{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "gracedec",
		Short:         "Check and generate graceful decoder tables for Go structs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			root.log = newLogger(cmd.ErrOrStderr(), root.verbose)
		},
	}
	cmd.PersistentFlags().StringVarP(&root.configPath, "config", "c", config.DefaultFile, "Path to the project config file")
	cmd.PersistentFlags().BoolVarP(&root.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newCheckCmd(root), newGenCmd(root), newInitCmd(root))
	return cmd
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// modelOptions are the flags shared by check and gen. Each one overrides
// the matching config entry when set.
type modelOptions struct {
	dir          string
	types        []string
	output       string
	naming       string
	registry     string
	allowShadows bool
}

func bindModelFlags(fs *pflag.FlagSet, o *modelOptions) {
	fs.StringVarP(&o.dir, "dir", "d", "", "Package directory holding the model structs")
	fs.StringSliceVarP(&o.types, "type", "t", nil, "Root model type names (repeatable or comma-separated)")
	fs.StringVarP(&o.output, "output", "o", "", "Generated file path")
	fs.StringVar(&o.naming, "naming", "", "Naming policy for untagged fields")
	fs.StringVar(&o.registry, "registry", "", "Suffix of the generated New<Registry> constructor")
	fs.BoolVar(&o.allowShadows, "allow-shadowed-keys", false, "Let later fields claim wire keys of earlier ones")
}

// resolveConfig loads the config file, applies the changed flags over it
// and validates the result. A missing default config file is not an error.
func (r *rootOptions) resolveConfig(fs *pflag.FlagSet, o *modelOptions) (*config.Config, error) {
	cfg, err := config.Load(r.configPath)
	switch {
	case err == nil:
		r.log.Debug().Str("path", r.configPath).Msg("loaded config")
	case errors.Is(err, os.ErrNotExist) && !r.configChanged(fs):
		cfg = config.Default()
	default:
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if fs.Changed("dir") {
		cfg.PackageDir = o.dir
	}
	if fs.Changed("type") {
		cfg.Types = o.types
	}
	if fs.Changed("output") {
		cfg.Output = o.output
	}
	if fs.Changed("naming") {
		cfg.NamingPolicy = o.naming
	}
	if fs.Changed("registry") {
		cfg.Registry = o.registry
	}
	if fs.Changed("allow-shadowed-keys") {
		cfg.AllowShadowedKeys = o.allowShadows
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (r *rootOptions) configChanged(fs *pflag.FlagSet) bool {
	f := fs.Lookup("config")
	return f != nil && f.Changed
}

func namingPolicy(cfg *config.Config) introspect.NamingPolicy {
	// Validate already rejected unknown names.
	p, _ := introspect.ParseNamingPolicy(cfg.NamingPolicy)
	return p
}
