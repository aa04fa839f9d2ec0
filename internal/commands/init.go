package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/gracedec/internal/config"
)

type initOptions struct {
	modelOptions
	force bool
}

func newInitCmd(root *rootOptions) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .gracedec.yaml project file",
		Example: `  gracedec init --dir ./models --type Order,Customer
  gracedec init --config ./models/.gracedec.yaml --type Order --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(root, opts)
		},
	}
	bindModelFlags(cmd.Flags(), &opts.modelOptions)
	cmd.Flags().BoolVar(&opts.force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(root *rootOptions, opts *initOptions) error {
	path := root.configPath
	if _, err := os.Stat(path); err == nil && !opts.force {
		return fmt.Errorf("%s already exists; project already initialized", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	if opts.dir != "" {
		cfg.PackageDir = opts.dir
	}
	cfg.Types = opts.types
	cfg.Output = opts.output
	cfg.NamingPolicy = opts.naming
	cfg.Registry = opts.registry
	cfg.AllowShadowedKeys = opts.allowShadows
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("config file couldn't be saved: %w", err)
	}
	root.log.Info().Str("path", path).Msg("initialization completed")
	return nil
}
