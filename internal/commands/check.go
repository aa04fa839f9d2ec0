package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/internal/config"
	"github.com/reoring/gracedec/internal/gen"
)

func newCheckCmd(root *rootOptions) *cobra.Command {
	opts := &modelOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the generation-time checks on model structs",
		Long: `Scan the model structs of a package and report descriptor problems:
mixed defaults, duplicate wire keys, invalid default literals, nullable
fields that cannot hold nil and unsupported field types.`,
		Example: `  gracedec check --dir ./models --type Order,Customer
  gracedec check --config ./models/.gracedec.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolveConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			pkg, errs, err := scanAndValidate(root, cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range errs {
				fmt.Fprintln(out, e.Error())
			}
			if len(errs) > 0 {
				return fmt.Errorf("check failed: %d problem(s)", len(errs))
			}
			fmt.Fprintf(out, "ok: %d model(s) in package %s\n", len(pkg.Models), pkg.Name)
			return nil
		},
	}
	bindModelFlags(cmd.Flags(), opts)
	return cmd
}

// scanAndValidate scans the configured package and validates every model
// it finds. Descriptor problems are returned separately from hard errors.
func scanAndValidate(root *rootOptions, cfg *config.Config) (*gen.Package, gracedec.DescriptorErrors, error) {
	pkg, err := gen.Scan(cfg.PackageDir, cfg.Types, gen.WithNamingPolicy(namingPolicy(cfg)))
	var problems gracedec.DescriptorErrors
	if err != nil {
		des, ok := gracedec.AsDescriptorErrors(err)
		if !ok {
			return nil, nil, err
		}
		problems = append(problems, des...)
	}
	for _, m := range pkg.Models {
		root.log.Debug().Str("model", m.Name).Int("fields", len(m.Descriptor.Fields)).Msg("scanned")
		for _, f := range m.Descriptor.Fields {
			root.log.Debug().Str("model", m.Name).Msg(f.String())
		}
		err := m.Descriptor.Validate(gracedec.ValidateOptions{AllowShadowedKeys: cfg.AllowShadowedKeys})
		if des, ok := gracedec.AsDescriptorErrors(err); ok {
			problems = append(problems, des...)
		}
	}
	return pkg, problems, nil
}
