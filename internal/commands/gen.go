package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reoring/gracedec/internal/gen"
)

func newGenCmd(root *rootOptions) *cobra.Command {
	opts := &modelOptions{}

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate static descriptor tables and typed Decode/Encode functions",
		Example: `  gracedec gen --dir ./models --type Order -o ./models/models_gracedec.go
  gracedec gen --naming lower_case_with_underscores --registry Shop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.resolveConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			pkg, problems, err := scanAndValidate(root, cfg)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				for _, p := range problems {
					root.log.Error().Str("model", p.Model).Str("field", p.Field).Str("code", p.Code).Msg(p.Message)
				}
				return fmt.Errorf("generation aborted: %w", problems)
			}

			src, err := gen.Render(gen.File{
				Package:           pkg.Name,
				Registry:          cfg.Registry,
				Models:            pkg.Models,
				AllowShadowedKeys: cfg.AllowShadowedKeys,
			})
			if err != nil {
				return err
			}
			out := cfg.OutputPath()
			if err := os.MkdirAll(filepath.Dir(out), 0o750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			if err := os.WriteFile(out, src, 0o644); err != nil { //nolint:gosec // generated source is world-readable
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			root.log.Info().Str("output", out).Int("models", len(pkg.Models)).Msg("generated")
			return nil
		},
	}
	bindModelFlags(cmd.Flags(), opts)
	return cmd
}
