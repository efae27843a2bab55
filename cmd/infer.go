// File: cmd/infer.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/convert"
	"github.com/xkilldash9x/reflow-cli/internal/infer"
	"github.com/xkilldash9x/reflow-cli/internal/observability"
	"github.com/xkilldash9x/reflow-cli/internal/preprocess"
	"github.com/xkilldash9x/reflow-cli/internal/reporting"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// newInferCmd creates and configures the `infer` command.
func newInferCmd() *cobra.Command {
	inferCmd := &cobra.Command{
		Use:   "infer <capture.json>",
		Short: "Infers a restructured auto-layout tree from a layout capture",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their Viper keys so command-line values override
			// the config file and environment with the right precedence.
			// Override flags are bound only when set, otherwise their zero
			// default would shadow the configured value.
			if f := cmd.Flags().Lookup("max-nodes"); f.Changed {
				if err := viper.BindPFlag("engine.max_nodes", f); err != nil {
					return err
				}
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			inputPath := args[0]
			outputPath := viper.GetString("output")
			artifactPath := viper.GetString("artifact")

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("reading capture %q: %w", inputPath, err)
			}
			var root schemas.CaptureNode
			if err := json.Unmarshal(data, &root); err != nil {
				return fmt.Errorf("parsing capture %q: %w", inputPath, err)
			}

			logger.Info("Starting inference",
				zap.String("input", inputPath),
				zap.Int("max_nodes", cfg.Engine.MaxNodes))

			pre := preprocess.New(cfg.Engine.MaxNodes, logger).Run(&root)
			if err := ctx.Err(); err != nil {
				return err
			}

			res := infer.NewEngine(cfg.Engine, logger).Infer(pre)
			if err := ctx.Err(); err != nil {
				return err
			}

			tree := convert.New(logger).Tree(res.Root)
			metrics := infer.Collect(pre, res, cfg.Engine.Thresholds.TopCandidates)
			report := reporting.Build(metrics, cfg.Report)

			out, err := json.MarshalIndent(tree, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding tree: %w", err)
			}
			if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %q: %w", outputPath, err)
			}

			artifact := reporting.NewArtifact(res.Root, tree, metrics, report)
			if artifactPath != "" {
				if err := reporting.WriteArtifact(artifactPath, artifact); err != nil {
					return err
				}
			}

			logger.Info("Inference complete",
				zap.String("run_id", artifact.RunID),
				zap.String("output", outputPath))

			fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
			for _, rec := range report.Recommendations {
				fmt.Fprintln(cmd.OutOrStdout(), "  - "+rec)
			}
			return nil
		},
	}

	inferCmd.Flags().StringP("output", "o", "reflow-output.json", "path of the restructured tree to write")
	inferCmd.Flags().String("artifact", "", "optional path for the diagnostics artifact (tree, metrics, report)")
	inferCmd.Flags().Int("max-nodes", 0, "override the node cap for this run")
	return inferCmd
}
