// File: cmd/compress.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/internal/compress"
	"github.com/xkilldash9x/reflow-cli/internal/observability"
)

// newCompressCmd creates and configures the `compress` command.
func newCompressCmd() *cobra.Command {
	compressCmd := &cobra.Command{
		Use:   "compress <input.json> <output.json>",
		Short: "Compresses an oversized capture to fit under the size target",
		Args:  cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bound only when set so the zero default cannot shadow the
			// configured target.
			if f := cmd.Flags().Lookup("target-size"); f.Changed {
				if err := viper.BindPFlag("compress.target_size_mb", f); err != nil {
					return err
				}
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			inputPath, outputPath := args[0], args[1]
			aggressive := viper.GetBool("aggressive")

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("reading capture %q: %w", inputPath, err)
			}
			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("parsing capture %q: %w", inputPath, err)
			}

			stats := compress.New(cfg.Compress, logger).Run(doc, aggressive)

			out, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("encoding compressed capture: %w", err)
			}
			if err := os.WriteFile(outputPath, out, 0o644); err != nil {
				return fmt.Errorf("writing %q: %w", outputPath, err)
			}

			logger.Info("Compression complete",
				zap.String("output", outputPath),
				zap.Int("original_bytes", stats.OriginalBytes),
				zap.Int("final_bytes", stats.FinalBytes),
				zap.Int("images_removed", stats.ImagesRemoved),
				zap.Int("svgs_removed", stats.SVGsRemoved),
				zap.Int("subtrees_trimmed", stats.SubtreesTrimmed),
				zap.Bool("aggressive", stats.Aggressive))
			return nil
		},
	}

	compressCmd.Flags().Bool("aggressive", false, "skip the standard pass and compress aggressively")
	compressCmd.Flags().Float64("target-size", 0, "override the target size in MB")
	return compressCmd
}
