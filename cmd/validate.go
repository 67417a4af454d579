// File: cmd/validate.go
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/observability"
	"github.com/raylty/linkcheck-cli/internal/report"
	"github.com/raylty/linkcheck-cli/internal/validate"
)

// newValidateCmd creates the `validate` command. It reads the manifest a
// previous run left in the download directory and asks a multimodal model
// to judge each material's blank form and sample form.
func newValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [download-dir]",
		Short: "Validates downloaded documents against their material names",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			dir := cfg.Runner.DownloadDir
			if len(args) == 1 {
				dir = args[0]
			}

			manifest, err := report.LoadManifest(dir)
			if err != nil {
				return fmt.Errorf("no download manifest in %s (run a batch first): %w", dir, err)
			}

			client, err := validate.NewGeminiClient(cfg.Validator, logger)
			if err != nil {
				return fmt.Errorf("validator unavailable: %w (set LINKCHECK_GEMINI_API_KEY)", err)
			}

			pairs := validate.BuildPairs(manifest)
			logger.Info("Validating downloaded documents",
				zap.Int("materials", len(pairs)),
				zap.String("model", cfg.Validator.Model))

			v := validate.NewValidator(client, cfg.Validator.Concurrency, logger)
			results, err := v.Run(ctx, pairs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, res := range results {
				switch {
				case res.Skipped:
					fmt.Fprintf(out, "跳过 %s: %s\n", res.Pair.Material, res.Reason)
				case res.Err != nil:
					failed++
					fmt.Fprintf(out, "出错 %s: %v\n", res.Pair.Material, res.Err)
				case res.Verdict.Passed():
					fmt.Fprintf(out, "通过 %s\n", res.Pair.Material)
				default:
					failed++
					fmt.Fprintf(out, "未通过 %s\n", res.Pair.Material)
					printFailures(out, res.Verdict)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d materials failed validation", failed, len(results))
			}
			return nil
		},
	}
	return validateCmd
}

type failure struct {
	name   string
	ok     *bool
	reason string
}

func printFailures(out io.Writer, v validate.Verdict) {
	checks := []failure{
		{"两表格式一致", v.FormsConsistent, v.FormsConsistentReason},
		{"空白表格主旨相符", v.BlankFormMatches, v.BlankFormMatchesWhy},
		{"示例样表主旨相符", v.SampleFormMatches, v.SampleFormMatchesWhy},
		{"空白表格无示例", v.BlankFormEmpty, v.BlankFormEmptyWhy},
		{"示例样表含示例", v.SampleFormFilled, v.SampleFormFilledWhy},
		{"示例信息已打码", v.SampleInfoMasked, v.SampleInfoMaskedWhy},
	}
	for _, c := range checks {
		if c.ok != nil && !*c.ok {
			fmt.Fprintf(out, "  - %s: %s\n", c.name, c.reason)
		}
	}
}
