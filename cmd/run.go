// File: cmd/run.go
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/browser"
	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/observability"
	"github.com/raylty/linkcheck-cli/internal/report"
	"github.com/raylty/linkcheck-cli/internal/runner"
	"github.com/raylty/linkcheck-cli/internal/sheet"
)

// newRunCmd creates and configures the `run` command, the main batch loop.
func newRunCmd() *cobra.Command {
	var (
		output string
		strict bool
	)

	runCmd := &cobra.Command{
		Use:   "run <input.xlsx>",
		Short: "Runs every spreadsheet row through the browser and writes a result workbook",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Flags override config file and environment values.
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			if err := viper.BindPFlag("runner.max_attempts", cmd.Flags().Lookup("max-attempts")); err != nil {
				return err
			}
			return viper.BindPFlag("runner.download_dir", cmd.Flags().Lookup("download-dir"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			input := args[0]
			ds, err := sheet.Load(input)
			if err != nil {
				return fmt.Errorf("failed to load input workbook: %w", err)
			}
			logger.Info("Input workbook loaded", zap.String("path", input), zap.Int("rows", len(ds.Cases)))

			start := time.Now()
			outPath := output
			if outPath == "" {
				outPath = report.DefaultOutputPath(input, start)
			}
			// Refuse up front rather than after a long browser run.
			if err := checkWritable(outPath); err != nil {
				return fmt.Errorf("output path is not writable: %w", err)
			}

			manager, err := browser.NewManager(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("failed to launch browser: %w", err)
			}
			defer func() {
				if err := manager.Shutdown(ctx); err != nil {
					logger.Warn("Browser shutdown was not clean", zap.Error(err))
				}
			}()

			exec := runner.NewBrowserExecutor(manager, cfg, logger)
			r := runner.NewRunner(exec, cfg.Runner, logger)

			reports, runErr := r.Run(ctx, ds.Cases)
			if runErr != nil {
				logger.Warn("Run interrupted, writing partial results", zap.Error(runErr))
				reports = padInterrupted(reports, ds.Cases)
			}

			summary := report.Summarize(reports, time.Since(start))

			if err := report.Write(outPath, ds, reports); err != nil {
				return fmt.Errorf("failed to write result workbook: %w", err)
			}
			logger.Info("Result workbook written", zap.String("path", outPath))

			manifest := report.BuildManifest(input, reports)
			if len(manifest.Entries) > 0 {
				if err := manifest.Save(cfg.Runner.DownloadDir); err != nil {
					logger.Warn("Could not write download manifest", zap.Error(err))
				}
			}

			report.Print(cmd.OutOrStdout(), summary, reports)

			if runErr != nil {
				return runErr
			}
			if strict && summary.Failed > 0 {
				return fmt.Errorf("%d of %d rows failed", summary.Failed, summary.Total)
			}
			// Row failures are data, not errors: the default exit code stays zero.
			return nil
		},
	}

	runCmd.Flags().StringVarP(&output, "output", "o", "", "result workbook path (default test_results_<timestamp>_<input>.xlsx)")
	runCmd.Flags().BoolVar(&strict, "strict", false, "exit nonzero when any row fails")
	runCmd.Flags().Bool("headless", true, "run the browser headless")
	runCmd.Flags().Int("max-attempts", 1, "tries per row; transient failures are retried")
	runCmd.Flags().String("download-dir", "downloads", "directory for downloaded files")

	return runCmd
}

// checkWritable probes the output path without disturbing an existing file.
func checkWritable(path string) error {
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	f.Close()
	if os.IsNotExist(statErr) {
		return os.Remove(path)
	}
	return nil
}

// padInterrupted fills reports for rows the run never reached so the result
// workbook still covers every input row.
func padInterrupted(reports []runner.RowReport, cases []sheet.Case) []runner.RowReport {
	for i := len(reports); i < len(cases); i++ {
		reports = append(reports, runner.RowReport{
			Case:       cases[i],
			Outcome:    runner.OutcomePending,
			Detail:     "测试被中断，未执行",
			ExecutedAt: time.Now(),
		})
	}
	return reports
}
