// File: cmd/probe.go
package cmd

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/browser"
	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/observability"
)

// newProbeCmd creates the `probe` command: a one-off check of a single page
// and material, useful before committing to a full batch run.
func newProbeCmd() *cobra.Command {
	var (
		material string
		element  string
		download bool
	)

	probeCmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Checks a single page for a material's download link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			manager, err := browser.NewManager(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("failed to launch browser: %w", err)
			}
			defer manager.Shutdown(ctx)

			session, err := manager.NewSession(ctx)
			if err != nil {
				return fmt.Errorf("failed to open session: %w", err)
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				session.Close(closeCtx)
			}()

			if download {
				if err := session.EnableDownloads(cfg.Runner.DownloadDir); err != nil {
					return fmt.Errorf("failed to prepare download dir: %w", err)
				}
			}

			resp, err := session.Navigate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("navigation failed: %w", err)
			}
			if resp != nil && !resp.OK() {
				return fmt.Errorf("page returned status %d", resp.Status)
			}

			match, err := session.TagDownloadLink(ctx, material, element)
			if err != nil {
				return fmt.Errorf("link lookup failed: %w", err)
			}

			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(match, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if !match.Found {
				return fmt.Errorf("no download link found for material %q", material)
			}

			if download {
				if err := session.ClickTagged(ctx); err != nil {
					return fmt.Errorf("link is not clickable: %w", err)
				}
				dl, err := session.AwaitDownload(ctx, cfg.Network.DownloadTimeout)
				if err != nil {
					return fmt.Errorf("download did not complete: %w", err)
				}
				logger.Info("Download complete", zap.String("path", dl.Path), zap.String("type", dl.FileType))
				fmt.Fprintf(cmd.OutOrStdout(), "已下载: %s\n", dl.Path)
			}
			return nil
		},
	}

	probeCmd.Flags().StringVarP(&material, "material", "m", "", "材料名称 to look for")
	probeCmd.Flags().StringVarP(&element, "element", "e", "", "元素名称 of the link")
	probeCmd.Flags().BoolVarP(&download, "download", "d", false, "click the link and wait for the file")
	_ = probeCmd.MarkFlagRequired("material")

	return probeCmd
}
