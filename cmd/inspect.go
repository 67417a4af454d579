// File: cmd/inspect.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/browser"
	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/observability"
	"github.com/raylty/linkcheck-cli/internal/pagemeta"
)

// newInspectCmd creates the `inspect` command: loads a page and reports its
// structure plus, optionally, the network traffic behind it. Helps diagnose
// why a batch row keeps failing.
func newInspectCmd() *cobra.Command {
	var (
		deviceName string
		saveSource string
		networkLog string
		screenshot string
	)

	inspectCmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Loads a page and prints its structure and traffic summary",
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

			if deviceName != "" {
				dev, err := browser.LookupDevice(deviceName)
				if err != nil {
					return err
				}
				if err := session.Emulate(ctx, dev); err != nil {
					return fmt.Errorf("device emulation failed: %w", err)
				}
			}

			if networkLog != "" {
				if err := session.StartHarvest(); err != nil {
					return fmt.Errorf("failed to start traffic capture: %w", err)
				}
			}

			resp, err := session.Navigate(ctx, args[0])
			if err != nil {
				return fmt.Errorf("navigation failed: %w", err)
			}

			html, err := session.PageHTML(ctx)
			if err != nil {
				return fmt.Errorf("failed to read page source: %w", err)
			}
			meta, err := pagemeta.Parse(html)
			if err != nil {
				return fmt.Errorf("failed to parse page: %w", err)
			}
			location, err := session.Location(ctx)
			if err != nil {
				location = args[0]
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "URL:     %s\n", location)
			if resp != nil {
				fmt.Fprintf(out, "Status:  %d\n", resp.Status)
			}
			fmt.Fprintf(out, "Title:   %s\n", meta.Title)
			fmt.Fprintf(out, "Links:   %d\n", meta.Links)
			fmt.Fprintf(out, "Images:  %d\n", meta.Images)
			fmt.Fprintf(out, "Forms:   %d (inputs: %d)\n", meta.Forms, meta.Inputs)

			if saveSource != "" {
				if err := os.WriteFile(saveSource, []byte(html), 0o644); err != nil {
					return fmt.Errorf("failed to save page source: %w", err)
				}
				logger.Info("Page source saved", zap.String("path", saveSource))
			}
			if screenshot != "" {
				if err := session.Screenshot(ctx, screenshot); err != nil {
					return fmt.Errorf("failed to capture screenshot: %w", err)
				}
				logger.Info("Screenshot saved", zap.String("path", screenshot))
			}
			if networkLog != "" {
				nl := session.Harvest()
				if err := nl.Save(networkLog); err != nil {
					return fmt.Errorf("failed to save network log: %w", err)
				}
				fmt.Fprintf(out, "Traffic: %d requests, %d responses, %d hosts (log: %s)\n",
					nl.Summary.TotalRequests, nl.Summary.TotalResponses, nl.Summary.UniqueHosts, networkLog)
			}
			return nil
		},
	}

	inspectCmd.Flags().StringVar(&deviceName, "device", "", "emulate a mobile device (e.g. \"iPhone X\")")
	inspectCmd.Flags().StringVar(&saveSource, "save-source", "", "write the page HTML to this file")
	inspectCmd.Flags().StringVar(&networkLog, "network-log", "", "write a JSON traffic log to this file")
	inspectCmd.Flags().StringVar(&screenshot, "screenshot", "", "write a full-page screenshot to this file")

	return inspectCmd
}
