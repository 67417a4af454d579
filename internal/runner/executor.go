// internal/runner/executor.go
package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/browser"
	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/sheet"
)

// BrowserExecutor runs one case in a fresh browser tab. Each row gets
// its own session so state from a failed page never leaks forward.
type BrowserExecutor struct {
	manager *browser.Manager
	cfg     *config.Config
	logger  *zap.Logger
}

func NewBrowserExecutor(manager *browser.Manager, cfg *config.Config, logger *zap.Logger) *BrowserExecutor {
	return &BrowserExecutor{manager: manager, cfg: cfg, logger: logger}
}

func (e *BrowserExecutor) ExecuteRow(ctx context.Context, c sheet.Case) Attempt {
	logger := e.logger.With(zap.Int("row", c.Index+1), zap.String("material", c.Material))

	session, err := e.manager.NewSession(ctx)
	if err != nil {
		return Attempt{
			Outcome: OutcomePageLoadFailed,
			Detail:  fmt.Sprintf("无法创建浏览器会话: %v", err),
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := session.Close(closeCtx); err != nil {
			logger.Warn("Session close returned an error", zap.Error(err))
		}
	}()

	if err := session.EnableDownloads(e.cfg.Runner.DownloadDir); err != nil {
		return Attempt{
			Outcome: OutcomeDownloadFailed,
			Detail:  fmt.Sprintf("无法准备下载目录: %v", err),
		}
	}

	resp, err := session.Navigate(ctx, c.URL)
	if err != nil {
		return Attempt{
			Outcome: OutcomePageLoadFailed,
			Detail:  fmt.Sprintf("页面访问失败: %v", err),
		}
	}
	if resp != nil && !resp.OK() {
		shot := e.capture(ctx, session, c, "page_load")
		return Attempt{
			Outcome:    OutcomePageLoadFailed,
			Detail:     fmt.Sprintf("页面访问失败，状态码: %d", resp.Status),
			Screenshot: shot,
		}
	}

	match, err := session.TagDownloadLink(ctx, c.Material, c.Element)
	if err != nil {
		shot := e.capture(ctx, session, c, "locate")
		return Attempt{
			Outcome:    OutcomeElementNotFound,
			Detail:     fmt.Sprintf("查找下载链接时出错: %v", err),
			Screenshot: shot,
		}
	}
	if !match.Found {
		shot := e.capture(ctx, session, c, "locate")
		return Attempt{
			Outcome:    OutcomeElementNotFound,
			Detail:     fmt.Sprintf("未找到包含'%s'和'%s'的有效下载链接", c.Material, c.Element),
			Screenshot: shot,
		}
	}
	if !match.Strict {
		logger.Warn("Strict row match failed, using loose text match", zap.Int("candidate_rows", match.Rows))
	}

	clickedAt := time.Now()
	if err := session.ClickTagged(ctx); err != nil {
		shot := e.capture(ctx, session, c, "click")
		return Attempt{
			Outcome:    OutcomeElementNotFound,
			Detail:     fmt.Sprintf("下载链接不可点击: %v", err),
			Screenshot: shot,
		}
	}

	dl, err := session.AwaitDownload(ctx, e.cfg.Network.DownloadTimeout)
	if err != nil {
		shot := e.capture(ctx, session, c, "download")
		return Attempt{
			Outcome:    OutcomeDownloadFailed,
			Detail:     fmt.Sprintf("链接可点击，但未能在%s内完成下载", e.cfg.Network.DownloadTimeout),
			Screenshot: shot,
		}
	}

	return Attempt{
		Outcome:  OutcomeSuccess,
		Detail:   fmt.Sprintf("下载完成，耗时: %.2f秒", time.Since(clickedAt).Seconds()),
		FilePath: dl.Path,
		FileType: dl.FileType,
	}
}

// capture saves a failure screenshot and returns its path, or "" if the
// capture itself failed. Screenshot failures are logged, never fatal.
func (e *BrowserExecutor) capture(ctx context.Context, session *browser.Session, c sheet.Case, stage string) string {
	dir := e.cfg.Runner.ScreenshotDir
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.logger.Warn("Could not create screenshot directory", zap.String("dir", dir), zap.Error(err))
		return ""
	}
	name := fmt.Sprintf("error_row_%03d_%s_%s.png", c.Index+1, stage, time.Now().Format("150405"))
	path := filepath.Join(dir, name)
	if err := session.Screenshot(ctx, path); err != nil {
		e.logger.Warn("Failed to capture screenshot", zap.String("path", path), zap.Error(err))
		return ""
	}
	return path
}
