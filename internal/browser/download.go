// internal/browser/download.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrDownloadTimeout reports a click that never produced a completed download
// within the configured wait.
var ErrDownloadTimeout = errors.New("no download completed within the timeout")

// Download describes a completed browser download after it has been renamed
// into its final location.
type Download struct {
	SuggestedFilename string
	SourceURL         string
	Path              string
	FileType          string
}

// downloadWatcher correlates CDP download lifecycle events by GUID. With the
// allow-and-name behavior the browser writes files named by GUID into the
// watch dir; completed files are renamed to <timestamp>_<suggested name>.
type downloadWatcher struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	begun   map[string]*cdpbrowser.EventDownloadWillBegin
	settled chan settledDownload
}

type settledDownload struct {
	guid     string
	canceled bool
}

// newDownloadWatcher attaches the event listener to sessionCtx and returns
// the watcher plus the action that configures the download behavior.
func newDownloadWatcher(sessionCtx context.Context, dir string, logger *zap.Logger) (*downloadWatcher, chromedp.Action) {
	w := &downloadWatcher{
		dir:    dir,
		logger: logger.Named("downloads"),
		begun:  make(map[string]*cdpbrowser.EventDownloadWillBegin),
		// Buffered so event delivery never blocks the CDP listener.
		settled: make(chan settledDownload, 16),
	}

	chromedp.ListenTarget(sessionCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *cdpbrowser.EventDownloadWillBegin:
			w.mu.Lock()
			w.begun[e.GUID] = e
			w.mu.Unlock()
			w.logger.Debug("Download starting",
				zap.String("filename", e.SuggestedFilename),
				zap.String("url", e.URL),
			)
		case *cdpbrowser.EventDownloadProgress:
			switch e.State {
			case cdpbrowser.DownloadProgressStateCompleted:
				w.push(settledDownload{guid: e.GUID})
			case cdpbrowser.DownloadProgressStateCanceled:
				w.push(settledDownload{guid: e.GUID, canceled: true})
			}
		}
	})

	action := cdpbrowser.
		SetDownloadBehavior(cdpbrowser.SetDownloadBehaviorBehaviorAllowAndName).
		WithDownloadPath(dir).
		WithEventsEnabled(true)

	return w, action
}

func (w *downloadWatcher) push(s settledDownload) {
	select {
	case w.settled <- s:
	default:
		w.logger.Warn("Dropping download event, channel full", zap.String("guid", s.guid))
	}
}

// Await blocks until a download settles, the timeout elapses, or ctx is done.
func (w *downloadWatcher) Await(ctx context.Context, timeout time.Duration) (*Download, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case s := <-w.settled:
		return w.finalize(s)
	case <-timer.C:
		return nil, ErrDownloadTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// finalize renames the GUID-named file to its human-readable final name.
func (w *downloadWatcher) finalize(s settledDownload) (*Download, error) {
	if s.canceled {
		return nil, fmt.Errorf("download %s was canceled by the browser", s.guid)
	}

	w.mu.Lock()
	begin := w.begun[s.guid]
	delete(w.begun, s.guid)
	w.mu.Unlock()

	suggested := "download.bin"
	sourceURL := ""
	if begin != nil {
		if begin.SuggestedFilename != "" {
			suggested = begin.SuggestedFilename
		}
		sourceURL = begin.URL
	}

	finalName := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), suggested)
	finalPath := filepath.Join(w.dir, finalName)
	guidPath := filepath.Join(w.dir, s.guid)

	if err := os.Rename(guidPath, finalPath); err != nil {
		return nil, fmt.Errorf("download completed but could not be renamed: %w", err)
	}

	return &Download{
		SuggestedFilename: suggested,
		SourceURL:         sourceURL,
		Path:              finalPath,
		FileType:          fileType(suggested),
	}, nil
}

// fileType extracts a lowercase extension without the dot, "" when absent.
func fileType(filename string) string {
	ext := filepath.Ext(filename)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
