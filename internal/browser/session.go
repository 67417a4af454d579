// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/config"
)

// PageResponse summarizes the main document response of a navigation.
type PageResponse struct {
	Status int64
	URL    string
}

// OK reports whether the document came back with a non-error status.
func (p *PageResponse) OK() bool {
	return p != nil && p.Status > 0 && p.Status < 400
}

// LinkMatch is the result of locating a download link on the page.
type LinkMatch struct {
	Found bool `json:"found"`
	// Strict is true when the chosen anchor looked like a real download
	// link (href, onclick or a download-ish class), false when the loose
	// fallback picked the first textual match.
	Strict bool `json:"strict"`
	// Rows counts the table rows whose text contained the material name.
	Rows int `json:"rows"`
}

// Session manages a single, isolated browser tab.
type Session struct {
	cfg    *config.Config
	logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	downloads *downloadWatcher
	harvester *Harvester
	onClose   func()

	isClosed bool
	mu       sync.Mutex
}

func newSession(allocCtx context.Context, cfg *config.Config, logger *zap.Logger) (*Session, error) {
	sessionCtx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		cfg:    cfg,
		logger: logger.With(zap.String("session_id", uuid.New().String()[:8])),
		ctx:    sessionCtx,
		cancel: cancel,
	}
	return s, nil
}

// run executes chromedp actions under a deadline derived from both the
// caller's context and the session.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// EnableDownloads routes file downloads into dir and starts watching
// download lifecycle events. Must be called before the triggering click.
func (s *Session) EnableDownloads(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download dir %s: %w", dir, err)
	}
	w, action := newDownloadWatcher(s.ctx, dir, s.logger)
	if err := chromedp.Run(s.ctx, action); err != nil {
		return fmt.Errorf("failed to enable downloads: %w", err)
	}
	s.downloads = w
	return nil
}

// AwaitDownload blocks until a download started after the triggering click
// completes, is renamed to a timestamped file, or the timeout elapses.
func (s *Session) AwaitDownload(ctx context.Context, timeout time.Duration) (*Download, error) {
	if s.downloads == nil {
		return nil, fmt.Errorf("downloads are not enabled for this session")
	}
	return s.downloads.Await(ctx, timeout)
}

// Emulate applies a mobile device profile to the tab. Must be called before
// navigation to take effect on the initial document.
func (s *Session) Emulate(ctx context.Context, d device.Info) error {
	s.logger.Debug("Emulating device", zap.String("device", d.Name))
	return s.run(ctx, 10*time.Second, chromedp.Emulate(d))
}

// Navigate loads a URL, waits for the document to be ready and reports the
// main document response. A nil PageResponse with nil error means the
// navigation produced no observable network response (e.g. about:blank).
func (s *Session) Navigate(ctx context.Context, url string) (*PageResponse, error) {
	s.logger.Debug("Navigating", zap.String("url", url))

	runCtx, cancel := context.WithTimeout(s.ctx, s.cfg.Network.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	resp, err := chromedp.RunResponse(runCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if s.cfg.Browser.DisableCache {
				return network.SetCacheDisabled(true).Do(ctx)
			}
			return nil
		}),
		chromedp.Navigate(url),
	)
	if err != nil {
		return nil, fmt.Errorf("navigation to %s failed: %w", url, err)
	}

	// Let late content settle the way the page will be seen by a user.
	if err := chromedp.Run(runCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.cfg.Network.PostLoadWait),
	); err != nil {
		s.logger.Warn("Page did not settle after navigation", zap.Error(err))
	}

	if resp == nil {
		return nil, nil
	}
	return &PageResponse{Status: resp.Status, URL: resp.URL}, nil
}

const linkTagAttr = "data-linkcheck-target"

// tagDownloadLinkJS locates the table row containing the material name and,
// within it, the anchor matching the element text. Anchors with an href,
// onclick handler or a download-ish class are preferred; otherwise the first
// textual match wins. The chosen anchor is tagged for a follow-up click and
// its target attribute is stripped so the download stays in this tab.
const tagDownloadLinkJS = `(function(material, element) {
	const mark = %q;
	document.querySelectorAll('[' + mark + ']').forEach(el => el.removeAttribute(mark));

	const rows = Array.from(document.querySelectorAll('tr'))
		.filter(tr => (tr.innerText || '').includes(material));

	let strictPick = null;
	let loosePick = null;
	for (const tr of rows) {
		const links = Array.from(tr.querySelectorAll('a'))
			.filter(a => (a.textContent || '').includes(element));
		if (links.length === 0) continue;
		if (!loosePick) loosePick = links[0];
		const valid = links.find(a =>
			a.getAttribute('href') ||
			a.getAttribute('onclick') ||
			/kbbg|download/i.test(a.className || ''));
		if (valid) { strictPick = valid; break; }
	}

	const pick = strictPick || loosePick;
	if (!pick) return { found: false, strict: false, rows: rows.length };

	pick.setAttribute(mark, '1');
	pick.removeAttribute('target');
	pick.scrollIntoView({ block: 'center' });
	return { found: true, strict: !!strictPick, rows: rows.length };
})(%q, %q)`

// TagDownloadLink runs the in-page locator for the material/element pair.
func (s *Session) TagDownloadLink(ctx context.Context, material, element string) (*LinkMatch, error) {
	js := fmt.Sprintf(tagDownloadLinkJS, linkTagAttr, material, element)

	var match LinkMatch
	if err := s.run(ctx, s.cfg.Network.ElementTimeout, chromedp.Evaluate(js, &match)); err != nil {
		return nil, fmt.Errorf("failed to locate download link: %w", err)
	}
	return &match, nil
}

// ClickTagged clicks the anchor previously tagged by TagDownloadLink.
func (s *Session) ClickTagged(ctx context.Context) error {
	sel := fmt.Sprintf("a[%s='1']", linkTagAttr)
	if err := s.run(ctx, s.cfg.Network.ElementTimeout, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click download link: %w", err)
	}
	return nil
}

// Screenshot captures a full-page screenshot into path.
func (s *Session) Screenshot(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create screenshot dir: %w", err)
	}

	var buf []byte
	if err := s.run(ctx, 20*time.Second, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return fmt.Errorf("failed to capture screenshot: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to save screenshot %s: %w", path, err)
	}
	return nil
}

// PageHTML returns the current DOM serialized as HTML.
func (s *Session) PageHTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, 20*time.Second, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page source: %w", err)
	}
	return html, nil
}

// Location returns the current page URL after any redirects.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, 10*time.Second, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("failed to read page location: %w", err)
	}
	return loc, nil
}

// StartHarvest begins capturing network traffic and console entries.
func (s *Session) StartHarvest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.harvester != nil {
		return nil
	}
	h, err := StartHarvester(s.ctx, s.logger)
	if err != nil {
		return err
	}
	s.harvester = h
	return nil
}

// Harvest returns the captured network log, or nil when harvesting never started.
func (s *Session) Harvest() *NetworkLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.harvester == nil {
		return nil
	}
	return s.harvester.Snapshot()
}

// Close terminates the tab. Safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.isClosed {
		s.mu.Unlock()
		return nil
	}
	s.isClosed = true
	cancel := s.cancel
	sessionCtx := s.ctx
	onClose := s.onClose
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if onClose != nil {
		defer onClose()
	}
	if sessionCtx == nil {
		return nil
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, 10*time.Second)
	defer cancelWait()

	select {
	case <-sessionCtx.Done():
		s.logger.Debug("Browser session closed gracefully.")
	case <-waitCtx.Done():
		s.logger.Warn("Deadline exceeded waiting for browser session to close.", zap.Error(waitCtx.Err()))
	}
	return nil
}
