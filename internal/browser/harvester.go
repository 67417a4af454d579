// internal/browser/harvester.go
package browser

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// RequestRecord is one captured outbound request.
type RequestRecord struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Timestamp time.Time `json:"timestamp"`
}

// ResponseRecord is one captured response.
type ResponseRecord struct {
	URL       string    `json:"url"`
	Status    int64     `json:"status"`
	MimeType  string    `json:"mime_type"`
	Timestamp time.Time `json:"timestamp"`
}

// ConsoleEntry is one captured browser console message.
type ConsoleEntry struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// NetworkLog aggregates everything a harvesting session captured.
type NetworkLog struct {
	Requests  []RequestRecord  `json:"requests"`
	Responses []ResponseRecord `json:"responses"`
	Console   []ConsoleEntry   `json:"console"`
	Summary   NetworkSummary   `json:"summary"`
}

// NetworkSummary carries the derived counts for the log.
type NetworkSummary struct {
	TotalRequests  int `json:"total_requests"`
	TotalResponses int `json:"total_responses"`
	UniqueHosts    int `json:"unique_hosts"`
}

// Harvester collects network traffic and console entries from a session.
type Harvester struct {
	logger *zap.Logger

	mu        sync.Mutex
	requests  []RequestRecord
	responses []ResponseRecord
	console   []ConsoleEntry
}

// StartHarvester enables the network and log domains on sessionCtx and
// begins listening. Capture stops when the session context ends.
func StartHarvester(sessionCtx context.Context, logger *zap.Logger) (*Harvester, error) {
	h := &Harvester{logger: logger.Named("harvester")}

	chromedp.ListenTarget(sessionCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			h.mu.Lock()
			h.requests = append(h.requests, RequestRecord{
				URL:       e.Request.URL,
				Method:    e.Request.Method,
				Timestamp: time.Now(),
			})
			h.mu.Unlock()
		case *network.EventResponseReceived:
			h.mu.Lock()
			h.responses = append(h.responses, ResponseRecord{
				URL:       e.Response.URL,
				Status:    e.Response.Status,
				MimeType:  e.Response.MimeType,
				Timestamp: time.Now(),
			})
			h.mu.Unlock()
		case *cdplog.EventEntryAdded:
			h.mu.Lock()
			h.console = append(h.console, ConsoleEntry{
				Level: string(e.Entry.Level),
				Text:  e.Entry.Text,
			})
			h.mu.Unlock()
		}
	})

	if err := chromedp.Run(sessionCtx, network.Enable(), cdplog.Enable()); err != nil {
		return nil, fmt.Errorf("failed to enable capture domains: %w", err)
	}
	return h, nil
}

// Snapshot returns a copy of everything captured so far.
func (h *Harvester) Snapshot() *NetworkLog {
	h.mu.Lock()
	defer h.mu.Unlock()

	nl := &NetworkLog{
		Requests:  append([]RequestRecord(nil), h.requests...),
		Responses: append([]ResponseRecord(nil), h.responses...),
		Console:   append([]ConsoleEntry(nil), h.console...),
	}
	nl.Summary = NetworkSummary{
		TotalRequests:  len(nl.Requests),
		TotalResponses: len(nl.Responses),
		UniqueHosts:    countHosts(nl.Requests),
	}
	return nl
}

func countHosts(requests []RequestRecord) int {
	hosts := make(map[string]struct{})
	for _, r := range requests {
		if u, err := url.Parse(r.URL); err == nil && u.Host != "" {
			hosts[u.Host] = struct{}{}
		}
	}
	return len(hosts)
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Save serializes the log as indented JSON at path.
func (nl *NetworkLog) Save(path string) error {
	data, err := json.MarshalIndent(nl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize network log: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save network log %s: %w", path, err)
	}
	return nil
}
