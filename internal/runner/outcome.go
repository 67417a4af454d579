// internal/runner/outcome.go
package runner

// Outcome is the flat per-row classification of a batch run.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeSuccess
	OutcomePageLoadFailed
	OutcomeElementNotFound
	OutcomeDownloadFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeSuccess:
		return "success"
	case OutcomePageLoadFailed:
		return "page_load_failed"
	case OutcomeElementNotFound:
		return "element_not_found"
	case OutcomeDownloadFailed:
		return "download_failed"
	default:
		return "unknown"
	}
}

// Success reports a completed download.
func (o Outcome) Success() bool { return o == OutcomeSuccess }

// Transient reports whether a retry could plausibly change the outcome.
// A missing element is a property of the page, not of the attempt.
func (o Outcome) Transient() bool {
	return o == OutcomePageLoadFailed || o == OutcomeDownloadFailed
}

// StatusWord returns the Chinese status prefix used in the result column.
func (o Outcome) StatusWord() string {
	if o.Success() {
		return "成功"
	}
	return "失败"
}
