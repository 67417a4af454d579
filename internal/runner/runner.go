// internal/runner/runner.go

// Package runner drives the sequential execution of spreadsheet cases
// against a live browser and classifies each row's outcome.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/sheet"
)

// Attempt is the raw result of a single execution of one case.
type Attempt struct {
	Outcome    Outcome
	Detail     string
	FilePath   string
	FileType   string
	Screenshot string
}

// Executor runs a single case end to end. Implementations must be safe
// to call repeatedly; the runner retries transient outcomes.
type Executor interface {
	ExecuteRow(ctx context.Context, c sheet.Case) Attempt
}

// RowReport is the final, retry-resolved record for one spreadsheet row.
type RowReport struct {
	Case       sheet.Case
	Outcome    Outcome
	Detail     string
	ExecutedAt time.Time
	Elapsed    time.Duration
	Attempts   int
	FilePath   string
	FileType   string
	Screenshot string
}

// ResultCell renders the value written into the 执行结果 column.
func (r RowReport) ResultCell() string {
	if r.Detail == "" {
		return r.Outcome.StatusWord()
	}
	return fmt.Sprintf("%s: %s", r.Outcome.StatusWord(), r.Detail)
}

// Runner walks the cases strictly in sheet order. Rows never run
// concurrently; a shared download directory makes event-to-row
// attribution ambiguous otherwise.
type Runner struct {
	exec    Executor
	cfg     config.RunnerConfig
	logger  *zap.Logger
	limiter *rate.Limiter

	// retryWait seeds the backoff between attempts; tests shrink it.
	retryWait time.Duration
}

func NewRunner(exec Executor, cfg config.RunnerConfig, logger *zap.Logger) *Runner {
	r := &Runner{
		exec:      exec,
		cfg:       cfg,
		logger:    logger,
		retryWait: 2 * time.Second,
	}
	if cfg.RowsPerMinute > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RowsPerMinute)/60.0), 1)
	}
	return r
}

// Run executes every case and returns one report per case, in order.
// A row failure is recorded, never returned as an error; the only error
// paths are context cancellation, in which case the reports accumulated
// so far are still returned.
func (r *Runner) Run(ctx context.Context, cases []sheet.Case) ([]RowReport, error) {
	reports := make([]RowReport, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return reports, fmt.Errorf("run interrupted: %w", err)
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return reports, fmt.Errorf("run interrupted: %w", err)
			}
		}

		r.logger.Info("Executing row",
			zap.Int("row", c.Index+1),
			zap.String("material", c.Material),
			zap.String("element", c.Element))

		report := r.runRow(ctx, c)
		if report.Outcome.Success() {
			r.logger.Info("Row succeeded",
				zap.Int("row", c.Index+1),
				zap.Duration("elapsed", report.Elapsed),
				zap.String("file", report.FilePath))
		} else {
			r.logger.Warn("Row failed",
				zap.Int("row", c.Index+1),
				zap.Stringer("outcome", report.Outcome),
				zap.String("detail", report.Detail))
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Runner) runRow(ctx context.Context, c sheet.Case) RowReport {
	start := time.Now()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.retryWait
	bo.MaxInterval = 30 * time.Second

	maxAttempts := r.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var att Attempt
	attempts := 0
	for {
		attempts++
		att = r.exec.ExecuteRow(ctx, c)
		if !att.Outcome.Transient() || attempts >= maxAttempts || ctx.Err() != nil {
			break
		}
		wait := bo.NextBackOff()
		r.logger.Warn("Retrying row after transient failure",
			zap.Int("row", c.Index+1),
			zap.Stringer("outcome", att.Outcome),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait))
		select {
		case <-time.After(wait):
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}

	return RowReport{
		Case:       c,
		Outcome:    att.Outcome,
		Detail:     att.Detail,
		ExecutedAt: time.Now(),
		Elapsed:    time.Since(start),
		Attempts:   attempts,
		FilePath:   att.FilePath,
		FileType:   att.FileType,
		Screenshot: att.Screenshot,
	}
}
