// internal/runner/runner_test.go
package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/raylty/linkcheck-cli/internal/config"
	"github.com/raylty/linkcheck-cli/internal/sheet"
)

// fakeExecutor replays a scripted sequence of attempts. Once the script
// is exhausted it keeps returning the last entry.
type fakeExecutor struct {
	script []Attempt
	calls  int
}

func (f *fakeExecutor) ExecuteRow(_ context.Context, _ sheet.Case) Attempt {
	i := f.calls
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	f.calls++
	return f.script[i]
}

func makeCases(n int) []sheet.Case {
	cases := make([]sheet.Case, n)
	for i := range cases {
		cases[i] = sheet.Case{
			Index:    i,
			URL:      "https://example.com/item",
			Material: "空白表格",
			Element:  "下载",
		}
	}
	return cases
}

func newTestRunner(exec Executor, cfg config.RunnerConfig) *Runner {
	r := NewRunner(exec, cfg, zap.NewNop())
	r.retryWait = time.Millisecond
	return r
}

func TestRunnerReportsEveryRowInOrder(t *testing.T) {
	exec := &fakeExecutor{script: []Attempt{{Outcome: OutcomeSuccess, Detail: "下载完成"}}}
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 1})

	start := time.Now()
	reports, err := r.Run(context.Background(), makeCases(4))
	require.NoError(t, err)
	require.Len(t, reports, 4)

	for i, rep := range reports {
		assert.Equal(t, i, rep.Case.Index)
		assert.Equal(t, OutcomeSuccess, rep.Outcome)
		assert.Equal(t, 1, rep.Attempts)
		assert.False(t, rep.ExecutedAt.Before(start), "timestamp must not predate the run")
	}
	assert.Equal(t, 4, exec.calls)
}

func TestRunnerRecordsFailuresWithoutAborting(t *testing.T) {
	exec := &fakeExecutor{script: []Attempt{
		{Outcome: OutcomeElementNotFound, Detail: "未找到包含'空白表格'和'下载'的有效下载链接"},
		{Outcome: OutcomeSuccess},
	}}
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 1})

	reports, err := r.Run(context.Background(), makeCases(2))
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, OutcomeElementNotFound, reports[0].Outcome)
	assert.Equal(t, OutcomeSuccess, reports[1].Outcome)
}

func TestRunnerRetriesTransientOutcomes(t *testing.T) {
	exec := &fakeExecutor{script: []Attempt{
		{Outcome: OutcomeDownloadFailed, Detail: "超时"},
		{Outcome: OutcomeDownloadFailed, Detail: "超时"},
		{Outcome: OutcomeSuccess},
	}}
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 3})

	reports, err := r.Run(context.Background(), makeCases(1))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, OutcomeSuccess, reports[0].Outcome)
	assert.Equal(t, 3, reports[0].Attempts)
}

func TestRunnerGivesUpAfterMaxAttempts(t *testing.T) {
	exec := &fakeExecutor{script: []Attempt{{Outcome: OutcomePageLoadFailed, Detail: "状态码: 500"}}}
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 2})

	reports, err := r.Run(context.Background(), makeCases(1))
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, OutcomePageLoadFailed, reports[0].Outcome)
	assert.Equal(t, 2, reports[0].Attempts)
	assert.Equal(t, 2, exec.calls)
}

func TestRunnerNeverRetriesMissingElements(t *testing.T) {
	exec := &fakeExecutor{script: []Attempt{
		{Outcome: OutcomeElementNotFound},
		{Outcome: OutcomeSuccess},
	}}
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 5})

	reports, err := r.Run(context.Background(), makeCases(1))
	require.NoError(t, err)
	assert.Equal(t, OutcomeElementNotFound, reports[0].Outcome)
	assert.Equal(t, 1, reports[0].Attempts)
	assert.Equal(t, 1, exec.calls)
}

type executorFunc func(ctx context.Context, c sheet.Case) Attempt

func (f executorFunc) ExecuteRow(ctx context.Context, c sheet.Case) Attempt { return f(ctx, c) }

func TestRunnerReturnsPartialReportsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel after the first row completes.
	exec := executorFunc(func(context.Context, sheet.Case) Attempt {
		cancel()
		return Attempt{Outcome: OutcomeSuccess}
	})
	r := newTestRunner(exec, config.RunnerConfig{MaxAttempts: 1})

	reports, err := r.Run(ctx, makeCases(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, reports, 1)
}

func TestResultCellFormat(t *testing.T) {
	ok := RowReport{Outcome: OutcomeSuccess, Detail: "下载完成，耗时: 1.20秒"}
	assert.Equal(t, "成功: 下载完成，耗时: 1.20秒", ok.ResultCell())

	bad := RowReport{Outcome: OutcomePageLoadFailed, Detail: "页面访问失败，状态码: 404"}
	assert.Equal(t, "失败: 页面访问失败，状态码: 404", bad.ResultCell())

	bare := RowReport{Outcome: OutcomeSuccess}
	assert.Equal(t, "成功", bare.ResultCell())
}

func TestOutcomeClassification(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "page_load_failed", OutcomePageLoadFailed.String())
	assert.Equal(t, "element_not_found", OutcomeElementNotFound.String())
	assert.Equal(t, "download_failed", OutcomeDownloadFailed.String())

	assert.True(t, OutcomePageLoadFailed.Transient())
	assert.True(t, OutcomeDownloadFailed.Transient())
	assert.False(t, OutcomeElementNotFound.Transient())
	assert.False(t, OutcomeSuccess.Transient())
}
