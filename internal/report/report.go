// internal/report/report.go

// Package report turns row reports into the output workbook, the console
// summary, and a machine-readable download manifest.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/raylty/linkcheck-cli/internal/runner"
	"github.com/raylty/linkcheck-cli/internal/sheet"
)

const timestampLayout = "2006-01-02 15:04:05"

// Summary aggregates a finished run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Elapsed   time.Duration
}

// SuccessRate renders the ratio as a percentage, or "N/A" for an empty run.
func (s Summary) SuccessRate() string {
	if s.Total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", float64(s.Succeeded)/float64(s.Total)*100)
}

// Summarize folds the per-row reports into run totals.
func Summarize(reports []runner.RowReport, elapsed time.Duration) Summary {
	s := Summary{Total: len(reports), Elapsed: elapsed}
	for _, r := range reports {
		if r.Outcome.Success() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Write persists the result workbook: the original sheet content with the
// 执行时间, 执行结果 and 文件格式 columns filled per row.
func Write(path string, ds *sheet.Dataset, reports []runner.RowReport) error {
	results := make([]sheet.RowResult, len(reports))
	for i, r := range reports {
		results[i] = sheet.RowResult{
			ExecutedAt: r.ExecutedAt.Format(timestampLayout),
			Result:     r.ResultCell(),
			FileType:   r.FileType,
		}
	}
	return sheet.Write(path, ds, results)
}

// DefaultOutputPath derives the result workbook name from the input name,
// e.g. test_results_20250107_142500_batch.xlsx for batch.xlsx.
func DefaultOutputPath(inputPath string, at time.Time) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	name := fmt.Sprintf("test_results_%s_%s.xlsx", at.Format("20060102_150405"), stem)
	return filepath.Join(filepath.Dir(inputPath), name)
}

// Print writes the human-readable run summary, mirroring the workbook.
func Print(w io.Writer, s Summary, reports []runner.RowReport) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "测试完成")
	fmt.Fprintf(w, "总计: %d 行\n", s.Total)
	fmt.Fprintf(w, "成功: %d 行\n", s.Succeeded)
	fmt.Fprintf(w, "失败: %d 行\n", s.Failed)
	fmt.Fprintf(w, "成功率: %s\n", s.SuccessRate())
	fmt.Fprintf(w, "耗时: %s\n", s.Elapsed.Round(time.Second))

	if s.Failed > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "失败明细:")
		for _, r := range reports {
			if r.Outcome.Success() {
				continue
			}
			fmt.Fprintf(w, "  第%d行 [%s / %s]: %s\n",
				r.Case.Index+1, r.Case.Material, r.Case.Element, r.Detail)
		}
	}
	fmt.Fprintln(w, strings.Repeat("=", 50))
}
