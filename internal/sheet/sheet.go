// Package sheet reads and writes the Excel workbooks that drive a batch run.
//
// An input workbook must carry the columns "url", "材料名称" (material name)
// and "元素名称" (element name). Every other column is opaque payload: it is
// preserved verbatim in the output workbook, which additionally carries the
// result columns "执行时间", "执行结果" and "文件格式".
package sheet

import (
	"errors"
	"fmt"
)

// Required input columns.
const (
	ColumnURL      = "url"
	ColumnMaterial = "材料名称"
	ColumnElement  = "元素名称"
)

// Result columns appended (or overwritten) by the report writer.
const (
	ColumnExecTime = "执行时间"
	ColumnResult   = "执行结果"
	ColumnFileType = "文件格式"
)

// ErrMissingColumn reports an input workbook without one of the required
// columns. It fires before any browser work starts.
var ErrMissingColumn = errors.New("required column missing")

// ErrUnwritable reports an output path that cannot be created or saved.
var ErrUnwritable = errors.New("output path not writable")

// Case is one unit of batch work: a URL plus the two text locators used to
// find a table row and a download link within it. Identity is positional.
type Case struct {
	Index    int // zero-based position among the data rows
	URL      string
	Material string
	Element  string
}

/// Dataset is a parsed input workbook: the verbatim header and cell grid plus
// the typed cases extracted from the required columns.
type Dataset struct {
	Header []string
	Rows   [][]string
	Cases  []Case
}

// RowResult carries the values for the appended result columns of one row.
type RowResult struct {
	ExecutedAt string
	Result     string
	FileType   string
}

// columnIndex returns the position of name in header, or -1.
func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

// requireColumns resolves the three mandatory columns or fails with
// ErrMissingColumn naming every absent one.
func requireColumns(header []string) (urlCol, materialCol, elementCol int, err error) {
	urlCol = columnIndex(header, ColumnURL)
	materialCol = columnIndex(header, ColumnMaterial)
	elementCol = columnIndex(header, ColumnElement)

	var missing []string
	if urlCol < 0 {
		missing = append(missing, ColumnURL)
	}
	if materialCol < 0 {
		missing = append(missing, ColumnMaterial)
	}
	if elementCol < 0 {
		missing = append(missing, ColumnElement)
	}
	if len(missing) > 0 {
		return 0, 0, 0, fmt.Errorf("%w: %v", ErrMissingColumn, missing)
	}
	return urlCol, materialCol, elementCol, nil
}

// cell returns row[i] or "" when the row is shorter than the header.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
