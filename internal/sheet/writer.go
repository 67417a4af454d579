package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Write saves the dataset plus one RowResult per data row to an output
// workbook at path. Original columns keep their positions and values; the
// result columns overwrite pre-existing ones of the same name or are appended
// to the right of the header.
func Write(path string, ds *Dataset, results []RowResult) error {
	if len(results) != len(ds.Rows) {
		return fmt.Errorf("result count %d does not match row count %d", len(results), len(ds.Rows))
	}

	header := append([]string(nil), ds.Header...)
	timeCol := columnIndex(header, ColumnExecTime)
	if timeCol < 0 {
		timeCol = len(header)
		header = append(header, ColumnExecTime)
	}
	resultCol := columnIndex(header, ColumnResult)
	if resultCol < 0 {
		resultCol = len(header)
		header = append(header, ColumnResult)
	}
	typeCol := columnIndex(header, ColumnFileType)
	if typeCol < 0 {
		typeCol = len(header)
		header = append(header, ColumnFileType)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheetName := f.GetSheetName(0)

	if err := setRow(f, sheetName, 1, header); err != nil {
		return err
	}

	for i, row := range ds.Rows {
		out := make([]string, len(header))
		for j := range header {
			out[j] = cell(row, j)
		}
		out[timeCol] = results[i].ExecutedAt
		out[resultCol] = results[i].Result
		out[typeCol] = results[i].FileType

		if err := setRow(f, sheetName, i+2, out); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnwritable, path, err)
	}
	return nil
}

func setRow(f *excelize.File, sheetName string, rowNum int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", rowNum, err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheetName, cellName, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
