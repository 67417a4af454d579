package sheet

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Load parses the first sheet of the workbook at path into a Dataset.
//
// The file must exist and carry the required columns; cells are coerced to
// strings as-is. A workbook with headers but no data rows loads successfully
// with zero cases.
func Load(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("input workbook %s has no sheets", path)
	}

	grid, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: workbook %s is empty", ErrMissingColumn, path)
	}

	header := grid[0]
	urlCol, materialCol, elementCol, err := requireColumns(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Header: header}
	for i, row := range grid[1:] {
		ds.Rows = append(ds.Rows, row)
		ds.Cases = append(ds.Cases, Case{
			Index:    i,
			URL:      cell(row, urlCol),
			Material: cell(row, materialCol),
			Element:  cell(row, elementCol),
		})
	}
	return ds, nil
}
