package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"

	"go-energy-dashboard/internal/model"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the worksheet name of XLSX downloads
const DefaultSheet = "data"

// WriteCSV writes table as CSV with a header row. Nulls are empty cells.
func WriteCSV(w io.Writer, table *model.Table) (int, error) {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.ColumnNames()); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	recordCount := 0
	for i := 0; i < table.NumRows(); i++ {
		if err := writer.Write(table.Row(i)); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return recordCount, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return recordCount, nil
}

// WriteXLSX writes table to a single-sheet workbook. Numeric cells are stored
// as numbers.
func WriteXLSX(w io.Writer, table *model.Table, sheet string) (int, error) {
	if sheet == "" {
		sheet = DefaultSheet
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return 0, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, 0, table.NumColumns())
	for _, name := range table.ColumnNames() {
		header = append(header, name)
	}
	if err := setRow(f, sheet, 1, header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	cols := table.Columns()
	recordCount := 0
	for i := 0; i < table.NumRows(); i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = c.Value(i)
		}
		if err := setRow(f, sheet, i+2, row); err != nil {
			return recordCount, fmt.Errorf("failed to write row: %w", err)
		}
		recordCount++
	}

	if err := f.Write(w); err != nil {
		return recordCount, fmt.Errorf("failed to write workbook: %w", err)
	}
	return recordCount, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
