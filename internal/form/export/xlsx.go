package export

import (
	"NYCU-SDC/form-collector-backend/internal/form"
	"NYCU-SDC/form-collector-backend/internal/form/field"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Responses"

// WriteXLSX writes rows produced by ToTable into a single-sheet workbook.
// Cells of link-rendered fields become hyperlinks.
func WriteXLSX(w io.Writer, schema form.Schema, rows [][]string) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	fields := orderedFields(schema)
	links := make([]bool, len(fields)+1)
	for i, fd := range fields {
		links[i+1] = field.Describe(fd.Kind) == field.HintLink
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(SheetName, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
			if r > 0 && c < len(links) && links[c] && value != "" {
				if err := f.SetCellHyperLink(SheetName, cell, value, "External"); err != nil {
					return fmt.Errorf("link cell %s: %w", cell, err)
				}
			}
		}
	}

	if len(rows) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return err
		}
		if err := f.SetRowStyle(SheetName, 1, 1, style); err != nil {
			return err
		}
	}

	return f.Write(w)
}
