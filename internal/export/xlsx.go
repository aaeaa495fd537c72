// Package export serializes record views to spreadsheet blobs for the two
// download buttons.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

// SheetName is the single worksheet every export carries.
const SheetName = "Expenses"

// Download filenames are fixed per filter.
const (
	ReimbursedFilename  = "Reimbursed_Expenses.xlsx"
	OutOfPocketFilename = "OutOfPocket_Expenses.xlsx"
)

// ContentType is the MIME type for xlsx downloads.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{
	"Date", "Vendor", "Description", "Location", "Recovery Type",
	"Charged Amount", "Reimbursed Amount", "Invoice #", "CHQ REQ #",
	"Out of Pocket?",
}

// Records serializes the view to an xlsx workbook: one sheet named
// Expenses, a header row, one row per record.
func Records(records []core.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	if err := writeRow(f, 1, header); err != nil {
		return nil, err
	}
	for i, r := range records {
		oop := "No"
		if r.OutOfPocket {
			oop = "Yes"
		}
		row := []any{
			r.Date.String(), r.Vendor, r.Description, r.Location,
			r.RecoveryType, r.Charged.InexactFloat64(),
			r.Reimbursed.InexactFloat64(), r.Invoice, r.ChqReq, oop,
		}
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
