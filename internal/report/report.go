package report

import (
	"errors"
	"fmt"
	"io"

	"retail-pos/internal/model"

	"github.com/xuri/excelize/v2"
)

// Workbook layout.
const (
	SheetName = "Monthly Sales"
	FileName  = "sales_report.xlsx"
	DateStyle = "yyyy-mm-dd hh:mm"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrTooManyRows is returned when the ledger does not fit on one sheet.
var ErrTooManyRows = errors.New("too many sales records for one sheet")

// maxRecords leaves the first row for the header.
var maxRecords = excelize.TotalRows - 1

var closeFile = func(f *excelize.File) error { return f.Close() }

var header = []any{"Order ID", "Date", "Category", "Sales", "Profit"}

var columnWidths = map[string]float64{
	"A": 24,
	"B": 20,
	"C": 20,
	"D": 15,
	"E": 15,
}

// Build lays the records out one per row under a bold header.
func Build(records []model.SaleRecord) (_ *excelize.File, err error) {
	f := excelize.NewFile()
	defer func() {
		if err != nil {
			_ = closeFile(f)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, width := range columnWidths {
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	var bold, dates int
	bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	dateFormat := DateStyle
	dates, err = f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return nil, fmt.Errorf("create date style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	if len(records) > maxRecords {
		return nil, fmt.Errorf("%w: %d", ErrTooManyRows, len(records))
	}

	for i, rec := range records {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}

		values := []any{
			rec.OrderID,
			rec.OrderDate.UTC(),
			rec.Category,
			rec.Sales.InexactFloat64(),
			rec.Profit.InexactFloat64(),
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}

		dateCell, _ := excelize.CoordinatesToCellName(2, row)
		if err := f.SetCellStyle(SheetName, dateCell, dateCell, dates); err != nil {
			return nil, fmt.Errorf("style row %d: %w", row, err)
		}
	}

	return f, nil
}

// Write builds the workbook and streams it to w.
func Write(w io.Writer, records []model.SaleRecord) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
