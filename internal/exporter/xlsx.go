package exporter

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/xuri/excelize/v2"

	"radiomics/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet written by WriteXLSX.
const DefaultSheetName = "Sheet1"

// XLSXOptions configures workbook writing.
type XLSXOptions struct {
	SheetName string
}

// WriteXLSX writes t as a single-sheet workbook. The header row is bold and
// frozen. Metric cells that parse as finite numbers are stored as numbers;
// PatientID and PatientName always stay text.
func WriteXLSX(w io.Writer, t *domain.Table, opts XLSXOptions) error {
	sheet := opts.SheetName
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()
	if first := f.GetSheetName(0); first != sheet {
		if err := f.SetSheetName(first, sheet); err != nil {
			return fmt.Errorf("failed to name sheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	textCol := make([]bool, len(t.Columns))
	for j, name := range t.Columns {
		header[j] = excelize.Cell{StyleID: bold, Value: name}
		textCol[j] = domain.IsKeyColumn(name)
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(t.Columns))
		for j := range cells {
			if j >= len(row) || row[j] == "" {
				continue
			}
			if v, ok := numericCell(row[j]); ok && !textCol[j] {
				cells[j] = v
			} else {
				cells[j] = row[j]
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// numericCell reports whether s should be stored as a number. Values with a
// leading zero such as "007" are identifiers and stay text.
func numericCell(s string) (float64, bool) {
	if len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9' {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
