package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"radiomics/pkg/contracts/domain"
)

// LongTable builds a long-format table with the five key columns followed by
// metrics. Each row lists the key values then one value per metric.
func LongTable(metrics []string, rows ...[]string) *domain.Table {
	cols := append(append([]string{}, domain.KeyColumns...), metrics...)
	t := domain.NewTable(cols...)
	for _, r := range rows {
		t.AppendRow(r...)
	}
	return t
}

// SampleLongTable is a two-patient study with one and two timepoints.
func SampleLongTable() *domain.Table {
	return LongTable([]string{"SUVmax", "Volume"},
		[]string{"P2", "Bob", "Baseline", "Tumor", "T2", "4.0", "10"},
		[]string{"P1", "Alice", "Mid-treatment", "Tumor", "T1", "2.5", "7"},
		[]string{"P1", "Alice", "Baseline", "Tumor", "T2", "5.1", "12"},
		[]string{"P1", "Alice", "Baseline", "Peritumoral", "SUB", "1.2", "30"},
	)
}

// WorkbookBytes renders t as an .xlsx workbook with a single sheet.
func WorkbookBytes(t testing.TB, sheet string, table *domain.Table) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}

	write := func(rowNum int, cells []string) {
		vals := make([]interface{}, len(cells))
		for i, c := range cells {
			vals[i] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			t.Fatalf("write row %d: %v", rowNum, err)
		}
	}
	write(1, table.Columns)
	for i, row := range table.Rows {
		write(i+2, row)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return buf.Bytes()
}

// WriteWorkbook saves WorkbookBytes under a temporary directory and returns
// the file path.
func WriteWorkbook(t testing.TB, name, sheet string, table *domain.Table) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, WorkbookBytes(t, sheet, table), 0644); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}
