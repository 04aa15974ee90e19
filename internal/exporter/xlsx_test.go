package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleWide(), XLSXOptions{}))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheetName}, f.GetSheetList())

	rows, err := f.GetRows(DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"PatientID", "PatientName", "Baseline_Tumor_T2_SUVmax", "Baseline_Tumor_T2_Comment"}, rows[0])
	assert.Equal(t, []string{"007", "Zoë", "5.1", "needs, quoting"}, rows[1])
	assert.Equal(t, []string{"P2", "Bob"}, rows[2])

	t.Run("header is bold", func(t *testing.T) {
		styleID, err := f.GetCellStyle(DefaultSheetName, "A1")
		require.NoError(t, err)
		style, err := f.GetStyle(styleID)
		require.NoError(t, err)
		require.NotNil(t, style.Font)
		assert.True(t, style.Font.Bold)
	})

	t.Run("header is frozen", func(t *testing.T) {
		panes, err := f.GetPanes(DefaultSheetName)
		require.NoError(t, err)
		assert.True(t, panes.Freeze)
		assert.Equal(t, 1, panes.YSplit)
	})

	t.Run("metric numbers are numeric cells", func(t *testing.T) {
		typ, err := f.GetCellType(DefaultSheetName, "C2")
		require.NoError(t, err)
		assert.Contains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, typ)
	})

	t.Run("identifiers stay text", func(t *testing.T) {
		typ, err := f.GetCellType(DefaultSheetName, "A2")
		require.NoError(t, err)
		assert.NotContains(t, []excelize.CellType{excelize.CellTypeUnset, excelize.CellTypeNumber}, typ)
	})
}

func TestWriteXLSX_CustomSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleWide(), XLSXOptions{SheetName: "Wide"}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Wide"}, f.GetSheetList())
}

func TestNumericCell(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"5.1", true},
		{"-0.25", true},
		{"0", true},
		{"0.5", true},
		{"1e-3", true},
		{"007", false},
		{"NaN", false},
		{"+Inf", false},
		{"12 mm", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, ok := numericCell(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
