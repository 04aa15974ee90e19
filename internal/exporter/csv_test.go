package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiomics/pkg/contracts/domain"
)

func sampleWide() *domain.Table {
	t := domain.NewTable("PatientID", "PatientName", "Baseline_Tumor_T2_SUVmax", "Baseline_Tumor_T2_Comment")
	t.AppendRow("007", "Zoë", "5.1", "needs, quoting")
	t.AppendRow("P2", "Bob", "", "")
	return t
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		opts    CSVOptions
		wantBOM bool
	}{
		{name: "plain", opts: CSVOptions{}, wantBOM: false},
		{name: "with BOM", opts: CSVOptions{BOMPrefix: true}, wantBOM: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, sampleWide(), tt.opts))

			data := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))

			records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM))).ReadAll()
			require.NoError(t, err)
			assert.Equal(t, [][]string{
				{"PatientID", "PatientName", "Baseline_Tumor_T2_SUVmax", "Baseline_Tumor_T2_Comment"},
				{"007", "Zoë", "5.1", "needs, quoting"},
				{"P2", "Bob", "", ""},
			}, records)
		})
	}
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, domain.NewTable("PatientID", "PatientName"), CSVOptions{}))
	assert.Equal(t, "PatientID,PatientName\n", buf.String())
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.csv")
	require.NoError(t, WriteCSVFile(path, sampleWide(), CSVOptions{BOMPrefix: true}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
	assert.Contains(t, string(data), `"needs, quoting"`)
}
