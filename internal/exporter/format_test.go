package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"XLSX", FormatXLSX, false},
		{".xlsx", FormatXLSX, false},
		{" csv ", FormatCSV, false},
		{"xls", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_Metadata(t *testing.T) {
	assert.Equal(t, ".csv", FormatCSV.Extension())
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX.ContentType())
	assert.Equal(t, "application/octet-stream", Format("pdf").ContentType())
}

func TestWrite_DispatchesByFormat(t *testing.T) {
	var csvBuf, xlsxBuf bytes.Buffer
	require.NoError(t, Write(&csvBuf, FormatCSV, sampleWide(), Options{}))
	require.NoError(t, Write(&xlsxBuf, FormatXLSX, sampleWide(), Options{}))

	assert.True(t, bytes.HasPrefix(csvBuf.Bytes(), []byte("PatientID,")))
	assert.True(t, bytes.HasPrefix(xlsxBuf.Bytes(), []byte("PK\x03\x04")))

	assert.Error(t, Write(&bytes.Buffer{}, Format("pdf"), sampleWide(), Options{}))
}
