package validation

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "radiomics/pkg/contracts/api/v1"
)

func TestNewUploadValidator_Defaults(t *testing.T) {
	v := NewUploadValidator(0, nil, nil)
	assert.Equal(t, DefaultMaxUploadBytes, v.MaxBytes())
	assert.True(t, v.extensions[".xlsx"])
	assert.True(t, v.extensions[".xls"])
	assert.False(t, v.extensions[".csv"])
}

func TestUploadValidator_Validate(t *testing.T) {
	v := NewUploadValidator(1024, nil, nil)

	tests := []struct {
		name      string
		req       api.UploadRequest
		wantIs    error
		wantField string
	}{
		{name: "valid xlsx", req: api.UploadRequest{Filename: "radiomics.xlsx", Size: 10}},
		{name: "valid xls uppercase", req: api.UploadRequest{Filename: "RADIOMICS.XLS", Size: 1024}},
		{name: "missing name", req: api.UploadRequest{Size: 10}, wantField: "filename"},
		{name: "empty file", req: api.UploadRequest{Filename: "a.xlsx"}, wantField: "size"},
		{name: "traversal", req: api.UploadRequest{Filename: "../a.xlsx", Size: 10}, wantField: "filename"},
		{name: "separator", req: api.UploadRequest{Filename: `dir\a.xlsx`, Size: 10}, wantField: "filename"},
		{name: "control char", req: api.UploadRequest{Filename: "a\x00.xlsx", Size: 10}, wantField: "filename"},
		{name: "too long", req: api.UploadRequest{Filename: strings.Repeat("a", 252) + ".xlsx", Size: 10}, wantField: "filename"},
		{name: "too large", req: api.UploadRequest{Filename: "a.xlsx", Size: 1025}, wantIs: ErrFileTooLarge},
		{name: "lock file", req: api.UploadRequest{Filename: "~$a.xlsx", Size: 10}, wantIs: ErrTemporaryFile},
		{name: "csv not accepted", req: api.UploadRequest{Filename: "a.csv", Size: 10}, wantIs: ErrUnsupportedType},
		{name: "no extension", req: api.UploadRequest{Filename: "a", Size: 10}, wantIs: ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			switch {
			case tt.wantIs != nil:
				assert.ErrorIs(t, err, tt.wantIs)
			case tt.wantField != "":
				var verr *Error
				require.True(t, errors.As(err, &verr), "got %v", err)
				require.NotEmpty(t, verr.Fields)
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
				assert.Contains(t, verr.Error(), tt.wantField)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestUploadValidator_ValidateContent(t *testing.T) {
	v := NewUploadValidator(0, nil, nil)

	tests := []struct {
		name     string
		filename string
		data     []byte
		wantErr  bool
	}{
		{"xlsx zip", "a.xlsx", append([]byte("PK\x03\x04"), make([]byte, 20)...), false},
		{"xls ole2", "a.xls", append(append([]byte{}, ole2Signature...), 0x00), false},
		{"xlsx with ole2 bytes", "a.xlsx", ole2Signature, true},
		{"xls with zip bytes", "a.xls", []byte("PK\x03\x04\x00\x00\x00\x00"), true},
		{"short content", "a.xlsx", []byte("PK"), true},
		{"empty content", "a.xls", nil, true},
		{"plain text renamed", "a.xlsx", []byte("PatientID,PatientName"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.data)
			err := v.ValidateContent(tt.filename, r)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrContentMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(len(tt.data)), int64(r.Len()), "reader is rewound")
		})
	}
}
