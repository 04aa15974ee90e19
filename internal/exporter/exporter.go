package exporter

import (
	"fmt"
	"io"

	"radiomics/pkg/contracts/domain"
)

// Options groups the per-format writer options.
type Options struct {
	CSV  CSVOptions
	XLSX XLSXOptions
}

// Write serializes t to w in the given format.
func Write(w io.Writer, format Format, t *domain.Table, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t, opts.CSV)
	case FormatXLSX:
		return WriteXLSX(w, t, opts.XLSX)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
