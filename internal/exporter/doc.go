// Package exporter serializes wide radiomics tables.
//
// Two formats are supported:
//
// CSV: written with encoding/csv, optionally prefixed with a UTF-8 BOM so
// Excel detects the encoding.
//
// XLSX: a single worksheet written with the excelize stream writer. The
// header row is bold and frozen and numeric metric cells are stored as
// numbers.
//
// Example usage:
//
//	var buf bytes.Buffer
//	err := exporter.Write(&buf, exporter.FormatXLSX, wide, exporter.Options{})
package exporter
