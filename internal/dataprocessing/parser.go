package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"radiomics/pkg/contracts/domain"
)

// DefaultSheetName is the worksheet radiomics exports write their data to.
const DefaultSheetName = "Feuil1"

// Format identifies an input file type by extension.
type Format string

const (
	FormatXLSX Format = ".xlsx"
	FormatXLS  Format = ".xls"
	FormatCSV  Format = ".csv"
)

var (
	// ErrUnsupportedFormat is returned for extensions without a reader.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrNoWorksheet is returned when a workbook has no readable sheet.
	ErrNoWorksheet = errors.New("workbook contains no worksheet")
	// ErrNoHeader is returned when every row of the sheet is blank.
	ErrNoHeader = errors.New("sheet has no header row")
	// ErrUnreadable is returned when the bytes cannot be parsed as the
	// detected format.
	ErrUnreadable = errors.New("unreadable spreadsheet")
)

// ReadOptions configures workbook reading.
type ReadOptions struct {
	// SheetName is the preferred worksheet. When it does not exist the first
	// worksheet is used.
	SheetName string
	Logger    *slog.Logger
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.SheetName == "" {
		o.SheetName = DefaultSheetName
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// DetectFormat maps a file name to its input format.
func DetectFormat(filename string) (Format, error) {
	switch f := Format(strings.ToLower(filepath.Ext(filename))); f {
	case FormatXLSX, FormatXLS, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ReadFile reads the spreadsheet at path into a table.
func ReadFile(path string, opts ReadOptions) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opts)
}

// Read parses r as the format implied by filename. The first non-blank row is
// the header; fully blank data rows are skipped.
func Read(r io.ReadSeeker, filename string, opts ReadOptions) (*domain.Table, error) {
	opts = opts.withDefaults()
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}

	var (
		rows  [][]string
		sheet string
	)
	switch format {
	case FormatXLSX:
		rows, sheet, err = readXLSX(r, opts)
	case FormatXLS:
		rows, sheet, err = readXLS(r, opts)
	case FormatCSV:
		rows, err = readCSV(r)
	}
	if err != nil {
		return nil, err
	}

	table, err := buildTable(rows)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("Sheet parsed",
		slog.String("format", string(format)),
		slog.String("sheet_name", sheet),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

func readXLSX(r io.Reader, opts ReadOptions) ([][]string, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to open workbook: %v", ErrUnreadable, err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), opts)
	if err != nil {
		return nil, "", err
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to read sheet %q: %v", ErrUnreadable, sheet, err)
	}
	return rows, sheet, nil
}

// maxXLSColumns is the BIFF8 column limit.
const maxXLSColumns = 256

func readXLS(r io.ReadSeeker, opts ReadOptions) (rows [][]string, name string, err error) {
	// The BIFF decoder indexes record payloads without bounds checks.
	defer func() {
		if p := recover(); p != nil {
			rows, name, err = nil, "", fmt.Errorf("%w: malformed workbook: %v", ErrUnreadable, p)
		}
	}()

	wb, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to open workbook: %v", ErrUnreadable, err)
	}
	if wb == nil {
		return nil, "", fmt.Errorf("%w: workbook stream not found", ErrUnreadable)
	}

	var (
		names  []string
		sheets = make(map[string]*xls.WorkSheet)
	)
	for i := 0; i < wb.NumSheets(); i++ {
		if s := wb.GetSheet(i); s != nil {
			if _, dup := sheets[s.Name]; !dup {
				names = append(names, s.Name)
				sheets[s.Name] = s
			}
		}
	}
	name, err = pickSheet(names, opts)
	if err != nil {
		return nil, "", err
	}

	ws := sheets[name]
	for i := 0; i <= int(ws.MaxRow); i++ {
		rows = append(rows, xlsRow(ws, i))
	}
	return rows, name, nil
}

// xlsRow returns the cells of row i, or nil when the sheet has no record for
// it. Rows built from cell records alone report no last column, so their width
// is found by scanning.
func xlsRow(ws *xls.WorkSheet, i int) []string {
	row := func() (row *xls.Row) {
		defer func() {
			if recover() != nil {
				row = nil
			}
		}()
		return ws.Row(i)
	}()
	if row == nil {
		return nil
	}

	width := row.LastCol()
	if width == 0 {
		width = maxXLSColumns
	}
	cells := make([]string, width)
	for j := row.FirstCol(); j < width; j++ {
		cells[j] = row.Col(j)
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse csv: %v", ErrUnreadable, err)
	}
	return rows, nil
}

// pickSheet returns the preferred sheet when present, else the first one.
func pickSheet(names []string, opts ReadOptions) (string, error) {
	if len(names) == 0 {
		return "", ErrNoWorksheet
	}
	for _, n := range names {
		if n == opts.SheetName {
			return n, nil
		}
	}
	opts.Logger.Warn("Preferred sheet not found, using first sheet",
		slog.String("preferred", opts.SheetName),
		slog.String("using", names[0]),
		slog.Any("available", names))
	return names[0], nil
}

// buildTable turns raw rows into a rectangular table. Header names are kept
// verbatim; blank header cells are named "Unnamed: N" and repeated names get a
// ".1", ".2" suffix.
func buildTable(rows [][]string) (*domain.Table, error) {
	start := -1
	width := 0
	for i, row := range rows {
		if start < 0 && !isBlank(row) {
			start = i
		}
		if start >= 0 && len(row) > width {
			width = len(row)
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	header := make([]string, width)
	copy(header, rows[start])
	seen := make(map[string]int, width)
	for j, h := range header {
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(j)
		}
		name := h
		if n, dup := seen[h]; dup {
			for {
				n++
				name = h + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[h] = n
		}
		seen[name] = 0
		header[j] = name
	}

	table := domain.NewTable(header...)
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		table.AppendRow(row...)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
