package domain

// Key column names of a long-format radiomics sheet.
const (
	ColumnPatientID         = "PatientID"
	ColumnPatientName       = "PatientName"
	ColumnAcquisitionDate   = "AcquisitionDate"
	ColumnObjectDescription = "ObjectDescription"
	ColumnSeriesDataRole    = "SeriesDataRole"
)

// KeyColumns lists the grouping key columns in hierarchy order.
var KeyColumns = []string{
	ColumnPatientID,
	ColumnPatientName,
	ColumnAcquisitionDate,
	ColumnObjectDescription,
	ColumnSeriesDataRole,
}

// IsKeyColumn reports whether name is one of the grouping key columns.
func IsKeyColumn(name string) bool {
	for _, k := range KeyColumns {
		if k == name {
			return true
		}
	}
	return false
}

// Table is a rectangular sheet of text cells with named columns.
// Every row has exactly len(Columns) cells; an empty string is an empty cell.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTable creates an empty table with the given columns.
func NewTable(columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// AppendRow adds a row, padding or truncating it to the column count.
func (t *Table) AppendRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell returns the value at row i for the named column, or "" when the
// column does not exist.
func (t *Table) Cell(i int, column string) string {
	j := t.ColumnIndex(column)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Head returns a copy of the first n rows as a new table.
func (t *Table) Head(n int) *Table {
	out := NewTable(t.Columns...)
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	for i := 0; i < n; i++ {
		out.AppendRow(t.Rows[i]...)
	}
	return out
}
