package domain

// ColumnStats holds descriptive statistics for one column of a table.
type ColumnStats struct {
	Column  string  `json:"column"`
	Count   int     `json:"count"`
	Numeric int     `json:"numeric"`
	Missing int     `json:"missing"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"std_dev"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}
