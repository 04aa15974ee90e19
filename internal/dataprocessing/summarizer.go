package dataprocessing

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"radiomics/pkg/contracts/domain"
)

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	// MaxColumns caps how many columns are summarized; 0 means all.
	MaxColumns int
	// IncludeKeyColumns also summarizes PatientID and PatientName.
	IncludeKeyColumns bool
}

// DefaultSummarizerConfig returns the configuration used for previews.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{MaxColumns: 50}
}

// Summarizer computes per-column statistics used in transform previews.
type Summarizer struct {
	logger *slog.Logger
	config SummarizerConfig
}

// NewSummarizer creates a new column summarizer.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		logger: logger.With(slog.String("component", "summarizer")),
		config: config,
	}
}

// Summarize returns statistics for every column of t in column order.
// Non-numeric cells count towards Count but not Numeric. Mean, StdDev, Min
// and Max are zero when a column has no numeric cells; StdDev is zero for a
// single numeric cell.
func (s *Summarizer) Summarize(t *domain.Table) []domain.ColumnStats {
	var out []domain.ColumnStats
	for j, col := range t.Columns {
		if !s.config.IncludeKeyColumns && domain.IsKeyColumn(col) {
			continue
		}
		if s.config.MaxColumns > 0 && len(out) >= s.config.MaxColumns {
			s.logger.Debug("Column summary truncated",
				slog.Int("max_columns", s.config.MaxColumns),
				slog.Int("total_columns", len(t.Columns)))
			break
		}

		cs := domain.ColumnStats{Column: col}
		values := make([]float64, 0, len(t.Rows))
		for _, row := range t.Rows {
			var cell string
			if j < len(row) {
				cell = strings.TrimSpace(row[j])
			}
			if cell == "" {
				cs.Missing++
				continue
			}
			cs.Count++
			if v, ok := parseNumber(cell); ok {
				values = append(values, v)
			}
		}

		cs.Numeric = len(values)
		if len(values) > 0 {
			cs.Mean, cs.StdDev = stat.MeanStdDev(values, nil)
			if len(values) < 2 || math.IsNaN(cs.StdDev) {
				cs.StdDev = 0
			}
			cs.Min = floats.Min(values)
			cs.Max = floats.Max(values)
		}
		out = append(out, cs)
	}
	return out
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
