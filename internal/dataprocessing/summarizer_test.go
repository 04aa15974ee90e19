package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"radiomics/pkg/contracts/domain"
)

func TestNewSummarizer(t *testing.T) {
	s := NewSummarizer(nil, DefaultSummarizerConfig())
	require.NotNil(t, s)
	assert.NotNil(t, s.logger)
	assert.Equal(t, 50, s.config.MaxColumns)
}

func TestSummarize(t *testing.T) {
	table := domain.NewTable("PatientID", "PatientName", "Baseline_Tumor_T2_SUVmax", "Baseline_Tumor_T2_Note")
	table.AppendRow("P1", "Alice", "2", "ok")
	table.AppendRow("P2", "Bob", "4", "")
	table.AppendRow("P3", "Carl", "", "n/a")
	table.AppendRow("P4", "Dana", "9", "NaN")

	stats := NewSummarizer(nil, SummarizerConfig{}).Summarize(table)
	require.Len(t, stats, 2)

	suv := stats[0]
	assert.Equal(t, "Baseline_Tumor_T2_SUVmax", suv.Column)
	assert.Equal(t, 3, suv.Count)
	assert.Equal(t, 3, suv.Numeric)
	assert.Equal(t, 1, suv.Missing)
	assert.InDelta(t, 5.0, suv.Mean, 1e-9)
	assert.InDelta(t, 3.605551, suv.StdDev, 1e-6)
	assert.Equal(t, 2.0, suv.Min)
	assert.Equal(t, 9.0, suv.Max)

	note := stats[1]
	assert.Equal(t, 3, note.Count)
	assert.Equal(t, 0, note.Numeric)
	assert.Equal(t, 1, note.Missing)
	assert.Zero(t, note.Mean)
	assert.Zero(t, note.StdDev)
}

func TestSummarize_SingleValueHasZeroStdDev(t *testing.T) {
	table := domain.NewTable("PatientID", "Volume")
	table.AppendRow("P1", "12.5")

	stats := NewSummarizer(nil, SummarizerConfig{}).Summarize(table)
	require.Len(t, stats, 1)
	assert.Equal(t, 12.5, stats[0].Mean)
	assert.Zero(t, stats[0].StdDev)
	assert.Equal(t, 12.5, stats[0].Min)
	assert.Equal(t, 12.5, stats[0].Max)
}

func TestSummarize_Config(t *testing.T) {
	table := domain.NewTable("PatientID", "PatientName", "A", "B", "C")
	table.AppendRow("P1", "Alice", "1", "2", "3")

	t.Run("max columns", func(t *testing.T) {
		stats := NewSummarizer(nil, SummarizerConfig{MaxColumns: 2}).Summarize(table)
		require.Len(t, stats, 2)
		assert.Equal(t, "A", stats[0].Column)
		assert.Equal(t, "B", stats[1].Column)
	})

	t.Run("include key columns", func(t *testing.T) {
		stats := NewSummarizer(nil, SummarizerConfig{IncludeKeyColumns: true}).Summarize(table)
		require.Len(t, stats, 5)
		assert.Equal(t, "PatientID", stats[0].Column)
		assert.Equal(t, 1, stats[0].Count)
		assert.Equal(t, 0, stats[0].Numeric)
	})
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.5", 1.5, true},
		{"-3e2", -300, true},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1,5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseNumber(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
