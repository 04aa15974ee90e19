package reshape

import (
	"slices"
	"sort"
	"strings"

	"radiomics/pkg/contracts/domain"
)

// Reshaper pivots long-format tables using a fixed Vocabulary.
// A Reshaper is immutable and safe for concurrent use.
type Reshaper struct {
	vocab      Vocabulary
	timepoints ranking
	objects    ranking
	series     ranking
}

var defaultReshaper = mustNew(DefaultVocabulary())

func mustNew(v Vocabulary) *Reshaper {
	r, err := New(v)
	if err != nil {
		panic(err)
	}
	return r
}

// New creates a Reshaper for the given vocabulary.
func New(vocab Vocabulary) (*Reshaper, error) {
	if err := vocab.Validate(); err != nil {
		return nil, err
	}
	return &Reshaper{
		vocab:      vocab,
		timepoints: newRanking(vocab.Timepoints),
		objects:    newRanking(vocab.Objects),
		series:     newRanking(vocab.Series),
	}, nil
}

// Vocabulary returns a copy of the vocabulary in use.
func (r *Reshaper) Vocabulary() Vocabulary {
	return Vocabulary{
		Timepoints: slices.Clone(r.vocab.Timepoints),
		Objects:    slices.Clone(r.vocab.Objects),
		Series:     slices.Clone(r.vocab.Series),
	}
}

// Transform reshapes in with the default vocabulary.
func Transform(in *domain.Table) (*domain.Table, error) {
	return defaultReshaper.Transform(in)
}

// Summary describes what a transform absorbed without failing.
type Summary struct {
	InputRows     int `json:"input_rows"`
	Patients      int `json:"patients"`
	MetricColumns int `json:"metric_columns"`
	// DuplicateKeys counts rows whose full five-part key repeats an earlier row.
	DuplicateKeys int `json:"duplicate_keys"`
	// OverwrittenCells counts output cells written more than once.
	OverwrittenCells int `json:"overwritten_cells"`
	// RenamedPatients lists PatientIDs seen under more than one PatientName.
	RenamedPatients []string `json:"renamed_patients,omitempty"`
	// UnknownLabels lists out-of-vocabulary labels per key column.
	UnknownLabels map[string][]string `json:"unknown_labels,omitempty"`
}

// Transform reshapes in and returns the wide table.
func (r *Reshaper) Transform(in *domain.Table) (*domain.Table, error) {
	out, _, err := r.TransformWithSummary(in)
	return out, err
}

type rowKey [5]string

// entry is one input row with its normalized key. row aliases the input
// row and is only read.
type entry struct {
	key rowKey
	row []string
}

// accumulator collects the output row of one PatientID.
type accumulator struct {
	id      string
	name    string
	renamed bool
	values  map[int]string
}

// TransformWithSummary reshapes in and reports absorbed anomalies.
func (r *Reshaper) TransformWithSummary(in *domain.Table) (*domain.Table, *Summary, error) {
	if in == nil {
		return nil, nil, &MalformedInputError{Reason: "nil table", Err: ErrEmptyTable}
	}

	keyIdx := make([]int, len(domain.KeyColumns))
	var missing []string
	for i, name := range domain.KeyColumns {
		keyIdx[i] = in.ColumnIndex(name)
		if keyIdx[i] < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &MissingColumnError{Columns: missing}
	}
	if len(in.Rows) == 0 {
		return nil, nil, &MalformedInputError{Err: ErrEmptyTable}
	}

	var metricIdx []int
	for j, name := range in.Columns {
		if !domain.IsKeyColumn(name) {
			metricIdx = append(metricIdx, j)
		}
	}

	entries := make([]entry, len(in.Rows))
	for i, row := range in.Rows {
		var k rowKey
		for level, j := range keyIdx {
			if j < len(row) {
				k[level] = Clean(row[j])
			}
		}
		entries[i] = entry{key: k, row: row}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		return r.compareKeys(entries[a].key, entries[b].key) < 0
	})

	summary := &Summary{InputRows: len(in.Rows)}
	unknown := map[string]map[string]bool{}

	var (
		accs     []*accumulator
		byID     = map[string]*accumulator{}
		columns  []string
		colIndex = map[string]int{}
	)
	for i, e := range entries {
		if i > 0 && entries[i-1].key == e.key {
			summary.DuplicateKeys++
		}
		r.noteUnknown(e.key, unknown)

		id, name := e.key[0], e.key[1]
		acc, ok := byID[id]
		if !ok {
			acc = &accumulator{id: id, name: name, values: map[int]string{}}
			byID[id] = acc
			accs = append(accs, acc)
		} else if acc.name != name {
			acc.renamed = true
		}
		acc.name = name

		prefix := e.key[2] + "_" + e.key[3] + "_" + e.key[4] + "_"
		for _, j := range metricIdx {
			col := prefix + in.Columns[j]
			ci, seen := colIndex[col]
			if !seen {
				ci = len(columns)
				colIndex[col] = ci
				columns = append(columns, col)
			}
			if _, set := acc.values[ci]; set {
				summary.OverwrittenCells++
			}
			var v string
			if j < len(e.row) {
				v = e.row[j]
			}
			acc.values[ci] = v
		}
	}

	out := domain.NewTable(append([]string{domain.ColumnPatientID, domain.ColumnPatientName}, columns...)...)
	for _, acc := range accs {
		row := make([]string, len(out.Columns))
		row[0] = acc.id
		row[1] = acc.name
		for ci, v := range acc.values {
			row[2+ci] = v
		}
		out.Rows = append(out.Rows, row)
		if acc.renamed {
			summary.RenamedPatients = append(summary.RenamedPatients, acc.id)
		}
	}

	summary.Patients = len(accs)
	summary.MetricColumns = len(columns)
	if len(unknown) > 0 {
		summary.UnknownLabels = make(map[string][]string, len(unknown))
		for col, set := range unknown {
			labels := make([]string, 0, len(set))
			for l := range set {
				labels = append(labels, l)
			}
			sort.Strings(labels)
			summary.UnknownLabels[col] = labels
		}
	}
	return out, summary, nil
}

func (r *Reshaper) compareKeys(a, b rowKey) int {
	if c := strings.Compare(a[0], b[0]); c != 0 {
		return c
	}
	if c := strings.Compare(a[1], b[1]); c != 0 {
		return c
	}
	if c := r.timepoints.compare(a[2], b[2]); c != 0 {
		return c
	}
	if c := r.objects.compare(a[3], b[3]); c != 0 {
		return c
	}
	return r.series.compare(a[4], b[4])
}

func (r *Reshaper) noteUnknown(k rowKey, into map[string]map[string]bool) {
	levels := []struct {
		column string
		rank   ranking
		label  string
	}{
		{domain.ColumnAcquisitionDate, r.timepoints, k[2]},
		{domain.ColumnObjectDescription, r.objects, k[3]},
		{domain.ColumnSeriesDataRole, r.series, k[4]},
	}
	for _, lvl := range levels {
		if lvl.rank.known(lvl.label) {
			continue
		}
		if into[lvl.column] == nil {
			into[lvl.column] = map[string]bool{}
		}
		into[lvl.column][lvl.label] = true
	}
}
