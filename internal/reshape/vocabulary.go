package reshape

import (
	"cmp"
	"fmt"
	"strings"
)

// Vocabulary holds the ordered labels of the three ranked key levels.
type Vocabulary struct {
	Timepoints []string `json:"timepoints" yaml:"timepoints"`
	Objects    []string `json:"objects" yaml:"objects"`
	Series     []string `json:"series" yaml:"series"`
}

// DefaultVocabulary returns the standard radiomics study vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Timepoints: []string{"Baseline", "Mid-treatment", "Post-treatment"},
		Objects:    []string{"Tumor", "Peritumoral"},
		Series:     []string{"T2", "SUB", "T1"},
	}
}

// Validate checks that every level has at least one label and that labels are
// unique after normalization.
func (v Vocabulary) Validate() error {
	levels := []struct {
		name   string
		labels []string
	}{
		{"timepoints", v.Timepoints},
		{"objects", v.Objects},
		{"series", v.Series},
	}
	for _, lvl := range levels {
		if len(lvl.labels) == 0 {
			return fmt.Errorf("vocabulary %s: at least one label is required", lvl.name)
		}
		seen := make(map[string]bool, len(lvl.labels))
		for _, label := range lvl.labels {
			c := Clean(label)
			if c == "" {
				return fmt.Errorf("vocabulary %s: empty label", lvl.name)
			}
			if seen[c] {
				return fmt.Errorf("vocabulary %s: duplicate label %q", lvl.name, c)
			}
			seen[c] = true
		}
	}
	return nil
}

// ranking maps a normalized label to its position in a vocabulary level.
type ranking map[string]int

func newRanking(labels []string) ranking {
	r := make(ranking, len(labels))
	for i, label := range labels {
		r[Clean(label)] = i
	}
	return r
}

// known reports whether label is part of the vocabulary level.
func (r ranking) known(label string) bool {
	_, ok := r[label]
	return ok
}

// compare orders known labels by rank, then unknown labels lexicographically.
func (r ranking) compare(a, b string) int {
	ra, okA := r[a]
	rb, okB := r[b]
	switch {
	case okA && okB:
		return cmp.Compare(ra, rb)
	case okA:
		return -1
	case okB:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
