package analysis

import (
	"strings"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
)

// DefaultSeparator splits multi-valued answers such as stress_relief_activities.
const DefaultSeparator = ","

// Counts is the frequency table of one column.
type Counts struct {
	Column  string
	Values  []CategoryCount
	Missing int
	Total   int // non-blank cells
}

// ValueCounts tallies the distinct non-blank values of a column, most frequent first.
func ValueCounts(t *dataset.Table, col string) (*Counts, error) {
	cells, err := t.Strings(col)
	if err != nil {
		return nil, err
	}
	out := &Counts{Column: col}
	freq := map[string]int{}
	for _, v := range cells {
		if v == "" {
			out.Missing++
			continue
		}
		freq[v]++
		out.Total++
	}
	out.Values = topCounts(freq, 0)
	return out, nil
}

// SplitCount is the breakdown of a multi-valued column.
type SplitCount struct {
	Column string
	Values []CategoryCount
	// Respondents is the number of rows with at least one value.
	Respondents int
	// Missing is the number of blank rows, which are left out of the breakdown.
	Missing int
}

// SplitCounts splits every non-blank cell on sep and tallies the trimmed
// tokens. Blank cells are counted in Missing and empty tokens are ignored.
// A token is counted once per respondent.
func SplitCounts(t *dataset.Table, col, sep string) (*SplitCount, error) {
	cells, err := t.Strings(col)
	if err != nil {
		return nil, err
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	out := &SplitCount{Column: col}
	freq := map[string]int{}
	for _, cell := range cells {
		if cell == "" {
			out.Missing++
			continue
		}
		seen := map[string]bool{}
		for _, tok := range strings.Split(cell, sep) {
			tok = strings.TrimSpace(tok)
			if tok == "" || seen[tok] {
				continue
			}
			seen[tok] = true
			freq[tok]++
		}
		if len(seen) == 0 {
			out.Missing++
			continue
		}
		out.Respondents++
	}
	out.Values = topCounts(freq, 0)
	return out, nil
}
