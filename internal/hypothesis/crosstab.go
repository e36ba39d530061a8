package hypothesis

import (
	"sort"
	"strings"
)

// Contingency is a cross-tabulation of joint frequency counts.
type Contingency struct {
	RowVar string      `json:"row_var"`
	ColVar string      `json:"col_var"`
	Rows   []string    `json:"rows"`
	Cols   []string    `json:"cols"`
	Counts [][]float64 `json:"counts"` // Counts[i][j] for Rows[i], Cols[j]
	// Skipped is the number of pairs where either value was blank.
	Skipped int `json:"skipped"`
}

// CrossTab counts joint occurrences of a[i] and b[i]. Pairs with a blank side
// are skipped. Labels are sorted so output is stable.
func CrossTab(rowVar string, a []string, colVar string, b []string) *Contingency {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	type key struct{ r, c string }
	counts := map[key]float64{}
	rowSet := map[string]struct{}{}
	colSet := map[string]struct{}{}
	ct := &Contingency{RowVar: rowVar, ColVar: colVar}
	for i := 0; i < n; i++ {
		r := strings.TrimSpace(a[i])
		c := strings.TrimSpace(b[i])
		if r == "" || c == "" {
			ct.Skipped++
			continue
		}
		counts[key{r, c}]++
		rowSet[r] = struct{}{}
		colSet[c] = struct{}{}
	}
	ct.Rows = sortedKeys(rowSet)
	ct.Cols = sortedKeys(colSet)
	ct.Counts = make([][]float64, len(ct.Rows))
	for i, r := range ct.Rows {
		ct.Counts[i] = make([]float64, len(ct.Cols))
		for j, c := range ct.Cols {
			ct.Counts[i][j] = counts[key{r, c}]
		}
	}
	return ct
}

// Total is the grand total of all cells.
func (ct *Contingency) Total() float64 {
	var s float64
	for _, row := range ct.Counts {
		for _, v := range row {
			s += v
		}
	}
	return s
}

func (ct *Contingency) margins() (rows, cols []float64) {
	rows = make([]float64, len(ct.Counts))
	if len(ct.Counts) > 0 {
		cols = make([]float64, len(ct.Counts[0]))
	}
	for i, row := range ct.Counts {
		for j, v := range row {
			rows[i] += v
			cols[j] += v
		}
	}
	return rows, cols
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
