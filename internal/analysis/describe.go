// Package analysis produces descriptive summaries of a survey table.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
)

// Options controls what Describe computes.
type Options struct {
	// SampleRows determines how many leading rows to include in the report.
	SampleRows int
	// TopValues caps the most frequent values listed per categorical column.
	TopValues int
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// GroupBy computes per-group means of numeric columns for the given column.
	GroupBy string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for a survey summary.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 8, Outliers: true, OutlierThreshold: 3.5}
}

// Summary is a markdown-friendly description of a table.
type Summary struct {
	Name       string
	Rows       int
	SourceRows int
	Header     []string
	Cols       []ColumnSummary
	Samples    [][]string
	Warnings   []string
	GroupBy    string
	Groups     []GroupResult
	Corr       *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    dataset.Kind
	Derived bool
	NonNull int
	Missing int
	// Invalid counts non-blank cells of a numeric column that did not parse.
	Invalid int
	Unique  int
	Numeric *NumStats
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

// NumStats mirrors the count/mean/std/min/quartiles/max block of a describe table.
type NumStats struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures numeric means per group key.
type GroupResult struct {
	Key     string
	Size    int
	Metrics map[string]NumSummary // by column name
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Describe summarizes every column of t.
func Describe(t *dataset.Table, opt Options) *Summary {
	sum := &Summary{Name: t.Name, Rows: t.Rows(), SourceRows: t.SourceRows, Header: t.Names(), GroupBy: opt.GroupBy}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	sum.Samples = t.Head(sampleRows)

	numeric := map[string][]float64{}
	var numCols []string
	for _, c := range t.Columns() {
		var co *dataset.Coercion
		if c.Kind == dataset.KindNumeric {
			v, err := t.Numeric(c.Name)
			if err != nil {
				sum.Warnings = append(sum.Warnings, fmt.Sprintf("%s: numeric summary skipped: %v", c.Name, err))
			} else {
				co = &v
				numeric[c.Name] = v.Values
				numCols = append(numCols, c.Name)
			}
		}
		sum.Cols = append(sum.Cols, summarizeColumn(c, co, opt))
	}

	if sum.SourceRows > sum.Rows {
		sum.Warnings = append(sum.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", sum.Rows, sum.SourceRows))
	}
	for _, c := range sum.Cols {
		if c.Invalid > 0 {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("%s: %d non-numeric value(s) treated as missing", c.Name, c.Invalid))
		}
	}
	if opt.GroupBy != "" {
		groups, err := groupMeans(t, opt.GroupBy, numCols, numeric)
		if err != nil {
			sum.Warnings = append(sum.Warnings, fmt.Sprintf("group-by skipped: %v", err))
		}
		sum.Groups = groups
	}
	if opt.Correlations && len(numCols) >= 2 {
		sum.Corr = correlations(numCols, numeric)
	}
	return sum
}

// summarizeColumn builds the per-column entry. co is the column's numeric
// coercion, nil when the column is not numeric or could not be coerced.
func summarizeColumn(c *dataset.Column, co *dataset.Coercion, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: c.Kind, Derived: c.Derived}
	cells := c.Cells()
	cats := map[string]int{}
	for _, v := range cells {
		if v == "" {
			s.Missing++
			continue
		}
		s.NonNull++
		cats[v]++
		if c.Kind == dataset.KindText && len(s.ExampleTexts) < 3 {
			s.ExampleTexts = append(s.ExampleTexts, v)
		}
	}
	s.Unique = len(cats)

	switch c.Kind {
	case dataset.KindNumeric:
		if co == nil {
			break
		}
		s.Invalid = co.Invalid
		xs := finite(co.Values)
		if len(xs) == 0 {
			break
		}
		s.Numeric = numStats(xs)
		if opt.Outliers && len(xs) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(xs, thr)
			s.OutlierThreshold = thr
		}
	case dataset.KindCategorical:
		s.TopValues = topCounts(cats, opt.TopValues)
	}
	return s
}

func numStats(xs []float64) *NumStats {
	sample := stats.Sample{Xs: xs}
	sample.Sort()
	lo, hi := sample.Bounds()
	return &NumStats{
		Count:  len(xs),
		Mean:   sample.Mean(),
		Std:    sample.StdDev(),
		Min:    lo,
		Q1:     sample.Quantile(0.25),
		Median: sample.Quantile(0.5),
		Q3:     sample.Quantile(0.75),
		Max:    hi,
	}
}

// robustOutliers counts values whose modified Z-score exceeds thr.
func robustOutliers(xs []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(xs)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range xs {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	median = stats.Sample{Xs: vals}.Quantile(0.5)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	mad = stats.Sample{Xs: dev}.Quantile(0.5)
	return
}

func topCounts(cats map[string]int, limit int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sortCounts(tops)
	if limit > 0 && len(tops) > limit {
		tops = tops[:limit]
	}
	return tops
}

// sortCounts orders by count descending, then value.
func sortCounts(cs []CategoryCount) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Count == cs[j].Count {
			return cs[i].Value < cs[j].Value
		}
		return cs[i].Count > cs[j].Count
	})
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func groupMeans(t *dataset.Table, by string, numCols []string, numeric map[string][]float64) ([]GroupResult, error) {
	keys, err := t.Strings(by)
	if err != nil {
		return nil, err
	}
	groups := map[string]*GroupResult{}
	for i, k := range keys {
		if k == "" {
			continue
		}
		g := groups[k]
		if g == nil {
			g = &GroupResult{Key: fmt.Sprintf("%s=%s", by, safeVal(k)), Metrics: map[string]NumSummary{}}
			groups[k] = g
		}
		g.Size++
		for _, name := range numCols {
			if strings.EqualFold(name, by) {
				continue
			}
			x := numeric[name][i]
			if math.IsNaN(x) {
				continue
			}
			m, ok := g.Metrics[name]
			if !ok {
				m = NumSummary{Min: x, Max: x}
			}
			m.Mean = (m.Mean*float64(m.Count) + x) / float64(m.Count+1)
			m.Count++
			m.Min = math.Min(m.Min, x)
			m.Max = math.Max(m.Max, x)
			g.Metrics[name] = m
		}
	}
	out := make([]GroupResult, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, nil
}

// correlations computes pairwise-complete Pearson correlations.
func correlations(cols []string, numeric map[string][]float64) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: cols, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			xa, xb := numeric[cols[a]], numeric[cols[b]]
			var xs, ys []float64
			for i := range xa {
				if math.IsNaN(xa[i]) || math.IsNaN(xb[i]) {
					continue
				}
				xs = append(xs, xa[i])
				ys = append(ys, xb[i])
			}
			var r float64
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
			}
			if math.IsNaN(r) || math.IsInf(r, 0) {
				r = 0
			}
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}
