// Package plot writes distribution charts of survey columns as PNG files.
package plot

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/surveylens-cli/internal/analysis"
	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
)

// Options controls chart size and content.
type Options struct {
	WidthCm  float64
	HeightCm float64
	// Bins is the histogram bin count.
	Bins int
	// TopN caps the bars of a categorical chart; the rest are folded into "other".
	TopN int
	// Split names multi-valued columns drawn as a per-token breakdown.
	Split     []string
	Separator string
}

// DefaultOptions returns 16x10 cm charts with 10 bins and the stress relief breakdown.
func DefaultOptions() Options {
	return Options{WidthCm: 16, HeightCm: 10, Bins: 10, TopN: 12, Split: []string{"stress_relief_activities"}, Separator: analysis.DefaultSeparator}
}

// Chart is one written image.
type Chart struct {
	Column string
	Kind   string // histogram|bar|breakdown
	Path   string
}

// Columns writes one chart per plottable column of t into dir. Numeric columns
// get a histogram, categorical columns a bar chart of value counts and split
// columns a horizontal breakdown. Text, datetime and empty columns are skipped.
func Columns(t *dataset.Table, dir string, opt Options) ([]Chart, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	split := map[string]bool{}
	for _, s := range opt.Split {
		split[strings.ToLower(s)] = true
	}
	var charts []Chart
	for _, c := range t.Columns() {
		path := filepath.Join(dir, FileName(c.Name))
		switch {
		case split[strings.ToLower(c.Name)]:
			sc, err := analysis.SplitCounts(t, c.Name, opt.Separator)
			if err != nil {
				return charts, err
			}
			if len(sc.Values) == 0 {
				continue
			}
			if err := Breakdown(sc, path, opt); err != nil {
				return charts, err
			}
			charts = append(charts, Chart{Column: c.Name, Kind: "breakdown", Path: path})
		case c.Kind == dataset.KindNumeric:
			co, err := t.Numeric(c.Name)
			if err != nil {
				return charts, err
			}
			ok, err := Histogram(co.Values, c.Name, path, opt)
			if err != nil {
				return charts, err
			}
			if ok {
				charts = append(charts, Chart{Column: c.Name, Kind: "histogram", Path: path})
			}
		case c.Kind == dataset.KindCategorical:
			vc, err := analysis.ValueCounts(t, c.Name)
			if err != nil {
				return charts, err
			}
			if len(vc.Values) == 0 {
				continue
			}
			if err := Bars(vc.Values, c.Name, "count", path, opt); err != nil {
				return charts, err
			}
			charts = append(charts, Chart{Column: c.Name, Kind: "bar", Path: path})
		}
	}
	return charts, nil
}

// Histogram draws the finite values. It reports false when there is nothing to draw.
func Histogram(values []float64, title, path string, opt Options) (bool, error) {
	var vs plotter.Values
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vs = append(vs, v)
		}
	}
	if len(vs) == 0 {
		return false, nil
	}
	bins := opt.Bins
	if bins <= 0 {
		bins = 10
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = title
	p.Y.Label.Text = "count"
	h, err := plotter.NewHist(vs, bins)
	if err != nil {
		return false, fmt.Errorf("histogram %s: %w", title, err)
	}
	p.Add(h)
	return true, save(p, path, opt)
}

// Bars draws a vertical bar chart of counts in the given order.
func Bars(counts []analysis.CategoryCount, title, yLabel, path string, opt Options) error {
	counts = fold(counts, opt.TopN)
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel
	vs, names := barValues(counts)
	w := barWidth(opt.WidthCm, len(counts))
	bars, err := plotter.NewBarChart(vs, w)
	if err != nil {
		return fmt.Errorf("bar chart %s: %w", title, err)
	}
	p.Add(bars)
	p.NominalX(names...)
	return save(p, path, opt)
}

// Breakdown draws a horizontal bar chart of a multi-valued column.
func Breakdown(sc *analysis.SplitCount, path string, opt Options) error {
	counts := fold(sc.Values, opt.TopN)
	// Largest bar on top.
	rev := make([]analysis.CategoryCount, len(counts))
	for i, c := range counts {
		rev[len(counts)-1-i] = c
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d respondents)", sc.Column, sc.Respondents)
	p.X.Label.Text = "respondents"
	vs, names := barValues(rev)
	bars, err := plotter.NewBarChart(vs, barWidth(opt.HeightCm, len(rev)))
	if err != nil {
		return fmt.Errorf("breakdown %s: %w", sc.Column, err)
	}
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(names...)
	return save(p, path, opt)
}

func barValues(counts []analysis.CategoryCount) (plotter.Values, []string) {
	vs := make(plotter.Values, len(counts))
	names := make([]string, len(counts))
	for i, c := range counts {
		vs[i] = float64(c.Count)
		names[i] = c.Value
	}
	return vs, names
}

// fold keeps the first n counts and sums the rest into "other".
func fold(counts []analysis.CategoryCount, n int) []analysis.CategoryCount {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	out := append([]analysis.CategoryCount(nil), counts[:n-1]...)
	other := analysis.CategoryCount{Value: "other"}
	for _, c := range counts[n-1:] {
		other.Count += c.Count
	}
	return append(out, other)
}

func barWidth(spanCm float64, n int) vg.Length {
	if n < 1 {
		n = 1
	}
	w := vg.Length(spanCm) * vg.Centimeter * 0.6 / vg.Length(n)
	if w < vg.Points(2) {
		w = vg.Points(2)
	}
	return w
}

func save(p *plot.Plot, path string, opt Options) error {
	w, h := opt.WidthCm, opt.HeightCm
	if w <= 0 {
		w = 16
	}
	if h <= 0 {
		h = 10
	}
	if err := p.Save(vg.Length(w)*vg.Centimeter, vg.Length(h)*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_-]+`)

// FileName maps a column name to a PNG file name.
func FileName(column string) string {
	s := unsafeName.ReplaceAllString(strings.ToLower(strings.TrimSpace(column)), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		s = "column"
	}
	return s + ".png"
}
