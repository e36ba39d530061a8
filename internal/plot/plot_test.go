package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/surveylens-cli/internal/analysis"
	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
)

func TestColumnsWritesOneChartPerColumn(t *testing.T) {
	header := []string{"gender", "age", "stress_relief_activities", "comment"}
	long := "a free text answer that is long enough to be treated as prose rather than a category"
	records := [][]string{
		{"Male", "20", "Sports, Online Entertainment", long},
		{"Female", "22", "Sports", ""},
		{"Female", "", "", ""},
		{"Male", "24", "Religious Activities", ""},
	}
	tbl := dataset.New("survey.csv", header, records, dataset.NumberFormat{})
	dir := filepath.Join(t.TempDir(), "plots")

	charts, err := Columns(tbl, dir, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, charts, 3)
	kinds := map[string]string{}
	for _, c := range charts {
		kinds[c.Column] = c.Kind
		info, err := os.Stat(c.Path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Equal(t, map[string]string{
		"gender":                   "bar",
		"age":                      "histogram",
		"stress_relief_activities": "breakdown",
	}, kinds)
}

func TestHistogramSkipsEmpty(t *testing.T) {
	ok, err := Histogram([]float64{}, "empty", filepath.Join(t.TempDir(), "e.png"), DefaultOptions())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFold(t *testing.T) {
	in := []analysis.CategoryCount{{Value: "a", Count: 5}, {Value: "b", Count: 4}, {Value: "c", Count: 2}, {Value: "d", Count: 1}}
	out := fold(in, 3)
	assert.Equal(t, []analysis.CategoryCount{{Value: "a", Count: 5}, {Value: "b", Count: 4}, {Value: "other", Count: 3}}, out)
	assert.Equal(t, in, fold(in, 0))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "average_sleep.png", FileName("Average Sleep"))
	assert.Equal(t, "cgpa.png", FileName(" CGPA "))
	assert.Equal(t, "column.png", FileName("???"))
}
