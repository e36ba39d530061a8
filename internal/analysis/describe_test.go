package analysis

import (
	"testing"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var surveyHeader = []string{"gender", "age", "academic_year", "depression", "stress_relief_activities", "comment"}

var surveyRecords = [][]string{
	{"Male", "20", "1st year", "3", "Online Entertainment, Sports", "tired of exams and deadlines all the time, honestly it never stops at all during the term"},
	{"Female", "21", "2nd year", "1", "Religious Activities", ""},
	{"Female", "19", "1st year", "5", "", ""},
	{"Male", "22", "3rd year", "2", "Sports,, Sports", ""},
	{"Female", "20", "1st year", "n/a", "Online Entertainment", ""},
	{"Male", "23", "4th year", "4", " , ", ""},
	{"Female", "21", "2nd year", "3", "Sports", ""},
	{"Female", "20", "1st year", "2", "Online Entertainment", ""},
	{"Male", "80", "2nd year", "3", "Sports", ""},
}

func surveyTable() *dataset.Table {
	return dataset.New("survey.csv", surveyHeader, surveyRecords, dataset.NumberFormat{})
}

func findCol(t *testing.T, s *Summary, name string) ColumnSummary {
	t.Helper()
	for _, c := range s.Cols {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "column not in summary", "%q", name)
	return ColumnSummary{}
}

func TestDescribeNumericAndCategorical(t *testing.T) {
	opt := DefaultOptions()
	opt.SampleRows = 3
	sum := Describe(surveyTable(), opt)
	assert.Equal(t, 9, sum.Rows)
	assert.Len(t, sum.Cols, 6)
	assert.Len(t, sum.Samples, 3)

	age := findCol(t, sum, "age")
	assert.Equal(t, dataset.KindNumeric, age.Kind)
	require.NotNil(t, age.Numeric)
	assert.Equal(t, 9, age.Numeric.Count)
	assert.Equal(t, 19.0, age.Numeric.Min)
	assert.Equal(t, 80.0, age.Numeric.Max)
	assert.Equal(t, 21.0, age.Numeric.Median)
	assert.Equal(t, 1, age.OutliersCount)

	dep := findCol(t, sum, "depression")
	assert.Equal(t, 1, dep.Invalid)
	require.NotNil(t, dep.Numeric)
	assert.Equal(t, 8, dep.Numeric.Count)
	assert.InDelta(t, (3.0+1+5+2+4+3+2+3)/8, dep.Numeric.Mean, 1e-12)

	gender := findCol(t, sum, "gender")
	assert.Equal(t, dataset.KindCategorical, gender.Kind)
	assert.Equal(t, 2, gender.Unique)
	require.NotEmpty(t, gender.TopValues)
	assert.Equal(t, CategoryCount{"Female", 5}, gender.TopValues[0])

	stress := findCol(t, sum, "stress_relief_activities")
	assert.Equal(t, 1, stress.Missing)
	comment := findCol(t, sum, "comment")
	assert.Equal(t, dataset.KindText, comment.Kind)
	assert.Len(t, comment.ExampleTexts, 1)
}

func TestSummarizeColumnWithoutCoercion(t *testing.T) {
	c, err := surveyTable().Column("age")
	require.NoError(t, err)
	s := summarizeColumn(c, nil, DefaultOptions())
	assert.Equal(t, dataset.KindNumeric, s.Kind)
	assert.Nil(t, s.Numeric)
	assert.Zero(t, s.OutliersCount)
	assert.Equal(t, 9, s.NonNull)
}

func TestDescribeMarkdownSections(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = "gender"
	opt.Correlations = true
	sum := Describe(surveyTable(), opt)
	md := sum.Markdown()
	for _, want := range []string{
		"[DATASET SUMMARY]",
		"File: survey.csv",
		"Rows: 9",
		"[SCHEMA]",
		"- age: numeric",
		"outliers: 1 above |z|>3.5",
		"top: Female(5), Male(4)",
		"[DESCRIBE]",
		"| depression | 8 |",
		"[GROUP-BY SUMMARY]",
		"gender=Female (n=5)",
		"[CORRELATIONS]",
		"age ~ depression",
		"[HEAD AND SAMPLE ROWS]",
		"[NOTES]",
		"depression: 1 non-numeric value(s) treated as missing",
	} {
		assert.Contains(t, md, want)
	}
}

func TestDescribeMaxRowsNote(t *testing.T) {
	tbl := surveyTable()
	tbl.SourceRows = 12
	md := Describe(tbl, DefaultOptions()).Markdown()
	assert.Contains(t, md, "Rows: ~12 (processed 9)")
	assert.Contains(t, md, "processed only 9/12 rows due to MaxRows")
}

func TestDescribeGroupByUnknownColumn(t *testing.T) {
	opt := DefaultOptions()
	opt.GroupBy = "faculty"
	sum := Describe(surveyTable(), opt)
	assert.Empty(t, sum.Groups)
	require.NotEmpty(t, sum.Warnings)
	assert.Contains(t, sum.Warnings[len(sum.Warnings)-1], "faculty")
}

func TestValueCounts(t *testing.T) {
	vc, err := ValueCounts(surveyTable(), "academic_year")
	require.NoError(t, err)
	assert.Equal(t, 9, vc.Total)
	assert.Equal(t, 0, vc.Missing)
	want := []CategoryCount{{"1st year", 4}, {"2nd year", 3}, {"3rd year", 1}, {"4th year", 1}}
	assert.Equal(t, want, vc.Values)
	assert.Contains(t, vc.Markdown(), "- 1st year: 4")

	_, err = ValueCounts(surveyTable(), "faculty")
	assert.Error(t, err)
}

func TestSplitCountsDropsBlanks(t *testing.T) {
	sc, err := SplitCounts(surveyTable(), "stress_relief_activities", "")
	require.NoError(t, err)
	// One blank cell and one cell made only of separators.
	assert.Equal(t, 2, sc.Missing)
	assert.Equal(t, 7, sc.Respondents)
	got := map[string]int{}
	for _, kv := range sc.Values {
		got[kv.Value] = kv.Count
	}
	assert.Equal(t, map[string]int{"Sports": 4, "Online Entertainment": 3, "Religious Activities": 1}, got)
	assert.Equal(t, "Sports", sc.Values[0].Value)
	assert.Contains(t, sc.Markdown(), "respondents: 7, blank: 2")
}
