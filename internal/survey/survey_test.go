package survey

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/hypothesis"
	"github.com/KaramelBytes/surveylens-cli/internal/sleep"
)

var header = []string{
	"gender", "academic_year", "sports_engagement", "average_sleep",
	"academic_pressure", "financial_concerns", "depression",
}

// fixture builds 40 respondents with depression rising with academic pressure.
func fixture() *dataset.Table {
	years := []string{"1st year", "2nd year", "3rd year", "4th year"}
	sleeps := []string{"2-4 hrs", "4-6 hrs", "7-8 hrs", "4-6 hrs"}
	var records [][]string
	for i := 0; i < 40; i++ {
		gender := "Male"
		sports := "No Sports"
		if i%2 == 0 {
			gender = "Female"
		}
		if i%3 == 0 {
			sports = "1-3 times"
		}
		pressure := i%5 + 1
		financial := (i*7)%5 + 1
		dep := pressure
		if i%4 == 0 && dep > 1 {
			dep--
		}
		if i%6 == 0 && dep < 5 {
			dep++
		}
		records = append(records, []string{
			gender, years[i%4], sports, sleeps[(i/4)%4],
			fmt.Sprint(pressure), fmt.Sprint(financial), fmt.Sprint(dep),
		})
	}
	records[3][6] = ""
	records[5][4] = "n/a"
	return dataset.New("survey.csv", header, records, dataset.NumberFormat{})
}

func TestAddSleepHours(t *testing.T) {
	tbl := dataset.New("s", []string{"average_sleep"}, [][]string{{"4-6 hrs"}, {""}, {"8 hrs"}}, dataset.NumberFormat{})
	require.NoError(t, AddSleepHours(tbl))
	c, err := tbl.Numeric(ColSleepHours)
	require.NoError(t, err)
	assert.Equal(t, 5.0, c.Values[0])
	assert.True(t, math.IsNaN(c.Values[1]))
	assert.Equal(t, 8.0, c.Values[2])
	assert.Equal(t, 1, c.Missing)

	bad := dataset.New("s", []string{"average_sleep"}, [][]string{{"4-6 hrs"}, {"lots"}}, dataset.NumberFormat{})
	err = AddSleepHours(bad)
	assert.ErrorIs(t, err, sleep.ErrParse)
	assert.False(t, bad.Has(ColSleepHours))
}

func TestDeriveLogsSleepHoursMissing(t *testing.T) {
	tbl := dataset.New("s", []string{"average_sleep"}, [][]string{{"4-6 hrs"}, {""}, {""}, {"8 hrs"}}, dataset.NumberFormat{})
	core, logs := observer.New(zap.DebugLevel)
	require.NoError(t, derive(tbl, ColSleepHours, DefaultOptions(), zap.New(core)))

	entries := logs.FilterMessage("derived column").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, ColSleepHours, fields["column"])
	assert.EqualValues(t, 2, fields["missing"])

	missing := dataset.New("s", []string{"gender"}, [][]string{{"Male"}}, dataset.NumberFormat{})
	var schema *dataset.MissingSchemaError
	assert.ErrorAs(t, derive(missing, ColSleepHours, DefaultOptions(), zap.New(core)), &schema)
}

func TestAddDepressionFlag(t *testing.T) {
	tbl := dataset.New("s", []string{"depression"}, [][]string{{"1"}, {"3"}, {"5"}, {""}, {"x"}, {"2"}}, dataset.NumberFormat{})
	dep, err := AddDepressionFlag(tbl, DefaultDepressionThreshold)
	require.NoError(t, err)
	assert.Equal(t, 1, dep.Missing)
	assert.Equal(t, 1, dep.Invalid)
	c, err := tbl.Numeric(ColDepressionFlag)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, c.Values[:3])
	assert.True(t, math.IsNaN(c.Values[3]))
	assert.True(t, math.IsNaN(c.Values[4]))
	assert.Equal(t, 0.0, c.Values[5])

	_, err = AddDepressionFlag(tbl, 2)
	require.NoError(t, err)
	c, _ = tbl.Numeric(ColDepressionFlag)
	assert.Equal(t, 1.0, c.Values[5])
}

func TestRoutinesOnFixture(t *testing.T) {
	tbl := fixture()

	chi, err := AssociationTest(tbl, ColGender, ColSportsEngagement, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []string{"Female", "Male"}, chi.Observed.Rows)
	assert.Equal(t, 40.0, chi.Observed.Total())

	tau, err := CorrelationTest(tbl, ColAcademicPressure, ColDepression, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 2, tau.Dropped)
	assert.Greater(t, tau.Tau, 0.5)
	assert.True(t, tau.Significant)

	_, err = GroupDifferenceTest(tbl, ColSleepHours, ColAcademicYear, 0.05)
	var mse *dataset.MissingSchemaError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, ColSleepHours, mse.Column)

	require.NoError(t, AddSleepHours(tbl))
	anova, err := GroupDifferenceTest(tbl, ColSleepHours, ColAcademicYear, 0.05)
	require.NoError(t, err)
	assert.Len(t, anova.Groups, 4)
}

func TestRunCollectsEachOutcome(t *testing.T) {
	tbl := fixture()
	plan := DefaultPlan(DefaultOptions())
	outcomes := Run(tbl, plan, zap.NewNop())
	require.Len(t, outcomes, 4)
	assert.Equal(t, []string{RoutineAssociation, RoutineCorrelation, RoutineANOVA, RoutineLogit}, plan.Names())
	for _, o := range outcomes {
		require.False(t, o.Failed(), "%s failed: %v", o.Routine, o.Err)
		require.NotNil(t, o.Result)
		assert.NotEmpty(t, o.Result.Base().Interpretation)
	}
	logit, ok := outcomes[3].Result.(*hypothesis.LogitResult)
	require.True(t, ok)
	c, ok := logit.Coefficient(ColAcademicPressure)
	require.True(t, ok)
	assert.Greater(t, c.Estimate, 0.0)
	assert.Equal(t, 0, Failures(outcomes))
}

func TestRunIsolatesFailures(t *testing.T) {
	tbl := fixture()
	// A malformed sleep entry breaks only the ANOVA.
	recs := [][]string{}
	for i := 0; i < tbl.Rows(); i++ {
		recs = append(recs, tbl.Row(i))
	}
	recs[0][3] = "sometimes"
	broken := dataset.New("broken.csv", header, recs, dataset.NumberFormat{})

	outcomes := Run(broken, DefaultPlan(DefaultOptions()), nil)
	require.Len(t, outcomes, 4)
	assert.False(t, outcomes[0].Failed())
	assert.False(t, outcomes[1].Failed())
	require.True(t, outcomes[2].Failed())
	assert.ErrorIs(t, outcomes[2].Err, sleep.ErrParse)
	assert.Contains(t, outcomes[2].Error, "average_sleep_hours")
	assert.False(t, outcomes[3].Failed())
	assert.Equal(t, 1, Failures(outcomes))
}

func TestRunReportsDegenerateInput(t *testing.T) {
	recs := [][]string{}
	for i := 0; i < 6; i++ {
		recs = append(recs, []string{"Male", "1st year", fmt.Sprint(i % 2), "4-6 hrs", "3", "2", "4"})
	}
	tbl := dataset.New("one.csv", header, recs, dataset.NumberFormat{})
	plan, err := DefaultPlan(DefaultOptions()).Select([]string{"association"})
	require.NoError(t, err)
	outcomes := Run(tbl, plan, nil)
	require.Len(t, outcomes, 1)
	assert.ErrorIs(t, outcomes[0].Err, hypothesis.ErrDegenerate)
	assert.Nil(t, outcomes[0].Result)
}

func TestPlanSelect(t *testing.T) {
	plan := DefaultPlan(DefaultOptions())
	sel, err := plan.Select([]string{"LOGIT", " association "})
	require.NoError(t, err)
	assert.Equal(t, []string{RoutineAssociation, RoutineLogit}, sel.Names())

	_, err = plan.Select([]string{"anova", "regression"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regression")

	same, err := plan.Select(nil)
	require.NoError(t, err)
	assert.Len(t, same.Routines, 4)
}
