// Package survey binds the mental-health survey columns to the statistical
// tests in package hypothesis.
package survey

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/hypothesis"
	"github.com/KaramelBytes/surveylens-cli/internal/sleep"
)

// Source columns.
const (
	ColGender            = "gender"
	ColAge               = "age"
	ColAcademicYear      = "academic_year"
	ColSportsEngagement  = "sports_engagement"
	ColAverageSleep      = "average_sleep"
	ColAcademicPressure  = "academic_pressure"
	ColFinancialConcerns = "financial_concerns"
	ColDepression        = "depression"
	ColStressRelief      = "stress_relief_activities"
)

// Derived columns.
const (
	ColSleepHours     = "average_sleep_hours"
	ColDepressionFlag = "depression_flag"
)

// DefaultDepressionThreshold is the depression score at or above which a
// respondent is flagged.
const DefaultDepressionThreshold = 3.0

// AddSleepHours derives average_sleep_hours from average_sleep. A malformed
// entry leaves the table unchanged and returns a *sleep.ParseError.
func AddSleepHours(t *dataset.Table) error {
	raw, err := t.Strings(ColAverageSleep)
	if err != nil {
		return err
	}
	hours, err := sleep.Normalize(raw)
	if err != nil {
		return fmt.Errorf("normalize %s: %w", ColAverageSleep, err)
	}
	return t.SetNumeric(ColSleepHours, hours)
}

// AddDepressionFlag derives depression_flag: 1 when depression >= threshold,
// 0 below it and NaN when depression is missing or not numeric. The returned
// coercion reports how many depression values were unusable.
func AddDepressionFlag(t *dataset.Table, threshold float64) (dataset.Coercion, error) {
	dep, err := t.Numeric(ColDepression)
	if err != nil {
		return dataset.Coercion{}, err
	}
	flags := make([]float64, len(dep.Values))
	for i, v := range dep.Values {
		switch {
		case math.IsNaN(v):
			flags[i] = math.NaN()
		case v >= threshold:
			flags[i] = 1
		}
	}
	return dep, t.SetNumeric(ColDepressionFlag, flags)
}

// AssociationTest cross-tabulates two categorical columns and runs a
// chi-square test of independence.
func AssociationTest(t *dataset.Table, rowCol, colCol string, alpha float64) (*hypothesis.ChiSquareResult, error) {
	a, err := t.Strings(rowCol)
	if err != nil {
		return nil, err
	}
	b, err := t.Strings(colCol)
	if err != nil {
		return nil, err
	}
	return hypothesis.ChiSquare(hypothesis.CrossTab(rowCol, a, colCol, b), alpha)
}

// CorrelationTest coerces two columns to numbers and computes Kendall's tau-b
// over the rows where both are present.
func CorrelationTest(t *dataset.Table, xCol, yCol string, alpha float64) (*hypothesis.KendallResult, error) {
	x, err := t.Numeric(xCol)
	if err != nil {
		return nil, err
	}
	y, err := t.Numeric(yCol)
	if err != nil {
		return nil, err
	}
	return hypothesis.Kendall(x.Column, x.Values, y.Column, y.Values, alpha)
}

// GroupDifferenceTest runs a one-way ANOVA of valueCol across the groups of
// groupCol. valueCol is usually a derived column and must already exist.
func GroupDifferenceTest(t *dataset.Table, valueCol, groupCol string, alpha float64) (*hypothesis.ANOVAResult, error) {
	v, err := t.Numeric(valueCol)
	if err != nil {
		return nil, err
	}
	g, err := t.Strings(groupCol)
	if err != nil {
		return nil, err
	}
	return hypothesis.OneWayANOVA(v.Column, v.Values, groupCol, g, alpha)
}

// LogisticRegression fits outcomeCol ~ predictors with listwise deletion.
// outcomeCol must hold 0/1 values, typically depression_flag.
func LogisticRegression(t *dataset.Table, outcomeCol string, predictors []string, alpha float64) (*hypothesis.LogitResult, error) {
	y, err := t.Numeric(outcomeCol)
	if err != nil {
		return nil, err
	}
	cols := make([][]float64, len(predictors))
	names := make([]string, len(predictors))
	for i, p := range predictors {
		c, err := t.Numeric(p)
		if err != nil {
			return nil, err
		}
		cols[i] = c.Values
		names[i] = c.Column
	}
	return hypothesis.Logit(y.Column, y.Values, names, cols, alpha)
}
