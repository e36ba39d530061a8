// Package hypothesis implements the statistical tests used by the survey
// analysis: chi-square independence, Kendall's tau-b, one-way ANOVA and
// logistic regression. Every test returns a record embedding Result.
package hypothesis

import (
	"fmt"
	"math"
)

// DefaultAlpha is the significance level used when none is given.
const DefaultAlpha = 0.05

// Result is the common part of every test outcome.
type Result struct {
	Test           string  `json:"test"`
	Statistic      float64 `json:"statistic"`
	PValue         float64 `json:"p_value"`
	DF             *int    `json:"degrees_of_freedom,omitempty"` // nil when not applicable
	Alpha          float64 `json:"alpha"`
	Significant    bool    `json:"significant"`
	Interpretation string  `json:"interpretation"`
}

// HasDF reports whether the degrees of freedom apply to this test.
func (r Result) HasDF() bool { return r.DF != nil }

// Base returns the common fields. It is promoted to every result type.
func (r *Result) Base() *Result { return r }

func intPtr(v int) *int { return &v }

func normAlpha(alpha float64) float64 {
	if alpha <= 0 || alpha >= 1 {
		return DefaultAlpha
	}
	return alpha
}

// decide fills the significance fields. effect is the alternative-hypothesis
// wording ("an association between gender and sports_engagement").
func (r *Result) decide(effect string) {
	r.Alpha = normAlpha(r.Alpha)
	r.Significant = r.PValue < r.Alpha
	if r.Significant {
		r.Interpretation = fmt.Sprintf("Significant at %.2g: evidence of %s (p = %.4g).", r.Alpha, effect, r.PValue)
	} else {
		r.Interpretation = fmt.Sprintf("Not significant at %.2g: no evidence of %s (p = %.4g).", r.Alpha, effect, r.PValue)
	}
}

// clampP guards against rounding just outside [0, 1].
func clampP(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return p
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
