package hypothesis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const chiSquareTest = "chi-square test of independence"

// ChiSquareResult is the outcome of a chi-square test of independence.
type ChiSquareResult struct {
	Result
	Observed *Contingency `json:"observed"`
	Expected [][]float64  `json:"expected"`
	// Yates is true when the continuity correction was applied (2x2 tables).
	Yates    bool     `json:"yates"`
	Warnings []string `json:"warnings,omitempty"`
}

// ChiSquare tests independence of the two variables of a contingency table.
// Tables with fewer than two rows or columns, or with an empty expected cell,
// are rejected with a *DegenerateInputError. When more than 20% of expected
// counts fall below 5 the result carries a warning.
func ChiSquare(ct *Contingency, alpha float64) (*ChiSquareResult, error) {
	if ct == nil {
		return nil, degenerate(chiSquareTest, "no contingency table")
	}
	if len(ct.Rows) < 2 {
		return nil, degenerate(chiSquareTest, "%s has %d distinct categories, need at least 2", ct.RowVar, len(ct.Rows))
	}
	if len(ct.Cols) < 2 {
		return nil, degenerate(chiSquareTest, "%s has %d distinct categories, need at least 2", ct.ColVar, len(ct.Cols))
	}
	total := ct.Total()
	rowSums, colSums := ct.margins()

	r, c := len(ct.Rows), len(ct.Cols)
	dof := (r - 1) * (c - 1)
	expected := make([][]float64, r)
	obs := make([]float64, 0, r*c)
	exp := make([]float64, 0, r*c)
	small := 0
	yates := dof == 1
	for i := 0; i < r; i++ {
		expected[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			e := rowSums[i] * colSums[j] / total
			if e == 0 {
				return nil, degenerate(chiSquareTest, "expected count is zero for %s=%s, %s=%s", ct.RowVar, ct.Rows[i], ct.ColVar, ct.Cols[j])
			}
			expected[i][j] = e
			if e < 5 {
				small++
			}
			o := ct.Counts[i][j]
			if yates {
				// Move each observation half a unit toward its expectation.
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			obs = append(obs, o)
			exp = append(exp, e)
		}
	}

	res := &ChiSquareResult{Observed: ct, Expected: expected, Yates: yates}
	res.Test = chiSquareTest
	res.Statistic = stat.ChiSquare(obs, exp)
	res.DF = intPtr(dof)
	res.PValue = clampP(distuv.ChiSquared{K: float64(dof)}.Survival(res.Statistic))
	res.Alpha = alpha
	res.decide(fmt.Sprintf("an association between %s and %s", ct.RowVar, ct.ColVar))
	if frac := float64(small) / float64(r*c); frac > 0.2 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d of %d expected counts are below 5; the chi-square approximation may be unreliable", small, r*c))
	}
	return res, nil
}
