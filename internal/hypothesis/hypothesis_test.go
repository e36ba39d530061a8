package hypothesis

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func table(counts [][]float64) *Contingency {
	ct := &Contingency{RowVar: "a", ColVar: "b", Counts: counts}
	for i := range counts {
		ct.Rows = append(ct.Rows, string(rune('A'+i)))
	}
	for j := range counts[0] {
		ct.Cols = append(ct.Cols, string(rune('x'+j)))
	}
	return ct
}

func TestCrossTabSkipsBlanksAndSortsLabels(t *testing.T) {
	ct := CrossTab("gender", []string{"Male", "Female", "", "Male", "Female"}, "sports", []string{"1-3 times", "No Sports", "4-6 times", " ", "1-3 times"})
	assert.Equal(t, []string{"Female", "Male"}, ct.Rows)
	assert.Equal(t, []string{"1-3 times", "No Sports"}, ct.Cols)
	assert.Equal(t, [][]float64{{1, 1}, {1, 0}}, ct.Counts)
	assert.Equal(t, 2, ct.Skipped)
	assert.Equal(t, 3.0, ct.Total())
}

func TestChiSquareUniformTableNotSignificant(t *testing.T) {
	res, err := ChiSquare(table([][]float64{{10, 10}, {10, 10}}), 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Statistic, 1e-12)
	assert.InDelta(t, 1, res.PValue, 1e-9)
	assert.False(t, res.Significant)
	assert.True(t, res.Yates)
	require.True(t, res.HasDF())
	assert.Equal(t, 1, *res.DF)
	assert.Contains(t, res.Interpretation, "Not significant")
}

func TestChiSquareYatesKnownValue(t *testing.T) {
	res, err := ChiSquare(table([][]float64{{10, 20}, {30, 40}}), 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.446429, res.Statistic, 1e-5)
	assert.InDelta(t, 0.5040, res.PValue, 1e-3)
	assert.InDelta(t, 12, res.Expected[0][0], 1e-12)
	assert.Empty(t, res.Warnings)
}

func TestChiSquareLargerTableNoCorrection(t *testing.T) {
	res, err := ChiSquare(table([][]float64{{30, 5, 5}, {5, 30, 5}, {5, 5, 30}}), 0.05)
	require.NoError(t, err)
	assert.False(t, res.Yates)
	assert.Equal(t, 4, *res.DF)
	assert.True(t, res.Significant)
	assert.Less(t, res.PValue, 1e-6)
}

func TestChiSquareSmallExpectedWarns(t *testing.T) {
	res, err := ChiSquare(table([][]float64{{3, 1}, {1, 3}}), 0.05)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "below 5")
}

func TestChiSquareDegenerate(t *testing.T) {
	single := CrossTab("gender", []string{"Male", "Male", "Male"}, "sports", []string{"Yes", "No", "Yes"})
	_, err := ChiSquare(single, 0.05)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))
	var de *DegenerateInputError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Reason, "gender")

	_, err = ChiSquare(table([][]float64{{0, 0}, {4, 5}}), 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestKendallConcordant(t *testing.T) {
	x := []float64{1, 2, 3, 4}
	res, err := Kendall("x", x, "y", x, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 1, res.Tau, 1e-12)
	assert.Equal(t, "exact", res.Method)
	// 2/4! is the smallest p-value four observations can give.
	assert.InDelta(t, 2.0/24, res.PValue, 1e-12)
	assert.False(t, res.HasDF())

	rev := []float64{4, 3, 2, 1}
	res, err = Kendall("x", x, "y", rev, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, -1, res.Tau, 1e-12)
	assert.InDelta(t, stat.Kendall(x, rev, nil), res.Tau, 1e-12)

	long := make([]float64, 12)
	for i := range long {
		long[i] = float64(i)
	}
	res, err = Kendall("x", long, "y", long, 0.05)
	require.NoError(t, err)
	assert.Less(t, res.PValue, 1e-6)
	assert.True(t, res.Significant)
}

func TestKendallExactKnownValue(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3, 4, 1, 2, 5}
	res, err := Kendall("x", x, "y", y, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, res.Tau, 1e-12)
	assert.InDelta(t, stat.Kendall(x, y, nil), res.Tau, 1e-12)
	assert.InDelta(t, 49.0/60, res.PValue, 1e-12)
}

func TestKendallExactLargeConcordant(t *testing.T) {
	const n = 1000
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
		y[i] = float64(10 * i)
	}
	start := time.Now()
	res, err := Kendall("x", x, "y", y, 0.05)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "exact", res.Method)
	assert.InDelta(t, 1, res.Tau, 1e-12)
	assert.Less(t, res.PValue, 1e-12)
	assert.True(t, res.Significant)
}

func TestKendallExactMatchesPermutationCount(t *testing.T) {
	// Inversion counts over all 6! permutations of 0..5.
	const n = 6
	counts := make([]int, n*(n-1)/2+1)
	perm := []int{0, 1, 2, 3, 4, 5}
	var walk func(k int)
	walk = func(k int) {
		if k == n {
			inv := 0
			for i := 0; i < n; i++ {
				for j := i + 1; j < n; j++ {
					if perm[i] > perm[j] {
						inv++
					}
				}
			}
			counts[inv]++
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			walk(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	walk(0)
	cum := 0
	for c := 0; c <= 7; c++ {
		cum += counts[c]
		want := math.Min(1, 2*float64(cum)/720)
		assert.InDelta(t, want, kendallExactP(n, c), 1e-12, "c=%d", c)
	}
}

func TestKendallTiesAndMissing(t *testing.T) {
	nan := math.NaN()
	x := []float64{1, 1, 2, 2, 3, 3, nan, 4}
	y := []float64{1, 2, 1, 3, 2, 3, 5, nan}
	res, err := Kendall("pressure", x, "depression", y, 0.05)
	require.NoError(t, err)
	assert.Equal(t, 6, res.N)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, "asymptotic", res.Method)
	assert.True(t, res.Tau > 0 && res.Tau <= 1)
	assert.True(t, res.PValue > 0 && res.PValue <= 1)
}

func TestKendallDegenerate(t *testing.T) {
	_, err := Kendall("x", []float64{2, 2, 2}, "y", []float64{1, 2, 3}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = Kendall("x", []float64{1, math.NaN()}, "y", []float64{1, 2}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestOneWayANOVA(t *testing.T) {
	labels := []string{"1st", "1st", "1st", "2nd", "2nd", "2nd"}

	res, err := OneWayANOVA("sleep", []float64{1, 2, 3, 1, 2, 3}, "year", labels, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Statistic, 1e-12)
	assert.Greater(t, res.PValue, 0.05)
	assert.False(t, res.Significant)

	res, err = OneWayANOVA("sleep", []float64{1, 2, 3, 10, 11, 12}, "year", labels, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 121.5, res.Statistic, 1e-9)
	assert.Equal(t, 1, res.DFBetween)
	assert.Equal(t, 4, res.DFWithin)
	assert.Less(t, res.PValue, 0.05)
	assert.True(t, res.Significant)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, "1st", res.Groups[0].Label)
	assert.InDelta(t, 11, res.Groups[1].Mean, 1e-12)
	assert.InDelta(t, 1, res.Groups[1].SD, 1e-12)
}

func TestOneWayANOVAExcludesSmallGroups(t *testing.T) {
	nan := math.NaN()
	values := []float64{5, 6, 7, 5, 6, 8, 9, nan, 4}
	labels := []string{"1st", "1st", "1st", "2nd", "2nd", "2nd", "5th", "3rd", ""}
	res, err := OneWayANOVA("sleep", values, "year", labels, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []string{"5th"}, res.Excluded)
	assert.Equal(t, 6, res.N)
	assert.Equal(t, 3, res.Dropped)
	assert.Len(t, res.Groups, 2)
}

func TestOneWayANOVADegenerate(t *testing.T) {
	_, err := OneWayANOVA("sleep", []float64{1, 2, 3}, "year", []string{"a", "a", "a"}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)
	_, err = OneWayANOVA("sleep", []float64{1, 1, 2, 2}, "year", []string{"a", "a", "b", "b"}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestLogitBinaryPredictorClosedForm(t *testing.T) {
	var x, y []float64
	for i := 0; i < 10; i++ {
		x = append(x, 0)
		y = append(y, boolFloat(i < 3))
	}
	for i := 0; i < 10; i++ {
		x = append(x, 1)
		y = append(y, boolFloat(i < 7))
	}
	res, err := Logit("flag", y, []string{"x"}, [][]float64{x}, 0.05)
	require.NoError(t, err)
	c0, ok := res.Coefficient("const")
	require.True(t, ok)
	c1, ok := res.Coefficient("x")
	require.True(t, ok)
	assert.InDelta(t, math.Log(3.0/7), c0.Estimate, 1e-6)
	assert.InDelta(t, 2*math.Log(7.0/3), c1.Estimate, 1e-6)
	assert.InDelta(t, math.Sqrt(2.0/3+2.0/7), c1.StdErr, 1e-6)
	assert.InDelta(t, 20*math.Log(0.5), res.NullLogLik, 1e-9)
	assert.InDelta(t, 20*(0.3*math.Log(0.3)+0.7*math.Log(0.7)), res.LogLikelihood, 1e-6)
	assert.InDelta(t, 1-res.LogLikelihood/res.NullLogLik, res.PseudoR2, 1e-12)
	assert.InDelta(t, -2*res.LogLikelihood+4, res.AIC, 1e-9)
	assert.Equal(t, 1, res.DFModel)
	assert.Equal(t, 18, res.DFResidual)
	assert.Less(t, c1.CILow, c1.Estimate)
	assert.Greater(t, c1.CIHigh, c1.Estimate)
}

func TestLogitStrongRelationship(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 400
	y := make([]float64, n)
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = float64(rng.Intn(5) + 1)
		x2[i] = float64(rng.Intn(5) + 1)
		p := 1 / (1 + math.Exp(-(-4 + 1.2*x1[i] + 0*x2[i])))
		y[i] = boolFloat(rng.Float64() < p)
	}
	x1[0] = math.NaN()
	res, err := Logit("depression_flag", y, []string{"academic_pressure", "financial_concerns"}, [][]float64{x1, x2}, 0.05)
	require.NoError(t, err)
	assert.Equal(t, n-1, res.N)
	assert.Equal(t, 1, res.Dropped)
	assert.LessOrEqual(t, res.Iterations, 35)
	c, ok := res.Coefficient("academic_pressure")
	require.True(t, ok)
	assert.Greater(t, c.Estimate, 0.0)
	assert.Less(t, c.PValue, 0.001)
	assert.True(t, res.Significant)
	assert.Len(t, res.Coefficients, 3)
}

func TestLogitFailures(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5, 6}

	_, err := Logit("flag", []float64{0, 0, 0, 1, 1, 1}, []string{"x"}, [][]float64{x}, 0.05)
	require.Error(t, err)
	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce))
	assert.ErrorIs(t, err, ErrNoConvergence)
	assert.Positive(t, ce.Iterations)

	_, err = Logit("flag", []float64{1, 1, 1, 1, 1, 1}, []string{"x"}, [][]float64{x}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Logit("flag", []float64{0, 1}, []string{"x"}, [][]float64{{1, 2}}, 0.05)
	assert.ErrorIs(t, err, ErrDegenerate)

	// Collinear predictors leave the information matrix singular.
	_, err = Logit("flag", []float64{0, 1, 0, 1, 1, 0}, []string{"a", "b"}, [][]float64{x, x}, 0.05)
	assert.ErrorIs(t, err, ErrNoConvergence)
}

func TestDecideUsesDefaultAlpha(t *testing.T) {
	r := Result{PValue: 0.04}
	r.decide("an effect")
	assert.Equal(t, DefaultAlpha, r.Alpha)
	assert.True(t, r.Significant)
	assert.Contains(t, r.Interpretation, "evidence of an effect")
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
