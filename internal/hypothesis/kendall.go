package hypothesis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

const kendallTest = "Kendall's tau-b"

// exactKendallMaxN is the largest sample for which the exact null
// distribution is used when neither variable has ties.
const exactKendallMaxN = 33

// KendallResult is the outcome of a Kendall rank correlation test.
type KendallResult struct {
	Result
	XVar string  `json:"x_var"`
	YVar string  `json:"y_var"`
	Tau  float64 `json:"tau"`
	N    int     `json:"n"`
	// Dropped is the number of pairs with a missing side.
	Dropped int `json:"dropped"`
	// Method is "exact" or "asymptotic".
	Method string `json:"method"`
}

// Kendall computes tau-b between x and y with pairwise exclusion of NaN.
// The p-value is two-sided.
func Kendall(xVar string, x []float64, yVar string, y []float64, alpha float64) (*KendallResult, error) {
	if len(x) != len(y) {
		return nil, degenerate(kendallTest, "%s has %d values, %s has %d", xVar, len(x), yVar, len(y))
	}
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	n := len(xs)
	res := &KendallResult{XVar: xVar, YVar: yVar, N: n, Dropped: len(x) - n}
	if n < 2 {
		return nil, degenerate(kendallTest, "%d complete pairs, need at least 2", n)
	}

	var conc, disc float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := sign(xs[i]-xs[j]) * sign(ys[i]-ys[j])
			switch {
			case s > 0:
				conc++
			case s < 0:
				disc++
			}
		}
	}
	tx := tieStats(xs)
	ty := tieStats(ys)
	nf := float64(n)
	n0 := nf * (nf - 1) / 2
	if n0-tx.pairs == 0 {
		return nil, degenerate(kendallTest, "%s is constant", xVar)
	}
	if n0-ty.pairs == 0 {
		return nil, degenerate(kendallTest, "%s is constant", yVar)
	}
	tau := (conc - disc) / math.Sqrt((n0-tx.pairs)*(n0-ty.pairs))
	res.Tau = math.Max(-1, math.Min(1, tau))

	c := math.Min(disc, n0-disc)
	if tx.pairs == 0 && ty.pairs == 0 && (n <= exactKendallMaxN || c <= 1) {
		res.Method = "exact"
		res.PValue = kendallExactP(n, int(c))
	} else {
		res.Method = "asymptotic"
		v0 := nf * (nf - 1) * (2*nf + 5)
		v := (v0 - tx.v - ty.v) / 18
		v += tx.t1 * ty.t1 / (2 * nf * (nf - 1))
		if n > 2 {
			v += tx.t2 * ty.t2 / (9 * nf * (nf - 1) * (nf - 2))
		}
		z := (conc - disc) / math.Sqrt(v)
		res.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(z))
	}
	res.PValue = clampP(res.PValue)
	res.Test = kendallTest
	res.Statistic = res.Tau
	res.Alpha = alpha
	res.decide(fmt.Sprintf("a monotonic relationship between %s and %s", xVar, yVar))
	return res, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// ties holds the tie-group sums used by tau-b and its variance.
type ties struct {
	pairs float64 // sum t(t-1)/2
	v     float64 // sum t(t-1)(2t+5)
	t1    float64 // sum t(t-1)
	t2    float64 // sum t(t-1)(t-2)
}

func tieStats(xs []float64) ties {
	counts := map[float64]int{}
	for _, v := range xs {
		counts[v]++
	}
	var out ties
	for _, c := range counts {
		if c < 2 {
			continue
		}
		t := float64(c)
		out.pairs += t * (t - 1) / 2
		out.v += t * (t - 1) * (2*t + 5)
		out.t1 += t * (t - 1)
		out.t2 += t * (t - 1) * (t - 2)
	}
	return out
}

// kendallExactP returns the two-sided p-value for c discordant pairs (the
// smaller tail) among n untied observations, using the distribution of
// inversions of a random permutation. Only the first c+1 probabilities are
// tracked, so the cost is O(n*c).
func kendallExactP(n, c int) float64 {
	if c < 0 {
		return 1
	}
	if maxInv := n * (n - 1) / 2; c > maxInv {
		c = maxInv
	}
	// prob[k] is P(k inversions) for permutations of size m, built up to n.
	prob := make([]float64, c+1)
	prob[0] = 1
	next := make([]float64, c+1)
	for m := 2; m <= n; m++ {
		// next[k] averages prob[k-m+1..k].
		var window float64
		for k := 0; k <= c; k++ {
			window += prob[k]
			if k >= m {
				window -= prob[k-m]
			}
			next[k] = window / float64(m)
		}
		prob, next = next, prob
	}
	var p float64
	for _, v := range prob {
		p += v
	}
	return math.Min(1, 2*p)
}
