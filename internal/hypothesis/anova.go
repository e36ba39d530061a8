package hypothesis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const anovaTest = "one-way ANOVA"

// GroupStat summarizes one group of a one-way ANOVA.
type GroupStat struct {
	Label string  `json:"label"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
}

// ANOVAResult is the outcome of a one-way analysis of variance.
type ANOVAResult struct {
	Result
	ValueVar  string      `json:"value_var"`
	GroupVar  string      `json:"group_var"`
	Groups    []GroupStat `json:"groups"`
	Excluded  []string    `json:"excluded,omitempty"` // groups with fewer than 2 observations
	DFBetween int         `json:"df_between"`
	DFWithin  int         `json:"df_within"`
	SSBetween float64     `json:"ss_between"`
	SSWithin  float64     `json:"ss_within"`
	N         int         `json:"n"`
	Dropped   int         `json:"dropped"`
}

// OneWayANOVA tests whether the mean of values differs across the groups
// named by labels. Rows with a NaN value or a blank label are dropped.
func OneWayANOVA(valueVar string, values []float64, groupVar string, labels []string, alpha float64) (*ANOVAResult, error) {
	if len(values) != len(labels) {
		return nil, degenerate(anovaTest, "%s has %d values, %s has %d", valueVar, len(values), groupVar, len(labels))
	}
	byGroup := map[string][]float64{}
	res := &ANOVAResult{ValueVar: valueVar, GroupVar: groupVar}
	for i, v := range values {
		g := strings.TrimSpace(labels[i])
		if math.IsNaN(v) || g == "" {
			res.Dropped++
			continue
		}
		byGroup[g] = append(byGroup[g], v)
	}
	keys := make(map[string]struct{}, len(byGroup))
	for k := range byGroup {
		keys[k] = struct{}{}
	}

	var all []float64
	var usable [][]float64
	for _, g := range sortedKeys(keys) {
		xs := byGroup[g]
		if len(xs) < 2 {
			res.Excluded = append(res.Excluded, g)
			res.Dropped += len(xs)
			continue
		}
		mean, sd := stat.MeanStdDev(xs, nil)
		res.Groups = append(res.Groups, GroupStat{Label: g, N: len(xs), Mean: mean, SD: sd})
		usable = append(usable, xs)
		all = append(all, xs...)
	}
	if len(usable) < 2 {
		return nil, degenerate(anovaTest, "%d groups of %s with at least 2 observations, need at least 2", len(usable), groupVar)
	}

	grand := stat.Mean(all, nil)
	for i, xs := range usable {
		d := res.Groups[i].Mean - grand
		res.SSBetween += float64(len(xs)) * d * d
		for _, v := range xs {
			e := v - res.Groups[i].Mean
			res.SSWithin += e * e
		}
	}
	res.N = len(all)
	res.DFBetween = len(usable) - 1
	res.DFWithin = res.N - len(usable)
	if res.SSWithin == 0 {
		return nil, degenerate(anovaTest, "zero variance of %s within every group", valueVar)
	}
	msb := res.SSBetween / float64(res.DFBetween)
	msw := res.SSWithin / float64(res.DFWithin)

	res.Test = anovaTest
	res.Statistic = msb / msw
	res.DF = intPtr(res.DFBetween)
	res.PValue = clampP(distuv.F{D1: float64(res.DFBetween), D2: float64(res.DFWithin)}.Survival(res.Statistic))
	res.Alpha = alpha
	res.decide(fmt.Sprintf("a difference in mean %s across %s", valueVar, groupVar))
	return res, nil
}
