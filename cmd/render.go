package cmd

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveylens-cli/internal/hypothesis"
	"github.com/KaramelBytes/surveylens-cli/internal/survey"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// runInfo heads a rendered test report.
type runInfo struct {
	RunID     string  `json:"run_id"`
	Dataset   string  `json:"dataset"`
	Rows      int     `json:"rows"`
	Alpha     float64 `json:"alpha"`
	Threshold float64 `json:"depression_threshold"`
}

// outcomeRenderer writes outcomes either for a terminal (tables with borders,
// color) or as Markdown (pipe tables, no color).
type outcomeRenderer struct {
	w        io.Writer
	markdown bool
}

func (r outcomeRenderer) table(header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(r.w)
	tw.SetHeader(header)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	if r.markdown {
		tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
		tw.SetCenterSeparator("|")
	}
	return tw
}

func (r outcomeRenderer) heading(level int, text string) {
	if r.markdown {
		fmt.Fprintf(r.w, "\n%s %s\n\n", strings.Repeat("#", level), text)
		return
	}
	fmt.Fprintln(r.w)
	color.New(color.Bold).Fprintln(r.w, text)
}

func (r outcomeRenderer) line(c *color.Color, format string, args ...any) {
	if r.markdown || c == nil {
		fmt.Fprintf(r.w, format+"\n", args...)
		return
	}
	c.Fprintf(r.w, format+"\n", args...)
}

func (r outcomeRenderer) render(info runInfo, outcomes []survey.Outcome) {
	r.heading(1, "Hypothesis tests: "+info.Dataset)
	r.line(nil, "rows: %d, alpha: %s, depression threshold: %s, run: %s",
		info.Rows, num(info.Alpha), num(info.Threshold), info.RunID)
	for _, o := range outcomes {
		r.outcome(o)
	}
	r.summary(outcomes)
}

func (r outcomeRenderer) outcome(o survey.Outcome) {
	r.heading(2, o.Title)
	if o.Failed() {
		r.line(color.New(color.FgRed), "✗ FAILED: %s", o.Error)
		return
	}
	b := o.Result.Base()
	tw := r.table([]string{"Test", "Statistic", "p-value", "df", "alpha", "Significant"})
	tw.Append([]string{b.Test, num(b.Statistic), pval(b.PValue), df(b), num(b.Alpha), yesNo(b.Significant)})
	tw.Render()
	c := color.New(color.FgYellow)
	if b.Significant {
		c = color.New(color.FgGreen)
	}
	if r.markdown {
		fmt.Fprintln(r.w)
	}
	r.line(c, "%s", b.Interpretation)

	switch res := o.Result.(type) {
	case *hypothesis.ChiSquareResult:
		r.chiSquare(res)
	case *hypothesis.KendallResult:
		r.line(nil, "tau-b: %s, n: %d, dropped pairs: %d, p-value method: %s", num(res.Tau), res.N, res.Dropped, res.Method)
	case *hypothesis.ANOVAResult:
		r.anova(res)
	case *hypothesis.LogitResult:
		r.logit(res)
	}
}

func (r outcomeRenderer) chiSquare(res *hypothesis.ChiSquareResult) {
	ct := res.Observed
	if ct == nil {
		return
	}
	if r.markdown {
		fmt.Fprintln(r.w)
	}
	r.line(nil, "Observed (expected) counts, %s x %s:", ct.RowVar, ct.ColVar)
	tw := r.table(append([]string{ct.RowVar}, ct.Cols...))
	for i, label := range ct.Rows {
		row := []string{label}
		for j := range ct.Cols {
			row = append(row, fmt.Sprintf("%g (%.1f)", ct.Counts[i][j], res.Expected[i][j]))
		}
		tw.Append(row)
	}
	tw.Render()
	if ct.Skipped > 0 {
		r.line(nil, "skipped pairs with a blank value: %d", ct.Skipped)
	}
	if res.Yates {
		r.line(nil, "Yates continuity correction applied")
	}
	for _, w := range res.Warnings {
		r.line(color.New(color.FgYellow), "⚠ %s", w)
	}
}

func (r outcomeRenderer) anova(res *hypothesis.ANOVAResult) {
	if r.markdown {
		fmt.Fprintln(r.w)
	}
	tw := r.table([]string{res.GroupVar, "n", "mean " + res.ValueVar, "sd"})
	for _, g := range res.Groups {
		tw.Append([]string{g.Label, strconv.Itoa(g.N), num(g.Mean), num(g.SD)})
	}
	tw.Render()
	r.line(nil, "SS between: %s (df %d), SS within: %s (df %d), n: %d, dropped: %d",
		num(res.SSBetween), res.DFBetween, num(res.SSWithin), res.DFWithin, res.N, res.Dropped)
	if len(res.Excluded) > 0 {
		r.line(color.New(color.FgYellow), "⚠ excluded groups with fewer than 2 observations: %s", strings.Join(res.Excluded, ", "))
	}
}

func (r outcomeRenderer) logit(res *hypothesis.LogitResult) {
	if r.markdown {
		fmt.Fprintln(r.w)
	}
	tw := r.table([]string{res.Outcome, "coef", "std err", "z", "P>|z|", "[0.025", "0.975]"})
	for _, c := range res.Coefficients {
		tw.Append([]string{c.Name, num(c.Estimate), num(c.StdErr), num(c.Z), pval(c.PValue), num(c.CILow), num(c.CIHigh)})
	}
	tw.Render()
	r.line(nil, "n: %d, dropped: %d, iterations: %d, df model: %d, df residual: %d",
		res.N, res.Dropped, res.Iterations, res.DFModel, res.DFResidual)
	r.line(nil, "log-likelihood: %s, null: %s, pseudo R2: %s, AIC: %s, BIC: %s",
		num(res.LogLikelihood), num(res.NullLogLik), num(res.PseudoR2), num(res.AIC), num(res.BIC))
}

func (r outcomeRenderer) summary(outcomes []survey.Outcome) {
	r.heading(2, "Summary")
	tw := r.table([]string{"Routine", "Status", "p-value", "Significant"})
	for _, o := range outcomes {
		if o.Failed() {
			tw.Append([]string{o.Routine, "failed", "-", "-"})
			continue
		}
		b := o.Result.Base()
		tw.Append([]string{o.Routine, "ok", pval(b.PValue), yesNo(b.Significant)})
	}
	tw.Render()
}

func num(x float64) string {
	switch {
	case math.IsNaN(x):
		return "n/a"
	case math.IsInf(x, 0):
		return strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strconv.FormatFloat(x, 'f', 4, 64)
}

func pval(p float64) string {
	if !math.IsNaN(p) && p > 0 && p < 1e-4 {
		return strconv.FormatFloat(p, 'e', 2, 64)
	}
	return num(p)
}

func df(b *hypothesis.Result) string {
	if !b.HasDF() {
		return "n/a"
	}
	return strconv.Itoa(*b.DF)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
