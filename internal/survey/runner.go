package survey

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/surveylens-cli/internal/dataset"
	"github.com/KaramelBytes/surveylens-cli/internal/hypothesis"
)

// Record is implemented by every hypothesis result through the embedded
// hypothesis.Result.
type Record interface {
	Base() *hypothesis.Result
}

// Routine is one named test of the plan.
type Routine struct {
	Name  string
	Title string
	// Requires lists derived columns that must be added before the routine runs.
	Requires []string
	Run      func(t *dataset.Table) (Record, error)
}

// Outcome is the result of one routine. Exactly one of Result and Err is set.
type Outcome struct {
	Routine string        `json:"routine"`
	Title   string        `json:"title"`
	Result  Record        `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"-"`
	Err     error         `json:"-"`
}

// Failed reports whether the routine ended in an error.
func (o Outcome) Failed() bool { return o.Err != nil }

// Options parameterizes the default plan.
type Options struct {
	Alpha               float64
	DepressionThreshold float64
}

// DefaultOptions returns alpha 0.05 and the default depression threshold.
func DefaultOptions() Options {
	return Options{Alpha: hypothesis.DefaultAlpha, DepressionThreshold: DefaultDepressionThreshold}
}

// Routine names accepted by Run's only filter.
const (
	RoutineAssociation = "association"
	RoutineCorrelation = "correlation"
	RoutineANOVA       = "anova"
	RoutineLogit       = "logit"
)

// Plan is an ordered list of routines plus the derivations they depend on.
type Plan struct {
	Options  Options
	Routines []Routine
}

// DefaultPlan returns the fixed survey analysis.
func DefaultPlan(opts Options) *Plan {
	alpha := opts.Alpha
	return &Plan{Options: opts, Routines: []Routine{
		{
			Name:  RoutineAssociation,
			Title: "Gender vs sports engagement (chi-square)",
			Run: func(t *dataset.Table) (Record, error) {
				return AssociationTest(t, ColGender, ColSportsEngagement, alpha)
			},
		},
		{
			Name:  RoutineCorrelation,
			Title: "Academic pressure vs depression (Kendall's tau)",
			Run: func(t *dataset.Table) (Record, error) {
				return CorrelationTest(t, ColAcademicPressure, ColDepression, alpha)
			},
		},
		{
			Name:     RoutineANOVA,
			Title:    "Sleep hours by academic year (one-way ANOVA)",
			Requires: []string{ColSleepHours},
			Run: func(t *dataset.Table) (Record, error) {
				return GroupDifferenceTest(t, ColSleepHours, ColAcademicYear, alpha)
			},
		},
		{
			Name:     RoutineLogit,
			Title:    "Depression flag ~ academic pressure + financial concerns (logit)",
			Requires: []string{ColDepressionFlag},
			Run: func(t *dataset.Table) (Record, error) {
				return LogisticRegression(t, ColDepressionFlag, []string{ColAcademicPressure, ColFinancialConcerns}, alpha)
			},
		},
	}}
}

// Names returns the routine names in plan order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.Routines))
	for i, r := range p.Routines {
		out[i] = r.Name
	}
	return out
}

// Select keeps only the named routines, preserving plan order. Names are
// case-insensitive; an unknown name is an error.
func (p *Plan) Select(only []string) (*Plan, error) {
	if len(only) == 0 {
		return p, nil
	}
	want := map[string]bool{}
	for _, n := range only {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			want[n] = true
		}
	}
	out := &Plan{Options: p.Options}
	for _, r := range p.Routines {
		if want[r.Name] {
			out.Routines = append(out.Routines, r)
			delete(want, r.Name)
		}
	}
	if len(want) > 0 {
		var unknown []string
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown routine(s): %s (available: %s)", strings.Join(unknown, ", "), strings.Join(p.Names(), ", "))
	}
	return out, nil
}

// Run adds the derived columns the selected routines need, then runs each
// routine in order. A failing routine does not stop the others; its error is
// kept in its Outcome.
func Run(t *dataset.Table, p *Plan, log *zap.Logger) []Outcome {
	if log == nil {
		log = zap.NewNop()
	}
	derived := map[string]error{}
	for _, r := range p.Routines {
		for _, col := range r.Requires {
			if _, done := derived[col]; done {
				continue
			}
			derived[col] = derive(t, col, p.Options, log)
		}
	}

	outcomes := make([]Outcome, 0, len(p.Routines))
	for _, r := range p.Routines {
		o := Outcome{Routine: r.Name, Title: r.Title}
		start := time.Now()
		for _, col := range r.Requires {
			if err := derived[col]; err != nil {
				o.Err = fmt.Errorf("derive %s: %w", col, err)
				break
			}
		}
		if o.Err == nil {
			rec, err := r.Run(t)
			if err != nil {
				o.Err = err
			} else {
				o.Result = rec
			}
		}
		o.Elapsed = time.Since(start)
		if o.Err != nil {
			o.Error = o.Err.Error()
			log.Warn("routine failed", zap.String("routine", r.Name), zap.Error(o.Err))
		} else {
			b := o.Result.Base()
			log.Debug("routine finished",
				zap.String("routine", r.Name),
				zap.Float64("statistic", b.Statistic),
				zap.Float64("p_value", b.PValue),
				zap.Duration("elapsed", o.Elapsed))
		}
		outcomes = append(outcomes, o)
	}
	return outcomes
}

// Failures counts outcomes that ended in an error.
func Failures(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

func derive(t *dataset.Table, col string, opts Options, log *zap.Logger) error {
	switch col {
	case ColSleepHours:
		if err := AddSleepHours(t); err != nil {
			return err
		}
		c, err := t.Numeric(ColSleepHours)
		if err != nil {
			return err
		}
		log.Debug("derived column", zap.String("column", col), zap.Int("missing", c.Missing))
		return nil
	case ColDepressionFlag:
		dep, err := AddDepressionFlag(t, opts.DepressionThreshold)
		if err != nil {
			return err
		}
		log.Debug("derived column",
			zap.String("column", col),
			zap.Float64("threshold", opts.DepressionThreshold),
			zap.Int("missing", dep.Missing),
			zap.Int("invalid", dep.Invalid))
		return nil
	}
	return fmt.Errorf("no derivation for column %q", col)
}
