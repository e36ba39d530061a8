package hypothesis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const logitTest = "logistic regression"

const (
	logitMaxIter = 35
	logitTol     = 1e-8
	// separationTol is how close every fitted probability must be to its
	// outcome before the data is treated as perfectly separated.
	separationTol = 1e-6
	z975          = 1.959963984540054
	// maxCond is the condition number above which the information matrix
	// is treated as singular.
	maxCond = 1e12
)

// Coefficient is one estimated parameter of a logistic regression.
type Coefficient struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	PValue   float64 `json:"p_value"`
	CILow    float64 `json:"ci_low"`
	CIHigh   float64 `json:"ci_high"`
}

// LogitResult is a fitted binary logistic regression. The embedded Result
// carries the likelihood-ratio test of the model against the intercept-only model.
type LogitResult struct {
	Result
	Outcome       string        `json:"outcome"`
	Coefficients  []Coefficient `json:"coefficients"`
	N             int           `json:"n"`
	Dropped       int           `json:"dropped"`
	Iterations    int           `json:"iterations"`
	LogLikelihood float64       `json:"log_likelihood"`
	NullLogLik    float64       `json:"null_log_likelihood"`
	PseudoR2      float64       `json:"pseudo_r2"`
	AIC           float64       `json:"aic"`
	BIC           float64       `json:"bic"`
	DFModel       int           `json:"df_model"`
	DFResidual    int           `json:"df_residual"`
}

// Coefficient returns the named coefficient, "const" for the intercept.
func (r *LogitResult) Coefficient(name string) (Coefficient, bool) {
	for _, c := range r.Coefficients {
		if c.Name == name {
			return c, true
		}
	}
	return Coefficient{}, false
}

// Logit fits outcome ~ const + predictors by maximum likelihood using
// Newton-Raphson. y holds 0/1 outcomes; predictors[j] is the column named
// names[j]. Rows with any NaN are dropped.
func Logit(outcome string, y []float64, names []string, predictors [][]float64, alpha float64) (*LogitResult, error) {
	if len(names) != len(predictors) {
		return nil, degenerate(logitTest, "%d predictor names for %d columns", len(names), len(predictors))
	}
	for j, col := range predictors {
		if len(col) != len(y) {
			return nil, degenerate(logitTest, "%s has %d values, %s has %d", names[j], len(col), outcome, len(y))
		}
	}

	k := len(predictors) + 1
	var rows []float64
	var ys []float64
	res := &LogitResult{Outcome: outcome}
rowLoop:
	for i, yi := range y {
		if math.IsNaN(yi) {
			res.Dropped++
			continue
		}
		if yi != 0 && yi != 1 {
			return nil, degenerate(logitTest, "%s must be 0 or 1, row %d is %g", outcome, i+1, yi)
		}
		for _, col := range predictors {
			if math.IsNaN(col[i]) {
				res.Dropped++
				continue rowLoop
			}
		}
		rows = append(rows, 1)
		for _, col := range predictors {
			rows = append(rows, col[i])
		}
		ys = append(ys, yi)
	}
	n := len(ys)
	res.N = n
	if n <= k {
		return nil, degenerate(logitTest, "%d complete rows for %d parameters", n, k)
	}
	var pos float64
	for _, v := range ys {
		pos += v
	}
	if pos == 0 || pos == float64(n) {
		return nil, degenerate(logitTest, "%s has a single class", outcome)
	}

	X := mat.NewDense(n, k, rows)
	Y := mat.NewVecDense(n, ys)
	beta := mat.NewVecDense(k, nil)
	mu := mat.NewVecDense(n, nil)
	var chol mat.Cholesky

	converged := false
	for iter := 1; iter <= logitMaxIter; iter++ {
		res.Iterations = iter
		fitted(X, beta, mu)
		if separated(Y, mu) {
			return nil, &ConvergenceError{Test: logitTest, Iterations: iter, Reason: "perfect separation: fitted probabilities are 0 or 1"}
		}
		if !chol.Factorize(information(X, mu)) || chol.Cond() > maxCond {
			return nil, &ConvergenceError{Test: logitTest, Iterations: iter, Reason: "singular information matrix"}
		}
		resid := mat.NewVecDense(n, nil)
		resid.SubVec(Y, mu)
		grad := mat.NewVecDense(k, nil)
		grad.MulVec(X.T(), resid)
		step := mat.NewVecDense(k, nil)
		if err := chol.SolveVecTo(step, grad); err != nil {
			return nil, &ConvergenceError{Test: logitTest, Iterations: iter, Reason: fmt.Sprintf("singular information matrix: %v", err)}
		}
		beta.AddVec(beta, step)
		if mat.Norm(step, math.Inf(1)) < logitTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, &ConvergenceError{Test: logitTest, Iterations: res.Iterations, Reason: fmt.Sprintf("coefficient change above %g", logitTol)}
	}
	fitted(X, beta, mu)
	if separated(Y, mu) {
		return nil, &ConvergenceError{Test: logitTest, Iterations: res.Iterations, Reason: "perfect separation: fitted probabilities are 0 or 1"}
	}
	if !chol.Factorize(information(X, mu)) || chol.Cond() > maxCond {
		return nil, &ConvergenceError{Test: logitTest, Iterations: res.Iterations, Reason: "singular information matrix at the solution"}
	}
	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, &ConvergenceError{Test: logitTest, Iterations: res.Iterations, Reason: fmt.Sprintf("covariance not available: %v", err)}
	}

	labels := append([]string{"const"}, names...)
	for j := 0; j < k; j++ {
		b := beta.AtVec(j)
		se := math.Sqrt(cov.At(j, j))
		z := b / se
		res.Coefficients = append(res.Coefficients, Coefficient{
			Name:     labels[j],
			Estimate: b,
			StdErr:   se,
			Z:        z,
			PValue:   clampP(2 * distuv.UnitNormal.Survival(math.Abs(z))),
			CILow:    b - z975*se,
			CIHigh:   b + z975*se,
		})
	}

	res.LogLikelihood = logLikelihood(X, beta, Y)
	ybar := pos / float64(n)
	res.NullLogLik = float64(n) * (ybar*math.Log(ybar) + (1-ybar)*math.Log(1-ybar))
	res.PseudoR2 = 1 - res.LogLikelihood/res.NullLogLik
	res.DFModel = k - 1
	res.DFResidual = n - k
	res.AIC = -2*res.LogLikelihood + 2*float64(k)
	res.BIC = -2*res.LogLikelihood + float64(k)*math.Log(float64(n))

	llr := math.Max(0, 2*(res.LogLikelihood-res.NullLogLik))
	res.Test = logitTest
	res.Statistic = llr
	res.DF = intPtr(res.DFModel)
	res.PValue = clampP(distuv.ChiSquared{K: float64(res.DFModel)}.Survival(llr))
	res.Alpha = alpha
	res.decide(fmt.Sprintf("%s depending on %s", outcome, strings.Join(names, " and ")))
	return res, nil
}

// fitted writes the logistic mean of X*beta into mu.
func fitted(X *mat.Dense, beta, mu *mat.VecDense) {
	mu.MulVec(X, beta)
	for i := 0; i < mu.Len(); i++ {
		mu.SetVec(i, 1/(1+math.Exp(-mu.AtVec(i))))
	}
}

// information returns X' W X with W = diag(mu(1-mu)).
func information(X *mat.Dense, mu *mat.VecDense) *mat.SymDense {
	n, k := X.Dims()
	h := mat.NewSymDense(k, nil)
	for i := 0; i < n; i++ {
		m := mu.AtVec(i)
		w := m * (1 - m)
		for a := 0; a < k; a++ {
			xa := X.At(i, a) * w
			for b := a; b < k; b++ {
				h.SetSym(a, b, h.At(a, b)+xa*X.At(i, b))
			}
		}
	}
	return h
}

func separated(Y, mu *mat.VecDense) bool {
	for i := 0; i < Y.Len(); i++ {
		if math.Abs(Y.AtVec(i)-mu.AtVec(i)) >= separationTol {
			return false
		}
	}
	return true
}

// logLikelihood evaluates sum y*eta - log(1+exp(eta)) without overflow.
func logLikelihood(X *mat.Dense, beta, Y *mat.VecDense) float64 {
	n, _ := X.Dims()
	eta := mat.NewVecDense(n, nil)
	eta.MulVec(X, beta)
	var ll float64
	for i := 0; i < n; i++ {
		e := eta.AtVec(i)
		ll += Y.AtVec(i)*e - softplus(e)
	}
	return ll
}

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
