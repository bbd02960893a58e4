package analysis

import (
	"errors"
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/mat"
)

// ErrNoTrainingData is returned when a model has no rows to fit or the labels
// are all one class.
var ErrNoTrainingData = eris.New("analysis: no training data")

// ridge keeps the Newton system solvable when a feature is constant.
const ridge = 1e-10

// FitOptions controls the Newton-Raphson solver.
type FitOptions struct {
	MaxIterations int     `json:"max_iterations"`
	Tolerance     float64 `json:"tolerance"`
	// L2 is the ridge penalty on coefficients (not the intercept). 0 fits the
	// unregularized maximum-likelihood model.
	L2 float64 `json:"l2"`
}

// DefaultFitOptions returns 100 iterations, 1e-8 tolerance, no penalty.
func DefaultFitOptions() FitOptions {
	return FitOptions{MaxIterations: 100, Tolerance: 1e-8}
}

// LogisticModel is a fitted binary logistic regression.
type LogisticModel struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Iterations   int       `json:"iterations"`
	Converged    bool      `json:"converged"`
	// Scaler is set when features were standardized before fitting.
	Scaler *Scaler `json:"scaler,omitempty"`
}

// Predict returns P(y=1 | x) for unscaled features x.
func (m *LogisticModel) Predict(x []float64) float64 {
	if m.Scaler != nil {
		x = m.Scaler.TransformRow(x)
	}
	z := m.Intercept
	for j, b := range m.Coefficients {
		z += b * x[j]
	}
	return sigmoid(z)
}

// FitLogistic fits y ~ X by iteratively reweighted least squares. X rows
// must all have len(features) columns and y must be 0/1.
func FitLogistic(features []string, X [][]float64, y []float64, opts FitOptions) (*LogisticModel, error) {
	n := len(X)
	if n == 0 || n != len(y) {
		return nil, eris.Wrapf(ErrNoTrainingData, "analysis: %d rows, %d labels", n, len(y))
	}
	if singleClass(y) {
		return nil, eris.Wrap(ErrNoTrainingData, "analysis: labels are a single class")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultFitOptions().MaxIterations
	}

	p := len(features) + 1
	design := mat.NewDense(n, p, nil)
	for i, row := range X {
		if len(row) != len(features) {
			return nil, eris.Errorf("analysis: row %d has %d features, want %d", i, len(row), len(features))
		}
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}

	beta := mat.NewVecDense(p, nil)
	weighted := mat.NewDense(n, p, nil)
	resid := mat.NewVecDense(n, nil)
	model := &LogisticModel{Features: features}

	for iter := 1; iter <= opts.MaxIterations; iter++ {
		model.Iterations = iter

		var eta mat.VecDense
		eta.MulVec(design, beta)
		for i := 0; i < n; i++ {
			mu := clampProb(sigmoid(eta.AtVec(i)))
			w := mu * (1 - mu)
			resid.SetVec(i, y[i]-mu)
			for j := 0; j < p; j++ {
				weighted.Set(i, j, w*design.At(i, j))
			}
		}

		var hess mat.Dense
		hess.Mul(design.T(), weighted)
		var grad mat.VecDense
		grad.MulVec(design.T(), resid)

		for j := 0; j < p; j++ {
			penalty := ridge
			if j > 0 {
				penalty += opts.L2
				grad.SetVec(j, grad.AtVec(j)-opts.L2*beta.AtVec(j))
			}
			hess.Set(j, j, hess.At(j, j)+penalty)
		}

		var step mat.VecDense
		if err := step.SolveVec(&hess, &grad); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return nil, eris.Wrap(err, "analysis: solve newton step")
			}
		}
		if !finite(&step) {
			break
		}

		beta.AddVec(beta, &step)
		if mat.Norm(&step, math.Inf(1)) < opts.Tolerance {
			model.Converged = true
			break
		}
	}

	model.Intercept = beta.AtVec(0)
	model.Coefficients = make([]float64, p-1)
	for j := 1; j < p; j++ {
		model.Coefficients[j-1] = beta.AtVec(j)
	}
	return model, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func clampProb(p float64) float64 {
	const eps = 1e-12
	return math.Min(math.Max(p, eps), 1-eps)
}

func singleClass(y []float64) bool {
	for _, v := range y[1:] {
		if v != y[0] {
			return false
		}
	}
	return true
}

func finite(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		x := v.AtVec(i)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
