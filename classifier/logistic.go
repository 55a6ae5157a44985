package classifier

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/feature"
	"github.com/keyframe-audio/pianissimo/logging"
)

// ErrConfigMismatch indicates the extraction config offered at inference time
// differs from the one the model was trained with. Extracting anyway would
// produce a syntactically valid vector from the wrong distribution, so the
// mismatch is fatal.
var ErrConfigMismatch = errors.New("extraction config does not match trained model")

// gradientTol stops optimization once the cost gradient is this small
const gradientTol = 1e-6

// Model is a fitted L2-regularized logistic regression bound to the
// extraction configuration that produced its training vectors
type Model struct {
	Weights    []float64         `json:"weights"`
	Bias       float64           `json:"bias"`
	Converged  bool              `json:"converged"`
	Hyper      config.Classifier `json:"hyperparams"`
	Extraction config.Extraction `json:"extraction"`
}

// Fit trains a logistic regression on X, y with an L-BFGS optimizer.
// Non-convergence within MaxIter is surfaced through Model.Converged and a
// warning log, not an error: the partially-optimized model is still usable.
func Fit(X [][]float64, y []int, hyper config.Classifier, extraction config.Extraction) (*Model, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "classifier",
		"samples":   len(X),
	})

	if len(X) == 0 {
		return nil, fmt.Errorf("no training samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("sample/label count mismatch: %d vs %d", len(X), len(y))
	}

	dim := len(X[0])
	for i, row := range X {
		if len(row) != dim {
			return nil, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), dim)
		}
	}

	counts := map[int]int{}
	for i, label := range y {
		if label != 0 && label != 1 {
			return nil, fmt.Errorf("label at index %d must be 0 or 1, got %d", i, label)
		}
		counts[label]++
	}
	if counts[0] == 0 || counts[1] == 0 {
		return nil, fmt.Errorf("training requires both classes, got %d negative and %d positive", counts[0], counts[1])
	}

	sampleWeights := buildSampleWeights(y, counts, hyper.ClassWeight)
	lambda := 1.0 / hyper.C

	// theta = [weights..., bias]
	cost := func(theta []float64) float64 {
		total := 0.0
		for i, row := range X {
			z := theta[dim]
			for j, v := range row {
				z += theta[j] * v
			}
			// log(1 + e^z) - y*z, computed stably
			var logTerm float64
			if z > 0 {
				logTerm = z + math.Log1p(math.Exp(-z))
			} else {
				logTerm = math.Log1p(math.Exp(z))
			}
			total += sampleWeights[i] * (logTerm - float64(y[i])*z)
		}
		// L2 penalty on weights, not bias
		for j := 0; j < dim; j++ {
			total += 0.5 * lambda * theta[j] * theta[j]
		}
		return total
	}

	grad := func(dst, theta []float64) {
		for j := range dst {
			dst[j] = 0
		}
		for i, row := range X {
			z := theta[dim]
			for j, v := range row {
				z += theta[j] * v
			}
			residual := sampleWeights[i] * (sigmoid(z) - float64(y[i]))
			for j, v := range row {
				dst[j] += residual * v
			}
			dst[dim] += residual
		}
		for j := 0; j < dim; j++ {
			dst[j] += lambda * theta[j]
		}
	}

	problem := optimize.Problem{Func: cost, Grad: grad}
	settings := &optimize.Settings{
		MajorIterations:   hyper.MaxIter,
		GradientThreshold: gradientTol,
	}

	theta0 := make([]float64, dim+1)
	result, err := optimize.Minimize(problem, theta0, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != dim+1 {
		return nil, fmt.Errorf("optimizer produced no usable solution: %w", err)
	}

	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("optimizer produced non-finite coefficients")
		}
	}

	converged := err == nil && result.Status == optimize.GradientThreshold
	if !converged {
		logger.Warn("optimizer did not converge, returning partially-optimized model", logging.Fields{
			"status":   result.Status.String(),
			"max_iter": hyper.MaxIter,
		})
	}

	model := &Model{
		Weights:    result.X[:dim],
		Bias:       result.X[dim],
		Converged:  converged,
		Hyper:      hyper,
		Extraction: extraction,
	}

	logger.Info("classifier fitted", logging.Fields{
		"converged": model.Converged,
		"features":  dim,
	})

	return model, nil
}

// buildSampleWeights maps the class-weighting policy to per-sample weights.
// "balanced" scales each class inversely to its frequency, n/(k*n_c).
func buildSampleWeights(y []int, counts map[int]int, policy string) []float64 {
	weights := make([]float64, len(y))

	if policy != "balanced" {
		for i := range weights {
			weights[i] = 1.0
		}
		return weights
	}

	n := float64(len(y))
	for i, label := range y {
		weights[i] = n / (2.0 * float64(counts[label]))
	}
	return weights
}

// Proba returns the probability of class 1 for one feature vector
func (m *Model) Proba(x []float64) float64 {
	z := m.Bias
	for j, v := range x {
		z += m.Weights[j] * v
	}
	return sigmoid(z)
}

// Predict applies the fixed decision threshold: probability >= 0.5 is class 1
// (inclusive boundary)
func (m *Model) Predict(x []float64) int {
	if m.Proba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictVector classifies a named-field feature vector
func (m *Model) PredictVector(v feature.Vector) (label int, proba float64) {
	p := m.Proba(v.Slice())
	if p >= 0.5 {
		return 1, p
	}
	return 0, p
}

// RequireConfig fails fast when the offered extraction config differs from
// the one bound to the model
func (m *Model) RequireConfig(cfg config.Extraction) error {
	if !m.Extraction.Equal(cfg) {
		return fmt.Errorf("%w: trained with %+v, offered %+v", ErrConfigMismatch, m.Extraction, cfg)
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
