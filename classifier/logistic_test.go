package classifier

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/feature"
)

func testHyper() config.Classifier {
	return config.Classifier{C: 1.0, MaxIter: 1000, ClassWeight: "balanced"}
}

func testExtraction() config.Extraction {
	return config.Default().Extraction
}

// separableData builds two Gaussian blobs far enough apart to be linearly
// separable with overwhelming probability.
func separableData(n int, seed int64) (X [][]float64, y []int) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		label := i % 2
		center := -2.0
		if label == 1 {
			center = 2.0
		}
		X = append(X, []float64{center + rng.NormFloat64()*0.3, center + rng.NormFloat64()*0.3})
		y = append(y, label)
	}
	return X, y
}

func TestFitSeparable(t *testing.T) {
	X, y := separableData(100, 1)

	model, err := Fit(X, y, testHyper(), testExtraction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	correct := 0
	for i := range X {
		if model.Predict(X[i]) == y[i] {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(X)); acc < 0.95 {
		t.Errorf("expected near-perfect training accuracy on separable data, got %v", acc)
	}

	if len(model.Weights) != 2 {
		t.Errorf("expected 2 weights, got %d", len(model.Weights))
	}
	for _, w := range model.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			t.Errorf("weight is not finite: %v", w)
		}
	}
}

func TestFitProbabilitiesOrdered(t *testing.T) {
	X, y := separableData(100, 2)
	model, err := Fit(X, y, testHyper(), testExtraction())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pNeg := model.Proba([]float64{-2, -2})
	pPos := model.Proba([]float64{2, 2})

	if pNeg >= 0.5 {
		t.Errorf("negative-cluster point scored %v, expected below 0.5", pNeg)
	}
	if pPos <= 0.5 {
		t.Errorf("positive-cluster point scored %v, expected above 0.5", pPos)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	hyper := testHyper()
	extraction := testExtraction()

	t.Run("empty", func(t *testing.T) {
		if _, err := Fit(nil, nil, hyper, extraction); err == nil {
			t.Error("expected error for empty training set")
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		if _, err := Fit([][]float64{{1}}, []int{0, 1}, hyper, extraction); err == nil {
			t.Error("expected error for sample/label mismatch")
		}
	})

	t.Run("ragged rows", func(t *testing.T) {
		if _, err := Fit([][]float64{{1, 2}, {3}}, []int{0, 1}, hyper, extraction); err == nil {
			t.Error("expected error for inconsistent feature counts")
		}
	})

	t.Run("invalid label", func(t *testing.T) {
		if _, err := Fit([][]float64{{1}, {2}}, []int{0, 2}, hyper, extraction); err == nil {
			t.Error("expected error for label outside {0, 1}")
		}
	})

	t.Run("single class", func(t *testing.T) {
		if _, err := Fit([][]float64{{1}, {2}}, []int{1, 1}, hyper, extraction); err == nil {
			t.Error("expected error for single-class training set")
		}
	})
}

func TestPredictInclusiveThreshold(t *testing.T) {
	// Zero weights and bias give exactly p = 0.5, which is class 1
	model := &Model{Weights: make([]float64, 2)}
	if got := model.Predict([]float64{3, -7}); got != 1 {
		t.Errorf("p = 0.5 must classify as 1, got %d", got)
	}
}

func TestPredictVector(t *testing.T) {
	model := &Model{Weights: make([]float64, feature.VectorLength), Bias: 4}
	label, proba := model.PredictVector(feature.Vector{LogMelMean: 1})
	if label != 1 {
		t.Errorf("expected label 1 for large positive bias, got %d", label)
	}
	if proba <= 0.5 {
		t.Errorf("expected probability above 0.5, got %v", proba)
	}
}

func TestBuildSampleWeights(t *testing.T) {
	y := []int{1, 1, 1, 0}
	counts := map[int]int{0: 1, 1: 3}

	t.Run("balanced", func(t *testing.T) {
		w := buildSampleWeights(y, counts, "balanced")
		// n/(2*n_c): positives 4/6, negative 4/2
		if math.Abs(w[0]-4.0/6.0) > 1e-12 {
			t.Errorf("positive weight: expected %v, got %v", 4.0/6.0, w[0])
		}
		if math.Abs(w[3]-2.0) > 1e-12 {
			t.Errorf("negative weight: expected 2, got %v", w[3])
		}
	})

	t.Run("uniform", func(t *testing.T) {
		for i, v := range buildSampleWeights(y, counts, "") {
			if v != 1.0 {
				t.Errorf("weight %d: expected 1, got %v", i, v)
			}
		}
	})
}

func TestRequireConfig(t *testing.T) {
	extraction := testExtraction()
	model := &Model{Extraction: extraction}

	if err := model.RequireConfig(extraction); err != nil {
		t.Errorf("matching config rejected: %v", err)
	}

	other := extraction
	other.NFFT = 1024
	if err := model.RequireConfig(other); !errors.Is(err, ErrConfigMismatch) {
		t.Errorf("expected ErrConfigMismatch, got %v", err)
	}
}
