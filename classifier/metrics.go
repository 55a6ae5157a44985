package classifier

import (
	"strconv"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ClassMetrics holds thresholded scores for one class
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report scores one evaluation subset. AUC is computed from raw
// probabilities, independent of the 0.5 decision threshold, and is the
// primary model-selection signal.
type Report struct {
	PerClass   map[string]ClassMetrics `json:"per_class"` // keyed "0", "1"
	Accuracy   float64                 `json:"accuracy"`
	AUC        float64                 `json:"auc"`
	NumSamples int                     `json:"num_samples"`
}

// Evaluate scores the model on a labeled subset
func Evaluate(m *Model, X [][]float64, y []int) Report {
	probs := make([]float64, len(X))
	preds := make([]int, len(X))
	for i, row := range X {
		probs[i] = m.Proba(row)
		if probs[i] >= 0.5 {
			preds[i] = 1
		}
	}

	report := Report{
		PerClass:   make(map[string]ClassMetrics, 2),
		AUC:        AUC(probs, y),
		NumSamples: len(y),
	}

	correct := 0
	for i := range y {
		if preds[i] == y[i] {
			correct++
		}
	}
	if len(y) > 0 {
		report.Accuracy = float64(correct) / float64(len(y))
	}

	for _, class := range []int{0, 1} {
		report.PerClass[strconv.Itoa(class)] = classMetrics(preds, y, class)
	}

	return report
}

// classMetrics computes one-vs-rest precision/recall/F1 for a class.
// Degenerate denominators score zero rather than NaN.
func classMetrics(preds, y []int, class int) ClassMetrics {
	var tp, fp, fn, support int
	for i := range y {
		if y[i] == class {
			support++
			if preds[i] == class {
				tp++
			} else {
				fn++
			}
		} else if preds[i] == class {
			fp++
		}
	}

	var precision, recall, f1 float64
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return ClassMetrics{
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		Support:   support,
	}
}

// AUC computes the area under the ROC curve from raw class-1 probabilities.
// A subset missing one of the classes has no defined curve and scores zero.
func AUC(probs []float64, y []int) float64 {
	pos, neg := 0, 0
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0
	}

	scores := make([]float64, len(probs))
	copy(scores, probs)
	classes := make([]bool, len(y))
	for i, label := range y {
		classes[i] = label == 1
	}

	stat.SortWeightedLabeled(scores, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, scores, classes, nil)

	// Trapezoidal integration needs the abscissa ascending
	if len(fpr) > 1 && fpr[0] > fpr[len(fpr)-1] {
		reverse(fpr)
		reverse(tpr)
	}

	return integrate.Trapezoidal(fpr, tpr)
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
