package dataset

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func syntheticExamples(nPiano, nother int) []Example {
	examples := make([]Example, 0, nPiano+nother)
	for i := 0; i < nPiano; i++ {
		examples = append(examples, Example{
			Path:     fmt.Sprintf("data/piano/%03d.wav", i),
			Label:    LabelPiano,
			Features: []float64{float64(i), 1},
		})
	}
	for i := 0; i < nother; i++ {
		examples = append(examples, Example{
			Path:     fmt.Sprintf("data/non_piano/%03d.wav", i),
			Label:    LabelNonPiano,
			Features: []float64{float64(i), 0},
		})
	}
	return examples
}

func TestRatiosValidate(t *testing.T) {
	cases := []struct {
		name    string
		ratios  Ratios
		wantErr bool
	}{
		{"default", Ratios{0.8, 0.1, 0.1}, false},
		{"uneven", Ratios{0.6, 0.3, 0.1}, false},
		{"does not sum", Ratios{0.8, 0.1, 0.2}, true},
		{"zero fraction", Ratios{0.9, 0.1, 0}, true},
		{"negative", Ratios{1.2, -0.1, -0.1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.ratios.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSplitPartition(t *testing.T) {
	examples := syntheticExamples(60, 40)
	splits, err := Split(examples, Ratios{0.8, 0.1, 0.1}, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := len(splits.Train) + len(splits.Val) + len(splits.Test)
	if total != len(examples) {
		t.Errorf("partition lost examples: %d of %d", total, len(examples))
	}

	seen := map[string]int{}
	for _, subset := range [][]Example{splits.Train, splits.Val, splits.Test} {
		for _, ex := range subset {
			seen[ex.Path]++
		}
	}
	for path, n := range seen {
		if n != 1 {
			t.Errorf("%s appears %d times across subsets", path, n)
		}
	}

	if got := len(splits.Train); got != 80 {
		t.Errorf("expected 80 train examples, got %d", got)
	}
	if got := len(splits.Val); got != 10 {
		t.Errorf("expected 10 val examples, got %d", got)
	}
	if got := len(splits.Test); got != 10 {
		t.Errorf("expected 10 test examples, got %d", got)
	}
}

func TestSplitStratified(t *testing.T) {
	examples := syntheticExamples(60, 40)
	splits, err := Split(examples, Ratios{0.8, 0.1, 0.1}, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overall := 0.6
	for name, subset := range map[string][]Example{
		"train": splits.Train, "val": splits.Val, "test": splits.Test,
	} {
		pos := 0
		for _, ex := range subset {
			if ex.Label == LabelPiano {
				pos++
			}
		}
		frac := float64(pos) / float64(len(subset))
		if math.Abs(frac-overall) > 0.1 {
			t.Errorf("%s subset positive fraction %v drifted from %v", name, frac, overall)
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	examples := syntheticExamples(30, 30)

	first, err := Split(examples, Ratios{0.8, 0.1, 0.1}, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Split(syntheticExamples(30, 30), Ratios{0.8, 0.1, 0.1}, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first.Train {
		if first.Train[i].Path != second.Train[i].Path {
			t.Fatalf("train order differs at %d: %s vs %s", i, first.Train[i].Path, second.Train[i].Path)
		}
	}

	third, err := Split(examples, Ratios{0.8, 0.1, 0.1}, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range first.Train {
		if first.Train[i].Path != third.Train[i].Path {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical train order")
	}
}

func TestSplitSingleClass(t *testing.T) {
	examples := syntheticExamples(20, 0)
	if _, err := Split(examples, Ratios{0.8, 0.1, 0.1}, 42); !errors.Is(err, ErrInsufficientClasses) {
		t.Errorf("expected ErrInsufficientClasses, got %v", err)
	}
}

func TestSplitEmpty(t *testing.T) {
	if _, err := Split(nil, Ratios{0.8, 0.1, 0.1}, 42); !errors.Is(err, ErrInsufficientClasses) {
		t.Errorf("expected ErrInsufficientClasses, got %v", err)
	}
}

func TestMatrix(t *testing.T) {
	examples := []Example{
		{Path: "a.wav", Label: 1, Features: []float64{1, 2}},
		{Path: "b.wav", Label: 0, Features: []float64{3, 4}},
	}

	X, y := Matrix(examples)
	if len(X) != 2 || len(y) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", len(X), len(y))
	}
	if y[0] != 1 || y[1] != 0 {
		t.Errorf("labels out of order: %v", y)
	}
	if X[1][0] != 3 {
		t.Errorf("features out of order: %v", X)
	}
}
