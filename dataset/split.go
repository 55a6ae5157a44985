package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrInsufficientClasses indicates the example set does not contain both
// labels. A single-class dataset can neither train nor evaluate a binary
// classifier, so splitting halts before any fitting is attempted.
var ErrInsufficientClasses = errors.New("dataset contains fewer than two classes")

// Ratios are the train/validation/test fractions. Each must lie in (0, 1)
// and the three must sum to 1.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// Validate checks the fractions compose a full partition
func (r Ratios) Validate() error {
	for _, v := range []float64{r.Train, r.Val, r.Test} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("split ratio must be in (0, 1), got %v", v)
		}
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1.0, got %v", sum)
	}
	return nil
}

// Splits holds the three disjoint partitions
type Splits struct {
	Train []Example
	Val   []Example
	Test  []Example
}

// Split partitions examples into stratified train/val/test subsets. The
// split is two-stage: the train fraction is carved off first, then the
// remainder is divided val/test by val/(val+test), so the three fractions
// compose exactly even though configured independently.
//
// Examples are canonicalized by provenance path before the seeded shuffle,
// so the partition is reproducible regardless of extraction order.
func Split(examples []Example, ratios Ratios, seed int64) (Splits, error) {
	if err := ratios.Validate(); err != nil {
		return Splits{}, err
	}

	byClass := make(map[int][]Example)
	for _, ex := range examples {
		byClass[ex.Label] = append(byClass[ex.Label], ex)
	}

	if len(byClass) < 2 {
		return Splits{}, ErrInsufficientClasses
	}

	// Stable class iteration order
	labels := make([]int, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Ints(labels)

	rng := rand.New(rand.NewSource(seed))
	valRatio := ratios.Val / (ratios.Val + ratios.Test)

	var splits Splits
	for _, label := range labels {
		class := byClass[label]

		sort.Slice(class, func(i, j int) bool { return class[i].Path < class[j].Path })
		rng.Shuffle(len(class), func(i, j int) {
			class[i], class[j] = class[j], class[i]
		})

		nTrain := int(math.Round(ratios.Train * float64(len(class))))
		nTrain = min(nTrain, len(class))

		rest := class[nTrain:]
		nVal := int(math.Round(valRatio * float64(len(rest))))
		nVal = min(nVal, len(rest))

		splits.Train = append(splits.Train, class[:nTrain]...)
		splits.Val = append(splits.Val, rest[:nVal]...)
		splits.Test = append(splits.Test, rest[nVal:]...)
	}

	return splits, nil
}

// Matrix unpacks a subset into the classifier's X, y shape using each
// example's positional feature array
func Matrix(examples []Example) (X [][]float64, y []int) {
	X = make([][]float64, len(examples))
	y = make([]int, len(examples))
	for i, ex := range examples {
		X[i] = ex.Features
		y[i] = ex.Label
	}
	return X, y
}
