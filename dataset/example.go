package dataset

// Labels for the binary piano task
const (
	LabelNonPiano = 0
	LabelPiano    = 1 // piano or mixed-containing-piano
)

// Example is one labeled feature vector with its provenance path. Immutable
// once assembled.
type Example struct {
	Path     string    `json:"path"`
	Label    int       `json:"label"`
	Features []float64 `json:"features"`
}

// ManifestEntry is one row of the training manifest before extraction
type ManifestEntry struct {
	Path  string `json:"path"`
	Label int    `json:"label"`
}
