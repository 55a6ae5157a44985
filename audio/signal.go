package audio

import (
	"fmt"
)

// Signal is decoded mono audio at a known sample rate
type Signal struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Duration   float64   `json:"duration"` // seconds
}

// NewSignal wraps samples with their rate, deriving the duration
func NewSignal(samples []float64, sampleRate int) *Signal {
	duration := 0.0
	if sampleRate > 0 {
		duration = float64(len(samples)) / float64(sampleRate)
	}
	return &Signal{
		Samples:    samples,
		SampleRate: sampleRate,
		Duration:   duration,
	}
}

// DecodeError reports a file that could not be decoded. Batch callers match
// on it with errors.As to skip the offending example; single-file callers
// treat it as fatal.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
