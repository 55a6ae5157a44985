package pipeline

import (
	"context"

	"github.com/keyframe-audio/pianissimo/audio"
	"github.com/keyframe-audio/pianissimo/classifier"
	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/feature"
)

// Prediction is the single-file inference result
type Prediction struct {
	Path             string  `json:"path"`
	PianoProbability float64 `json:"piano_probability"`
	Label            string  `json:"label"` // "piano" or "non_piano"
}

// PredictFile classifies one audio file against a saved artifact. The
// extraction config offered by the caller must match the one bound to the
// model; otherwise the call fails before any extraction happens. Decode
// failures are fatal here since a single-file call has nothing to skip to.
func PredictFile(ctx context.Context, cfg config.Extraction, modelPath, audioPath string) (*Prediction, error) {
	model, err := classifier.LoadArtifact(modelPath)
	if err != nil {
		return nil, err
	}

	if err := model.RequireConfig(cfg); err != nil {
		return nil, err
	}

	sig, err := audio.Load(ctx, audioPath, cfg)
	if err != nil {
		return nil, err
	}

	vec := feature.Extract(sig, cfg)
	label, proba := model.PredictVector(vec)

	name := "non_piano"
	if label == 1 {
		name = "piano"
	}

	return &Prediction{
		Path:             audioPath,
		PianoProbability: proba,
		Label:            name,
	}, nil
}
