package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/keyframe-audio/pianissimo/feature"
)

// ErrCorruptArtifact indicates a model artifact that cannot be loaded into a
// usable (model, config) pair. There is no partial-load state: a load either
// yields the full pair or fails with this error.
var ErrCorruptArtifact = errors.New("corrupt model artifact")

const artifactSchemaVersion = 1

// artifactEnvelope is the on-disk bundle. The extraction config always
// travels with the model so inference can detect feature-configuration drift.
type artifactEnvelope struct {
	SchemaVersion int       `json:"schema_version"`
	CreatedAt     time.Time `json:"created_at"`
	Model         Model     `json:"model"`
}

// SaveArtifact persists the fitted model and its bound extraction config.
// The write goes through a temp file and rename so readers never observe a
// half-written bundle.
func SaveArtifact(m *Model, dest string) error {
	if m == nil {
		return fmt.Errorf("nil model")
	}

	envelope := artifactEnvelope{
		SchemaVersion: artifactSchemaVersion,
		CreatedAt:     time.Now().UTC(),
		Model:         *m,
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize artifact: %w", err)
	}

	return nil
}

// LoadArtifact reloads a saved model with its extraction config. Any
// malformation wraps ErrCorruptArtifact.
func LoadArtifact(source string) (*Model, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", source, err)
	}

	var envelope artifactEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, source, err)
	}

	if envelope.SchemaVersion != artifactSchemaVersion {
		return nil, fmt.Errorf("%w: %s: unsupported schema version %d", ErrCorruptArtifact, source, envelope.SchemaVersion)
	}

	m := envelope.Model

	if len(m.Weights) != feature.VectorLength {
		return nil, fmt.Errorf("%w: %s: expected %d weights, got %d", ErrCorruptArtifact, source, feature.VectorLength, len(m.Weights))
	}

	for _, v := range append([]float64{m.Bias}, m.Weights...) {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s: non-finite coefficient", ErrCorruptArtifact, source)
		}
	}

	if err := m.Extraction.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArtifact, source, err)
	}

	return &m, nil
}
