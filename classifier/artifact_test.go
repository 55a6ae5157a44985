package classifier

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/feature"
)

func artifactModel() *Model {
	weights := make([]float64, feature.VectorLength)
	for i := range weights {
		weights[i] = 0.1 * float64(i+1)
	}
	return &Model{
		Weights:    weights,
		Bias:       -0.5,
		Converged:  true,
		Hyper:      config.Classifier{C: 1.0, MaxIter: 1000, ClassWeight: "balanced"},
		Extraction: config.Default().Extraction,
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	model := artifactModel()
	path := filepath.Join(t.TempDir(), "models", "baseline.json")

	if err := SaveArtifact(model, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Same probabilities for the same input
	x := make([]float64, feature.VectorLength)
	for i := range x {
		x[i] = float64(i) - 6
	}
	if p1, p2 := model.Proba(x), loaded.Proba(x); p1 != p2 {
		t.Errorf("probabilities diverged after round trip: %v vs %v", p1, p2)
	}

	if !loaded.Extraction.Equal(model.Extraction) {
		t.Errorf("extraction config changed: %+v vs %+v", loaded.Extraction, model.Extraction)
	}
	if loaded.Hyper != model.Hyper {
		t.Errorf("hyperparameters changed: %+v vs %+v", loaded.Hyper, model.Hyper)
	}
	if !loaded.Converged {
		t.Error("converged flag lost")
	}
}

func TestSaveArtifactLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	if err := SaveArtifact(artifactModel(), path); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
}

func TestSaveArtifactNilModel(t *testing.T) {
	if err := SaveArtifact(nil, filepath.Join(t.TempDir(), "m.json")); err == nil {
		t.Error("expected error for nil model")
	}
}

func TestLoadArtifactCorrupt(t *testing.T) {
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Run("truncated json", func(t *testing.T) {
		good := filepath.Join(dir, "good.json")
		if err := SaveArtifact(artifactModel(), good); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(good)
		if err != nil {
			t.Fatal(err)
		}
		path := write("truncated.json", data[:len(data)/2])
		if _, err := LoadArtifact(path); !errors.Is(err, ErrCorruptArtifact) {
			t.Errorf("expected ErrCorruptArtifact, got %v", err)
		}
	})

	t.Run("not json", func(t *testing.T) {
		path := write("garbage.json", []byte("not a model"))
		if _, err := LoadArtifact(path); !errors.Is(err, ErrCorruptArtifact) {
			t.Errorf("expected ErrCorruptArtifact, got %v", err)
		}
	})

	t.Run("wrong weight count", func(t *testing.T) {
		model := artifactModel()
		model.Weights = model.Weights[:3]
		path := filepath.Join(dir, "short.json")
		if err := SaveArtifact(model, path); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadArtifact(path); !errors.Is(err, ErrCorruptArtifact) {
			t.Errorf("expected ErrCorruptArtifact, got %v", err)
		}
	})

	t.Run("invalid extraction", func(t *testing.T) {
		model := artifactModel()
		model.Extraction.SampleRate = 0
		path := filepath.Join(dir, "badcfg.json")
		if err := SaveArtifact(model, path); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadArtifact(path); !errors.Is(err, ErrCorruptArtifact) {
			t.Errorf("expected ErrCorruptArtifact, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadArtifact(filepath.Join(dir, "absent.json"))
		if err == nil {
			t.Error("expected error for missing artifact")
		}
		if errors.Is(err, ErrCorruptArtifact) {
			t.Error("missing file should not report corruption")
		}
	})
}

func TestLoadArtifactNonFinite(t *testing.T) {
	model := artifactModel()
	model.Bias = math.Inf(1)

	path := filepath.Join(t.TempDir(), "inf.json")
	if err := SaveArtifact(model, path); err != nil {
		// encoding/json refuses Inf, which also keeps the artifact out
		return
	}
	if _, err := LoadArtifact(path); !errors.Is(err, ErrCorruptArtifact) {
		t.Errorf("expected ErrCorruptArtifact, got %v", err)
	}
}
