package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Extraction fully determines feature extraction output. The same values must
// be used for training and inference; a trained model carries the Extraction
// it was built with and inference compares against it before extracting.
type Extraction struct {
	SampleRate         int     `yaml:"sample_rate" json:"sample_rate"`
	MaxDurationSeconds float64 `yaml:"max_duration_seconds" json:"max_duration_seconds"`
	NFFT               int     `yaml:"n_fft" json:"n_fft"`
	HopLength          int     `yaml:"hop_length" json:"hop_length"`
	NMels              int     `yaml:"n_mels" json:"n_mels"`
}

// Classifier holds logistic regression hyperparameters
type Classifier struct {
	C           float64 `yaml:"C" json:"C"`
	MaxIter     int     `yaml:"max_iter" json:"max_iter"`
	ClassWeight string  `yaml:"class_weight" json:"class_weight"` // "balanced" or "" for uniform
}

// File is the training configuration document
type File struct {
	Extraction `yaml:",inline"`

	TrainSplit float64 `yaml:"train_split"`
	ValSplit   float64 `yaml:"val_split"`
	TestSplit  float64 `yaml:"test_split"`
	Seed       int64   `yaml:"seed"`

	Classifier Classifier `yaml:"classifier"`
}

// Default returns the baseline training configuration
func Default() File {
	return File{
		Extraction: Extraction{
			SampleRate:         22050,
			MaxDurationSeconds: 30.0,
			NFFT:               2048,
			HopLength:          512,
			NMels:              64,
		},
		TrainSplit: 0.8,
		ValSplit:   0.1,
		TestSplit:  0.1,
		Seed:       42,
		Classifier: Classifier{
			C:           1.0,
			MaxIter:     1000,
			ClassWeight: "balanced",
		},
	}
}

// Load reads a YAML configuration document. Keys missing from the document
// keep their defaults.
func Load(path string) (File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the document for values that cannot produce a usable run
func (f File) Validate() error {
	if err := f.Extraction.Validate(); err != nil {
		return err
	}

	for _, s := range []struct {
		name  string
		value float64
	}{
		{"train_split", f.TrainSplit},
		{"val_split", f.ValSplit},
		{"test_split", f.TestSplit},
	} {
		if s.value <= 0 || s.value >= 1 {
			return fmt.Errorf("%s must be in (0, 1), got %v", s.name, s.value)
		}
	}

	if sum := f.TrainSplit + f.ValSplit + f.TestSplit; math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("splits must sum to 1.0, got %v", sum)
	}

	if f.Classifier.C <= 0 {
		return fmt.Errorf("classifier.C must be positive, got %v", f.Classifier.C)
	}
	if f.Classifier.MaxIter <= 0 {
		return fmt.Errorf("classifier.max_iter must be positive, got %d", f.Classifier.MaxIter)
	}
	if w := f.Classifier.ClassWeight; w != "" && w != "balanced" {
		return fmt.Errorf("classifier.class_weight must be \"balanced\" or empty, got %q", w)
	}

	return nil
}

// Validate checks extraction parameters
func (e Extraction) Validate() error {
	if e.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", e.SampleRate)
	}
	if e.MaxDurationSeconds <= 0 {
		return fmt.Errorf("max_duration_seconds must be positive, got %v", e.MaxDurationSeconds)
	}
	if e.NFFT <= 0 {
		return fmt.Errorf("n_fft must be positive, got %d", e.NFFT)
	}
	if e.HopLength <= 0 {
		return fmt.Errorf("hop_length must be positive, got %d", e.HopLength)
	}
	if e.NMels <= 0 {
		return fmt.Errorf("n_mels must be positive, got %d", e.NMels)
	}
	return nil
}

// Equal reports whether two extraction configurations would produce
// identically-distributed feature vectors
func (e Extraction) Equal(other Extraction) bool {
	return e.SampleRate == other.SampleRate &&
		e.MaxDurationSeconds == other.MaxDurationSeconds &&
		e.NFFT == other.NFFT &&
		e.HopLength == other.HopLength &&
		e.NMels == other.NMels
}
