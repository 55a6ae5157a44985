package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/keyframe-audio/pianissimo/classifier"
	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/dataset"
	"github.com/keyframe-audio/pianissimo/logging"
)

// EvaluationReport is the training run's scoring document, written alongside
// the model artifact
type EvaluationReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	ValReport  map[string]classifier.ClassMetrics `json:"val_report"`
	TestReport map[string]classifier.ClassMetrics `json:"test_report"`
	ValAUC     float64                            `json:"val_auc"`
	TestAUC    float64                            `json:"test_auc"`

	NumSamples   int      `json:"num_samples"`
	SkippedPaths []string `json:"skipped_paths,omitempty"`
}

// Train runs the full pipeline: manifest -> features -> stratified split ->
// fit -> evaluate -> persist. The artifact and report are only written after
// every earlier stage succeeded, so a failed run leaves no misleading
// outputs behind.
func Train(ctx context.Context, cfg config.File, manifestPath, modelOut, reportOut string) (*EvaluationReport, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "trainer",
		"manifest":  manifestPath,
	})

	entries, err := dataset.ReadManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	examples, skipped := featurizeAll(ctx, entries, cfg.Extraction)
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples could be decoded from %s", manifestPath)
	}

	splits, err := dataset.Split(examples, dataset.Ratios{
		Train: cfg.TrainSplit,
		Val:   cfg.ValSplit,
		Test:  cfg.TestSplit,
	}, cfg.Seed)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset partitioned", logging.Fields{
		"train": len(splits.Train),
		"val":   len(splits.Val),
		"test":  len(splits.Test),
	})

	XTrain, yTrain := dataset.Matrix(splits.Train)
	model, err := classifier.Fit(XTrain, yTrain, cfg.Classifier, cfg.Extraction)
	if err != nil {
		return nil, err
	}

	XVal, yVal := dataset.Matrix(splits.Val)
	XTest, yTest := dataset.Matrix(splits.Test)
	valReport := classifier.Evaluate(model, XVal, yVal)
	testReport := classifier.Evaluate(model, XTest, yTest)

	if err := classifier.SaveArtifact(model, modelOut); err != nil {
		return nil, err
	}

	report := &EvaluationReport{
		RunID:        uuid.NewString(),
		GeneratedAt:  time.Now().UTC(),
		ValReport:    valReport.PerClass,
		TestReport:   testReport.PerClass,
		ValAUC:       valReport.AUC,
		TestAUC:      testReport.AUC,
		NumSamples:   len(examples),
		SkippedPaths: skipped,
	}

	if err := writeJSON(reportOut, report); err != nil {
		return nil, err
	}

	logger.Info("training run complete", logging.Fields{
		"run_id":   report.RunID,
		"val_auc":  report.ValAUC,
		"test_auc": report.TestAUC,
		"model":    modelOut,
		"report":   reportOut,
	})

	return report, nil
}

// writeJSON persists a document through a temp file and rename
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize %s: %w", path, err)
	}

	return nil
}
