package pipeline

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/keyframe-audio/pianissimo/audio"
	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/dataset"
	"github.com/keyframe-audio/pianissimo/feature"
	"github.com/keyframe-audio/pianissimo/logging"
)

// featurizeResult carries one manifest entry's outcome across the pool
type featurizeResult struct {
	example dataset.Example
	path    string
	err     error
}

// featurizeAll extracts feature vectors for every manifest entry using a
// bounded worker pool. Per-example decode failures are recorded and skipped,
// never fatal: one corrupt file must not abort a training run. Successes are
// returned sorted by path so downstream splitting sees a canonical order
// regardless of pool scheduling.
func featurizeAll(ctx context.Context, entries []dataset.ManifestEntry, cfg config.Extraction) (examples []dataset.Example, skipped []string) {
	logger := logging.WithFields(logging.Fields{
		"component": "featurize",
		"entries":   len(entries),
	})

	numWorkers := min(runtime.NumCPU(), len(entries))
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan dataset.ManifestEntry, len(entries))
	results := make(chan featurizeResult, len(entries))

	var wg sync.WaitGroup
	for _i := 0; _i < numWorkers; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				sig, err := audio.Load(ctx, entry.Path, cfg)
				if err != nil {
					results <- featurizeResult{path: entry.Path, err: err}
					continue
				}

				vec := feature.Extract(sig, cfg)
				results <- featurizeResult{
					example: dataset.Example{
						Path:     entry.Path,
						Label:    entry.Label,
						Features: vec.Slice(),
					},
					path: entry.Path,
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, entry := range entries {
			jobs <- entry
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		if res.err != nil {
			logger.Warn("skipping undecodable example", logging.Fields{
				"path":  res.path,
				"cause": res.err.Error(),
			})
			skipped = append(skipped, res.path)
			continue
		}
		examples = append(examples, res.example)
	}

	sort.Slice(examples, func(i, j int) bool { return examples[i].Path < examples[j].Path })
	sort.Strings(skipped)

	logger.Info("feature extraction finished", logging.Fields{
		"extracted": len(examples),
		"skipped":   len(skipped),
	})

	return examples, skipped
}
