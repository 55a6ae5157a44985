package dataset

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/keyframe-audio/pianissimo/logging"
)

// ManifestSeed fixes the manifest shuffle so repeated assembly over the same
// tree yields the same row order
const ManifestSeed = 42

// audioExtensions are the containers the loader can decode
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".wma":  true,
	".flac": true,
	".aiff": true,
	".aif":  true,
}

// labeledDirs maps raw-data subdirectories to labels. Mixed clips contain
// piano and count as positives.
var labeledDirs = []struct {
	name  string
	label int
}{
	{"piano", LabelPiano},
	{"non_piano", LabelNonPiano},
	{"mixed", LabelPiano},
}

// BuildManifest walks root's labeled subdirectories, collects audio files,
// dedupes by path and shuffles with a fixed seed. Fails when no audio files
// are found at all.
func BuildManifest(root string) ([]ManifestEntry, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "manifest",
		"root":      root,
	})

	var entries []ManifestEntry
	seen := make(map[string]bool)

	for _, dir := range labeledDirs {
		base := filepath.Join(root, dir.name)
		if _, err := os.Stat(base); err != nil {
			continue
		}

		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !audioExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}
			if seen[path] {
				return nil
			}
			seen[path] = true
			entries = append(entries, ManifestEntry{Path: path, Label: dir.label})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", base, err)
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no audio files found under %s", root)
	}

	// Deterministic order before the seeded shuffle
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	rng := rand.New(rand.NewSource(ManifestSeed))
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	counts := map[int]int{}
	for _, e := range entries {
		counts[e.Label]++
	}

	logger.Info("manifest assembled", logging.Fields{
		"total":          len(entries),
		"piano_or_mixed": counts[LabelPiano],
		"non_piano":      counts[LabelNonPiano],
	})

	return entries, nil
}

// WriteManifest writes entries as a path,label CSV
func WriteManifest(entries []ManifestEntry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"path", "label"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := w.Write([]string{e.Path, strconv.Itoa(e.Label)}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ReadManifest parses a path,label CSV, validating labels are 0 or 1
func ReadManifest(path string) ([]ManifestEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("manifest %s is empty", path)
	}

	// Skip the header row if present
	start := 0
	if rows[0][0] == "path" {
		start = 1
	}

	entries := make([]ManifestEntry, 0, len(rows)-start)
	for i, row := range rows[start:] {
		if len(row) < 2 {
			return nil, fmt.Errorf("manifest %s row %d: expected path,label", path, i+start+1)
		}
		label, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || (label != LabelNonPiano && label != LabelPiano) {
			return nil, fmt.Errorf("manifest %s row %d: invalid label %q", path, i+start+1, row[1])
		}
		entries = append(entries, ManifestEntry{Path: row[0], Label: label})
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest %s has no data rows", path)
	}

	return entries, nil
}
