package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"github.com/keyframe-audio/pianissimo/config"
)

// ffmpegPath is the binary used for non-native containers (mp3, m4a, flac...)
var ffmpegPath = "ffmpeg"

// decodeWithFFmpeg decodes any container ffmpeg understands into mono
// float64 samples at cfg.SampleRate, capped at cfg.MaxDurationSeconds.
// Output format is raw f64le piped over stdout, so no temp files are needed.
func decodeWithFFmpeg(ctx context.Context, path string, cfg config.Extraction) ([]float64, error) {
	args := []string{
		"-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-t", fmt.Sprintf("%.3f", cfg.MaxDurationSeconds),
		"-f", "f64le", // raw float64 little-endian
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)

	output, err := cmd.Output()
	if err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, string(exitError.Stderr))
		}
		return nil, fmt.Errorf("ffmpeg failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded")
	}

	return samples, nil
}

// bytesToFloat64 converts raw float64 little-endian bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := 0; i < sampleCount; i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}
