package audio

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/logging"
)

// Load decodes an audio file into mono samples at cfg.SampleRate, truncated
// (never padded) to cfg.MaxDurationSeconds. WAV and AIFF are decoded
// natively; everything else goes through ffmpeg. Any failure surfaces as a
// *DecodeError so batch callers can skip-and-log.
func Load(ctx context.Context, path string, cfg config.Extraction) (*Signal, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "signal_loader",
		"path":      path,
	})

	logger.Debug("decoding audio file")

	var (
		samples []float64
		rate    int
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, rate, err = decodeWAV(path)
	case ".aiff", ".aif":
		samples, rate, err = decodeAIFF(path)
	default:
		// ffmpeg resamples and truncates in one pass
		samples, err = decodeWithFFmpeg(ctx, path, cfg)
		rate = cfg.SampleRate
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	if rate != cfg.SampleRate {
		samples = resampleLinear(samples, rate, cfg.SampleRate)
		rate = cfg.SampleRate
	}

	maxSamples := int(cfg.MaxDurationSeconds * float64(rate))
	if len(samples) > maxSamples {
		samples = samples[:maxSamples]
	}

	sig := NewSignal(samples, rate)

	logger.Debug("decoded audio file", logging.Fields{
		"samples":  len(sig.Samples),
		"duration": sig.Duration,
	})

	return sig, nil
}

func decodeWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, os.ErrInvalid
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	samples := toMonoFloat(buf, int(decoder.BitDepth))
	return samples, buf.Format.SampleRate, nil
}

func decodeAIFF(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := aiff.NewDecoder(f)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	samples := toMonoFloat(buf, int(decoder.BitDepth))
	return samples, buf.Format.SampleRate, nil
}

// toMonoFloat averages interleaved channels and scales integer PCM to [-1, 1]
func toMonoFloat(buf *goaudio.IntBuffer, bitDepth int) []float64 {
	if buf == nil || len(buf.Data) == 0 {
		return []float64{}
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	numFrames := len(buf.Data) / channels
	samples := make([]float64, numFrames)

	for i := 0; i < numFrames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) / scale
	}

	return samples
}

// resampleLinear converts samples between rates with linear interpolation
func resampleLinear(samples []float64, fromRate, toRate int) []float64 {
	if fromRate == toRate || len(samples) == 0 || fromRate <= 0 || toRate <= 0 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		return []float64{}
	}

	out := make([]float64, outLen)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1.0-frac) + samples[idx+1]*frac
	}

	return out
}
