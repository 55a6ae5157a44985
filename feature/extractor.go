package feature

import (
	"github.com/keyframe-audio/pianissimo/audio"
	"github.com/keyframe-audio/pianissimo/config"
	"github.com/keyframe-audio/pianissimo/dsp"
)

// logFloor keeps silent time-frequency bins finite on the dB scale
const logFloor = 1e-10

// Extract maps a decoded signal to its fixed-length descriptor. Pure and
// deterministic: the same (signal, cfg) pair always yields bit-identical
// output. A zero-length signal yields the all-zero Vector, which is the
// defined degenerate-input descriptor, not an error; genuine decode failures
// are raised earlier by the loader.
func Extract(sig *audio.Signal, cfg config.Extraction) Vector {
	if sig == nil || len(sig.Samples) == 0 {
		return Vector{}
	}

	signal := sig.Samples
	sampleRate := cfg.SampleRate

	window := dsp.NewHann(cfg.NFFT, false)
	stft := dsp.NewSTFT()

	result, err := stft.ComputeWithWindow(signal, cfg.NFFT, cfg.HopLength, sampleRate, window)
	if err != nil {
		// Shorter than one frame: summarize what we can from single-frame
		// time-domain features and leave spectral fields at zero.
		return shortSignalVector(signal)
	}

	power := result.PowerSpectrogram()

	mel := dsp.NewMelScale()
	melSpec := mel.MelSpectrogram(power, cfg.NMels, cfg.NFFT, sampleRate)
	logMel := dsp.PowerToDB(melSpec, logFloor)
	flat := dsp.Flatten(logMel)

	centroid := dsp.NewSpectralCentroid(sampleRate).ComputeFrames(result.Magnitude)
	rolloff := dsp.NewSpectralRolloff(sampleRate).ComputeFrames(result.Magnitude, dsp.RolloffThreshold)
	zcr := dsp.NewZeroCrossingRate(cfg.NFFT, cfg.HopLength).ComputeFrames(signal)
	rms := dsp.NewEnergy(cfg.NFFT, cfg.HopLength).ComputeShortTimeRMS(signal)

	return Vector{
		LogMelMean: dsp.Mean(flat),
		LogMelStd:  dsp.StdDev(flat),
		LogMelP10:  dsp.Percentile(flat, 10),
		LogMelP50:  dsp.Percentile(flat, 50),
		LogMelP90:  dsp.Percentile(flat, 90),

		CentroidMean: dsp.Mean(centroid),
		CentroidStd:  dsp.StdDev(centroid),
		RolloffMean:  dsp.Mean(rolloff),
		RolloffStd:   dsp.StdDev(rolloff),
		ZCRMean:      dsp.Mean(zcr),
		ZCRStd:       dsp.StdDev(zcr),
		RMSMean:      dsp.Mean(rms),
		RMSStd:       dsp.StdDev(rms),
	}
}

// shortSignalVector summarizes a signal shorter than one analysis frame.
// Frame series degenerate to a single whole-signal frame.
func shortSignalVector(signal []float64) Vector {
	zcrCalc := dsp.NewZeroCrossingRate(len(signal), len(signal))
	rmsCalc := dsp.NewEnergy(len(signal), len(signal))

	zcr := zcrCalc.ComputeFrames(signal)
	rms := rmsCalc.ComputeShortTimeRMS(signal)

	return Vector{
		ZCRMean: dsp.Mean(zcr),
		RMSMean: dsp.Mean(rms),
	}
}
