package feature

// VectorLength is the fixed length of the positional feature array
const VectorLength = 13

// Vector is the fixed-length descriptor summarizing one audio clip. Field
// order mirrors the positional array the classifier consumes: a trained
// model's coefficients are bound to that ordering, so reordering fields or
// Slice() invalidates every saved artifact.
type Vector struct {
	LogMelMean float64 `json:"logmel_mean"`
	LogMelStd  float64 `json:"logmel_std"`
	LogMelP10  float64 `json:"logmel_p10"`
	LogMelP50  float64 `json:"logmel_p50"`
	LogMelP90  float64 `json:"logmel_p90"`

	CentroidMean float64 `json:"centroid_mean"`
	CentroidStd  float64 `json:"centroid_std"`
	RolloffMean  float64 `json:"rolloff_mean"`
	RolloffStd   float64 `json:"rolloff_std"`
	ZCRMean      float64 `json:"zcr_mean"`
	ZCRStd       float64 `json:"zcr_std"`
	RMSMean      float64 `json:"rms_mean"`
	RMSStd       float64 `json:"rms_std"`
}

// Slice emits the positional array in the frozen order. Values are rounded
// through float32: the descriptor contract is 32-bit precision.
func (v Vector) Slice() []float64 {
	fields := [VectorLength]float64{
		v.LogMelMean,
		v.LogMelStd,
		v.LogMelP10,
		v.LogMelP50,
		v.LogMelP90,
		v.CentroidMean,
		v.CentroidStd,
		v.RolloffMean,
		v.RolloffStd,
		v.ZCRMean,
		v.ZCRStd,
		v.RMSMean,
		v.RMSStd,
	}

	out := make([]float64, VectorLength)
	for i, f := range fields {
		out[i] = float64(float32(f))
	}
	return out
}

// IsZero reports whether every field is exactly zero (the degenerate-input
// descriptor)
func (v Vector) IsZero() bool {
	return v == Vector{}
}
