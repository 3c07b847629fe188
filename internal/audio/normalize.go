package audio

import "math"

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	peak := 0.0
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

// RMS returns the root mean square level of the waveform.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// NormalizePeak rescales a waveform so its peak magnitude equals target.
// Silence comes back unchanged. The input is not modified.
func NormalizePeak(f *File, target float64) *File {
	out := &File{
		Samples: make([]float64, len(f.Samples)),
		Rate:    f.Rate,
		Source:  f.Source,
	}
	peak := Peak(f.Samples)
	if peak == 0 || target <= 0 {
		copy(out.Samples, f.Samples)
		return out
	}
	gain := target / peak
	for i, s := range f.Samples {
		out.Samples[i] = clamp(s * gain)
	}
	return out
}
