package audio

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Tunables
const (
	WindowSize = 1024
	HopSize    = 256
)

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Spectrogram computes a time-major magnitude spectrogram
// (spectrogram[frame][bin], positive frequencies only) using a Hamming
// window. Zero windowSize/hopSize select the package defaults.
func Spectrogram(samples []float64, windowSize, hopSize int) ([][]float64, error) {
	if windowSize == 0 {
		windowSize = WindowSize
	}
	if hopSize == 0 {
		hopSize = HopSize
	}
	if len(samples) < windowSize {
		return nil, errors.New("input shorter than window size")
	}

	window := Hamming(windowSize)
	frame := make([]float64, windowSize)

	var spectrogram [][]float64
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		copy(frame, samples[start:start+windowSize])
		for i := 0; i < windowSize; i++ {
			frame[i] *= window[i]
		}
		spec := fft.FFTReal(frame)

		mag := make([]float64, windowSize/2)
		for i := range mag {
			mag[i] = cmplx.Abs(spec[i])
		}
		spectrogram = append(spectrogram, mag)
	}
	return spectrogram, nil
}

// SpectralCentroid returns the magnitude-weighted mean frequency of the
// waveform in Hz. Speech tends to sit well below music and broadband
// noise, which makes the centroid a quick sanity signal when auditing
// fetched material.
func SpectralCentroid(samples []float64, rate int) (float64, error) {
	spec, err := Spectrogram(samples, 0, 0)
	if err != nil {
		return 0, err
	}

	binHz := float64(rate) / float64(WindowSize)
	var weighted, total float64
	for _, frame := range spec {
		for k, mag := range frame {
			weighted += float64(k) * binHz * mag
			total += mag
		}
	}
	if total == 0 {
		return 0, nil
	}
	return weighted / total, nil
}
