package audio

import (
	"math"
	"testing"
)

func TestNormalizePeak(t *testing.T) {
	in := &File{Samples: []float64{0.1, -0.25, 0.2}, Rate: 8000}
	out := NormalizePeak(in, 0.9)

	if got := Peak(out.Samples); math.Abs(got-0.9) > 1e-12 {
		t.Errorf("normalized peak = %f, want 0.9", got)
	}
	// Input must be untouched.
	if in.Samples[1] != -0.25 {
		t.Errorf("input was modified: %f", in.Samples[1])
	}
	// Relative shape preserved.
	if math.Abs(out.Samples[0]-0.36) > 1e-12 {
		t.Errorf("sample 0 = %f, want 0.36", out.Samples[0])
	}
}

func TestNormalizePeakSilence(t *testing.T) {
	in := &File{Samples: make([]float64, 100), Rate: 8000}
	out := NormalizePeak(in, 0.9)

	for i, s := range out.Samples {
		if s != 0 {
			t.Fatalf("silent sample %d became %f", i, s)
		}
	}
}

func TestPeak(t *testing.T) {
	if got := Peak([]float64{0.3, -0.6, 0.1}); got != 0.6 {
		t.Errorf("Peak = %f, want 0.6", got)
	}
	if got := Peak(nil); got != 0 {
		t.Errorf("Peak(nil) = %f, want 0", got)
	}
}

func TestRMS(t *testing.T) {
	want := math.Sqrt((0.09 + 0.36) / 2)
	if got := RMS([]float64{0.3, -0.6}); math.Abs(got-want) > 1e-12 {
		t.Errorf("RMS = %f, want %f", got, want)
	}
	if got := RMS(nil); got != 0 {
		t.Errorf("RMS(nil) = %f, want 0", got)
	}
}
