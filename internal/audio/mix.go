package audio

import "fmt"

// Mix combines a speech waveform and a noise waveform into one new
// waveform, simulating speech recorded over background noise or music.
// Both inputs are aligned to the shorter duration (the longer one is
// truncated) and each output sample is the average of the two inputs,
// which keeps the result inside the valid amplitude range. The same two
// inputs always produce the same output, and duration order between the
// arguments does not matter.
func Mix(speech, noise *File) (*File, error) {
	if speech == nil || len(speech.Samples) == 0 || noise == nil || len(noise.Samples) == 0 {
		return nil, ErrNoSamples
	}
	if speech.Rate != noise.Rate {
		return nil, fmt.Errorf("%w: %d Hz vs %d Hz", ErrRateMismatch, speech.Rate, noise.Rate)
	}

	n := len(speech.Samples)
	if len(noise.Samples) < n {
		n = len(noise.Samples)
	}

	mixed := make([]float64, n)
	for i := 0; i < n; i++ {
		mixed[i] = clamp((speech.Samples[i] + noise.Samples[i]) * 0.5)
	}

	return &File{
		Samples: mixed,
		Rate:    speech.Rate,
		Source:  joinSources(speech.Source, noise.Source),
	}, nil
}

func joinSources(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "+" + b
	}
}

func clamp(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
