// Package audio decodes, transforms and encodes the waveforms the
// dataset is built from. Waveforms are mono float64 slices in [-1, 1];
// every transformation returns a new File and leaves its inputs alone.
package audio

import (
	"errors"
	"time"
)

var (
	// ErrRateMismatch reports two waveforms that cannot be mixed
	// because their sample rates differ. The pipeline converts all
	// material to one rate before mixing, so hitting this means a
	// setup problem and the operation aborts.
	ErrRateMismatch = errors.New("sample rate mismatch")

	// ErrNoSamples reports an empty waveform where audio was expected.
	ErrNoSamples = errors.New("no samples")
)

// File is a decoded mono waveform with its sample rate and the archive
// identifier it came from. Mixed waveforms carry both identifiers.
type File struct {
	Samples []float64
	Rate    int
	Source  string
}

// Duration returns the playable length of the waveform.
func (f *File) Duration() time.Duration {
	if f == nil || f.Rate <= 0 {
		return 0
	}
	seconds := float64(len(f.Samples)) / float64(f.Rate)
	return time.Duration(seconds * float64(time.Second))
}
