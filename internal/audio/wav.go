package audio

import (
	"fmt"
	"math"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ReadWAV decodes a PCM WAV file into a mono waveform. Multi-channel
// input is averaged down to one channel; integer samples are scaled by
// 1/2^(bits-1) into [-1, 1].
func ReadWAV(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read samples from %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int(1) << uint(bitDepth-1))

	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i+c])
		}
		samples = append(samples, sum/float64(channels)/scale)
	}

	return &File{Samples: samples, Rate: buf.Format.SampleRate}, nil
}

// WriteWAV encodes a waveform as 16-bit mono PCM WAV. Samples outside
// [-1, 1] are clamped.
func WriteWAV(path string, f *File) error {
	if f == nil || len(f.Samples) == 0 {
		return fmt.Errorf("%w: nothing to write", ErrNoSamples)
	}
	if f.Rate <= 0 {
		return fmt.Errorf("invalid sample rate %d", f.Rate)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	enc := wav.NewEncoder(out, f.Rate, 16, 1, 1)
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: f.Rate},
		Data:           make([]int, len(f.Samples)),
		SourceBitDepth: 16,
	}
	for i, s := range f.Samples {
		buf.Data[i] = int(math.Round(clamp(s) * 32767))
	}

	if err := enc.Write(buf); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(path)
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return out.Close()
}
