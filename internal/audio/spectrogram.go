package audio

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"
)

// SaveSpectrogramPNG renders a spectrogram image of a WAV file for
// visual spot checks of dataset material. Zero width/height select a
// 2048x512 image.
func SaveSpectrogramPNG(wavPath, pngPath string, width, height int) error {
	f, err := ReadWAV(wavPath)
	if err != nil {
		return err
	}
	if len(f.Samples) == 0 {
		return fmt.Errorf("%s: %w", wavPath, ErrNoSamples)
	}

	if width <= 0 {
		width = 2048
	}
	if height <= 0 {
		height = 512
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, width, height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// FFT with a Hamming window, linear magnitude scale
	spectrogram.Drawfft(
		img,
		f.Samples,
		uint32(f.Rate),
		uint32(height),
		false, // RECTANGLE (use Hamming window)
		false, // DFT (use FFT instead)
		true,  // MAG (magnitude)
		false, // LOG10 (linear scale)
	)

	return spectrogram.SavePng(img, pngPath)
}
