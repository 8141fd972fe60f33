package diagnostics

import (
	"fmt"
	"image"
	"image/draw"
	"path/filepath"

	"github.com/eligwz/spectrogram"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
)

const (
	SpectrogramWidth  = 2048
	SpectrogramHeight = 512
)

// RenderSpectrogram saves a linear-magnitude spectrogram of w as a PNG.
func RenderSpectrogram(w models.Waveform, path string) error {
	if err := w.Validate(); err != nil {
		return err
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, SpectrogramWidth, SpectrogramHeight))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude, linear scale
	spectrogram.Drawfft(
		img,
		w.Samples,
		uint32(w.SampleRate),
		uint32(SpectrogramHeight),
		false,
		false,
		true,
		false,
	)

	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("saving spectrogram: %w", err)
	}
	return nil
}
