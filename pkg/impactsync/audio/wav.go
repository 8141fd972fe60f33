package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

const pcmFormat = 1

// ReadWav decodes a PCM WAV file into a mono waveform normalized to [-1, 1].
// Multi-channel input is averaged.
func ReadWav(path string) (models.Waveform, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Waveform{}, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return models.Waveform{}, errors.New("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return models.Waveform{}, fmt.Errorf("decoding PCM: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return models.Waveform{}, errors.New("WAV file has no format information")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return models.Waveform{}, errors.New("WAV file reports zero channels")
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth < 8 || bitDepth > 32 {
		return models.Waveform{}, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	return models.Waveform{
		Samples:    downmix(buf.Data, channels, bitDepth),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// downmix converts interleaved integer PCM to mono float64.
func downmix(data []int, channels, bitDepth int) []float64 {
	scale := 1.0 / float64(int64(1)<<(uint(bitDepth)-1))
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		out[i] = sum / float64(channels) * scale
	}
	return out
}

// WriteWav encodes w as mono 16-bit PCM. Samples outside [-1, 1] are clipped.
func WriteWav(path string, w models.Waveform) error {
	return WriteWavDepth(path, w, 16)
}

// WriteWavDepth encodes w as mono PCM at bitDepth (16, 24 or 32).
// Samples outside [-1, 1] are clipped.
func WriteWavDepth(path string, w models.Waveform, bitDepth int) error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", models.ErrInvalidAudio, w.SampleRate)
	}
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, w.SampleRate, bitDepth, 1, pcmFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           quantize(w.Samples, bitDepth),
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding WAV: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("finalizing WAV: %w", err)
	}
	return f.Close()
}

func quantize(samples []float64, bitDepth int) []int {
	full := float64(int64(1)<<(uint(bitDepth)-1) - 1)
	out := make([]int, len(samples))
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		out[i] = int(math.Round(s * full))
	}
	return out
}
