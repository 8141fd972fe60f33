package effects

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	stftSize = 2048
	stftHop  = 512
)

// PitchShift moves x by semitones without changing its length. A phase
// vocoder first stretches time (a rate below 1 lengthens the signal), then
// linear resampling squeezes the result back to len(x) samples, which scales
// every frequency by 1/rate.
func PitchShift(x []float64, semitones float64) []float64 {
	if semitones == 0 || len(x) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}

	rate := math.Pow(2, -semitones/12)
	spec := stft(x)
	stretched := istft(phaseVocoder(spec, rate), int(math.Round(float64(len(x))/rate)))
	return resample(stretched, len(x))
}

// stft returns one-sided spectra of Hann-windowed frames. The signal is
// zero-padded by half a window on both sides so frames are centered.
func stft(x []float64) [][]complex128 {
	pad := stftSize / 2
	padded := make([]float64, len(x)+2*pad)
	copy(padded[pad:], x)

	win := window.Hann(stftSize)
	bins := stftSize/2 + 1
	var frames [][]complex128
	frame := make([]float64, stftSize)
	for start := 0; start+stftSize <= len(padded); start += stftHop {
		for i := range frame {
			frame[i] = padded[start+i] * win[i]
		}
		full := fft.FFTReal(frame)
		frames = append(frames, append([]complex128(nil), full[:bins]...))
	}
	return frames
}

// phaseVocoder resamples a spectrogram in time by rate (>1 is faster).
func phaseVocoder(spec [][]complex128, rate float64) [][]complex128 {
	if len(spec) == 0 {
		return nil
	}
	bins := len(spec[0])

	advance := make([]float64, bins)
	for k := range advance {
		advance[k] = 2 * math.Pi * stftHop * float64(k) / stftSize
	}

	phase := make([]float64, bins)
	for k := range phase {
		phase[k] = cmplx.Phase(spec[0][k])
	}

	column := func(t int) []complex128 {
		if t < len(spec) {
			return spec[t]
		}
		return make([]complex128, bins)
	}

	var out [][]complex128
	for step := 0.0; step < float64(len(spec)); step += rate {
		t := int(step)
		frac := step - float64(t)
		c0, c1 := column(t), column(t+1)

		frame := make([]complex128, bins)
		for k := 0; k < bins; k++ {
			mag := (1-frac)*cmplx.Abs(c0[k]) + frac*cmplx.Abs(c1[k])
			frame[k] = cmplx.Rect(mag, phase[k])

			dphase := cmplx.Phase(c1[k]) - cmplx.Phase(c0[k]) - advance[k]
			dphase -= 2 * math.Pi * math.Round(dphase/(2*math.Pi))
			phase[k] += advance[k] + dphase
		}
		out = append(out, frame)
	}
	return out
}

// istft overlap-adds Hann-windowed inverse frames and trims the centering
// pad, returning exactly length samples.
func istft(spec [][]complex128, length int) []float64 {
	out := make([]float64, length)
	if len(spec) == 0 || length == 0 {
		return out
	}

	pad := stftSize / 2
	total := stftSize + stftHop*(len(spec)-1)
	acc := make([]float64, total)
	norm := make([]float64, total)
	win := window.Hann(stftSize)

	full := make([]complex128, stftSize)
	for t, frame := range spec {
		bins := len(frame)
		for k := 0; k < bins; k++ {
			full[k] = frame[k]
		}
		for k := 1; k < stftSize-bins+1; k++ {
			full[stftSize-k] = cmplx.Conj(frame[k])
		}
		td := fft.IFFT(full)

		start := t * stftHop
		for i := 0; i < stftSize; i++ {
			acc[start+i] += real(td[i]) * win[i]
			norm[start+i] += win[i] * win[i]
		}
	}

	for i := range out {
		j := i + pad
		if j >= total {
			break
		}
		if norm[j] > 1e-8 {
			out[i] = acc[j] / norm[j]
		}
	}
	return out
}

// resample stretches x to n samples by linear interpolation.
func resample(x []float64, n int) []float64 {
	out := make([]float64, n)
	if len(x) == 0 || n == 0 {
		return out
	}
	if len(x) == 1 || n == 1 {
		for i := range out {
			out[i] = x[0]
		}
		return out
	}

	ratio := float64(len(x)-1) / float64(n-1)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(x)-1 {
			out[i] = x[len(x)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = x[j]*(1-frac) + x[j+1]*frac
	}
	return out
}
