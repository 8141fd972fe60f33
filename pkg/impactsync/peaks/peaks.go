package peaks

import (
	"math"

	"github.com/himanishpuri/ImpactSync/pkg/models"
	"gonum.org/v1/gonum/floats"
)

const (
	// HeightRatio is the fraction of the envelope maximum a peak must reach.
	HeightRatio = 0.7
	// SpacingDivisor sets the minimum peak spacing to SampleRate/SpacingDivisor samples.
	SpacingDivisor = 10
)

// Envelope returns the absolute-amplitude energy envelope of samples.
func Envelope(samples []float64) []float64 {
	env := make([]float64, len(samples))
	for i, s := range samples {
		env[i] = math.Abs(s)
	}
	return env
}

// localMaxima returns indices of strict local maxima. A flat plateau counts
// once, at its midpoint. The first and last samples are never maxima.
func localMaxima(x []float64) []int {
	var out []int
	n := len(x)
	i := 1
	for i < n-1 {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
				continue
			}
		}
		i++
	}
	return out
}

// FindPeaks returns envelope maxima at least HeightRatio of the global maximum,
// scanned left to right, dropping any candidate closer than minDistance
// samples to the previously accepted peak.
func FindPeaks(env []float64, minDistance int) []int {
	if len(env) < 3 {
		return nil
	}
	if minDistance < 1 {
		minDistance = 1
	}
	height := floats.Max(env) * HeightRatio

	var accepted []int
	for _, idx := range localMaxima(env) {
		if env[idx] < height {
			continue
		}
		if len(accepted) > 0 && idx-accepted[len(accepted)-1] < minDistance {
			continue
		}
		accepted = append(accepted, idx)
	}
	return accepted
}

// FindFirstPeak locates the earliest salient transient of w. It returns nil
// when no sample qualifies.
func FindFirstPeak(w models.Waveform) (*models.ImpactPeak, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}

	env := Envelope(w.Samples)
	found := FindPeaks(env, w.SampleRate/SpacingDivisor)
	if len(found) == 0 {
		return nil, nil
	}

	idx := found[0]
	return &models.ImpactPeak{
		SampleIndex: idx,
		Time:        float64(idx) / float64(w.SampleRate),
		Energy:      env[idx],
	}, nil
}

// AnchorTime returns the time of the first peak, or 0 when there is none.
func AnchorTime(w models.Waveform) (float64, error) {
	p, err := FindFirstPeak(w)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, nil
	}
	return p.Time, nil
}
