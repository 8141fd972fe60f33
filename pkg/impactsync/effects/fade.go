package effects

import (
	"math"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/peaks"
	"github.com/himanishpuri/ImpactSync/pkg/models"
)

const (
	// PreImpactGain scales the lead-in before the impact peak.
	PreImpactGain = 0.2
	// FadeDepth makes the tail decay by e^-FadeDepth at the end of the clip.
	FadeDepth = 5.0
)

func expDecay(alpha float64, k int) float64 {
	return math.Exp(-alpha * float64(k))
}

// FadeFromPeak attenuates samples before the first impact peak to 20% and
// multiplies the rest by exp(-5*(i-p)/(n-p)). It works in place and returns
// the peak used, or nil when the signal has none and is left unchanged.
func FadeFromPeak(samples []float64, sampleRate int) (*models.ImpactPeak, error) {
	peak, err := peaks.FindFirstPeak(models.Waveform{Samples: samples, SampleRate: sampleRate})
	if err != nil || peak == nil {
		return nil, err
	}

	p := peak.SampleIndex
	for i := 0; i < p; i++ {
		samples[i] *= PreImpactGain
	}
	alpha := FadeDepth / float64(len(samples)-p)
	for i := p; i < len(samples); i++ {
		samples[i] *= expDecay(alpha, i-p)
	}
	return peak, nil
}
