package composite

import (
	"errors"
	"fmt"
	"math"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/peaks"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"gonum.org/v1/gonum/floats"
)

// ErrInvalidTiming reports a non-positive frame rate or track duration.
var ErrInvalidTiming = errors.New("invalid timing")

// Logger is the subset of the project logger the synchronizer needs.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}

// Plan is the placement of every event on the output track.
type Plan struct {
	Anchor      float64 // seconds into the processed clip
	AnchorFound bool
	Gain        string
	Instances   []models.CompositeInstance
}

// Synchronizer places a processed clip at each collision so that the clip's
// own impact peak lands on the collision frame.
type Synchronizer struct {
	gain GainPolicy
	log  Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithGainPolicy overrides the default VelocityGain.
func WithGainPolicy(g GainPolicy) Option {
	return func(s *Synchronizer) {
		if g != nil {
			s.gain = g
		}
	}
}

func WithLogger(l Logger) Option {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

func NewSynchronizer(opts ...Option) *Synchronizer {
	s := &Synchronizer{gain: VelocityGain{}, log: nopLogger{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Plan computes one instance per event. An instance whose start would be
// negative starts at 0 with the leading part of the clip trimmed instead.
func (s *Synchronizer) Plan(events []models.CollisionEvent, processed *models.Waveform, fps float64) (*Plan, error) {
	if processed == nil {
		return nil, fmt.Errorf("%w: no processed waveform", models.ErrInvalidAudio)
	}
	if fps <= 0 || math.IsNaN(fps) || math.IsInf(fps, 0) {
		return nil, fmt.Errorf("%w: fps %v", ErrInvalidTiming, fps)
	}

	peak, err := peaks.FindFirstPeak(*processed)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}

	plan := &Plan{Gain: s.gain.Name()}
	if peak != nil {
		plan.Anchor = peak.Time
		plan.AnchorFound = true
	}
	s.log.Debugf("Anchor at %.4fs (found=%t)", plan.Anchor, plan.AnchorFound)

	gains := s.gain.Gains(events)
	plan.Instances = make([]models.CompositeInstance, 0, len(events))
	for i, e := range events {
		start := float64(e.Frame)/fps - plan.Anchor
		inst := models.CompositeInstance{
			EventID:   e.ID,
			StartTime: start,
			Gain:      clamp01(gains[i]),
			Source:    processed,
		}
		if start < 0 {
			inst.StartTime = 0
			inst.TrimStart = -start
		}
		plan.Instances = append(plan.Instances, inst)
	}
	return plan, nil
}

// Mix sums the instances into one track of duration seconds at sampleRate.
// Instances are truncated at the end of the track and gaps stay silent.
func Mix(instances []models.CompositeInstance, sampleRate int, duration float64) (models.Waveform, error) {
	if sampleRate <= 0 {
		return models.Waveform{}, fmt.Errorf("%w: sample rate %d", models.ErrInvalidAudio, sampleRate)
	}
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return models.Waveform{}, fmt.Errorf("%w: duration %v", ErrInvalidTiming, duration)
	}

	track := make([]float64, int(math.Round(duration*float64(sampleRate))))
	for _, inst := range instances {
		if inst.Source == nil || inst.Gain == 0 {
			continue
		}
		if inst.Source.SampleRate != sampleRate {
			return models.Waveform{}, fmt.Errorf("%w: instance %d at %d Hz, track at %d Hz",
				models.ErrInvalidAudio, inst.EventID, inst.Source.SampleRate, sampleRate)
		}

		src := inst.Source.Samples
		if trim := int(math.Round(inst.TrimStart * float64(sampleRate))); trim > 0 {
			if trim >= len(src) {
				continue
			}
			src = src[trim:]
		}
		offset := int(math.Round(inst.StartTime * float64(sampleRate)))
		if offset >= len(track) {
			continue
		}
		n := min(len(src), len(track)-offset)
		floats.AddScaled(track[offset:offset+n], inst.Gain, src[:n])
	}
	return models.Waveform{Samples: track, SampleRate: sampleRate}, nil
}

// Compose plans and mixes in one step.
func (s *Synchronizer) Compose(events []models.CollisionEvent, processed *models.Waveform, fps, duration float64) (models.Waveform, *Plan, error) {
	plan, err := s.Plan(events, processed, fps)
	if err != nil {
		return models.Waveform{}, nil, err
	}
	track, err := Mix(plan.Instances, processed.SampleRate, duration)
	if err != nil {
		return models.Waveform{}, nil, err
	}
	s.log.Debugf("Mixed %d instances into %.2fs track", len(plan.Instances), duration)
	return track, plan, nil
}
