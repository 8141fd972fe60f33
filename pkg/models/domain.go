package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAudio reports a waveform that cannot enter the audio pipeline.
var ErrInvalidAudio = errors.New("invalid audio state")

// PositionSample is one tracker observation. X == 0 or Y == 0 means "not detected".
type PositionSample struct {
	Frame int
	X     float64
	Y     float64
}

// Trajectory is a frame-ascending sequence of position samples.
type Trajectory []PositionSample

// CollisionType classifies an impact. Only Unknown is produced today.
type CollisionType int

const (
	CollisionUnknown CollisionType = iota
)

func (c CollisionType) String() string {
	switch c {
	case CollisionUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("CollisionType(%d)", int(c))
	}
}

// ParseCollisionType maps the persisted type label back to a CollisionType.
// The legacy "NA" label is accepted as Unknown.
func ParseCollisionType(s string) (CollisionType, error) {
	switch s {
	case "Unknown", "NA", "":
		return CollisionUnknown, nil
	default:
		return CollisionUnknown, fmt.Errorf("unknown collision type %q", s)
	}
}

// Velocity is an image-space velocity in pixels per frame.
type Velocity struct {
	VX float64
	VY float64
}

// Magnitude returns the Euclidean norm of the velocity.
func (v Velocity) Magnitude() float64 {
	return math.Hypot(v.VX, v.VY)
}

// CollisionEvent is a detected impact. IDs start at 1 and follow frame order.
type CollisionEvent struct {
	ID       int
	Frame    int
	Type     CollisionType
	Velocity Velocity
	// HasVelocity is false when too few samples preceded the event to
	// estimate a velocity; Velocity is then the zero value.
	HasVelocity bool
}

// Waveform is a mono signal.
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the waveform length in seconds.
func (w Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Clone returns a deep copy so transforms never alias the caller's samples.
func (w Waveform) Clone() Waveform {
	out := make([]float64, len(w.Samples))
	copy(out, w.Samples)
	return Waveform{Samples: out, SampleRate: w.SampleRate}
}

// Validate rejects empty waveforms, non-positive sample rates and NaN samples.
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidAudio, w.SampleRate)
	}
	if len(w.Samples) == 0 {
		return fmt.Errorf("%w: empty waveform", ErrInvalidAudio)
	}
	for i, s := range w.Samples {
		if math.IsNaN(s) {
			return fmt.Errorf("%w: NaN at sample %d", ErrInvalidAudio, i)
		}
	}
	return nil
}

// EffectConfig holds the four slider values of the effect chain.
type EffectConfig struct {
	VolumePercent  float64 // 100 = unity
	ReverbAmount   float64 // 0-100
	PitchSlider    float64 // 0-100, 50 = no shift
	NoiseReduction float64 // 0-100 pre-emphasis strength
}

// NeutralEffects leaves the signal untouched except for fade shaping.
func NeutralEffects() EffectConfig {
	return EffectConfig{VolumePercent: 100, ReverbAmount: 0, PitchSlider: 50, NoiseReduction: 0}
}

// Validate checks slider ranges.
func (c EffectConfig) Validate() error {
	if c.VolumePercent < 0 || math.IsNaN(c.VolumePercent) {
		return fmt.Errorf("volume must be >= 0, got %v", c.VolumePercent)
	}
	for name, v := range map[string]float64{
		"reverb":          c.ReverbAmount,
		"pitch":           c.PitchSlider,
		"noise_reduction": c.NoiseReduction,
	} {
		if v < 0 || v > 100 || math.IsNaN(v) {
			return fmt.Errorf("%s must be within [0,100], got %v", name, v)
		}
	}
	return nil
}

// ImpactPeak is the salient transient of a waveform.
type ImpactPeak struct {
	SampleIndex int
	Time        float64 // SampleIndex / SampleRate
	Energy      float64
}

// CompositeInstance is one gain-scaled copy of the processed clip on the output track.
type CompositeInstance struct {
	EventID   int
	StartTime float64 // seconds on the output track, never negative
	// TrimStart is how many seconds of the source are skipped because the
	// unclamped start time was negative.
	TrimStart float64
	Gain      float64
	Source    *Waveform
}
