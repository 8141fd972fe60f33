package effects

import (
	"context"
	"fmt"

	"github.com/himanishpuri/ImpactSync/pkg/models"
	"gonum.org/v1/gonum/floats"
)

// Logger is the subset of the project logger the processor needs.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Warnf(string, ...any)  {}

// Report records what each step of one Apply call did.
type Report struct {
	Volume         float64
	PitchSemitones float64 // 0 when skipped
	PreEmphasis    float64 // 0 when skipped
	Reverb         ReverbOutcome
	Fade           *models.ImpactPeak // nil when no peak was found
}

// Processor runs the fixed effect chain. It carries collaborators only; the
// effect parameters are supplied per call.
type Processor struct {
	reverb Reverberator
	log    Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithReverberator sets the reverb engine.
func WithReverberator(r Reverberator) Option {
	return func(p *Processor) {
		p.reverb = r
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// NewProcessor returns a processor backed by SoX for reverb unless overridden.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		reverb: &SoxReverb{},
		log:    nopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply runs volume, pitch shift, noise reduction, reverb and fade shaping,
// in that order, on a copy of w.
func (p *Processor) Apply(ctx context.Context, w models.Waveform, cfg models.EffectConfig) (models.Waveform, Report, error) {
	var rep Report
	if err := w.Validate(); err != nil {
		return models.Waveform{}, rep, err
	}
	if err := cfg.Validate(); err != nil {
		return models.Waveform{}, rep, fmt.Errorf("effect config: %w", err)
	}

	y := w.Clone()

	// 1. volume
	rep.Volume = cfg.VolumePercent / 100
	floats.Scale(rep.Volume, y.Samples)
	p.log.Debugf("Volume scaled by %.2f", rep.Volume)

	// 2. pitch
	if cfg.PitchSlider != 50 {
		rep.PitchSemitones = (cfg.PitchSlider - 50) / 10
		y.Samples = PitchShift(y.Samples, rep.PitchSemitones)
		p.log.Debugf("Pitch shifted by %.1f semitones", rep.PitchSemitones)
	}

	// 3. noise reduction
	if cfg.NoiseReduction != 0 {
		rep.PreEmphasis = cfg.NoiseReduction / 100
		y.Samples = PreEmphasis(y.Samples, rep.PreEmphasis)
		p.log.Debugf("Pre-emphasis applied with coef %.2f", rep.PreEmphasis)
	}

	// 4. reverb
	var err error
	y, rep.Reverb, err = p.applyReverb(ctx, y, cfg.ReverbAmount)
	if err != nil {
		return models.Waveform{}, rep, err
	}

	// 5. fade
	rep.Fade, err = FadeFromPeak(y.Samples, y.SampleRate)
	if err != nil {
		return models.Waveform{}, rep, fmt.Errorf("fade shaping: %w", err)
	}
	if rep.Fade == nil {
		p.log.Debugf("No impact peak found, fade not applied")
	} else {
		p.log.Debugf("Exponential fade applied from sample %d", rep.Fade.SampleIndex)
	}

	return y, rep, nil
}

func (p *Processor) applyReverb(ctx context.Context, y models.Waveform, amount float64) (models.Waveform, ReverbOutcome, error) {
	if amount <= 0 {
		return y, ReverbOutcome{Status: ReverbSkipped, Reason: "amount is zero"}, nil
	}
	if p.reverb == nil {
		p.log.Warnf("No reverb engine configured, skipping reverb")
		return y, ReverbOutcome{Status: ReverbUnavailable, Reason: "no reverb engine configured"}, nil
	}
	if err := p.reverb.Available(); err != nil {
		p.log.Warnf("Reverb unavailable, skipping: %v", err)
		return y, ReverbOutcome{Status: ReverbUnavailable, Reason: err.Error()}, nil
	}

	out, err := p.reverb.Reverb(ctx, y, amount)
	if err != nil {
		return models.Waveform{}, ReverbOutcome{}, fmt.Errorf("reverb: %w", err)
	}
	p.log.Debugf("Reverb applied with reverberance %.0f", amount)
	return out, ReverbOutcome{Status: ReverbApplied}, nil
}
