package effects

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/impactsync/audio"
	"github.com/himanishpuri/ImpactSync/pkg/models"
	"github.com/himanishpuri/ImpactSync/pkg/utils"
	"gonum.org/v1/gonum/floats"
)

// ErrCapabilityUnavailable reports that an optional engine is missing on the host.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// ReverbStatus says what happened to the reverb step.
type ReverbStatus int

const (
	ReverbSkipped ReverbStatus = iota
	ReverbApplied
	ReverbUnavailable
)

func (s ReverbStatus) String() string {
	switch s {
	case ReverbSkipped:
		return "skipped"
	case ReverbApplied:
		return "applied"
	case ReverbUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ReverbOutcome is the typed result of the reverb step.
type ReverbOutcome struct {
	Status ReverbStatus
	Reason string
}

// Reverberator is a reverb engine. Available must be checked before Reverb
// and returns an error wrapping ErrCapabilityUnavailable when the engine
// cannot run on this host.
type Reverberator interface {
	Available() error
	Reverb(ctx context.Context, w models.Waveform, amount float64) (models.Waveform, error)
}

// SoxReverb runs the SoX "reverb" effect through temporary WAV files.
type SoxReverb struct {
	Binary  string // defaults to "sox"
	TempDir string // parent for per-call scratch directories
}

func (s *SoxReverb) binary() string {
	if s.Binary == "" {
		return "sox"
	}
	return s.Binary
}

func (s *SoxReverb) Available() error {
	if _, err := exec.LookPath(s.binary()); err != nil {
		return fmt.Errorf("%w: %s not found: %v", ErrCapabilityUnavailable, s.binary(), err)
	}
	return nil
}

// Reverb applies reverberance amount (0-100) with SoX defaults for the
// remaining parameters: 50% HF damping, 100% room scale, 100% stereo depth,
// 20 ms pre-delay, 0 dB wet gain.
func (s *SoxReverb) Reverb(ctx context.Context, w models.Waveform, amount float64) (models.Waveform, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	ws, err := utils.NewWorkspace(s.TempDir)
	if err != nil {
		return models.Waveform{}, err
	}
	defer ws.Release()

	in := ws.Path("dry.wav")
	out := ws.Path("wet.wav")
	dry, gain := withHeadroom(w)
	if err := audio.WriteWavDepth(in, dry, handoffBitDepth); err != nil {
		return models.Waveform{}, err
	}

	cmd := exec.CommandContext(
		ctx,
		s.binary(),
		in, out,
		"reverb",
		strconv.FormatFloat(amount, 'f', -1, 64),
		"50", "100", "100", "20", "0",
	)
	if combined, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return models.Waveform{}, ctx.Err()
		}
		return models.Waveform{}, fmt.Errorf("sox failed: %v (%s)", err, combined)
	}

	wet, err := audio.ReadWav(out)
	if err != nil {
		return models.Waveform{}, fmt.Errorf("reading reverb output: %w", err)
	}
	if gain != 1 {
		floats.Scale(1/gain, wet.Samples)
	}
	return wet, nil
}

const (
	handoffBitDepth = 32
	// peak level of the signal handed to SoX; the tail may exceed it
	handoffPeak = 0.5
)

// withHeadroom scales w so its peak sits at handoffPeak. The returned gain
// undoes the scaling on the reverb output.
func withHeadroom(w models.Waveform) (models.Waveform, float64) {
	peak := 0.0
	for _, v := range w.Samples {
		peak = max(peak, math.Abs(v))
	}
	if peak == 0 {
		return w, 1
	}
	gain := handoffPeak / peak
	out := w.Clone()
	floats.Scale(gain, out.Samples)
	return out, gain
}
