package effects

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/himanishpuri/ImpactSync/pkg/models"
	"gonum.org/v1/gonum/floats"
)

// impactClip is a quiet lead-in, a sharp hit at k, and a ringing tail.
func impactClip(n, k, rate int) models.Waveform {
	s := make([]float64, n)
	for i := range s {
		s[i] = 0.05 * math.Sin(float64(i)*0.9)
	}
	for i := k; i < n; i++ {
		s[i] += 0.4 * math.Sin(float64(i-k)*0.2) * math.Exp(-float64(i-k)/400)
	}
	s[k] = 1.0
	return models.Waveform{Samples: s, SampleRate: rate}
}

type fakeReverb struct {
	available error
	fail      error
	calls     int
}

func (f *fakeReverb) Available() error { return f.available }

func (f *fakeReverb) Reverb(_ context.Context, w models.Waveform, amount float64) (models.Waveform, error) {
	f.calls++
	if f.fail != nil {
		return models.Waveform{}, f.fail
	}
	out := w.Clone()
	for i := range out.Samples {
		out.Samples[i] *= 0.5
	}
	return out, nil
}

func TestApplyNeutralConfig(t *testing.T) {
	in := impactClip(8000, 1500, 8000)
	original := in.Clone()
	p := NewProcessor(WithReverberator(&fakeReverb{}))

	out, rep, err := p.Apply(context.Background(), in, models.NeutralEffects())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Fade == nil || rep.Fade.SampleIndex != 1500 {
		t.Fatalf("Expected fade from sample 1500, got %+v", rep.Fade)
	}
	if len(out.Samples) != len(in.Samples) || out.SampleRate != in.SampleRate {
		t.Fatalf("Output shape changed: %d@%d", len(out.Samples), out.SampleRate)
	}

	for i := 0; i < 1500; i++ {
		if out.Samples[i] != in.Samples[i]*PreImpactGain {
			t.Fatalf("Sample %d: expected %v, got %v", i, in.Samples[i]*PreImpactGain, out.Samples[i])
		}
	}
	for i := 1500; i < len(in.Samples); i++ {
		if math.Abs(out.Samples[i]) > math.Abs(in.Samples[i]) {
			t.Fatalf("Sample %d grew: |%v| > |%v|", i, out.Samples[i], in.Samples[i])
		}
	}
	if out.Samples[1500] != 1.0 {
		t.Errorf("Expected the peak itself to be untouched, got %v", out.Samples[1500])
	}
	last := len(in.Samples) - 1
	wantTail := in.Samples[last] * math.Exp(-FadeDepth*float64(last-1500)/float64(len(in.Samples)-1500))
	if math.Abs(out.Samples[last]-wantTail) > 1e-12 {
		t.Errorf("Expected tail %v, got %v", wantTail, out.Samples[last])
	}

	for i := range in.Samples {
		if in.Samples[i] != original.Samples[i] {
			t.Fatal("Apply mutated its input")
		}
	}
}

func TestApplyNoPeakPassesThrough(t *testing.T) {
	in := models.Waveform{Samples: []float64{0.3, 0.3, 0.3, 0.3, 0.3}, SampleRate: 10}

	out, rep, err := NewProcessor().Apply(context.Background(), in, models.NeutralEffects())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.Fade != nil {
		t.Errorf("Expected no fade, got %+v", rep.Fade)
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Errorf("Sample %d changed: %v -> %v", i, in.Samples[i], out.Samples[i])
		}
	}
}

func TestApplyTwiceNeverGrows(t *testing.T) {
	in := impactClip(6000, 900, 6000)
	p := NewProcessor()

	once, _, err := p.Apply(context.Background(), in, models.NeutralEffects())
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	twice, _, err := p.Apply(context.Background(), once, models.NeutralEffects())
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}

	for i := range once.Samples {
		if math.Abs(twice.Samples[i]) > math.Abs(once.Samples[i]) {
			t.Fatalf("Sample %d grew on reapplication: %v > %v", i, twice.Samples[i], once.Samples[i])
		}
	}
}

func TestApplyVolume(t *testing.T) {
	in := impactClip(4000, 700, 4000)
	p := NewProcessor()

	unity, _, err := p.Apply(context.Background(), in, models.NeutralEffects())
	if err != nil {
		t.Fatal(err)
	}
	cfg := models.NeutralEffects()
	cfg.VolumePercent = 50
	half, rep, err := p.Apply(context.Background(), in, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if rep.Volume != 0.5 {
		t.Errorf("Expected volume factor 0.5, got %v", rep.Volume)
	}
	for i := range unity.Samples {
		if math.Abs(half.Samples[i]-unity.Samples[i]/2) > 1e-12 {
			t.Fatalf("Sample %d: expected %v, got %v", i, unity.Samples[i]/2, half.Samples[i])
		}
	}
}

func TestApplyReverbOutcomes(t *testing.T) {
	in := impactClip(2000, 300, 2000)
	boom := errors.New("engine crashed")

	tests := []struct {
		name       string
		engine     *fakeReverb
		amount     float64
		wantStatus ReverbStatus
		wantCalls  int
		wantErr    bool
	}{
		{"zero amount", &fakeReverb{}, 0, ReverbSkipped, 0, false},
		{"applied", &fakeReverb{}, 40, ReverbApplied, 1, false},
		{"engine missing", &fakeReverb{available: fmt.Errorf("%w: sox", ErrCapabilityUnavailable)}, 40, ReverbUnavailable, 0, false},
		{"engine fails", &fakeReverb{fail: boom}, 40, 0, 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := models.NeutralEffects()
			cfg.ReverbAmount = tt.amount

			_, rep, err := NewProcessor(WithReverberator(tt.engine)).Apply(context.Background(), in, cfg)
			if tt.wantErr {
				if !errors.Is(err, boom) {
					t.Errorf("Expected engine error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			if rep.Reverb.Status != tt.wantStatus {
				t.Errorf("Expected status %v, got %v", tt.wantStatus, rep.Reverb.Status)
			}
			if tt.engine.calls != tt.wantCalls {
				t.Errorf("Expected %d engine calls, got %d", tt.wantCalls, tt.engine.calls)
			}
		})
	}
}

func TestApplyUnavailableReverbMatchesDry(t *testing.T) {
	in := impactClip(3000, 500, 3000)
	missing := &fakeReverb{available: ErrCapabilityUnavailable}

	dry, _, err := NewProcessor().Apply(context.Background(), in, models.NeutralEffects())
	if err != nil {
		t.Fatal(err)
	}
	cfg := models.NeutralEffects()
	cfg.ReverbAmount = 80
	wet, _, err := NewProcessor(WithReverberator(missing)).Apply(context.Background(), in, cfg)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for i := range dry.Samples {
		if dry.Samples[i] != wet.Samples[i] {
			t.Fatalf("Sample %d differs although reverb was unavailable", i)
		}
	}
}

func TestApplyInvalidInput(t *testing.T) {
	p := NewProcessor()

	_, _, err := p.Apply(context.Background(), models.Waveform{SampleRate: 100}, models.NeutralEffects())
	if !errors.Is(err, models.ErrInvalidAudio) {
		t.Errorf("Expected ErrInvalidAudio for empty waveform, got %v", err)
	}
	_, _, err = p.Apply(context.Background(), models.Waveform{Samples: []float64{math.NaN()}, SampleRate: 100}, models.NeutralEffects())
	if !errors.Is(err, models.ErrInvalidAudio) {
		t.Errorf("Expected ErrInvalidAudio for NaN, got %v", err)
	}

	bad := models.NeutralEffects()
	bad.PitchSlider = 120
	if _, _, err := p.Apply(context.Background(), impactClip(100, 50, 100), bad); err == nil {
		t.Error("Expected error for out-of-range pitch slider")
	}
}

func TestApplyPitchKeepsLength(t *testing.T) {
	in := impactClip(5000, 1000, 11025)
	cfg := models.NeutralEffects()
	cfg.PitchSlider = 80

	out, rep, err := NewProcessor().Apply(context.Background(), in, cfg)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if rep.PitchSemitones != 3 {
		t.Errorf("Expected +3 semitones, got %v", rep.PitchSemitones)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Errorf("Expected %d samples, got %d", len(in.Samples), len(out.Samples))
	}
}

func TestPreEmphasis(t *testing.T) {
	got := PreEmphasis([]float64{1, 2, 4}, 0.5)
	// prev for x[0] is 2*1 - 2 = 0
	want := []float64{1, 1.5, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PreEmphasis[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if out := PreEmphasis([]float64{0.4}, 0.9); math.Abs(out[0]-0.04) > 1e-12 {
		t.Errorf("Single-sample PreEmphasis = %v, want 0.04", out[0])
	}
	if out := PreEmphasis(nil, 0.5); len(out) != 0 {
		t.Errorf("Expected empty output, got %v", out)
	}
}

func TestReverbStatusString(t *testing.T) {
	for s, want := range map[ReverbStatus]string{
		ReverbSkipped:     "skipped",
		ReverbApplied:     "applied",
		ReverbUnavailable: "unavailable",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestSoxReverbMissingBinary(t *testing.T) {
	r := &SoxReverb{Binary: "definitely-not-sox-binary"}
	if err := r.Available(); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Errorf("Expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestWithHeadroom(t *testing.T) {
	w := models.Waveform{Samples: []float64{0.1, -2, 1.5}, SampleRate: 8000}

	scaled, gain := withHeadroom(w)
	if gain != 0.25 {
		t.Errorf("Expected gain 0.25, got %v", gain)
	}
	want := []float64{0.025, -0.5, 0.375}
	for i, v := range scaled.Samples {
		if math.Abs(v-want[i]) > 1e-12 {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], v)
		}
	}
	if w.Samples[1] != -2 {
		t.Error("Input was modified")
	}

	silent := models.Waveform{Samples: []float64{0, 0}, SampleRate: 8000}
	if _, gain := withHeadroom(silent); gain != 1 {
		t.Errorf("Expected unity gain for silence, got %v", gain)
	}
}

// Loud input keeps its level through SoX instead of clipping at full scale.
func TestSoxReverbKeepsLevel(t *testing.T) {
	r := &SoxReverb{TempDir: t.TempDir()}
	if err := r.Available(); err != nil {
		t.Skipf("sox not available: %v", err)
	}

	w := impactClip(4000, 1000, 8000)
	floats.Scale(3, w.Samples)

	wet, err := r.Reverb(context.Background(), w, 10)
	if err != nil {
		t.Fatalf("Reverb failed: %v", err)
	}
	if peak := floats.Max(wet.Samples); peak <= 1 {
		t.Errorf("Expected wet peak above 1 for a 3x input, got %v", peak)
	}
}
