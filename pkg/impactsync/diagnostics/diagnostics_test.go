package diagnostics

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/himanishpuri/ImpactSync/pkg/models"
)

func TestPlotTrajectory(t *testing.T) {
	traj := models.Trajectory{
		{Frame: 0, X: 10, Y: 100},
		{Frame: 1, X: 12, Y: 140},
		{Frame: 2, X: 14, Y: 180},
		{Frame: 3, X: 16, Y: 150},
		{Frame: 4, X: 18, Y: 120},
	}
	events := []models.CollisionEvent{{ID: 1, Frame: 2}, {ID: 2, Frame: 99}}
	out := filepath.Join(t.TempDir(), "plots", "trajectory.png")

	if err := PlotTrajectory(traj, events, out); err != nil {
		t.Fatalf("PlotTrajectory failed: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("Plot not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Plot file is empty")
	}
}

func TestPlotTrajectoryEmpty(t *testing.T) {
	if err := PlotTrajectory(nil, nil, filepath.Join(t.TempDir(), "x.png")); err == nil {
		t.Error("Expected error for empty trajectory")
	}
}

func TestRenderSpectrogram(t *testing.T) {
	const rate = 8000
	samples := make([]float64, rate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
	}
	out := filepath.Join(t.TempDir(), "composite.png")

	if err := RenderSpectrogram(models.Waveform{Samples: samples, SampleRate: rate}, out); err != nil {
		t.Fatalf("RenderSpectrogram failed: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("Spectrogram not written: %v", err)
	}
}

func TestRenderSpectrogramInvalid(t *testing.T) {
	err := RenderSpectrogram(models.Waveform{SampleRate: 8000}, filepath.Join(t.TempDir(), "x.png"))
	if !errors.Is(err, models.ErrInvalidAudio) {
		t.Errorf("Expected ErrInvalidAudio, got %v", err)
	}
}

func TestRenderReport(t *testing.T) {
	traj := models.Trajectory{{Frame: 0, Y: 100}, {Frame: 1, Y: 180}, {Frame: 2, Y: 120}}
	events := []models.CollisionEvent{{ID: 1, Frame: 1}}
	instances := []models.CompositeInstance{{EventID: 1, StartTime: 0.25, Gain: 0.8}}

	var buf bytes.Buffer
	if err := RenderReport(&buf, traj, events, instances); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Trajectory", "Placed instances", "#1"} {
		if !strings.Contains(html, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestRenderReportWithoutTrajectory(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, nil, nil, nil); err != nil {
		t.Fatalf("RenderReport failed: %v", err)
	}
	if strings.Contains(buf.String(), "frames=") {
		t.Error("trajectory chart should be omitted")
	}
}
