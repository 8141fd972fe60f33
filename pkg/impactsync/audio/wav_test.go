package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/himanishpuri/ImpactSync/pkg/models"
)

func sine(n, rate int, freq, amp float64) models.Waveform {
	s := make([]float64, n)
	for i := range s {
		s[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return models.Waveform{Samples: s, SampleRate: rate}
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed: %v", name, err)
	}
}

func TestWriteReadWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := sine(2205, 22050, 440, 0.5)

	if err := WriteWav(path, in); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}

	out, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if out.SampleRate != in.SampleRate {
		t.Errorf("Expected rate %d, got %d", in.SampleRate, out.SampleRate)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("Expected %d samples, got %d", len(in.Samples), len(out.Samples))
	}
	for i := range in.Samples {
		if math.Abs(out.Samples[i]-in.Samples[i]) > 1e-3 {
			t.Fatalf("Sample %d: expected %f, got %f", i, in.Samples[i], out.Samples[i])
		}
	}
}

func TestWriteWavDepthPrecision(t *testing.T) {
	dir := t.TempDir()
	in := models.Waveform{Samples: []float64{0.123456789, -0.987654321, 1e-6, 0}, SampleRate: 8000}

	tests := []struct {
		depth int
		tol   float64
	}{
		{16, 2.0 / 32767},
		{24, 2.0 / 8388607},
		{32, 1e-9},
	}
	for _, tt := range tests {
		path := filepath.Join(dir, fmt.Sprintf("depth%d.wav", tt.depth))
		if err := WriteWavDepth(path, in, tt.depth); err != nil {
			t.Fatalf("WriteWavDepth(%d) failed: %v", tt.depth, err)
		}
		out, err := ReadWav(path)
		if err != nil {
			t.Fatalf("ReadWav(%d) failed: %v", tt.depth, err)
		}
		for i := range in.Samples {
			if math.Abs(out.Samples[i]-in.Samples[i]) > tt.tol {
				t.Errorf("depth %d sample %d: expected %g, got %g", tt.depth, i, in.Samples[i], out.Samples[i])
			}
		}
	}
}

func TestWriteWavDepthUnsupported(t *testing.T) {
	err := WriteWavDepth(filepath.Join(t.TempDir(), "x.wav"), models.Waveform{Samples: []float64{0}, SampleRate: 8000}, 12)
	if err == nil {
		t.Error("Expected error for 12-bit output")
	}
}

func TestWriteWavClips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	if err := WriteWav(path, models.Waveform{Samples: []float64{2, -3, 0.25}, SampleRate: 8000}); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}

	out, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	for i, v := range out.Samples {
		if v < -1 || v > 1 {
			t.Errorf("Sample %d out of range [-1, 1]: %f", i, v)
		}
	}
}

func TestWriteWavInvalidRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := WriteWav(path, models.Waveform{Samples: []float64{0}}); err == nil {
		t.Error("Expected error for zero sample rate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected no file to be left behind")
	}
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadWav(path); err == nil {
		t.Error("ReadWav should fail on invalid file")
	}
	if _, err := ReadWav("nonexistent-file.wav"); err == nil {
		t.Error("Expected error when reading non-existent file")
	}
}

func TestDownmix(t *testing.T) {
	// Stereo samples: [L, R, L, R]
	got := downmix([]int{16384, 16384, -16384, 0}, 2, 16)

	if len(got) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(got))
	}
	if got[0] != 0.5 {
		t.Errorf("Expected 0.5 for first frame, got %f", got[0])
	}
	if got[1] != -0.25 {
		t.Errorf("Expected -0.25 for second frame, got %f", got[1])
	}
}

func TestConvertToMonoWAV(t *testing.T) {
	requireBinary(t, "ffmpeg")
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	if err := WriteWav(src, sine(8000, 8000, 220, 0.3)); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dst := filepath.Join(dir, "out", "decoded.wav")
	if err := ConvertToMonoWAV(ctx, src, dst, ConvertWAVConfig{SampleRate: 16000}); err != nil {
		t.Fatalf("ConvertToMonoWAV failed: %v", err)
	}
	w, err := ReadWav(dst)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if w.SampleRate != 16000 {
		t.Errorf("Expected 16000 Hz, got %d", w.SampleRate)
	}
	if _, err := os.Stat(dst + ".tmp.wav"); !os.IsNotExist(err) {
		t.Error("Temporary file left behind")
	}
}

func TestConvertToMonoWAVMissingInput(t *testing.T) {
	requireBinary(t, "ffmpeg")
	dst := filepath.Join(t.TempDir(), "never.wav")

	if err := ConvertToMonoWAV(context.Background(), "missing.mp3", dst, ConvertWAVConfig{}); err == nil {
		t.Error("Expected error for missing input")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("Expected no output on failure")
	}
}
