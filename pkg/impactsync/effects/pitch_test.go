package effects

import (
	"math"
	"testing"
)

func zeroCrossings(x []float64) int {
	n := 0
	for i := 1; i < len(x); i++ {
		if (x[i-1] < 0) != (x[i] < 0) {
			n++
		}
	}
	return n
}

func tone(n, rate int, freq float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
	}
	return x
}

func TestPitchShiftFrequency(t *testing.T) {
	const rate = 22050
	x := tone(rate, rate, 440)

	tests := []struct {
		name      string
		semitones float64
	}{
		{"up", 5},
		{"down", -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := PitchShift(x, tt.semitones)
			if len(y) != len(x) {
				t.Fatalf("Expected %d samples, got %d", len(x), len(y))
			}

			// compare the middle half to stay clear of edge effects
			lo, hi := len(x)/4, 3*len(x)/4
			ratio := float64(zeroCrossings(y[lo:hi])) / float64(zeroCrossings(x[lo:hi]))
			want := math.Pow(2, tt.semitones/12)
			if math.Abs(ratio-want)/want > 0.15 {
				t.Errorf("Frequency ratio %.3f, want about %.3f", ratio, want)
			}
		})
	}
}

func TestPitchShiftZeroIsCopy(t *testing.T) {
	x := []float64{0.1, -0.2, 0.3}
	y := PitchShift(x, 0)
	y[0] = 9
	if x[0] != 0.1 {
		t.Error("PitchShift(0) must not alias its input")
	}
}

func TestPitchShiftShortInput(t *testing.T) {
	x := tone(300, 8000, 500)
	if y := PitchShift(x, 2); len(y) != len(x) {
		t.Errorf("Expected %d samples, got %d", len(x), len(y))
	}
}

func TestResample(t *testing.T) {
	got := resample([]float64{0, 1, 2}, 5)
	want := []float64{0, 0.5, 1, 1.5, 2}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("resample[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if got := resample([]float64{0.7}, 3); got[2] != 0.7 {
		t.Errorf("Expected constant fill, got %v", got)
	}
}
