package stats

import (
	"math"
	"testing"
)

func TestNewRandIsReproducible(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 100; i++ {
		x, y := a.NormFloat64(), b.NormFloat64()
		if x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestTrialSeedDeterministic(t *testing.T) {
	if TrialSeed(123, 7) != TrialSeed(123, 7) {
		t.Error("TrialSeed is not deterministic")
	}
}

func TestTrialSeedDistinct(t *testing.T) {
	seen := make(map[int64]int)
	for i := 0; i < 10000; i++ {
		s := TrialSeed(123, i)
		if prev, ok := seen[s]; ok {
			t.Fatalf("TrialSeed(123, %d) collides with trial %d", i, prev)
		}
		seen[s] = i
	}
}

func TestTrialSeedDependsOnBase(t *testing.T) {
	// Neighbouring bases must not produce shifted copies of each other's seeds
	for i := 0; i < 100; i++ {
		if TrialSeed(1, i) == TrialSeed(2, i) {
			t.Errorf("TrialSeed(1, %d) == TrialSeed(2, %d)", i, i)
		}
		if TrialSeed(1, i+1) == TrialSeed(2, i) {
			t.Errorf("TrialSeed(1, %d) == TrialSeed(2, %d)", i+1, i)
		}
	}
}

type fixedStream []float64

func (f *fixedStream) NormFloat64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}

func TestGaussian(t *testing.T) {
	tests := []struct {
		name   string
		mean   float64
		stddev float64
		draw   float64
		want   float64
	}{
		{"standard", 0, 1, 0.5, 0.5},
		{"shifted", 0.5, 1, -1.25, -0.75},
		{"scaled", 1, 2, 0.5, 2},
		{"zero noise", 0.4, 0, 3, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := fixedStream{tt.draw}
			got := Gaussian(&s, tt.mean, tt.stddev)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Gaussian(%v, %v) with draw %v = %v, want %v", tt.mean, tt.stddev, tt.draw, got, tt.want)
			}
			if len(s) != 0 {
				t.Error("Gaussian did not consume exactly one draw")
			}
		})
	}
}

func TestGaussianSampleMean(t *testing.T) {
	r := NewRand(7)
	const n = 20000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += Gaussian(r, 0.5, 1)
	}
	mean := sum / n
	// Standard error is 1/sqrt(20000) ~ 0.007
	if math.Abs(mean-0.5) > 0.05 {
		t.Errorf("sample mean = %v, want ~0.5", mean)
	}
}
