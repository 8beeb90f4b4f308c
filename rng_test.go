package outbreakgo

import (
	"math"
	"testing"
)

func TestStreamUint31Bounds(t *testing.T) {
	s := NewStream(42, 0)
	for i := 0; i < 10000; i++ {
		v := s.Uint31()
		if v > 1<<31-2 {
			t.Fatalf("deviate %d outside [0, 2^31-2]", v)
		}
	}
}

func TestStreamReproducible(t *testing.T) {
	a := NewStream(42, 3)
	b := NewStream(42, 3)
	for i := 0; i < 1000; i++ {
		if av, bv := a.Float64(), b.Float64(); av != bv {
			t.Fatalf("draw %d differs between identical streams: %v vs %v", i, av, bv)
		}
	}
}

func TestStreamsIndependent(t *testing.T) {
	a := NewStream(42, 0)
	b := NewStream(42, 1)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same == 100 {
		t.Error("distinct stream indices produced identical sequences")
	}
}

func TestStreamGeometric(t *testing.T) {
	s := NewStream(42, 0)
	const n = 200000
	p := 0.4
	sum := 0.0
	for i := 0; i < n; i++ {
		v := s.Geometric(p)
		if v < 1 {
			t.Fatalf("geometric deviate %d below support", v)
		}
		sum += float64(v)
	}
	mean := sum / n
	want := 1 / p
	if math.Abs(mean-want) > 0.02 {
		t.Errorf(UnequalFloatParameterError, "geometric mean", want, mean)
	}
}

func TestStreamPoissonMean(t *testing.T) {
	s := NewStream(42, 0)
	const n = 200000
	lambda := 3.5
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(s.Poisson(lambda))
	}
	mean := sum / n
	if math.Abs(mean-lambda) > 0.02 {
		t.Errorf(UnequalFloatParameterError, "Poisson mean", lambda, mean)
	}
}

func TestStreamGammaMean(t *testing.T) {
	s := NewStream(42, 0)
	const n = 200000
	shape, scale := 10.0, 0.5
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Gamma(shape, scale)
	}
	mean := sum / n
	want := shape * scale
	if math.Abs(mean-want) > 0.02 {
		t.Errorf(UnequalFloatParameterError, "gamma mean", want, mean)
	}
}

func TestLogSamplerSupport(t *testing.T) {
	s := NewStream(42, 0)
	rl := NewLogSampler(s, 0.6)
	for i := 0; i < 10000; i++ {
		if v := rl.Finite(); v < 1 {
			t.Fatalf("logarithmic deviate %d below support", v)
		}
		if v := rl.FiniteGT1(); v < 2 {
			t.Fatalf("truncated logarithmic deviate %d below support", v)
		}
	}
}

func TestLogSamplerMean(t *testing.T) {
	s := NewStream(42, 0)
	p := 0.6
	rl := NewLogSampler(s, p)
	const n = 500000
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(rl.Finite())
	}
	mean := sum / n
	want := -p / ((1 - p) * math.Log(1-p))
	if math.Abs(mean-want) > 0.02 {
		t.Errorf(UnequalFloatParameterError, "logarithmic mean", want, mean)
	}
}
