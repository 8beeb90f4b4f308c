package outbreakgo

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Stream is a random variate substream. Each set of paths draws from
// exactly one stream in a strictly defined order, so that a path simulated
// from a given stream index is reproducible regardless of which worker
// executed it. Streams derived from the same seed but distinct indices start
// the PCG generator from different SplitMix64-mixed states.
type Stream struct {
	src *rand.PCGSource
	rnd *rand.Rand
}

// NewStream creates the substream with the given index for a base seed.
func NewStream(seed, index uint64) *Stream {
	src := &rand.PCGSource{}
	src.Seed(splitmix64(seed ^ splitmix64(index)))
	return &Stream{src: src, rnd: rand.New(src)}
}

// splitmix64 decorrelates nearby seed/index values before they reach the
// PCG state.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Uint31 returns an integer uniformly distributed in [0, 2^31-2].
func (s *Stream) Uint31() uint32 {
	return uint32(s.rnd.Uint64n(1<<31 - 1))
}

// Float64 returns a uniform deviate in [0, 1).
func (s *Stream) Float64() float64 {
	return s.rnd.Float64()
}

// Gaussian returns a standard normal deviate (ziggurat method).
func (s *Stream) Gaussian() float64 {
	return s.rnd.NormFloat64()
}

// Poisson returns a Poisson deviate with the given mean.
func (s *Stream) Poisson(mean float64) uint32 {
	if mean <= 0 {
		return 0
	}
	return uint32(distuv.Poisson{Lambda: mean, Src: s.src}.Rand())
}

// Binomial returns a binomial deviate for n trials with success
// probability p.
func (s *Stream) Binomial(n uint32, p float64) uint32 {
	if n == 0 || p <= 0 {
		return 0
	}
	if p >= 1 {
		return n
	}
	return uint32(distuv.Binomial{N: float64(n), P: p, Src: s.src}.Rand())
}

// Gamma returns a gamma deviate with the given shape and scale.
func (s *Stream) Gamma(shape, scale float64) float64 {
	return distuv.Gamma{Alpha: shape, Beta: 1 / scale, Src: s.src}.Rand()
}

// Geometric returns the number of Bernoulli trials up to and including the
// first success, for success probability p. The support is {1, 2, ...}.
func (s *Stream) Geometric(p float64) uint32 {
	if p >= 1 {
		return 1
	}
	u := s.rnd.Float64()
	return 1 + uint32(math.Log(1-u)/math.Log(1-p))
}
