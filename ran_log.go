package outbreakgo

import "math"

// LogSampler draws logarithmic deviates with parameter p using the modified
// algorithm from "Non-Uniform Random Variate Generation" by Luc Devroye.
// Returned values are always finite.
type LogSampler struct {
	s *Stream
	p float64
	r float64 // log(1-p)
}

// NewLogSampler creates a logarithmic deviate sampler for 0 <= p < 1 drawing
// from the given stream.
func NewLogSampler(s *Stream, p float64) *LogSampler {
	return &LogSampler{s: s, p: p, r: math.Log(1 - p)}
}

// Finite returns a logarithmic deviate with support {1, 2, ...}.
func (rl *LogSampler) Finite() uint32 {
	v := rl.s.Float64()
	if v >= rl.p {
		return 1
	}
	q := 1 - math.Exp(rl.r*rl.s.Float64())
	if v <= q*q {
		return uint32(1 + math.Log(v)/math.Log(q))
	}
	if v <= q {
		return 2
	}
	return 1
}

// FiniteGT1 returns a logarithmic deviate with a lower bound of 2. The
// rejection loop is necessary.
func (rl *LogSampler) FiniteGT1() uint32 {
	for {
		v := rl.p * rl.s.Float64()
		for v == rl.p {
			v = rl.p * rl.s.Float64()
		}
		q := 1 - math.Exp(rl.r*rl.s.Float64())
		if v <= q*q {
			return uint32(1 + math.Log(v)/math.Log(q))
		}
		if v <= q {
			return 2
		}
	}
}
