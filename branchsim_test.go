package outbreakgo

import (
	"math"
	"testing"
)

// countingStats wraps SummaryStats and counts engine callbacks, to verify
// the callback protocol invariants.
type countingStats struct {
	*SummaryStats
	primaries uint64
	events    uint64
	done      uint64
	noEvent   uint64
}

func (c *countingStats) PrimaryInit(primary, root *InfIndividual) {
	c.primaries++
	c.SummaryStats.PrimaryInit(primary, root)
}

func (c *countingStats) NewEvent(ii *InfIndividual) bool {
	c.events++
	return c.SummaryStats.NewEvent(ii)
}

func (c *countingStats) InfectiousDone(ii, parent *InfIndividual) {
	c.done++
	c.SummaryStats.InfectiousDone(ii, parent)
}

func (c *countingStats) InfectiousNoEvent(ii, parent *InfIndividual) {
	c.noEvent++
	c.SummaryStats.InfectiousNoEvent(ii, parent)
}

func testParams(t *testing.T, r0 float64, mutate func(*ModelParams)) *ModelParams {
	t.Helper()
	pars := NewModelParams()
	pars.R0 = r0
	pars.Tbar = 5
	pars.P = 0.1
	pars.Kappa = math.Inf(1)
	pars.Tmax = 30
	if mutate != nil {
		mutate(pars)
	}
	if err := pars.Solve(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "solving model parameters", err)
	}
	return pars
}

func TestEngineConservation(t *testing.T) {
	pars := testParams(t, 1.5, nil)
	stats := &countingStats{SummaryStats: NewSummaryStats(pars, NoNimax)}
	sim := NewSimulator(pars, NewStream(42, 0), stats)

	for i := 0; i < 200; i++ {
		stats.primaries, stats.done, stats.noEvent = 0, 0, 0
		stats.PathInit()
		sim.RunPath()

		// Every infectious individual ends through exactly one of
		// InfectiousDone or InfectiousNoEvent.
		frames := stats.done + stats.noEvent
		if stats.primaries != uint64(pars.Nstart) {
			t.Fatalf(UnequalIntParameterError, "number of primaries", int(pars.Nstart), int(stats.primaries))
		}
		if frames < stats.primaries {
			t.Fatalf("fewer frames (%d) than primaries (%d)", frames, stats.primaries)
		}

		// The new-infection bins account for the primaries and every child
		// that was instantiated.
		var binned uint64
		for _, v := range stats.NewInfTimeline {
			binned += uint64(v)
		}
		if binned != frames {
			t.Fatalf(UnequalIntParameterError, "new infections over all bins", int(frames), int(binned))
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	pars := testParams(t, 1.5, nil)

	run := func() []uint32 {
		stats := NewSummaryStats(pars, NoNimax)
		sim := NewSimulator(pars, NewStream(42, 7), stats)
		var out []uint32
		for i := 0; i < 50; i++ {
			stats.PathInit()
			sim.RunPath()
			out = append(out, stats.RSum())
			out = append(out, stats.NewInfTimeline...)
		}
		return out
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf(UnequalIntParameterError, "output length", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("output %d differs between identical runs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestEngineExtinctionSubcritical(t *testing.T) {
	// With R0 below one, extinction before a long horizon is almost
	// certain.
	pars := testParams(t, 0.5, func(p *ModelParams) {
		p.Tmax = 100
	})
	cfg := DefaultRunConfig(pars)
	cfg.Npaths = 2000
	cfg.Seed = 42
	res, err := MultiRun(cfg)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running the simulation", err)
	}
	if res.Pe <= 0.95 {
		t.Errorf("extinction probability %f not above 0.95 for R0=0.5", res.Pe)
	}
}

func TestEngineSupercriticalExtinctionRange(t *testing.T) {
	pars := testParams(t, 1.5, nil)
	cfg := DefaultRunConfig(pars)
	cfg.Npaths = 5000
	cfg.Seed = 42
	res, err := MultiRun(cfg)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running the simulation", err)
	}
	if res.Pe < 0.5 || res.Pe > 0.8 {
		t.Errorf("extinction probability %f outside the expected range for R0=1.5", res.Pe)
	}
}

func TestEngineMonotonicityInR0(t *testing.T) {
	mean := func(r0 float64) float64 {
		pars := testParams(t, r0, func(p *ModelParams) {
			p.Tmax = 15
		})
		cfg := DefaultRunConfig(pars)
		cfg.Npaths = 500
		cfg.Seed = 42
		res, err := MultiRun(cfg)
		if err != nil {
			t.Fatalf(UnexpectedErrorWhileError, "running the simulation", err)
		}
		return res.TotInfAll.Mean[res.Npers-2]
	}
	low, high := mean(0.8), mean(3.0)
	if !(high > low) {
		t.Errorf("mean cumulative infections did not increase with R0: %f vs %f", low, high)
	}
}

func TestEngineEventCount(t *testing.T) {
	pars := testParams(t, 1.5, nil)
	stats := &countingStats{SummaryStats: NewSummaryStats(pars, NoNimax)}
	sim := NewSimulator(pars, NewStream(42, 1), stats)

	var events, frames uint64
	for i := 0; i < 500; i++ {
		stats.PathInit()
		sim.RunPath()
		events += stats.events
		frames += stats.done + stats.noEvent
	}
	if events == 0 {
		t.Fatal("no transmission events were generated")
	}
	if frames == 0 {
		t.Fatal("no infectious individuals were generated")
	}
}

func TestEngineLayerGrowth(t *testing.T) {
	// A supercritical outbreak over a long horizon must grow the layer
	// stack beyond its initial capacity without losing per-layer state.
	pars := testParams(t, 2.0, func(p *ModelParams) {
		p.Tmax = 40
	})
	stats := NewSummaryStats(pars, NoNimax)
	sim := NewSimulator(pars, NewStream(42, 5), stats)
	grew := false
	for i := 0; i < 30 && !grew; i++ {
		stats.PathInit()
		sim.RunPath()
		grew = len(sim.layers) > initNumLayers
	}
	if !grew {
		t.Skip("no path outgrew the initial layer capacity")
	}
	for i, l := range sim.layers {
		if l.Generation != uint32(i) {
			t.Fatalf(UnequalIntParameterError, "layer generation", i, int(l.Generation))
		}
		if l.UserData == nil {
			t.Fatalf("layer %d has no user data after growth", i)
		}
	}
}
