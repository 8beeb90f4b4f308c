package outbreakgo

import (
	"math"
	"testing"
)

func statsParams(t *testing.T) *ModelParams {
	t.Helper()
	pars := NewModelParams()
	pars.R0 = 3
	pars.Tbar = 5
	pars.Kappa = 2.0
	pars.P = 0.2
	pars.Q = 0.3
	pars.Mbar = 2
	pars.Kappaq = 2.0
	pars.Lbar = 2
	pars.Kappal = 5.0
	pars.Tmax = 20
	if err := pars.Solve(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "solving model parameters", err)
	}
	return pars
}

func TestStatsExtinctionFlag(t *testing.T) {
	pars := statsParams(t)
	stats := NewSummaryStats(pars, NoNimax)
	sim := NewSimulator(pars, NewStream(42, 0), stats)

	sawExtinct, sawSurviving := false, false
	for i := 0; i < 300; i++ {
		stats.PathInit()
		sim.RunPath()
		if stats.Extinction {
			sawExtinct = true
			if math.IsInf(stats.ExtinctionTime, -1) {
				t.Fatal("extinct path without an extinction time")
			}
			if stats.ExtinctionTime <= 0 {
				t.Fatalf("non-positive extinction time %f", stats.ExtinctionTime)
			}
		} else {
			sawSurviving = true
		}
	}
	if !sawExtinct || !sawSurviving {
		t.Skipf("paths were one-sided (extinct=%t surviving=%t)", sawExtinct, sawSurviving)
	}
}

func TestStatsTimelineBounds(t *testing.T) {
	pars := statsParams(t)
	stats := NewSummaryStats(pars, NoNimax)
	sim := NewSimulator(pars, NewStream(42, 2), stats)

	if stats.Npers() != int(pars.Tmax)+1 {
		t.Errorf(UnequalIntParameterError, "number of bins", int(pars.Tmax)+1, stats.Npers())
	}
	for i := 0; i < 100; i++ {
		stats.PathInit()
		sim.RunPath()
		// The current-infectious count in a bin can never be below the
		// count of individuals newly infected in that bin.
		for j := range stats.InfTimeline {
			if stats.InfTimeline[j] < stats.NewInfTimeline[j] {
				t.Fatalf("bin %d: %d infectious but %d new infections", j, stats.InfTimeline[j], stats.NewInfTimeline[j])
			}
		}
	}
}

func TestStatsNimax(t *testing.T) {
	pars := statsParams(t)

	unlimited := DefaultRunConfig(pars)
	unlimited.Npaths = 500
	unlimited.Seed = 42
	resUnlimited, err := MultiRun(unlimited)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running without nimax", err)
	}

	capped := DefaultRunConfig(pars)
	capped.Npaths = 500
	capped.Seed = 42
	capped.Nimax = 10
	resCapped, err := MultiRun(capped)
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "running with nimax", err)
	}

	if !resCapped.NimaxReached() {
		t.Fatal("a tight nimax was never reached in a supercritical run")
	}
	if resUnlimited.NimaxReached() {
		t.Error("nimax reported as reached in an unlimited run")
	}
	// A maxed-out path is recorded as non-extinct, biasing the extinction
	// estimate downwards.
	if resCapped.Pe > resUnlimited.Pe+0.02 {
		t.Errorf("capped extinction probability %f above the unlimited one %f", resCapped.Pe, resUnlimited.Pe)
	}
}

func TestStatsPathEndCumulation(t *testing.T) {
	pars := statsParams(t)
	stats := NewSummaryStats(pars, NoNimax)
	sim := NewSimulator(pars, NewStream(42, 3), stats)

	for i := 0; i < 50; i++ {
		stats.PathInit()
		sim.RunPath()
		// After PathEnd the extended bins hold suffix sums: index 0 is the
		// path total and values decrease towards the horizon.
		for j := 1; j < stats.Npers(); j++ {
			if stats.ext[j].n > stats.ext[j-1].n {
				t.Fatalf("extended bin %d not cumulated", j)
			}
		}
	}
}

func TestStatsRSumCountsLateEvents(t *testing.T) {
	// Infections generated by events beyond tmax contribute to the R sum
	// but not to the timelines.
	pars := statsParams(t)
	stats := NewSummaryStats(pars, NoNimax)
	sim := NewSimulator(pars, NewStream(42, 4), stats)

	for i := 0; i < 200; i++ {
		stats.PathInit()
		sim.RunPath()
		var binned uint32
		for _, v := range stats.NewInfTimeline {
			binned += v
		}
		if binned < pars.Nstart {
			t.Fatalf("fewer binned infections (%d) than primaries", binned)
		}
		if stats.RSum()+pars.Nstart < binned {
			t.Fatalf("R sum %d misses binned infections %d", stats.RSum(), binned)
		}
	}
}
