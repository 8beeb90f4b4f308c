package outbreakgo

import (
	"github.com/segmentio/ksuid"
)

// RunRecord is the summary row recorded for one simulation run.
type RunRecord struct {
	RunID        ksuid.KSUID
	Seed         uint64
	Npaths       uint32
	Pe           float64
	PeStd        float64
	TeMean       float64
	TeStd        float64
	RMean        float64
	CommPerMean  float64
	NimaxReached bool
}

// TimelineRecord is one per-bin row of a result timeline.
type TimelineRecord struct {
	RunID  ksuid.KSUID
	Series string // inf or totinf
	Subset string // ext, noext or overall
	Bin    int
	Mean   float64
	Std    float64
}

// DataLogger records simulation results. Implementations receive the run
// summary first and then a stream of timeline rows.
type DataLogger interface {
	// Init prepares the logger backend, creating files or tables as
	// needed.
	Init() error
	// WriteRun records the run summary row.
	WriteRun(r RunRecord) error
	// WriteTimelines drains the channel of timeline rows and records them.
	WriteTimelines(c <-chan TimelineRecord) error
}

// LogResult records a finished run through the given logger. A fresh run
// identifier is generated and returned.
func LogResult(l DataLogger, seed uint64, res *RunResult) (ksuid.KSUID, error) {
	runID := ksuid.New()
	if err := l.Init(); err != nil {
		return runID, err
	}
	err := l.WriteRun(RunRecord{
		RunID:        runID,
		Seed:         seed,
		Npaths:       res.Npaths,
		Pe:           res.Pe,
		PeStd:        res.PeStd,
		TeMean:       res.TeMean,
		TeStd:        res.TeStd,
		RMean:        res.RMean,
		CommPerMean:  res.CommPerMean,
		NimaxReached: res.NimaxReached(),
	})
	if err != nil {
		return runID, err
	}

	c := make(chan TimelineRecord)
	go func() {
		defer close(c)
		emit := func(series, subset string, ts TimelineStats) {
			for j := 0; j < res.Npers; j++ {
				c <- TimelineRecord{
					RunID:  runID,
					Series: series,
					Subset: subset,
					Bin:    j,
					Mean:   ts.Mean[j],
					Std:    ts.Std[j],
				}
			}
		}
		emit("inf", "ext", res.InfExt)
		emit("inf", "noext", res.InfNoExt)
		emit("inf", "overall", res.InfAll)
		emit("totinf", "ext", res.TotInfExt)
		emit("totinf", "noext", res.TotInfNoExt)
		emit("totinf", "overall", res.TotInfAll)
	}()
	return runID, l.WriteTimelines(c)
}
