package outbreakgo

import "math"

// noNimax disables the per-bin circuit breaker.
const noNimax = math.MaxUint32

// extBinInfo aggregates, per time bin, quantities that are summed over all
// infectious individuals whose communicable period starts in the bin.
type extBinInfo struct {
	n          uint32  // infectious individuals
	rSum       uint32  // infections they generated
	commPerSum float64 // their communicable periods
	nEventsSum uint32  // their transmission events
}

// SummaryStats accumulates the standard summary statistics for one path at
// a time. It implements PathStatsProcessor; per-bin arrays are indexed by
// integer time bins [0, floor(tmax)+1). One instance is exclusively owned
// by one engine instance.
type SummaryStats struct {
	pars  *ModelParams
	npers int
	nimax uint32

	// InfTimeline counts, per bin, the individuals that are infected at
	// some point in the bin. NewInfTimeline counts the individuals that get
	// infected in the bin.
	InfTimeline    []uint32
	NewInfTimeline []uint32
	ext            []extBinInfo

	// Extinction reports whether the current path went extinct before tmax;
	// ExtinctionTime is the largest end of a communicable period.
	Extinction           bool
	ExtinctionTime       float64
	MaxedOutMinTimeIndex int32
}

// NewSummaryStats creates a statistics accumulator for a resolved parameter
// set. A nimax of NoNimax (or 0) disables the per-bin cap on new
// infections.
func NewSummaryStats(pars *ModelParams, nimax uint32) *SummaryStats {
	if nimax == 0 {
		nimax = noNimax
	}
	npers := int(pars.Tmax) + 1
	return &SummaryStats{
		pars:           pars,
		npers:          npers,
		nimax:          nimax,
		InfTimeline:    make([]uint32, npers),
		NewInfTimeline: make([]uint32, npers),
		ext:            make([]extBinInfo, npers),
	}
}

// Npers returns the number of time bins.
func (st *SummaryStats) Npers() int { return st.npers }

// RSum returns the path total of generated infections, valid after PathEnd.
func (st *SummaryStats) RSum() uint32 { return st.ext[0].rSum }

// CommPerSum returns the path total of communicable periods, valid after
// PathEnd.
func (st *SummaryStats) CommPerSum() float64 { return st.ext[0].commPerSum }

// NEventsSum returns the path total of transmission events, valid after
// PathEnd.
func (st *SummaryStats) NEventsSum() uint32 { return st.ext[0].nEventsSum }

// PathInit resets the per-path state. It must be called before every path.
func (st *SummaryStats) PathInit() {
	for i := range st.InfTimeline {
		st.InfTimeline[i] = 0
		st.NewInfTimeline[i] = 0
		st.ext[i] = extBinInfo{}
	}
	st.Extinction = true
	st.ExtinctionTime = math.Inf(-1)
	st.MaxedOutMinTimeIndex = math.MaxInt32
}

// LayersGrown allocates the per-layer infection counter for newly reached
// depths.
func (st *SummaryStats) LayersGrown(layers []InfIndividual) {
	for i := range layers {
		layers[i].UserData = new(uint32)
	}
}

// PrimaryInit records one new infection at the primary's creation time.
func (st *SummaryStats) PrimaryInit(primary, root *InfIndividual) {
	if int(root.EventTime) < st.npers {
		st.NewInfTimeline[int(root.EventTime)]++
	}
}

// NewEvent adds the event's infections to the individual's counter, and to
// the new-infection timeline when the event occurs before tmax. When the
// incremented bin exceeds nimax the path is marked as maxed out and the
// event is not expanded.
func (st *SummaryStats) NewEvent(ii *InfIndividual) bool {
	if ii.NInfections == 0 {
		return false
	}
	cnt := ii.UserData.(*uint32)
	*cnt += ii.NInfections

	if ii.EventTime >= st.pars.Tmax {
		return false
	}
	eti := int(ii.EventTime)
	switch {
	case st.NewInfTimeline[eti]+ii.NInfections < st.nimax:
		st.NewInfTimeline[eti] += ii.NInfections
	case st.NewInfTimeline[eti] < st.nimax:
		st.NewInfTimeline[eti] += ii.NInfections
		st.Extinction = false
		if int32(eti) < st.MaxedOutMinTimeIndex {
			st.MaxedOutMinTimeIndex = int32(eti)
		}
		return false
	default:
		st.Extinction = false
		if int32(eti) < st.MaxedOutMinTimeIndex {
			st.MaxedOutMinTimeIndex = int32(eti)
		}
		return false
	}
	return true
}

// InfectiousDone folds an individual that participated in transmission
// events into the per-bin sums.
func (st *SummaryStats) InfectiousDone(ii, parent *InfIndividual) {
	st.endInfectious(ii)
}

// InfectiousNoEvent folds an individual without transmission events into
// the per-bin sums.
func (st *SummaryStats) InfectiousNoEvent(ii, parent *InfIndividual) {
	st.endInfectious(ii)
}

func (st *SummaryStats) endInfectious(ii *InfIndividual) {
	cnt := ii.UserData.(*uint32)
	ninf := *cnt
	*cnt = 0

	if ii.PeriodType&CommPeriodTruncated != 0 {
		st.Extinction = false
	} else if ii.EndCommPeriod > st.ExtinctionTime {
		st.ExtinctionTime = ii.EndCommPeriod
	}

	startComm := ii.EndCommPeriod - ii.CommPeriod
	if startComm < st.pars.Tmax {
		i := int(startComm)
		st.ext[i].rSum += ninf
		st.ext[i].n++
		st.ext[i].commPerSum += ii.CommPeriod
		st.ext[i].nEventsSum += ii.NEvents
	}

	startLatent := int(ii.EndCommPeriod - ii.CommPeriod - ii.LatentPeriod)
	endComm := st.npers - 1
	if ii.EndCommPeriod < float64(st.npers) {
		endComm = int(ii.EndCommPeriod)
	}
	for i := startLatent; i <= endComm; i++ {
		st.InfTimeline[i]++
	}
}

// PathEnd cumulates the extended per-bin sums from the end of the timeline
// towards its origin, so that index 0 holds the path totals. Bins past the
// first maxed-out index hold partial counts and are excluded from the
// cumulation. The standard statistics never request a retry.
func (st *SummaryStats) PathEnd() bool {
	tnvpers := st.npers
	if st.MaxedOutMinTimeIndex < math.MaxInt32 && int(st.MaxedOutMinTimeIndex) < st.npers {
		tnvpers = int(st.MaxedOutMinTimeIndex) + 1
	}
	for i := tnvpers - 2; i >= 0; i-- {
		st.ext[i].n += st.ext[i+1].n
		st.ext[i].rSum += st.ext[i+1].rSum
		st.ext[i].commPerSum += st.ext[i+1].commPerSum
		st.ext[i].nEventsSum += st.ext[i+1].nEventsSum
	}
	return false
}
