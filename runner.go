package outbreakgo

import (
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"
)

// NoNimax disables the per-bin cap on new infections.
const NoNimax = noNimax

// RunConfig describes one Monte Carlo run: the resolved model, the path
// budget and its division into sets, the worker count and the RNG seed.
type RunConfig struct {
	Params         *ModelParams
	Npaths         uint32
	Nthreads       uint32
	NsetsPerThread uint32
	Nimax          uint32
	Seed           uint64
}

// DefaultRunConfig returns the run settings used when nothing is specified:
// ten thousand paths on one thread with no infection cap.
func DefaultRunConfig(pars *ModelParams) *RunConfig {
	return &RunConfig{
		Params:         pars,
		Npaths:         10000,
		Nthreads:       1,
		NsetsPerThread: 1,
		Nimax:          NoNimax,
	}
}

// TimelineStats holds a per-bin mean and standard deviation.
type TimelineStats struct {
	Mean []float64
	Std  []float64
}

// RunResult is the reduction of all simulated paths.
type RunResult struct {
	Npaths uint32
	Npers  int

	RMean        float64
	CommPerMean  float64
	NEventsMean  float64
	NInfPerEvent float64

	// Extinction probability with its statistical uncertainty, and the
	// extinction time statistics over extinct paths.
	Pe     float64
	PeStd  float64
	TeMean float64
	TeStd  float64

	// NimaxMinTimeIndex is the first bin in which the infection cap was
	// reached over any path; math.MaxInt32 when it never was.
	NimaxMinTimeIndex int32

	InfExt      TimelineStats
	InfNoExt    TimelineStats
	InfAll      TimelineStats
	TotInfExt   TimelineStats
	TotInfNoExt TimelineStats
	TotInfAll   TimelineStats
}

// NimaxReached reports whether any path maxed out a bin.
func (r *RunResult) NimaxReached() bool {
	return r.NimaxMinTimeIndex < math.MaxInt32
}

// setAccum collects the per-path folds of one set. Every set owns its own
// RNG substream and accumulator slot, so the final reduction is independent
// of how the sets were interleaved over the workers.
type setAccum struct {
	rSum       float64
	commPerSum float64
	nEventsSum float64

	pe      float64
	teSum   float64
	teSumSq float64

	nimaxMin int32

	infExtSum     []float64
	infExtSumSq   []float64
	infNoExtSum   []float64
	infNoExtSumSq []float64
	totExtSum     []float64
	totExtSumSq   []float64
	totNoExtSum   []float64
	totNoExtSumSq []float64
}

func newSetAccum(npers int) *setAccum {
	return &setAccum{
		nimaxMin:      math.MaxInt32,
		infExtSum:     make([]float64, npers),
		infExtSumSq:   make([]float64, npers),
		infNoExtSum:   make([]float64, npers),
		infNoExtSumSq: make([]float64, npers),
		totExtSum:     make([]float64, npers),
		totExtSumSq:   make([]float64, npers),
		totNoExtSum:   make([]float64, npers),
		totNoExtSumSq: make([]float64, npers),
	}
}

// foldPath accumulates one finished path. The new-infection timeline is
// turned into a cumulative total while folding.
func (acc *setAccum) foldPath(st *SummaryStats) {
	acc.rSum += float64(st.RSum())
	acc.commPerSum += st.CommPerSum()
	acc.nEventsSum += float64(st.NEventsSum())

	infSum, infSumSq := acc.infNoExtSum, acc.infNoExtSumSq
	totSum, totSumSq := acc.totNoExtSum, acc.totNoExtSumSq
	if st.Extinction {
		acc.pe++
		acc.teSum += st.ExtinctionTime
		acc.teSumSq += st.ExtinctionTime * st.ExtinctionTime
		infSum, infSumSq = acc.infExtSum, acc.infExtSumSq
		totSum, totSumSq = acc.totExtSum, acc.totExtSumSq
	} else if st.MaxedOutMinTimeIndex < acc.nimaxMin {
		acc.nimaxMin = st.MaxedOutMinTimeIndex
	}

	var tot uint32
	for j := 0; j < st.npers; j++ {
		inf := float64(st.InfTimeline[j])
		infSum[j] += inf
		infSumSq[j] += inf * inf
		tot += st.NewInfTimeline[j]
		ftot := float64(tot)
		totSum[j] += ftot
		totSumSq[j] += ftot * ftot
	}
}

// merge adds another set's accumulator. The caller merges the sets in index
// order so the reduction is reproducible.
func (acc *setAccum) merge(o *setAccum) {
	acc.rSum += o.rSum
	acc.commPerSum += o.commPerSum
	acc.nEventsSum += o.nEventsSum
	acc.pe += o.pe
	acc.teSum += o.teSum
	acc.teSumSq += o.teSumSq
	if o.nimaxMin < acc.nimaxMin {
		acc.nimaxMin = o.nimaxMin
	}
	for j := range acc.infExtSum {
		acc.infExtSum[j] += o.infExtSum[j]
		acc.infExtSumSq[j] += o.infExtSumSq[j]
		acc.infNoExtSum[j] += o.infNoExtSum[j]
		acc.infNoExtSumSq[j] += o.infNoExtSumSq[j]
		acc.totExtSum[j] += o.totExtSum[j]
		acc.totExtSumSq[j] += o.totExtSumSq[j]
		acc.totNoExtSum[j] += o.totNoExtSum[j]
		acc.totNoExtSumSq[j] += o.totNoExtSumSq[j]
	}
}

// MultiRun simulates the configured number of paths over a pool of worker
// goroutines. Work is handed out as contiguous sets of paths claimed
// through an atomic counter; each set draws from its own substream, so for
// a fixed seed and set count the result is bit-exact regardless of the
// worker count and of how the workers interleave.
func MultiRun(cfg *RunConfig) (*RunResult, error) {
	pars := cfg.Params
	if math.IsInf(pars.Tmax, 1) {
		return nil, solveErrorf(SolveValidationFailed, "tmax must be finite to accumulate timeline statistics")
	}
	if cfg.Npaths == 0 {
		return nil, solveErrorf(SolveValidationFailed, "npaths must be greater than 0")
	}
	nthreads := cfg.Nthreads
	if nthreads == 0 {
		nthreads = 1
	}
	nsetsPerThread := cfg.NsetsPerThread
	if nsetsPerThread == 0 {
		nsetsPerThread = 1
		if nthreads > 1 {
			nsetsPerThread = 100
		}
	}
	nimax := cfg.Nimax
	if nimax == 0 {
		nimax = NoNimax
	}

	nsets := nthreads * nsetsPerThread
	if nsets > cfg.Npaths {
		nsets = cfg.Npaths
	}
	pathsPerSet := float64(cfg.Npaths) / float64(nsets)

	npers := int(pars.Tmax) + 1
	accs := make([]*setAccum, nsets)

	var nextSet uint32
	var wg sync.WaitGroup
	for t := uint32(0); t < nthreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats := NewSummaryStats(pars, nimax)
			sim := NewSimulator(pars, NewStream(cfg.Seed, 0), stats)
			for {
				set := atomic.AddUint32(&nextSet, 1) - 1
				if set >= nsets {
					return
				}
				sim.SetStream(NewStream(cfg.Seed, uint64(set)))
				acc := newSetAccum(npers)
				npaths := uint32(math.Round(float64(set+1)*pathsPerSet)) - uint32(math.Round(float64(set)*pathsPerSet))
				for i := npaths; i > 0; i-- {
					stats.PathInit()
					sim.RunPath()
					acc.foldPath(stats)
				}
				accs[set] = acc
			}
		}()
	}
	wg.Wait()

	total := newSetAccum(npers)
	for _, acc := range accs {
		if acc != nil {
			total.merge(acc)
		}
	}
	return reduce(total, cfg.Npaths, npers), nil
}

// reduce converts the accumulated sums into means and standard deviations,
// using the same algebra on the x and x-squared sums as the per-path folds.
func reduce(acc *setAccum, npaths uint32, npers int) *RunResult {
	res := &RunResult{
		Npaths:            npaths,
		Npers:             npers,
		NimaxMinTimeIndex: acc.nimaxMin,
	}
	n := float64(npaths)
	pe := acc.pe
	nnoe := n - pe

	// The denominator for the per-individual means is the total number of
	// infections over all paths, read from the last full bin of the
	// cumulative timeline.
	last := npers - 2
	if last < 0 {
		last = 0
	}
	ninf := acc.totExtSum[last] + acc.totNoExtSum[last]
	res.RMean = acc.rSum / ninf
	res.CommPerMean = acc.commPerSum / ninf
	res.NEventsMean = acc.nEventsSum / ninf
	res.NInfPerEvent = acc.rSum / acc.nEventsSum

	res.Pe = pe / n
	res.PeStd = math.Sqrt(res.Pe * (1 - res.Pe) / (n - 1))
	res.TeMean = acc.teSum / pe
	res.TeStd = math.Sqrt(pe / (pe - 1) * (acc.teSumSq/pe - res.TeMean*res.TeMean))

	meanStd := func(sum, sumSq []float64, count float64) TimelineStats {
		ts := TimelineStats{Mean: make([]float64, npers), Std: make([]float64, npers)}
		for j := 0; j < npers; j++ {
			m := sum[j] / count
			ts.Mean[j] = m
			ts.Std[j] = math.Sqrt(count / (count - 1) * (sumSq[j]/count - m*m))
		}
		return ts
	}

	allSum := make([]float64, npers)
	allSumSq := make([]float64, npers)
	totAllSum := make([]float64, npers)
	totAllSumSq := make([]float64, npers)
	for j := 0; j < npers; j++ {
		allSum[j] = acc.infExtSum[j] + acc.infNoExtSum[j]
		allSumSq[j] = acc.infExtSumSq[j] + acc.infNoExtSumSq[j]
		totAllSum[j] = acc.totExtSum[j] + acc.totNoExtSum[j]
		totAllSumSq[j] = acc.totExtSumSq[j] + acc.totNoExtSumSq[j]
	}

	res.InfExt = meanStd(acc.infExtSum, acc.infExtSumSq, pe)
	res.InfNoExt = meanStd(acc.infNoExtSum, acc.infNoExtSumSq, nnoe)
	res.InfAll = meanStd(allSum, allSumSq, n)
	res.TotInfExt = meanStd(acc.totExtSum, acc.totExtSumSq, pe)
	res.TotInfNoExt = meanStd(acc.totNoExtSum, acc.totNoExtSumSq, nnoe)
	res.TotInfAll = meanStd(totAllSum, totAllSumSq, n)
	return res
}

// WriteReport writes the run summary and the per-bin tables in the standard
// output format.
func (r *RunResult) WriteReport(w io.Writer) {
	fmt.Fprintf(w, "Mean R is %f\n", r.RMean)
	fmt.Fprintf(w, "Communicable period is %f\n", r.CommPerMean)
	fmt.Fprintf(w, "Number of events per infectious individual is %f\n", r.NEventsMean)
	fmt.Fprintf(w, "Number of infections per event is %f\n", r.NInfPerEvent)

	flag := ""
	if r.NimaxReached() {
		flag = " (nimax reached, could be biased)"
	}
	fmt.Fprintf(w, "Probability of extinction and its statistical uncertainty: %f +/- %f%s\n", r.Pe, r.PeStd, flag)
	fmt.Fprintf(w, "Extinction time, if it occurs is %f +/- %f%s\n", r.TeMean, r.TeStd, flag)

	writeTable := func(title string, ext, noext, all TimelineStats) {
		fmt.Fprintf(w, "%s, for paths with extinction vs no extinction vs overall is:\n", title)
		for j := 0; j < r.Npers; j++ {
			binFlag := ""
			if int32(j) >= r.NimaxMinTimeIndex {
				binFlag = " (nimax reached, biased)"
			}
			fmt.Fprintf(w, "%3d: %11.4f +/- %11.4f\t%11.4f +/- %11.4f\t%11.4f +/- %11.4f%s\n",
				j, ext.Mean[j], ext.Std[j], noext.Mean[j], noext.Std[j], all.Mean[j], all.Std[j], binFlag)
		}
	}
	writeTable("Current infection timeline", r.InfExt, r.InfNoExt, r.InfAll)
	writeTable("Total infections timeline", r.TotInfExt, r.TotInfNoExt, r.TotInfAll)
}
