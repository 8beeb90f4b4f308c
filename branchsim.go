package outbreakgo

// Number of layers allocated when a simulator is created, and the growth
// factor applied when the descent outgrows the stack.
const (
	initNumLayers   = 16
	layersGrowthFct = 1.5
)

// PathStatsProcessor receives the engine callbacks for one simulated path.
// A single processor instance is bound to a single engine instance; the
// engine never shares it between goroutines. Children of an event are
// visited in sequence before the next event; beyond that the visiting order
// of sibling events and siblings is unspecified.
type PathStatsProcessor interface {
	// LayersGrown is invoked once for every newly allocated stretch of the
	// layer stack, including the initial allocation, so per-layer state can
	// be set up exactly once.
	LayersGrown(layers []InfIndividual)
	// PrimaryInit is invoked for each primary infectious individual after
	// its periods have been sampled, before its events are walked.
	PrimaryInit(primary, root *InfIndividual)
	// NewEvent is invoked when a transmission event has been assigned a
	// time, attendees and infections. Returning false skips the expansion
	// of the event into new infectious individuals.
	NewEvent(ii *InfIndividual) bool
	// InfectiousDone is invoked once all transmission events of an
	// infectious individual have been walked.
	InfectiousDone(ii, parent *InfIndividual)
	// InfectiousNoEvent is invoked instead for an infectious individual
	// that participates in no transmission event.
	InfectiousNoEvent(ii, parent *InfIndividual)
	// PathEnd is invoked when a path has been fully walked. Returning true
	// discards the path and restarts it.
	PathEnd() bool
}

// Simulator walks the branching infection tree depth first over a reusable
// stack of layers, one layer per live generation on the descent path. It
// owns the layer stack and the stream; the model parameters are read-only
// shared.
type Simulator struct {
	pars   *ModelParams
	stream *Stream
	proc   PathStatsProcessor

	layers     []InfIndividual
	logSampler *LogSampler
	genAttInf  func(ii *InfIndividual)
}

// NewSimulator creates a simulation engine for a resolved parameter set.
func NewSimulator(pars *ModelParams, stream *Stream, proc PathStatsProcessor) *Simulator {
	sim := &Simulator{pars: pars, proc: proc}
	sim.layers = make([]InfIndividual, initNumLayers)
	for i := range sim.layers {
		sim.layers[i].Generation = uint32(i)
	}
	// The virtual root holds the primaries' parent event at time zero.
	sim.layers[0].NEvents = 1
	sim.layers[0].NAttendees = 1
	sim.layers[0].NInfections = 1
	sim.proc.LayersGrown(sim.layers)
	sim.SetStream(stream)
	return sim
}

// SetStream rebinds the engine to a different random substream. The layer
// stack and its per-layer state are kept.
func (sim *Simulator) SetStream(stream *Stream) {
	sim.stream = stream
	sim.logSampler = NewLogSampler(stream, sim.pars.P)
	sim.selectEventSampler()
}

// ensureCapacity grows the layer stack when the descent is about to use its
// last slot.
func (sim *Simulator) ensureCapacity(depth int) {
	if depth < len(sim.layers)-1 {
		return
	}
	newLen := int(float64(len(sim.layers)) * layersGrowthFct)
	grown := make([]InfIndividual, newLen)
	copy(grown, sim.layers)
	for i := len(sim.layers); i < newLen; i++ {
		grown[i].Generation = uint32(i)
	}
	sim.proc.LayersGrown(grown[len(sim.layers):])
	sim.layers = grown
}

// RunPath simulates one outbreak path, invoking the stats callbacks along
// the way. When the processor requests a retry at the end of the path, the
// path is restarted from scratch.
func (sim *Simulator) RunPath() {
	pars := sim.pars
	for {
		for i := pars.Nstart; i > 0; i-- {
			sim.layers[0].EventTime = 0
			pri := &sim.layers[1]
			sim.samplePeriods(pri, &sim.layers[0])
			sim.proc.PrimaryInit(pri, &sim.layers[0])

			pri.NEvents = sim.stream.Poisson(pars.Lambda * pri.CommPeriod)
			if pri.NEvents == 0 {
				sim.proc.InfectiousNoEvent(pri, &sim.layers[0])
				continue
			}
			pri.curEvent = 0
			expanded := false
			for {
				pri.EventTime = pri.EndCommPeriod - pri.CommPeriod*sim.stream.Float64()
				sim.genAttInf(pri)
				if sim.proc.NewEvent(pri) {
					expanded = true
					break
				}
				if pri.curEvent == pri.NEvents-1 {
					sim.proc.InfectiousDone(pri, &sim.layers[0])
					break
				}
				pri.curEvent++
			}
			if !expanded {
				continue
			}
			pri.curInfection = 0
			sim.descend()
		}
		if !sim.proc.PathEnd() {
			return
		}
	}
}

// descend walks the subtree rooted at the first infection of the primary's
// current event. The recursion is expressed as an explicit loop over the
// layer stack so memory is bounded by the tree depth rather than its size.
func (sim *Simulator) descend() {
	cur := 1
outer:
	for {
		// Instantiate the next infected individual one layer up.
		cur++
		sim.ensureCapacity(cur)
		child := &sim.layers[cur]
		sim.samplePeriods(child, &sim.layers[cur-1])

		child.NEvents = sim.stream.Poisson(sim.pars.Lambda * child.CommPeriod)
		if child.NEvents > 0 {
			child.curEvent = 0
			for {
				child.EventTime = child.EndCommPeriod - child.CommPeriod*sim.stream.Float64()
				sim.genAttInf(child)
				if sim.proc.NewEvent(child) {
					child.curInfection = 0
					continue outer
				}
				if child.curEvent < child.NEvents-1 {
					child.curEvent++
					continue
				}
				sim.proc.InfectiousDone(child, &sim.layers[cur-1])
				break
			}
		} else {
			sim.proc.InfectiousNoEvent(child, &sim.layers[cur-1])
		}

		// All events of the current individual have been exhausted; move
		// back down until an unfinished ancestor is found.
		for {
			if sim.layers[cur].Generation == 1 {
				return
			}
			cur--
			l := &sim.layers[cur]
			if l.curInfection == l.NInfections-1 {
				if l.curEvent == l.NEvents-1 {
					sim.proc.InfectiousDone(l, &sim.layers[cur-1])
					continue
				}
				l.curEvent++
				// Generate the next event for this individual.
				for {
					l.EventTime = l.EndCommPeriod - l.CommPeriod*sim.stream.Float64()
					sim.genAttInf(l)
					if sim.proc.NewEvent(l) {
						l.curInfection = 0
						continue outer
					}
					if l.curEvent < l.NEvents-1 {
						l.curEvent++
						continue
					}
					sim.proc.InfectiousDone(l, &sim.layers[cur-1])
					break
				}
				continue
			}
			l.curInfection++
			continue outer
		}
	}
}
