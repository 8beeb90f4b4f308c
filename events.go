package outbreakgo

// selectEventSampler picks the attendee/infection generator matching the
// configured group distribution and infection probability. Saturated
// variants (pinf == 1) derive one count from the other with a single draw.
func (sim *Simulator) selectEventSampler() {
	pars := sim.pars
	if pars.Pinf == 1 {
		switch {
		case pars.GroupType == GroupGauss:
			sim.genAttInf = func(ii *InfIndividual) {
				ii.NAttendees = sim.gaussAttendees()
				ii.NInfections = ii.NAttendees - 1
			}
		case pars.GroupType == GroupGeom:
			sim.genAttInf = func(ii *InfIndividual) {
				ii.NInfections = sim.stream.Geometric(1 - pars.P)
				ii.NAttendees = ii.NInfections + 1
			}
		case pars.P == 0:
			sim.genAttInf = func(ii *InfIndividual) {
				ii.NInfections = 1
				ii.NAttendees = 2
			}
		case pars.GroupType == GroupLogPlus1:
			sim.genAttInf = func(ii *InfIndividual) {
				ii.NInfections = sim.logSampler.Finite()
				ii.NAttendees = ii.NInfections + 1
			}
		default:
			sim.genAttInf = func(ii *InfIndividual) {
				ii.NAttendees = sim.logSampler.FiniteGT1()
				ii.NInfections = ii.NAttendees - 1
			}
		}
		return
	}

	switch {
	case pars.GroupType == GroupGauss:
		sim.genAttInf = func(ii *InfIndividual) {
			ii.NAttendees = sim.gaussAttendees()
			ii.NInfections = sim.stream.Binomial(ii.NAttendees-1, pars.Pinf)
		}
	case pars.GroupType == GroupGeom:
		sim.genAttInf = func(ii *InfIndividual) {
			ii.NAttendees = 1 + sim.stream.Geometric(1-pars.P)
			ii.NInfections = sim.stream.Binomial(ii.NAttendees-1, pars.Pinf)
		}
	case pars.P == 0:
		sim.genAttInf = func(ii *InfIndividual) {
			ii.NAttendees = 2
			ii.NInfections = 0
			if sim.stream.Float64() < pars.Pinf {
				ii.NInfections = 1
			}
		}
	case pars.GroupType == GroupLogPlus1:
		sim.genAttInf = func(ii *InfIndividual) {
			ii.NAttendees = sim.logSampler.Finite() + 1
			ii.NInfections = sim.stream.Binomial(ii.NAttendees-1, pars.Pinf)
		}
	default:
		sim.genAttInf = func(ii *InfIndividual) {
			ii.NAttendees = sim.logSampler.FiniteGT1()
			ii.NInfections = sim.stream.Binomial(ii.NAttendees-1, pars.Pinf)
		}
	}
}

// gaussAttendees draws a truncated Gaussian group size with support
// {2, 3, ...}.
func (sim *Simulator) gaussAttendees() uint32 {
	for {
		r := sim.pars.Mu + sim.stream.Gaussian()*sim.pars.Sigma
		if r >= 1.5 {
			return uint32(r + 0.5)
		}
	}
}
