package outbreakgo

import "math"

// samplePeriods generates the latent and communicable periods for an
// infectious individual infected at the parent's current event time. With
// probability q the communicable period is drawn from the alternate
// distribution; an interruptable period is replaced when the drawn
// interrupted duration is shorter. The individual is marked truncated when
// it is still communicable at tmax while its communicable period started
// before tmax.
func (sim *Simulator) samplePeriods(ii, parent *InfIndividual) {
	pars := sim.pars

	switch {
	case pars.Lbar == 0:
		ii.LatentPeriod = 0
	case math.IsInf(pars.Kappal, 1):
		ii.LatentPeriod = pars.Lbar
	default:
		ii.LatentPeriod = sim.stream.Gamma(pars.La, pars.Lb)
	}

	ii.PeriodType = 0
	if pars.Q > 0 && sim.stream.Float64() < pars.Q {
		ii.PeriodType = CommPeriodAlt
		if math.IsInf(pars.Kappaq, 1) {
			ii.CommPeriod = pars.Mbar
		} else {
			ii.CommPeriod = sim.stream.Gamma(pars.Ma, pars.Mb)
		}
		if pars.Pim > 0 && sim.stream.Float64() < pars.Pim {
			t := pars.Imbar
			if !math.IsInf(pars.Kappaim, 1) {
				t = sim.stream.Gamma(pars.Ima, pars.Imb)
			}
			if t < ii.CommPeriod {
				ii.CommPeriod = t
				ii.PeriodType |= CommPeriodInterrupted
			}
		}
	} else {
		ii.PeriodType = CommPeriodMain
		if math.IsInf(pars.Kappa, 1) {
			ii.CommPeriod = pars.Tbar
		} else {
			ii.CommPeriod = sim.stream.Gamma(pars.Ta, pars.Tb)
		}
		if pars.Pit > 0 && sim.stream.Float64() < pars.Pit {
			t := pars.Itbar
			if !math.IsInf(pars.Kappait, 1) {
				t = sim.stream.Gamma(pars.Ita, pars.Itb)
			}
			if t < ii.CommPeriod {
				ii.CommPeriod = t
				ii.PeriodType |= CommPeriodInterrupted
			}
		}
	}

	ii.EndCommPeriod = parent.EventTime + ii.LatentPeriod + ii.CommPeriod
	if ii.EndCommPeriod > pars.Tmax && parent.EventTime+ii.LatentPeriod < pars.Tmax {
		ii.PeriodType |= CommPeriodTruncated
	}
}
