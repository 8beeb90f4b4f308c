package outbreakgo

import (
	"log"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// Convergence tolerances for the parameter solves.
const (
	rfPEps       = 1e-15 // mu and g_ave discrepancy
	rfGPercEps   = 1e-15 // x95 CDF discrepancy
	rfGKappaEps  = 1e-15 // kappa CDF discrepancy
	rfGaussMuEps = 1e-15 // Gaussian mu mean discrepancy
	rfMaxIter    = 100
)

// Solve fills in the model parameters that have not been provided as an
// input and validates the result. The parameter set must not be shared with
// running simulations while Solve executes.
func (pars *ModelParams) Solve() error {
	if err := pars.solveR0Group(); err != nil {
		return errors.Wrap(err, "cannot solve parameters for the basic reproduction number")
	}

	if err := requireExactlyOne(pars.Kappa, pars.T95, "kappa", "t95"); err != nil {
		return err
	}
	if err := solveGammaGroup(&pars.Tbar, &pars.Kappa, &pars.T95, "main time"); err != nil {
		return err
	}
	pars.Ta = pars.Tbar * pars.Kappa
	pars.Tb = 1 / pars.Kappa

	if pars.Pit > 0 {
		if err := requireExactlyOne(pars.Kappait, pars.It95, "kappait", "it95"); err != nil {
			return err
		}
		if err := solveGammaGroup(&pars.Itbar, &pars.Kappait, &pars.It95, "interrupted main time"); err != nil {
			return err
		}
		pars.Ita = pars.Itbar * pars.Kappait
		pars.Itb = 1 / pars.Kappait
	}

	if pars.Q > 0 {
		if err := requireExactlyOne(pars.Kappaq, pars.M95, "kappaq", "m95"); err != nil {
			return err
		}
		if err := solveGammaGroup(&pars.Mbar, &pars.Kappaq, &pars.M95, "alternate time"); err != nil {
			return err
		}
		pars.Ma = pars.Mbar * pars.Kappaq
		pars.Mb = 1 / pars.Kappaq

		if !has(pars.Pim) {
			pars.Pim = pars.Pit
		}
		if pars.Pim > 0 {
			if !has(pars.Imbar) && !has(pars.Kappaim) && !has(pars.Im95) {
				// The interrupted alternate period defaults to the
				// interrupted main period.
				pars.Imbar = pars.Itbar
				pars.Kappaim = pars.Kappait
				pars.Im95 = pars.It95
				pars.Ima = pars.Ita
				pars.Imb = pars.Itb
			} else {
				if !has(pars.Imbar) {
					pars.Imbar = pars.Itbar
				}
				if err := requireExactlyOne(pars.Kappaim, pars.Im95, "kappaim", "im95"); err != nil {
					return err
				}
				if err := solveGammaGroup(&pars.Imbar, &pars.Kappaim, &pars.Im95, "interrupted alternate time"); err != nil {
					return err
				}
				pars.Ima = pars.Imbar * pars.Kappaim
				pars.Imb = 1 / pars.Kappaim
			}
		}
	}

	if pars.Lbar > 0 {
		if err := requireExactlyOne(pars.Kappal, pars.L95, "kappal", "l95"); err != nil {
			return err
		}
		if err := solveGammaGroup(&pars.Lbar, &pars.Kappal, &pars.L95, "latent time"); err != nil {
			return err
		}
		pars.La = pars.Lbar * pars.Kappal
		pars.Lb = 1 / pars.Kappal
	}

	return pars.Validate()
}

func requireExactlyOne(a, b float64, aname, bname string) error {
	na, nb := has(a), has(b)
	if na && nb {
		return solveErrorf(SolveOverdetermined, "only one of the %s and %s parameters may be provided", aname, bname)
	}
	if !na && !nb {
		return solveErrorf(SolveUnderdetermined, "either the %s parameter or the %s parameter must be provided", aname, bname)
	}
	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// solveR0Group fills the basic reproduction parameters. Exactly four of
// {tbar, lambda or lambda_uncut, g_ave|p|mu, pinf, R0} must be provided.
func (pars *ModelParams) solveR0Group() error {
	count := b2i(has(pars.Tbar)) + b2i(has(pars.Lambda)) + b2i(has(pars.LambdaUncut)) +
		b2i(has(pars.GAve) || has(pars.P) || has(pars.Mu)) + b2i(has(pars.Pinf)) + b2i(has(pars.R0))
	if count < 4 {
		return solveErrorf(SolveUnderdetermined, "an invalid combination of tbar, lambda, lambda_uncut, g_ave, p, mu, pinf and R0 parameters was provided")
	}
	if count > 4 || (has(pars.Lambda) && has(pars.LambdaUncut)) {
		return solveErrorf(SolveOverdetermined, "an invalid combination of tbar, lambda, lambda_uncut, g_ave, p, mu, pinf and R0 parameters was provided")
	}

	if has(pars.Lambda) && pars.Lambda <= 0 {
		return solveErrorf(SolveOutOfRange, "lambda must be greater than 0")
	}
	if has(pars.LambdaUncut) && pars.LambdaUncut <= 0 {
		return solveErrorf(SolveOutOfRange, "lambda_uncut must be greater than 0")
	}
	if has(pars.Pinf) && (!(pars.Pinf > 0) || !(pars.Pinf <= 1)) {
		return solveErrorf(SolveOutOfRange, "the pinf parameter must have a value in the interval (0,1]")
	}
	if has(pars.Tbar) && pars.Tbar <= 0 {
		return solveErrorf(SolveOutOfRange, "tbar must be greater than 0")
	}
	if has(pars.R0) && pars.R0 <= 0 {
		return solveErrorf(SolveOutOfRange, "R0 must be greater than 0")
	}

	if pars.GroupType != GroupGauss {
		if has(pars.Sigma) || has(pars.Rsigma) {
			return solveErrorf(SolveOutOfRange, "sigma and rsigma cannot be used if the group distribution is not Gaussian")
		}
	} else {
		if has(pars.Sigma) && has(pars.Rsigma) {
			return solveErrorf(SolveOverdetermined, "either sigma or rsigma must be defined")
		}
		if !(pars.Sigma > 0) && !(pars.Rsigma > 0) {
			return solveErrorf(SolveUnderdetermined, "a positive value for sigma or rsigma must be defined")
		}
	}
	if pars.GroupInteractions && (pars.GroupType == GroupGeom || pars.GroupType == GroupGauss) {
		return solveErrorf(SolveValidationFailed, "group interactions are not supported for the %s group distribution", pars.GroupType)
	}

	if has(pars.GAve) || has(pars.P) || has(pars.Mu) {
		if err := pars.solveGroup(); err != nil {
			return err
		}

		if !has(pars.Lambda) {
			if !has(pars.LambdaUncut) {
				pars.Lambda = pars.R0 / (pars.Tbar * (pars.GAveTransm - 1) * pars.Pinf)
				pars.solveLambdaUncutFromLambda()
			} else if err := pars.solveLambdaFromLambdaUncut(); err != nil {
				return err
			}
		} else {
			pars.solveLambdaUncutFromLambda()
		}

		switch {
		case !has(pars.R0):
			pars.R0 = pars.Lambda * pars.Tbar * (pars.GAveTransm - 1) * pars.Pinf
		case !has(pars.Tbar):
			pars.Tbar = pars.R0 / (pars.Lambda * (pars.GAveTransm - 1) * pars.Pinf)
		case !has(pars.Pinf):
			pars.Pinf = pars.R0 / (pars.Lambda * pars.Tbar * (pars.GAveTransm - 1))
		}
		return nil
	}

	// The group parameters are all unknown and must be derived from the
	// average group size of transmission events.
	if !has(pars.Lambda) {
		return solveErrorf(SolveUnderdetermined, "solving group parameters from lambda_uncut is not supported")
	}
	if pars.GroupInteractions {
		pars.GAveTransm = pars.R0/(pars.Lambda*pars.Tbar*pars.Pinf) + 1
		pars.GAve = math.NaN()
	} else {
		pars.GAveTransm = pars.R0/(pars.Lambda*pars.Tbar*pars.Pinf) + 1
		pars.GAve = pars.GAveTransm
	}
	if err := pars.solveGroup(); err != nil {
		return err
	}
	pars.solveLambdaUncutFromLambda()
	return nil
}

func (pars *ModelParams) solveGroup() error {
	switch pars.GroupType {
	case GroupLogPlus1:
		return pars.solveLogPlus1Group()
	case GroupLog:
		return pars.solveLogGroup()
	case GroupGeom:
		return pars.solveGeomGroup()
	case GroupGauss:
		return pars.solveGaussGroup()
	}
	return solveErrorf(SolveValidationFailed, "unknown group distribution")
}

// solveLambdaUncutFromLambda computes the rate of events including
// singleton-invitee events from the rate of events with at least two
// invitees.
func (pars *ModelParams) solveLambdaUncutFromLambda() {
	switch pars.GroupType {
	case GroupLog:
		if pars.P == 0 {
			pars.LambdaUncut = math.Inf(1)
			return
		}
		l1mp := math.Log(1 - pars.P)
		pars.LambdaUncut = l1mp / (l1mp + pars.P) * pars.Lambda
	case GroupGauss:
		pars.LambdaUncut = pars.Lambda / distuv.UnitNormal.Survival((1.5-pars.Mu)/pars.Sigma)
	default:
		// For log_plus_1 and geom every event has at least two attendees.
		pars.LambdaUncut = pars.Lambda
	}
}

// solveLambdaFromLambdaUncut is the inverse conversion.
func (pars *ModelParams) solveLambdaFromLambdaUncut() error {
	switch pars.GroupType {
	case GroupLog:
		if pars.P == 0 {
			return solveErrorf(SolveOutOfRange, "lambda cannot be computed from lambda_uncut for the log group distribution if p=0")
		}
		l1mp := math.Log(1 - pars.P)
		pars.Lambda = (l1mp + pars.P) / l1mp * pars.LambdaUncut
	case GroupGauss:
		pars.Lambda = pars.LambdaUncut * distuv.UnitNormal.Survival((1.5-pars.Mu)/pars.Sigma)
	default:
		pars.Lambda = pars.LambdaUncut
	}
	return nil
}

func (pars *ModelParams) solveLogPlus1Group() error {
	switch {
	case has(pars.GAve):
		if !(pars.GAve >= 2) {
			return solveErrorf(SolveOutOfRange, "g_ave must be greater than or equal to 2")
		}
		pars.Mu = pars.GAve - 1
		if err := pars.solveLogPFromMu(); err != nil {
			return err
		}
		if pars.GroupInteractions {
			pars.GAveTransm = pars.GAve - (1+math.Log(1-pars.P)/pars.P)*pars.Mu*pars.Mu/pars.GAve
		} else {
			pars.GAveTransm = pars.GAve
		}

	case has(pars.GAveTransm):
		// Group interactions: the mean group size of transmission events is
		// known instead of the plain event mean.
		if !(pars.GAveTransm >= 2) {
			return solveErrorf(SolveOutOfRange, "g_ave must be greater than or equal to 2")
		}
		if pars.GAveTransm == 2 {
			pars.GAve = 2
			pars.P = 0
			pars.Mu = 1
			return nil
		}
		if err := pars.solveLogPlus1PFromTransmMean(); err != nil {
			return err
		}
		omx := 1 - pars.P
		l := math.Log(omx)
		xpl := pars.P + l
		omxl := omx * l
		omxlmx := omxl - pars.P
		pars.GAve = pars.GAveTransm + pars.P/omxl*xpl/omxlmx
		pars.Mu = pars.GAve - 1

	default:
		l1mp := math.Log(1 - pars.P)
		if has(pars.P) {
			if !(pars.P >= 0) || !(pars.P < 1) {
				return solveErrorf(SolveOutOfRange, "p must be non-negative and smaller than 1")
			}
			if pars.P > 0 {
				pars.Mu = -pars.P / ((1 - pars.P) * l1mp)
			} else {
				pars.Mu = 1
			}
		} else {
			if !(pars.Mu >= 1) {
				return solveErrorf(SolveOutOfRange, "mu must be greater than or equal to 1")
			}
			if err := pars.solveLogPFromMu(); err != nil {
				return err
			}
			l1mp = math.Log(1 - pars.P)
		}

		if pars.P == 0 {
			pars.GAve = 2
			pars.GAveTransm = 2
		} else {
			pars.GAve = pars.Mu + 1
			if pars.GroupInteractions {
				pars.GAveTransm = pars.GAve - (1+l1mp/pars.P)*pars.Mu*pars.Mu/pars.GAve
			} else {
				pars.GAveTransm = pars.GAve
			}
		}
	}
	return nil
}

func (pars *ModelParams) solveLogGroup() error {
	if has(pars.GAve) {
		if !(pars.GAve >= 2) {
			return solveErrorf(SolveOutOfRange, "g_ave must be greater than or equal to 2")
		}
		if err := pars.solveTruncLogPFromMean(pars.GAve); err != nil {
			return err
		}
		l1mp := math.Log(1 - pars.P)
		if pars.P > 0 {
			pars.Mu = -pars.P / ((1 - pars.P) * l1mp)
		} else {
			pars.Mu = 1
		}
		if pars.GroupInteractions {
			pars.GAveTransm = pars.GAve - ((pars.P-2)*l1mp-2*pars.P)/((1-pars.P)*(pars.P+l1mp))
		} else {
			pars.GAveTransm = pars.GAve
		}
		return nil
	}

	l1mp := math.Log(1 - pars.P)
	if has(pars.P) {
		if !(pars.P >= 0) || !(pars.P < 1) {
			return solveErrorf(SolveOutOfRange, "p must be non-negative and smaller than 1")
		}
		if pars.P > 0 {
			pars.Mu = -pars.P / ((1 - pars.P) * l1mp)
		} else {
			pars.Mu = 1
		}
	} else {
		if !(pars.Mu >= 1) {
			return solveErrorf(SolveOutOfRange, "mu must be greater than or equal to 1")
		}
		if err := pars.solveLogPFromMu(); err != nil {
			return err
		}
		l1mp = math.Log(1 - pars.P)
	}

	if pars.P == 0 {
		pars.GAve = 2
		pars.GAveTransm = 2
	} else {
		pars.GAve = -pars.P * pars.P / ((1 - pars.P) * (l1mp + pars.P))
		if pars.GroupInteractions {
			pars.GAveTransm = pars.GAve - ((pars.P-2)*l1mp-2*pars.P)/((1-pars.P)*(pars.P+l1mp))
		} else {
			pars.GAveTransm = pars.GAve
		}
	}
	return nil
}

func (pars *ModelParams) solveGeomGroup() error {
	if has(pars.GAve) {
		if !(pars.GAve >= 2) {
			return solveErrorf(SolveOutOfRange, "g_ave must be greater than or equal to 2")
		}
		pars.P = (pars.GAve - 2) / (1 + pars.GAve)
		pars.Mu = 1 / (1 - pars.P)
		pars.GAveTransm = pars.GAve
		return nil
	}

	if has(pars.P) {
		if !(pars.P >= 0) || !(pars.P < 1) {
			return solveErrorf(SolveOutOfRange, "p must be non-negative and smaller than 1")
		}
		pars.Mu = 1 / (1 - pars.P)
	} else {
		if !(pars.Mu >= 1) {
			return solveErrorf(SolveOutOfRange, "mu must be greater than or equal to 1")
		}
		pars.P = 1 - 1/pars.Mu
	}
	pars.GAve = (2 - pars.P) / (1 - pars.P)
	pars.GAveTransm = pars.GAve
	return nil
}

func (pars *ModelParams) solveGaussGroup() error {
	if has(pars.GAve) {
		if !(pars.GAve >= 2) {
			return solveErrorf(SolveOutOfRange, "g_ave must be greater than or equal to 2")
		}
		if pars.Sigma > 0 {
			// The discretized truncated mean is increasing in mu, so the
			// target must lie above the mean at mu=0.
			if gaussTruncMean(0, pars.Sigma) > pars.GAve {
				return solveErrorf(SolveOutOfRange, "the provided g_ave and sigma values do not allow for a positive mu value")
			}
			sigma := pars.Sigma
			otherMu := pars.GAve + sigma
			prevX, prevDiff := otherMu, gaussTruncMean(otherMu, sigma)-pars.GAve
			step := func(x float64) (float64, float64) {
				diff := gaussTruncMean(x, sigma) - pars.GAve
				nx := x - diff*(x-prevX)/(diff-prevDiff)
				prevX, prevDiff = x, diff
				return nx, diff
			}
			mu, err := solveRoot("gauss_mu", step, rfGaussMuEps, rfMaxIter, 0, 1e100, pars.GAve)
			if err != nil {
				return err
			}
			pars.Mu = mu
			pars.Rsigma = pars.Sigma / pars.Mu
		} else {
			rsigma := pars.Rsigma
			otherMu := pars.GAve * (1 + rsigma)
			prevX, prevDiff := otherMu, gaussTruncMean(otherMu, otherMu*rsigma)-pars.GAve
			step := func(x float64) (float64, float64) {
				diff := gaussTruncMean(x, x*rsigma) - pars.GAve
				nx := x - diff*(x-prevX)/(diff-prevDiff)
				prevX, prevDiff = x, diff
				return nx, diff
			}
			mu, err := solveRoot("gauss_mu", step, rfGaussMuEps, rfMaxIter, 0, 1e100, pars.GAve)
			if err != nil {
				return err
			}
			pars.Mu = mu
			pars.Sigma = pars.Rsigma * pars.Mu
		}
	} else {
		if !(pars.Mu >= 0) {
			return solveErrorf(SolveOutOfRange, "the Gaussian mu parameter must be non-negative")
		}
		if pars.Sigma > 0 {
			pars.Rsigma = pars.Sigma / pars.Mu
		} else {
			pars.Sigma = pars.Rsigma * pars.Mu
		}
		pars.GAve = gaussTruncMean(pars.Mu, pars.Sigma)
	}
	pars.GAveTransm = pars.GAve
	return nil
}

// solveLogPFromMu computes p for a logarithmic distribution from mu using
// Newton's method.
func (pars *ModelParams) solveLogPFromMu() error {
	if pars.Mu == 1 {
		pars.P = 0
		return nil
	}
	mu := pars.Mu
	step := func(x float64) (float64, float64) {
		omx := 1 - x
		l := math.Log(omx)
		diff := mu + x/(omx*l)
		nx := x - diff*l*omx*omx/(x/l+1)
		return nx, diff / mu
	}
	p, err := solveRoot("log_p_from_mu", step, rfPEps, rfMaxIter, rfPEps, 1-rfPEps, 0.999)
	if err != nil {
		return err
	}
	pars.P = p
	return nil
}

// solveTruncLogPFromMean computes p for a logarithmic distribution truncated
// below 2 from its mean, using Newton's method.
func (pars *ModelParams) solveTruncLogPFromMean(mean float64) error {
	if mean == 2 {
		pars.P = 0
		return nil
	}
	step := func(x float64) (float64, float64) {
		omx := 1 - x
		l := math.Log(omx)
		lpx := l + x
		diff := mean + x*x/(omx*lpx)
		nx := x - diff*lpx*lpx*omx*omx/(x*(2*lpx-x*l))
		return nx, diff / mean
	}
	p, err := solveRoot("trunc_log_p_from_mean", step, rfPEps, rfMaxIter, rfPEps, 1-rfPEps, 0.999)
	if err != nil {
		return err
	}
	pars.P = p
	return nil
}

// solveLogPlus1PFromTransmMean computes p from the mean group size of
// transmission events when a logarithmic plus one distribution is used for
// all group interaction events.
func (pars *ModelParams) solveLogPlus1PFromTransmMean() error {
	target := pars.GAveTransm
	step := func(x float64) (float64, float64) {
		omx := 1 - x
		l := math.Log(omx)
		xpl := x + l
		omxl := omx * l
		omxlmx := omxl - x
		xpldomxlmx := xpl / omxlmx
		opxpldomxlmx := 1 + xpldomxlmx
		mean := -x / omxl * opxpldomxlmx
		diff := mean - target + 1
		nx := x - diff*omxl/(-opxpldomxlmx+mean*(1+l)+x/omxlmx*(x/omx+xpldomxlmx*(l+2)))
		return nx, diff / (target - 1)
	}
	p, err := solveRoot("log_p_plus_1_from_transm_mean", step, rfPEps, rfMaxIter, rfPEps, 1-rfPEps, 0.999)
	if err != nil {
		return err
	}
	pars.P = p
	return nil
}

// gammaCDFResidual computes the discrepancy between the gamma CDF evaluated
// at t for shape a and the 95th percentile.
func gammaCDFResidual(a, t float64) float64 {
	return mathext.GammaIncReg(a, t) - 0.95
}

// solveGammaGroup solves the (ave, kappa, x95) triple of a gamma
// distribution family: given the average and one of kappa or x95, the
// remaining parameter is found through the incomplete gamma CDF.
func solveGammaGroup(ave, kappa, x95 *float64, name string) error {
	if !(*ave >= 0) {
		return solveErrorf(SolveOutOfRange, "the average of the %s distribution must be non-negative", name)
	}
	if *ave == 0 {
		return nil
	}

	if !has(*x95) {
		if !(*kappa >= 0) {
			return solveErrorf(SolveOutOfRange, "the kappa parameter of the %s distribution must have a positive value", name)
		}
		if !(*kappa > 1 / *ave) {
			log.Printf("warning: the selected kappa value will generate a monotonically decreasing %s distribution", name)
		}
		if math.IsInf(*kappa, 1) {
			*x95 = *ave
			return nil
		}
		a := *ave * *kappa
		k := *kappa
		step := func(x float64) (float64, float64) {
			t := k * x
			diff := gammaCDFResidual(a, t)
			nx := x - diff*math.Gamma(a)/(math.Pow(t, a-1)*math.Exp(-t)*k)
			return nx, diff
		}
		v, err := solveRoot("gamma_x95", step, rfGPercEps, rfMaxIter, *ave, 1e100, *ave)
		if err != nil {
			return errors.Wrapf(err, "cannot solve parameters for the %s gamma distribution", name)
		}
		*x95 = v
		return nil
	}

	if !(*x95 >= *ave) {
		return solveErrorf(SolveOutOfRange, "the 95th percentile of the %s distribution cannot be smaller than the average", name)
	}
	if *x95 == *ave {
		*kappa = math.Inf(1)
		return nil
	}

	// Search the regime where the mode of the gamma distribution is above 0
	// first, then fall back to a monotonically decreasing solution.
	v, err := solveGammaKappa(*ave, *x95, 1, 1/(*ave), 1e100)
	if err != nil {
		if !errors.Is(err, ErrRootIterLimit) {
			return errors.Wrapf(err, "cannot solve parameters for the %s gamma distribution", name)
		}
		log.Printf("warning: no root found for the %s gamma distribution with a mode above 0, searching for a monotonically decreasing solution", name)
		v, err = solveGammaKappa(*ave, *x95, 1/(*ave), 0, 1/(*ave))
		if err != nil {
			return errors.Wrapf(err, "cannot solve parameters for the %s gamma distribution", name)
		}
	}
	*kappa = v
	return nil
}

// solveGammaKappa runs the secant search for kappa within a bracket,
// starting from x0.
func solveGammaKappa(ave, x95, x0, xmin, xmax float64) (float64, error) {
	otherKappa := x0 * 0.9
	prevX, prevDiff := otherKappa, gammaCDFResidual(ave*otherKappa, x95*otherKappa)
	step := func(x float64) (float64, float64) {
		diff := gammaCDFResidual(ave*x, x95*x)
		nx := x - diff*(x-prevX)/(diff-prevDiff)
		prevX, prevDiff = x, diff
		return nx, diff
	}
	x, res, err := FindRoot(step, rfGKappaEps, rfMaxIter, xmin, xmax, x0)
	if err == nil {
		return x, nil
	}
	if errors.Is(err, ErrRootStalled) && math.Abs(res) < 10*rfGKappaEps {
		log.Printf("warning: gamma_kappa root search stalled with residual %22.15e", res)
		return x, nil
	}
	if errors.Is(err, ErrRootIterLimit) {
		return x, err
	}
	return x, &SolveError{Kind: SolveRootFailed, Detail: "gamma_kappa", Residual: res}
}

// solveRoot runs FindRoot and maps its failure modes onto the resolver
// error policy: a stalled search within ten times the tolerance is accepted
// with a warning, anything else aborts the resolution.
func solveRoot(kind string, step RootStepFunc, eps float64, maxiter uint32, xmin, xmax, x0 float64) (float64, error) {
	x, res, err := FindRoot(step, eps, maxiter, xmin, xmax, x0)
	if err == nil {
		return x, nil
	}
	if errors.Is(err, ErrRootStalled) && math.Abs(res) < 10*eps {
		log.Printf("warning: %s root search stalled with residual %22.15e", kind, res)
		return x, nil
	}
	return x, &SolveError{Kind: SolveRootFailed, Detail: kind, Residual: res}
}

// gaussTruncMean computes the mean of a Gaussian distribution discretized
// onto the integers and truncated below 2. The two tails are accumulated
// symmetrically around the discretized mean until the incremental CDF
// contribution falls below machine epsilon.
func gaussTruncMean(mu, sigma float64) float64 {
	binProb := func(k float64) float64 {
		lo := (k - 0.5 - mu) / sigma
		hi := (k + 0.5 - mu) / sigma
		if lo > 0 {
			return distuv.UnitNormal.Survival(lo) - distuv.UnitNormal.Survival(hi)
		}
		return distuv.UnitNormal.CDF(hi) - distuv.UnitNormal.CDF(lo)
	}

	center := math.Floor(mu + 0.5)
	if center < 2 {
		center = 2
	}
	const meps = 0x1p-52
	p := binProb(center)
	num, den := center*p, p
	for k := center + 1; ; k++ {
		p = binProb(k)
		num += k * p
		den += p
		if p < meps*den {
			break
		}
	}
	for k := center - 1; k >= 2; k-- {
		p = binProb(k)
		num += k * p
		den += p
		if p < meps*den {
			break
		}
	}
	return num / den
}
