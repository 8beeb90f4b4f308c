package outbreakgo

import (
	"fmt"
	"io"
	"math"
)

// GroupDist identifies the distribution used to draw the number of
// individuals attending one transmission event.
type GroupDist uint8

const (
	// GroupLogPlus1 draws attendees as one plus a logarithmic deviate.
	GroupLogPlus1 GroupDist = 1 << iota
	// GroupLog draws attendees from a logarithmic distribution truncated
	// below 2.
	GroupLog
	// GroupGeom draws attendees as one plus a geometric deviate.
	GroupGeom
	// GroupGauss draws attendees from a discretized Gaussian distribution
	// truncated below 2.
	GroupGauss
)

func (g GroupDist) String() string {
	switch g {
	case GroupLogPlus1:
		return "log_plus_1"
	case GroupLog:
		return "log"
	case GroupGeom:
		return "geom"
	case GroupGauss:
		return "gauss"
	}
	return "unknown"
}

// ParseGroupDist converts a configuration keyword into a GroupDist value.
func ParseGroupDist(s string) (GroupDist, error) {
	switch s {
	case "log_plus_1":
		return GroupLogPlus1, nil
	case "log":
		return GroupLog, nil
	case "geom":
		return GroupGeom, nil
	case "gauss":
		return GroupGauss, nil
	}
	return 0, fmt.Errorf(UnrecognizedKeywordError, s, "group")
}

// ModelParams holds the full parameter set of the branching process model.
// A sparse set of inputs is provided, with unset values left as NaN, and
// Solve fills in the remaining parameters. After a successful Solve the
// struct is treated as immutable and may be shared between workers.
type ModelParams struct {
	// Basic reproduction parameters.
	Tbar        float64 // mean main communicable period
	P           float64 // logarithmic or geometric distribution parameter (0 <= p < 1)
	Mu          float64 // mean of the unbounded logarithmic distribution, or Gaussian mean
	Sigma       float64 // Gaussian standard deviation
	Rsigma      float64 // Gaussian relative standard deviation (sigma/mu)
	GAve        float64 // average group size for one event (>= 2)
	GAveTransm  float64 // average group size for one transmission event
	Lambda      float64 // rate of events with at least two invitees, per infectious individual per unit time
	LambdaUncut float64 // rate of events including singleton-invitee events
	Pinf        float64 // probability of infection for one contact during one event
	R0          float64 // basic reproduction number

	// Main communicable period gamma distribution.
	Kappa float64
	T95   float64
	Ta    float64 // shape (kappa * tbar)
	Tb    float64 // scale (1 / kappa)

	// Latent period gamma distribution.
	Lbar   float64
	Kappal float64
	L95    float64
	La     float64
	Lb     float64

	// Alternate communicable period gamma distribution, selected with
	// probability Q.
	Q      float64
	Mbar   float64
	Kappaq float64
	M95    float64
	Ma     float64
	Mb     float64

	// Interrupted main communicable period.
	Pit     float64
	Itbar   float64
	Kappait float64
	It95    float64
	Ita     float64
	Itb     float64

	// Interrupted alternate communicable period.
	Pim     float64
	Imbar   float64
	Kappaim float64
	Im95    float64
	Ima     float64
	Imb     float64

	Tmax   float64 // horizon for instantiating new infectious individuals
	Nstart uint32  // number of primary infectious individuals

	GroupType         GroupDist
	GroupInteractions bool
}

// NewModelParams returns a parameter set with every optional input unset.
// Unset values are NaN; q, pit and lbar default to 0 (no alternate period,
// no interruption, no latent period), pinf defaults to 1, tmax to infinity
// and nstart to 1.
func NewModelParams() *ModelParams {
	nan := math.NaN()
	return &ModelParams{
		Tbar:        nan,
		P:           nan,
		Mu:          nan,
		Sigma:       nan,
		Rsigma:      nan,
		GAve:        nan,
		GAveTransm:  nan,
		Lambda:      nan,
		LambdaUncut: nan,
		Pinf:        1,
		R0:          nan,
		Kappa:       nan,
		T95:         nan,
		Lbar:        0,
		Kappal:      nan,
		L95:         nan,
		Q:           0,
		Mbar:        nan,
		Kappaq:      nan,
		M95:         nan,
		Pit:         0,
		Itbar:       nan,
		Kappait:     nan,
		It95:        nan,
		Pim:         nan,
		Imbar:       nan,
		Kappaim:     nan,
		Im95:        nan,
		Tmax:        math.Inf(1),
		Nstart:      1,
		GroupType:   GroupLogPlus1,
	}
}

func has(x float64) bool { return !math.IsNaN(x) }

// WriteResolved writes the resolved parameter tables in the fixed-width
// scientific format used by the reports.
func (pars *ModelParams) WriteResolved(w io.Writer) {
	fmt.Fprintf(w, "Model type:\nBranching process\n")
	fmt.Fprintf(w, "\nParameters for the %s group distribution:\n", pars.GroupType)
	fmt.Fprintf(w, "g_ave:\t%22.15e\n", pars.GAve)
	fmt.Fprintf(w, "g_ave_transm:\t%22.15e\n", pars.GAveTransm)
	if pars.GroupType == GroupGauss {
		fmt.Fprintf(w, "mu:\t%22.15e\n", pars.Mu)
		fmt.Fprintf(w, "sigma:\t%22.15e\n", pars.Sigma)
		fmt.Fprintf(w, "rsigma:\t%22.15e\n", pars.Rsigma)
	} else {
		fmt.Fprintf(w, "p:\t%22.15e\n", pars.P)
		fmt.Fprintf(w, "mu:\t%22.15e\n", pars.Mu)
	}

	fmt.Fprintf(w, "\nBasic reproduction parameters are:\n")
	fmt.Fprintf(w, "lambda:\t\t%22.15e\n", pars.Lambda)
	fmt.Fprintf(w, "lambda_uncut:\t%22.15e\n", pars.LambdaUncut)
	fmt.Fprintf(w, "tbar:\t\t%22.15e\n", pars.Tbar)
	fmt.Fprintf(w, "g_ave:\t\t%22.15e\n", pars.GAve)
	fmt.Fprintf(w, "pinf:\t\t%22.15e\n", pars.Pinf)
	fmt.Fprintf(w, "R0:\t\t%22.15e\n", pars.R0)

	fmt.Fprintf(w, "\nParameters for the main time gamma distribution:\n")
	fmt.Fprintf(w, "tbar:\t%22.15e\n", pars.Tbar)
	fmt.Fprintf(w, "kappa:\t%22.15e\n", pars.Kappa)
	fmt.Fprintf(w, "t95:\t%22.15e\n", pars.T95)
	fmt.Fprintf(w, "ta:\t%22.15e\n", pars.Ta)
	fmt.Fprintf(w, "tb:\t%22.15e\n", pars.Tb)

	if pars.Pit > 0 {
		fmt.Fprintf(w, "\nParameters for the interrupted main time gamma distribution:\n")
		fmt.Fprintf(w, "pit:\t%22.15e\n", pars.Pit)
		fmt.Fprintf(w, "itbar:\t%22.15e\n", pars.Itbar)
		fmt.Fprintf(w, "kappait:%22.15e\n", pars.Kappait)
		fmt.Fprintf(w, "it95:\t%22.15e\n", pars.It95)
		fmt.Fprintf(w, "ita:\t%22.15e\n", pars.Ita)
		fmt.Fprintf(w, "itb:\t%22.15e\n", pars.Itb)
	}

	if pars.Q > 0 {
		fmt.Fprintf(w, "\nParameters for the alternate time gamma distribution:\n")
		fmt.Fprintf(w, "q:\t%22.15e\n", pars.Q)
		fmt.Fprintf(w, "mbar:\t%22.15e\n", pars.Mbar)
		fmt.Fprintf(w, "kappaq:\t%22.15e\n", pars.Kappaq)
		fmt.Fprintf(w, "m95:\t%22.15e\n", pars.M95)
		fmt.Fprintf(w, "ma:\t%22.15e\n", pars.Ma)
		fmt.Fprintf(w, "mb:\t%22.15e\n", pars.Mb)
		if pars.Pim > 0 {
			fmt.Fprintf(w, "\nParameters for the interrupted alternate time gamma distribution:\n")
			fmt.Fprintf(w, "pim:\t%22.15e\n", pars.Pim)
			fmt.Fprintf(w, "imbar:\t%22.15e\n", pars.Imbar)
			fmt.Fprintf(w, "kappaim:%22.15e\n", pars.Kappaim)
			fmt.Fprintf(w, "im95:\t%22.15e\n", pars.Im95)
			fmt.Fprintf(w, "ima:\t%22.15e\n", pars.Ima)
			fmt.Fprintf(w, "imb:\t%22.15e\n", pars.Imb)
		}
	}

	if pars.Lbar > 0 {
		fmt.Fprintf(w, "\nParameters for the latent time gamma distribution:\n")
		fmt.Fprintf(w, "lbar:\t%22.15e\n", pars.Lbar)
		fmt.Fprintf(w, "kappal:\t%22.15e\n", pars.Kappal)
		fmt.Fprintf(w, "l95:\t%22.15e\n", pars.L95)
		fmt.Fprintf(w, "la:\t%22.15e\n", pars.La)
		fmt.Fprintf(w, "lb:\t%22.15e\n", pars.Lb)
	}

	reff := pars.R0
	if pars.Q > 0 {
		reff *= 1 + pars.Q*(pars.Mbar/pars.Tbar-1)
	}
	fmt.Fprintf(w, "\nBranching process effective reproduction number:\n")
	fmt.Fprintf(w, "brReff:\t%22.15e\n", reff)
}

// Validate verifies the post-resolution invariants of the parameter set.
func (pars *ModelParams) Validate() error {
	if !(pars.Pinf > 0) || !(pars.Pinf <= 1) {
		return solveErrorf(SolveValidationFailed, "the pinf parameter must have a value in the interval (0,1]")
	}
	if pars.Pit < 0 || pars.Pit > 1 {
		return solveErrorf(SolveValidationFailed, "pit must be in the interval [0,1]")
	}
	if pars.Q < 0 || pars.Q > 1 {
		return solveErrorf(SolveValidationFailed, "q must be in the [0,1] interval")
	}
	if pars.Q > 0 && (pars.Pim < 0 || pars.Pim > 1) {
		return solveErrorf(SolveValidationFailed, "pim must be in the interval [0,1]")
	}
	if !(pars.Lambda > 0) {
		return solveErrorf(SolveValidationFailed, "lambda must be greater than 0")
	}
	if !(pars.Tbar > 0) {
		return solveErrorf(SolveValidationFailed, "tbar must be greater than 0")
	}
	if !(pars.R0 > 0) {
		return solveErrorf(SolveValidationFailed, "R0 must be greater than 0")
	}
	if !(pars.Tmax > 0) {
		return solveErrorf(SolveValidationFailed, "tmax must be greater than 0")
	}
	if pars.Nstart == 0 {
		return solveErrorf(SolveValidationFailed, "nstart must be greater than 0")
	}
	if pars.GroupType != GroupGauss {
		if !(pars.P >= 0) || !(pars.P < 1) {
			return solveErrorf(SolveValidationFailed, "p must be non-negative and smaller than 1")
		}
		if !(pars.Mu >= 1) {
			return solveErrorf(SolveValidationFailed, "mu must be greater than or equal to 1")
		}
	}
	if !(pars.GAve >= 2) {
		return solveErrorf(SolveValidationFailed, "g_ave must be greater than or equal to 2")
	}
	if pars.Lbar > 0 && !(pars.Kappal > 0) {
		return solveErrorf(SolveValidationFailed, "kappal must be positive when a latent period is used")
	}
	if pars.Q > 0 && !(pars.Mbar > 0) {
		return solveErrorf(SolveValidationFailed, "mbar must be positive when q is greater than 0")
	}
	if pars.Pit > 0 && !(pars.Itbar > 0) {
		return solveErrorf(SolveValidationFailed, "itbar must be positive when pit is greater than 0")
	}
	if pars.Q > 0 && pars.Pim > 0 && !(pars.Imbar > 0) {
		return solveErrorf(SolveValidationFailed, "imbar must be positive when pim is greater than 0")
	}
	return nil
}
