package outbreakgo

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Scenario is a TOML description of a complete simulation run. Absent keys
// leave the corresponding parameter unset, so a scenario can be combined
// with command-line options.
type Scenario struct {
	Tbar        *float64 `toml:"tbar"`
	P           *float64 `toml:"p"`
	Mu          *float64 `toml:"mu"`
	Sigma       *float64 `toml:"sigma"`
	Rsigma      *float64 `toml:"rsigma"`
	GAve        *float64 `toml:"g_ave"`
	Lambda      *float64 `toml:"lambda"`
	LambdaUncut *float64 `toml:"lambda_uncut"`
	Pinf        *float64 `toml:"pinf"`
	R0          *float64 `toml:"R0"`

	Kappa *float64 `toml:"kappa"`
	T95   *float64 `toml:"t95"`

	Lbar   *float64 `toml:"lbar"`
	Kappal *float64 `toml:"kappal"`
	L95    *float64 `toml:"l95"`

	Q      *float64 `toml:"q"`
	Mbar   *float64 `toml:"mbar"`
	Kappaq *float64 `toml:"kappaq"`
	M95    *float64 `toml:"m95"`

	Pit     *float64 `toml:"pit"`
	Itbar   *float64 `toml:"itbar"`
	Kappait *float64 `toml:"kappait"`
	It95    *float64 `toml:"it95"`

	Pim     *float64 `toml:"pim"`
	Imbar   *float64 `toml:"imbar"`
	Kappaim *float64 `toml:"kappaim"`
	Im95    *float64 `toml:"im95"`

	Tmax   *float64 `toml:"tmax"`
	Nstart *uint32  `toml:"nstart"`

	Group             string `toml:"group"`
	GroupInteractions bool   `toml:"group_interactions"`

	Npaths         *uint32 `toml:"npaths"`
	Nimax          *uint32 `toml:"nimax"`
	Nthreads       *uint32 `toml:"nthreads"`
	NsetsPerThread *uint32 `toml:"nsetsperthread"`
	Seed           *uint64 `toml:"seed"`

	Logger  string `toml:"logger"`
	LogPath string `toml:"log_path"`
}

// LoadScenario parses a TOML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	scn := new(Scenario)
	if _, err := toml.DecodeFile(path, scn); err != nil {
		return nil, errors.Wrapf(err, "cannot load scenario '%s'", path)
	}
	if err := scn.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid scenario '%s'", path)
	}
	return scn, nil
}

// Validate checks the keyword fields of the scenario.
func (scn *Scenario) Validate() error {
	if scn.Group != "" {
		if _, err := ParseGroupDist(scn.Group); err != nil {
			return err
		}
	}
	switch scn.Logger {
	case "", "csv", "sqlite":
	default:
		return errors.Errorf(UnrecognizedKeywordError, scn.Logger, "logger")
	}
	return nil
}

// Apply copies every set scenario field onto the configuration.
func (scn *Scenario) Apply(cfg *CLIConfig) error {
	pars := cfg.Params
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setF(&pars.Tbar, scn.Tbar)
	setF(&pars.P, scn.P)
	setF(&pars.Mu, scn.Mu)
	setF(&pars.Sigma, scn.Sigma)
	setF(&pars.Rsigma, scn.Rsigma)
	setF(&pars.GAve, scn.GAve)
	setF(&pars.Lambda, scn.Lambda)
	setF(&pars.LambdaUncut, scn.LambdaUncut)
	setF(&pars.Pinf, scn.Pinf)
	setF(&pars.R0, scn.R0)
	setF(&pars.Kappa, scn.Kappa)
	setF(&pars.T95, scn.T95)
	setF(&pars.Lbar, scn.Lbar)
	setF(&pars.Kappal, scn.Kappal)
	setF(&pars.L95, scn.L95)
	setF(&pars.Q, scn.Q)
	setF(&pars.Mbar, scn.Mbar)
	setF(&pars.Kappaq, scn.Kappaq)
	setF(&pars.M95, scn.M95)
	setF(&pars.Pit, scn.Pit)
	setF(&pars.Itbar, scn.Itbar)
	setF(&pars.Kappait, scn.Kappait)
	setF(&pars.It95, scn.It95)
	setF(&pars.Pim, scn.Pim)
	setF(&pars.Imbar, scn.Imbar)
	setF(&pars.Kappaim, scn.Kappaim)
	setF(&pars.Im95, scn.Im95)
	setF(&pars.Tmax, scn.Tmax)
	if scn.Nstart != nil {
		pars.Nstart = *scn.Nstart
	}
	if scn.Group != "" {
		g, err := ParseGroupDist(scn.Group)
		if err != nil {
			return err
		}
		pars.GroupType = g
	}
	if scn.GroupInteractions {
		pars.GroupInteractions = true
	}
	if scn.Npaths != nil {
		cfg.Run.Npaths = *scn.Npaths
	}
	if scn.Nimax != nil {
		cfg.Run.Nimax = *scn.Nimax
	}
	if scn.Nthreads != nil {
		cfg.Run.Nthreads = *scn.Nthreads
	}
	if scn.NsetsPerThread != nil {
		cfg.Run.NsetsPerThread = *scn.NsetsPerThread
	}
	if scn.Seed != nil {
		cfg.Run.Seed = *scn.Seed
	}
	if scn.Logger != "" {
		cfg.LoggerType = scn.Logger
	}
	if scn.LogPath != "" {
		cfg.LogPath = scn.LogPath
	}
	return nil
}
