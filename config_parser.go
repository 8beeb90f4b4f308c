package outbreakgo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// configFile is one entry of the configuration source stack.
type configFile struct {
	name string
	f    *os.File
	r    *bufio.Reader
	line int
}

// tokenScanner produces configuration tokens from the command line and from
// a stack of configuration files. Within files, `#` starts a comment to the
// end of the line, single and double quotes group whitespace, and `=` or
// `:` are equivalent to whitespace when separating an option from its
// value. Leading dashes on option names are optional everywhere.
type tokenScanner struct {
	args  []string
	argi  int
	files []*configFile
}

// push opens a configuration file and makes it the active token source.
func (sc *tokenScanner) push(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "cannot open file '%s' in read mode", path)
	}
	sc.files = append(sc.files, &configFile{name: path, f: f, r: bufio.NewReader(f), line: 1})
	return nil
}

func (sc *tokenScanner) pop() {
	top := sc.files[len(sc.files)-1]
	top.f.Close()
	sc.files = sc.files[:len(sc.files)-1]
}

// source names the active token source for error reporting.
func (sc *tokenScanner) source() (string, int) {
	if len(sc.files) > 0 {
		top := sc.files[len(sc.files)-1]
		return top.name, top.line
	}
	return "", 0
}

// next returns the next token. isValue selects the option-value scanning
// rules: separators are skipped and leading dashes are kept. The boolean
// result reports whether a token was available.
func (sc *tokenScanner) next(isValue bool) (string, bool, error) {
	for len(sc.files) > 0 {
		tok, ok, err := sc.scanFile(sc.files[len(sc.files)-1], isValue)
		if err != nil {
			return "", false, err
		}
		if ok {
			return tok, true, nil
		}
		sc.pop()
	}
	if sc.argi < len(sc.args) {
		tok := sc.args[sc.argi]
		sc.argi++
		if !isValue {
			for len(tok) > 0 && tok[0] == '-' {
				tok = tok[1:]
			}
		}
		return tok, true, nil
	}
	return "", false, nil
}

func isTokenSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// scanFile extracts one token from a configuration file.
func (sc *tokenScanner) scanFile(cf *configFile, isValue bool) (string, bool, error) {
	var c byte
	var err error
	inComment := false
	// Skip whitespace, separators and comments.
	for {
		c, err = cf.r.ReadByte()
		if err != nil {
			return "", false, sc.eof(err)
		}
		if c == '\n' {
			cf.line++
			inComment = false
			continue
		}
		if inComment {
			continue
		}
		if c == '#' {
			inComment = true
			continue
		}
		if isTokenSpace(c) || ((c == '=' || c == ':') && isValue) {
			continue
		}
		break
	}
	if !isValue && c == '-' {
		for c == '-' {
			c, err = cf.r.ReadByte()
			if err != nil {
				return "", false, sc.eof(err)
			}
		}
	}

	var tok []byte
	singleQ, doubleQ := false, false
	for {
		switch {
		case c == '\'':
			singleQ = !singleQ
		case c == '"':
			doubleQ = !doubleQ
		default:
			tok = append(tok, c)
		}
		c, err = cf.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return string(tok), true, nil
			}
			return "", false, err
		}
		if singleQ || doubleQ {
			continue
		}
		if isTokenSpace(c) || c == '#' || ((c == '=' || c == ':') && !isValue) {
			if c == '\n' {
				cf.line++
			}
			if c == '#' {
				cf.r.UnreadByte()
			}
			return string(tok), true, nil
		}
	}
}

func (sc *tokenScanner) eof(err error) error {
	if err == io.EOF {
		return nil
	}
	return err
}

// CLIConfig is the fully parsed command line: the sparse model parameters,
// the run settings and the output plumbing.
type CLIConfig struct {
	Params *ModelParams
	Run    *RunConfig

	LoggerType string
	LogPath    string

	Out io.Writer
	Err io.Writer

	Help bool
}

// ParseArgs parses the command-line options and any configuration files
// they pull in, and returns the assembled configuration. The args slice
// must not include the executable name.
func ParseArgs(args []string) (*CLIConfig, error) {
	pars := NewModelParams()
	cfg := &CLIConfig{
		Params:     pars,
		Run:        DefaultRunConfig(pars),
		LoggerType: "csv",
		Out:        os.Stdout,
		Err:        os.Stderr,
	}
	cfg.Run.NsetsPerThread = 0 // resolved by MultiRun from the thread count

	sc := &tokenScanner{args: args}
	for {
		name, ok, err := sc.next(false)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := cfg.applyOption(sc, name); err != nil {
			return nil, err
		}
		if cfg.Help {
			return cfg, nil
		}
	}
	return cfg, nil
}

// value fetches the token following an option name.
func (sc *tokenScanner) value(option string) (string, error) {
	v, ok, err := sc.next(true)
	if err != nil {
		return "", err
	}
	if !ok {
		file, line := sc.source()
		return "", &ConfigError{File: file, Line: line, Msg: fmt.Sprintf("missing value for option '%s'", option)}
	}
	return v, nil
}

func (sc *tokenScanner) floatValue(option string, dst *float64) error {
	v, err := sc.value(option)
	if err != nil {
		return err
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		file, line := sc.source()
		return &ConfigError{File: file, Line: line, Msg: fmt.Sprintf("cannot parse value '%s' for option '%s'", v, option)}
	}
	*dst = x
	return nil
}

func (sc *tokenScanner) uintValue(option string, dst *uint32) error {
	v, err := sc.value(option)
	if err != nil {
		return err
	}
	x, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		file, line := sc.source()
		return &ConfigError{File: file, Line: line, Msg: fmt.Sprintf("cannot parse value '%s' for option '%s'", v, option)}
	}
	*dst = uint32(x)
	return nil
}

func (cfg *CLIConfig) applyOption(sc *tokenScanner, name string) error {
	pars := cfg.Params
	switch name {
	case "config":
		path, err := sc.value(name)
		if err != nil {
			return err
		}
		return sc.push(path)
	case "scenario":
		path, err := sc.value(name)
		if err != nil {
			return err
		}
		scn, err := LoadScenario(path)
		if err != nil {
			return err
		}
		return scn.Apply(cfg)
	case "olog":
		path, err := sc.value(name)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrapf(err, "cannot open file '%s' in write mode", path)
		}
		cfg.Out = f
	case "elog":
		path, err := sc.value(name)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return errors.Wrapf(err, "cannot open file '%s' in write mode", path)
		}
		cfg.Err = f
	case "tbar":
		return sc.floatValue(name, &pars.Tbar)
	case "p":
		return sc.floatValue(name, &pars.P)
	case "mu":
		return sc.floatValue(name, &pars.Mu)
	case "sigma":
		return sc.floatValue(name, &pars.Sigma)
	case "rsigma":
		return sc.floatValue(name, &pars.Rsigma)
	case "g_ave":
		return sc.floatValue(name, &pars.GAve)
	case "lambda":
		return sc.floatValue(name, &pars.Lambda)
	case "lambda_uncut":
		return sc.floatValue(name, &pars.LambdaUncut)
	case "pinf":
		return sc.floatValue(name, &pars.Pinf)
	case "R0":
		return sc.floatValue(name, &pars.R0)
	case "kappa":
		return sc.floatValue(name, &pars.Kappa)
	case "t95":
		return sc.floatValue(name, &pars.T95)
	case "lbar":
		return sc.floatValue(name, &pars.Lbar)
	case "kappal":
		return sc.floatValue(name, &pars.Kappal)
	case "l95":
		return sc.floatValue(name, &pars.L95)
	case "q":
		return sc.floatValue(name, &pars.Q)
	case "mbar":
		return sc.floatValue(name, &pars.Mbar)
	case "kappaq":
		return sc.floatValue(name, &pars.Kappaq)
	case "m95":
		return sc.floatValue(name, &pars.M95)
	case "pit":
		return sc.floatValue(name, &pars.Pit)
	case "itbar":
		return sc.floatValue(name, &pars.Itbar)
	case "kappait":
		return sc.floatValue(name, &pars.Kappait)
	case "it95":
		return sc.floatValue(name, &pars.It95)
	case "pim":
		return sc.floatValue(name, &pars.Pim)
	case "imbar":
		return sc.floatValue(name, &pars.Imbar)
	case "kappaim":
		return sc.floatValue(name, &pars.Kappaim)
	case "im95":
		return sc.floatValue(name, &pars.Im95)
	case "tmax":
		return sc.floatValue(name, &pars.Tmax)
	case "nstart":
		return sc.uintValue(name, &pars.Nstart)
	case "group":
		v, err := sc.value(name)
		if err != nil {
			return err
		}
		g, err := ParseGroupDist(v)
		if err != nil {
			return err
		}
		pars.GroupType = g
	case "group_interactions":
		pars.GroupInteractions = true
	case "npaths":
		return sc.uintValue(name, &cfg.Run.Npaths)
	case "nimax":
		return sc.uintValue(name, &cfg.Run.Nimax)
	case "nthreads":
		return sc.uintValue(name, &cfg.Run.Nthreads)
	case "nsetsperthread":
		return sc.uintValue(name, &cfg.Run.NsetsPerThread)
	case "seed":
		v, err := sc.value(name)
		if err != nil {
			return err
		}
		x, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			file, line := sc.source()
			return &ConfigError{File: file, Line: line, Msg: fmt.Sprintf("cannot parse value '%s' for option 'seed'", v)}
		}
		cfg.Run.Seed = x
	case "logger":
		v, err := sc.value(name)
		if err != nil {
			return err
		}
		if v != "csv" && v != "sqlite" {
			return fmt.Errorf(UnrecognizedKeywordError, v, "logger")
		}
		cfg.LoggerType = v
	case "log":
		path, err := sc.value(name)
		if err != nil {
			return err
		}
		cfg.LogPath = path
	case "help":
		cfg.Help = true
	default:
		file, line := sc.source()
		return &ConfigError{File: file, Line: line, Msg: fmt.Sprintf("option '%s' is unknown", name)}
	}
	return nil
}

// WriteUsage writes the usage information for the executable.
func WriteUsage(w io.Writer, name string) {
	fmt.Fprintf(w, "Usage: %s [OPTION]\n\n", name)
	fmt.Fprintf(w, "Options\n")
	fmt.Fprintf(w, "\t--config FILENAME\tRead configuration options from FILENAME\n")
	fmt.Fprintf(w, "\t--scenario FILENAME\tRead a TOML scenario from FILENAME\n")
	fmt.Fprintf(w, "\t--olog FILENAME\t\tRedirect standard output to FILENAME\n")
	fmt.Fprintf(w, "\t--elog FILENAME\t\tRedirect standard error to FILENAME\n")
	fmt.Fprintf(w, "\t--tbar VALUE\t\tMean main communicable period\n")
	fmt.Fprintf(w, "\t--p VALUE\t\tGroup distribution p parameter\n")
	fmt.Fprintf(w, "\t--mu VALUE\t\tGroup distribution mu parameter\n")
	fmt.Fprintf(w, "\t--sigma VALUE\t\tGaussian group standard deviation\n")
	fmt.Fprintf(w, "\t--rsigma VALUE\t\tGaussian group relative standard deviation\n")
	fmt.Fprintf(w, "\t--g_ave VALUE\t\tAverage group size\n")
	fmt.Fprintf(w, "\t--lambda VALUE\t\tEvent rate per infectious individual\n")
	fmt.Fprintf(w, "\t--lambda_uncut VALUE\tEvent rate including singleton events\n")
	fmt.Fprintf(w, "\t--pinf VALUE\t\tPer-contact infection probability\n")
	fmt.Fprintf(w, "\t--R0 VALUE\t\tBasic reproduction number\n")
	fmt.Fprintf(w, "\t--kappa VALUE\t\tMain period gamma kappa parameter\n")
	fmt.Fprintf(w, "\t--t95 VALUE\t\tMain period 95th percentile\n")
	fmt.Fprintf(w, "\t--lbar VALUE\t\tMean latent period (default value of 0)\n")
	fmt.Fprintf(w, "\t--kappal VALUE\t\tLatent period gamma kappa parameter (required if lbar>0)\n")
	fmt.Fprintf(w, "\t--l95 VALUE\t\tLatent period 95th percentile\n")
	fmt.Fprintf(w, "\t--q VALUE\t\tAlternate period probability (default value of 0)\n")
	fmt.Fprintf(w, "\t--mbar VALUE\t\tMean alternate period (required if q>0)\n")
	fmt.Fprintf(w, "\t--kappaq VALUE\t\tAlternate period gamma kappa parameter\n")
	fmt.Fprintf(w, "\t--m95 VALUE\t\tAlternate period 95th percentile\n")
	fmt.Fprintf(w, "\t--pit VALUE\t\tMain period interruption probability (default value of 0)\n")
	fmt.Fprintf(w, "\t--itbar VALUE\t\tMean interrupted main period\n")
	fmt.Fprintf(w, "\t--kappait VALUE\t\tInterrupted main period gamma kappa parameter\n")
	fmt.Fprintf(w, "\t--it95 VALUE\t\tInterrupted main period 95th percentile\n")
	fmt.Fprintf(w, "\t--pim VALUE\t\tAlternate period interruption probability (defaults to pit)\n")
	fmt.Fprintf(w, "\t--imbar VALUE\t\tMean interrupted alternate period\n")
	fmt.Fprintf(w, "\t--kappaim VALUE\t\tInterrupted alternate period gamma kappa parameter\n")
	fmt.Fprintf(w, "\t--im95 VALUE\t\tInterrupted alternate period 95th percentile\n")
	fmt.Fprintf(w, "\t--group VALUE\t\tGroup distribution (log_plus_1|log|geom|gauss)\n")
	fmt.Fprintf(w, "\t--group_interactions\tUse the group interaction event definition\n")
	fmt.Fprintf(w, "\t--tmax VALUE\t\tSimulation horizon (default value of INFINITY)\n")
	fmt.Fprintf(w, "\t--nstart VALUE\t\tNumber of primary infectious individuals (default value of 1)\n")
	fmt.Fprintf(w, "\t--npaths VALUE\t\tNumber of simulated paths (default value of 10000)\n")
	fmt.Fprintf(w, "\t--nimax VALUE\t\tMaximum number of new infections for a given time integer interval (default unlimited)\n")
	fmt.Fprintf(w, "\t--nthreads VALUE\tNumber of worker threads (default value of 1)\n")
	fmt.Fprintf(w, "\t--nsetsperthread VALUE\tNumber of path sets per thread\n")
	fmt.Fprintf(w, "\t--seed VALUE\t\tRNG seed (defaults to OUTBREAK_RNG_SEED if set)\n")
	fmt.Fprintf(w, "\t--logger VALUE\t\tData logger type (csv|sqlite)\n")
	fmt.Fprintf(w, "\t--log PATH\t\tData logger base path\n")
	fmt.Fprintf(w, "\t--help\t\t\tPrint this usage information and exit\n")
	fmt.Fprintf(w, "\nEach option can be used as shown above from the command line. Dash(es) for option names are optional. For configuration files, '=', ':' or spaces can be used to separate option names from arguments. Characters following '#' on one line are considered to be comments.\nOptions can be used multiple times and configuration files can be read from configuration files.\n")
}
