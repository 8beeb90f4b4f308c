package outbreakgo

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "writing a temporary file", err)
	}
	return path
}

func TestParseArgsBasic(t *testing.T) {
	cfg, err := ParseArgs([]string{"--tbar", "5", "-R0", "1.5", "p", "0.1", "--tmax", "30", "--npaths", "500"})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing options", err)
	}
	if cfg.Params.Tbar != 5 {
		t.Errorf(UnequalFloatParameterError, "tbar", 5.0, cfg.Params.Tbar)
	}
	if cfg.Params.R0 != 1.5 {
		t.Errorf(UnequalFloatParameterError, "R0", 1.5, cfg.Params.R0)
	}
	if cfg.Params.P != 0.1 {
		t.Errorf(UnequalFloatParameterError, "p", 0.1, cfg.Params.P)
	}
	if cfg.Run.Npaths != 500 {
		t.Errorf(UnequalIntParameterError, "npaths", 500, int(cfg.Run.Npaths))
	}
}

func TestParseArgsUnknownOption(t *testing.T) {
	if _, err := ParseArgs([]string{"--bogus", "1"}); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "parsing an unknown option")
	}
}

func TestParseArgsMissingValue(t *testing.T) {
	if _, err := ParseArgs([]string{"--tbar"}); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "parsing an option without a value")
	}
}

func TestParseConfigFile(t *testing.T) {
	path := writeTempFile(t, "run.cfg", `
# main parameters
tbar = 5       # mean communicable period
kappa: 2
--R0 1.5
p 0.1
tmax 30
`)
	cfg, err := ParseArgs([]string{"config", path})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing a configuration file", err)
	}
	if cfg.Params.Tbar != 5 || cfg.Params.Kappa != 2 || cfg.Params.R0 != 1.5 {
		t.Errorf("configuration file values not applied: %+v", cfg.Params)
	}
	if cfg.Params.Tmax != 30 {
		t.Errorf(UnequalFloatParameterError, "tmax", 30.0, cfg.Params.Tmax)
	}
}

func TestParseConfigQuoting(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "my run.csv")
	path := writeTempFile(t, "quoted.cfg", "log '"+logPath+"'\nlogger \"sqlite\"\n")
	cfg, err := ParseArgs([]string{"config", path})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing a quoted configuration file", err)
	}
	if cfg.LogPath != logPath {
		t.Errorf(UnequalStringParameterError, "log path", logPath, cfg.LogPath)
	}
	if cfg.LoggerType != "sqlite" {
		t.Errorf(UnequalStringParameterError, "logger", "sqlite", cfg.LoggerType)
	}
}

func TestParseConfigRecursive(t *testing.T) {
	inner := writeTempFile(t, "inner.cfg", "q 0.5\nmbar 2\nkappaq 2\n")
	outer := writeTempFile(t, "outer.cfg", "tbar 5\nconfig "+inner+"\nnstart: 3\n")
	cfg, err := ParseArgs([]string{"--config", outer, "--R0", "1.5", "--p", "0.1"})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing recursive configuration files", err)
	}
	if cfg.Params.Q != 0.5 || cfg.Params.Mbar != 2 {
		t.Errorf("inner configuration file values not applied: %+v", cfg.Params)
	}
	// The token after the recursive config directive is still consumed.
	if cfg.Params.Nstart != 3 {
		t.Errorf(UnequalIntParameterError, "nstart", 3, int(cfg.Params.Nstart))
	}
}

func TestParseArgsGroupKeyword(t *testing.T) {
	cfg, err := ParseArgs([]string{"--group", "gauss", "--mu", "6", "--sigma", "2"})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing the group option", err)
	}
	if cfg.Params.GroupType != GroupGauss {
		t.Errorf(UnequalStringParameterError, "group", GroupGauss.String(), cfg.Params.GroupType.String())
	}
	if _, err := ParseArgs([]string{"--group", "banana"}); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "parsing an unknown group keyword")
	}
}

func TestParseArgsHelp(t *testing.T) {
	cfg, err := ParseArgs([]string{"--help"})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "parsing the help option", err)
	}
	if !cfg.Help {
		t.Error("help option not recognized")
	}
}

func TestScenarioRoundTrip(t *testing.T) {
	path := writeTempFile(t, "scenario.toml", `
tbar = 4.0
kappa = 3.0
R0 = 0.8
p = 0.2
tmax = 50.0
nstart = 5
npaths = 1000
group = "log"
seed = 42
logger = "csv"
`)
	cfg, err := ParseArgs([]string{"--scenario", path})
	if err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "loading a scenario", err)
	}
	if cfg.Params.Tbar != 4 || cfg.Params.Kappa != 3 || cfg.Params.R0 != 0.8 {
		t.Errorf("scenario values not applied: %+v", cfg.Params)
	}
	if cfg.Params.Nstart != 5 {
		t.Errorf(UnequalIntParameterError, "nstart", 5, int(cfg.Params.Nstart))
	}
	if cfg.Params.GroupType != GroupLog {
		t.Errorf(UnequalStringParameterError, "group", GroupLog.String(), cfg.Params.GroupType.String())
	}
	if cfg.Run.Seed != 42 {
		t.Errorf(UnequalIntParameterError, "seed", 42, int(cfg.Run.Seed))
	}
	// Unset scenario keys leave the defaults in place.
	if !math.IsNaN(cfg.Params.Lambda) {
		t.Errorf("lambda set by a scenario that does not mention it: %f", cfg.Params.Lambda)
	}
	if err := cfg.Params.Solve(); err != nil {
		t.Fatalf(UnexpectedErrorWhileError, "solving scenario parameters", err)
	}
}

func TestScenarioBadKeyword(t *testing.T) {
	path := writeTempFile(t, "bad.toml", "logger = \"parquet\"\n")
	if _, err := ParseArgs([]string{"--scenario", path}); err == nil {
		t.Fatalf(ExpectedErrorWhileError, "loading a scenario with a bad keyword")
	}
}
