package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	outbreak "github.com/outbreaksim/outbreakgo"
)

func main() {
	name := filepath.Base(os.Args[0])

	cfg, err := outbreak.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: Error: %s\n", name, err)
		outbreak.WriteUsage(os.Stderr, name)
		os.Exit(1)
	}
	if cfg.Help || len(os.Args) == 1 {
		outbreak.WriteUsage(cfg.Out, name)
		return
	}
	log.SetOutput(cfg.Err)

	// The environment seed is only used when the seed is zero, which is the
	// case when no seed option was given.
	if cfg.Run.Seed == 0 {
		if env := os.Getenv("OUTBREAK_RNG_SEED"); env != "" {
			seed, err := strconv.ParseUint(env, 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: Error: cannot parse OUTBREAK_RNG_SEED value '%s'\n", name, env)
				os.Exit(1)
			}
			cfg.Run.Seed = seed
		}
	}

	if err := cfg.Params.Solve(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: Error: %s\n", name, err)
		os.Exit(1)
	}
	cfg.Params.WriteResolved(cfg.Out)

	res, err := outbreak.MultiRun(cfg.Run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: Error: %s\n", name, err)
		os.Exit(1)
	}
	res.WriteReport(cfg.Out)

	if cfg.LogPath != "" {
		var logger outbreak.DataLogger
		switch cfg.LoggerType {
		case "csv":
			logger = outbreak.NewCSVLogger(cfg.LogPath)
		case "sqlite":
			logger = outbreak.NewSQLiteLogger(cfg.LogPath)
		}
		runID, err := outbreak.LogResult(logger, cfg.Run.Seed, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: Error: %s\n", name, err)
			os.Exit(1)
		}
		log.Printf("recorded run %s", runID)
	}
}
