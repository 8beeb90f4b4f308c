package outbreakgo

import (
	"bytes"
	"fmt"
	"strings"
)

// CSVLogger is a DataLogger that appends simulation results to
// comma-delimited files.
type CSVLogger struct {
	runPath      string
	timelinePath string
}

// NewCSVLogger creates a CSV logger writing next to the given base path.
func NewCSVLogger(basepath string) *CSVLogger {
	l := new(CSVLogger)
	base := strings.TrimSuffix(basepath, ".")
	l.runPath = base + ".run.csv"
	l.timelinePath = base + ".timeline.csv"
	return l
}

// Init is a no-op for the CSV logger; files are created on first append.
func (l *CSVLogger) Init() error {
	return nil
}

// WriteRun appends the run summary row.
func (l *CSVLogger) WriteRun(r RunRecord) error {
	// Format
	// <runID>  <seed>  <npaths>  <pe>  <peStd>  <teMean>  <teStd>  <rMean>  <commPerMean>  <nimaxReached>
	row := fmt.Sprintf("%s,%d,%d,%g,%g,%g,%g,%g,%g,%t\n",
		r.RunID,
		r.Seed,
		r.Npaths,
		r.Pe,
		r.PeStd,
		r.TeMean,
		r.TeStd,
		r.RMean,
		r.CommPerMean,
		r.NimaxReached,
	)
	return AppendToFile(l.runPath, []byte(row))
}

// WriteTimelines appends the per-bin timeline rows.
func (l *CSVLogger) WriteTimelines(c <-chan TimelineRecord) error {
	// Format
	// <runID>  <series>  <subset>  <bin>  <mean>  <std>
	const template = "%s,%s,%s,%d,%g,%g\n"
	var b bytes.Buffer
	for rec := range c {
		row := fmt.Sprintf(template,
			rec.RunID,
			rec.Series,
			rec.Subset,
			rec.Bin,
			rec.Mean,
			rec.Std,
		)
		b.WriteString(row)
	}
	return AppendToFile(l.timelinePath, b.Bytes())
}
