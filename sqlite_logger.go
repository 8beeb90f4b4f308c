package outbreakgo

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteLogger is a DataLogger that records simulation results into a
// SQLite database.
type SQLiteLogger struct {
	path string
}

// NewSQLiteLogger creates a SQLite logger writing to the database at the
// given path.
func NewSQLiteLogger(path string) *SQLiteLogger {
	return &SQLiteLogger{path: path}
}

func (l *SQLiteLogger) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", l.path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open database '%s'", l.path)
	}
	return db, nil
}

// Init creates the run and timeline tables if they do not exist.
func (l *SQLiteLogger) Init() error {
	db, err := l.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS run (
	run_id        TEXT PRIMARY KEY,
	seed          INTEGER,
	npaths        INTEGER,
	pe            REAL,
	pe_std        REAL,
	te_mean       REAL,
	te_std        REAL,
	r_mean        REAL,
	commper_mean  REAL,
	nimax_reached INTEGER
);
CREATE TABLE IF NOT EXISTS timeline (
	run_id TEXT,
	series TEXT,
	subset TEXT,
	bin    INTEGER,
	mean   REAL,
	std    REAL
);`)
	return errors.Wrap(err, "cannot create tables")
}

// WriteRun inserts the run summary row.
func (l *SQLiteLogger) WriteRun(r RunRecord) error {
	db, err := l.open()
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec(
		"INSERT INTO run VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.RunID.String(),
		int64(r.Seed),
		r.Npaths,
		r.Pe,
		r.PeStd,
		r.TeMean,
		r.TeStd,
		r.RMean,
		r.CommPerMean,
		r.NimaxReached,
	)
	return errors.Wrap(err, "cannot insert run row")
}

// WriteTimelines inserts the per-bin timeline rows within one transaction.
func (l *SQLiteLogger) WriteTimelines(c <-chan TimelineRecord) error {
	db, err := l.open()
	if err != nil {
		return err
	}
	defer db.Close()
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "cannot begin transaction")
	}
	stmt, err := tx.Prepare("INSERT INTO timeline VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "cannot prepare insert")
	}
	for rec := range c {
		if _, err := stmt.Exec(rec.RunID.String(), rec.Series, rec.Subset, rec.Bin, rec.Mean, rec.Std); err != nil {
			stmt.Close()
			tx.Rollback()
			return errors.Wrap(err, "cannot insert timeline row")
		}
	}
	stmt.Close()
	return errors.Wrap(tx.Commit(), "cannot commit timeline rows")
}
