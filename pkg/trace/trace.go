// Package trace stores per-round circuit statistics of simulator runs in a
// SQLite database.
package trace

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// ErrRunExists is returned when a run ID is recorded twice.
var ErrRunExists = errors.New("trace: run already recorded")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run TEXT PRIMARY KEY,
	algorithm TEXT NOT NULL,
	particles INTEGER NOT NULL,
	rounds INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS rounds (
	run TEXT NOT NULL REFERENCES runs(run),
	round INTEGER NOT NULL,
	circuits INTEGER NOT NULL,
	beeped INTEGER NOT NULL,
	PRIMARY KEY (run, round)
);`

// DB is an open trace database.
type DB struct {
	db *sql.DB
}

// Open opens or creates the database at path. ":memory:" works for
// throwaway traces.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	// Every connection to ":memory:" is a new database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create trace schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Run is one recorded simulator run.
type Run struct {
	Name      string
	Algorithm string
	Particles int
	Rounds    int
}

// Start registers a run and returns the observer that records its rounds.
func (d *DB) Start(run, algorithm string, particles int) (*Recorder, error) {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM runs WHERE run = ?", run).Scan(&n); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, run)
	}
	if _, err := d.db.Exec("INSERT INTO runs (run, algorithm, particles) VALUES (?, ?, ?)",
		run, algorithm, particles); err != nil {
		return nil, fmt.Errorf("failed to register run: %w", err)
	}
	return &Recorder{db: d.db, run: run}, nil
}

// Runs lists all recorded runs by name.
func (d *DB) Runs() ([]Run, error) {
	rows, err := d.db.Query("SELECT run, algorithm, particles, rounds FROM runs ORDER BY run")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.Name, &r.Algorithm, &r.Particles, &r.Rounds); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Rounds returns the statistics of one run in round order.
func (d *DB) Rounds(run string) ([]sim.RoundStats, error) {
	rows, err := d.db.Query("SELECT round, circuits, beeped FROM rounds WHERE run = ? ORDER BY round", run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.RoundStats
	for rows.Next() {
		var s sim.RoundStats
		if err := rows.Scan(&s.Round, &s.Circuits, &s.Beeped); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Recorder writes the rounds of a single run. It implements sim.Observer.
type Recorder struct {
	db     *sql.DB
	run    string
	rounds int
}

var _ sim.Observer = (*Recorder)(nil)

// ObserveRound stores the statistics of one round.
func (r *Recorder) ObserveRound(stats sim.RoundStats) error {
	if _, err := r.db.Exec("INSERT INTO rounds (run, round, circuits, beeped) VALUES (?, ?, ?, ?)",
		r.run, stats.Round, stats.Circuits, stats.Beeped); err != nil {
		return fmt.Errorf("failed to record round %d: %w", stats.Round, err)
	}
	r.rounds++
	return nil
}

// Finish stores the number of observed rounds.
func (r *Recorder) Finish() error {
	_, err := r.db.Exec("UPDATE runs SET rounds = ? WHERE run = ?", r.rounds, r.run)
	return err
}
