package trace

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecorderStoresRounds(t *testing.T) {
	db := openDB(t)
	rec, err := db.Start("line-1", "beep", 3)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := sim.New(sim.WithPinsPerEdge(2), sim.WithObserver(rec))
	if _, err := s.AddLine(sim.Position{}, 0, 3); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	step := func(p *sim.Particle) {
		pc := p.NewPinConfiguration()
		p.SetPlannedPinConfiguration(pc)
		if p.ID == 0 {
			pc.SendBeepOnPartitionSet(0)
		}
	}
	rounds := 0
	if _, err := s.Run(10, step, func() bool { rounds++; return rounds > 4 }); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := rec.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := db.Rounds("line-1")
	if err != nil {
		t.Fatalf("Rounds: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("rounds = %d, want 4", len(got))
	}
	for i, st := range got {
		if st.Round != i+1 {
			t.Fatalf("round %d stored as %d", i+1, st.Round)
		}
		if st.Beeped != 1 {
			t.Fatalf("round %d: beeped = %d, want 1", st.Round, st.Beeped)
		}
		if st.Circuits == 0 {
			t.Fatalf("round %d: no circuits", st.Round)
		}
	}

	runs, err := db.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	want := Run{Name: "line-1", Algorithm: "beep", Particles: 3, Rounds: 4}
	if len(runs) != 1 || runs[0] != want {
		t.Fatalf("Runs = %+v, want [%+v]", runs, want)
	}
}

func TestDuplicateRun(t *testing.T) {
	db := openDB(t)
	if _, err := db.Start("a", "pasc", 1); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := db.Start("a", "pasc", 1); !errors.Is(err, ErrRunExists) {
		t.Fatalf("second Start error = %v, want ErrRunExists", err)
	}
}

func TestMemoryDatabase(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()
	rec, err := db.Start("m", "spf", 2)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.ObserveRound(sim.RoundStats{Round: 1, Circuits: 5, Beeped: 2}); err != nil {
		t.Fatalf("ObserveRound: %v", err)
	}
	if err := rec.ObserveRound(sim.RoundStats{Round: 1}); err == nil {
		t.Fatalf("duplicate round accepted")
	}
	got, err := db.Rounds("m")
	if err != nil {
		t.Fatalf("Rounds: %v", err)
	}
	if len(got) != 1 || got[0] != (sim.RoundStats{Round: 1, Circuits: 5, Beeped: 2}) {
		t.Fatalf("Rounds = %+v", got)
	}
}
