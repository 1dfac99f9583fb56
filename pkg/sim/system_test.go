package sim

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

type countingObserver struct {
	stats []RoundStats
}

func (o *countingObserver) ObserveRound(stats RoundStats) error {
	o.stats = append(o.stats, stats)
	return nil
}

func TestGlobalCircuitReachesEveryParticle(t *testing.T) {
	obs := &countingObserver{}
	s := New(WithPinsPerEdge(4), WithObserver(obs))
	if _, err := s.AddLine(Position{0, 0}, amoebot.E, 3); err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	s.MustAddParticle(Position{1, 1})

	const offset = 1
	err := s.Round(func(p *Particle) {
		pc := p.NewPinConfiguration()
		circuit.MakeGlobalCircuit(pc, offset, circuit.GlobalSetID(pc, offset))
		p.SetPlannedPinConfiguration(pc)
		if p.ID == 2 {
			pc.SendBeepOnPartitionSet(circuit.GlobalSetID(pc, offset))
		}
	})
	if err != nil {
		t.Fatalf("Round: %v", err)
	}
	for _, p := range s.Particles() {
		pc := p.CurrentPinConfiguration()
		if !pc.ReceivedBeepOnPartitionSet(circuit.GlobalSetID(pc, offset)) {
			t.Fatalf("%s did not receive the global beep", p)
		}
		if pc.ReceivedBeepOnPin(pc.PinID(amoebot.E, 0)) {
			t.Fatalf("%s received a beep on an unrelated pin", p)
		}
	}
	if len(obs.stats) != 1 || obs.stats[0].Beeped != 1 || obs.stats[0].Round != 1 {
		t.Fatalf("observer stats = %+v", obs.stats)
	}
}

func TestSplitChainStopsBeeps(t *testing.T) {
	s := New(WithPinsPerEdge(2))
	line, err := s.AddLine(Position{0, 0}, amoebot.E, 4)
	if err != nil {
		t.Fatalf("AddLine: %v", err)
	}
	pred := func(p *Particle) amoebot.Direction {
		if p.ID == 0 {
			return amoebot.None
		}
		return amoebot.W
	}
	succ := func(p *Particle) amoebot.Direction {
		if p.ID == len(line)-1 {
			return amoebot.None
		}
		return amoebot.E
	}

	err = s.Round(func(p *Particle) {
		pc := p.NewPinConfiguration()
		circuit.MakeChainCircuit(pc, pred(p), succ(p), 0, p.ID != 2)
		p.SetPlannedPinConfiguration(pc)
		if p.ID == 0 {
			pc.SendBeepOnPartitionSet(circuit.ChainPartitionSetID(pc, pred(p), succ(p), 0))
		}
	})
	if err != nil {
		t.Fatalf("Round: %v", err)
	}

	want := []bool{true, true, true, false}
	for i, p := range line {
		pc := p.CurrentPinConfiguration()
		got := pc.ReceivedBeepOnPartitionSet(circuit.ChainPartitionSetID(pc, pred(p), succ(p), 0))
		if got != want[i] {
			t.Fatalf("particle %d pred side received = %v, want %v", i, got, want[i])
		}
	}
	pc := line[2].CurrentPinConfiguration()
	if pc.ReceivedBeepOnPartitionSet(circuit.SuccSetID(pc, amoebot.E, 0)) {
		t.Fatalf("split particle forwarded the beep")
	}
}

func TestPanicBecomesError(t *testing.T) {
	var buf bytes.Buffer
	s := New(WithLogger(log.New(&buf, "", 0)))
	p := s.MustAddParticle(Position{0, 0})
	p.NewCell("counter").Set(7)
	err := s.Round(func(p *Particle) {
		p.PlannedPinConfiguration()
	})
	if !errors.Is(err, ErrParticleFailed) {
		t.Fatalf("Round error = %v, want ErrParticleFailed", err)
	}
	if !strings.Contains(buf.String(), "counter=") {
		t.Fatalf("failure log lacks the particle's cells:\n%s", buf.String())
	}
}

func TestAddParticleRejectsOccupied(t *testing.T) {
	s := New()
	s.MustAddParticle(Position{2, -1})
	if _, err := s.AddParticle(Position{2, -1}); !errors.Is(err, ErrOccupied) {
		t.Fatalf("AddParticle error = %v, want ErrOccupied", err)
	}
}

func TestUnplannedParticleKeepsConfiguration(t *testing.T) {
	s := New(WithPinsPerEdge(2))
	s.MustAddParticle(Position{0, 0})
	s.MustAddParticle(Position{1, 0})
	if err := s.Round(func(p *Particle) {
		pc := p.NewPinConfiguration()
		circuit.MakeGlobalCircuit(pc, 0, circuit.GlobalSetID(pc, 0))
		p.SetPlannedPinConfiguration(pc)
	}); err != nil {
		t.Fatalf("Round: %v", err)
	}
	if err := s.Round(func(p *Particle) {
		if p.ID == 1 {
			pc := p.CurrentPinConfiguration().Clone()
			p.SetPlannedPinConfiguration(pc)
			pc.SendBeepOnPartitionSet(circuit.GlobalSetID(pc, 0))
		}
	}); err != nil {
		t.Fatalf("Round: %v", err)
	}
	pc := s.Particles()[0].CurrentPinConfiguration()
	if !pc.ReceivedBeepOnPartitionSet(circuit.GlobalSetID(pc, 0)) {
		t.Fatalf("beep lost on kept configuration")
	}
}
