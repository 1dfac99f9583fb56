package sim

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand/v2"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	ErrOccupied       = errors.New("sim: position already occupied")
	ErrParticleFailed = errors.New("sim: particle failed")
	ErrRoundLimit     = errors.New("sim: round limit reached")
)

// DefaultPinsPerEdge is enough for every subroutine in this module to run
// next to one regional and one global circuit.
const DefaultPinsPerEdge = 8

// RoundStats summarizes the circuits of one delivered round.
type RoundStats struct {
	Round    int
	Circuits int
	Beeped   int
}

// Observer is notified after every round.
type Observer interface {
	ObserveRound(stats RoundStats) error
}

// StepFunc is run once per particle and round. It reads the beeps of the
// last round from the current configuration, plans the next configuration
// and sends beeps on it.
type StepFunc func(p *Particle)

// System is a synchronous amoebot structure. All particles act in every
// round and beeps become visible in the following round.
type System struct {
	pinsPerEdge int
	seed        uint64
	logger      *log.Logger
	observers   []Observer

	particles []*Particle
	byPos     map[Position]*Particle
	round     int
}

// Option configures a System.
type Option func(*System)

// WithPinsPerEdge sets the number of pins on every edge.
func WithPinsPerEdge(k int) Option {
	return func(s *System) { s.pinsPerEdge = k }
}

// WithSeed seeds the particle random sources.
func WithSeed(seed uint64) Option {
	return func(s *System) { s.seed = seed }
}

// WithLogger sets the logger that receives hard errors and round traces.
func WithLogger(l *log.Logger) Option {
	return func(s *System) { s.logger = l }
}

// WithObserver registers o for round statistics.
func WithObserver(o Observer) Option {
	return func(s *System) { s.observers = append(s.observers, o) }
}

// New creates an empty system.
func New(opts ...Option) *System {
	s := &System{
		pinsPerEdge: DefaultPinsPerEdge,
		logger:      log.New(io.Discard, "", 0),
		byPos:       make(map[Position]*Particle),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.pinsPerEdge <= 0 {
		panic(fmt.Errorf("%w: %d", amoebot.ErrInvalidPinCount, s.pinsPerEdge))
	}
	return s
}

// AddParticle places a new particle at pos.
func (s *System) AddParticle(pos Position) (*Particle, error) {
	if _, ok := s.byPos[pos]; ok {
		return nil, fmt.Errorf("%w: %s", ErrOccupied, pos)
	}
	id := len(s.particles)
	p := &Particle{
		ID:      id,
		Pos:     pos,
		Roles:   make(map[string]bool),
		sys:     s,
		mem:     bitfield.NewMemory(),
		rng:     rand.New(rand.NewPCG(s.seed, uint64(id))),
		current: amoebot.NewPinConfiguration(s.pinsPerEdge),
	}
	s.particles = append(s.particles, p)
	s.byPos[pos] = p
	return p, nil
}

// MustAddParticle is AddParticle for fixtures that cannot collide.
func (s *System) MustAddParticle(pos Position) *Particle {
	p, err := s.AddParticle(pos)
	if err != nil {
		panic(err)
	}
	return p
}

// AddLine places n particles starting at pos and walking in direction d.
func (s *System) AddLine(pos Position, d amoebot.Direction, n int) ([]*Particle, error) {
	line := make([]*Particle, 0, n)
	for i := 0; i < n; i++ {
		p, err := s.AddParticle(pos.Step(d, i))
		if err != nil {
			return nil, err
		}
		line = append(line, p)
	}
	return line, nil
}

// AddObserver registers o for all following rounds.
func (s *System) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Particles returns the particles in ID order.
func (s *System) Particles() []*Particle { return s.particles }

// PinsPerEdge returns the pins per edge.
func (s *System) PinsPerEdge() int { return s.pinsPerEdge }

// Seed returns the seed of the particle random sources.
func (s *System) Seed() uint64 { return s.seed }

// Logger returns the logger the system reports to.
func (s *System) Logger() *log.Logger { return s.logger }

// Rounds returns the number of rounds simulated so far.
func (s *System) Rounds() int { return s.round }

// At returns the particle at pos or nil.
func (s *System) At(pos Position) *Particle {
	return s.byPos[pos]
}

// Round runs step on every particle and delivers the beeps. A panic inside
// step aborts the round with ErrParticleFailed.
func (s *System) Round(step StepFunc) error {
	for _, p := range s.particles {
		p.mem.CommitAll()
		p.planned = nil
	}
	for _, p := range s.particles {
		if err := s.activate(p, step); err != nil {
			return err
		}
	}
	stats := s.deliver()
	s.round++
	stats.Round = s.round
	s.logger.Printf("round %d: %d circuits, %d beeped", stats.Round, stats.Circuits, stats.Beeped)
	for _, o := range s.observers {
		if err := o.ObserveRound(stats); err != nil {
			return fmt.Errorf("sim: observer: %w", err)
		}
	}
	return nil
}

func (s *System) activate(p *Particle, step StepFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s in round %d: %v", ErrParticleFailed, p, s.round, r)
			s.logger.Printf("error: %v", err)
			for _, c := range p.mem.Cells() {
				s.logger.Printf("  %s", c)
			}
		}
	}()
	step(p)
	return nil
}

// deliver joins the planned configurations of all particles into circuits
// and marks every set that shares a circuit with a sender. A particle that
// planned nothing keeps its current configuration.
func (s *System) deliver() RoundStats {
	k := s.pinsPerEdge
	for _, p := range s.particles {
		if p.planned == nil {
			p.planned = p.current.Clone()
		}
	}

	uf := newCircuits()
	for _, p := range s.particles {
		for _, id := range p.planned.PartitionSets() {
			uf.add(setRef{p.ID, id})
		}
	}
	for _, p := range s.particles {
		for _, d := range amoebot.Directions() {
			q := p.Neighbor(d)
			if q == nil || q.ID < p.ID {
				continue
			}
			for o := 0; o < k; o++ {
				a := p.planned.PartitionSetOf(amoebot.PinID(d, o, k))
				b := q.planned.PartitionSetOf(amoebot.PinID(d.Opposite(), k-1-o, k))
				uf.connect(setRef{p.ID, a}, setRef{q.ID, b})
			}
		}
	}

	beeped := make(map[setRef]bool)
	for _, p := range s.particles {
		for _, id := range p.planned.SendingSets() {
			beeped[uf.find(setRef{p.ID, id})] = true
		}
	}
	for _, p := range s.particles {
		for _, id := range p.planned.PartitionSets() {
			if beeped[uf.find(setRef{p.ID, id})] {
				p.planned.MarkReceived(id)
			}
		}
		for _, id := range p.planned.SendingSets() {
			p.planned.MarkReceived(id)
		}
		p.current, p.planned = p.planned, nil
	}
	return RoundStats{Circuits: uf.count(), Beeped: len(beeped)}
}
