package sim

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
)

// Subroutine is the round protocol every circuit algorithm follows:
// ActivateReceive consumes the beeps of the previous round, SetupPC plans the
// next configuration and ActivateSend beeps on it.
type Subroutine interface {
	ActivateReceive()
	SetupPC(pc *amoebot.PinConfiguration)
	ActivateSend()
	IsFinished() bool
}

// Run calls step until done reports true or maxRounds have passed. done is
// checked before every round.
func (s *System) Run(maxRounds int, step StepFunc, done func() bool) (int, error) {
	start := s.round
	for !done() {
		if s.round-start >= maxRounds {
			return s.round - start, fmt.Errorf("%w: %d", ErrRoundLimit, maxRounds)
		}
		if err := s.Round(step); err != nil {
			return s.round - start, err
		}
	}
	return s.round - start, nil
}

// RunSubroutines drives one subroutine instance per particle, indexed by
// particle ID, until every instance is finished. Instances must be
// initialized before the call.
func (s *System) RunSubroutines(maxRounds int, subs []Subroutine) (int, error) {
	if len(subs) != len(s.particles) {
		return 0, fmt.Errorf("sim: %d subroutines for %d particles", len(subs), len(s.particles))
	}
	first := true
	step := func(p *Particle) {
		sub := subs[p.ID]
		if !first && !sub.IsFinished() {
			sub.ActivateReceive()
		}
		if sub.IsFinished() {
			return
		}
		pc := p.NewPinConfiguration()
		sub.SetupPC(pc)
		p.SetPlannedPinConfiguration(pc)
		sub.ActivateSend()
	}
	done := func() bool {
		for _, sub := range subs {
			if !sub.IsFinished() {
				return false
			}
		}
		return true
	}
	rounds := 0
	for !done() {
		if rounds >= maxRounds {
			return rounds, fmt.Errorf("%w: %d", ErrRoundLimit, maxRounds)
		}
		if err := s.Round(step); err != nil {
			return rounds, err
		}
		first = false
		rounds++
	}
	return rounds, nil
}
