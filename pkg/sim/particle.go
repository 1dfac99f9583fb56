package sim

import (
	"fmt"
	"math/rand/v2"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

// Particle is one amoebot of a simulated system. It implements amoebot.Host.
type Particle struct {
	ID  int
	Pos Position

	// Roles holds scenario labels such as "source" or "portal".
	Roles map[string]bool
	// Region groups particles for regional algorithms; 0 is the default.
	Region int

	sys     *System
	mem     *bitfield.Memory
	rng     *rand.Rand
	current *amoebot.PinConfiguration
	planned *amoebot.PinConfiguration
}

var _ amoebot.Host = (*Particle)(nil)

func (p *Particle) String() string {
	return fmt.Sprintf("particle %d %s", p.ID, p.Pos)
}

// HasRole reports whether the particle carries the label.
func (p *Particle) HasRole(role string) bool {
	return p.Roles[role]
}

// Neighbor returns the particle in direction d or nil.
func (p *Particle) Neighbor(d amoebot.Direction) *Particle {
	return p.sys.At(p.Pos.Step(d, 1))
}

// HasNeighborAt reports whether a particle occupies direction d.
func (p *Particle) HasNeighborAt(d amoebot.Direction) bool {
	return d.IsCardinal() && p.Neighbor(d) != nil
}

// NeighborDirections lists the occupied directions in ccw order from E.
func (p *Particle) NeighborDirections() []amoebot.Direction {
	var dirs []amoebot.Direction
	for _, d := range amoebot.Directions() {
		if p.HasNeighborAt(d) {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// RegionMask flags the directions whose neighbor shares this particle's
// region.
func (p *Particle) RegionMask() [amoebot.NumDirections]bool {
	var mask [amoebot.NumDirections]bool
	for _, d := range amoebot.Directions() {
		if q := p.Neighbor(d); q != nil && q.Region == p.Region {
			mask[d] = true
		}
	}
	return mask
}

// PinsPerEdge returns the pins per edge of the system.
func (p *Particle) PinsPerEdge() int {
	return p.sys.pinsPerEdge
}

// CurrentPinConfiguration returns the configuration beeps were received on.
func (p *Particle) CurrentPinConfiguration() *amoebot.PinConfiguration {
	return p.current
}

// PlannedPinConfiguration returns the configuration for the next round.
func (p *Particle) PlannedPinConfiguration() *amoebot.PinConfiguration {
	if p.planned == nil {
		panic(fmt.Errorf("%w: %s", amoebot.ErrNoPlannedPC, p))
	}
	return p.planned
}

// SetPlannedPinConfiguration replaces the configuration for the next round.
func (p *Particle) SetPlannedPinConfiguration(pc *amoebot.PinConfiguration) {
	if pc.PinsPerEdge() != p.sys.pinsPerEdge {
		panic(fmt.Errorf("%w: configuration has %d pins per edge, system has %d",
			amoebot.ErrInvalidPinCount, pc.PinsPerEdge(), p.sys.pinsPerEdge))
	}
	p.planned = pc
}

// NewPinConfiguration returns a singleton configuration.
func (p *Particle) NewPinConfiguration() *amoebot.PinConfiguration {
	return amoebot.NewPinConfiguration(p.sys.pinsPerEdge)
}

// NewCell allocates a memory cell committed every round.
func (p *Particle) NewCell(name string) *bitfield.Cell {
	return p.mem.NewCell(name)
}

// Rand returns the particle's random source.
func (p *Particle) Rand() *rand.Rand {
	return p.rng
}
