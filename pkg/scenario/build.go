package scenario

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// ErrInvalidScenario wraps every scenario rejection.
var ErrInvalidScenario = errors.New("scenario: invalid scenario")

// Role labels stored in sim.Particle.Roles.
const (
	RoleSource      = "source"
	RoleDestination = "destination"
	RoleCandidate   = "candidate"
	RolePortal      = "portal"
)

// Scenario is a built structure ready to run.
type Scenario struct {
	Name   string
	System *sim.System
	Chains []*Chain
}

// Chain is a line of particles holding operands a and b, one bit per
// particle and least significant bit first.
type Chain struct {
	Particles []*sim.Particle
	Dir       amoebot.Direction
	A, B      []bool
}

// Pred returns the direction from particle i towards the less significant
// end of the chain.
func (c *Chain) Pred(i int) amoebot.Direction {
	if i == 0 {
		return amoebot.None
	}
	return c.Dir.Opposite()
}

// Succ returns the direction to the successor of particle i, or None at the end.
func (c *Chain) Succ(i int) amoebot.Direction {
	if i == len(c.Particles)-1 {
		return amoebot.None
	}
	return c.Dir
}

// Value reads a number from one bit per particle.
func Value(bits []bool) uint64 {
	var v uint64
	for i, b := range bits {
		if b {
			v |= 1 << i
		}
	}
	return v
}

// Load parses and builds a scenario file.
func Load(path string, opts ...sim.Option) (*Scenario, error) {
	p, err := NewParser()
	if err != nil {
		return nil, err
	}
	f, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Build(f, opts...)
}

// Build places the particles of f in a new system. Pins and seed given in
// the header override the corresponding options.
func Build(f *File, opts ...sim.Option) (*Scenario, error) {
	if f.Header.Pins != nil {
		opts = append(opts, sim.WithPinsPerEdge(*f.Header.Pins))
	}
	if f.Header.Seed != nil {
		opts = append(opts, sim.WithSeed(uint64(*f.Header.Seed)))
	}
	if f.Header.Pins != nil && *f.Header.Pins <= 0 {
		return nil, fmt.Errorf("%w: pins %d", ErrInvalidScenario, *f.Header.Pins)
	}
	sc := &Scenario{Name: f.Header.Name, System: sim.New(opts...)}
	for _, st := range f.Stmts {
		var err error
		switch {
		case st.Particle != nil:
			err = sc.addParticle(st.Particle)
		case st.Line != nil:
			_, _, err = sc.addLine(st.Line.X, st.Line.Y, st.Line.Dir, st.Line.Count, st.Line.Roles)
			if err != nil {
				err = fmt.Errorf("%s: %w", st.Line.Pos, err)
			}
		case st.Chain != nil:
			err = sc.addChain(st.Chain)
		}
		if err != nil {
			return nil, err
		}
	}
	return sc, nil
}

func (sc *Scenario) addParticle(st *ParticleStmt) error {
	p, err := sc.System.AddParticle(sim.Position{X: st.X, Y: st.Y})
	if err != nil {
		return fmt.Errorf("%s: %w", st.Pos, err)
	}
	applyRoles(p, st.Roles)
	return nil
}

func (sc *Scenario) addLine(x, y int, dir string, n int, roles []*Role) ([]*sim.Particle, amoebot.Direction, error) {
	d, err := amoebot.ParseDirection(dir)
	if err != nil {
		return nil, amoebot.None, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if n < 1 {
		return nil, amoebot.None, fmt.Errorf("%w: line of %d particles", ErrInvalidScenario, n)
	}
	line, err := sc.System.AddLine(sim.Position{X: x, Y: y}, d, n)
	if err != nil {
		return nil, amoebot.None, err
	}
	for _, p := range line {
		applyRoles(p, roles)
	}
	return line, d, nil
}

func (sc *Scenario) addChain(st *ChainStmt) error {
	line, d, err := sc.addLine(st.X, st.Y, st.Dir, st.Count, st.Roles)
	if err != nil {
		return fmt.Errorf("%s: %w", st.Pos, err)
	}
	ch := &Chain{Particles: line, Dir: d}
	if ch.A, err = operand(st.A, st.Count); err != nil {
		return fmt.Errorf("%s: operand a: %w", st.Pos, err)
	}
	if ch.B, err = operand(st.B, st.Count); err != nil {
		return fmt.Errorf("%s: operand b: %w", st.Pos, err)
	}
	sc.Chains = append(sc.Chains, ch)
	return nil
}

// operand expands a bit string to one bit per particle, padding with zeros.
func operand(s *string, n int) ([]bool, error) {
	bits := make([]bool, n)
	if s == nil {
		return bits, nil
	}
	if len(*s) > n {
		return nil, fmt.Errorf("%w: %d bits on %d particles", ErrInvalidScenario, len(*s), n)
	}
	for i, c := range *s {
		switch c {
		case '0':
		case '1':
			bits[i] = true
		default:
			return nil, fmt.Errorf("%w: bit %q", ErrInvalidScenario, c)
		}
	}
	return bits, nil
}

func applyRoles(p *sim.Particle, roles []*Role) {
	for _, r := range roles {
		switch {
		case r.Source:
			p.Roles[RoleSource] = true
		case r.Destination:
			p.Roles[RoleDestination] = true
		case r.Candidate:
			p.Roles[RoleCandidate] = true
		case r.Portal:
			p.Roles[RolePortal] = true
		case r.Region != nil:
			p.Region = *r.Region
		}
	}
}

// WithRole returns the particles carrying role.
func (sc *Scenario) WithRole(role string) []*sim.Particle {
	var out []*sim.Particle
	for _, p := range sc.System.Particles() {
		if p.HasRole(role) {
			out = append(out, p)
		}
	}
	return out
}
