package shape

import (
	"fmt"
	"sort"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// placements holds the positions at which a shape fits.
type placements map[sim.Position]bool

// Origins runs the containment checks a shape file describes on s and
// returns every position at which the whole shape fits, unrotated, sorted
// by particle ID. Snowflake files are checked along their dependency tree:
// a snowflake run per flake and rotation, with every child required at the
// inner end of its arm edge and one step further out, since the creator
// sweeps a child along that edge. Other files, star convex ones included,
// are split into maximal rows along E and checked with one line run per
// row length.
func (f *File) Origins(s *sim.System, maxRounds int) ([]sim.Position, error) {
	var (
		valid placements
		err   error
	)
	if len(f.DependencyTree) > 0 {
		memo := make(map[[2]int]placements)
		valid, err = f.treeOrigins(s, maxRounds, len(f.DependencyTree)-1, 0, memo)
	} else {
		valid, err = f.rowOrigins(s, maxRounds)
	}
	if err != nil {
		return nil, err
	}
	var out []sim.Position
	for _, p := range s.Particles() {
		if valid[p.Pos] {
			out = append(out, p.Pos)
		}
	}
	return out, nil
}

func rotateArms(arms [amoebot.NumDirections]int, rot int) [amoebot.NumDirections]int {
	var out [amoebot.NumDirections]int
	for _, d := range amoebot.Directions() {
		out[d.Rotate60(rot)] = arms[d]
	}
	return out
}

func (f *File) treeOrigins(s *sim.System, maxRounds, idx, rot int, memo map[[2]int]placements) (placements, error) {
	key := [2]int{idx, rot}
	if v, ok := memo[key]; ok {
		return v, nil
	}
	flake := f.DependencyTree[idx]
	arms := rotateArms(flake.Arms, rot)
	for _, a := range arms {
		if a > MaxArm {
			return nil, fmt.Errorf("%w: snowflake %d has arm %d above %d", ErrInvalidFile, idx, a, MaxArm)
		}
	}
	valid, err := snowflakeOrigins(s, maxRounds, arms)
	if err != nil {
		return nil, err
	}
	for _, ch := range flake.Children {
		sub, err := f.treeOrigins(s, maxRounds, ch.ChildIdx, (rot+ch.Rotation)%amoebot.NumDirections, memo)
		if err != nil {
			return nil, err
		}
		d := amoebot.Direction(ch.Direction).Rotate60(rot)
		for pos := range valid {
			at := pos.Step(d, ch.Distance)
			if !sub[at] || !sub[at.Step(d, 1)] {
				delete(valid, pos)
			}
		}
	}
	memo[key] = valid
	return valid, nil
}

func snowflakeOrigins(s *sim.System, maxRounds int, arms [amoebot.NumDirections]int) (placements, error) {
	units := make([]*Snowflake, len(s.Particles()))
	subs := make([]sim.Subroutine, len(units))
	for _, p := range s.Particles() {
		units[p.ID] = NewSnowflake(p)
		units[p.ID].Init(arms)
		subs[p.ID] = units[p.ID]
	}
	if _, err := s.RunSubroutines(maxRounds, subs); err != nil {
		return nil, fmt.Errorf("snowflake %v: %w", arms, err)
	}
	valid := make(placements)
	for _, p := range s.Particles() {
		if units[p.ID].IsOrigin() {
			valid[p.Pos] = true
		}
	}
	return valid, nil
}

// row is a maximal run of nodes along E.
type row struct {
	start  sim.Position
	length int
}

func (f *File) rows() []row {
	byY := make(map[int][]int)
	for _, n := range f.Shape.Nodes {
		byY[n.Y] = append(byY[n.Y], n.X)
	}
	var out []row
	for y, xs := range byY {
		sort.Ints(xs)
		start := 0
		for i := 1; i <= len(xs); i++ {
			if i < len(xs) && xs[i] <= xs[i-1]+1 {
				continue
			}
			// Duplicate nodes do not lengthen a run.
			length := xs[i-1] - xs[start] + 1
			out = append(out, row{sim.Position{X: xs[start], Y: y}, length})
			start = i
		}
	}
	return out
}

func (f *File) rowOrigins(s *sim.System, maxRounds int) (placements, error) {
	rows := f.rows()
	lines := make(map[int]placements)
	for _, r := range rows {
		if _, ok := lines[r.length]; ok {
			continue
		}
		if r.length > MaxSide {
			return nil, fmt.Errorf("%w: row of %d nodes above %d", ErrInvalidFile, r.length, MaxSide)
		}
		l, err := lineStarts(s, maxRounds, r.length)
		if err != nil {
			return nil, err
		}
		lines[r.length] = l
	}
	valid := make(placements)
	for _, p := range s.Particles() {
		fits := true
		for _, r := range rows {
			at := sim.Position{X: p.Pos.X + r.start.X, Y: p.Pos.Y + r.start.Y}
			if !lines[r.length][at] {
				fits = false
				break
			}
		}
		if fits {
			valid[p.Pos] = true
		}
	}
	return valid, nil
}

// lineStarts returns the particles from which n particles follow along E.
func lineStarts(s *sim.System, maxRounds, n int) (placements, error) {
	units := make([]*Parallelogram, len(s.Particles()))
	subs := make([]sim.Subroutine, len(units))
	for _, p := range s.Particles() {
		units[p.ID] = NewParallelogram(p)
		units[p.ID].Init(n, 1, amoebot.E)
		subs[p.ID] = units[p.ID]
	}
	if _, err := s.RunSubroutines(maxRounds, subs); err != nil {
		return nil, fmt.Errorf("line of %d: %w", n, err)
	}
	starts := make(placements)
	for _, p := range s.Particles() {
		if units[p.ID].IsCorner() {
			starts[p.Pos] = true
		}
	}
	return starts, nil
}
