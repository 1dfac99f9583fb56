package shape

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

func system(t *testing.T, positions []sim.Position) *sim.System {
	t.Helper()
	s := sim.New()
	for _, pos := range positions {
		if _, err := s.AddParticle(pos); err != nil {
			t.Fatalf("AddParticle: %v", err)
		}
	}
	return s
}

func runAll(t *testing.T, s *sim.System, subs []sim.Subroutine) int {
	t.Helper()
	rounds, err := s.RunSubroutines(5000, subs)
	if err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
	return rounds
}

func rowPositions(n, y int) []sim.Position {
	out := make([]sim.Position, n)
	for i := range out {
		out[i] = sim.Position{X: i, Y: y}
	}
	return out
}

func parallelogram(w, h int) []sim.Position {
	var out []sim.Position
	for y := 0; y < h; y++ {
		out = append(out, rowPositions(w, y)...)
	}
	return out
}

func TestLineCompare(t *testing.T) {
	const n = 6
	for ref := 0; ref < 9; ref++ {
		s := system(t, rowPositions(n, 0))
		units := make([]*LineCompare, n)
		subs := make([]sim.Subroutine, n)
		for i, p := range s.Particles() {
			pred, succ := amoebot.W, amoebot.E
			if i == 0 {
				pred = amoebot.None
			}
			if i == n-1 {
				succ = amoebot.None
			}
			units[i] = NewLineCompare(p)
			units[i].Init(pred, succ, ref, true)
			subs[i] = units[i]
		}
		runAll(t, s, subs)
		for i, u := range units {
			want := amoebot.Equal
			switch {
			case i < ref:
				want = amoebot.Less
			case i > ref:
				want = amoebot.Greater
			}
			if got := u.Result(); got != want {
				t.Fatalf("compare(rank %d, %d) = %s, want %s", i, ref, got, want)
			}
		}
	}
}

func TestLineCompareIdleParticlesKeepPace(t *testing.T) {
	s := system(t, rowPositions(4, 0))
	units := make([]*LineCompare, 4)
	subs := make([]sim.Subroutine, 4)
	for i, p := range s.Particles() {
		units[i] = NewLineCompare(p)
		subs[i] = units[i]
	}
	units[0].Init(amoebot.None, amoebot.E, 5, true)
	units[1].Init(amoebot.W, amoebot.None, 5, true)
	units[2].Init(amoebot.None, amoebot.None, 5, false)
	units[3].Init(amoebot.None, amoebot.None, 5, false)
	// Three bits, the cutoff round and the round reading it.
	if rounds := runAll(t, s, subs); rounds != 5 {
		t.Fatalf("rounds = %d, want 5", rounds)
	}
	if units[2].AtLeast() {
		t.Fatalf("idle particle reports a result")
	}
	if units[1].Result() != amoebot.Less {
		t.Fatalf("rank 1 vs 5 = %s", units[1].Result())
	}
}

func TestLongestLines(t *testing.T) {
	lengths := []int{3, 5, 2, 5, 4}
	var positions []sim.Position
	for y, n := range lengths {
		positions = append(positions, rowPositions(n, y)...)
	}
	s := system(t, positions)
	units := make([]*LongestLines, len(positions))
	subs := make([]sim.Subroutine, len(positions))
	for i, p := range s.Particles() {
		units[i] = NewLongestLines(p)
		units[i].Init(0)
		subs[i] = units[i]
	}
	runAll(t, s, subs)
	for i, p := range s.Particles() {
		want := lengths[p.Pos.Y] == 5
		if got := units[i].OnLongestLine(); got != want {
			t.Fatalf("OnLongestLine(%s) = %v, want %v", p.Pos, got, want)
		}
	}
}

func TestLongestLinesSingletons(t *testing.T) {
	s := system(t, []sim.Position{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: 2}})
	subs := make([]sim.Subroutine, 3)
	units := make([]*LongestLines, 3)
	for i, p := range s.Particles() {
		units[i] = NewLongestLines(p)
		units[i].Init(0)
		subs[i] = units[i]
	}
	runAll(t, s, subs)
	for i, u := range units {
		if !u.OnLongestLine() {
			t.Fatalf("particle %d: all lines have length 1 but it lost", i)
		}
	}
}

func TestParallelogram(t *testing.T) {
	tests := []struct {
		w, h int
		dir  amoebot.Direction
		want bool
	}{
		{4, 3, amoebot.E, true},
		{3, 3, amoebot.E, true},
		{1, 1, amoebot.E, true},
		{5, 1, amoebot.E, false},
		{4, 4, amoebot.E, false},
		{3, 4, amoebot.NE, false},
	}
	for _, tt := range tests {
		s := system(t, parallelogram(4, 3))
		units := make([]*Parallelogram, len(s.Particles()))
		subs := make([]sim.Subroutine, len(units))
		for i, p := range s.Particles() {
			units[i] = NewParallelogram(p)
			units[i].Init(tt.w, tt.h, tt.dir)
			subs[i] = units[i]
		}
		runAll(t, s, subs)
		for i, u := range units {
			if u.Succeeded() != tt.want {
				t.Fatalf("%dx%d along %s at particle %d: Succeeded = %v, want %v",
					tt.w, tt.h, tt.dir, i, u.Succeeded(), tt.want)
			}
		}
		if tt.w == 4 && tt.h == 3 {
			for i, p := range s.Particles() {
				if want := p.Pos == (sim.Position{}); units[i].IsCorner() != want {
					t.Fatalf("IsCorner(%s) = %v, want %v", p.Pos, units[i].IsCorner(), want)
				}
			}
		}
	}
}

func hexagon() []sim.Position {
	out := []sim.Position{{}}
	for _, d := range amoebot.Directions() {
		out = append(out, sim.Position{}.Step(d, 1))
	}
	return out
}

func TestSnowflake(t *testing.T) {
	tests := []struct {
		name      string
		positions []sim.Position
		arms      [amoebot.NumDirections]int
		want      bool
		origin    sim.Position
	}{
		{"hexagon", hexagon(), [6]int{1, 1, 1, 1, 1, 1}, true, sim.Position{}},
		{"hexagon long arm", hexagon(), [6]int{2, 0, 0, 0, 0, 0}, true, sim.Position{X: -1}},
		{"hexagon too long arm", hexagon(), [6]int{3, 0, 0, 0, 0, 0}, false, sim.Position{}},
		{"line", rowPositions(5, 0), [6]int{2, 0, 0, 2, 0, 0}, true, sim.Position{X: 2}},
		{"empty arms", rowPositions(2, 0), [6]int{}, true, sim.Position{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := system(t, tt.positions)
			units := make([]*Snowflake, len(s.Particles()))
			subs := make([]sim.Subroutine, len(units))
			for i, p := range s.Particles() {
				units[i] = NewSnowflake(p)
				units[i].Init(tt.arms)
				subs[i] = units[i]
			}
			runAll(t, s, subs)
			if units[0].Succeeded() != tt.want {
				t.Fatalf("Succeeded = %v, want %v", units[0].Succeeded(), tt.want)
			}
			if tt.want && !units[s.At(tt.origin).ID].IsOrigin() {
				t.Fatalf("%s is not an origin", tt.origin)
			}
		})
	}
}

const triangleFile = `{"shape":{"nodes":[{"x":0,"y":0},{"x":0,"y":1},{"x":1,"y":0}],
"edges":[{"u":0,"v":1},{"u":0,"v":2},{"u":1,"v":2}],"faces":[{"u":0,"v":1,"w":2}]},
"constituents":[],"dependencyTree":[{"arms":[1,1,0,0,0,0],"children":[]}]}`

func TestShapeFile(t *testing.T) {
	f, err := Parse([]byte(triangleFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Shape.Nodes) != 3 || len(f.Shape.Faces) != 1 {
		t.Fatalf("parsed %d nodes and %d faces", len(f.Shape.Nodes), len(f.Shape.Faces))
	}
	arms, ok := f.RootArms()
	if !ok || arms != [6]int{1, 1, 0, 0, 0, 0} {
		t.Fatalf("RootArms = %v, %v", arms, ok)
	}
	s := sim.New()
	if err := f.Place(s, sim.Position{X: 3, Y: -1}); err != nil {
		t.Fatalf("Place: %v", err)
	}
	units := make([]*Snowflake, 3)
	subs := make([]sim.Subroutine, 3)
	for i, p := range s.Particles() {
		units[i] = NewSnowflake(p)
		units[i].Init(arms)
		subs[i] = units[i]
	}
	runAll(t, s, subs)
	if !units[0].Succeeded() || !units[0].IsOrigin() {
		t.Fatalf("shape file snowflake not found at its origin")
	}
}

func TestShapeFileErrors(t *testing.T) {
	tests := []string{
		`{"shape":{"nodes":[]}}`,
		`{"shape":{"nodes":[{"x":0,"y":0},{"x":2,"y":0}],"edges":[{"u":0,"v":1}]}}`,
		`{"shape":{"nodes":[{"x":0,"y":0}],"edges":[{"u":0,"v":3}]}}`,
		`{"shape":{"nodes":[{"x":0,"y":0}]},"dependencyTree":[{"arms":[0,0,0,0,0,0],"children":[{"childIdx":0}]}]}`,
		`{"shape":{"nodes":[{"x":0,"y":0}]},"dependencyTree":[{"arms":[0,0,0,0,0,0],"children":[]},{"arms":[1,0,0,0,0,0],"children":[{"childIdx":0,"direction":7}]}]}`,
		`{"shape":{"nodes":[{"x":0,"y":0}]},"constituents":[{"shapeType":9}]}`,
		`{"shape":{"nodes":[{"x":0,"y":0}]},"constituents":[{"shapeType":1,"directionW":3}]}`,
		`not json`,
	}
	for _, in := range tests {
		if _, err := Parse([]byte(in)); !errors.Is(err, ErrInvalidFile) {
			t.Fatalf("Parse(%q) error = %v, want ErrInvalidFile", in, err)
		}
	}
}

// A line of two rotated onto NE and swept one step along the root's E arm.
const sweptFile = `{"shape":{"nodes":[{"x":0,"y":0},{"x":1,"y":0},{"x":2,"y":0},{"x":0,"y":1},{"x":1,"y":1}]},
"constituents":[],"dependencyTree":[
{"arms":[1,0,0,0,0,0],"children":[]},
{"arms":[2,0,0,0,0,0],"children":[{"childIdx":0,"direction":0,"distance":0,"rotation":1}]}]}`

func TestShapeFileChildren(t *testing.T) {
	f, err := Parse([]byte(sweptFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := f.RootArms(); ok {
		t.Fatalf("RootArms accepted a root with children")
	}
	flat := &File{Shape: f.Shape}

	tests := []struct {
		name      string
		positions []sim.Position
		want      []sim.Position
	}{
		{"exact", []sim.Position{{X: 0}, {X: 1}, {X: 2}, {Y: 1}, {X: 1, Y: 1}}, []sim.Position{{}}},
		{"shifted", []sim.Position{{X: 5, Y: 2}, {X: 6, Y: 2}, {X: 7, Y: 2}, {X: 5, Y: 3}, {X: 6, Y: 3}, {X: 7, Y: 3}}, []sim.Position{{X: 5, Y: 2}}},
		// The root arm fits at (0,0) but the swept child does not.
		{"child missing", []sim.Position{{X: 0}, {X: 1}, {X: 2}, {Y: 1}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Origins(system(t, tt.positions), 10000)
			if err != nil {
				t.Fatalf("Origins: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Origins = %v, want %v", got, tt.want)
			}
			rows, err := flat.Origins(system(t, tt.positions), 10000)
			if err != nil {
				t.Fatalf("Origins by rows: %v", err)
			}
			if !slices.Equal(rows, got) {
				t.Fatalf("rows give %v, dependency tree %v", rows, got)
			}
		})
	}
}

func TestStarConvexFile(t *testing.T) {
	var nodes, constituents []string
	for _, p := range hexagon() {
		nodes = append(nodes, fmt.Sprintf(`{"x":%d,"y":%d}`, p.X, p.Y))
	}
	for sector := 0; sector < 6; sector++ {
		constituents = append(constituents, fmt.Sprintf(
			`{"shapeType":0,"directionW":%d,"directionH":%d,"a":1,"d":0,"c":0,"a2":0,"a3":0}`,
			2*sector, 2*((sector+1)%6)))
	}
	data := fmt.Sprintf(`{"shape":{"nodes":[%s],"edges":[],"faces":[]},"constituents":[%s],"dependencyTree":[]}`,
		strings.Join(nodes, ","), strings.Join(constituents, ","))
	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Constituents) != 6 {
		t.Fatalf("parsed %d constituents, want 6", len(f.Constituents))
	}

	got, err := f.Origins(system(t, append(hexagon(), sim.Position{X: 2})), 10000)
	if err != nil {
		t.Fatalf("Origins: %v", err)
	}
	if want := []sim.Position{{}}; !slices.Equal(got, want) {
		t.Fatalf("Origins = %v, want %v", got, want)
	}
	got, err = f.Origins(system(t, hexagon()[:6]), 10000)
	if err != nil {
		t.Fatalf("Origins: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Origins on an incomplete hexagon = %v", got)
	}
}
