package spf

import (
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

type scene struct {
	sys   *sim.System
	units []*SPF
}

func place(t *testing.T, positions []sim.Position) *sim.System {
	t.Helper()
	s := sim.New()
	for _, pos := range positions {
		if _, err := s.AddParticle(pos); err != nil {
			t.Fatalf("AddParticle: %v", err)
		}
	}
	return s
}

func run(t *testing.T, s *sim.System, source int, dests ...int) *scene {
	t.Helper()
	isDest := make(map[int]bool)
	for _, d := range dests {
		isDest[d] = true
	}
	sc := &scene{sys: s}
	subs := make([]sim.Subroutine, 0, len(s.Particles()))
	for _, p := range s.Particles() {
		u := New(p)
		u.Init(p.ID == source, isDest[p.ID], p.RegionMask(), 2)
		sc.units = append(sc.units, u)
		subs = append(subs, u)
	}
	if _, err := s.RunSubroutines(5000, subs); err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
	return sc
}

// distances runs a breadth first search inside the region of from.
func distances(s *sim.System, from int) map[int]int {
	src := s.Particles()[from]
	dist := map[int]int{from: 0}
	queue := []*sim.Particle{src}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, d := range p.NeighborDirections() {
			q := p.Neighbor(d)
			if _, seen := dist[q.ID]; seen || q.Region != p.Region {
				continue
			}
			dist[q.ID] = dist[p.ID] + 1
			queue = append(queue, q)
		}
	}
	return dist
}

// check verifies that every destination reaches the source on a shortest
// path and that only particles on those paths keep a parent.
func (sc *scene) check(t *testing.T, source int, dests ...int) {
	t.Helper()
	dist := distances(sc.sys, source)
	onPath := make(map[int]bool)
	for _, d := range dests {
		id := d
		for id != source {
			p := sc.sys.Particles()[id]
			dir := sc.units[id].Parent()
			if dir == amoebot.None {
				t.Fatalf("particle %d on the path of %d has no parent", id, d)
			}
			next := p.Neighbor(dir)
			if dist[next.ID] != dist[id]-1 {
				t.Fatalf("parent of %d is %d at distance %d, want %d", id, next.ID, dist[next.ID], dist[id]-1)
			}
			onPath[id] = true
			id = next.ID
		}
	}
	for id, u := range sc.units {
		if id == source {
			if u.Parent() != amoebot.None {
				t.Fatalf("source has parent %s", u.Parent())
			}
			continue
		}
		if (u.Parent() != amoebot.None) != onPath[id] {
			t.Fatalf("particle %d Parent = %s, on a path = %v", id, u.Parent(), onPath[id])
		}
	}
	for id, u := range sc.units {
		if !u.Succeeded() {
			t.Fatalf("particle %d did not learn the success", id)
		}
	}
}

func line(n int) []sim.Position {
	out := make([]sim.Position, n)
	for i := range out {
		out[i] = sim.Position{X: i}
	}
	return out
}

func parallelogram(w, h int) []sim.Position {
	var out []sim.Position
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out = append(out, sim.Position{X: x, Y: y})
		}
	}
	return out
}

func TestLineParentChain(t *testing.T) {
	sc := run(t, place(t, line(5)), 0, 4)
	for i := 1; i < 5; i++ {
		if got := sc.units[i].Parent(); got != amoebot.W {
			t.Fatalf("Parent(%d) = %s, want W", i, got)
		}
	}
	sc.check(t, 0, 4)
}

func TestLineSourceInTheMiddle(t *testing.T) {
	sc := run(t, place(t, line(7)), 3, 0, 6)
	sc.check(t, 3, 0, 6)
}

func TestTriangle(t *testing.T) {
	s := place(t, []sim.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}})
	sc := run(t, s, 0, 1, 2)
	if got := sc.units[1].Parent(); got != amoebot.W {
		t.Fatalf("Parent(1) = %s, want W", got)
	}
	if got := sc.units[2].Parent(); got != amoebot.SW {
		t.Fatalf("Parent(2) = %s, want SW", got)
	}
	if kids := sc.units[0].Children(); len(kids) != 2 {
		t.Fatalf("source children = %v", kids)
	}
}

func TestShapes(t *testing.T) {
	bend := []sim.Position{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0},
		{X: 3, Y: 1}, {X: 3, Y: 2}, {X: 2, Y: 3}, {X: 1, Y: 4},
		{X: 0, Y: 1}, {X: -1, Y: 2},
	}
	tests := []struct {
		name      string
		positions []sim.Position
		source    int
		dests     []int
	}{
		{"parallelogram corner", parallelogram(4, 3), 0, []int{11}},
		{"parallelogram center", parallelogram(5, 4), 6, []int{0, 4, 19}},
		{"bent arms", bend, 0, []int{7, 9}},
		{"single destination is the source", parallelogram(3, 2), 2, []int{2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := run(t, place(t, tt.positions), tt.source, tt.dests...)
			sc.check(t, tt.source, tt.dests...)
		})
	}
}

func TestNoDestinationFails(t *testing.T) {
	sc := run(t, place(t, parallelogram(3, 3)), 4)
	for id, u := range sc.units {
		if !u.Failed() {
			t.Fatalf("particle %d did not fail", id)
		}
		if u.Parent() != amoebot.None {
			t.Fatalf("particle %d kept parent %s", id, u.Parent())
		}
	}
}

func TestSingleParticle(t *testing.T) {
	sc := run(t, place(t, line(1)), 0, 0)
	if !sc.units[0].Succeeded() {
		t.Fatalf("lone source and destination did not succeed")
	}
	sc = run(t, place(t, line(1)), 0)
	if !sc.units[0].Failed() {
		t.Fatalf("lone source without destination did not fail")
	}
}

func TestRegionsRunIndependently(t *testing.T) {
	s := place(t, line(8))
	for _, p := range s.Particles() {
		if p.ID >= 4 {
			p.Region = 1
		}
	}
	isSource := func(id int) bool { return id == 0 || id == 7 }
	isDest := func(id int) bool { return id == 3 }
	units := make([]*SPF, 0, 8)
	subs := make([]sim.Subroutine, 0, 8)
	for _, p := range s.Particles() {
		u := New(p)
		u.Init(isSource(p.ID), isDest(p.ID), p.RegionMask(), 3)
		units = append(units, u)
		subs = append(subs, u)
	}
	if _, err := s.RunSubroutines(5000, subs); err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
	for id, u := range units {
		if want := id < 4; u.Succeeded() != want {
			t.Fatalf("particle %d Succeeded = %v, want %v", id, u.Succeeded(), want)
		}
	}
	if units[3].Parent() != amoebot.W || units[4].Parent() != amoebot.None {
		t.Fatalf("parents across the region border: %s, %s", units[3].Parent(), units[4].Parent())
	}
}

func TestTreeEdgesPerAxis(t *testing.T) {
	// Lower left particle of a triangle: in every frame the contact with
	// the other portal is kept.
	in := func(d amoebot.Direction) bool { return d == amoebot.E || d == amoebot.NE }
	tests := []struct {
		axis int
		want []amoebot.Direction
	}{
		{0, []amoebot.Direction{amoebot.E, amoebot.NE}},
		{1, []amoebot.Direction{amoebot.E, amoebot.NE}},
		{2, []amoebot.Direction{amoebot.E}},
	}
	for _, tt := range tests {
		got := treeEdges(in, tt.axis)
		if len(got) != len(tt.want) {
			t.Fatalf("treeEdges(axis %d) = %v, want %v", tt.axis, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("treeEdges(axis %d) = %v, want %v", tt.axis, got, tt.want)
			}
		}
	}
}
