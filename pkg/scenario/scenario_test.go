package scenario

import (
	"errors"
	"strings"
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/binops"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

const sample = `
// two rows and an adder
scenario "sample" pins 4 seed 7;
particle 0 0 source candidate;
line 1 0 E 3 destination region 2;
chain 0 1 E 5 a "0110" b "0011";
particle -1 1 portal;
`

func build(t *testing.T, input string) *Scenario {
	t.Helper()
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	f, err := p.ParseString(input)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	sc, err := Build(f)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sc
}

func TestParseHeader(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	f, err := p.ParseString(sample)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if f.Header.Name != "sample" {
		t.Fatalf("Name = %q, want sample", f.Header.Name)
	}
	if f.Header.Pins == nil || *f.Header.Pins != 4 {
		t.Fatalf("Pins = %v, want 4", f.Header.Pins)
	}
	if f.Header.Seed == nil || *f.Header.Seed != 7 {
		t.Fatalf("Seed = %v, want 7", f.Header.Seed)
	}
	if len(f.Stmts) != 4 {
		t.Fatalf("statements = %d, want 4", len(f.Stmts))
	}
}

func TestBuild(t *testing.T) {
	sc := build(t, sample)
	s := sc.System
	if got := len(s.Particles()); got != 10 {
		t.Fatalf("particles = %d, want 10", got)
	}
	if s.PinsPerEdge() != 4 || s.Seed() != 7 {
		t.Fatalf("pins = %d, seed = %d", s.PinsPerEdge(), s.Seed())
	}

	tests := []struct {
		pos    sim.Position
		role   string
		want   bool
		region int
	}{
		{sim.Position{X: 0, Y: 0}, RoleSource, true, 0},
		{sim.Position{X: 0, Y: 0}, RoleCandidate, true, 0},
		{sim.Position{X: 0, Y: 0}, RoleDestination, false, 0},
		{sim.Position{X: 2, Y: 0}, RoleDestination, true, 2},
		{sim.Position{X: 3, Y: 0}, RoleDestination, true, 2},
		{sim.Position{X: -1, Y: 1}, RolePortal, true, 0},
		{sim.Position{X: 4, Y: 1}, RolePortal, false, 0},
	}
	for _, tt := range tests {
		p := s.At(tt.pos)
		if p == nil {
			t.Fatalf("no particle at %s", tt.pos)
		}
		if p.HasRole(tt.role) != tt.want {
			t.Fatalf("%s HasRole(%s) = %v, want %v", tt.pos, tt.role, p.HasRole(tt.role), tt.want)
		}
		if p.Region != tt.region {
			t.Fatalf("%s Region = %d, want %d", tt.pos, p.Region, tt.region)
		}
	}
	if got := len(sc.WithRole(RoleDestination)); got != 3 {
		t.Fatalf("destinations = %d, want 3", got)
	}
}

func TestChainOperands(t *testing.T) {
	sc := build(t, sample)
	if len(sc.Chains) != 1 {
		t.Fatalf("chains = %d, want 1", len(sc.Chains))
	}
	ch := sc.Chains[0]
	if Value(ch.A) != 6 || Value(ch.B) != 12 {
		t.Fatalf("operands = %d, %d, want 6, 12", Value(ch.A), Value(ch.B))
	}
	if ch.Pred(0) != amoebot.None || ch.Succ(0) != amoebot.E {
		t.Fatalf("first particle links %s/%s", ch.Pred(0), ch.Succ(0))
	}
	if ch.Pred(4) != amoebot.W || ch.Succ(4) != amoebot.None {
		t.Fatalf("last particle links %s/%s", ch.Pred(4), ch.Succ(4))
	}
}

func TestChainRunsAddition(t *testing.T) {
	sc := build(t, `scenario "add" pins 4; chain 0 0 NE 5 a "0110" b "0011";`)
	ch := sc.Chains[0]
	ops := make([]*binops.BinOps, len(ch.Particles))
	subs := make([]sim.Subroutine, len(ch.Particles))
	for i, p := range ch.Particles {
		ops[i] = binops.NewBinOps(p)
		ops[i].Init(binops.ModeAdd, ch.Pred(i), ch.Succ(i), 1, ch.A[i], ch.B[i])
		subs[p.ID] = ops[i]
	}
	if _, err := sc.System.RunSubroutines(200, subs); err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
	sum := make([]bool, len(ops))
	for i, o := range ops {
		sum[i] = o.ResultBit()
	}
	if got := Value(sum); got != 18 {
		t.Fatalf("6 + 12 = %d, want 18", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"overlap", `scenario "x"; particle 0 0; line 0 0 E 2;`, sim.ErrOccupied},
		{"long operand", `scenario "x"; chain 0 0 E 2 a "101";`, ErrInvalidScenario},
		{"bad bit", `scenario "x"; chain 0 0 E 3 b "102";`, ErrInvalidScenario},
		{"empty line", `scenario "x"; line 0 0 E 0;`, ErrInvalidScenario},
		{"no pins", `scenario "x" pins 0;`, ErrInvalidScenario},
	}
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := p.ParseString(tt.input)
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			if _, err := Build(f); !errors.Is(err, tt.want) {
				t.Fatalf("Build error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	for _, input := range []string{
		`particle 0 0;`,
		`scenario "x"; particle 0;`,
		`scenario "x"; line 0 0 N 2;`,
		`scenario "x"; particle 0 0 leader;`,
	} {
		if _, err := p.Parse(strings.NewReader(input)); err == nil {
			t.Fatalf("Parse(%q) succeeded", input)
		}
	}
}
