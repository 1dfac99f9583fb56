package binops

import (
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// testChain is a chain of particles with the least significant bit first.
type testChain struct {
	sys  *sim.System
	pred []amoebot.Direction
	succ []amoebot.Direction
}

func newChain(t *testing.T, positions []sim.Position) *testChain {
	t.Helper()
	s := sim.New(sim.WithPinsPerEdge(4))
	c := &testChain{sys: s}
	for i, pos := range positions {
		if _, err := s.AddParticle(pos); err != nil {
			t.Fatalf("AddParticle: %v", err)
		}
		pred, succ := amoebot.None, amoebot.None
		if i > 0 {
			pred = pos.DirectionTo(positions[i-1])
		}
		if i < len(positions)-1 {
			succ = pos.DirectionTo(positions[i+1])
		}
		c.pred = append(c.pred, pred)
		c.succ = append(c.succ, succ)
	}
	return c
}

func straight(t *testing.T, n int) *testChain {
	positions := make([]sim.Position, n)
	for i := range positions {
		positions[i] = sim.Position{X: i}
	}
	return newChain(t, positions)
}

func bit(v, i int) bool { return v>>i&1 == 1 }

func (c *testChain) run(t *testing.T, subs []sim.Subroutine) {
	t.Helper()
	if _, err := c.sys.RunSubroutines(500, subs); err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
}

// binOps runs one BinOps operation and returns the per-particle instances.
func (c *testChain) binOps(t *testing.T, m Mode, a, b int) []*BinOps {
	t.Helper()
	ops := make([]*BinOps, len(c.pred))
	subs := make([]sim.Subroutine, len(c.pred))
	for i, p := range c.sys.Particles() {
		ops[i] = NewBinOps(p)
		ops[i].Init(m, c.pred[i], c.succ[i], 1, bit(a, i), bit(b, i))
		subs[i] = ops[i]
	}
	c.run(t, subs)
	return ops
}

func collect(ops []*BinOps, f func(o *BinOps) bool) int {
	v := 0
	for i, o := range ops {
		if f(o) {
			v |= 1 << i
		}
	}
	return v
}

func TestMSB(t *testing.T) {
	const n = 4
	for a := 0; a < 1<<n; a++ {
		ops := straight(t, n).binOps(t, ModeMSB, a, 0)
		want := 0
		for i := 0; i < n; i++ {
			if bit(a, i) {
				want = i
			}
		}
		got := collect(ops, (*BinOps).IsMSB)
		if got != 1<<want {
			t.Fatalf("MSB(%04b) flags = %04b, want %04b", a, got, 1<<want)
		}
	}
}

func TestMSBSingleParticle(t *testing.T) {
	for a := 0; a < 2; a++ {
		ops := straight(t, 1).binOps(t, ModeMSB, a, 0)
		if !ops[0].IsMSB() {
			t.Fatalf("single particle with a=%d is not the MSB", a)
		}
	}
}

func TestComparison(t *testing.T) {
	const n = 3
	for a := 0; a < 1<<n; a++ {
		for b := 0; b < 1<<n; b++ {
			want := amoebot.Equal
			switch {
			case a > b:
				want = amoebot.Greater
			case a < b:
				want = amoebot.Less
			}
			for i, o := range straight(t, n).binOps(t, ModeComp, a, b) {
				if got := o.CompResult(); got != want {
					t.Fatalf("compare(%d, %d) at particle %d = %s, want %s", a, b, i, got, want)
				}
			}
		}
	}
}

func TestArithmetic(t *testing.T) {
	const n = 3
	const limit = 1 << n
	type result struct {
		c        int
		overflow bool
	}
	cases := []struct {
		mode Mode
		want func(a, b int) result
	}{
		{ModeAdd, func(a, b int) result { return result{(a + b) % limit, a+b >= limit} }},
		{ModeSub, func(a, b int) result { return result{(a - b + limit) % limit, a < b} }},
		{ModeMult, func(a, b int) result { return result{(a * b) % limit, a*b >= limit} }},
	}
	for _, tc := range cases {
		for a := 0; a < limit; a++ {
			for b := 0; b < limit; b++ {
				ops := straight(t, n).binOps(t, tc.mode, a, b)
				want := tc.want(a, b)
				if got := collect(ops, (*BinOps).ResultBit); got != want.c {
					t.Fatalf("%s(%d, %d) = %d, want %d", tc.mode, a, b, got, want.c)
				}
				for i, o := range ops {
					if o.HaveOverflow() != want.overflow {
						t.Fatalf("%s(%d, %d) overflow at particle %d = %v, want %v",
							tc.mode, a, b, i, o.HaveOverflow(), want.overflow)
					}
				}
			}
		}
	}
}

func TestDivision(t *testing.T) {
	const n = 3
	for a := 0; a < 1<<n; a++ {
		for b := 0; b < 1<<n; b++ {
			ops := straight(t, n).binOps(t, ModeDiv, a, b)
			if b == 0 {
				for i, o := range ops {
					if !o.DivisionByZero() {
						t.Fatalf("%d / 0 not flagged at particle %d", a, i)
					}
				}
				continue
			}
			if got := collect(ops, (*BinOps).ResultBit); got != a/b {
				t.Fatalf("%d / %d = %d, want %d", a, b, got, a/b)
			}
			if got := collect(ops, (*BinOps).RemainderBit); got != a%b {
				t.Fatalf("%d mod %d = %d, want %d", a, b, got, a%b)
			}
		}
	}
}

func TestAdditionOnBentChain(t *testing.T) {
	positions := []sim.Position{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 1}}
	a, b := 0b0111, 0b0101
	ops := newChain(t, positions).binOps(t, ModeAdd, a, b)
	if got := collect(ops, (*BinOps).ResultBit); got != (a+b)%16 {
		t.Fatalf("bent chain sum = %04b, want %04b", got, (a+b)%16)
	}
	if ops[0].HaveOverflow() {
		t.Fatalf("unexpected overflow")
	}
}

func TestTwoBitAdditionExample(t *testing.T) {
	ops := straight(t, 2).binOps(t, ModeAdd, 0b01, 0b01)
	if got := collect(ops, (*BinOps).ResultBit); got != 0b10 {
		t.Fatalf("01 + 01 = %02b, want 10", got)
	}
	if ops[1].HaveOverflow() {
		t.Fatalf("01 + 01 overflowed")
	}
}

// overflowDone waits for the overflow round of a standalone addition.
type overflowDone struct {
	*Addition
}

func (o overflowDone) IsFinished() bool { return o.IsFinishedOverflow() }

func TestSharedCellMatchesStandalone(t *testing.T) {
	const n = 4
	a, b := 13, 6

	shared := straight(t, n)
	ops := make([]*BinOps, n)
	subs := make([]sim.Subroutine, n)
	for i, p := range shared.sys.Particles() {
		ops[i] = NewBinOps(p)
		ops[i].Init(ModeAdd, shared.pred[i], shared.succ[i], 0, bit(a, i), bit(b, i))
		subs[i] = ops[i]
	}
	shared.run(t, subs)
	sum := collect(ops, (*BinOps).ResultBit)
	for i := range ops {
		ops[i].Init(ModeDiv, shared.pred[i], shared.succ[i], 0, bit(a, i), bit(b, i))
	}
	shared.run(t, subs)
	quot := collect(ops, (*BinOps).ResultBit)
	rem := collect(ops, (*BinOps).RemainderBit)

	alone := straight(t, n)
	adds := make([]*Addition, n)
	for i, p := range alone.sys.Particles() {
		adds[i] = NewAddition(p)
		adds[i].Init(alone.pred[i], alone.succ[i], 0, bit(a, i), bit(b, i))
		subs[i] = overflowDone{adds[i]}
	}
	alone.run(t, subs)
	divs := make([]*Division, n)
	for i, p := range alone.sys.Particles() {
		divs[i] = NewDivision(p)
		divs[i].Init(alone.pred[i], alone.succ[i], 0, bit(a, i), bit(b, i))
		subs[i] = divs[i]
	}
	alone.run(t, subs)

	wantSum, wantQuot, wantRem := 0, 0, 0
	for i := 0; i < n; i++ {
		if adds[i].ResultBit() {
			wantSum |= 1 << i
		}
		if divs[i].ResultBit() {
			wantQuot |= 1 << i
		}
		if divs[i].RemainderBit() {
			wantRem |= 1 << i
		}
	}
	if sum != wantSum || quot != wantQuot || rem != wantRem {
		t.Fatalf("shared = (%d, %d, %d), standalone = (%d, %d, %d)", sum, quot, rem, wantSum, wantQuot, wantRem)
	}
	if sum != (a+b)%16 || quot != a/b || rem != a%b {
		t.Fatalf("shared results (%d, %d, %d) are wrong", sum, quot, rem)
	}
}

// stacked runs every chain instance hosted by one particle.
type stacked []*BinOps

func (s stacked) SetupPC(pc *amoebot.PinConfiguration) {
	for _, o := range s {
		o.SetupPC(pc)
	}
}

func (s stacked) ActivateSend() {
	for _, o := range s {
		if !o.IsFinished() {
			o.ActivateSend()
		}
	}
}

func (s stacked) ActivateReceive() {
	for _, o := range s {
		if !o.IsFinished() {
			o.ActivateReceive()
		}
	}
}

func (s stacked) IsFinished() bool {
	for _, o := range s {
		if !o.IsFinished() {
			return false
		}
	}
	return true
}

// loopChain passes (1,0) twice: first from W to NE, then from NW to E.
// The four directions differ, so both instances share one pin offset.
var loopChain = []sim.Position{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 1}, {X: 2}}

func runLoopChain(t *testing.T, m Mode, a, b int) []*BinOps {
	t.Helper()
	s := sim.New(sim.WithPinsPerEdge(4))
	hosted := make(map[sim.Position]stacked)
	ops := make([]*BinOps, len(loopChain))
	for i, pos := range loopChain {
		p := s.At(pos)
		if p == nil {
			p = s.MustAddParticle(pos)
		}
		pred, succ := amoebot.None, amoebot.None
		if i > 0 {
			pred = pos.DirectionTo(loopChain[i-1])
		}
		if i < len(loopChain)-1 {
			succ = pos.DirectionTo(loopChain[i+1])
		}
		ops[i] = NewBinOps(p)
		ops[i].Init(m, pred, succ, 1, bit(a, i), bit(b, i))
		hosted[pos] = append(hosted[pos], ops[i])
	}
	subs := make([]sim.Subroutine, len(s.Particles()))
	for _, p := range s.Particles() {
		subs[p.ID] = hosted[p.Pos]
	}
	if len(hosted[sim.Position{X: 1}]) != 2 {
		t.Fatalf("(1,0) hosts %d instances, want 2", len(hosted[sim.Position{X: 1}]))
	}
	if _, err := s.RunSubroutines(500, subs); err != nil {
		t.Fatalf("RunSubroutines: %v", err)
	}
	return ops
}

func TestChainRevisitsParticle(t *testing.T) {
	const limit = 1 << 6
	for a := 0; a < limit; a += 5 {
		for b := 0; b < limit; b += 7 {
			ops := runLoopChain(t, ModeAdd, a, b)
			if got := collect(ops, (*BinOps).ResultBit); got != (a+b)%limit {
				t.Fatalf("%d + %d on the looping chain = %d, want %d", a, b, got, (a+b)%limit)
			}
			if got := ops[len(ops)-1].HaveOverflow(); got != (a+b >= limit) {
				t.Fatalf("%d + %d overflow = %v", a, b, got)
			}

			want := amoebot.Equal
			switch {
			case a > b:
				want = amoebot.Greater
			case a < b:
				want = amoebot.Less
			}
			for i, o := range runLoopChain(t, ModeComp, a, b) {
				if got := o.CompResult(); got != want {
					t.Fatalf("compare(%d, %d) at position %d = %s, want %s", a, b, i, got, want)
				}
			}
		}
	}
}
