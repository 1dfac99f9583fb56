package amoebot

import "testing"

func TestDirectionArithmetic(t *testing.T) {
	cases := []struct {
		d        Direction
		opposite Direction
		rot2     Direction
	}{
		{E, W, NW},
		{NE, SW, W},
		{NW, SE, SW},
		{W, E, SE},
		{SW, NE, E},
		{SE, NW, NE},
		{None, None, None},
	}
	for _, tc := range cases {
		if got := tc.d.Opposite(); got != tc.opposite {
			t.Fatalf("%s.Opposite() = %s, want %s", tc.d, got, tc.opposite)
		}
		if got := tc.d.Rotate60(2); got != tc.rot2 {
			t.Fatalf("%s.Rotate60(2) = %s, want %s", tc.d, got, tc.rot2)
		}
	}
	if got := SW.DistanceTo(E); got != 2 {
		t.Fatalf("SW.DistanceTo(E) = %d, want 2", got)
	}
	if got := E.Rotate60(-1); got != SE {
		t.Fatalf("E.Rotate60(-1) = %s, want SE", got)
	}
	for _, d := range Directions() {
		dx, dy := d.Offset()
		ox, oy := d.Opposite().Offset()
		if dx+ox != 0 || dy+oy != 0 {
			t.Fatalf("offsets of %s and its opposite do not cancel", d)
		}
		parsed, err := ParseDirection(d.String())
		if err != nil || parsed != d {
			t.Fatalf("ParseDirection(%s) = %s, %v", d, parsed, err)
		}
	}
}

func TestPartitionSets(t *testing.T) {
	pc := NewPinConfiguration(4)
	a := pc.PinID(E, 0)
	b := pc.PinID(W, 3)
	c := pc.PinID(NE, 1)

	if got := pc.PartitionSetOf(b); got != b {
		t.Fatalf("singleton set of %d = %d", b, got)
	}

	pc.MakePartitionSet([]int{a, b, c}, a)
	for _, p := range []int{a, b, c} {
		if got := pc.PartitionSetOf(p); got != a {
			t.Fatalf("PartitionSetOf(%d) = %d, want %d", p, got, a)
		}
	}

	pc.MakePartitionSet([]int{b}, a)
	if got := pc.PartitionSetOf(c); got >= 0 {
		t.Fatalf("evicted pin still in set %d", got)
	}
	if got := pc.PinsOf(a); len(got) != 1 || got[0] != b {
		t.Fatalf("PinsOf(%d) = %v, want [%d]", a, got, b)
	}

	pc.SendBeepOnPartitionSet(a)
	clone := pc.Clone()
	if clone.IsSending(a) {
		t.Fatalf("clone kept a pending beep")
	}
	clone.MarkReceived(a)
	if !clone.ReceivedBeepOnPin(b) || clone.ReceivedBeepOnPin(c) {
		t.Fatalf("beep reached the wrong pins")
	}
	if got := pc.Pin(b); got.Direction != W || got.Offset != 3 {
		t.Fatalf("Pin(%d) = %+v", b, got)
	}
}
