package circuit

import (
	"testing"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
)

func TestChainCircuit(t *testing.T) {
	cases := []struct {
		name      string
		pred      amoebot.Direction
		succ      amoebot.Direction
		connected bool
		wantPred  int
		wantSucc  int
		wantChain int
	}{
		{"connected", amoebot.W, amoebot.E, true, 3*4 + 1, 3*4 + 1, 3*4 + 1},
		{"split", amoebot.W, amoebot.E, false, 3*4 + 1, 0*4 + 2, 3*4 + 1},
		{"start", amoebot.None, amoebot.NE, true, -1, 1*4 + 2, 1*4 + 2},
		{"end", amoebot.SW, amoebot.None, false, 4*4 + 1, -1, 4*4 + 1},
		{"alone", amoebot.None, amoebot.None, true, -1, -1, -1},
	}
	for _, tc := range cases {
		pc := amoebot.NewPinConfiguration(4)
		MakeChainCircuit(pc, tc.pred, tc.succ, 1, tc.connected)
		if got := PredSetID(pc, tc.pred, 1); got != tc.wantPred {
			t.Fatalf("%s: PredSetID = %d, want %d", tc.name, got, tc.wantPred)
		}
		if got := SuccSetID(pc, tc.succ, 1); got != tc.wantSucc {
			t.Fatalf("%s: SuccSetID = %d, want %d", tc.name, got, tc.wantSucc)
		}
		if got := ChainPartitionSetID(pc, tc.pred, tc.succ, 1); got != tc.wantChain {
			t.Fatalf("%s: ChainPartitionSetID = %d, want %d", tc.name, got, tc.wantChain)
		}
	}
}

func TestStarPinsMatchAcrossEdges(t *testing.T) {
	const k = 6
	pc := amoebot.NewPinConfiguration(k)
	for _, d := range amoebot.Directions() {
		mine := pc.Pin(StarPin(pc, d, 2, false))
		theirs := pc.Pin(StarPin(pc, d.Opposite(), 2, false))
		if mine.Offset != k-1-theirs.Offset {
			t.Fatalf("star pins on %s/%s do not meet: %d vs %d", d, d.Opposite(), mine.Offset, theirs.Offset)
		}
	}
}

func TestRegionalCircuitSkipsForeignEdges(t *testing.T) {
	pc := amoebot.NewPinConfiguration(4)
	var region [amoebot.NumDirections]bool
	region[amoebot.E] = true
	region[amoebot.SW] = true
	id := GlobalSetID(pc, 1)
	MakeRegionalCircuit(pc, region, 1, id)
	pins := pc.PinsOf(id)
	if len(pins) != 2 {
		t.Fatalf("regional set has %d pins, want 2", len(pins))
	}
	if pc.PartitionSetOf(pc.PinID(amoebot.W, 2)) == id {
		t.Fatalf("W pin joined a circuit restricted to E and SW")
	}
}
