package circuit

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
)

// PredPin returns the pin a chain uses toward its predecessor.
func PredPin(pc *amoebot.PinConfiguration, pred amoebot.Direction, offset int) int {
	return pc.PinID(pred, offset)
}

// SuccPin returns the pin a chain uses toward its successor. It mirrors the
// predecessor offset so that both ends of an edge pick matching pins.
func SuccPin(pc *amoebot.PinConfiguration, succ amoebot.Direction, offset int) int {
	return pc.PinID(succ, pc.PinsPerEdge()-1-offset)
}

// MakeChainCircuit joins the predecessor and successor pins of a chain into
// one partition set, or splits them into two when connected is false. Set
// IDs are the member pin IDs, the predecessor pin winning when merged.
// Missing directions are skipped.
func MakeChainCircuit(pc *amoebot.PinConfiguration, pred, succ amoebot.Direction, offset int, connected bool) {
	var pins []int
	if pred != amoebot.None {
		pins = append(pins, PredPin(pc, pred, offset))
	}
	if succ != amoebot.None {
		pins = append(pins, SuccPin(pc, succ, offset))
	}
	if len(pins) == 0 {
		return
	}
	if connected {
		pc.MakePartitionSet(pins, pins[0])
		return
	}
	for _, p := range pins {
		pc.MakePartitionSet([]int{p}, p)
	}
}

// ChainPartitionSetID returns the set at the predecessor end of the chain
// segment, falling back to the successor end, or -1 for a lone particle.
func ChainPartitionSetID(pc *amoebot.PinConfiguration, pred, succ amoebot.Direction, offset int) int {
	if id := PredSetID(pc, pred, offset); id >= 0 {
		return id
	}
	return SuccSetID(pc, succ, offset)
}

// PredSetID returns the set holding the predecessor pin or -1.
func PredSetID(pc *amoebot.PinConfiguration, pred amoebot.Direction, offset int) int {
	if pred == amoebot.None {
		return -1
	}
	return pc.PartitionSetOf(PredPin(pc, pred, offset))
}

// SuccSetID returns the set holding the successor pin or -1.
func SuccSetID(pc *amoebot.PinConfiguration, succ amoebot.Direction, offset int) int {
	if succ == amoebot.None {
		return -1
	}
	return pc.PartitionSetOf(SuccPin(pc, succ, offset))
}

// StarPin returns the pin a star circuit uses in direction d: offset on the
// E, NE and NW edges and the mirrored offset on the other three, which makes
// the circuits of adjacent particles meet. Inverting swaps the two halves.
func StarPin(pc *amoebot.PinConfiguration, d amoebot.Direction, offset int, inverted bool) int {
	if (d >= amoebot.W) != inverted {
		return pc.PinID(d, pc.PinsPerEdge()-1-offset)
	}
	return pc.PinID(d, offset)
}

// MakeStarCircuit joins one pin per listed direction into set id. inverted
// may be nil; otherwise inverted[i] applies to dirs[i].
func MakeStarCircuit(pc *amoebot.PinConfiguration, dirs []amoebot.Direction, offset int, inverted []bool, id int) {
	pins := make([]int, 0, len(dirs))
	for i, d := range dirs {
		inv := inverted != nil && inverted[i]
		pins = append(pins, StarPin(pc, d, offset, inv))
	}
	pc.MakePartitionSet(pins, id)
}

// MakeGlobalCircuit connects all six edges at offset into set id. When every
// particle does the same, the set spans the whole connected structure.
func MakeGlobalCircuit(pc *amoebot.PinConfiguration, offset, id int) {
	MakeStarCircuit(pc, amoebot.Directions(), offset, nil, id)
}

// MakeRegionalCircuit connects only the edges whose flag is set, so the
// circuit stops at region borders.
func MakeRegionalCircuit(pc *amoebot.PinConfiguration, region [amoebot.NumDirections]bool, offset, id int) {
	var dirs []amoebot.Direction
	for _, d := range amoebot.Directions() {
		if region[d] {
			dirs = append(dirs, d)
		}
	}
	MakeStarCircuit(pc, dirs, offset, nil, id)
}

// GlobalSetID is the set ID convention for star circuits: the ID of the SE
// pin. It stays clear of the low IDs that ring and PASC circuits reserve.
func GlobalSetID(pc *amoebot.PinConfiguration, offset int) int {
	return StarPin(pc, amoebot.SE, offset, false)
}
