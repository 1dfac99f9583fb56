package ett

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/pasc"
)

var (
	ErrInvalidNeighbors = errors.New("ett: invalid neighbor list")
	ErrTooFewPins       = errors.New("ett: at least 4 pins per edge required")
)

// Partition sets 12 and 13 carry the end of the tour at the split node.
const (
	sumPrimarySet   = 12
	sumSecondarySet = 13
)

// State cell layout.
var (
	neighbors     = bitfield.Bits{Offset: 0, Width: 6}
	markedDir     = bitfield.Dir[amoebot.Direction]{Offset: 6}
	firstDir      = bitfield.Dir[amoebot.Direction]{Offset: 9}
	split         = bitfield.Bool{Bit: 12}
	active        = bitfield.Bits{Offset: 13, Width: 6}
	becamePassive = bitfield.Bits{Offset: 19, Width: 6}
	finished      = bitfield.Bool{Bit: 25}
	termRound     = bitfield.Bool{Bit: 26}
	iteration     = bitfield.Uint{Offset: 27, Width: 5}

	_ = bitfield.MustDisjoint(neighbors, markedDir, firstDir, split, active,
		becamePassive, finished, termRound, iteration)
)

// Result cell layout: per direction a comparison and two difference bits,
// plus the running sum at the split node.
var (
	sumBit = bitfield.Bool{Bit: 24}
	sumCmp = bitfield.Enum[amoebot.Comparison]{Offset: 25, Width: 2}
)

func cmpField(d amoebot.Direction) bitfield.Enum[amoebot.Comparison] {
	return bitfield.Enum[amoebot.Comparison]{Offset: uint(2 * d), Width: 2}
}

func outDiffField(d amoebot.Direction) bitfield.Bool { return bitfield.Bool{Bit: 12 + uint(d)} }
func inDiffField(d amoebot.Direction) bitfield.Bool  { return bitfield.Bool{Bit: 18 + uint(d)} }

// ETT runs the Euler tour technique on one node of a tree. Every directed
// tree edge is a PASC unit owned by its tail; the tour enters through an
// incoming edge and leaves through the next outgoing edge counter-clockwise.
// The marked edges are counted along the tour, one bit per iteration, and
// every node learns for each incident edge how the prefix count at the end
// of its outgoing edge compares to the one at the end of its incoming edge.
type ETT struct {
	host   amoebot.Host
	state  *bitfield.Cell
	result *bitfield.Cell
}

// New allocates the tour state on host.
func New(host amoebot.Host) *ETT {
	return &ETT{
		host:   host,
		state:  host.NewCell("ett"),
		result: host.NewCell("ett_result"),
	}
}

// Init sets the tree edges of the node in counter-clockwise order, the
// outgoing edge to mark (or None) and whether the tour starts here. Exactly
// one node of the tree must split.
func (e *ETT) Init(nbrs []amoebot.Direction, marked amoebot.Direction, isSplit bool) {
	if err := validate(nbrs, marked); err != nil {
		panic(err)
	}
	if e.host.PinsPerEdge() < 4 {
		panic(fmt.Errorf("%w: have %d", ErrTooFewPins, e.host.PinsPerEdge()))
	}
	s := e.state
	s.Set(0)
	e.result.Set(0)
	for _, d := range nbrs {
		neighbors.Set(s, int(d), true)
	}
	markedDir.Set(s, marked)
	firstDir.Set(s, nbrs[0])
	split.Set(s, isSplit)
	if marked != amoebot.None {
		active.Set(s, int(marked), true)
	}
}

func validate(nbrs []amoebot.Direction, marked amoebot.Direction) error {
	if len(nbrs) == 0 || len(nbrs) > amoebot.NumDirections {
		return fmt.Errorf("%w: %d neighbors", ErrInvalidNeighbors, len(nbrs))
	}
	last := -1
	found := marked == amoebot.None
	for _, d := range nbrs {
		if !d.IsCardinal() {
			return fmt.Errorf("%w: %s", ErrInvalidNeighbors, d)
		}
		dist := nbrs[0].DistanceTo(d)
		if dist <= last {
			return fmt.Errorf("%w: %v is not in counter-clockwise order", ErrInvalidNeighbors, nbrs)
		}
		last = dist
		if d == marked {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: marked edge %s is not a tree edge", ErrInvalidNeighbors, marked)
	}
	return nil
}

func (e *ETT) has(d amoebot.Direction) bool { return neighbors.Get(e.state, int(d)) }

// Neighbors returns the tree edges in counter-clockwise order starting with
// the first edge given to Init.
func (e *ETT) Neighbors() []amoebot.Direction {
	first := firstDir.Get(e.state)
	var out []amoebot.Direction
	for i := 0; i < amoebot.NumDirections; i++ {
		if d := first.Rotate60(i); e.has(d) {
			out = append(out, d)
		}
	}
	return out
}

// prev returns the tree edge before d in counter-clockwise order.
func (e *ETT) prev(d amoebot.Direction) amoebot.Direction {
	for i := 1; i <= amoebot.NumDirections; i++ {
		if p := d.Rotate60(-i); e.has(p) {
			return p
		}
	}
	return d
}

func (e *ETT) last() amoebot.Direction {
	return e.prev(firstDir.Get(e.state))
}

// Pins of the directed edges: the outgoing wire uses offsets 0 and 1, the
// incoming wire the mirrored offsets.
func outP(pc *amoebot.PinConfiguration, d amoebot.Direction) int { return pc.PinID(d, 0) }
func outS(pc *amoebot.PinConfiguration, d amoebot.Direction) int { return pc.PinID(d, 1) }
func inP(pc *amoebot.PinConfiguration, d amoebot.Direction) int {
	return pc.PinID(d, pc.PinsPerEdge()-1)
}
func inS(pc *amoebot.PinConfiguration, d amoebot.Direction) int {
	return pc.PinID(d, pc.PinsPerEdge()-2)
}

func primary(d amoebot.Direction) int   { return 2 * int(d) }
func secondary(d amoebot.Direction) int { return 2*int(d) + 1 }

func (e *ETT) isStart(d amoebot.Direction) bool {
	return split.Get(e.state) && d == firstDir.Get(e.state)
}

// SetupPC wires the ring of units. The split node leaves the link from its
// last incoming edge to its first outgoing edge open and parks the
// incoming wires in the reserved sets.
func (e *ETT) SetupPC(pc *amoebot.PinConfiguration) {
	for _, d := range e.Neighbors() {
		p := e.prev(d)
		predP, predS := inP(pc, p), inS(pc, p)
		if e.isStart(d) {
			predP, predS = -1, -1
		}
		pasc.Wire(pc, predP, predS, outP(pc, d), outS(pc, d),
			active.Get(e.state, int(d)), primary(d), secondary(d))
	}
	if split.Get(e.state) {
		l := e.last()
		pc.MakePartitionSet([]int{inP(pc, l)}, sumPrimarySet)
		pc.MakePartitionSet([]int{inS(pc, l)}, sumSecondarySet)
	}
}

// ActivateSend starts an iteration at the split node, or keeps the
// procedure alive in a termination round.
func (e *ETT) ActivateSend() {
	pc := e.host.PlannedPinConfiguration()
	if termRound.Get(e.state) {
		for _, d := range e.Neighbors() {
			if becamePassive.Get(e.state, int(d)) {
				pc.SendBeepOnPartitionSet(primary(d))
				pc.SendBeepOnPartitionSet(secondary(d))
			}
		}
		return
	}
	if !split.Get(e.state) {
		return
	}
	first := firstDir.Get(e.state)
	if active.Get(e.state, int(first)) {
		pc.SendBeepOnPartitionSet(secondary(first))
	} else {
		pc.SendBeepOnPartitionSet(primary(first))
	}
}

// ActivateReceive processes the previous round.
func (e *ETT) ActivateReceive() {
	pc := e.host.CurrentPinConfiguration()
	if termRound.Get(e.state) {
		e.receiveTermination(pc)
		return
	}
	s, r := e.state, e.result
	for _, d := range e.Neighbors() {
		o := pasc.Decode(pc.ReceivedBeepOnPartitionSet(primary(d)), pc.ReceivedBeepOnPartitionSet(secondary(d)))
		i := inBit(pc, d)
		prevCmp := cmpField(d).Get(r)
		outDiffField(d).Set(r, o != i != (prevCmp == amoebot.Less))
		inDiffField(d).Set(r, o != i != (prevCmp == amoebot.Greater))
		cmpField(d).Set(r, amoebot.NextComparison(prevCmp, o, i))

		becamePassive.Set(s, int(d), false)
		if o && active.Get(s, int(d)) {
			active.Set(s, int(d), false)
			becamePassive.Set(s, int(d), true)
		}
	}
	if split.Get(s) {
		bit := inBit(pc, e.last())
		sumBit.Set(r, bit)
		if bit {
			sumCmp.Set(r, amoebot.Greater)
		}
	}
	iteration.Inc(s)
	termRound.Set(s, true)
}

// inBit reads the parity carried by the incoming wire of d.
func inBit(pc *amoebot.PinConfiguration, d amoebot.Direction) bool {
	onP := pc.ReceivedBeepOnPin(inP(pc, d))
	onS := pc.ReceivedBeepOnPin(inS(pc, d))
	return pasc.Decode(onP, onS)
}

func (e *ETT) receiveTermination(pc *amoebot.PinConfiguration) {
	beeped := false
	for _, d := range e.Neighbors() {
		if pc.ReceivedBeepOnPartitionSet(primary(d)) || pc.ReceivedBeepOnPartitionSet(secondary(d)) {
			beeped = true
		}
	}
	if split.Get(e.state) && (pc.ReceivedBeepOnPartitionSet(sumPrimarySet) || pc.ReceivedBeepOnPartitionSet(sumSecondarySet)) {
		beeped = true
	}
	becamePassive.SetWord(e.state, 0)
	termRound.Set(e.state, false)
	if !beeped {
		finished.Set(e.state, true)
	}
}

// IsFinished reports whether the summation has completed.
func (e *ETT) IsFinished() bool { return finished.Get(e.state) }

// IsTerminationRound reports whether this round ends the summation.
func (e *ETT) IsTerminationRound() bool { return termRound.Get(e.state) }

// Iteration returns the number of completed PASC iterations. Bit i of the
// differences is available right after iteration i+1 completed.
func (e *ETT) Iteration() int { return iteration.Get(e.state) }

// Marked returns the marked outgoing edge or None.
func (e *ETT) Marked() amoebot.Direction { return markedDir.Get(e.state) }

// GetComparisonResult compares the prefix count at the end of the outgoing
// edge d with the one at the end of the incoming edge d, using the bits
// seen so far.
func (e *ETT) GetComparisonResult(d amoebot.Direction) amoebot.Comparison {
	return cmpField(d).Get(e.result)
}

// GetDiffBit returns the latest bit of OUT-IN (outgoing) or IN-OUT.
func (e *ETT) GetDiffBit(d amoebot.Direction, outgoing bool) bool {
	if outgoing {
		return outDiffField(d).Get(e.result)
	}
	return inDiffField(d).Get(e.result)
}

// GetSumBit returns the latest bit of the number of marked edges. Only the
// split node knows it.
func (e *ETT) GetSumBit() bool { return sumBit.Get(e.result) }

// GetSumComparisonResult compares the number of marked edges with 0.
func (e *ETT) GetSumComparisonResult() amoebot.Comparison { return sumCmp.Get(e.result) }
