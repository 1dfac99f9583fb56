package shape

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

// Broadcasts and neighbor exchanges use offset 0 in rounds of their own.
const broadcastOffset = 0

type step uint8

const (
	stepCompare step = iota
	stepExchange
	stepBroadcast
	stepDone
)

var (
	width       = bitfield.Uint{Offset: 0, Width: 8}
	height      = bitfield.Uint{Offset: 8, Width: 8}
	side        = bitfield.Dir[amoebot.Direction]{Offset: 16}
	current     = bitfield.Enum[step]{Offset: 19, Width: 2}
	secondPass  = bitfield.Bool{Bit: 21}
	qualifies   = bitfield.Bool{Bit: 22}
	corner      = bitfield.Bool{Bit: 23}
	success     = bitfield.Bool{Bit: 24}
	predQual    = bitfield.Bool{Bit: 25}
	succQual    = bitfield.Bool{Bit: 26}
	shapeFinish = bitfield.Bool{Bit: 27}

	_ = bitfield.MustDisjoint(width, height, side, current, secondPass, qualifies,
		corner, success, predQual, succQual, shapeFinish)
)

// MaxSide is the longest parallelogram side Parallelogram accepts.
var MaxSide = width.Max()

// Parallelogram checks whether the structure contains a parallelogram with
// w particles along dir and h particles along dir rotated by 60 degrees. A
// particle qualifies if w particles start at it in direction dir; it is a
// corner if h qualifying particles start at it in the rotated direction.
type Parallelogram struct {
	host amoebot.Host
	cell *bitfield.Cell
	cmp  *LineCompare
}

// NewParallelogram allocates the parallelogram state on host.
func NewParallelogram(host amoebot.Host) *Parallelogram {
	return &Parallelogram{host: host, cell: host.NewCell("parallelogram"), cmp: NewLineCompare(host)}
}

// Init sets the side lengths and the direction of the base.
func (p *Parallelogram) Init(w, h int, dir amoebot.Direction) {
	if w < 1 || h < 1 || w > MaxSide || h > MaxSide || !dir.IsCardinal() {
		panic(fmt.Errorf("shape: invalid parallelogram %dx%d along %s", w, h, dir))
	}
	c := p.cell
	c.Set(0)
	width.Set(c, w)
	height.Set(c, h)
	side.Set(c, dir)
	current.Set(c, stepCompare)
	p.cmp.Init(p.nbr(dir), p.nbr(dir.Opposite()), w-1, true)
}

func (p *Parallelogram) nbr(d amoebot.Direction) amoebot.Direction {
	if p.host.HasNeighborAt(d) {
		return d
	}
	return amoebot.None
}

func (p *Parallelogram) up() amoebot.Direction { return side.Get(p.cell).Rotate60(1) }

// SetupPC connects the rows and columns of the candidate.
func (p *Parallelogram) SetupPC(pc *amoebot.PinConfiguration) {
	switch current.Get(p.cell) {
	case stepCompare:
		p.cmp.SetupPC(pc)
	case stepBroadcast:
		circuit.MakeGlobalCircuit(pc, broadcastOffset, circuit.GlobalSetID(pc, broadcastOffset))
	}
}

// ActivateSend reports missing particles to the corner.
func (p *Parallelogram) ActivateSend() {
	c := p.cell
	pc := p.host.PlannedPinConfiguration()
	switch current.Get(c) {
	case stepCompare:
		p.cmp.ActivateSend()
	case stepExchange:
		if !qualifies.Get(c) {
			return
		}
		for _, d := range []amoebot.Direction{p.up(), p.up().Opposite()} {
			if p.host.HasNeighborAt(d) {
				pc.SendBeepOnPartitionSet(pc.PinID(d, broadcastOffset))
			}
		}
	case stepBroadcast:
		if corner.Get(c) {
			pc.SendBeepOnPartitionSet(circuit.GlobalSetID(pc, broadcastOffset))
		}
	}
}

// ActivateReceive clears corners whose shape is incomplete.
func (p *Parallelogram) ActivateReceive() {
	c := p.cell
	pc := p.host.CurrentPinConfiguration()
	switch current.Get(c) {
	case stepCompare:
		p.cmp.ActivateReceive()
		if !p.cmp.IsFinished() {
			return
		}
		if !secondPass.Get(c) {
			qualifies.Set(c, p.cmp.AtLeast())
			current.Set(c, stepExchange)
			return
		}
		corner.Set(c, qualifies.Get(c) && p.cmp.AtLeast())
		current.Set(c, stepBroadcast)
	case stepExchange:
		heard := func(d amoebot.Direction) bool {
			return p.host.HasNeighborAt(d) && pc.ReceivedBeepOnPin(pc.PinID(d, pc.PinsPerEdge()-1-broadcastOffset))
		}
		predQual.Set(c, heard(p.up()))
		succQual.Set(c, heard(p.up().Opposite()))
		pred, succ := amoebot.None, amoebot.None
		if predQual.Get(c) {
			pred = p.up()
		}
		if succQual.Get(c) {
			succ = p.up().Opposite()
		}
		secondPass.Set(c, true)
		current.Set(c, stepCompare)
		p.cmp.Init(pred, succ, height.Get(c)-1, qualifies.Get(c))
	case stepBroadcast:
		success.Set(c, pc.ReceivedBeepOnPartitionSet(circuit.GlobalSetID(pc, broadcastOffset)))
		shapeFinish.Set(c, true)
		current.Set(c, stepDone)
	}
}

// IsFinished reports whether every corner has been decided.
func (p *Parallelogram) IsFinished() bool { return shapeFinish.Get(p.cell) }

// Succeeded reports whether some particle is a corner of the parallelogram.
func (p *Parallelogram) Succeeded() bool { return shapeFinish.Get(p.cell) && success.Get(p.cell) }

// IsCorner reports whether the parallelogram fits with this particle at
// the corner where both sides start.
func (p *Parallelogram) IsCorner() bool { return corner.Get(p.cell) }
