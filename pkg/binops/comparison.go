package binops

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	compA        = bitfield.Bool{Bit: 10}
	compB        = bitfield.Bool{Bit: 11}
	compRound    = bitfield.Uint{Offset: 12, Width: 2}
	compHighest  = bitfield.Bool{Bit: 14}
	compFinished = bitfield.Bool{Bit: 15}
	compResult   = bitfield.Enum[amoebot.Comparison]{Offset: 16, Width: 2}

	_ = bitfield.MustDisjoint(predDir, succDir, pinOffset, compA, compB, compRound,
		compHighest, compFinished, compResult)
)

// Comparison compares the numbers a and b stored on a chain. The highest
// differing bit is located with one backward beep and then announces the
// result in one of two broadcast rounds.
//
//	round 0: split where a != b, the end beeps backward if a == b
//	round 1: broadcast if the highest differing bit has a > b
//	round 2: broadcast if the highest differing bit has a < b
type Comparison struct {
	chain
}

// NewComparison allocates the comparison state on host.
func NewComparison(host amoebot.Host) *Comparison {
	return newComparison(host, host.NewCell("comparison"))
}

func newComparison(host amoebot.Host, cell *bitfield.Cell) *Comparison {
	return &Comparison{chain{host: host, cell: cell}}
}

// Init sets the chain neighbors and the operand bits.
func (c *Comparison) Init(pred, succ amoebot.Direction, offset int, a, b bool) {
	c.init(pred, succ, offset)
	compA.Set(c.cell, a)
	compB.Set(c.cell, b)
}

func (c *Comparison) differs() bool {
	return compA.Get(c.cell) != compB.Get(c.cell)
}

// SetupPC splits the chain at differing bits.
func (c *Comparison) SetupPC(pc *amoebot.PinConfiguration) {
	if compRound.Get(c.cell) == 0 {
		c.setupSplit(pc, !c.differs())
		return
	}
	c.setupFull(pc)
}

// ActivateSend beeps the larger operand of each differing bit.
func (c *Comparison) ActivateSend() {
	switch compRound.Get(c.cell) {
	case 0:
		if c.isEnd() && !c.differs() {
			c.beepPred()
		}
	case 1:
		if compHighest.Get(c.cell) && compA.Get(c.cell) {
			c.beepChain()
		}
	case 2:
		if compHighest.Get(c.cell) && compB.Get(c.cell) {
			c.beepChain()
		}
	}
}

// ActivateReceive stores the comparison result.
func (c *Comparison) ActivateReceive() {
	if compFinished.Get(c.cell) {
		return
	}
	switch compRound.Get(c.cell) {
	case 0:
		compHighest.Set(c.cell, c.differs() && (c.isEnd() || c.heardSucc()))
	case 1:
		if c.heardChain() {
			compResult.Set(c.cell, amoebot.Greater)
		}
	case 2:
		if c.heardChain() {
			compResult.Set(c.cell, amoebot.Less)
		}
		compFinished.Set(c.cell, true)
		return
	}
	compRound.Inc(c.cell)
}

// IsFinished reports whether the result is known.
func (c *Comparison) IsFinished() bool { return compFinished.Get(c.cell) }

// Result compares a with b; it is EQUAL until the operation finished.
func (c *Comparison) Result() amoebot.Comparison { return compResult.Get(c.cell) }
