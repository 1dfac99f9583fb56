package binops

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	addA                = bitfield.Bool{Bit: 10}
	addB                = bitfield.Bool{Bit: 11}
	addC                = bitfield.Bool{Bit: 12}
	addCarry            = bitfield.Bool{Bit: 13}
	addRound            = bitfield.Uint{Offset: 14, Width: 2}
	addFinished         = bitfield.Bool{Bit: 16}
	addFinishedOverflow = bitfield.Bool{Bit: 17}
	addOverflow         = bitfield.Bool{Bit: 18}

	_ = bitfield.MustDisjoint(predDir, succDir, pinOffset, addA, addB, addC, addCarry,
		addRound, addFinished, addFinishedOverflow, addOverflow)
)

// Addition computes c = a + b (or a - b for a Subtraction) bit-serially.
//
//	round 0: the chain is split wherever a carry cannot pass; generators
//	         beep toward their successor
//	round 1: the whole chain is connected and the end reports overflow
//
// The result bit is ready after round 0 has been received, the overflow
// flag one round later. Callers that do not need the overflow may stop
// after IsFinished.
type Addition struct {
	chain
	subtract bool
}

// NewAddition allocates the addition state on host.
func NewAddition(host amoebot.Host) *Addition {
	return newAddition(host, host.NewCell("addition"), false)
}

func newAddition(host amoebot.Host, cell *bitfield.Cell, subtract bool) *Addition {
	return &Addition{chain: chain{host: host, cell: cell}, subtract: subtract}
}

// Subtraction computes c = a - b mod 2^n. Its overflow flag is the borrow
// leaving the chain, so it is set exactly when a < b.
type Subtraction struct {
	*Addition
}

// NewSubtraction allocates the subtraction state on host.
func NewSubtraction(host amoebot.Host) *Subtraction {
	return &Subtraction{newAddition(host, host.NewCell("subtraction"), true)}
}

// Init sets the chain neighbors and the operand bits.
func (s *Addition) Init(pred, succ amoebot.Direction, offset int, a, b bool) {
	s.init(pred, succ, offset)
	addA.Set(s.cell, a)
	addB.Set(s.cell, b)
}

// propagates reports whether an incoming carry or borrow passes through.
func (s *Addition) propagates() bool {
	a, b := addA.Get(s.cell), addB.Get(s.cell)
	if s.subtract {
		return a == b
	}
	return a != b
}

// generates reports whether this bit produces a carry or borrow by itself.
func (s *Addition) generates() bool {
	a, b := addA.Get(s.cell), addB.Get(s.cell)
	if s.subtract {
		return !a && b
	}
	return a && b
}

func (s *Addition) carryOut() bool {
	return s.generates() || (s.propagates() && addCarry.Get(s.cell))
}

// SetupPC splits the chain where carries start.
func (s *Addition) SetupPC(pc *amoebot.PinConfiguration) {
	if addRound.Get(s.cell) == 0 {
		s.setupSplit(pc, s.propagates())
		return
	}
	s.setupFull(pc)
}

// ActivateSend beeps the carries.
func (s *Addition) ActivateSend() {
	switch addRound.Get(s.cell) {
	case 0:
		if s.generates() {
			s.beepSucc()
		}
	case 1:
		if s.isEnd() && s.carryOut() {
			s.beepChain()
		}
	}
}

// ActivateReceive computes the result bit.
func (s *Addition) ActivateReceive() {
	switch addRound.Get(s.cell) {
	case 0:
		carry := s.heardPred()
		a, b := addA.Get(s.cell), addB.Get(s.cell)
		addCarry.Set(s.cell, carry)
		addC.Set(s.cell, a != b != carry)
		addFinished.Set(s.cell, true)
	case 1:
		addOverflow.Set(s.cell, s.heardChain())
		addFinishedOverflow.Set(s.cell, true)
	default:
		return
	}
	addRound.Inc(s.cell)
}

// IsFinished reports whether the result bits are known.
func (s *Addition) IsFinished() bool { return addFinished.Get(s.cell) }

// IsFinishedOverflow reports whether the overflow is known.
func (s *Addition) IsFinishedOverflow() bool { return addFinishedOverflow.Get(s.cell) }

// ResultBit returns the particle's bit of the sum.
func (s *Addition) ResultBit() bool { return addC.Get(s.cell) }

// HaveOverflow reports whether the sum exceeds the chain.
func (s *Addition) HaveOverflow() bool { return addOverflow.Get(s.cell) }
