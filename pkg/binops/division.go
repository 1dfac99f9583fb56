package binops

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	divR         = bitfield.Bool{Bit: 10}
	divB         = bitfield.Bool{Bit: 11}
	divQ         = bitfield.Bool{Bit: 12}
	divD         = bitfield.Bool{Bit: 13}
	divMarker    = bitfield.Bool{Bit: 14}
	divBorrow    = bitfield.Bool{Bit: 15}
	divPhase     = bitfield.Enum[divStep]{Offset: 16, Width: 4}
	divNegative  = bitfield.Bool{Bit: 20}
	divFinished  = bitfield.Bool{Bit: 21}
	divByZero    = bitfield.Bool{Bit: 22}
	divDividendA = bitfield.Bool{Bit: 23}

	_ = bitfield.MustDisjoint(predDir, succDir, pinOffset, divR, divB, divQ, divD, divMarker,
		divBorrow, divPhase, divNegative, divFinished, divByZero, divDividendA)
)

type divStep uint8

const (
	divCheckZero divStep = iota
	divCheckAligned
	divShiftLeft
	divMarkerUp
	divSubtract
	divReportBorrow
	divCommit
	divShiftRight
	divMarkerDown
)

// Division computes q = a / b and r = a mod b by restoring division. The
// divisor is first shifted toward the end until its top bit is set while a
// marker counts the shifts. Then, for every shift position from the marker
// down to the start, b is subtracted from the running remainder if it fits
// and the quotient bit at the marker records the outcome.
//
// A zero divisor is detected in the first round and ends the operation
// with DivisionByZero set.
type Division struct {
	chain
}

// NewDivision allocates the division state on host.
func NewDivision(host amoebot.Host) *Division {
	return newDivision(host, host.NewCell("division"))
}

func newDivision(host amoebot.Host, cell *bitfield.Cell) *Division {
	return &Division{chain{host: host, cell: cell}}
}

// Init sets the chain neighbors, the dividend bit and the divisor bit.
func (v *Division) Init(pred, succ amoebot.Direction, offset int, a, b bool) {
	v.init(pred, succ, offset)
	divR.Set(v.cell, a)
	divDividendA.Set(v.cell, a)
	divB.Set(v.cell, b)
	divMarker.Set(v.cell, pred == amoebot.None)
}

func (v *Division) borrowOut() bool {
	r, b := divR.Get(v.cell), divB.Get(v.cell)
	return (!r && b) || (r == b && divBorrow.Get(v.cell))
}

// SetupPC prepares the circuits of the current step.
func (v *Division) SetupPC(pc *amoebot.PinConfiguration) {
	switch divPhase.Get(v.cell) {
	case divShiftLeft, divMarkerUp, divShiftRight, divMarkerDown:
		v.setupSplit(pc, false)
	case divSubtract:
		v.setupSplit(pc, divR.Get(v.cell) == divB.Get(v.cell))
	default:
		v.setupFull(pc)
	}
}

// ActivateSend runs the send half of the current step.
func (v *Division) ActivateSend() {
	c := v.cell
	switch divPhase.Get(c) {
	case divCheckZero:
		if divB.Get(c) {
			v.beepChain()
		}
	case divCheckAligned:
		if v.isEnd() && divB.Get(c) {
			v.beepChain()
		}
	case divShiftLeft:
		if divB.Get(c) {
			v.beepSucc()
		}
	case divMarkerUp:
		if divMarker.Get(c) {
			v.beepSucc()
		}
	case divSubtract:
		if !divR.Get(c) && divB.Get(c) {
			v.beepSucc()
		}
	case divReportBorrow:
		if v.isEnd() && v.borrowOut() {
			v.beepChain()
		}
	case divCommit:
		if divMarker.Get(c) && v.isStart() {
			v.beepChain()
		}
	case divShiftRight:
		if divB.Get(c) {
			v.beepPred()
		}
	case divMarkerDown:
		if divMarker.Get(c) {
			v.beepPred()
		}
	}
}

// ActivateReceive runs the receive half of the current step.
func (v *Division) ActivateReceive() {
	c := v.cell
	if divFinished.Get(c) {
		return
	}
	switch divPhase.Get(c) {
	case divCheckZero:
		if !v.heardChain() {
			divByZero.Set(c, true)
			divFinished.Set(c, true)
			return
		}
		divPhase.Set(c, divCheckAligned)
	case divCheckAligned:
		if v.heardChain() {
			divPhase.Set(c, divSubtract)
		} else {
			divPhase.Set(c, divShiftLeft)
		}
	case divShiftLeft:
		divB.Set(c, v.heardPred())
		divPhase.Set(c, divMarkerUp)
	case divMarkerUp:
		divMarker.Set(c, v.heardPred())
		divPhase.Set(c, divCheckAligned)
	case divSubtract:
		borrow := v.heardPred()
		divBorrow.Set(c, borrow)
		divD.Set(c, divR.Get(c) != divB.Get(c) != borrow)
		divPhase.Set(c, divReportBorrow)
	case divReportBorrow:
		divNegative.Set(c, v.heardChain())
		divPhase.Set(c, divCommit)
	case divCommit:
		fits := !divNegative.Get(c)
		if fits {
			divR.Set(c, divD.Get(c))
		}
		if divMarker.Get(c) {
			divQ.Set(c, fits)
		}
		if v.heardChain() {
			divFinished.Set(c, true)
			return
		}
		divPhase.Set(c, divShiftRight)
	case divShiftRight:
		divB.Set(c, v.heardSucc())
		divPhase.Set(c, divMarkerDown)
	case divMarkerDown:
		divMarker.Set(c, v.heardSucc())
		divPhase.Set(c, divSubtract)
	}
}

// IsFinished reports whether quotient and remainder are known.
func (v *Division) IsFinished() bool { return divFinished.Get(v.cell) }

// DivisionByZero reports whether the divisor was zero.
func (v *Division) DivisionByZero() bool { return divByZero.Get(v.cell) }

// ResultBit returns the quotient bit.
func (v *Division) ResultBit() bool { return divQ.Get(v.cell) }

// RemainderBit returns the particle's bit of the remainder.
func (v *Division) RemainderBit() bool { return divR.Get(v.cell) }

// Dividend returns the bit of a given to Init.
func (v *Division) Dividend() bool { return divDividendA.Get(v.cell) }
