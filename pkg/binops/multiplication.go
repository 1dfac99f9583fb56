package binops

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	multA        = bitfield.Bool{Bit: 10}
	multB        = bitfield.Bool{Bit: 11}
	multC        = bitfield.Bool{Bit: 12}
	multToken    = bitfield.Bool{Bit: 13}
	multPhase    = bitfield.Enum[multStep]{Offset: 14, Width: 3}
	multCarry    = bitfield.Bool{Bit: 17}
	multBj       = bitfield.Bool{Bit: 18}
	multLast     = bitfield.Bool{Bit: 19}
	multLostA    = bitfield.Bool{Bit: 20}
	multOverflow = bitfield.Bool{Bit: 21}
	multFinished = bitfield.Bool{Bit: 22}

	_ = bitfield.MustDisjoint(predDir, succDir, pinOffset, multA, multB, multC, multToken,
		multPhase, multCarry, multBj, multLast, multLostA, multOverflow, multFinished)
)

type multStep uint8

const (
	multSendB multStep = iota
	multSendLast
	multAdd
	multShiftA
	multMoveToken
	multReportOverflow
)

// Multiplication computes c = a * b mod 2^n by shift and add. A token walks
// from the start to the end of the chain; at position j it publishes b_j,
// a (already shifted j times) is added to c if b_j is set, and a moves one
// position toward the end. The end remembers whether a 1-bit of a has been
// shifted out, which together with a carry leaving the chain means the
// product does not fit.
type Multiplication struct {
	chain
}

// NewMultiplication allocates the multiplication state on host.
func NewMultiplication(host amoebot.Host) *Multiplication {
	return newMultiplication(host, host.NewCell("multiplication"))
}

func newMultiplication(host amoebot.Host, cell *bitfield.Cell) *Multiplication {
	return &Multiplication{chain{host: host, cell: cell}}
}

// Init sets the chain neighbors and the operand bits.
func (m *Multiplication) Init(pred, succ amoebot.Direction, offset int, a, b bool) {
	m.init(pred, succ, offset)
	multA.Set(m.cell, a)
	multB.Set(m.cell, b)
	multToken.Set(m.cell, pred == amoebot.None)
}

// addend is the bit of a added in this iteration.
func (m *Multiplication) addend() bool {
	return multA.Get(m.cell) && multBj.Get(m.cell)
}

// SetupPC prepares the circuits of the current step.
func (m *Multiplication) SetupPC(pc *amoebot.PinConfiguration) {
	switch multPhase.Get(m.cell) {
	case multAdd:
		m.setupSplit(pc, multC.Get(m.cell) != m.addend())
	case multShiftA, multMoveToken:
		m.setupSplit(pc, false)
	default:
		m.setupFull(pc)
	}
}

// ActivateSend runs the send half of the current step.
func (m *Multiplication) ActivateSend() {
	c := m.cell
	switch multPhase.Get(c) {
	case multSendB:
		if multToken.Get(c) && multB.Get(c) {
			m.beepChain()
		}
	case multSendLast:
		if multToken.Get(c) && m.isEnd() {
			m.beepChain()
		}
	case multAdd:
		if multC.Get(c) && m.addend() {
			m.beepSucc()
		}
	case multShiftA:
		if multA.Get(c) {
			m.beepSucc()
		}
	case multMoveToken:
		if multToken.Get(c) {
			m.beepSucc()
		}
	case multReportOverflow:
		if m.isEnd() && multOverflow.Get(c) {
			m.beepChain()
		}
	}
}

// ActivateReceive runs the receive half of the current step.
func (m *Multiplication) ActivateReceive() {
	c := m.cell
	if multFinished.Get(c) {
		return
	}
	switch multPhase.Get(c) {
	case multSendB:
		multBj.Set(c, m.heardChain())
		multPhase.Set(c, multSendLast)
	case multSendLast:
		multLast.Set(c, m.heardChain())
		multPhase.Set(c, multAdd)
	case multAdd:
		carry := m.heardPred()
		old, x := multC.Get(c), m.addend()
		multCarry.Set(c, carry)
		multC.Set(c, old != x != carry)
		if m.isEnd() {
			carryOut := (old && x) || (old != x && carry)
			if carryOut || (multBj.Get(c) && multLostA.Get(c)) {
				multOverflow.Set(c, true)
			}
		}
		if multLast.Get(c) {
			multPhase.Set(c, multReportOverflow)
		} else {
			multPhase.Set(c, multShiftA)
		}
	case multShiftA:
		if m.isEnd() && multA.Get(c) {
			multLostA.Set(c, true)
		}
		multA.Set(c, m.heardPred())
		multPhase.Set(c, multMoveToken)
	case multMoveToken:
		multToken.Set(c, m.heardPred())
		multPhase.Set(c, multSendB)
	case multReportOverflow:
		multOverflow.Set(c, m.heardChain())
		multFinished.Set(c, true)
	}
}

// IsFinished reports whether the product is known.
func (m *Multiplication) IsFinished() bool { return multFinished.Get(m.cell) }

// ResultBit returns the particle's bit of the product.
func (m *Multiplication) ResultBit() bool { return multC.Get(m.cell) }

// HaveOverflow reports whether the product exceeds the chain.
func (m *Multiplication) HaveOverflow() bool { return multOverflow.Get(m.cell) }
