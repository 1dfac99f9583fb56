package binops

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

// Mode selects the operation BinOps runs.
type Mode uint8

const (
	ModeNone Mode = iota
	ModeMSB
	ModeComp
	ModeAdd
	ModeSub
	ModeMult
	ModeDiv
)

var modeNames = map[Mode]string{
	ModeNone: "NONE",
	ModeMSB:  "MSB",
	ModeComp: "COMP",
	ModeAdd:  "ADD",
	ModeSub:  "SUB",
	ModeMult: "MULT",
	ModeDiv:  "DIV",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode maps a mode name to its value.
func ParseMode(name string) (Mode, error) {
	for m, n := range modeNames {
		if n == name && m != ModeNone {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("binops: unknown mode %q", name)
}

var mode = bitfield.Enum[Mode]{Offset: 29, Width: 3}

// BinOps runs one of the chain operations at a time. All six share a
// single cell; the operations use bits 0..28 and the mode sits above them.
type BinOps struct {
	cell *bitfield.Cell
	msb  *MSB
	comp *Comparison
	add  *Addition
	sub  *Addition
	mult *Multiplication
	div  *Division
}

// NewBinOps allocates the shared operation state on host.
func NewBinOps(host amoebot.Host) *BinOps {
	cell := host.NewCell("binops")
	return &BinOps{
		cell: cell,
		msb:  newMSB(host, cell),
		comp: newComparison(host, cell),
		add:  newAddition(host, cell, false),
		sub:  newAddition(host, cell, true),
		mult: newMultiplication(host, cell),
		div:  newDivision(host, cell),
	}
}

// Mode returns the operation set by Init.
func (o *BinOps) Mode() Mode { return mode.Get(o.cell) }

// Init selects the operation and initializes it. b is ignored by MSB.
func (o *BinOps) Init(m Mode, pred, succ amoebot.Direction, offset int, a, b bool) {
	switch m {
	case ModeMSB:
		o.msb.Init(pred, succ, offset, a)
	case ModeComp:
		o.comp.Init(pred, succ, offset, a, b)
	case ModeAdd:
		o.add.Init(pred, succ, offset, a, b)
	case ModeSub:
		o.sub.Init(pred, succ, offset, a, b)
	case ModeMult:
		o.mult.Init(pred, succ, offset, a, b)
	case ModeDiv:
		o.div.Init(pred, succ, offset, a, b)
	default:
		panic(fmt.Errorf("binops: cannot initialize mode %s", m))
	}
	mode.Set(o.cell, m)
}

// operation is what every chain operation provides.
type operation interface {
	SetupPC(pc *amoebot.PinConfiguration)
	ActivateSend()
	ActivateReceive()
	IsFinished() bool
}

func (o *BinOps) active() operation {
	switch mode.Get(o.cell) {
	case ModeMSB:
		return o.msb
	case ModeComp:
		return o.comp
	case ModeAdd:
		return o.add
	case ModeSub:
		return o.sub
	case ModeMult:
		return o.mult
	case ModeDiv:
		return o.div
	}
	panic(ErrNotInitialized)
}

// SetupPC delegates to the active operation.
func (o *BinOps) SetupPC(pc *amoebot.PinConfiguration) { o.active().SetupPC(pc) }

// ActivateSend delegates to the active operation.
func (o *BinOps) ActivateSend() { o.active().ActivateSend() }

// ActivateReceive delegates to the active operation.
func (o *BinOps) ActivateReceive() { o.active().ActivateReceive() }

// IsFinished reports completion of the whole operation, including the
// overflow round of additions and subtractions.
func (o *BinOps) IsFinished() bool {
	switch mode.Get(o.cell) {
	case ModeAdd:
		return o.add.IsFinishedOverflow()
	case ModeSub:
		return o.sub.IsFinishedOverflow()
	}
	return o.active().IsFinished()
}

// ResultBit returns c for ADD, SUB and MULT and the quotient bit for DIV.
func (o *BinOps) ResultBit() bool {
	switch mode.Get(o.cell) {
	case ModeAdd:
		return o.add.ResultBit()
	case ModeSub:
		return o.sub.ResultBit()
	case ModeMult:
		return o.mult.ResultBit()
	case ModeDiv:
		return o.div.ResultBit()
	}
	return false
}

// HaveOverflow reports an overflow of addition, subtraction or multiplication.
func (o *BinOps) HaveOverflow() bool {
	switch mode.Get(o.cell) {
	case ModeAdd:
		return o.add.HaveOverflow()
	case ModeSub:
		return o.sub.HaveOverflow()
	case ModeMult:
		return o.mult.HaveOverflow()
	}
	return false
}

// IsMSB reports whether the particle holds the MSB.
func (o *BinOps) IsMSB() bool {
	return mode.Get(o.cell) == ModeMSB && o.msb.IsMSB()
}

// CompResult returns the comparison of the operands.
func (o *BinOps) CompResult() amoebot.Comparison {
	if mode.Get(o.cell) != ModeComp {
		return amoebot.Equal
	}
	return o.comp.Result()
}

// RemainderBit returns the particle's bit of the division remainder.
func (o *BinOps) RemainderBit() bool {
	return mode.Get(o.cell) == ModeDiv && o.div.RemainderBit()
}

// DivisionByZero reports whether the divisor was zero.
func (o *BinOps) DivisionByZero() bool {
	return mode.Get(o.cell) == ModeDiv && o.div.DivisionByZero()
}
