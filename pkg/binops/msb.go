package binops

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	msbA        = bitfield.Bool{Bit: 10}
	msbRound    = bitfield.Uint{Offset: 11, Width: 1}
	msbFinished = bitfield.Bool{Bit: 12}
	msbResult   = bitfield.Bool{Bit: 13}

	_ = bitfield.MustDisjoint(predDir, succDir, pinOffset, msbA, msbRound, msbFinished, msbResult)
)

// MSB finds the most significant 1-bit of the number a on a chain. If a is
// zero the start of the chain is flagged.
type MSB struct {
	chain
}

// NewMSB allocates the MSB state on host.
func NewMSB(host amoebot.Host) *MSB {
	return newMSB(host, host.NewCell("msb"))
}

func newMSB(host amoebot.Host, cell *bitfield.Cell) *MSB {
	return &MSB{chain{host: host, cell: cell}}
}

// Init sets the chain neighbors and the operand bit.
func (m *MSB) Init(pred, succ amoebot.Direction, offset int, a bool) {
	m.init(pred, succ, offset)
	msbA.Set(m.cell, a)
}

// SetupPC splits the chain at every 1-bit.
func (m *MSB) SetupPC(pc *amoebot.PinConfiguration) {
	m.setupSplit(pc, !msbA.Get(m.cell))
}

// ActivateSend lets a zero at the end of the chain search backwards.
func (m *MSB) ActivateSend() {
	if m.isEnd() && !m.isStart() && !msbA.Get(m.cell) {
		m.beepPred()
	}
}

// ActivateReceive marks the highest set bit.
func (m *MSB) ActivateReceive() {
	if msbFinished.Get(m.cell) {
		return
	}
	var result bool
	if msbA.Get(m.cell) {
		result = m.isEnd() || m.heardSucc()
	} else {
		result = m.isStart() && (m.isEnd() || m.heardChain())
	}
	msbResult.Set(m.cell, result)
	msbRound.Set(m.cell, 1)
	msbFinished.Set(m.cell, true)
}

// IsFinished reports whether the MSB is known.
func (m *MSB) IsFinished() bool { return msbFinished.Get(m.cell) }

// IsMSB reports whether the particle holds the highest set bit.
func (m *MSB) IsMSB() bool { return msbResult.Get(m.cell) }
