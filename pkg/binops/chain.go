package binops

import (
	"errors"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

// ErrNotInitialized is raised when BinOps runs without Init.
var ErrNotInitialized = errors.New("binops: no operation initialized")

// Every operation keeps the chain position in bits 0..9 and its own state
// above, below bit 29. Bits 29..31 belong to BinOps.
const operationBits uint32 = 1<<29 - 1

var (
	predDir   = bitfield.Dir[amoebot.Direction]{Offset: 0}
	succDir   = bitfield.Dir[amoebot.Direction]{Offset: 3}
	pinOffset = bitfield.Uint{Offset: 6, Width: 4}
)

// chain gives an operation access to its position on the chain. The least
// significant bit sits at the start, which has no predecessor.
type chain struct {
	host amoebot.Host
	cell *bitfield.Cell
}

func (ch chain) init(pred, succ amoebot.Direction, offset int) {
	bitfield.ClearMask(ch.cell, operationBits)
	predDir.Set(ch.cell, pred)
	succDir.Set(ch.cell, succ)
	pinOffset.Set(ch.cell, offset)
}

func (ch chain) pred() amoebot.Direction { return predDir.Get(ch.cell) }
func (ch chain) succ() amoebot.Direction { return succDir.Get(ch.cell) }
func (ch chain) offset() int             { return pinOffset.Get(ch.cell) }
func (ch chain) isStart() bool           { return ch.pred() == amoebot.None }
func (ch chain) isEnd() bool             { return ch.succ() == amoebot.None }

// connect wires the chain through this particle or splits it here.
func (ch chain) connect(pc *amoebot.PinConfiguration, connected bool) {
	circuit.MakeChainCircuit(pc, ch.pred(), ch.succ(), ch.offset(), connected)
}

// ensureSet gives a single particle chain a set of its own so that it still
// hears its own beeps.
func (ch chain) ensureSet(pc *amoebot.PinConfiguration) {
	if ch.isStart() && ch.isEnd() {
		pc.MakePartitionSet(nil, ch.loneSet(pc))
	}
}

func (ch chain) loneSet(pc *amoebot.PinConfiguration) int {
	return circuit.PredPin(pc, amoebot.E, ch.offset())
}

func (ch chain) chainSet(pc *amoebot.PinConfiguration) int {
	if ch.isStart() && ch.isEnd() {
		return ch.loneSet(pc)
	}
	return circuit.ChainPartitionSetID(pc, ch.pred(), ch.succ(), ch.offset())
}

func (ch chain) predSet(pc *amoebot.PinConfiguration) int {
	return circuit.PredSetID(pc, ch.pred(), ch.offset())
}

func (ch chain) succSet(pc *amoebot.PinConfiguration) int {
	return circuit.SuccSetID(pc, ch.succ(), ch.offset())
}

// setupFull connects the whole chain.
func (ch chain) setupFull(pc *amoebot.PinConfiguration) {
	ch.connect(pc, true)
	ch.ensureSet(pc)
}

// setupSplit disconnects the chain at this particle.
func (ch chain) setupSplit(pc *amoebot.PinConfiguration, connected bool) {
	ch.connect(pc, connected)
	ch.ensureSet(pc)
}

func (ch chain) planned() *amoebot.PinConfiguration { return ch.host.PlannedPinConfiguration() }
func (ch chain) current() *amoebot.PinConfiguration { return ch.host.CurrentPinConfiguration() }

// beepChain beeps on the set spanning this particle.
func (ch chain) beepChain() {
	pc := ch.planned()
	pc.SendBeepOnPartitionSet(ch.chainSet(pc))
}

// beepPred beeps toward the predecessor; the start has nobody to tell.
func (ch chain) beepPred() {
	if ch.isStart() {
		return
	}
	pc := ch.planned()
	pc.SendBeepOnPartitionSet(ch.predSet(pc))
}

// beepSucc beeps toward the successor; the end has nobody to tell.
func (ch chain) beepSucc() {
	if ch.isEnd() {
		return
	}
	pc := ch.planned()
	pc.SendBeepOnPartitionSet(ch.succSet(pc))
}

func (ch chain) heardChain() bool {
	pc := ch.current()
	return pc.ReceivedBeepOnPartitionSet(ch.chainSet(pc))
}

func (ch chain) heardPred() bool {
	if ch.isStart() {
		return false
	}
	pc := ch.current()
	return pc.ReceivedBeepOnPartitionSet(ch.predSet(pc))
}

func (ch chain) heardSucc() bool {
	if ch.isEnd() {
		return false
	}
	pc := ch.current()
	return pc.ReceivedBeepOnPartitionSet(ch.succSet(pc))
}
