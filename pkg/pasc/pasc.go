package pasc

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

var (
	// ErrInvalidBeep means a participant saw a beep on both or neither of
	// its sets, which only happens when the circuit was built wrongly.
	ErrInvalidBeep = errors.New("pasc: beep on both or neither partition set")
	ErrInvalidInit = errors.New("pasc: invalid initialization")
)

// Cell layout.
var (
	predDir       = bitfield.Dir[amoebot.Direction]{Offset: 0, Sentinel: true}
	succDir       = bitfield.Dir[amoebot.Direction]{Offset: 3, Sentinel: true}
	primaryOff    = bitfield.Uint{Offset: 6, Width: 4}
	secondaryOff  = bitfield.Uint{Offset: 10, Width: 4}
	primarySet    = bitfield.Uint{Offset: 14, Width: 4}
	secondarySet  = bitfield.Uint{Offset: 18, Width: 4}
	active        = bitfield.Bool{Bit: 22}
	becamePassive = bitfield.Bool{Bit: 23}
	lastBit       = bitfield.Bool{Bit: 24}
	cutoffGreater = bitfield.Bool{Bit: 25}

	_ = bitfield.MustDisjoint(predDir, succDir, primaryOff, secondaryOff,
		primarySet, secondarySet, active, becamePassive, lastBit, cutoffGreater)
)

// PASC runs the primary and secondary circuit doubling procedure on a
// directed chain. Each iteration delivers one bit of a participant's rank,
// least significant first. The rank of a participant is the number of
// participants in (leader, self] that were active when the procedure
// started. The leader is the participant without a predecessor.
type PASC struct {
	host amoebot.Host
	cell *bitfield.Cell
}

// New allocates the PASC state on host.
func New(host amoebot.Host) *PASC {
	return &PASC{host: host, cell: host.NewCell("pasc")}
}

// Init prepares one participant. Pins toward the predecessor sit at the two
// offsets; the successor side uses the mirrored offsets. A participant that
// starts passive is only a relay. The leader is always active.
func (p *PASC) Init(pred, succ amoebot.Direction, primaryOffset, secondaryOffset, primary, secondary int, isActive bool) {
	if primaryOffset == secondaryOffset || primary == secondary {
		panic(fmt.Errorf("%w: primary and secondary must differ", ErrInvalidInit))
	}
	if pred == amoebot.None {
		isActive = true
	}
	c := p.cell
	c.Set(0)
	predDir.Set(c, pred)
	succDir.Set(c, succ)
	primaryOff.Set(c, primaryOffset)
	secondaryOff.Set(c, secondaryOffset)
	primarySet.Set(c, primary)
	secondarySet.Set(c, secondary)
	active.Set(c, isActive)
}

// IsLeader reports whether the participant starts the chain.
func (p *PASC) IsLeader() bool { return predDir.Get(p.cell) == amoebot.None }

// IsActive reports whether the participant is still active.
func (p *PASC) IsActive() bool { return active.Get(p.cell) }

// BecamePassive reports whether the last iteration deactivated the participant.
func (p *PASC) BecamePassive() bool { return becamePassive.Get(p.cell) }

// GetReceivedBit returns the rank bit delivered by the last iteration.
func (p *PASC) GetReceivedBit() int {
	if lastBit.Get(p.cell) {
		return 1
	}
	return 0
}

// PrimarySet and SecondarySet return the partition set IDs in use.
func (p *PASC) PrimarySet() int   { return primarySet.Get(p.cell) }
func (p *PASC) SecondarySet() int { return secondarySet.Get(p.cell) }

// Pins returns the four pins of the participant; absent pins are -1.
func (p *PASC) Pins(pc *amoebot.PinConfiguration) (predP, predS, succP, succS int) {
	predP, predS, succP, succS = -1, -1, -1, -1
	if d := predDir.Get(p.cell); d != amoebot.None {
		predP = circuit.PredPin(pc, d, primaryOff.Get(p.cell))
		predS = circuit.PredPin(pc, d, secondaryOff.Get(p.cell))
	}
	if d := succDir.Get(p.cell); d != amoebot.None {
		succP = circuit.SuccPin(pc, d, primaryOff.Get(p.cell))
		succS = circuit.SuccPin(pc, d, secondaryOff.Get(p.cell))
	}
	return
}

// Wire builds the two sets of one PASC unit. An active unit crosses the
// wires, a passive one passes them straight through. The primary set is
// always the one holding the successor primary pin. Absent pins are -1.
func Wire(pc *amoebot.PinConfiguration, predP, predS, succP, succS int, isActive bool, primary, secondary int) {
	if isActive {
		predP, predS = predS, predP
	}
	pc.MakePartitionSet(present(succP, predP), primary)
	pc.MakePartitionSet(present(succS, predS), secondary)
}

func present(pins ...int) []int {
	out := pins[:0:0]
	for _, pin := range pins {
		if pin >= 0 {
			out = append(out, pin)
		}
	}
	return out
}

// SetupPC builds the circuit of the next iteration.
func (p *PASC) SetupPC(pc *amoebot.PinConfiguration) {
	predP, predS, succP, succS := p.Pins(pc)
	Wire(pc, predP, predS, succP, succS, active.Get(p.cell), p.PrimarySet(), p.SecondarySet())
}

// ActivateSend lets the leader beep on its primary set.
func (p *PASC) ActivateSend() {
	if p.IsLeader() {
		p.host.PlannedPinConfiguration().SendBeepOnPartitionSet(p.PrimarySet())
	}
}

// ActivateReceive reads the bit of the finished iteration. A secondary beep
// means bit 1 and turns an active non-leader passive.
func (p *PASC) ActivateReceive() {
	pc := p.host.CurrentPinConfiguration()
	onPrimary := pc.ReceivedBeepOnPartitionSet(p.PrimarySet())
	onSecondary := pc.ReceivedBeepOnPartitionSet(p.SecondarySet())
	bit := Decode(onPrimary, onSecondary)
	c := p.cell
	becamePassive.Set(c, false)
	lastBit.Set(c, bit)
	if bit && active.Get(c) && !p.IsLeader() {
		active.Set(c, false)
		becamePassive.Set(c, true)
	}
}

// Decode turns the two received flags of a PASC unit into a bit.
func Decode(onPrimary, onSecondary bool) bool {
	if onPrimary == onSecondary {
		panic(fmt.Errorf("%w: primary=%v secondary=%v", ErrInvalidBeep, onPrimary, onSecondary))
	}
	return onSecondary
}

// SetupCutoffCircuit splits the chain at every active non-leader. Such a
// participant keeps its predecessor pins in the primary set and its
// successor pins in the secondary set; everyone else merges all pins into
// the primary set.
func (p *PASC) SetupCutoffCircuit(pc *amoebot.PinConfiguration) {
	predP, predS, succP, succS := p.Pins(pc)
	if active.Get(p.cell) && !p.IsLeader() {
		pc.MakePartitionSet(present(predP, predS), p.PrimarySet())
		pc.MakePartitionSet(present(succP, succS), p.SecondarySet())
		return
	}
	pc.MakePartitionSet(present(predP, predS, succP, succS), p.PrimarySet())
	pc.MakePartitionSet(nil, p.SecondarySet())
}

// SendCutoffBeep lets every active non-leader beep toward its successor.
func (p *PASC) SendCutoffBeep() {
	if active.Get(p.cell) && !p.IsLeader() {
		p.host.PlannedPinConfiguration().SendBeepOnPartitionSet(p.SecondarySet())
	}
}

// ReceiveCutoffBeep reports whether the rank is at least 2^k after k
// completed iterations: either the participant is still active or an
// active participant sits between it and the leader.
func (p *PASC) ReceiveCutoffBeep() bool {
	pc := p.host.CurrentPinConfiguration()
	greater := pc.ReceivedBeepOnPartitionSet(p.PrimarySet()) ||
		(active.Get(p.cell) && !p.IsLeader())
	cutoffGreater.Set(p.cell, greater)
	return greater
}

// CutoffGreater returns the result of the last cutoff round.
func (p *PASC) CutoffGreater() bool {
	return cutoffGreater.Get(p.cell)
}
