package leader

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

// Cell layout shared by both variants.
var (
	candidate       = bitfield.Bool{Bit: 0}
	phase2Candidate = bitfield.Bool{Bit: 1}
	heads           = bitfield.Bool{Bit: 2}
	heardHeads      = bitfield.Bool{Bit: 3}
	heardTails      = bitfield.Bool{Bit: 4}
	firstPhase      = bitfield.Bool{Bit: 5}
	finished        = bitfield.Bool{Bit: 6}
	regionDone      = bitfield.Bool{Bit: 7}
	round           = bitfield.Enum[step]{Offset: 8, Width: 2}
	kappa           = bitfield.Uint{Offset: 10, Width: 6}
	repetitions     = bitfield.Uint{Offset: 16, Width: 6}
	offset          = bitfield.Uint{Offset: 22, Width: 4}
	syncOffset      = bitfield.Uint{Offset: 26, Width: 4}

	_ = bitfield.MustDisjoint(candidate, phase2Candidate, heads, heardHeads, heardTails,
		firstPhase, finished, regionDone, round, kappa, repetitions, offset, syncOffset)
)

// MaxKappa is the largest number of second phase repetitions.
var MaxKappa = kappa.Max()

type step uint8

const (
	stepHeads step = iota
	stepTails
	stepContinue
)

// election holds the coin tossing tournament both variants run.
type election struct {
	host amoebot.Host
	cell *bitfield.Cell
}

func (e election) init(isCandidate bool, k, electionOffset int) {
	if k < 0 || k > MaxKappa {
		panic(fmt.Errorf("leader: kappa %d outside [0, %d]", k, MaxKappa))
	}
	c := e.cell
	c.Set(0)
	candidate.Set(c, isCandidate)
	firstPhase.Set(c, true)
	kappa.Set(c, k)
	offset.Set(c, electionOffset)
}

// contender reports whether the particle tosses in the current iteration.
func (e election) contender() bool {
	if firstPhase.Get(e.cell) {
		return candidate.Get(e.cell)
	}
	return phase2Candidate.Get(e.cell)
}

func (e election) electionSet(pc *amoebot.PinConfiguration) int {
	return circuit.GlobalSetID(pc, offset.Get(e.cell))
}

// sendHeads starts an iteration: contenders toss and HEADS beeps.
func (e election) sendHeads(pc *amoebot.PinConfiguration) {
	c := e.cell
	if !firstPhase.Get(c) {
		phase2Candidate.Set(c, candidate.Get(c))
	}
	if !e.contender() {
		return
	}
	h := e.host.Rand().IntN(2) == 0
	heads.Set(c, h)
	if h {
		pc.SendBeepOnPartitionSet(e.electionSet(pc))
	}
}

func (e election) sendTails(pc *amoebot.PinConfiguration) {
	if e.contender() && !heads.Get(e.cell) {
		pc.SendBeepOnPartitionSet(e.electionSet(pc))
	}
}

func (e election) heard() bool {
	pc := e.host.CurrentPinConfiguration()
	return pc.ReceivedBeepOnPartitionSet(e.electionSet(pc))
}

// decide ends an iteration. TAILS contenders that heard HEADS withdraw. The
// first phase repeats until an iteration shows a single outcome; the second
// phase then runs at most kappa repetitions and stops at the first one that
// shows a single outcome.
func (e election) decide() {
	c := e.cell
	if e.contender() && !heads.Get(c) && heardHeads.Get(c) {
		candidate.Set(c, false)
		phase2Candidate.Set(c, false)
	}
	if firstPhase.Get(c) {
		if !(heardHeads.Get(c) && heardTails.Get(c)) {
			firstPhase.Set(c, false)
			repetitions.Set(c, 0)
			if kappa.Get(c) == 0 {
				regionDone.Set(c, true)
			}
		}
		return
	}
	repetitions.Inc(c)
	if !(heardHeads.Get(c) && heardTails.Get(c)) || repetitions.Get(c) >= kappa.Get(c) {
		regionDone.Set(c, true)
	}
}

func (e election) isLeader() bool {
	return finished.Get(e.cell) && candidate.Get(e.cell)
}

// LeaderElection elects a leader among the candidates of a connected
// structure over one global circuit. Every iteration takes two rounds: the
// contenders that tossed HEADS beep, then those that tossed TAILS. The
// result holds with high probability only; two leaders may survive.
type LeaderElection struct {
	election
}

// New allocates the election state on host.
func New(host amoebot.Host) *LeaderElection {
	return &LeaderElection{election{host: host, cell: host.NewCell("leader_election")}}
}

// Init resets the election. kappa bounds the second phase and must lie in
// [0, MaxKappa].
func (l *LeaderElection) Init(isCandidate bool, kappa, electionOffset int) {
	l.init(isCandidate, kappa, electionOffset)
}

// SetupPC joins the global circuit.
func (l *LeaderElection) SetupPC(pc *amoebot.PinConfiguration) {
	o := offset.Get(l.cell)
	circuit.MakeGlobalCircuit(pc, o, circuit.GlobalSetID(pc, o))
}

// ActivateSend tosses a coin and beeps the outcome.
func (l *LeaderElection) ActivateSend() {
	pc := l.host.PlannedPinConfiguration()
	switch round.Get(l.cell) {
	case stepHeads:
		l.sendHeads(pc)
	case stepTails:
		l.sendTails(pc)
	}
}

// ActivateReceive withdraws candidates that lost the toss.
func (l *LeaderElection) ActivateReceive() {
	c := l.cell
	if finished.Get(c) {
		return
	}
	switch round.Get(c) {
	case stepHeads:
		heardHeads.Set(c, l.heard())
		round.Set(c, stepTails)
	case stepTails:
		heardTails.Set(c, l.heard())
		l.decide()
		round.Set(c, stepHeads)
		if regionDone.Get(c) {
			finished.Set(c, true)
		}
	}
}

// IsFinished reports whether the election has ended.
func (l *LeaderElection) IsFinished() bool { return finished.Get(l.cell) }

// IsLeader reports whether the particle won. Only valid once finished.
func (l *LeaderElection) IsLeader() bool { return l.isLeader() }

// IsCandidate reports whether the particle has not withdrawn yet.
func (l *LeaderElection) IsCandidate() bool { return candidate.Get(l.cell) }

// Repetitions returns the number of second phase iterations run so far.
func (l *LeaderElection) Repetitions() int { return repetitions.Get(l.cell) }
