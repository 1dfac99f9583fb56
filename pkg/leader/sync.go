package leader

import (
	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

// SyncLeaderElection runs independent elections in several regions and
// lets them all finish in the same round. The election runs on a regional
// circuit; a global sync circuit carries a third beep per iteration from
// every particle whose region is still busy.
type SyncLeaderElection struct {
	election
	region [amoebot.NumDirections]bool
}

// NewSync allocates the election state on host.
func NewSync(host amoebot.Host) *SyncLeaderElection {
	return &SyncLeaderElection{election: election{host: host, cell: host.NewCell("sync_leader_election")}}
}

// Init configures the particle. region flags the directions whose
// neighbors belong to the same region.
func (l *SyncLeaderElection) Init(isCandidate bool, kappa int, region [amoebot.NumDirections]bool, electionOffset, syncOff int) {
	l.init(isCandidate, kappa, electionOffset)
	syncOffset.Set(l.cell, syncOff)
	l.region = region
}

func (l *SyncLeaderElection) syncSet(pc *amoebot.PinConfiguration) int {
	return circuit.GlobalSetID(pc, syncOffset.Get(l.cell))
}

// SetupPC joins the global circuit.
func (l *SyncLeaderElection) SetupPC(pc *amoebot.PinConfiguration) {
	o := offset.Get(l.cell)
	circuit.MakeRegionalCircuit(pc, l.region, o, circuit.GlobalSetID(pc, o))
	s := syncOffset.Get(l.cell)
	circuit.MakeGlobalCircuit(pc, s, circuit.GlobalSetID(pc, s))
}

// ActivateSend beeps the toss of every candidate.
func (l *SyncLeaderElection) ActivateSend() {
	c := l.cell
	pc := l.host.PlannedPinConfiguration()
	switch round.Get(c) {
	case stepHeads:
		if !regionDone.Get(c) {
			l.sendHeads(pc)
		}
	case stepTails:
		if !regionDone.Get(c) {
			l.sendTails(pc)
		}
	case stepContinue:
		if !regionDone.Get(c) {
			pc.SendBeepOnPartitionSet(l.syncSet(pc))
		}
	}
}

// ActivateReceive applies the toss outcome.
func (l *SyncLeaderElection) ActivateReceive() {
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
		if !regionDone.Get(c) {
			l.decide()
		}
		round.Set(c, stepContinue)
	case stepContinue:
		pc := l.host.CurrentPinConfiguration()
		if !pc.ReceivedBeepOnPartitionSet(l.syncSet(pc)) {
			finished.Set(c, true)
		}
		round.Set(c, stepHeads)
	}
}

// IsFinished reports whether every region has finished.
func (l *SyncLeaderElection) IsFinished() bool { return finished.Get(l.cell) }

// IsLeader reports whether the particle won in its region.
func (l *SyncLeaderElection) IsLeader() bool { return l.isLeader() }

// IsCandidate reports whether the particle has not withdrawn yet.
func (l *SyncLeaderElection) IsCandidate() bool { return candidate.Get(l.cell) }
