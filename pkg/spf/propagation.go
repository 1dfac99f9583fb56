package spf

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
	"github.com/OpenTraceLab/amoebot/pkg/leader"
	"github.com/OpenTraceLab/amoebot/pkg/pasc"
)

// Pin offsets of the propagation. Line channels and rank chains share
// offsets 0 and 1 but never run in the same round.
const (
	towardOffset = 0
	awayOffset   = 1
	portalOffset = 2
	groupOffset  = 2
	syncOffset   = 3
)

type propPhase uint8

const (
	propVisibility propPhase = iota
	propRank
	propRankCheck
	propAttach
	propElect
	propRoute
	propDone
)

var (
	portal      = bitfield.Bool{Bit: 0}
	propRegion  = bitfield.Bits{Offset: 1, Width: 6}
	portalAxis  = bitfield.Uint{Offset: 7, Width: 2}
	propCurrent = bitfield.Enum[propPhase]{Offset: 9, Width: 3}
	visFirst    = bitfield.Dir[amoebot.Direction]{Offset: 12}
	visSecond   = bitfield.Dir[amoebot.Direction]{Offset: 15}
	distCmp     = bitfield.Enum[amoebot.Comparison]{Offset: 18, Width: 2}
	propParent  = bitfield.Dir[amoebot.Direction]{Offset: 20}
	propDoneBit = bitfield.Bool{Bit: 23}
	kappaField  = bitfield.Uint{Offset: 24, Width: 6}

	_ = bitfield.MustDisjoint(portal, propRegion, portalAxis, propCurrent, visFirst,
		visSecond, distCmp, propParent, propDoneBit, kappaField)
)

// Neighbor cell.
var (
	portalNbr = bitfield.Bits{Offset: 0, Width: 6}
	attached  = bitfield.Bits{Offset: 6, Width: 6}
)

// Propagation extends a portal, a line of source particles along one axis,
// into a shortest path forest over its region. A particle that sees the
// portal along one of the two other axes walks straight toward it; when it
// sees the portal along both, the two distances are compared bit by bit
// and ties go to the first axis. Each connected group of particles that
// sees the portal along neither axis elects an entry next to the visible
// part and grows a shortest path forest from it. The election may leave
// several entries; each then roots a tree of its own. All groups finish in
// the same round.
type Propagation struct {
	host  amoebot.Host
	cell  *bitfield.Cell
	nbrs  *bitfield.Cell
	ranks [2]*pasc.PASC
	elect *leader.SyncLeaderElection
	route *Forest
}

// NewPropagation allocates the propagation state and its subroutines on host.
func NewPropagation(host amoebot.Host) *Propagation {
	return &Propagation{
		host:  host,
		cell:  host.NewCell("propagation"),
		nbrs:  host.NewCell("propagation_nbrs"),
		ranks: [2]*pasc.PASC{pasc.New(host), pasc.New(host)},
		elect: leader.NewSync(host),
		route: NewForest(host),
	}
}

// Init prepares the particle. Portal particles must form a straight line
// along axis within a connected, hole-free region. kappa is passed to the
// entry election.
func (p *Propagation) Init(isPortal bool, axis int, inRegion [amoebot.NumDirections]bool, kappa int) {
	if k := p.host.PinsPerEdge(); k < 8 {
		panic(fmt.Errorf("spf: propagation needs 8 pins per edge, have %d", k))
	}
	if axis < 0 || axis > 2 {
		panic(fmt.Errorf("spf: invalid portal axis %d", axis))
	}
	c := p.cell
	c.Set(0)
	p.nbrs.Set(0)
	portal.Set(c, isPortal)
	portalAxis.Set(c, axis)
	for _, d := range amoebot.Directions() {
		propRegion.Set(c, int(d), inRegion[d])
	}
	visFirst.Set(c, amoebot.None)
	visSecond.Set(c, amoebot.None)
	propParent.Set(c, amoebot.None)
	kappaField.Set(c, kappa)
	propCurrent.Set(c, propVisibility)
}

func (p *Propagation) in(d amoebot.Direction) bool {
	return d.IsCardinal() && propRegion.Get(p.cell, int(d))
}

func (p *Propagation) orNone(d amoebot.Direction) amoebot.Direction {
	if p.in(d) {
		return d
	}
	return amoebot.None
}

// lineAxis returns the line direction of the first (0) or second (1)
// axis crossing the portal.
func (p *Propagation) lineAxis(i int) amoebot.Direction {
	return amoebot.Cardinal((portalAxis.Get(p.cell) + 1 + i) % 3)
}

func (p *Propagation) vis(i int) amoebot.Direction {
	if i == 0 {
		return visFirst.Get(p.cell)
	}
	return visSecond.Get(p.cell)
}

func (p *Propagation) setVis(i int, d amoebot.Direction) {
	if i == 0 {
		visFirst.Set(p.cell, d)
		return
	}
	visSecond.Set(p.cell, d)
}

// IsVisible reports whether the portal lies on a straight line inside the
// region.
func (p *Propagation) IsVisible() bool {
	return p.vis(0) != amoebot.None || p.vis(1) != amoebot.None
}

// attachedToPortal reports whether the particle already has its route:
// portal and visible particles.
func (p *Propagation) attachedToPortal() bool {
	return portal.Get(p.cell) || p.IsVisible()
}

// lineSets builds the two channels of one line axis. A portal particle
// cuts the line and feeds each half from its own end.
func (p *Propagation) lineSets(pc *amoebot.PinConfiguration, u amoebot.Direction) {
	opp := u.Opposite()
	if portal.Get(p.cell) {
		circuit.MakeChainCircuit(pc, p.orNone(opp), amoebot.None, towardOffset, true)
		circuit.MakeChainCircuit(pc, amoebot.None, p.orNone(u), awayOffset, true)
		return
	}
	circuit.MakeChainCircuit(pc, p.orNone(opp), p.orNone(u), towardOffset, true)
	circuit.MakeChainCircuit(pc, p.orNone(opp), p.orNone(u), awayOffset, true)
}

func (p *Propagation) lineSet(pc *amoebot.PinConfiguration, u amoebot.Direction, offset int) int {
	opp := u.Opposite()
	if portal.Get(p.cell) {
		if offset == towardOffset {
			return circuit.PredSetID(pc, p.orNone(opp), offset)
		}
		return circuit.SuccSetID(pc, p.orNone(u), offset)
	}
	return circuit.ChainPartitionSetID(pc, p.orNone(opp), p.orNone(u), offset)
}

func (p *Propagation) syncSet(pc *amoebot.PinConfiguration) int {
	return circuit.GlobalSetID(pc, syncOffset)
}

// SetupPC sets up the circuit of the current phase.
func (p *Propagation) SetupPC(pc *amoebot.PinConfiguration) {
	c := p.cell
	switch propCurrent.Get(c) {
	case propVisibility:
		for i := 0; i < 2; i++ {
			p.lineSets(pc, p.lineAxis(i))
		}
	case propRank:
		for i, r := range p.ranks {
			if p.vis(i) != amoebot.None {
				r.SetupPC(pc)
			}
		}
	case propRankCheck, propRoute:
		if propCurrent.Get(c) == propRoute && !p.attachedToPortal() {
			p.route.SetupPC(pc)
		}
		circuit.MakeGlobalCircuit(pc, syncOffset, p.syncSet(pc))
	case propElect:
		p.elect.SetupPC(pc)
	}
}

// ActivateSend runs the send half of the current phase.
func (p *Propagation) ActivateSend() {
	c := p.cell
	pc := p.host.PlannedPinConfiguration()
	switch propCurrent.Get(c) {
	case propVisibility:
		if !portal.Get(c) {
			break
		}
		for i := 0; i < 2; i++ {
			u := p.lineAxis(i)
			for _, o := range []int{towardOffset, awayOffset} {
				if id := p.lineSet(pc, u, o); id >= 0 {
					pc.SendBeepOnPartitionSet(id)
				}
			}
		}
		for _, d := range amoebot.Directions() {
			if p.in(d) {
				pc.SendBeepOnPartitionSet(pc.PinID(d, portalOffset))
			}
		}
	case propRank:
		for i, r := range p.ranks {
			if p.vis(i) != amoebot.None {
				r.ActivateSend()
			}
		}
	case propRankCheck:
		if p.ranks[0].BecamePassive() || p.ranks[1].BecamePassive() {
			pc.SendBeepOnPartitionSet(p.syncSet(pc))
		}
	case propAttach:
		if p.attachedToPortal() {
			for _, d := range amoebot.Directions() {
				if p.in(d) {
					pc.SendBeepOnPartitionSet(pc.PinID(d, portalOffset))
				}
			}
		}
	case propElect:
		p.elect.ActivateSend()
	case propRoute:
		if !p.attachedToPortal() {
			p.route.ActivateSend()
			if !p.route.IsFinished() {
				pc.SendBeepOnPartitionSet(p.syncSet(pc))
			}
		}
	}
}

// ActivateReceive runs the receive half and advances the phase.
func (p *Propagation) ActivateReceive() {
	c := p.cell
	pc := p.host.CurrentPinConfiguration()
	k := pc.PinsPerEdge()
	switch propCurrent.Get(c) {
	case propVisibility:
		if !portal.Get(c) {
			p.receiveVisibility(pc)
		}
		for _, d := range amoebot.Directions() {
			if p.in(d) && pc.ReceivedBeepOnPin(pc.PinID(d, k-1-portalOffset)) {
				portalNbr.Set(p.nbrs, int(d), true)
			}
		}
		p.startRanks()
		propCurrent.Set(c, propRank)
	case propRank:
		for i, r := range p.ranks {
			if p.vis(i) != amoebot.None {
				r.ActivateReceive()
			}
		}
		if p.vis(0) != amoebot.None && p.vis(1) != amoebot.None {
			a, b := p.ranks[0].GetReceivedBit() == 1, p.ranks[1].GetReceivedBit() == 1
			distCmp.Set(c, amoebot.NextComparison(distCmp.Get(c), a, b))
		}
		propCurrent.Set(c, propRankCheck)
	case propRankCheck:
		if pc.ReceivedBeepOnPartitionSet(p.syncSet(pc)) {
			propCurrent.Set(c, propRank)
			return
		}
		p.chooseVisibleParent()
		propCurrent.Set(c, propAttach)
	case propAttach:
		for _, d := range amoebot.Directions() {
			if p.in(d) && pc.ReceivedBeepOnPin(pc.PinID(d, k-1-portalOffset)) {
				attached.Set(p.nbrs, int(d), true)
			}
		}
		p.elect.Init(!p.attachedToPortal() && attached.Any(p.nbrs), kappaField.Get(c),
			p.groupMask(), groupOffset, syncOffset)
		propCurrent.Set(c, propElect)
	case propElect:
		p.elect.ActivateReceive()
		if !p.elect.IsFinished() {
			return
		}
		if !p.attachedToPortal() {
			p.route.Init(p.elect.IsLeader(), p.groupMask(), groupOffset)
		}
		propCurrent.Set(c, propRoute)
	case propRoute:
		if !p.attachedToPortal() && !p.route.IsFinished() {
			p.route.ActivateReceive()
		}
		if pc.ReceivedBeepOnPartitionSet(p.syncSet(pc)) {
			return
		}
		if !p.attachedToPortal() {
			p.chooseGroupParent()
		}
		propDoneBit.Set(c, true)
		propCurrent.Set(c, propDone)
	}
}

func (p *Propagation) receiveVisibility(pc *amoebot.PinConfiguration) {
	for i := 0; i < 2; i++ {
		u := p.lineAxis(i)
		if id := p.lineSet(pc, u, towardOffset); id >= 0 && pc.ReceivedBeepOnPartitionSet(id) {
			p.setVis(i, u)
		}
		if id := p.lineSet(pc, u, awayOffset); id >= 0 && pc.ReceivedBeepOnPartitionSet(id) {
			p.setVis(i, u.Opposite())
		}
	}
}

// startRanks sets up one rank chain per visible axis. The particle next
// to the portal leads the chain, so ranks are distances minus one.
func (p *Propagation) startRanks() {
	for i, r := range p.ranks {
		d := p.vis(i)
		if d == amoebot.None {
			continue
		}
		pred := d
		if portalNbr.Get(p.nbrs, int(d)) {
			pred = amoebot.None
		}
		r.Init(pred, p.orNone(d.Opposite()), towardOffset, awayOffset, 2*i, 2*i+1, true)
	}
}

func (p *Propagation) chooseVisibleParent() {
	first, second := p.vis(0), p.vis(1)
	switch {
	case first != amoebot.None && (second == amoebot.None || distCmp.Get(p.cell) != amoebot.Greater):
		propParent.Set(p.cell, first)
	case second != amoebot.None:
		propParent.Set(p.cell, second)
	}
}

// groupMask flags the neighbors on the same side of the visibility split.
func (p *Propagation) groupMask() [amoebot.NumDirections]bool {
	var m [amoebot.NumDirections]bool
	mine := p.attachedToPortal()
	for _, d := range amoebot.Directions() {
		m[d] = p.in(d) && attached.Get(p.nbrs, int(d)) == mine
	}
	return m
}

func (p *Propagation) chooseGroupParent() {
	if !p.route.IsSource() {
		propParent.Set(p.cell, p.route.Parent())
		return
	}
	for _, d := range amoebot.Directions() {
		if attached.Get(p.nbrs, int(d)) {
			propParent.Set(p.cell, d)
			return
		}
	}
}

// IsFinished reports whether every group has its forest.
func (p *Propagation) IsFinished() bool { return propDoneBit.Get(p.cell) }

// IsPortal reports whether the particle lies on the source portal.
func (p *Propagation) IsPortal() bool { return portal.Get(p.cell) }

// IsEntry reports whether the particle was elected to connect a group of
// hidden particles.
func (p *Propagation) IsEntry() bool {
	return !p.attachedToPortal() && p.route.IsSource()
}

// Parent returns the next particle toward the portal, None on the portal.
func (p *Propagation) Parent() amoebot.Direction { return propParent.Get(p.cell) }
