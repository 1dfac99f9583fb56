package spf

import (
	"errors"
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
	"github.com/OpenTraceLab/amoebot/pkg/ett"
)

// ErrNoParent is raised when a reached particle hears no candidate parent.
var ErrNoParent = errors.New("spf: no parent direction found")

// Zone circuits run along a portal in a round of their own and reuse the
// low offsets of the tour.
const (
	upperSet = 14
	lowerSet = 15
)

type phase uint8

const (
	phaseTree phase = iota
	phaseZone
	phaseChildren
	phasePrune
	phaseReport
	phaseDone
)

var (
	isSource    = bitfield.Bool{Bit: 0}
	isDest      = bitfield.Bool{Bit: 1}
	region      = bitfield.Bits{Offset: 2, Width: 6}
	curPhase    = bitfield.Enum[phase]{Offset: 8, Width: 3}
	axis        = bitfield.Uint{Offset: 11, Width: 2}
	parent      = bitfield.Dir[amoebot.Direction]{Offset: 13}
	finished    = bitfield.Bool{Bit: 16}
	success     = bitfield.Bool{Bit: 17}
	pruned      = bitfield.Bool{Bit: 18}
	children    = bitfield.Bits{Offset: 19, Width: 6}
	regionalOff = bitfield.Uint{Offset: 25, Width: 4}

	_ = bitfield.MustDisjoint(isSource, isDest, region, curPhase, axis, parent,
		finished, success, pruned, children, regionalOff)
)

// Counter cell: two bits per direction plus the side of the portal exit.
var exitSide = bitfield.Enum[side]{Offset: 12, Width: 2}

func counterField(d amoebot.Direction) bitfield.Uint {
	return bitfield.Uint{Offset: uint(2 * d), Width: 2}
}

// SPF computes a shortest path tree from one source to a set of
// destinations inside a hole-free region. For each of the three axes the
// portals (maximal lines along the axis) form a tree; a tour over a
// spanning tree of each portal tree tells every portal on which side its
// parent portal lies. A direction pointing to the parent side for both axes
// it crosses leads one step closer to the source. A second tour over the
// resulting tree prunes every branch without a destination.
type SPF struct {
	host     amoebot.Host
	cell     *bitfield.Cell
	counters *bitfield.Cell
	tour     *ett.ETT
}

// New allocates the SPF state and its Euler tour on host.
func New(host amoebot.Host) *SPF {
	return &SPF{
		host:     host,
		cell:     host.NewCell("spf"),
		counters: host.NewCell("spf_counters"),
		tour:     ett.New(host),
	}
}

// Init prepares the particle. inRegion flags the neighbors belonging to the
// same region; the region must be connected, hole-free and contain exactly
// one source. The success broadcast runs on a regional circuit at
// regionalOffset, which must avoid offsets 0, 1, k-2 and k-1.
func (s *SPF) Init(source, destination bool, inRegion [amoebot.NumDirections]bool, regionalOffset int) {
	k := s.host.PinsPerEdge()
	if regionalOffset < 2 || regionalOffset > k-3 {
		panic(fmt.Errorf("spf: regional offset %d collides with the tour pins (k=%d)", regionalOffset, k))
	}
	c := s.cell
	c.Set(0)
	s.counters.Set(0)
	isSource.Set(c, source)
	isDest.Set(c, destination)
	for _, d := range amoebot.Directions() {
		region.Set(c, int(d), inRegion[d])
	}
	regionalOff.Set(c, regionalOffset)
	parent.Set(c, amoebot.None)

	if region.Word(c) == 0 {
		// Alone in the region: nothing to route.
		success.Set(c, source && destination)
		finished.Set(c, true)
		curPhase.Set(c, phaseDone)
		return
	}
	s.startTree(0)
}

func (s *SPF) in(d amoebot.Direction) bool {
	return d.IsCardinal() && region.Get(s.cell, int(d))
}

func (s *SPF) startTree(a int) {
	axis.Set(s.cell, a)
	curPhase.Set(s.cell, phaseTree)
	edges := treeEdges(s.in, a)
	s.tour.Init(edges, edges[0], isSource.Get(s.cell))
}

// SetupPC sets up the circuit of the current phase.
func (s *SPF) SetupPC(pc *amoebot.PinConfiguration) {
	c := s.cell
	switch curPhase.Get(c) {
	case phaseTree, phasePrune:
		s.tour.SetupPC(pc)
	case phaseZone:
		a := axis.Get(c)
		k := pc.PinsPerEdge()
		var upper, lower []int
		if w := frame(amoebot.W, a); s.in(w) {
			upper = append(upper, pc.PinID(w, 0))
			lower = append(lower, pc.PinID(w, 1))
		}
		if e := frame(amoebot.E, a); s.in(e) {
			upper = append(upper, pc.PinID(e, k-1))
			lower = append(lower, pc.PinID(e, k-2))
		}
		pc.MakePartitionSet(upper, upperSet)
		pc.MakePartitionSet(lower, lowerSet)
	case phaseChildren:
		k := pc.PinsPerEdge()
		for _, d := range amoebot.Directions() {
			if s.in(d) {
				pc.MakePartitionSet([]int{pc.PinID(d, 0)}, pc.PinID(d, 0))
				pc.MakePartitionSet([]int{pc.PinID(d, k-1)}, pc.PinID(d, k-1))
			}
		}
	case phaseReport:
		o := regionalOff.Get(c)
		circuit.MakeRegionalCircuit(pc, s.regionMask(), o, circuit.GlobalSetID(pc, o))
	}
}

func (s *SPF) regionMask() [amoebot.NumDirections]bool {
	var m [amoebot.NumDirections]bool
	for _, d := range amoebot.Directions() {
		m[d] = s.in(d)
	}
	return m
}

// ActivateSend runs the send half of the current phase.
func (s *SPF) ActivateSend() {
	c := s.cell
	pc := s.host.PlannedPinConfiguration()
	switch curPhase.Get(c) {
	case phaseTree, phasePrune:
		s.tour.ActivateSend()
	case phaseZone:
		switch exitSide.Get(s.counters) {
		case sideUpper:
			pc.SendBeepOnPartitionSet(upperSet)
		case sideLower:
			pc.SendBeepOnPartitionSet(lowerSet)
		}
	case phaseChildren:
		if p := parent.Get(c); p != amoebot.None {
			pc.SendBeepOnPartitionSet(pc.PinID(p, 0))
		}
	case phaseReport:
		if isSource.Get(c) && success.Get(c) {
			o := regionalOff.Get(c)
			pc.SendBeepOnPartitionSet(circuit.GlobalSetID(pc, o))
		}
	}
}

// ActivateReceive runs the receive half and advances the phase.
func (s *SPF) ActivateReceive() {
	c := s.cell
	pc := s.host.CurrentPinConfiguration()
	switch curPhase.Get(c) {
	case phaseTree:
		s.tour.ActivateReceive()
		if s.tour.IsFinished() {
			s.findExit()
			curPhase.Set(c, phaseZone)
		}
	case phaseZone:
		a := axis.Get(c)
		if pc.ReceivedBeepOnPartitionSet(upperSet) {
			s.count(sideUpper, a)
		}
		if pc.ReceivedBeepOnPartitionSet(lowerSet) {
			s.count(sideLower, a)
		}
		if a < 2 {
			s.startTree(a + 1)
			return
		}
		s.chooseParent()
		curPhase.Set(c, phaseChildren)
	case phaseChildren:
		k := pc.PinsPerEdge()
		for _, d := range amoebot.Directions() {
			if s.in(d) && pc.ReceivedBeepOnPin(pc.PinID(d, k-1)) {
				children.Set(c, int(d), true)
			}
		}
		s.startPrune()
	case phasePrune:
		s.tour.ActivateReceive()
		if !s.tour.IsFinished() {
			return
		}
		if isSource.Get(c) {
			success.Set(c, isDest.Get(c) || s.tour.GetSumComparisonResult() == amoebot.Greater)
		} else if s.tour.GetComparisonResult(parent.Get(c)) != amoebot.Greater {
			pruned.Set(c, true)
		}
		for _, d := range s.Children() {
			if s.tour.GetComparisonResult(d) != amoebot.Less {
				children.Set(c, int(d), false)
			}
		}
		curPhase.Set(c, phaseReport)
	case phaseReport:
		o := regionalOff.Get(c)
		success.Set(c, pc.ReceivedBeepOnPartitionSet(circuit.GlobalSetID(pc, o)))
		if pruned.Get(c) {
			parent.Set(c, amoebot.None)
			children.SetWord(c, 0)
		}
		finished.Set(c, true)
		curPhase.Set(c, phaseDone)
	}
}

// findExit records whether the tree parent of this particle leaves its
// portal, and to which side.
func (s *SPF) findExit() {
	exitSide.Set(s.counters, sideNone)
	if isSource.Get(s.cell) {
		return
	}
	a := axis.Get(s.cell)
	for _, d := range s.tour.Neighbors() {
		if s.tour.GetComparisonResult(d) == amoebot.Greater {
			exitSide.Set(s.counters, sideOf(d, a))
			return
		}
	}
}

func (s *SPF) count(sd side, a int) {
	for _, d := range directionsOn(sd, a) {
		counterField(d).Inc(s.counters)
	}
}

func (s *SPF) chooseParent() {
	if isSource.Get(s.cell) {
		return
	}
	for _, d := range amoebot.Directions() {
		if s.in(d) && counterField(d).Get(s.counters) == 2 {
			parent.Set(s.cell, d)
			return
		}
	}
	panic(fmt.Errorf("%w: counters %012b", ErrNoParent, s.counters.Current()))
}

func (s *SPF) startPrune() {
	c := s.cell
	var edges []amoebot.Direction
	for _, d := range amoebot.Directions() {
		if d == parent.Get(c) || children.Get(c, int(d)) {
			edges = append(edges, d)
		}
	}
	marked := amoebot.None
	if isDest.Get(c) && !isSource.Get(c) {
		marked = parent.Get(c)
	}
	curPhase.Set(c, phasePrune)
	s.tour.Init(edges, marked, isSource.Get(c))
}

// IsFinished reports whether the forest is complete.
func (s *SPF) IsFinished() bool { return finished.Get(s.cell) }

// Succeeded reports whether at least one destination was reached.
func (s *SPF) Succeeded() bool { return finished.Get(s.cell) && success.Get(s.cell) }

// Failed reports whether the run ended without reaching a destination.
func (s *SPF) Failed() bool { return finished.Get(s.cell) && !success.Get(s.cell) }

// Parent returns the next particle on the path to the source, or None for
// the source and for particles outside every destination's path.
func (s *SPF) Parent() amoebot.Direction { return parent.Get(s.cell) }

// Children lists the directions of particles whose parent this is.
func (s *SPF) Children() []amoebot.Direction {
	var out []amoebot.Direction
	for _, d := range amoebot.Directions() {
		if children.Get(s.cell, int(d)) {
			out = append(out, d)
		}
	}
	return out
}

// IsSource reports whether the particle is the source.
func (s *SPF) IsSource() bool { return isSource.Get(s.cell) }

// IsDestination reports whether the particle is a destination.
func (s *SPF) IsDestination() bool { return isDest.Get(s.cell) }
