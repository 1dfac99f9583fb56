package spf

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

// Wave pins: a particle beeps on offset 0 toward every region neighbor and
// listens on offset k-1, where the neighbor's offset 0 arrives.
const waveOffset = 0

var (
	fSource   = bitfield.Bool{Bit: 0}
	fRegion   = bitfield.Bits{Offset: 1, Width: 6}
	fReached  = bitfield.Bool{Bit: 7}
	fFrontier = bitfield.Bool{Bit: 8}
	fParent   = bitfield.Dir[amoebot.Direction]{Offset: 9}
	fFinished = bitfield.Bool{Bit: 12}
	fRegional = bitfield.Uint{Offset: 13, Width: 4}

	_ = bitfield.MustDisjoint(fSource, fRegion, fReached, fFrontier, fParent, fFinished, fRegional)
)

// Forest grows a shortest path forest from any number of sources in a
// region, one hop per round. Particles reached in the previous round beep
// to their region neighbors; an unreached particle that hears a beep hangs
// below the first beeping neighbor in counter-clockwise order. The wave
// stops once a round adds nobody, which every particle of the region
// learns from a regional circuit. Unlike SPF it needs no unique source.
type Forest struct {
	host amoebot.Host
	cell *bitfield.Cell
}

// NewForest allocates the forest state on host.
func NewForest(host amoebot.Host) *Forest {
	return &Forest{host: host, cell: host.NewCell("spf_forest")}
}

// Init prepares the particle. inRegion flags the neighbors of the same
// region. The progress broadcast runs on a regional circuit at
// regionalOffset, which must avoid offsets 0 and k-1.
func (f *Forest) Init(source bool, inRegion [amoebot.NumDirections]bool, regionalOffset int) {
	k := f.host.PinsPerEdge()
	if regionalOffset < 1 || regionalOffset > k-2 {
		panic(fmt.Errorf("spf: regional offset %d collides with the wave pins (k=%d)", regionalOffset, k))
	}
	c := f.cell
	c.Set(0)
	fSource.Set(c, source)
	fReached.Set(c, source)
	fFrontier.Set(c, source)
	for _, d := range amoebot.Directions() {
		fRegion.Set(c, int(d), inRegion[d])
	}
	fParent.Set(c, amoebot.None)
	fRegional.Set(c, regionalOffset)
	if fRegion.Word(c) == 0 {
		fFinished.Set(c, true)
	}
}

func (f *Forest) in(d amoebot.Direction) bool {
	return d.IsCardinal() && fRegion.Get(f.cell, int(d))
}

func (f *Forest) progressSet(pc *amoebot.PinConfiguration) int {
	return circuit.GlobalSetID(pc, fRegional.Get(f.cell))
}

// SetupPC gives every wave pin a partition set of its own and joins the
// region's progress circuit.
func (f *Forest) SetupPC(pc *amoebot.PinConfiguration) {
	k := pc.PinsPerEdge()
	var region [amoebot.NumDirections]bool
	for _, d := range amoebot.Directions() {
		if !f.in(d) {
			continue
		}
		region[d] = true
		out, in := pc.PinID(d, waveOffset), pc.PinID(d, k-1-waveOffset)
		pc.MakePartitionSet([]int{out}, out)
		pc.MakePartitionSet([]int{in}, in)
	}
	circuit.MakeRegionalCircuit(pc, region, fRegional.Get(f.cell), f.progressSet(pc))
}

// ActivateSend lets the newest particles of the forest call their
// neighbors and report progress.
func (f *Forest) ActivateSend() {
	if fFinished.Get(f.cell) || !fFrontier.Get(f.cell) {
		return
	}
	pc := f.host.PlannedPinConfiguration()
	for _, d := range amoebot.Directions() {
		if f.in(d) {
			pc.SendBeepOnPartitionSet(pc.PinID(d, waveOffset))
		}
	}
	pc.SendBeepOnPartitionSet(f.progressSet(pc))
}

// ActivateReceive joins the forest and checks for progress.
func (f *Forest) ActivateReceive() {
	c := f.cell
	if fFinished.Get(c) {
		return
	}
	pc := f.host.CurrentPinConfiguration()
	k := pc.PinsPerEdge()
	fFrontier.Set(c, false)
	if !fReached.Get(c) {
		for _, d := range amoebot.Directions() {
			if f.in(d) && pc.ReceivedBeepOnPin(pc.PinID(d, k-1-waveOffset)) {
				fParent.Set(c, d)
				fReached.Set(c, true)
				fFrontier.Set(c, true)
				break
			}
		}
	}
	if !pc.ReceivedBeepOnPartitionSet(f.progressSet(pc)) {
		fFinished.Set(c, true)
	}
}

// IsFinished reports whether the wave has stopped.
func (f *Forest) IsFinished() bool { return fFinished.Get(f.cell) }

// Succeeded reports whether the particle joined the forest.
func (f *Forest) Succeeded() bool { return fFinished.Get(f.cell) && fReached.Get(f.cell) }

// IsSource reports whether the particle is a root of the forest.
func (f *Forest) IsSource() bool { return fSource.Get(f.cell) }

// Parent returns the next particle toward the nearest source, or None for
// sources and unreached particles.
func (f *Forest) Parent() amoebot.Direction { return fParent.Get(f.cell) }
