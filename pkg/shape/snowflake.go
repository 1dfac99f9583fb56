package shape

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
	"github.com/OpenTraceLab/amoebot/pkg/circuit"
)

func armField(d amoebot.Direction) bitfield.Uint {
	return bitfield.Uint{Offset: 5 * uint(d), Width: 5}
}

// MaxArm is the longest snowflake arm Snowflake accepts.
var MaxArm = armField(amoebot.E).Max()

var (
	armDir     = bitfield.Dir[amoebot.Direction]{Offset: 0}
	flakeStep  = bitfield.Enum[step]{Offset: 3, Width: 2}
	origin     = bitfield.Bool{Bit: 5}
	flakeFound = bitfield.Bool{Bit: 6}
	flakeDone  = bitfield.Bool{Bit: 7}

	_ = bitfield.MustDisjoint(armDir, flakeStep, origin, flakeFound, flakeDone)
)

// Snowflake checks whether the structure contains a star of six arms, arm d
// holding arms[d] particles beyond the origin in direction d. The arms are
// measured one direction after the other; arms of length 0 are skipped.
type Snowflake struct {
	host amoebot.Host
	cell *bitfield.Cell
	arms *bitfield.Cell
	cmp  *LineCompare
}

// NewSnowflake allocates the snowflake state on host.
func NewSnowflake(host amoebot.Host) *Snowflake {
	return &Snowflake{
		host: host,
		cell: host.NewCell("snowflake"),
		arms: host.NewCell("snowflake_arms"),
		cmp:  NewLineCompare(host),
	}
}

// Init sets the arm length for every direction.
func (s *Snowflake) Init(arms [amoebot.NumDirections]int) {
	s.cell.Set(0)
	s.arms.Set(0)
	for _, d := range amoebot.Directions() {
		if arms[d] < 0 || arms[d] > MaxArm {
			panic(fmt.Errorf("shape: arm %s length %d outside [0, %d]", d, arms[d], MaxArm))
		}
		armField(d).Set(s.arms, arms[d])
	}
	origin.Set(s.cell, true)
	s.nextArm(amoebot.None)
}

// nextArm starts the comparison for the first non-empty arm after d, or
// the broadcast when none is left.
func (s *Snowflake) nextArm(after amoebot.Direction) {
	for d := after + 1; d < amoebot.NumDirections; d++ {
		if n := armField(d).Get(s.arms); n > 0 {
			armDir.Set(s.cell, d)
			flakeStep.Set(s.cell, stepCompare)
			s.cmp.Init(s.nbr(d), s.nbr(d.Opposite()), n, true)
			return
		}
	}
	flakeStep.Set(s.cell, stepBroadcast)
}

func (s *Snowflake) nbr(d amoebot.Direction) amoebot.Direction {
	if s.host.HasNeighborAt(d) {
		return d
	}
	return amoebot.None
}

// SetupPC joins the arm segments checked this round.
func (s *Snowflake) SetupPC(pc *amoebot.PinConfiguration) {
	switch flakeStep.Get(s.cell) {
	case stepCompare:
		s.cmp.SetupPC(pc)
	case stepBroadcast:
		circuit.MakeGlobalCircuit(pc, broadcastOffset, circuit.GlobalSetID(pc, broadcastOffset))
	}
}

// ActivateSend beeps on the arms this particle can still host.
func (s *Snowflake) ActivateSend() {
	switch flakeStep.Get(s.cell) {
	case stepCompare:
		s.cmp.ActivateSend()
	case stepBroadcast:
		if origin.Get(s.cell) {
			pc := s.host.PlannedPinConfiguration()
			pc.SendBeepOnPartitionSet(circuit.GlobalSetID(pc, broadcastOffset))
		}
	}
}

// ActivateReceive drops origins whose arm was cut short.
func (s *Snowflake) ActivateReceive() {
	c := s.cell
	switch flakeStep.Get(c) {
	case stepCompare:
		s.cmp.ActivateReceive()
		if !s.cmp.IsFinished() {
			return
		}
		if !s.cmp.AtLeast() {
			origin.Set(c, false)
		}
		s.nextArm(armDir.Get(c))
	case stepBroadcast:
		pc := s.host.CurrentPinConfiguration()
		flakeFound.Set(c, pc.ReceivedBeepOnPartitionSet(circuit.GlobalSetID(pc, broadcastOffset)))
		flakeDone.Set(c, true)
		flakeStep.Set(c, stepDone)
	}
}

// IsFinished reports whether every arm has been checked.
func (s *Snowflake) IsFinished() bool { return flakeDone.Get(s.cell) }

// Succeeded reports whether some particle is a valid origin.
func (s *Snowflake) Succeeded() bool { return flakeDone.Get(s.cell) && flakeFound.Get(s.cell) }

// IsOrigin reports whether every arm fits when starting at this particle.
func (s *Snowflake) IsOrigin() bool { return origin.Get(s.cell) }
