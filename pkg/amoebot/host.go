package amoebot

import (
	"errors"
	"math/rand/v2"

	"github.com/OpenTraceLab/amoebot/pkg/bitfield"
)

var (
	ErrInvalidPin          = errors.New("amoebot: invalid pin")
	ErrInvalidPinCount     = errors.New("amoebot: invalid pin count")
	ErrInvalidPartitionSet = errors.New("amoebot: invalid partition set")
	ErrNoPlannedPC         = errors.New("amoebot: planned pin configuration was never set")
)

// Host is the particle runtime the subroutines run on. It tracks neighbors,
// commits pin configurations between rounds and owns the round-buffered
// memory cells of every subroutine instance.
type Host interface {
	// HasNeighborAt reports whether a neighbor occupies the given direction.
	HasNeighborAt(d Direction) bool
	// PinsPerEdge reports the number of pins on every edge.
	PinsPerEdge() int
	// CurrentPinConfiguration returns the configuration committed in the
	// previous round together with the beeps it received.
	CurrentPinConfiguration() *PinConfiguration
	// PlannedPinConfiguration returns the configuration set for this round.
	// It panics with ErrNoPlannedPC if none was set.
	PlannedPinConfiguration() *PinConfiguration
	// SetPlannedPinConfiguration commits pc for this round.
	SetPlannedPinConfiguration(pc *PinConfiguration)
	// NewPinConfiguration returns a fresh singleton configuration.
	NewPinConfiguration() *PinConfiguration
	// NewCell allocates a named memory cell that is committed at the start
	// of every round.
	NewCell(name string) *bitfield.Cell
	// Rand is the particle's random source.
	Rand() *rand.Rand
}
