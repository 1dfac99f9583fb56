package amoebot

import (
	"fmt"
	"sort"
)

// Pin identifies one communication endpoint on the edge of a particle.
type Pin struct {
	Direction Direction
	Offset    int
}

// PinID returns the stable integer ID of the pin at (d, offset).
func PinID(d Direction, offset, pinsPerEdge int) int {
	return int(d)*pinsPerEdge + offset
}

// PinConfiguration assigns every pin of one particle to a partition set for
// one round. Beeps sent on a planned configuration become visible on the
// same sets once the configuration is current in the following round.
type PinConfiguration struct {
	pinsPerEdge int
	setOf       []int
	sending     map[int]bool
	received    map[int]bool
}

// NewPinConfiguration returns the singleton configuration in which pin i
// forms partition set i on its own.
func NewPinConfiguration(pinsPerEdge int) *PinConfiguration {
	if pinsPerEdge <= 0 {
		panic(fmt.Errorf("%w: %d pins per edge", ErrInvalidPinCount, pinsPerEdge))
	}
	pc := &PinConfiguration{
		pinsPerEdge: pinsPerEdge,
		setOf:       make([]int, NumDirections*pinsPerEdge),
		sending:     make(map[int]bool),
		received:    make(map[int]bool),
	}
	for i := range pc.setOf {
		pc.setOf[i] = i
	}
	return pc
}

// PinsPerEdge reports the number of pins on each of the six edges.
func (pc *PinConfiguration) PinsPerEdge() int {
	return pc.pinsPerEdge
}

// NumPins reports the total number of pins of the particle.
func (pc *PinConfiguration) NumPins() int {
	return len(pc.setOf)
}

// PinID returns the ID of the pin at (d, offset).
func (pc *PinConfiguration) PinID(d Direction, offset int) int {
	if !d.IsCardinal() || offset < 0 || offset >= pc.pinsPerEdge {
		panic(fmt.Errorf("%w: (%s, %d)", ErrInvalidPin, d, offset))
	}
	return PinID(d, offset, pc.pinsPerEdge)
}

// Pin decodes a pin ID.
func (pc *PinConfiguration) Pin(id int) Pin {
	return Pin{Direction: Direction(id / pc.pinsPerEdge), Offset: id % pc.pinsPerEdge}
}

func isolatedSet(pin int) int {
	return -(pin + 1)
}

// MakePartitionSet puts the given pins into the partition set id. Pins that
// were in id before and are not listed are isolated.
func (pc *PinConfiguration) MakePartitionSet(pins []int, id int) {
	if id < 0 {
		panic(fmt.Errorf("%w: partition set %d", ErrInvalidPartitionSet, id))
	}
	keep := make(map[int]bool, len(pins))
	for _, p := range pins {
		if p < 0 || p >= len(pc.setOf) {
			panic(fmt.Errorf("%w: pin %d", ErrInvalidPin, p))
		}
		keep[p] = true
	}
	for p, s := range pc.setOf {
		if s == id && !keep[p] {
			pc.setOf[p] = isolatedSet(p)
		}
	}
	for _, p := range pins {
		pc.setOf[p] = id
	}
}

// PartitionSetOf returns the ID of the set holding the pin. The result is
// negative if the pin has been isolated.
func (pc *PinConfiguration) PartitionSetOf(pin int) int {
	return pc.setOf[pin]
}

// PinsOf lists the pins of a partition set in ascending order.
func (pc *PinConfiguration) PinsOf(id int) []int {
	var pins []int
	for p, s := range pc.setOf {
		if s == id {
			pins = append(pins, p)
		}
	}
	return pins
}

// PartitionSets lists the IDs of all sets, isolated pins included.
func (pc *PinConfiguration) PartitionSets() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, s := range pc.setOf {
		if !seen[s] {
			seen[s] = true
			ids = append(ids, s)
		}
	}
	sort.Ints(ids)
	return ids
}

// SendBeepOnPartitionSet schedules a beep on the set for this round.
func (pc *PinConfiguration) SendBeepOnPartitionSet(id int) {
	pc.sending[id] = true
}

// IsSending reports whether a beep was scheduled on the set.
func (pc *PinConfiguration) IsSending(id int) bool {
	return pc.sending[id]
}

// SendingSets lists the sets a beep was scheduled on.
func (pc *PinConfiguration) SendingSets() []int {
	ids := make([]int, 0, len(pc.sending))
	for id := range pc.sending {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ReceivedBeepOnPartitionSet reports whether the set carried a beep in the
// round this configuration was planned for.
func (pc *PinConfiguration) ReceivedBeepOnPartitionSet(id int) bool {
	return pc.received[id]
}

// ReceivedBeepOnPin reports whether the set holding the pin carried a beep.
func (pc *PinConfiguration) ReceivedBeepOnPin(pin int) bool {
	return pc.received[pc.setOf[pin]]
}

// MarkReceived records a delivered beep. Only hosts call this.
func (pc *PinConfiguration) MarkReceived(id int) {
	pc.received[id] = true
}

// Clone copies the pin assignment without any beep information.
func (pc *PinConfiguration) Clone() *PinConfiguration {
	out := &PinConfiguration{
		pinsPerEdge: pc.pinsPerEdge,
		setOf:       append([]int(nil), pc.setOf...),
		sending:     make(map[int]bool),
		received:    make(map[int]bool),
	}
	return out
}
