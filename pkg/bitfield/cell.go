package bitfield

import (
	"errors"
	"fmt"
)

var (
	ErrOverflow = errors.New("bitfield: value does not fit field")
	ErrOverlap  = errors.New("bitfield: fields overlap")
)

// Cell is a round-buffered 32-bit storage word. Value returns the snapshot
// taken at the start of the round, Current the latest write.
type Cell struct {
	name    string
	value   uint32
	current uint32
}

// NewCell returns a detached cell. Hosts normally allocate cells through a
// Memory so that they are committed every round.
func NewCell(name string) *Cell {
	return &Cell{name: name}
}

// Name returns the label the cell was allocated with.
func (c *Cell) Name() string { return c.name }

// Value returns the snapshot taken at the last commit.
func (c *Cell) Value() uint32 { return c.value }

// Current returns the latest write.
func (c *Cell) Current() uint32 { return c.current }

// Set writes v; readers of the snapshot see it after the next commit.
func (c *Cell) Set(v uint32) { c.current = v }

// Commit makes the latest write the new snapshot.
func (c *Cell) Commit() { c.value = c.current }

func (c *Cell) String() string {
	return fmt.Sprintf("%s=%#08x (snapshot %#08x)", c.name, c.current, c.value)
}

func mask(offset, width uint) uint32 {
	if width >= 32 {
		return ^uint32(0) << offset
	}
	return ((uint32(1) << width) - 1) << offset
}

func read(word uint32, offset, width uint) uint32 {
	return (word & mask(offset, width)) >> offset
}

func write(c *Cell, offset, width uint, raw uint32) {
	if raw > mask(0, width) {
		panic(fmt.Errorf("%w: %d in %d bits at %d of %s", ErrOverflow, raw, width, offset, c.name))
	}
	c.current = c.current&^mask(offset, width) | raw<<offset
}

// Field is implemented by every typed field.
type Field interface {
	Mask() uint32
}

// MustDisjoint panics if any two fields share a bit. Packages declare their
// layouts as package variables and check them once.
func MustDisjoint(fields ...Field) uint32 {
	var used uint32
	for i, f := range fields {
		m := f.Mask()
		if used&m != 0 {
			panic(fmt.Errorf("%w: field %d (%#08x)", ErrOverlap, i, m))
		}
		used |= m
	}
	return used
}

// ClearMask zeroes the bits of m in the current value of c.
func ClearMask(c *Cell, m uint32) {
	c.current &^= m
}
