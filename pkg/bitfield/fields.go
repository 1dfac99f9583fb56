package bitfield

import "fmt"

// Bool is a single flag bit.
type Bool struct {
	Bit uint
}

func (f Bool) Mask() uint32 { return mask(f.Bit, 1) }

func (f Bool) Get(c *Cell) bool      { return read(c.current, f.Bit, 1) != 0 }
func (f Bool) Snapshot(c *Cell) bool { return read(c.value, f.Bit, 1) != 0 }

func (f Bool) Set(c *Cell, v bool) {
	var raw uint32
	if v {
		raw = 1
	}
	write(c, f.Bit, 1, raw)
}

// Uint is an unsigned integer of Width bits.
type Uint struct {
	Offset uint
	Width  uint
}

func (f Uint) Mask() uint32 { return mask(f.Offset, f.Width) }
func (f Uint) Max() int     { return int(mask(0, f.Width)) }

func (f Uint) Get(c *Cell) int      { return int(read(c.current, f.Offset, f.Width)) }
func (f Uint) Snapshot(c *Cell) int { return int(read(c.value, f.Offset, f.Width)) }

func (f Uint) Set(c *Cell, v int) {
	if v < 0 {
		panic(fmt.Errorf("%w: %d is negative", ErrOverflow, v))
	}
	write(c, f.Offset, f.Width, uint32(v))
}

// Inc adds one to the current value.
func (f Uint) Inc(c *Cell) {
	f.Set(c, f.Get(c)+1)
}

// Int is a two's complement integer of Width bits. It mostly stores round
// counters that start at -1.
type Int struct {
	Offset uint
	Width  uint
}

func (f Int) Mask() uint32 { return mask(f.Offset, f.Width) }

func (f Int) decode(raw uint32) int {
	if raw&(1<<(f.Width-1)) != 0 {
		return int(raw) - int(1<<f.Width)
	}
	return int(raw)
}

func (f Int) Get(c *Cell) int      { return f.decode(read(c.current, f.Offset, f.Width)) }
func (f Int) Snapshot(c *Cell) int { return f.decode(read(c.value, f.Offset, f.Width)) }

func (f Int) Set(c *Cell, v int) {
	lo, hi := -(1 << (f.Width - 1)), (1<<(f.Width-1))-1
	if v < lo || v > hi {
		panic(fmt.Errorf("%w: %d outside [%d, %d]", ErrOverflow, v, lo, hi))
	}
	write(c, f.Offset, f.Width, uint32(v)&mask(0, f.Width))
}

func (f Int) Inc(c *Cell) {
	f.Set(c, f.Get(c)+1)
}

// Dir stores a compass direction in three bits. By default None is 0 and
// cardinal direction d is d+1. With Sentinel set, cardinal d is stored as d
// and None as 6.
type Dir[D ~int8] struct {
	Offset   uint
	Sentinel bool
}

func (f Dir[D]) Mask() uint32 { return mask(f.Offset, 3) }

func (f Dir[D]) decode(raw uint32) D {
	if f.Sentinel {
		if raw >= 6 {
			return D(-1)
		}
		return D(raw)
	}
	return D(int8(raw) - 1)
}

func (f Dir[D]) Get(c *Cell) D      { return f.decode(read(c.current, f.Offset, 3)) }
func (f Dir[D]) Snapshot(c *Cell) D { return f.decode(read(c.value, f.Offset, 3)) }

func (f Dir[D]) Set(c *Cell, d D) {
	if d < -1 || d > 5 {
		panic(fmt.Errorf("%w: direction %d", ErrOverflow, d))
	}
	raw := uint32(d + 1)
	if f.Sentinel {
		raw = uint32(d)
		if d < 0 {
			raw = 6
		}
	}
	write(c, f.Offset, 3, raw)
}

// Enum stores a small enumeration value.
type Enum[T ~uint8 | ~int8 | ~int] struct {
	Offset uint
	Width  uint
}

func (f Enum[T]) Mask() uint32 { return mask(f.Offset, f.Width) }

func (f Enum[T]) Get(c *Cell) T      { return T(read(c.current, f.Offset, f.Width)) }
func (f Enum[T]) Snapshot(c *Cell) T { return T(read(c.value, f.Offset, f.Width)) }

func (f Enum[T]) Set(c *Cell, v T) {
	if v < 0 {
		panic(fmt.Errorf("%w: enum value %d", ErrOverflow, v))
	}
	write(c, f.Offset, f.Width, uint32(v))
}

// Bits is an array of Width flags indexed from 0.
type Bits struct {
	Offset uint
	Width  uint
}

func (f Bits) Mask() uint32 { return mask(f.Offset, f.Width) }

func (f Bits) bit(i int) uint {
	if i < 0 || uint(i) >= f.Width {
		panic(fmt.Errorf("%w: index %d of %d bits", ErrOverflow, i, f.Width))
	}
	return f.Offset + uint(i)
}

func (f Bits) Get(c *Cell, i int) bool      { return read(c.current, f.bit(i), 1) != 0 }
func (f Bits) Snapshot(c *Cell, i int) bool { return read(c.value, f.bit(i), 1) != 0 }

func (f Bits) Set(c *Cell, i int, v bool) {
	Bool{Bit: f.bit(i)}.Set(c, v)
}

// Word returns all flags packed with index 0 in bit 0.
func (f Bits) Word(c *Cell) uint32 { return read(c.current, f.Offset, f.Width) }

func (f Bits) SetWord(c *Cell, w uint32) {
	write(c, f.Offset, f.Width, w)
}

// Any reports whether at least one flag is set.
func (f Bits) Any(c *Cell) bool { return f.Word(c) != 0 }
