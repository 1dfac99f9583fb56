package amoebot

import "fmt"

// Direction is one of the six compass directions of the triangular grid or
// None. Cardinal directions are numbered counter-clockwise starting at East.
type Direction int8

const (
	None Direction = -1
	E    Direction = 0
	NE   Direction = 1
	NW   Direction = 2
	W    Direction = 3
	SW   Direction = 4
	SE   Direction = 5
)

// NumDirections is the number of cardinal directions.
const NumDirections = 6

var directionNames = map[Direction]string{
	None: "NONE",
	E:    "E",
	NE:   "NE",
	NW:   "NW",
	W:    "W",
	SW:   "SW",
	SE:   "SE",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// Cardinal returns the cardinal direction with index i modulo 6.
func Cardinal(i int) Direction {
	i %= NumDirections
	if i < 0 {
		i += NumDirections
	}
	return Direction(i)
}

// ParseDirection maps a direction name to its value.
func ParseDirection(name string) (Direction, error) {
	for d, n := range directionNames {
		if n == name {
			return d, nil
		}
	}
	return None, fmt.Errorf("amoebot: unknown direction %q", name)
}

// IsCardinal reports whether d is one of the six real directions.
func (d Direction) IsCardinal() bool {
	return d >= E && d <= SE
}

// Int returns the index 0..5 of a cardinal direction and -1 for None.
func (d Direction) Int() int {
	if !d.IsCardinal() {
		return -1
	}
	return int(d)
}

// Opposite returns the direction pointing the other way. None stays None.
func (d Direction) Opposite() Direction {
	if !d.IsCardinal() {
		return None
	}
	return Cardinal(int(d) + 3)
}

// Rotate60 rotates d by k*60 degrees, counter-clockwise for positive k.
func (d Direction) Rotate60(k int) Direction {
	if !d.IsCardinal() {
		return None
	}
	return Cardinal(int(d) + k)
}

// DistanceTo returns the number of counter-clockwise 60 degree steps needed
// to turn d into other, or -1 if either is None.
func (d Direction) DistanceTo(other Direction) int {
	if !d.IsCardinal() || !other.IsCardinal() {
		return -1
	}
	return ((int(other)-int(d))%NumDirections + NumDirections) % NumDirections
}

// Axis returns the axis index (0: E-W, 1: NE-SW, 2: NW-SE) of d.
func (d Direction) Axis() int {
	if !d.IsCardinal() {
		return -1
	}
	return int(d) % 3
}

// Offset returns the axial coordinate offset of a step in direction d.
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case E:
		return 1, 0
	case NE:
		return 0, 1
	case NW:
		return -1, 1
	case W:
		return -1, 0
	case SW:
		return 0, -1
	case SE:
		return 1, -1
	}
	return 0, 0
}

// Directions lists the six cardinal directions in counter-clockwise order.
func Directions() []Direction {
	return []Direction{E, NE, NW, W, SW, SE}
}
