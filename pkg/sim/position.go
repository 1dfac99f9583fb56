package sim

import (
	"fmt"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
)

// Position is an axial coordinate on the triangular grid.
type Position struct {
	X, Y int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Step returns the position n steps away in direction d.
func (p Position) Step(d amoebot.Direction, n int) Position {
	dx, dy := d.Offset()
	return Position{X: p.X + n*dx, Y: p.Y + n*dy}
}

// DirectionTo returns the direction of an adjacent position or None.
func (p Position) DirectionTo(q Position) amoebot.Direction {
	for _, d := range amoebot.Directions() {
		if p.Step(d, 1) == q {
			return d
		}
	}
	return amoebot.None
}
