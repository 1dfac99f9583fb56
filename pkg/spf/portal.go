package spf

import "github.com/OpenTraceLab/amoebot/pkg/amoebot"

// Portals along axis a are maximal lines of particles in direction
// E.Rotate60(a). Viewed in a frame rotated by a, "upper" neighbors are NE
// and NW, "lower" ones SW and SE.

type side uint8

const (
	sideNone side = iota
	sideUpper
	sideLower
)

// frame maps a direction of the unrotated frame into the frame of axis a.
func frame(d amoebot.Direction, axis int) amoebot.Direction {
	return d.Rotate60(axis)
}

// sideOf returns on which side of an axis a direction lies.
func sideOf(d amoebot.Direction, axis int) side {
	switch d {
	case frame(amoebot.NE, axis), frame(amoebot.NW, axis):
		return sideUpper
	case frame(amoebot.SW, axis), frame(amoebot.SE, axis):
		return sideLower
	}
	return sideNone
}

// directionsOn lists the two directions on one side of an axis.
func directionsOn(s side, axis int) []amoebot.Direction {
	switch s {
	case sideUpper:
		return []amoebot.Direction{frame(amoebot.NE, axis), frame(amoebot.NW, axis)}
	case sideLower:
		return []amoebot.Direction{frame(amoebot.SW, axis), frame(amoebot.SE, axis)}
	}
	return nil
}

// treeEdges returns the edges of the spanning tree for axis a seen from one
// particle: the portal edges along the axis plus, for every pair of
// adjacent portals, the westmost contact between them. in reports whether
// the neighbor in a direction belongs to the region.
func treeEdges(in func(amoebot.Direction) bool, axis int) []amoebot.Direction {
	f := func(d amoebot.Direction) amoebot.Direction { return frame(d, axis) }
	var edges []amoebot.Direction
	for _, d := range amoebot.Directions() {
		if !in(d) {
			continue
		}
		var keep bool
		switch d {
		case f(amoebot.E), f(amoebot.W):
			keep = true
		case f(amoebot.SW):
			keep = !in(f(amoebot.W))
		case f(amoebot.SE):
			keep = !in(f(amoebot.SW))
		case f(amoebot.NE):
			keep = !in(f(amoebot.NW))
		case f(amoebot.NW):
			keep = !in(f(amoebot.W))
		}
		if keep {
			edges = append(edges, d)
		}
	}
	return edges
}
