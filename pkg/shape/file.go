package shape

import (
	"errors"
	"fmt"
	"os"

	"github.com/sugawarayuuta/sonnet"

	"github.com/OpenTraceLab/amoebot/pkg/amoebot"
	"github.com/OpenTraceLab/amoebot/pkg/sim"
)

// ErrInvalidFile wraps every shape file rejection.
var ErrInvalidFile = errors.New("shape: invalid shape file")

// File is the JSON document written by the shape creator. Snowflake files
// carry a dependency tree, star convex files a list of constituents; plain
// shapes have neither.
type File struct {
	Shape          Shape         `json:"shape"`
	Constituents   []Constituent `json:"constituents"`
	DependencyTree []FlakeNode   `json:"dependencyTree"`
}

// Shape lists grid nodes in axial coordinates; edges and faces index into
// Nodes.
type Shape struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Faces []Face `json:"faces"`
}

// Node is a grid point in axial coordinates.
type Node struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Edge joins two adjacent nodes.
type Edge struct {
	U int `json:"u"`
	V int `json:"v"`
}

// Face is a triangle of three mutually adjacent nodes.
type Face struct {
	U int `json:"u"`
	V int `json:"v"`
	W int `json:"w"`
}

// FlakeNode is one snowflake of a dependency tree. Children refer to
// earlier entries, so the root comes last.
type FlakeNode struct {
	Arms     [amoebot.NumDirections]int `json:"arms"`
	Children []FlakeChild               `json:"children"`
}

// FlakeChild places snowflake ChildIdx, rotated by Rotation steps of 60
// degrees, on the arm in Direction at Distance from the parent's origin and
// sweeps it one step further along the arm.
type FlakeChild struct {
	ChildIdx  int `json:"childIdx"`
	Direction int `json:"direction"`
	Distance  int `json:"distance"`
	Rotation  int `json:"rotation"`
}

// Constituent is one piece of a star convex shape, anchored at the center.
// Directions count in steps of 30 degrees, so cardinal ones are even.
type Constituent struct {
	ShapeType  int `json:"shapeType"`
	DirectionW int `json:"directionW"`
	DirectionH int `json:"directionH"`
	A          int `json:"a"`
	D          int `json:"d"`
	C          int `json:"c"`
	A2         int `json:"a2"`
	A3         int `json:"a3"`
}

// Constituent shape types.
const (
	Triangle = iota
	ParallelogramShape
	Trapezoid
	Pentagon
)

// Parse decodes and validates a shape file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := sonnet.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads a shape file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read shape file: %w", err)
	}
	return Parse(data)
}

// Validate checks that edges, faces and children reference existing
// entries and that the geometry is consistent.
func (f *File) Validate() error {
	n := len(f.Shape.Nodes)
	if n == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidFile)
	}
	if len(f.Constituents) > 0 && len(f.DependencyTree) > 0 {
		return fmt.Errorf("%w: both constituents and a dependency tree", ErrInvalidFile)
	}
	inRange := func(i int) bool { return i >= 0 && i < n }
	for i, e := range f.Shape.Edges {
		if !inRange(e.U) || !inRange(e.V) {
			return fmt.Errorf("%w: edge %d references missing node", ErrInvalidFile, i)
		}
		a, b := f.Shape.Nodes[e.U], f.Shape.Nodes[e.V]
		if (sim.Position{X: a.X, Y: a.Y}).DirectionTo(sim.Position{X: b.X, Y: b.Y}) == amoebot.None {
			return fmt.Errorf("%w: edge %d joins non-adjacent nodes", ErrInvalidFile, i)
		}
	}
	for i, face := range f.Shape.Faces {
		if !inRange(face.U) || !inRange(face.V) || !inRange(face.W) {
			return fmt.Errorf("%w: face %d references missing node", ErrInvalidFile, i)
		}
	}
	for i, flake := range f.DependencyTree {
		for _, a := range flake.Arms {
			if a < 0 {
				return fmt.Errorf("%w: snowflake %d has a negative arm", ErrInvalidFile, i)
			}
		}
		for _, ch := range flake.Children {
			if ch.ChildIdx < 0 || ch.ChildIdx >= i {
				return fmt.Errorf("%w: snowflake %d has child %d out of order", ErrInvalidFile, i, ch.ChildIdx)
			}
			if ch.Direction < 0 || ch.Direction >= amoebot.NumDirections ||
				ch.Rotation < 0 || ch.Rotation >= amoebot.NumDirections || ch.Distance < 0 {
				return fmt.Errorf("%w: snowflake %d has an invalid child placement", ErrInvalidFile, i)
			}
		}
	}
	for i, c := range f.Constituents {
		if c.ShapeType < Triangle || c.ShapeType > Pentagon {
			return fmt.Errorf("%w: constituent %d has unknown type %d", ErrInvalidFile, i, c.ShapeType)
		}
		if c.DirectionW%2 != 0 || c.DirectionH%2 != 0 ||
			c.DirectionW < 0 || c.DirectionW >= 12 || c.DirectionH < 0 || c.DirectionH >= 12 {
			return fmt.Errorf("%w: constituent %d is not aligned to the grid", ErrInvalidFile, i)
		}
	}
	return nil
}

// RootArms returns the arms of the root snowflake when the file describes
// a single snowflake. Files whose root has children need Origins.
func (f *File) RootArms() ([amoebot.NumDirections]int, bool) {
	if len(f.DependencyTree) == 0 {
		return [amoebot.NumDirections]int{}, false
	}
	root := f.DependencyTree[len(f.DependencyTree)-1]
	if len(root.Children) > 0 {
		return [amoebot.NumDirections]int{}, false
	}
	return root.Arms, true
}

// Place adds one particle per node, shifted by origin.
func (f *File) Place(s *sim.System, origin sim.Position) error {
	for _, n := range f.Shape.Nodes {
		if _, err := s.AddParticle(sim.Position{X: origin.X + n.X, Y: origin.Y + n.Y}); err != nil {
			return fmt.Errorf("failed to place shape: %w", err)
		}
	}
	return nil
}
