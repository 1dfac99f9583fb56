package bitfield

import "fmt"

// Memory owns the cells of one particle.
type Memory struct {
	cells []*Cell
	names map[string]int
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{names: make(map[string]int)}
}

// NewCell allocates a cell. Repeated names get a numeric suffix so that
// several instances of one subroutine can live on the same particle.
func (m *Memory) NewCell(name string) *Cell {
	unique := name
	if n, ok := m.names[name]; ok {
		for {
			n++
			unique = fmt.Sprintf("%s_%d", name, n)
			if _, taken := m.names[unique]; !taken {
				break
			}
		}
		m.names[name] = n
	}
	m.names[unique] = 0
	c := NewCell(unique)
	m.cells = append(m.cells, c)
	return c
}

// CommitAll snapshots every cell. Hosts call it at the start of a round.
func (m *Memory) CommitAll() {
	for _, c := range m.cells {
		c.Commit()
	}
}

// Cells returns the cells in allocation order.
func (m *Memory) Cells() []*Cell {
	return m.cells
}

// Lookup finds a cell by its uniquified name.
func (m *Memory) Lookup(name string) (*Cell, bool) {
	for _, c := range m.cells {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}
