package sim

// setRef names one partition set of one particle.
type setRef struct {
	particle int
	set      int
}

// circuits merges partition sets that are wired together across edges
// using union-find with path compression.
type circuits struct {
	parent map[setRef]setRef
	rank   map[setRef]int
}

func newCircuits() *circuits {
	return &circuits{
		parent: make(map[setRef]setRef),
		rank:   make(map[setRef]int),
	}
}

func (c *circuits) add(r setRef) {
	if _, ok := c.parent[r]; !ok {
		c.parent[r] = r
	}
}

func (c *circuits) find(r setRef) setRef {
	c.add(r)
	root := r
	for c.parent[root] != root {
		root = c.parent[root]
	}
	for r != root {
		next := c.parent[r]
		c.parent[r] = root
		r = next
	}
	return root
}

func (c *circuits) connect(a, b setRef) {
	ra, rb := c.find(a), c.find(b)
	if ra == rb {
		return
	}
	switch {
	case c.rank[ra] < c.rank[rb]:
		c.parent[ra] = rb
	case c.rank[ra] > c.rank[rb]:
		c.parent[rb] = ra
	default:
		c.parent[rb] = ra
		c.rank[ra]++
	}
}

// count returns the number of distinct circuits.
func (c *circuits) count() int {
	n := 0
	for r := range c.parent {
		if c.find(r) == r {
			n++
		}
	}
	return n
}
