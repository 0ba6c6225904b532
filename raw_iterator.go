package artindex

// rawStackEntry pairs a node with the number of key bytes the path
// above it consumes, excluding the node's own prefix.
type rawStackEntry struct {
	node  artNode
	depth int
}

// rawIterator visits every node in the tree, leaves included, tracking
// the key depth of each. Structural sweeps like Stats and Verify use
// it; key iteration goes through Iterator instead.
type rawIterator struct {
	stack []rawStackEntry
	node  artNode
	depth int
}

func (t *Tree) newRawIterator() *rawIterator {
	it := &rawIterator{}
	if t.root != nil {
		it.stack = []rawStackEntry{{node: t.root}}
	}
	return it
}

// Front returns the node the iterator is positioned on.
func (i *rawIterator) Front() artNode {
	return i.node
}

// Depth returns the number of key bytes consumed above Front.
func (i *rawIterator) Depth() int {
	return i.depth
}

// Next advances to the next node, returning false once every node has
// been visited.
func (i *rawIterator) Next() bool {
	if len(i.stack) == 0 {
		i.node = nil
		return false
	}
	entry := i.stack[len(i.stack)-1]
	i.stack = i.stack[:len(i.stack)-1]
	i.node = entry.node
	i.depth = entry.depth

	if !entry.node.isLeaf() {
		childDepth := entry.depth + int(entry.node.getPartialLen()) + 1
		for child, pos := nextChild(entry.node, 0); child != nil; child, pos = nextChild(entry.node, pos) {
			i.stack = append(i.stack, rawStackEntry{node: child, depth: childDepth})
		}
	}
	return true
}
