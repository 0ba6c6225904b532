// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

// artNode48 maps all 256 key bytes to child slots through a one-based
// index array; a zero entry means the edge is absent.
type artNode48 struct {
	partialLen  uint32
	numChildren uint16
	partial     []byte
	keys        [256]byte
	children    [48]artNode
	leaf        *artLeaf
}

func (n *artNode48) getNodeType() nodeType {
	return node48
}

func (n *artNode48) getPartialLen() uint32 {
	return n.partialLen
}

func (n *artNode48) setPartialLen(partialLen uint32) {
	n.partialLen = partialLen
}

func (n *artNode48) getPartial() []byte {
	return n.partial
}

func (n *artNode48) setPartial(partial []byte) {
	n.partial = partial
}

func (n *artNode48) getNumChildren() uint16 {
	return n.numChildren
}

func (n *artNode48) setNumChildren(numChildren uint16) {
	n.numChildren = numChildren
}

func (n *artNode48) getLeaf() *artLeaf {
	return n.leaf
}

func (n *artNode48) setLeaf(l *artLeaf) {
	n.leaf = l
}

func (n *artNode48) isLeaf() bool {
	return false
}

// nextPresentIdx returns the smallest mapped key byte at or after start,
// or -1 when none remains.
func (n *artNode48) nextPresentIdx(start int) int {
	for b := start; b < 256; b++ {
		if n.keys[b] != 0 {
			return b
		}
	}
	return -1
}

// prevPresentIdx returns the largest mapped key byte at or before start,
// or -1 when none remains.
func (n *artNode48) prevPresentIdx(start int) int {
	if start > 255 {
		start = 255
	}
	for b := start; b >= 0; b-- {
		if n.keys[b] != 0 {
			return b
		}
	}
	return -1
}

// addChild48 places child in the first free slot and maps byte c to it.
// A full node is grown into a node256 and *ref updated to the
// replacement.
func (t *Tree) addChild48(n *artNode48, ref *artNode, c byte, child artNode) {
	if n.numChildren < 48 {
		pos := 0
		for n.children[pos] != nil {
			pos++
		}
		n.children[pos] = child
		n.keys[c] = byte(pos + 1)
		n.numChildren++
		return
	}

	newNode := t.allocNode(node256).(*artNode256)
	for i := 0; i < 256; i++ {
		if n.keys[i] != 0 {
			newNode.children[i] = n.children[n.keys[i]-1]
		}
	}
	t.copyHeader(newNode, n)
	*ref = newNode
	t.addChild256(newNode, ref, c, child)
}

// removeChild48 unmaps byte c and frees its slot, shrinking to a node16
// once only twelve children remain.
func (t *Tree) removeChild48(n *artNode48, ref *artNode, c byte) {
	pos := n.keys[c]
	if pos == 0 {
		return
	}
	n.keys[c] = 0
	n.children[pos-1] = nil
	n.numChildren--

	if n.numChildren == 12 {
		newNode := t.allocNode(node16).(*artNode16)
		t.copyHeader(newNode, n)

		child := 0
		for i := 0; i < 256; i++ {
			if idx := n.keys[i]; idx != 0 {
				newNode.keys[child] = byte(i)
				newNode.children[child] = n.children[idx-1]
				child++
			}
		}
		*ref = newNode
	}
}
