// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

// artNode4 holds up to four children in parallel key and child arrays
// kept in ascending key order.
type artNode4 struct {
	partialLen  uint32
	numChildren uint16
	partial     []byte
	keys        [4]byte
	children    [4]artNode
	leaf        *artLeaf
}

func (n *artNode4) getNodeType() nodeType {
	return node4
}

func (n *artNode4) getPartialLen() uint32 {
	return n.partialLen
}

func (n *artNode4) setPartialLen(partialLen uint32) {
	n.partialLen = partialLen
}

func (n *artNode4) getPartial() []byte {
	return n.partial
}

func (n *artNode4) setPartial(partial []byte) {
	n.partial = partial
}

func (n *artNode4) getNumChildren() uint16 {
	return n.numChildren
}

func (n *artNode4) setNumChildren(numChildren uint16) {
	n.numChildren = numChildren
}

func (n *artNode4) getLeaf() *artLeaf {
	return n.leaf
}

func (n *artNode4) setLeaf(l *artLeaf) {
	n.leaf = l
}

func (n *artNode4) isLeaf() bool {
	return false
}

// getLowerBoundCh returns the index of the first child whose key byte is
// at least c, or -1 when every edge sorts below c.
func (n *artNode4) getLowerBoundCh(c byte) int {
	for i := 0; i < int(n.numChildren); i++ {
		if n.keys[i] >= c {
			return i
		}
	}
	return -1
}

// getUpperBoundCh returns the index of the last child whose key byte is
// at most c, or -1 when every edge sorts above c.
func (n *artNode4) getUpperBoundCh(c byte) int {
	for i := int(n.numChildren) - 1; i >= 0; i-- {
		if n.keys[i] <= c {
			return i
		}
	}
	return -1
}

// addChild4 inserts child under byte c keeping the keys sorted. When the
// node is full it is grown into a node16 and *ref is updated to point at
// the replacement.
func (t *Tree) addChild4(n *artNode4, ref *artNode, c byte, child artNode) {
	if n.numChildren < 4 {
		idx := 0
		for idx = 0; idx < int(n.numChildren); idx++ {
			if c < n.keys[idx] {
				break
			}
		}

		// Shift to make room
		copy(n.keys[idx+1:], n.keys[idx:n.numChildren])
		copy(n.children[idx+1:], n.children[idx:n.numChildren])

		n.keys[idx] = c
		n.children[idx] = child
		n.numChildren++
		return
	}

	newNode := t.allocNode(node16).(*artNode16)
	copy(newNode.children[:], n.children[:n.numChildren])
	copy(newNode.keys[:], n.keys[:n.numChildren])
	t.copyHeader(newNode, n)
	*ref = newNode
	t.addChild16(newNode, ref, c, child)
}

// removeChild4 deletes the edge labeled c. A node left with a single
// child and no leaf is merged into that child afterwards.
func (t *Tree) removeChild4(n *artNode4, ref *artNode, c byte) {
	pos := -1
	for i := 0; i < int(n.numChildren); i++ {
		if n.keys[i] == c {
			pos = i
			break
		}
	}
	if pos == -1 {
		return
	}

	copy(n.keys[pos:], n.keys[pos+1:n.numChildren])
	copy(n.children[pos:], n.children[pos+1:n.numChildren])
	n.numChildren--
	n.children[n.numChildren] = nil

	t.mergeChild(n, ref)
}

// mergeChild applies path compression after an erase. A node holding
// nothing but its leaf collapses into that leaf; a node left with a
// single child and no leaf is folded into the child, concatenating the
// prefixes on either side of the edge byte. The logical prefix length is
// always the full sum even when the stored bytes are clamped. The root
// is never merged.
func (t *Tree) mergeChild(n *artNode4, ref *artNode) {
	if t.root == artNode(n) {
		return
	}

	if n.numChildren == 0 && n.leaf != nil {
		*ref = n.leaf
		return
	}
	if n.numChildren != 1 || n.leaf != nil {
		return
	}

	child := n.children[0]
	if !child.isLeaf() {
		// Concatenate the prefixes
		prefix := int(n.partialLen)
		if prefix < t.maxPrefix {
			n.partial[prefix] = n.keys[0]
			prefix++
		}
		if prefix < t.maxPrefix {
			sub := min(int(child.getPartialLen()), t.maxPrefix-prefix)
			copy(n.partial[prefix:], child.getPartial()[:sub])
			prefix += sub
		}

		// Store the prefix in the child
		copy(child.getPartial(), n.partial[:min(prefix, t.maxPrefix)])
		child.setPartialLen(child.getPartialLen() + n.partialLen + 1)
	}
	*ref = child
}
