// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

// artNode256 addresses children directly by key byte.
type artNode256 struct {
	partialLen  uint32
	numChildren uint16
	partial     []byte
	children    [256]artNode
	leaf        *artLeaf
}

func (n *artNode256) getNodeType() nodeType {
	return node256
}

func (n *artNode256) getPartialLen() uint32 {
	return n.partialLen
}

func (n *artNode256) setPartialLen(partialLen uint32) {
	n.partialLen = partialLen
}

func (n *artNode256) getPartial() []byte {
	return n.partial
}

func (n *artNode256) setPartial(partial []byte) {
	n.partial = partial
}

func (n *artNode256) getNumChildren() uint16 {
	return n.numChildren
}

func (n *artNode256) setNumChildren(numChildren uint16) {
	n.numChildren = numChildren
}

func (n *artNode256) getLeaf() *artLeaf {
	return n.leaf
}

func (n *artNode256) setLeaf(l *artLeaf) {
	n.leaf = l
}

func (n *artNode256) isLeaf() bool {
	return false
}

// nextPresentIdx returns the smallest key byte with a child at or after
// start, or -1 when none remains.
func (n *artNode256) nextPresentIdx(start int) int {
	for b := start; b < 256; b++ {
		if n.children[b] != nil {
			return b
		}
	}
	return -1
}

// prevPresentIdx returns the largest key byte with a child at or before
// start, or -1 when none remains.
func (n *artNode256) prevPresentIdx(start int) int {
	if start > 255 {
		start = 255
	}
	for b := start; b >= 0; b-- {
		if n.children[b] != nil {
			return b
		}
	}
	return -1
}

func (t *Tree) addChild256(n *artNode256, ref *artNode, c byte, child artNode) {
	n.children[c] = child
	n.numChildren++
}

// removeChild256 clears the edge labeled c. The shrink threshold sits
// below node48 capacity, matching the lag on the other conversions.
func (t *Tree) removeChild256(n *artNode256, ref *artNode, c byte) {
	if n.children[c] == nil {
		return
	}
	n.children[c] = nil
	n.numChildren--

	if n.numChildren == 37 {
		newNode := t.allocNode(node48).(*artNode48)
		t.copyHeader(newNode, n)

		pos := 0
		for i := 0; i < 256; i++ {
			if n.children[i] != nil {
				newNode.children[pos] = n.children[i]
				newNode.keys[i] = byte(pos + 1)
				pos++
			}
		}
		*ref = newNode
	}
}
