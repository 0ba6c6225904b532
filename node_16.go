// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "sort"

// artNode16 holds up to sixteen children in sorted parallel arrays and
// locates edges by binary search.
type artNode16 struct {
	partialLen  uint32
	numChildren uint16
	partial     []byte
	keys        [16]byte
	children    [16]artNode
	leaf        *artLeaf
}

func (n *artNode16) getNodeType() nodeType {
	return node16
}

func (n *artNode16) getPartialLen() uint32 {
	return n.partialLen
}

func (n *artNode16) setPartialLen(partialLen uint32) {
	n.partialLen = partialLen
}

func (n *artNode16) getPartial() []byte {
	return n.partial
}

func (n *artNode16) setPartial(partial []byte) {
	n.partial = partial
}

func (n *artNode16) getNumChildren() uint16 {
	return n.numChildren
}

func (n *artNode16) setNumChildren(numChildren uint16) {
	n.numChildren = numChildren
}

func (n *artNode16) getLeaf() *artLeaf {
	return n.leaf
}

func (n *artNode16) setLeaf(l *artLeaf) {
	n.leaf = l
}

func (n *artNode16) isLeaf() bool {
	return false
}

// getLowerBoundCh returns the index of the first child whose key byte is
// at least c, or -1 when every edge sorts below c.
func (n *artNode16) getLowerBoundCh(c byte) int {
	nCh := int(n.numChildren)
	idx := sort.Search(nCh, func(i int) bool {
		return n.keys[i] >= c
	})
	if idx < nCh {
		return idx
	}
	return -1
}

// getUpperBoundCh returns the index of the last child whose key byte is
// at most c, or -1 when every edge sorts above c.
func (n *artNode16) getUpperBoundCh(c byte) int {
	nCh := int(n.numChildren)
	idx := sort.Search(nCh, func(i int) bool {
		return n.keys[i] > c
	})
	return idx - 1
}

// addChild16 inserts child under byte c keeping the keys sorted. A full
// node is grown into a node48 and *ref updated to the replacement.
func (t *Tree) addChild16(n *artNode16, ref *artNode, c byte, child artNode) {
	if n.numChildren < 16 {
		idx := sort.Search(int(n.numChildren), func(i int) bool {
			return n.keys[i] >= c
		})

		copy(n.keys[idx+1:], n.keys[idx:n.numChildren])
		copy(n.children[idx+1:], n.children[idx:n.numChildren])

		n.keys[idx] = c
		n.children[idx] = child
		n.numChildren++
		return
	}

	newNode := t.allocNode(node48).(*artNode48)
	copy(newNode.children[:], n.children[:n.numChildren])
	for i := 0; i < int(n.numChildren); i++ {
		newNode.keys[n.keys[i]] = byte(i + 1)
	}
	t.copyHeader(newNode, n)
	*ref = newNode
	t.addChild48(newNode, ref, c, child)
}

// removeChild16 deletes the edge labeled c, shrinking to a node4 once
// only three children remain.
func (t *Tree) removeChild16(n *artNode16, ref *artNode, c byte) {
	idx := sort.Search(int(n.numChildren), func(i int) bool {
		return n.keys[i] >= c
	})
	if idx >= int(n.numChildren) || n.keys[idx] != c {
		return
	}

	copy(n.keys[idx:], n.keys[idx+1:n.numChildren])
	copy(n.children[idx:], n.children[idx+1:n.numChildren])
	n.numChildren--
	n.children[n.numChildren] = nil

	if n.numChildren == 3 {
		newNode := t.allocNode(node4).(*artNode4)
		t.copyHeader(newNode, n)
		copy(newNode.keys[:], n.keys[:n.numChildren])
		copy(newNode.children[:], n.children[:n.numChildren])
		*ref = newNode
	}
}
