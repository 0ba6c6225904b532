// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "sort"

type nodeType int

const (
	leafType nodeType = iota
	node4
	node16
	node48
	node256
)

// artNode is implemented by the four inner node layouts and by artLeaf.
// Inner nodes share the same header: a compressed key prefix, the number
// of children, and an optional leaf for a key that ends exactly at the
// node. The stored prefix bytes are capped at the tree's configured
// maximum while the logical prefix length is not; helpers reconstruct
// overflowed bytes from the minimum leaf below the node.
type artNode interface {
	getNodeType() nodeType
	getPartialLen() uint32
	setPartialLen(uint32)
	getPartial() []byte
	setPartial([]byte)
	getNumChildren() uint16
	setNumChildren(uint16)
	getLeaf() *artLeaf
	setLeaf(*artLeaf)
	isLeaf() bool
}

// allocNode returns a zeroed node of the given type with prefix storage
// sized to the tree's configured maximum.
func (t *Tree) allocNode(kind nodeType) artNode {
	var n artNode
	switch kind {
	case leafType:
		n = &artLeaf{}
	case node4:
		n = &artNode4{}
	case node16:
		n = &artNode16{}
	case node48:
		n = &artNode48{}
	case node256:
		n = &artNode256{}
	default:
		panic("unknown node type")
	}
	if kind != leafType {
		n.setPartial(make([]byte, t.maxPrefix))
	}
	return n
}

// findChild returns a pointer to the child slot for byte c, or nil if the
// node has no edge labeled c. The returned pointer addresses the slot
// itself so callers can replace the child in place.
func findChild(n artNode, c byte) *artNode {
	switch n.getNodeType() {
	case node4:
		nd := n.(*artNode4)
		for i := 0; i < int(nd.numChildren); i++ {
			if nd.keys[i] == c {
				return &nd.children[i]
			}
		}
	case node16:
		nd := n.(*artNode16)
		idx := sort.Search(int(nd.numChildren), func(i int) bool {
			return nd.keys[i] >= c
		})
		if idx < int(nd.numChildren) && nd.keys[idx] == c {
			return &nd.children[idx]
		}
	case node48:
		nd := n.(*artNode48)
		i := nd.keys[c]
		if i != 0 {
			return &nd.children[i-1]
		}
	case node256:
		nd := n.(*artNode256)
		if nd.children[c] != nil {
			return &nd.children[c]
		}
	default:
		panic("unknown node type")
	}
	return nil
}

// nextChild returns the first present child of n at or after pos along
// with the position to resume scanning from. For node4 and node16 pos is
// a child array index; for node48 and node256 it is a key byte. A nil
// child means the node is exhausted.
func nextChild(n artNode, pos int) (artNode, int) {
	switch n.getNodeType() {
	case node4:
		nd := n.(*artNode4)
		if pos < int(nd.numChildren) {
			return nd.children[pos], pos + 1
		}
	case node16:
		nd := n.(*artNode16)
		if pos < int(nd.numChildren) {
			return nd.children[pos], pos + 1
		}
	case node48:
		nd := n.(*artNode48)
		if b := nd.nextPresentIdx(pos); b != -1 {
			return nd.children[nd.keys[b]-1], b + 1
		}
	case node256:
		nd := n.(*artNode256)
		if b := nd.nextPresentIdx(pos); b != -1 {
			return nd.children[b], b + 1
		}
	default:
		panic("unknown node type")
	}
	return nil, pos
}

// prevChild mirrors nextChild for descending traversal: it returns the
// last present child of n at or before pos and the position to resume
// from. Negative pos means the node is exhausted.
func prevChild(n artNode, pos int) (artNode, int) {
	if pos < 0 {
		return nil, pos
	}
	switch n.getNodeType() {
	case node4:
		nd := n.(*artNode4)
		if pos >= int(nd.numChildren) {
			pos = int(nd.numChildren) - 1
		}
		if pos >= 0 {
			return nd.children[pos], pos - 1
		}
	case node16:
		nd := n.(*artNode16)
		if pos >= int(nd.numChildren) {
			pos = int(nd.numChildren) - 1
		}
		if pos >= 0 {
			return nd.children[pos], pos - 1
		}
	case node48:
		nd := n.(*artNode48)
		if b := nd.prevPresentIdx(pos); b != -1 {
			return nd.children[nd.keys[b]-1], b - 1
		}
	case node256:
		nd := n.(*artNode256)
		if b := nd.prevPresentIdx(pos); b != -1 {
			return nd.children[b], b - 1
		}
	default:
		panic("unknown node type")
	}
	return nil, -1
}

// lastChildPos returns the starting position for a descending traversal
// of n, matching the position convention of prevChild.
func lastChildPos(n artNode) int {
	switch n.getNodeType() {
	case node4, node16:
		return int(n.getNumChildren()) - 1
	case node48, node256:
		return 255
	default:
		panic("unknown node type")
	}
}
