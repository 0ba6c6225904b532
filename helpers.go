// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "bytes"

// checkPrefix compares the stored prefix bytes of n against key at depth
// and returns the number of matching bytes. Only the physically stored
// bytes take part; overflowed prefixes are verified at the leaf.
func (t *Tree) checkPrefix(n artNode, key []byte, depth int) int {
	maxCmp := min(min(int(n.getPartialLen()), t.maxPrefix), len(key)-depth)
	var idx int
	for idx = 0; idx < maxCmp; idx++ {
		if n.getPartial()[idx] != key[depth+idx] {
			return idx
		}
	}
	return idx
}

// prefixMismatch returns the index at which key diverges from the full
// logical prefix of n. When the logical prefix is longer than the stored
// bytes the remainder is reconstructed from the minimum leaf below n,
// which carries the complete key.
func (t *Tree) prefixMismatch(n artNode, key []byte, depth int) int {
	maxCmp := min(min(t.maxPrefix, int(n.getPartialLen())), len(key)-depth)
	var idx int
	for idx = 0; idx < maxCmp; idx++ {
		if n.getPartial()[idx] != key[depth+idx] {
			return idx
		}
	}

	if int(n.getPartialLen()) > t.maxPrefix {
		l := minimum(n)
		maxCmp = min(len(l.key), len(key)) - depth
		for ; idx < maxCmp; idx++ {
			if l.key[idx+depth] != key[depth+idx] {
				return idx
			}
		}
	}
	return idx
}

func leafMatches(nodeKey, key []byte) bool {
	return bytes.Equal(nodeKey, key)
}

// longestCommonPrefix returns the length of the common prefix of k1 and
// k2 starting at depth.
func longestCommonPrefix(k1, k2 []byte, depth int) int {
	maxCmp := min(len(k1), len(k2)) - depth
	var idx int
	for idx = 0; idx < maxCmp; idx++ {
		if k1[depth+idx] != k2[depth+idx] {
			return idx
		}
	}
	return idx
}

// copyHeader carries the header of src over to dst when a node changes
// layout: child count, prefix, and the inline leaf.
func (t *Tree) copyHeader(dst, src artNode) {
	dst.setNumChildren(src.getNumChildren())
	dst.setPartialLen(src.getPartialLen())
	stored := min(t.maxPrefix, int(src.getPartialLen()))
	copy(dst.getPartial()[:stored], src.getPartial()[:stored])
	dst.setLeaf(src.getLeaf())
}

// minimum returns the smallest leaf under n. A node's own leaf sorts
// before any of its children since it ends a strictly shorter key.
func minimum(n artNode) *artLeaf {
	if n == nil {
		return nil
	}
	if n.isLeaf() {
		return n.(*artLeaf)
	}
	if l := n.getLeaf(); l != nil {
		return l
	}

	switch n.getNodeType() {
	case node4:
		nd := n.(*artNode4)
		if nd.numChildren == 0 {
			return nil
		}
		return minimum(nd.children[0])
	case node16:
		nd := n.(*artNode16)
		if nd.numChildren == 0 {
			return nil
		}
		return minimum(nd.children[0])
	case node48:
		nd := n.(*artNode48)
		if b := nd.nextPresentIdx(0); b != -1 {
			return minimum(nd.children[nd.keys[b]-1])
		}
	case node256:
		nd := n.(*artNode256)
		if b := nd.nextPresentIdx(0); b != -1 {
			return minimum(nd.children[b])
		}
	default:
		panic("unknown node type")
	}
	return nil
}

// maximum returns the largest leaf under n.
func maximum(n artNode) *artLeaf {
	if n == nil {
		return nil
	}
	if n.isLeaf() {
		return n.(*artLeaf)
	}

	switch n.getNodeType() {
	case node4:
		nd := n.(*artNode4)
		if nd.numChildren == 0 {
			return nd.leaf
		}
		return maximum(nd.children[nd.numChildren-1])
	case node16:
		nd := n.(*artNode16)
		if nd.numChildren == 0 {
			return nd.leaf
		}
		return maximum(nd.children[nd.numChildren-1])
	case node48:
		nd := n.(*artNode48)
		if b := nd.prevPresentIdx(255); b != -1 {
			return maximum(nd.children[nd.keys[b]-1])
		}
		return nd.leaf
	case node256:
		nd := n.(*artNode256)
		if b := nd.prevPresentIdx(255); b != -1 {
			return maximum(nd.children[b])
		}
		return nd.leaf
	default:
		panic("unknown node type")
	}
}

// addChild dispatches to the layout-specific insert, growing the node
// and updating *ref when it is full.
func (t *Tree) addChild(n artNode, ref *artNode, c byte, child artNode) {
	switch n.getNodeType() {
	case node4:
		t.addChild4(n.(*artNode4), ref, c, child)
	case node16:
		t.addChild16(n.(*artNode16), ref, c, child)
	case node48:
		t.addChild48(n.(*artNode48), ref, c, child)
	case node256:
		t.addChild256(n.(*artNode256), ref, c, child)
	default:
		panic("unknown node type")
	}
}

// removeChild dispatches to the layout-specific delete, shrinking the
// node and updating *ref when it underflows.
func (t *Tree) removeChild(n artNode, ref *artNode, c byte) {
	switch n.getNodeType() {
	case node4:
		t.removeChild4(n.(*artNode4), ref, c)
	case node16:
		t.removeChild16(n.(*artNode16), ref, c)
	case node48:
		t.removeChild48(n.(*artNode48), ref, c)
	case node256:
		t.removeChild256(n.(*artNode256), ref, c)
	default:
		panic("unknown node type")
	}
}

// prefixUpperBound returns the smallest key that sorts after every key
// beginning with prefix, or nil when no such bound exists.
func prefixUpperBound(prefix []byte) []byte {
	out := append([]byte(nil), prefix...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}
