// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "bytes"

// iterFrame tracks a node on the iterator's path along with the next
// traversal position inside it. A pos of -1 means the node's own leaf
// has not been emitted yet; afterwards pos is the resume position for
// nextChild.
type iterFrame struct {
	n   artNode
	pos int
}

// Iterator yields (key, row id) pairs in ascending key order, one pair
// per call. Keys carrying several row ids yield once per row id, in
// ascending row id order. The iterator is lazy: it holds a path stack
// into the tree and does no work beyond the next pair. It must not be
// used across modifications of the tree.
type Iterator struct {
	stack  []iterFrame
	leaf   *artLeaf
	ridPos int
	low    []byte
	high   []byte
}

// RangeScan returns an iterator over all keys k with low <= k < high.
// A nil low starts at the smallest key; a nil high runs to the end.
// Returned keys share the tree's storage and must not be modified.
func (t *Tree) RangeScan(low, high []byte) *Iterator {
	it := &Iterator{}
	it.low = append([]byte(nil), low...)
	it.high = append([]byte(nil), high...)
	if it.low != nil && it.high != nil && bytes.Compare(it.low, it.high) >= 0 {
		return it
	}
	if it.low == nil {
		it.stack = []iterFrame{{n: t.root, pos: -1}}
	} else {
		t.seekLowerBound(it)
	}
	return it
}

// ScanPrefix returns an iterator over every key that begins with prefix.
func (t *Tree) ScanPrefix(prefix []byte) *Iterator {
	return t.RangeScan(prefix, prefixUpperBound(prefix))
}

// Next returns the next (key, row id) pair, or false when the scan is
// done.
func (it *Iterator) Next() ([]byte, RowID, bool) {
	if it.leaf != nil {
		if it.ridPos < len(it.leaf.rowIDs) {
			return it.nextRowID()
		}
		it.leaf = nil
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		n := top.n

		if n.isLeaf() {
			it.stack = it.stack[:len(it.stack)-1]
			if it.admit(n.(*artLeaf)) {
				return it.nextRowID()
			}
			continue
		}

		// The node's own leaf sorts before all of its children.
		if top.pos == -1 {
			top.pos = 0
			if l := n.getLeaf(); l != nil && it.admit(l) {
				return it.nextRowID()
			}
			continue
		}

		child, pos := nextChild(n, top.pos)
		top.pos = pos
		if child == nil {
			it.stack = it.stack[:len(it.stack)-1]
			continue
		}
		if child.isLeaf() {
			if it.admit(child.(*artLeaf)) {
				return it.nextRowID()
			}
			continue
		}
		it.stack = append(it.stack, iterFrame{n: child, pos: -1})
	}
	return nil, 0, false
}

// admit filters a leaf against the scan bounds. Reaching the high bound
// ends the scan outright since leaves arrive in ascending order.
func (it *Iterator) admit(l *artLeaf) bool {
	if it.high != nil && bytes.Compare(l.key, it.high) >= 0 {
		it.stack = nil
		return false
	}
	if it.low != nil && bytes.Compare(l.key, it.low) < 0 {
		return false
	}
	it.leaf = l
	it.ridPos = 0
	return true
}

func (it *Iterator) nextRowID() ([]byte, RowID, bool) {
	l := it.leaf
	pos := it.ridPos
	it.ridPos++
	return l.key, l.rowIDs[pos], true
}
