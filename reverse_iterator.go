package artindex

import "bytes"

// revFrame mirrors iterFrame for descending traversal: pos counts down
// through a node's children, and -1 means only the node's own leaf
// remains to be emitted.
type revFrame struct {
	n   artNode
	pos int
}

// ReverseIterator yields (key, row id) pairs in descending key order,
// row ids descending within a key. Like Iterator it is lazy and must
// not be used across modifications of the tree.
type ReverseIterator struct {
	stack  []revFrame
	leaf   *artLeaf
	ridPos int
	low    []byte
	high   []byte
}

// RangeScanReverse returns an iterator over all keys k with
// low <= k < high in descending order. A nil high starts at the largest
// key; a nil low runs to the beginning. Returned keys share the tree's
// storage and must not be modified.
func (t *Tree) RangeScanReverse(low, high []byte) *ReverseIterator {
	it := &ReverseIterator{}
	it.low = append([]byte(nil), low...)
	it.high = append([]byte(nil), high...)
	if it.low != nil && it.high != nil && bytes.Compare(it.low, it.high) >= 0 {
		return it
	}
	if it.high == nil {
		it.stack = []revFrame{{n: t.root, pos: lastChildPos(t.root)}}
	} else {
		t.seekUpperBound(it)
	}
	return it
}

// Previous returns the next pair in descending order, or false when the
// scan is done.
func (it *ReverseIterator) Previous() ([]byte, RowID, bool) {
	if it.leaf != nil {
		if it.ridPos >= 0 {
			return it.prevRowID()
		}
		it.leaf = nil
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		n := top.n

		if n.isLeaf() {
			it.stack = it.stack[:len(it.stack)-1]
			if it.admit(n.(*artLeaf)) {
				return it.prevRowID()
			}
			continue
		}

		// The node's own leaf is the last thing out in reverse order.
		if top.pos == -1 {
			it.stack = it.stack[:len(it.stack)-1]
			if l := n.getLeaf(); l != nil && it.admit(l) {
				return it.prevRowID()
			}
			continue
		}

		child, pos := prevChild(n, top.pos)
		top.pos = pos
		if child == nil {
			continue
		}
		if child.isLeaf() {
			if it.admit(child.(*artLeaf)) {
				return it.prevRowID()
			}
			continue
		}
		it.stack = append(it.stack, revFrame{n: child, pos: lastChildPos(child)})
	}
	return nil, 0, false
}

// admit filters a leaf against the scan bounds. Passing below the low
// bound ends the scan outright since leaves arrive in descending order.
func (it *ReverseIterator) admit(l *artLeaf) bool {
	if it.low != nil && bytes.Compare(l.key, it.low) < 0 {
		it.stack = nil
		return false
	}
	if it.high != nil && bytes.Compare(l.key, it.high) >= 0 {
		return false
	}
	it.leaf = l
	it.ridPos = len(l.rowIDs) - 1
	return true
}

func (it *ReverseIterator) prevRowID() ([]byte, RowID, bool) {
	l := it.leaf
	pos := it.ridPos
	it.ridPos--
	return l.key, l.rowIDs[pos], true
}

// seekUpperBound descends toward the largest key < it.high, leaving
// resumption frames for each ancestor's earlier children. Keys that
// extend the bound sort at or above it and are pruned along the way.
func (t *Tree) seekUpperBound(it *ReverseIterator) {
	n := t.root
	depth := 0
	for n != nil {
		if n.isLeaf() {
			if bytes.Compare(n.(*artLeaf).key, it.high) < 0 {
				it.stack = append(it.stack, revFrame{n: n, pos: 0})
			}
			return
		}

		// Reaching the bound's length means the path equals the bound:
		// the node's leaf and everything below extend it.
		if depth >= len(it.high) {
			return
		}

		if pl := int(n.getPartialLen()); pl > 0 {
			eff := t.effectivePrefix(n, depth)
			rest := it.high[depth:]
			m := min(len(eff), len(rest))
			switch cmp := bytes.Compare(eff[:m], rest[:m]); {
			case cmp < 0:
				it.stack = append(it.stack, revFrame{n: n, pos: lastChildPos(n)})
				return
			case cmp > 0:
				return
			}
			if len(eff) >= len(rest) {
				return
			}
			depth += pl
		}

		// Find the last edge at or below the bound byte. A smaller edge
		// means the earlier children are all below the bound; an equal
		// edge descends. With no eligible edge only the node's own leaf,
		// a strict prefix of the bound, remains.
		c := it.high[depth]
		switch nd := n.(type) {
		case *artNode4:
			idx := nd.getUpperBoundCh(c)
			if idx == -1 {
				it.stack = append(it.stack, revFrame{n: n, pos: -1})
				return
			}
			if nd.keys[idx] < c {
				it.stack = append(it.stack, revFrame{n: n, pos: idx})
				return
			}
			it.stack = append(it.stack, revFrame{n: n, pos: idx - 1})
			n = nd.children[idx]
		case *artNode16:
			idx := nd.getUpperBoundCh(c)
			if idx == -1 {
				it.stack = append(it.stack, revFrame{n: n, pos: -1})
				return
			}
			if nd.keys[idx] < c {
				it.stack = append(it.stack, revFrame{n: n, pos: idx})
				return
			}
			it.stack = append(it.stack, revFrame{n: n, pos: idx - 1})
			n = nd.children[idx]
		case *artNode48:
			b := nd.prevPresentIdx(int(c))
			if b == -1 {
				it.stack = append(it.stack, revFrame{n: n, pos: -1})
				return
			}
			if b < int(c) {
				it.stack = append(it.stack, revFrame{n: n, pos: b})
				return
			}
			it.stack = append(it.stack, revFrame{n: n, pos: b - 1})
			n = nd.children[nd.keys[b]-1]
		case *artNode256:
			b := nd.prevPresentIdx(int(c))
			if b == -1 {
				it.stack = append(it.stack, revFrame{n: n, pos: -1})
				return
			}
			if b < int(c) {
				it.stack = append(it.stack, revFrame{n: n, pos: b})
				return
			}
			it.stack = append(it.stack, revFrame{n: n, pos: b - 1})
			n = nd.children[b]
		default:
			panic("unknown node type")
		}
		depth++
	}
}
