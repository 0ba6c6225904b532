// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "bytes"

// seekLowerBound descends toward the smallest key >= it.low, leaving
// resumption frames on the stack for each ancestor's remaining
// children. Prefix comparison decides whole subtrees at once: a prefix
// above the bound admits the subtree, a prefix below it prunes the
// subtree, and only an exact match keeps descending.
func (t *Tree) seekLowerBound(it *Iterator) {
	n := t.root
	depth := 0
	for n != nil {
		if n.isLeaf() {
			if bytes.Compare(n.(*artLeaf).key, it.low) >= 0 {
				it.stack = append(it.stack, iterFrame{n: n, pos: 0})
			}
			return
		}

		// Once the bound is consumed every key below n is in range.
		if depth >= len(it.low) {
			it.stack = append(it.stack, iterFrame{n: n, pos: -1})
			return
		}

		if pl := int(n.getPartialLen()); pl > 0 {
			eff := t.effectivePrefix(n, depth)
			rest := it.low[depth:]
			m := min(len(eff), len(rest))
			switch cmp := bytes.Compare(eff[:m], rest[:m]); {
			case cmp > 0:
				it.stack = append(it.stack, iterFrame{n: n, pos: -1})
				return
			case cmp < 0:
				return
			}
			if len(eff) >= len(rest) {
				it.stack = append(it.stack, iterFrame{n: n, pos: -1})
				return
			}
			depth += pl
		}

		// Find the first edge at or above the bound byte. A greater edge
		// means the bound diverged below this node's fan-out, so the
		// remaining children are all in range; an equal edge descends.
		c := it.low[depth]
		switch nd := n.(type) {
		case *artNode4:
			idx := nd.getLowerBoundCh(c)
			if idx == -1 {
				return
			}
			if nd.keys[idx] > c {
				it.stack = append(it.stack, iterFrame{n: n, pos: idx})
				return
			}
			it.stack = append(it.stack, iterFrame{n: n, pos: idx + 1})
			n = nd.children[idx]
		case *artNode16:
			idx := nd.getLowerBoundCh(c)
			if idx == -1 {
				return
			}
			if nd.keys[idx] > c {
				it.stack = append(it.stack, iterFrame{n: n, pos: idx})
				return
			}
			it.stack = append(it.stack, iterFrame{n: n, pos: idx + 1})
			n = nd.children[idx]
		case *artNode48:
			b := nd.nextPresentIdx(int(c))
			if b == -1 {
				return
			}
			if b > int(c) {
				it.stack = append(it.stack, iterFrame{n: n, pos: b})
				return
			}
			it.stack = append(it.stack, iterFrame{n: n, pos: b + 1})
			n = nd.children[nd.keys[b]-1]
		case *artNode256:
			b := nd.nextPresentIdx(int(c))
			if b == -1 {
				return
			}
			if b > int(c) {
				it.stack = append(it.stack, iterFrame{n: n, pos: b})
				return
			}
			it.stack = append(it.stack, iterFrame{n: n, pos: b + 1})
			n = nd.children[b]
		default:
			panic("unknown node type")
		}
		depth++
	}
}

// effectivePrefix returns n's full logical prefix, reading through to
// the minimum leaf when it overflows the stored bytes.
func (t *Tree) effectivePrefix(n artNode, depth int) []byte {
	pl := int(n.getPartialLen())
	if pl <= t.maxPrefix {
		return n.getPartial()[:pl]
	}
	l := minimum(n)
	return l.key[depth : depth+pl]
}
