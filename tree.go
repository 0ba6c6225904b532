// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	defaultMaxPrefixLen = 10
	defaultMaxKeyLen    = 8192
)

// Tree is an adaptive radix tree mapping binary keys to sets of row ids.
// Keys compare bytewise, so any order-preserving encoding (see key.go)
// scans in value order. The tree performs no internal synchronization:
// a single writer must be exclusive with all readers, which is what
// SecondaryIndex layers on top.
type Tree struct {
	root artNode
	size uint64 // distinct keys
	rows uint64 // stored (key, row id) pairs

	maxPrefix int
	maxKeyLen int
	unique    bool
}

// Option configures a Tree.
type Option func(*Tree)

// WithMaxPrefix sets how many prefix bytes each node stores physically.
// Longer logical prefixes are reconstructed from leaves when needed.
func WithMaxPrefix(n int) Option {
	return func(t *Tree) { t.maxPrefix = n }
}

// WithMaxKeyLen bounds the length of inserted keys.
func WithMaxKeyLen(n int) Option {
	return func(t *Tree) { t.maxKeyLen = n }
}

// WithUnique makes Insert reject keys that are already present.
func WithUnique() Option {
	return func(t *Tree) { t.unique = true }
}

// New builds an empty tree. It panics when an option carries a value no
// tree can operate with, since that is a programming error rather than a
// runtime condition.
func New(opts ...Option) *Tree {
	t := &Tree{
		maxPrefix: defaultMaxPrefixLen,
		maxKeyLen: defaultMaxKeyLen,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.maxPrefix < 1 {
		panic(fmt.Sprintf("artindex: max prefix length must be at least 1, got %d", t.maxPrefix))
	}
	if t.maxKeyLen < 1 {
		panic(fmt.Sprintf("artindex: max key length must be at least 1, got %d", t.maxKeyLen))
	}
	t.root = t.allocNode(node4)
	return t
}

// Len returns the number of distinct keys.
func (t *Tree) Len() int {
	return int(t.size)
}

// Rows returns the number of stored (key, row id) pairs. It exceeds Len
// only on non-unique trees.
func (t *Tree) Rows() int {
	return int(t.rows)
}

// Insert files rid under key. On a unique tree a key that is already
// present fails with ErrDuplicateKey; on a non-unique tree the row id is
// added to the key's set and re-adding the same pair is a no-op.
func (t *Tree) Insert(key []byte, rid RowID) error {
	if len(key) > t.maxKeyLen {
		return ErrKeyTooLarge
	}
	return t.recursiveInsert(t.root, &t.root, key, rid, 0)
}

func (t *Tree) recursiveInsert(n artNode, ref *artNode, key []byte, rid RowID, depth int) error {
	if n == nil {
		*ref = newLeaf(key, rid)
		t.size++
		t.rows++
		return nil
	}

	// A leaf in a child slot either matches outright or is split into a
	// node4 holding both keys below their common prefix.
	if n.isLeaf() {
		l := n.(*artLeaf)
		if leafMatches(l.key, key) {
			return t.appendRowID(l, rid)
		}

		newL := newLeaf(key, rid)
		lcp := longestCommonPrefix(l.key, key, depth)
		nn := t.allocNode(node4).(*artNode4)
		nn.partialLen = uint32(lcp)
		copy(nn.partial, key[depth:depth+min(t.maxPrefix, lcp)])

		// At most one of the two keys can end at the new node.
		if depth+lcp == len(l.key) {
			nn.leaf = l
		} else {
			t.addChild4(nn, ref, l.key[depth+lcp], l)
		}
		if depth+lcp == len(key) {
			nn.leaf = newL
		} else {
			t.addChild4(nn, ref, key[depth+lcp], newL)
		}
		*ref = nn
		t.size++
		t.rows++
		return nil
	}

	if n.getPartialLen() > 0 {
		prefixDiff := t.prefixMismatch(n, key, depth)
		if prefixDiff >= int(n.getPartialLen()) {
			depth += int(n.getPartialLen())
			goto RECURSE
		}

		// The key diverges inside the compressed prefix: split it with a
		// new node4 holding the matching portion.
		nn := t.allocNode(node4).(*artNode4)
		nn.partialLen = uint32(prefixDiff)
		copy(nn.partial, n.getPartial()[:min(t.maxPrefix, prefixDiff)])

		if int(n.getPartialLen()) <= t.maxPrefix {
			edge := n.getPartial()[prefixDiff]
			n.setPartialLen(n.getPartialLen() - uint32(prefixDiff+1))
			rem := int(n.getPartialLen())
			copy(n.getPartial(), n.getPartial()[prefixDiff+1:prefixDiff+1+min(t.maxPrefix, rem)])
			t.addChild4(nn, ref, edge, n)
		} else {
			// The divergence point is past the stored bytes; rebuild the
			// truncated prefix from the minimum leaf.
			n.setPartialLen(n.getPartialLen() - uint32(prefixDiff+1))
			l := minimum(n)
			edge := l.key[depth+prefixDiff]
			rem := int(n.getPartialLen())
			copy(n.getPartial(), l.key[depth+prefixDiff+1:depth+prefixDiff+1+min(t.maxPrefix, rem)])
			t.addChild4(nn, ref, edge, n)
		}

		if depth+prefixDiff == len(key) {
			nn.leaf = newLeaf(key, rid)
		} else {
			t.addChild4(nn, ref, key[depth+prefixDiff], newLeaf(key, rid))
		}
		*ref = nn
		t.size++
		t.rows++
		return nil
	}

RECURSE:
	// A key consumed exactly to this node lives in the node's own leaf.
	if depth >= len(key) {
		if l := n.getLeaf(); l != nil {
			return t.appendRowID(l, rid)
		}
		n.setLeaf(newLeaf(key, rid))
		t.size++
		t.rows++
		return nil
	}

	child := findChild(n, key[depth])
	if child != nil {
		return t.recursiveInsert(*child, child, key, rid, depth+1)
	}

	t.addChild(n, ref, key[depth], newLeaf(key, rid))
	t.size++
	t.rows++
	return nil
}

func (t *Tree) appendRowID(l *artLeaf, rid RowID) error {
	if t.unique {
		return ErrDuplicateKey
	}
	if l.addRowID(rid) {
		t.rows++
	}
	return nil
}

// Search returns a copy of the row id set stored under key, or nil when
// the key is absent.
func (t *Tree) Search(key []byte) []RowID {
	n := t.root
	depth := 0
	for n != nil {
		if n.isLeaf() {
			l := n.(*artLeaf)
			if leafMatches(l.key, key) {
				return l.copyRowIDs()
			}
			return nil
		}

		// Bail if the stored prefix does not match. Overflowed prefixes
		// are only partially checked here; the leaf comparison below is
		// what settles it.
		if n.getPartialLen() > 0 {
			prefixLen := t.checkPrefix(n, key, depth)
			if prefixLen != min(t.maxPrefix, int(n.getPartialLen())) {
				return nil
			}
			depth += int(n.getPartialLen())
		}

		if depth >= len(key) {
			if depth == len(key) {
				if l := n.getLeaf(); l != nil && leafMatches(l.key, key) {
					return l.copyRowIDs()
				}
			}
			return nil
		}

		child := findChild(n, key[depth])
		if child == nil {
			return nil
		}
		n = *child
		depth++
	}
	return nil
}

// Erase removes one (key, row id) pair. Emptied leaves are detached,
// underflowing nodes shrink to the next smaller layout, and a non-root
// node left with a single child and no leaf is merged into that child.
// ErrNotFound reports a key or row id that is not present.
func (t *Tree) Erase(key []byte, rid RowID) error {
	if len(key) > t.maxKeyLen {
		return ErrNotFound
	}
	return t.recursiveErase(t.root, &t.root, key, rid, 0)
}

func (t *Tree) recursiveErase(n artNode, ref *artNode, key []byte, rid RowID, depth int) error {
	if n == nil {
		return ErrNotFound
	}

	if n.getPartialLen() > 0 {
		prefixLen := t.checkPrefix(n, key, depth)
		if prefixLen != min(t.maxPrefix, int(n.getPartialLen())) {
			return ErrNotFound
		}
		depth += int(n.getPartialLen())
	}

	if depth >= len(key) {
		if depth != len(key) {
			return ErrNotFound
		}
		l := n.getLeaf()
		if l == nil || !leafMatches(l.key, key) || !l.removeRowID(rid) {
			return ErrNotFound
		}
		t.rows--
		if len(l.rowIDs) == 0 {
			n.setLeaf(nil)
			t.size--
			if n4, ok := n.(*artNode4); ok {
				t.mergeChild(n4, ref)
			}
		}
		return nil
	}

	child := findChild(n, key[depth])
	if child == nil {
		return ErrNotFound
	}

	if (*child).isLeaf() {
		l := (*child).(*artLeaf)
		if !leafMatches(l.key, key) || !l.removeRowID(rid) {
			return ErrNotFound
		}
		t.rows--
		if len(l.rowIDs) == 0 {
			t.removeChild(n, ref, key[depth])
			t.size--
		}
		return nil
	}

	return t.recursiveErase(*child, child, key, rid, depth+1)
}

// Minimum returns the smallest key with its row ids.
func (t *Tree) Minimum() ([]byte, []RowID, bool) {
	l := minimum(t.root)
	if l == nil {
		return nil, nil, false
	}
	return append([]byte(nil), l.key...), l.copyRowIDs(), true
}

// Maximum returns the largest key with its row ids.
func (t *Tree) Maximum() ([]byte, []RowID, bool) {
	l := maximum(t.root)
	if l == nil {
		return nil, nil, false
	}
	return append([]byte(nil), l.key...), l.copyRowIDs(), true
}

// WalkFn is called for each key during a walk with the key's row ids.
// Returning true terminates the walk. The slices share the tree's
// storage and must not be modified or retained.
type WalkFn func(key []byte, rowIDs []RowID) bool

// Walk visits every key in ascending order.
func (t *Tree) Walk(fn WalkFn) {
	recursiveWalk(t.root, fn)
}

func recursiveWalk(n artNode, fn WalkFn) bool {
	if n == nil {
		return false
	}
	if n.isLeaf() {
		l := n.(*artLeaf)
		return fn(l.key, l.rowIDs)
	}
	if l := n.getLeaf(); l != nil && fn(l.key, l.rowIDs) {
		return true
	}
	for child, pos := nextChild(n, 0); child != nil; child, pos = nextChild(n, pos) {
		if recursiveWalk(child, fn) {
			return true
		}
	}
	return false
}

// Stats describes the shape of the tree.
type Stats struct {
	Node4   int
	Node16  int
	Node48  int
	Node256 int
	Leaves  int
	Keys    int
	Rows    int
}

// Stats walks every node and tallies the layout population. Intended
// for tests and debugging endpoints, not hot paths.
func (t *Tree) Stats() Stats {
	s := Stats{
		Keys: int(t.size),
		Rows: int(t.rows),
	}
	for it := t.newRawIterator(); it.Next(); {
		n := it.Front()
		switch n.getNodeType() {
		case leafType:
			s.Leaves++
		case node4:
			s.Node4++
		case node16:
			s.Node16++
		case node48:
			s.Node48++
		case node256:
			s.Node256++
		}
		if !n.isLeaf() && n.getLeaf() != nil {
			s.Leaves++
		}
	}
	return s
}

// Verify sweeps the tree checking its structural invariants: child
// counts within layout bounds, sorted edges, a consistent node48 slot
// map, prefixes agreeing with the leaves below them, and fully applied
// path compression. All findings are aggregated into one error.
func (t *Tree) Verify() error {
	var merr *multierror.Error

	if t.root == nil {
		merr = multierror.Append(merr, fmt.Errorf("nil root"))
		return merr.ErrorOrNil()
	}
	if t.root.isLeaf() {
		merr = multierror.Append(merr, fmt.Errorf("root degraded to a leaf"))
		return merr.ErrorOrNil()
	}

	keys, rows := 0, 0
	for it := t.newRawIterator(); it.Next(); {
		n := it.Front()
		depth := it.Depth()

		if n.isLeaf() {
			l := n.(*artLeaf)
			keys++
			rows += len(l.rowIDs)
			merr = t.verifyLeaf(merr, l, depth)
			continue
		}

		if l := n.getLeaf(); l != nil {
			keys++
			rows += len(l.rowIDs)
			merr = t.verifyLeaf(merr, l, depth+int(n.getPartialLen()))
			if want := depth + int(n.getPartialLen()); len(l.key) != want {
				merr = multierror.Append(merr, fmt.Errorf(
					"inline leaf key %q has length %d, node path consumes %d", l.key, len(l.key), want))
			}
		}
		merr = t.verifyInner(merr, n, depth)
	}

	if keys != int(t.size) {
		merr = multierror.Append(merr, fmt.Errorf("key count %d does not match size %d", keys, t.size))
	}
	if rows != int(t.rows) {
		merr = multierror.Append(merr, fmt.Errorf("row count %d does not match rows %d", rows, t.rows))
	}
	return merr.ErrorOrNil()
}

func (t *Tree) verifyLeaf(merr *multierror.Error, l *artLeaf, depth int) *multierror.Error {
	if len(l.rowIDs) == 0 {
		merr = multierror.Append(merr, fmt.Errorf("leaf %q has no row ids", l.key))
	}
	for i := 1; i < len(l.rowIDs); i++ {
		if l.rowIDs[i-1] >= l.rowIDs[i] {
			merr = multierror.Append(merr, fmt.Errorf("leaf %q row ids not strictly ascending", l.key))
			break
		}
	}
	if len(l.key) < depth {
		merr = multierror.Append(merr, fmt.Errorf("leaf %q shorter than its path depth %d", l.key, depth))
	}
	return merr
}

func (t *Tree) verifyInner(merr *multierror.Error, n artNode, depth int) *multierror.Error {
	isRoot := n == t.root
	num := int(n.getNumChildren())

	lo, hi := 0, 0
	switch n.getNodeType() {
	case node4:
		lo, hi = 1, 4
		if isRoot {
			lo = 0
		}
	case node16:
		lo, hi = 4, 16
	case node48:
		lo, hi = 13, 48
	case node256:
		lo, hi = 38, 256
	}
	if num < lo || num > hi {
		merr = multierror.Append(merr, fmt.Errorf(
			"%s with %d children outside [%d, %d]", nodeTypeName(n.getNodeType()), num, lo, hi))
	}
	if !isRoot && num == 1 && n.getLeaf() == nil {
		merr = multierror.Append(merr, fmt.Errorf(
			"unmerged single-child %s without leaf", nodeTypeName(n.getNodeType())))
	}

	switch nd := n.(type) {
	case *artNode4:
		merr = verifySortedEdges(merr, nd.keys[:num], nd.children[:num])
	case *artNode16:
		merr = verifySortedEdges(merr, nd.keys[:num], nd.children[:num])
	case *artNode48:
		mapped := 0
		var used [48]bool
		for b := 0; b < 256; b++ {
			idx := nd.keys[b]
			if idx == 0 {
				continue
			}
			mapped++
			if nd.children[idx-1] == nil {
				merr = multierror.Append(merr, fmt.Errorf("node48 byte %#x maps to empty slot %d", b, idx-1))
			}
			if used[idx-1] {
				merr = multierror.Append(merr, fmt.Errorf("node48 slot %d mapped twice", idx-1))
			}
			used[idx-1] = true
		}
		if mapped != num {
			merr = multierror.Append(merr, fmt.Errorf("node48 maps %d bytes but counts %d children", mapped, num))
		}
	case *artNode256:
		present := 0
		for b := 0; b < 256; b++ {
			if nd.children[b] != nil {
				present++
			}
		}
		if present != num {
			merr = multierror.Append(merr, fmt.Errorf("node256 holds %d children but counts %d", present, num))
		}
	}

	// The stored prefix must agree with any leaf below the node.
	if pl := int(n.getPartialLen()); pl > 0 {
		stored := min(pl, t.maxPrefix)
		l := minimum(n)
		switch {
		case l == nil:
			merr = multierror.Append(merr, fmt.Errorf("prefixed %s has no leaf below it", nodeTypeName(n.getNodeType())))
		case len(l.key) < depth+stored:
			merr = multierror.Append(merr, fmt.Errorf(
				"leaf %q too short for prefix of length %d at depth %d", l.key, pl, depth))
		case !bytes.Equal(l.key[depth:depth+stored], n.getPartial()[:stored]):
			merr = multierror.Append(merr, fmt.Errorf(
				"stored prefix %q disagrees with leaf %q at depth %d", n.getPartial()[:stored], l.key, depth))
		}
	}
	return merr
}

func verifySortedEdges(merr *multierror.Error, keys []byte, children []artNode) *multierror.Error {
	for i := 0; i < len(keys); i++ {
		if children[i] == nil {
			merr = multierror.Append(merr, fmt.Errorf("edge %#x has no child", keys[i]))
		}
		if i > 0 && keys[i-1] >= keys[i] {
			merr = multierror.Append(merr, fmt.Errorf("edges not strictly ascending at %#x", keys[i]))
		}
	}
	return merr
}

func nodeTypeName(k nodeType) string {
	switch k {
	case leafType:
		return "leaf"
	case node4:
		return "node4"
	case node16:
		return "node16"
	case node48:
		return "node48"
	case node256:
		return "node256"
	default:
		return "unknown"
	}
}
