// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import "sort"

// RowID identifies a row in the storage the index points into.
type RowID int64

// artLeaf stores a full copy of an indexed key together with the set of
// row ids filed under it. The set holds a single element for unique
// trees and stays sorted so scans emit row ids in a stable order.
type artLeaf struct {
	key    []byte
	rowIDs []RowID
}

func newLeaf(key []byte, rid RowID) *artLeaf {
	l := &artLeaf{
		key:    make([]byte, len(key)),
		rowIDs: []RowID{rid},
	}
	copy(l.key, key)
	return l
}

// addRowID inserts rid keeping the set sorted. It reports whether the
// set changed; inserting a row id that is already present is a no-op.
func (l *artLeaf) addRowID(rid RowID) bool {
	idx := sort.Search(len(l.rowIDs), func(i int) bool {
		return l.rowIDs[i] >= rid
	})
	if idx < len(l.rowIDs) && l.rowIDs[idx] == rid {
		return false
	}
	l.rowIDs = append(l.rowIDs, 0)
	copy(l.rowIDs[idx+1:], l.rowIDs[idx:])
	l.rowIDs[idx] = rid
	return true
}

// removeRowID deletes rid from the set, reporting whether it was present.
func (l *artLeaf) removeRowID(rid RowID) bool {
	idx := sort.Search(len(l.rowIDs), func(i int) bool {
		return l.rowIDs[i] >= rid
	})
	if idx >= len(l.rowIDs) || l.rowIDs[idx] != rid {
		return false
	}
	l.rowIDs = append(l.rowIDs[:idx], l.rowIDs[idx+1:]...)
	return true
}

func (l *artLeaf) copyRowIDs() []RowID {
	out := make([]RowID, len(l.rowIDs))
	copy(out, l.rowIDs)
	return out
}

func (l *artLeaf) getNodeType() nodeType {
	return leafType
}

func (l *artLeaf) getPartialLen() uint32 {
	// no-op
	return 0
}

func (l *artLeaf) setPartialLen(partialLen uint32) {
	// no-op
}

func (l *artLeaf) getPartial() []byte {
	// no-op
	return nil
}

func (l *artLeaf) setPartial(partial []byte) {
	// no-op
}

func (l *artLeaf) getNumChildren() uint16 {
	return 0
}

func (l *artLeaf) setNumChildren(numChildren uint16) {
	// no-op
}

func (l *artLeaf) getLeaf() *artLeaf {
	return l
}

func (l *artLeaf) setLeaf(*artLeaf) {
	// no-op
}

func (l *artLeaf) isLeaf() bool {
	return true
}
