// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package artindex

import (
	"fmt"
	"sync"
	"time"

	"github.com/armon/go-metrics"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
)

// IndexConfig configures a SecondaryIndex.
type IndexConfig struct {
	// Name identifies the index in logs, metrics and errors.
	Name string

	// Unique rejects duplicate keys instead of fanning out row ids.
	Unique bool

	// MaxPrefix overrides the per-node physical prefix storage. Zero
	// means the default.
	MaxPrefix int

	// MaxKeyLen bounds encoded key length. Zero means the default.
	MaxKeyLen int

	// CacheSize is the number of point lookups to cache. Zero disables
	// the cache.
	CacheSize int

	// Logger receives index lifecycle and failure logs. Nil discards
	// them.
	Logger hclog.Logger
}

func (c *IndexConfig) validate() error {
	var merr *multierror.Error
	if c.Name == "" {
		merr = multierror.Append(merr, fmt.Errorf("index name is required"))
	}
	if c.MaxPrefix < 0 {
		merr = multierror.Append(merr, fmt.Errorf("max prefix must not be negative"))
	}
	if c.MaxKeyLen < 0 {
		merr = multierror.Append(merr, fmt.Errorf("max key length must not be negative"))
	}
	if c.CacheSize < 0 {
		merr = multierror.Append(merr, fmt.Errorf("cache size must not be negative"))
	}
	return merr.ErrorOrNil()
}

// SecondaryIndex is a secondary index over encoded column values,
// mapping each key to the row ids bearing it. It wraps Tree with the
// locking a mixed reader/writer workload needs, an optional point
// lookup cache, logging and metrics. All methods are safe for
// concurrent use.
type SecondaryIndex struct {
	mu     sync.RWMutex
	tree   *Tree
	cache  *lru.Cache[string, []RowID]
	logger hclog.Logger
	name   string
}

// NewSecondaryIndex builds an index from cfg.
func NewSecondaryIndex(cfg IndexConfig) (*SecondaryIndex, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid index config: %w", err)
	}

	var opts []Option
	if cfg.MaxPrefix > 0 {
		opts = append(opts, WithMaxPrefix(cfg.MaxPrefix))
	}
	if cfg.MaxKeyLen > 0 {
		opts = append(opts, WithMaxKeyLen(cfg.MaxKeyLen))
	}
	if cfg.Unique {
		opts = append(opts, WithUnique())
	}

	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	idx := &SecondaryIndex{
		tree:   New(opts...),
		logger: logger.With("index", cfg.Name),
		name:   cfg.Name,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []RowID](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("building lookup cache: %w", err)
		}
		idx.cache = cache
	}
	idx.logger.Debug("index created", "unique", cfg.Unique, "cache_size", cfg.CacheSize)
	return idx, nil
}

// Name returns the index name.
func (i *SecondaryIndex) Name() string { return i.name }

// Insert files rid under key.
func (i *SecondaryIndex) Insert(key []byte, rid RowID) error {
	defer metrics.MeasureSince([]string{"artindex", "insert"}, time.Now())

	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.tree.Insert(key, rid); err != nil {
		return fmt.Errorf("index %s: %w", i.name, err)
	}
	if i.cache != nil {
		i.cache.Remove(string(key))
	}
	return nil
}

// Delete removes one (key, row id) pair.
func (i *SecondaryIndex) Delete(key []byte, rid RowID) error {
	defer metrics.MeasureSince([]string{"artindex", "delete"}, time.Now())

	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.tree.Erase(key, rid); err != nil {
		return fmt.Errorf("index %s: %w", i.name, err)
	}
	if i.cache != nil {
		i.cache.Remove(string(key))
	}
	return nil
}

// InsertBatch files a batch of (key, row id) pairs atomically: either
// every pair is applied or none is. On failure the applied pairs are
// rolled back and the first error is returned. Pairs that were already
// present before the batch are left in place by the rollback.
func (i *SecondaryIndex) InsertBatch(keys [][]byte, rids []RowID) error {
	if len(keys) != len(rids) {
		return fmt.Errorf("index %s: batch has %d keys and %d row ids", i.name, len(keys), len(rids))
	}
	defer metrics.MeasureSince([]string{"artindex", "insert_batch"}, time.Now())

	i.mu.Lock()
	defer i.mu.Unlock()

	inserted := make([]bool, len(keys))
	for j := range keys {
		before := i.tree.Rows()
		if err := i.tree.Insert(keys[j], rids[j]); err != nil {
			for k := j - 1; k >= 0; k-- {
				if !inserted[k] {
					continue
				}
				if rerr := i.tree.Erase(keys[k], rids[k]); rerr != nil {
					i.logger.Error("batch rollback failed", "error", rerr)
				}
			}
			if i.cache != nil {
				i.cache.Purge()
			}
			return fmt.Errorf("index %s: batch aborted at entry %d: %w", i.name, j, err)
		}
		inserted[j] = i.tree.Rows() > before
	}
	if i.cache != nil {
		i.cache.Purge()
	}
	return nil
}

// Lookup returns the row ids stored under key, nil when the key is
// absent. Hits are served from the cache when one is configured;
// mutations invalidate cached entries for the keys they touch.
func (i *SecondaryIndex) Lookup(key []byte) []RowID {
	defer metrics.MeasureSince([]string{"artindex", "lookup"}, time.Now())

	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.cache != nil {
		if rids, ok := i.cache.Get(string(key)); ok {
			metrics.IncrCounter([]string{"artindex", "cache", "hit"}, 1)
			return append([]RowID(nil), rids...)
		}
		metrics.IncrCounter([]string{"artindex", "cache", "miss"}, 1)
	}
	rids := i.tree.Search(key)
	if i.cache != nil && rids != nil {
		i.cache.Add(string(key), append([]RowID(nil), rids...))
	}
	return rids
}

// Scan collects up to maxCount row ids for keys in [low, high) in
// ascending key order. The second result reports whether the range
// fit: false means the scan exceeded maxCount and no ids are returned,
// letting the caller fall back to another access path.
func (i *SecondaryIndex) Scan(low, high []byte, maxCount int) ([]RowID, bool) {
	defer metrics.MeasureSince([]string{"artindex", "scan"}, time.Now())

	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []RowID
	it := i.tree.RangeScan(low, high)
	for _, rid, ok := it.Next(); ok; _, rid, ok = it.Next() {
		if len(out) >= maxCount {
			return nil, false
		}
		out = append(out, rid)
	}
	return out, true
}

// ScanReverse is Scan in descending key order.
func (i *SecondaryIndex) ScanReverse(low, high []byte, maxCount int) ([]RowID, bool) {
	defer metrics.MeasureSince([]string{"artindex", "scan_reverse"}, time.Now())

	i.mu.RLock()
	defer i.mu.RUnlock()

	var out []RowID
	it := i.tree.RangeScanReverse(low, high)
	for _, rid, ok := it.Previous(); ok; _, rid, ok = it.Previous() {
		if len(out) >= maxCount {
			return nil, false
		}
		out = append(out, rid)
	}
	return out, true
}

// Walk visits every key in ascending order under a read lock.
func (i *SecondaryIndex) Walk(fn WalkFn) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	i.tree.Walk(fn)
}

// Len returns the number of distinct keys.
func (i *SecondaryIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tree.Len()
}

// Rows returns the number of stored (key, row id) pairs.
func (i *SecondaryIndex) Rows() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tree.Rows()
}

// Stats reports the tree's node population.
func (i *SecondaryIndex) Stats() Stats {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.tree.Stats()
}

// Verify checks the structural invariants of the underlying tree.
func (i *SecondaryIndex) Verify() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.tree.Verify(); err != nil {
		i.logger.Error("index verification failed", "error", err)
		return fmt.Errorf("index %s: %w", i.name, err)
	}
	return nil
}
