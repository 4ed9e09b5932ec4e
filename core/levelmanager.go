package core

import (
	"sync"

	"github.com/blocktreelabs/blocktree/core/rawdb"
	"github.com/blocktreelabs/blocktree/core/types"
)

// levelManager owns the per-height ChainLevelInfo store: a cache in
// front of the meta KVStore namespace, serialized by a single
// reader-writer lock exactly as the teacher's HeaderChain serializes
// its canonical-hash rewrite — one lock, not one per level, because the
// processor's single-writer discipline keeps contention low.
type levelManager struct {
	mu sync.RWMutex

	meta   rawdb.KVStore
	codec  types.Codec
	caches *caches

	bestKnownNumber uint64
}

func newLevelManager(meta rawdb.KVStore, codec types.Codec, caches *caches) *levelManager {
	return &levelManager{meta: meta, codec: codec, caches: caches}
}

// loadLevel returns the ChainLevelInfo at n. When forceLoad is false and
// n exceeds BestKnownNumber, it returns (nil, false, nil) without
// touching the cache or store — the caller already knows no level can
// exist there. Stale cache reads are acceptable: persisted level bytes
// only change under the write lock, which any mutator already holds.
func (lm *levelManager) loadLevel(n uint64, forceLoad bool) (*types.ChainLevelInfo, bool, error) {
	if !forceLoad && n > lm.BestKnownNumber() {
		return nil, false, nil
	}
	if level, ok := lm.caches.getLevel(n); ok {
		return level, true, nil
	}
	raw, ok, err := rawdb.ReadLevel(lm.meta, n)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	level, err := lm.codec.DecodeLevel(raw)
	if err != nil {
		return nil, false, err
	}
	lm.caches.putLevel(n, level)
	return level, true, nil
}

// persistLevel writes level at n through to both the cache (subject to
// shouldCache) and the meta store. Callers must hold mu for writing.
func (lm *levelManager) persistLevel(n uint64, level *types.ChainLevelInfo, head *types.BlockHeader) error {
	raw, err := lm.codec.EncodeLevel(level)
	if err != nil {
		return err
	}
	if err := rawdb.WriteLevel(lm.meta, n, raw); err != nil {
		return err
	}
	if shouldCache(n, head) {
		lm.caches.putLevel(n, level)
	}
	return nil
}

// deleteLevel removes level n from both the cache and the meta store.
// Callers must hold mu for writing.
func (lm *levelManager) deleteLevel(n uint64) error {
	lm.caches.removeLevel(n)
	return rawdb.DeleteLevel(lm.meta, n)
}

// updateOrCreateLevel appends info to the level at n, creating it if
// absent. The caller is responsible for having already verified info's
// hash isn't already present (via IsKnownBlock) — this method never
// de-duplicates. Callers must hold mu for writing.
func (lm *levelManager) updateOrCreateLevel(n uint64, info types.BlockInfo, head *types.BlockHeader) (*types.ChainLevelInfo, error) {
	level, ok, err := lm.loadLevel(n, true)
	if err != nil {
		return nil, err
	}
	if ok {
		level.BlockInfos = append(level.BlockInfos, info)
	} else {
		level = &types.ChainLevelInfo{HasBlockOnMainChain: false, BlockInfos: []types.BlockInfo{info}}
		if n > lm.bestKnownNumber {
			lm.bestKnownNumber = n
		}
	}
	if err := lm.persistLevel(n, level, head); err != nil {
		return nil, err
	}
	return level, nil
}

// findIndex returns the position of hash within level.BlockInfos, or -1
// if absent. Levels are expected small (typically 1-3 forks), so a
// linear scan is the right tool.
func findIndex(level *types.ChainLevelInfo, hash types.Hash) int {
	if level == nil {
		return -1
	}
	for i, bi := range level.BlockInfos {
		if bi.BlockHash == hash {
			return i
		}
	}
	return -1
}

// BestKnownNumber returns the highest height for which a level exists.
func (lm *levelManager) BestKnownNumber() uint64 {
	lm.mu.RLock()
	defer lm.mu.RUnlock()
	return lm.bestKnownNumber
}

func (lm *levelManager) setBestKnownNumber(n uint64) {
	lm.bestKnownNumber = n
}

// clampBestKnownNumberLocked lowers bestKnownNumber to n if n is
// smaller. Callers must already hold mu for writing.
func (lm *levelManager) clampBestKnownNumberLocked(n uint64) {
	if n < lm.bestKnownNumber {
		lm.bestKnownNumber = n
	}
}

// recomputeBestKnownNumber reconstructs BestKnownNumber at startup by
// binary-searching the meta store for the largest height with a stored
// level, probing heights in [headNumber, headNumber+10_000_000] and
// always bypassing the cache.
func (lm *levelManager) recomputeBestKnownNumber(headNumber uint64) error {
	lo, hi := headNumber, headNumber+10_000_000
	exists := func(n uint64) (bool, error) {
		_, ok, err := lm.loadLevel(n, true)
		return ok, err
	}
	ok, err := exists(lo)
	if err != nil {
		return err
	}
	if !ok {
		lm.mu.Lock()
		lm.bestKnownNumber = 0
		lm.mu.Unlock()
		return nil
	}
	best := lo
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		ok, err := exists(mid)
		if err != nil {
			return err
		}
		if ok {
			best = mid
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	lm.mu.Lock()
	lm.bestKnownNumber = best
	lm.mu.Unlock()
	return nil
}
