package core

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/blocktreelabs/blocktree/core/types"
)

const (
	defaultCacheLimit = 64

	// nearHeadWindow is the span behind Head that shouldCache admits a
	// write into cache for, per the "near the head" admission policy.
	nearHeadWindow = 64
)

// caches bundles the three bounded LRUs the tree consults before
// touching a KVStore, mirroring headerCache/tdCache/numberCache in the
// teacher's HeaderChain — one cache per hot entity kind, sized
// independently.
type caches struct {
	headers *lru.Cache
	blocks  *lru.Cache
	levels  *lru.Cache
}

func newCaches(headerLimit, blockLimit, levelLimit int) (*caches, error) {
	if headerLimit <= 0 {
		headerLimit = defaultCacheLimit
	}
	if blockLimit <= 0 {
		blockLimit = defaultCacheLimit
	}
	if levelLimit <= 0 {
		levelLimit = defaultCacheLimit
	}
	headers, err := lru.New(headerLimit)
	if err != nil {
		return nil, err
	}
	blocks, err := lru.New(blockLimit)
	if err != nil {
		return nil, err
	}
	levels, err := lru.New(levelLimit)
	if err != nil {
		return nil, err
	}
	return &caches{headers: headers, blocks: blocks, levels: levels}, nil
}

func (c *caches) getHeader(hash types.Hash) (*types.BlockHeader, bool) {
	v, ok := c.headers.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(*types.BlockHeader), true
}

func (c *caches) putHeader(h *types.BlockHeader) {
	c.headers.Add(h.Hash, h)
}

func (c *caches) removeHeader(hash types.Hash) {
	c.headers.Remove(hash)
}

func (c *caches) getBlock(hash types.Hash) (*types.Block, bool) {
	v, ok := c.blocks.Get(hash)
	if !ok {
		return nil, false
	}
	return v.(*types.Block), true
}

func (c *caches) putBlock(b *types.Block) {
	c.blocks.Add(b.Header.Hash, b)
}

func (c *caches) removeBlock(hash types.Hash) {
	c.blocks.Remove(hash)
}

func (c *caches) getLevel(number uint64) (*types.ChainLevelInfo, bool) {
	v, ok := c.levels.Get(number)
	if !ok {
		return nil, false
	}
	return v.(*types.ChainLevelInfo), true
}

func (c *caches) putLevel(number uint64, l *types.ChainLevelInfo) {
	c.levels.Add(number, l)
}

func (c *caches) removeLevel(number uint64) {
	c.levels.Remove(number)
}

// shouldCache implements the "near the head" cache admission policy: a
// level/header/block is worth caching only if it is the genesis, there
// is no head yet (everything is near the frontier), or it falls within
// nearHeadWindow heights behind head (inclusive) or is the very next
// height above it.
func shouldCache(number uint64, head *types.BlockHeader) bool {
	if number == 0 || head == nil {
		return true
	}
	if number > head.Number+1 {
		return false
	}
	if head.Number >= nearHeadWindow && number <= head.Number-nearHeadWindow {
		return false
	}
	return true
}
