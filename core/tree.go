package core

import (
	"math/big"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/blocktreelabs/blocktree/core/rawdb"
	"github.com/blocktreelabs/blocktree/core/types"
)

// BlockTree is the block tree index: an LRU-fronted pair of object
// stores (headers, blocks) plus a level-indexed metadata store, guarded
// by a single level read-write lock, implementing suggestion,
// fork-choice promotion and invalid-block cleanup. The zero value is
// not usable; construct with NewBlockTree.
type BlockTree struct {
	store  *rawdb.Store
	codec  types.Codec
	caches *caches
	levels *levelManager
	config Config

	specProvider SpecProvider
	txPool       TxPool
	log          log.Logger

	events eventFeeds

	genesis                atomic.Pointer[types.BlockHeader]
	head                    atomic.Pointer[types.BlockHeader]
	bestSuggested           atomic.Pointer[types.BlockHeader]
	bestSuggestedFullBlock  atomic.Pointer[types.BlockHeader]
	canAcceptNewBlocks      atomic.Bool

	invalid invalidSet

	batchMu      sync.Mutex
	pendingBatch *pendingBatch
}

// pendingBatch is the single-producer/single-consumer rendezvous
// LoadBlocksFromDb arms and UpdateHeadBlock fulfills once Head reaches
// targetNumber.
type pendingBatch struct {
	targetNumber uint64
	done         chan error
}

// NewBlockTree constructs a BlockTree over store, reloading Head,
// Genesis and BestKnownNumber from the meta namespace. codec may be nil,
// in which case RLPCodec{} is used.
func NewBlockTree(store *rawdb.Store, codec types.Codec, cfg Config, specProvider SpecProvider, txPool TxPool) (*BlockTree, error) {
	if codec == nil {
		codec = RLPCodec{}
	}
	caches, err := newCaches(cfg.HeaderCacheLimit, cfg.BlockCacheLimit, cfg.LevelCacheLimit)
	if err != nil {
		return nil, err
	}
	t := &BlockTree{
		store:        store,
		codec:        codec,
		caches:       caches,
		levels:       newLevelManager(store.Meta, codec, caches),
		config:       cfg,
		specProvider: specProvider,
		txPool:       txPool,
		log:          log.Root(),
		invalid:      newInvalidSet(),
	}
	t.canAcceptNewBlocks.Store(true)

	headNumber := uint64(0)
	if headHash, ok, err := rawdb.ReadHead(store.Meta); err != nil {
		return nil, err
	} else if ok && headHash != (types.Hash{}) {
		head, err := t.loadHeaderRaw(headHash)
		if err != nil {
			return nil, err
		}
		if head != nil {
			if err := t.attachTD(head); err != nil {
				return nil, err
			}
			t.head.Store(head)
			headNumber = head.Number
		}
	}
	if genesis, err := t.FindHeaderByNumber(0); err == nil {
		t.genesis.Store(genesis)
	}
	if err := t.levels.recomputeBestKnownNumber(headNumber); err != nil {
		return nil, err
	}
	return t, nil
}

// Genesis returns the genesis header, or nil if none has been promoted
// yet.
func (t *BlockTree) Genesis() *types.BlockHeader { return t.genesis.Load() }

// Head returns the processed block terminating the current main chain,
// or nil before any block has been promoted.
func (t *BlockTree) Head() *types.BlockHeader { return t.head.Load() }

// BestSuggested returns the known header (any branch) with the highest
// total difficulty, or nil if nothing has been suggested yet.
func (t *BlockTree) BestSuggested() *types.BlockHeader { return t.bestSuggested.Load() }

// BestSuggestedFullBlock returns the highest-TD header for which a full
// block body was also suggested with shouldProcess=true.
func (t *BlockTree) BestSuggestedFullBlock() *types.BlockHeader { return t.bestSuggestedFullBlock.Load() }

// BestKnownNumber returns the highest height for which a level exists.
func (t *BlockTree) BestKnownNumber() uint64 { return t.levels.BestKnownNumber() }

// CanAcceptNewBlocks reports whether Suggest* currently accepts blocks.
func (t *BlockTree) CanAcceptNewBlocks() bool { return t.canAcceptNewBlocks.Load() }

// ChainID proxies the configured spec provider's chain identifier.
func (t *BlockTree) ChainID() *big.Int {
	if t.specProvider == nil {
		return nil
	}
	return t.specProvider.ChainID()
}

// SyncStatus is a point-in-time snapshot of the tree's progress,
// intended for an RPC layer's syncing-status endpoint.
type SyncStatus struct {
	BestKnownNumber       uint64
	HeadNumber            uint64
	BestSuggestedNumber   uint64
}

// Metadata returns a snapshot of the tree's current progress markers.
func (t *BlockTree) Metadata() SyncStatus {
	s := SyncStatus{BestKnownNumber: t.BestKnownNumber()}
	if h := t.Head(); h != nil {
		s.HeadNumber = h.Number
	}
	if b := t.BestSuggested(); b != nil {
		s.BestSuggestedNumber = b.Number
	}
	return s
}

// --- suggestion ---

// SuggestHeader indexes a header-only block (no body known yet), the
// fast-sync path.
func (t *BlockTree) SuggestHeader(h *types.BlockHeader) (types.AddBlockResult, error) {
	return t.suggest(h, nil, false)
}

// SuggestBlock indexes a full block. shouldProcess marks whether the
// caller intends to hand it to a Processor; BestSuggestedFullBlock only
// advances for blocks suggested with shouldProcess=true.
func (t *BlockTree) SuggestBlock(b *types.Block, shouldProcess bool) (types.AddBlockResult, error) {
	return t.suggest(b.Header, b, shouldProcess)
}

func (t *BlockTree) suggest(h *types.BlockHeader, block *types.Block, shouldProcess bool) (types.AddBlockResult, error) {
	if !t.CanAcceptNewBlocks() {
		return types.CannotAccept, nil
	}
	if t.invalid.contains(h.Number, h.Hash) {
		return types.InvalidBlock, nil
	}
	if h.IsGenesis() {
		if t.BestSuggested() != nil {
			return 0, &InvariantError{Msg: "genesis suggested after a best-suggested header already exists"}
		}
	} else {
		if t.IsKnownBlock(h.Number, h.Hash) {
			return types.AlreadyKnown, nil
		}
		if !t.IsKnownBlock(h.Number-1, h.ParentHash) {
			return types.UnknownParent, nil
		}
	}

	td, err := t.totalDifficultyForNewHeader(h)
	if err != nil {
		return 0, err
	}
	h.TotalDifficulty = td

	if block != nil {
		raw, err := t.codec.EncodeBlock(block)
		if err != nil {
			return 0, err
		}
		if err := rawdb.WriteBlock(t.store.Blocks, h.Hash, raw); err != nil {
			return 0, err
		}
	}
	rawHeader, err := t.codec.EncodeHeader(h)
	if err != nil {
		return 0, err
	}
	if err := rawdb.WriteHeader(t.store.Headers, h.Hash, rawHeader); err != nil {
		return 0, err
	}

	head := t.Head()
	if shouldCache(h.Number, head) {
		t.caches.putHeader(h)
		if block != nil {
			t.caches.putBlock(block)
		}
	}

	t.levels.mu.Lock()
	_, err = t.levels.updateOrCreateLevel(h.Number, types.BlockInfo{
		BlockHash:       h.Hash,
		TotalDifficulty: td,
		WasProcessed:    false,
	}, head)
	t.levels.mu.Unlock()
	if err != nil {
		return 0, err
	}

	bestTD := big.NewInt(0)
	if best := t.BestSuggested(); best != nil {
		bestTD = best.TotalDifficulty
	}
	if h.IsGenesis() || td.Cmp(bestTD) > 0 {
		t.bestSuggested.Store(h)
		if block != nil && shouldProcess {
			t.bestSuggestedFullBlock.Store(h)
		}
		t.events.bestSuggestedFeed.Send(types.NewBestSuggestedBlockEvent{Header: h})
	}
	return types.Added, nil
}

// totalDifficultyForNewHeader computes TD for a freshly-suggested
// header by reading its parent's BlockInfo at level number-1 (the
// parent is already known to exist, per the caller's UnknownParent
// check).
func (t *BlockTree) totalDifficultyForNewHeader(h *types.BlockHeader) (*big.Int, error) {
	if h.IsGenesis() {
		return new(big.Int).Set(h.Difficulty), nil
	}
	level, ok, err := t.levels.loadLevel(h.Number-1, true)
	if err != nil {
		return nil, err
	}
	if ok {
		if idx := findIndex(level, h.ParentHash); idx != -1 {
			parentTD := level.BlockInfos[idx].TotalDifficulty
			return new(big.Int).Add(parentTD, h.Difficulty), nil
		}
	}
	parent, err := t.loadHeaderRaw(h.ParentHash)
	if err != nil {
		return nil, err
	}
	if parent == nil {
		return nil, &InvariantError{Msg: "orphan header during total difficulty computation"}
	}
	parentTD, err := t.totalDifficultyForHeader(parent)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Add(parentTD, h.Difficulty), nil
}

// totalDifficultyForHeader resolves an already-known header's TD,
// preferring its BlockInfo and falling back to walking ancestors when
// the BlockInfo is missing (lazy repair).
func (t *BlockTree) totalDifficultyForHeader(h *types.BlockHeader) (*big.Int, error) {
	if h.IsGenesis() {
		return new(big.Int).Set(h.Difficulty), nil
	}
	level, ok, err := t.levels.loadLevel(h.Number, true)
	if err != nil {
		return nil, err
	}
	if ok {
		if idx := findIndex(level, h.Hash); idx != -1 {
			return level.BlockInfos[idx].TotalDifficulty, nil
		}
	}
	return t.totalDifficultyForNewHeader(h)
}

// attachTD populates h.TotalDifficulty from the matching BlockInfo. If
// the BlockInfo is missing entirely (a header/block persisted without
// one, from a crash between writes), it is lazily repaired: the TD is
// computed from ancestors and a BlockInfo is synthesized, guarded
// against duplication by the same findIndex check.
func (t *BlockTree) attachTD(h *types.BlockHeader) error {
	level, ok, err := t.levels.loadLevel(h.Number, true)
	if err != nil {
		return err
	}
	if ok {
		if idx := findIndex(level, h.Hash); idx != -1 {
			h.TotalDifficulty = level.BlockInfos[idx].TotalDifficulty
			return nil
		}
	}
	td, err := t.totalDifficultyForHeader(h)
	if err != nil {
		return err
	}
	h.TotalDifficulty = td

	t.levels.mu.Lock()
	level, ok, err = t.levels.loadLevel(h.Number, true)
	if err == nil && ok && findIndex(level, h.Hash) != -1 {
		t.levels.mu.Unlock()
		return nil
	}
	if err != nil {
		t.levels.mu.Unlock()
		return err
	}
	_, err = t.levels.updateOrCreateLevel(h.Number, types.BlockInfo{
		BlockHash:       h.Hash,
		TotalDifficulty: td,
		WasProcessed:    false,
	}, t.Head())
	t.levels.mu.Unlock()
	return err
}

// --- promotion ---

// UpdateMainChain promotes a contiguous run of processed blocks
// (strictly ascending or descending in number) onto the main chain.
func (t *BlockTree) UpdateMainChain(processedBlocks []*types.Block) error {
	if len(processedBlocks) == 0 {
		return nil
	}
	ordered := make([]*types.Block, len(processedBlocks))
	copy(ordered, processedBlocks)
	sortBlocksAscending(ordered)

	lastNumber := ordered[len(ordered)-1].Number()
	previousHeadNumber := uint64(0)
	if head := t.Head(); head != nil {
		previousHeadNumber = head.Number
	}

	t.levels.mu.Lock()
	defer t.levels.mu.Unlock()

	if previousHeadNumber > lastNumber {
		for n := lastNumber + 1; n <= previousHeadNumber; n++ {
			level, ok, err := t.levels.loadLevel(n, true)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			level.HasBlockOnMainChain = false
			if err := t.levels.persistLevel(n, level, t.Head()); err != nil {
				return err
			}
		}
	}

	for _, block := range ordered {
		if shouldCache(block.Number(), t.Head()) {
			t.caches.putBlock(block)
			t.caches.putHeader(block.Header)
		}
		if err := t.moveToMainLocked(block); err != nil {
			return err
		}
	}
	return nil
}

// MoveToMain promotes a single processed block onto the main chain,
// without the preceding level-flag sweep UpdateMainChain performs. Most
// callers should use UpdateMainChain; this exists for direct single-block
// promotion.
func (t *BlockTree) MoveToMain(block *types.Block) error {
	t.levels.mu.Lock()
	defer t.levels.mu.Unlock()
	return t.moveToMainLocked(block)
}

func (t *BlockTree) moveToMainLocked(block *types.Block) error {
	level, ok, err := t.levels.loadLevel(block.Number(), true)
	if err != nil {
		return err
	}
	if !ok {
		return &InvariantError{Msg: "move-to-main of unknown block"}
	}
	idx := findIndex(level, block.Hash())
	if idx == -1 {
		return &InvariantError{Msg: "move-to-main of unknown block"}
	}

	level.BlockInfos[idx].WasProcessed = true
	if idx != 0 {
		level.BlockInfos[0], level.BlockInfos[idx] = level.BlockInfos[idx], level.BlockInfos[0]
	}
	level.HasBlockOnMainChain = true
	if err := t.levels.persistLevel(block.Number(), level, t.Head()); err != nil {
		return err
	}

	t.events.addedToMainFeed.Send(types.BlockAddedToMainEvent{Block: block})

	blockTD := level.BlockInfos[0].TotalDifficulty
	headTD := big.NewInt(0)
	if head := t.Head(); head != nil {
		headTD = head.TotalDifficulty
	}
	if block.IsGenesis() || blockTD.Cmp(headTD) > 0 {
		block.Header.TotalDifficulty = blockTD
		if err := t.UpdateHeadBlock(block); err != nil {
			return err
		}
	}

	if t.txPool != nil {
		for _, tx := range block.Body.Transactions {
			t.txPool.RemoveTransaction(tx.Hash())
		}
	}
	return nil
}

// UpdateHeadBlock advances Head to block, persists the meta HEAD_KEY
// sentinel, and emits NewHeadBlock. If a DB-load batch is awaiting a
// head at or below block.Number(), its rendezvous is fulfilled.
func (t *BlockTree) UpdateHeadBlock(block *types.Block) error {
	if block.IsGenesis() {
		t.genesis.Store(block.Header)
	}
	t.head.Store(block.Header)
	if err := rawdb.WriteHead(t.store.Meta, block.Hash()); err != nil {
		return err
	}
	t.events.newHeadFeed.Send(types.NewHeadBlockEvent{Header: block.Header})
	t.completeBatchIfAwaiting(block.Number(), nil)
	return nil
}

// --- invalidation ---

// DeleteInvalidBlock marks b as invalid, resets BestSuggested to Head,
// and removes b and all of its descendants from the index.
func (t *BlockTree) DeleteInvalidBlock(b *types.BlockHeader) error {
	t.invalid.add(b.Number, b.Hash)

	head := t.Head()
	t.bestSuggested.Store(head)
	t.bestSuggestedFullBlock.Store(head)

	t.canAcceptNewBlocks.Store(false)
	defer t.canAcceptNewBlocks.Store(true)

	return t.CleanInvalidBlocks(b.Hash)
}

// CleanInvalidBlocks walks downward from startHash (toward higher
// numbers) following parent pointers, removing each descendant from all
// four stores. It is resumable: it records its progress in the meta
// DELETE_POINTER_KEY sentinel, so re-invoking it with a hash read back
// from that sentinel after a crash completes the same cleanup.
func (t *BlockTree) CleanInvalidBlocks(startHash types.Hash) error {
	currentHash := startHash
	for {
		currentHeader, err := t.loadHeaderRaw(currentHash)
		if err != nil {
			return err
		}
		if currentHeader == nil {
			return rawdb.ClearDeletePointer(t.store.Meta)
		}
		currentNumber := currentHeader.Number

		nextHash, haveNext, err := t.cleanOneLevel(currentNumber, currentHash)
		if err != nil {
			return err
		}

		t.caches.removeHeader(currentHash)
		t.caches.removeBlock(currentHash)
		if err := rawdb.DeleteHeader(t.store.Headers, currentHash); err != nil {
			return err
		}
		if err := rawdb.DeleteBlock(t.store.Blocks, currentHash); err != nil {
			return err
		}

		if !haveNext {
			return nil
		}
		currentHash = nextHash
	}
}

// cleanOneLevel performs one iteration of CleanInvalidBlocks's level
// bookkeeping: removing currentHash from its level (or the whole level,
// if it was the only entry), and locating the descendant to continue
// with at currentNumber+1.
func (t *BlockTree) cleanOneLevel(currentNumber uint64, currentHash types.Hash) (types.Hash, bool, error) {
	t.levels.mu.Lock()
	defer t.levels.mu.Unlock()

	currentLevel, currentOK, err := t.levels.loadLevel(currentNumber, true)
	if err != nil {
		return types.Hash{}, false, err
	}
	nextLevel, nextOK, err := t.levels.loadLevel(currentNumber+1, true)
	if err != nil {
		return types.Hash{}, false, err
	}

	removeLevel := currentOK && len(currentLevel.BlockInfos) <= 1

	var nextHash types.Hash
	haveNext := false
	if nextOK {
		if len(nextLevel.BlockInfos) == 1 {
			nextHash = nextLevel.BlockInfos[0].BlockHash
			haveNext = true
		} else {
			for _, bi := range nextLevel.BlockInfos {
				descendant, err := t.loadHeaderRaw(bi.BlockHash)
				if err != nil {
					return types.Hash{}, false, err
				}
				if descendant != nil && descendant.ParentHash == currentHash {
					nextHash = bi.BlockHash
					haveNext = true
					break
				}
			}
		}
	}

	if haveNext {
		if err := rawdb.WriteDeletePointer(t.store.Meta, nextHash); err != nil {
			return types.Hash{}, false, err
		}
	} else {
		if err := rawdb.ClearDeletePointer(t.store.Meta); err != nil {
			return types.Hash{}, false, err
		}
	}

	if removeLevel {
		if err := t.levels.deleteLevel(currentNumber); err != nil {
			return types.Hash{}, false, err
		}
		if currentNumber > 0 {
			t.levels.clampBestKnownNumberLocked(currentNumber - 1)
		} else {
			t.levels.setBestKnownNumber(0)
		}
	} else if currentOK {
		filtered := currentLevel.BlockInfos[:0]
		for _, bi := range currentLevel.BlockInfos {
			if bi.BlockHash != currentHash {
				filtered = append(filtered, bi)
			}
		}
		currentLevel.BlockInfos = filtered
		if err := t.levels.persistLevel(currentNumber, currentLevel, t.Head()); err != nil {
			return types.Hash{}, false, err
		}
	}

	return nextHash, haveNext, nil
}

// --- lookups ---

func (t *BlockTree) loadHeaderRaw(hash types.Hash) (*types.BlockHeader, error) {
	if h, ok := t.caches.getHeader(hash); ok {
		return h, nil
	}
	raw, ok, err := rawdb.ReadHeader(t.store.Headers, hash)
	if err != nil || !ok {
		return nil, err
	}
	h, err := t.codec.DecodeHeader(raw)
	if err != nil {
		return nil, err
	}
	if shouldCache(h.Number, t.Head()) {
		t.caches.putHeader(h)
	}
	return h, nil
}

func (t *BlockTree) loadBlockRaw(hash types.Hash) (*types.Block, error) {
	if b, ok := t.caches.getBlock(hash); ok {
		return b, nil
	}
	raw, ok, err := rawdb.ReadBlock(t.store.Blocks, hash)
	if err != nil || !ok {
		return nil, err
	}
	b, err := t.codec.DecodeBlock(raw)
	if err != nil {
		return nil, err
	}
	if shouldCache(b.Number(), t.Head()) {
		t.caches.putBlock(b)
	}
	return b, nil
}

// FindHeaderByHash looks up a header by hash. If mainChainOnly is true,
// the header must additionally be the main-chain entry at its height.
func (t *BlockTree) FindHeaderByHash(hash types.Hash, mainChainOnly bool) (*types.BlockHeader, error) {
	h, err := t.loadHeaderRaw(hash)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrBlockNotFound
	}
	if err := t.attachTD(h); err != nil {
		return nil, err
	}
	if mainChainOnly {
		ok, err := t.isMainChainAt(h.Number, hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBlockNotFound
		}
	}
	return h, nil
}

// FindBlockByHash looks up a full block by hash, attaching its total
// difficulty. If mainChainOnly is true, the block must additionally be
// the main-chain entry at its height.
func (t *BlockTree) FindBlockByHash(hash types.Hash, mainChainOnly bool) (*types.Block, error) {
	b, err := t.loadBlockRaw(hash)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBlockNotFound
	}
	if err := t.attachTD(b.Header); err != nil {
		return nil, err
	}
	if mainChainOnly {
		ok, err := t.isMainChainAt(b.Number(), hash)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrBlockNotFound
		}
	}
	return b, nil
}

// getBlockHashOnMainOrOnlyHash resolves a height to an unambiguous hash:
// the main-chain entry if one is flagged, or the sole entry if the level
// has exactly one. A level with multiple entries and no main-chain flag
// cannot be disambiguated by number alone.
func (t *BlockTree) getBlockHashOnMainOrOnlyHash(n uint64) (types.Hash, error) {
	level, ok, err := t.levels.loadLevel(n, true)
	if err != nil {
		return types.Hash{}, err
	}
	if !ok {
		return types.Hash{}, ErrBlockNotFound
	}
	if level.HasBlockOnMainChain {
		return level.BlockInfos[0].BlockHash, nil
	}
	if len(level.BlockInfos) == 1 {
		return level.BlockInfos[0].BlockHash, nil
	}
	return types.Hash{}, &InvariantError{Msg: "cannot disambiguate a fork by number"}
}

// FindHeaderByNumber resolves number to its unambiguous header.
func (t *BlockTree) FindHeaderByNumber(number uint64) (*types.BlockHeader, error) {
	hash, err := t.getBlockHashOnMainOrOnlyHash(number)
	if err != nil {
		return nil, err
	}
	return t.FindHeaderByHash(hash, false)
}

// FindBlockByNumber resolves number to its unambiguous full block.
func (t *BlockTree) FindBlockByNumber(number uint64) (*types.Block, error) {
	hash, err := t.getBlockHashOnMainOrOnlyHash(number)
	if err != nil {
		return nil, err
	}
	return t.FindBlockByHash(hash, false)
}

// FindHeaders walks by number with stride skip+1, starting at
// startHash's height, returning a slice of length count. Positions past
// the end of the chain are nil.
func (t *BlockTree) FindHeaders(startHash types.Hash, count, skip int, reverse bool) ([]*types.BlockHeader, error) {
	start, err := t.FindHeaderByHash(startHash, false)
	if err != nil {
		return nil, err
	}
	result := make([]*types.BlockHeader, count)
	stride := int64(skip) + 1
	if reverse {
		stride = -stride
	}
	n := int64(start.Number)
	for i := 0; i < count; i++ {
		if n >= 0 {
			if h, err := t.FindHeaderByNumber(uint64(n)); err == nil {
				result[i] = h
			}
		}
		n += stride
	}
	return result, nil
}

// FindBlocks walks by number with stride skip+1, starting at
// startHash's height, returning a slice of length count. Positions past
// the end of the chain are nil.
func (t *BlockTree) FindBlocks(startHash types.Hash, count, skip int, reverse bool) ([]*types.Block, error) {
	start, err := t.FindHeaderByHash(startHash, false)
	if err != nil {
		return nil, err
	}
	result := make([]*types.Block, count)
	stride := int64(skip) + 1
	if reverse {
		stride = -stride
	}
	n := int64(start.Number)
	for i := 0; i < count; i++ {
		if n >= 0 {
			if b, err := t.FindBlockByNumber(uint64(n)); err == nil {
				result[i] = b
			}
		}
		n += stride
	}
	return result, nil
}

// IsKnownBlock reports whether hash is indexed at height n.
func (t *BlockTree) IsKnownBlock(n uint64, hash types.Hash) bool {
	if n > t.BestKnownNumber() {
		return false
	}
	if head := t.Head(); head != nil && head.Hash == hash {
		return true
	}
	if _, ok := t.caches.getHeader(hash); ok {
		return true
	}
	level, ok, err := t.levels.loadLevel(n, true)
	if err != nil || !ok {
		return false
	}
	return findIndex(level, hash) != -1
}

func (t *BlockTree) isMainChainAt(n uint64, hash types.Hash) (bool, error) {
	level, ok, err := t.levels.loadLevel(n, true)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return level.HasBlockOnMainChain && level.BlockInfos[0].BlockHash == hash, nil
}

// IsMainChain reports whether hash is the main-chain block at its
// height.
func (t *BlockTree) IsMainChain(hash types.Hash) (bool, error) {
	h, err := t.loadHeaderRaw(hash)
	if err != nil {
		return false, err
	}
	if h == nil {
		return false, nil
	}
	return t.isMainChainAt(h.Number, hash)
}

// WasProcessed reports whether the block at (n, hash) has been
// processed (promoted at least once).
func (t *BlockTree) WasProcessed(n uint64, hash types.Hash) (bool, error) {
	level, ok, err := t.levels.loadLevel(n, true)
	if err != nil || !ok {
		return false, err
	}
	idx := findIndex(level, hash)
	if idx == -1 {
		return false, nil
	}
	return level.BlockInfos[idx].WasProcessed, nil
}

func sortBlocksAscending(blocks []*types.Block) {
	for i := 1; i < len(blocks); i++ {
		for j := i; j > 0 && blocks[j].Number() < blocks[j-1].Number(); j-- {
			blocks[j], blocks[j-1] = blocks[j-1], blocks[j]
		}
	}
}
