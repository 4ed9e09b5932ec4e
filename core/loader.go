package core

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/blocktreelabs/blocktree/core/rawdb"
	"github.com/blocktreelabs/blocktree/core/types"
)

// fastSyncTailWindow is the number of trailing heights LoadBlocksFromDb
// still walks one-by-one even when AssumeHeadersPresent lets it jump
// over header-only stretches, so the tail of the replay always lands on
// a precisely-resolved height rather than overshooting it.
const fastSyncTailWindow = 1024

// LoadBlocksFromDb replays persisted levels on startup, handing each
// level's heaviest block to processor in order and reconstructing
// BestSuggested/BestSuggestedFullBlock/Head as it goes. It blocks new
// suggestions for its duration (CanAcceptNewBlocks is false) and is
// cancellable via ctx; cancellation aborts after the in-flight height
// and leaves the tree consistent. maxToLoad caps how many heights are
// replayed in one call; zero means no cap.
func (t *BlockTree) LoadBlocksFromDb(ctx context.Context, processor Processor, startNumber *uint64, maxToLoad uint64) error {
	if !t.canAcceptNewBlocks.CompareAndSwap(true, false) {
		return ErrAlreadyLoading
	}
	defer t.canAcceptNewBlocks.Store(true)

	if ptr, ok, err := rawdb.ReadDeletePointer(t.store.Meta); err != nil {
		return err
	} else if ok {
		log.Info("resuming interrupted invalid-block cleanup", "hash", ptr)
		if err := t.CleanInvalidBlocks(ptr); err != nil {
			return err
		}
	}

	start := uint64(0)
	switch {
	case startNumber != nil:
		start = *startNumber
		if start == 0 {
			t.head.Store(nil)
		} else {
			h, err := t.FindHeaderByNumber(start - 1)
			if err != nil {
				return err
			}
			t.head.Store(h)
		}
	case t.Head() != nil:
		start = t.Head().Number
	}

	// blocksToLoad counts the heights from start through BestKnownNumber
	// inclusive, not spec.md §4.5's literal "BestKnownNumber -
	// Head.number": that difference alone underrepresents a nil Head by
	// one height (it would skip genesis entirely on a cold start), so
	// it is read here as "how many heights remain to be replayed from
	// start", matching §4.5 step 5's "for each height from startNumber
	// upward".
	best := t.BestKnownNumber()
	blocksToLoad := uint64(0)
	if best >= start {
		blocksToLoad = best - start + 1
	}
	if maxToLoad > 0 && blocksToLoad > maxToLoad {
		blocksToLoad = maxToLoad
	}

	n := start
	var loaded uint64
	for loaded < blocksToLoad {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		level, ok, err := t.levels.loadLevel(n, true)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("stopping bootstrap replay, no level at height", "number", n)
			break
		}
		info := heaviestBlockInfo(level)

		block, err := t.loadBlockRaw(info.BlockHash)
		if err != nil {
			return err
		}
		if block != nil {
			block.Header.TotalDifficulty = info.TotalDifficulty
			t.bestSuggested.Store(block.Header)
			t.bestSuggestedFullBlock.Store(block.Header)
			t.events.bestSuggestedFeed.Send(types.NewBestSuggestedBlockEvent{Header: block.Header})

			if processor != nil {
				if err := processor.ProcessBlock(block); err != nil {
					return err
				}
			}
			if err := t.armBatchBackpressure(ctx, n); err != nil {
				return err
			}
			n++
			loaded++
			continue
		}

		header, err := t.loadHeaderRaw(info.BlockHash)
		if err != nil {
			return err
		}
		if header != nil {
			header.TotalDifficulty = info.TotalDifficulty
			t.bestSuggested.Store(header)
			remaining := blocksToLoad - loaded
			if t.config.AssumeHeadersPresent && remaining > fastSyncTailWindow {
				jump := remaining - fastSyncTailWindow - 1
				log.Debug("fast-sync header skip", "from", n, "jump", jump)
				n += jump + 1
				loaded += jump + 1
				continue
			}
			n++
			loaded++
			continue
		}

		log.Info("stopping bootstrap replay, missing header and body", "number", n)
		t.levels.mu.Lock()
		if err := t.levels.deleteLevel(n); err != nil {
			t.levels.mu.Unlock()
			return err
		}
		if n > 0 {
			t.levels.clampBestKnownNumberLocked(n - 1)
		} else {
			t.levels.setBestKnownNumber(0)
		}
		t.levels.mu.Unlock()
		break
	}
	return nil
}

// heaviestBlockInfo returns the entry with the highest total difficulty
// in level, the first such entry winning ties.
func heaviestBlockInfo(level *types.ChainLevelInfo) types.BlockInfo {
	best := level.BlockInfos[0]
	for _, bi := range level.BlockInfos[1:] {
		if bi.TotalDifficulty.Cmp(best.TotalDifficulty) > 0 {
			best = bi
		}
	}
	return best
}

// armBatchBackpressure suspends the loader every loadBatchSize heights
// until the Processor's head has advanced to within one batch of
// blockNumber, so an overwhelmed Processor can't be handed an unbounded
// pile of unprocessed blocks. It is a no-op when the head is already
// close enough.
func (t *BlockTree) armBatchBackpressure(ctx context.Context, blockNumber uint64) error {
	batchSize := uint64(t.config.loadBatchSize())
	if blockNumber == 0 || blockNumber%batchSize != 0 {
		return nil
	}
	headNumber := uint64(0)
	if head := t.Head(); head != nil {
		headNumber = head.Number
	}
	if headNumber+batchSize >= blockNumber {
		return nil
	}

	target := blockNumber - batchSize
	done := make(chan error, 1)
	t.batchMu.Lock()
	t.pendingBatch = &pendingBatch{targetNumber: target, done: done}
	t.batchMu.Unlock()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		t.batchMu.Lock()
		if t.pendingBatch != nil && t.pendingBatch.done == done {
			t.pendingBatch = nil
		}
		t.batchMu.Unlock()
		return ctx.Err()
	}
}

// completeBatchIfAwaiting fulfills the loader's pending batch rendezvous
// once Head has reached (or passed) its target height. Called from
// UpdateHeadBlock, which is the only writer of Head.
func (t *BlockTree) completeBatchIfAwaiting(headNumber uint64, err error) {
	t.batchMu.Lock()
	pb := t.pendingBatch
	if pb == nil || headNumber < pb.targetNumber {
		t.batchMu.Unlock()
		return
	}
	t.pendingBatch = nil
	t.batchMu.Unlock()
	pb.done <- err
}
