package core

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktreelabs/blocktree/core/rawdb"
	"github.com/blocktreelabs/blocktree/core/types"
)

func newTestTree(t *testing.T) *BlockTree {
	t.Helper()
	store := rawdb.NewMemoryDatabase()
	tree, err := NewBlockTree(store, nil, Config{}, nil, nil)
	require.NoError(t, err)
	return tree
}

// header builds a header whose hash is a deterministic function of its
// own fields, so fixtures never need a hand-maintained counter.
func header(number uint64, parent types.Hash, difficulty int64, salt string) *types.BlockHeader {
	h := &types.BlockHeader{
		Number:     number,
		ParentHash: parent,
		Difficulty: big.NewInt(difficulty),
	}
	h.Hash = types.HashBytes([]byte(fmt.Sprintf("%d:%x:%d:%s", number, parent, difficulty, salt)))
	return h
}

func block(h *types.BlockHeader) *types.Block {
	return &types.Block{Header: h, Body: &types.BlockBody{}}
}

// --- S1 Genesis ---

func TestGenesisSuggestAndPromote(t *testing.T) {
	tree := newTestTree(t)
	headCh := make(chan types.NewHeadBlockEvent, 4)
	tree.SubscribeNewHeadBlock(headCh)

	g := header(0, types.ZeroHash, 100, "genesis")
	res, err := tree.SuggestBlock(block(g), true)
	require.NoError(t, err)
	require.Equal(t, types.Added, res)
	require.Nil(t, tree.Head())
	require.Equal(t, g.Hash, tree.BestSuggested().Hash)

	require.NoError(t, tree.UpdateMainChain([]*types.Block{block(g)}))
	require.NotNil(t, tree.Head())
	require.Equal(t, g.Hash, tree.Head().Hash)
	require.NotNil(t, tree.Genesis())
	require.Equal(t, g.Hash, tree.Genesis().Hash)
	require.Len(t, headCh, 1)
}

// buildLinearChain suggests and promotes genesis..3 in order, returning
// the four headers (index == height).
func buildLinearChain(t *testing.T, tree *BlockTree) []*types.BlockHeader {
	t.Helper()
	g := header(0, types.ZeroHash, 100, "g")
	b1 := header(1, g.Hash, 100, "b1")
	b2 := header(2, b1.Hash, 100, "b2")
	b3 := header(3, b2.Hash, 100, "b3")
	chain := []*types.BlockHeader{g, b1, b2, b3}

	for _, h := range chain {
		res, err := tree.SuggestBlock(block(h), true)
		require.NoError(t, err)
		require.Equal(t, types.Added, res)
		require.NoError(t, tree.UpdateMainChain([]*types.Block{block(h)}))
	}
	return chain
}

// --- S2 Linear chain ---

func TestLinearChain(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)

	got, err := tree.FindBlockByNumber(2)
	require.NoError(t, err)
	require.Equal(t, chain[2].Hash, got.Hash)

	onMain, err := tree.IsMainChain(chain[2].Hash)
	require.NoError(t, err)
	require.True(t, onMain)

	require.Equal(t, uint64(3), tree.BestKnownNumber())
	require.Equal(t, chain[3].Hash, tree.Head().Hash)
}

// --- S3 Fork promotion ---

func TestForkPromotion(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)
	b1 := chain[1]

	b2p := header(2, b1.Hash, 500, "b2-prime") // heavier than the existing B2 (difficulty 100)
	res, err := tree.SuggestBlock(block(b2p), true)
	require.NoError(t, err)
	require.Equal(t, types.Added, res)

	b3p := header(3, b2p.Hash, 100, "b3-prime")
	res, err = tree.SuggestBlock(block(b3p), true)
	require.NoError(t, err)
	require.Equal(t, types.Added, res)

	require.NoError(t, tree.UpdateMainChain([]*types.Block{block(b2p), block(b3p)}))

	require.Equal(t, b3p.Hash, tree.Head().Hash)

	level2, ok, err := tree.levels.loadLevel(2, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, level2.HasBlockOnMainChain)
	require.Equal(t, b2p.Hash, level2.BlockInfos[0].BlockHash)
	found := false
	for _, bi := range level2.BlockInfos[1:] {
		if bi.BlockHash == chain[2].Hash {
			found = true
		}
	}
	require.True(t, found, "old B2 must survive as a fork sibling")

	onMain, err := tree.IsMainChain(chain[2].Hash)
	require.NoError(t, err)
	require.False(t, onMain, "old B2 must be cleared from the main chain")

	onMain, err = tree.IsMainChain(b2p.Hash)
	require.NoError(t, err)
	require.True(t, onMain)
}

// --- S4 Unknown parent ---

func TestUnknownParent(t *testing.T) {
	tree := newTestTree(t)
	orphan := header(5, types.HashBytes([]byte("nowhere")), 100, "b5")
	res, err := tree.SuggestHeader(orphan)
	require.NoError(t, err)
	require.Equal(t, types.UnknownParent, res)
}

// --- S5 Invalidate descendant chain ---

func TestDeleteInvalidBlockRemovesDescendants(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)
	b1 := chain[1]

	b2p := header(2, b1.Hash, 500, "b2-prime")
	b3p := header(3, b2p.Hash, 100, "b3-prime")
	_, err := tree.SuggestBlock(block(b2p), true)
	require.NoError(t, err)
	_, err = tree.SuggestBlock(block(b3p), true)
	require.NoError(t, err)
	require.NoError(t, tree.UpdateMainChain([]*types.Block{block(b2p), block(b3p)}))

	require.NoError(t, tree.DeleteInvalidBlock(b2p))
	require.True(t, tree.CanAcceptNewBlocks())

	_, err = tree.FindHeaderByHash(b2p.Hash, false)
	require.ErrorIs(t, err, ErrBlockNotFound)
	_, err = tree.FindHeaderByHash(b3p.Hash, false)
	require.ErrorIs(t, err, ErrBlockNotFound)

	// The previous B2/B3 remain known: re-suggestion returns AlreadyKnown.
	res, err := tree.SuggestBlock(block(chain[2]), true)
	require.NoError(t, err)
	require.Equal(t, types.AlreadyKnown, res)
	res, err = tree.SuggestBlock(block(chain[3]), true)
	require.NoError(t, err)
	require.Equal(t, types.AlreadyKnown, res)

	res, err = tree.SuggestHeader(b2p)
	require.NoError(t, err)
	require.Equal(t, types.InvalidBlock, res)
}

// --- S6 Crash-resume cleanup ---

func TestCleanInvalidBlocksResumesFromDeletePointer(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)
	b1 := chain[1]

	b2p := header(2, b1.Hash, 500, "b2-prime")
	b3p := header(3, b2p.Hash, 100, "b3-prime")
	_, err := tree.SuggestBlock(block(b2p), true)
	require.NoError(t, err)
	_, err = tree.SuggestBlock(block(b3p), true)
	require.NoError(t, err)
	require.NoError(t, tree.UpdateMainChain([]*types.Block{block(b2p), block(b3p)}))

	// Simulate a crash mid-cleanup: B3' has already been removed, and the
	// delete pointer still points at it as the resume target.
	require.NoError(t, tree.CleanInvalidBlocks(b3p.Hash))
	_, err = tree.FindHeaderByHash(b3p.Hash, false)
	require.ErrorIs(t, err, ErrBlockNotFound)

	require.NoError(t, rawdb.WriteDeletePointer(tree.store.Meta, b3p.Hash))

	ptr, ok, err := rawdb.ReadDeletePointer(tree.store.Meta)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b3p.Hash, ptr)

	// Resuming cleanup from the recorded pointer must complete without
	// error even though that exact block is already gone.
	require.NoError(t, tree.CleanInvalidBlocks(ptr))
	_, ok, err = rawdb.ReadDeletePointer(tree.store.Meta)
	require.NoError(t, err)
	require.False(t, ok)
}

// --- Universal invariants ---

func TestTotalDifficultyAccumulation(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)

	expected := big.NewInt(0)
	for _, h := range chain {
		expected = new(big.Int).Add(expected, h.Difficulty)
		got, err := tree.FindHeaderByHash(h.Hash, false)
		require.NoError(t, err)
		require.Equal(t, 0, expected.Cmp(got.TotalDifficulty), "TD mismatch at height %d", h.Number)
	}
}

func TestMainChainContiguity(t *testing.T) {
	tree := newTestTree(t)
	buildLinearChain(t, tree)

	for n := uint64(0); n <= tree.Head().Number; n++ {
		level, ok, err := tree.levels.loadLevel(n, true)
		require.NoError(t, err)
		require.True(t, ok)
		require.True(t, level.HasBlockOnMainChain, "height %d must be on the main chain", n)
	}
}

// A second genesis is an invariant violation rather than AlreadyKnown, so
// idempotence is checked on a non-genesis block.
func TestSuggestIdempotence(t *testing.T) {
	tree := newTestTree(t)
	g := header(0, types.ZeroHash, 100, "g")

	res, err := tree.SuggestBlock(block(g), true)
	require.NoError(t, err)
	require.Equal(t, types.Added, res)

	b1 := header(1, g.Hash, 100, "b1")
	res, err = tree.SuggestBlock(block(b1), true)
	require.NoError(t, err)
	require.Equal(t, types.Added, res)

	res, err = tree.SuggestBlock(block(b1), true)
	require.NoError(t, err)
	require.Equal(t, types.AlreadyKnown, res)
}

func TestIsKnownBlockFastPaths(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)

	require.False(t, tree.IsKnownBlock(99, types.HashBytes([]byte("nope"))), "beyond BestKnownNumber")
	require.True(t, tree.IsKnownBlock(3, chain[3].Hash), "head hash fast path")
	require.True(t, tree.IsKnownBlock(1, chain[1].Hash))
	require.False(t, tree.IsKnownBlock(1, types.HashBytes([]byte("wrong"))))
}

func TestFindHeadersWalksByStride(t *testing.T) {
	tree := newTestTree(t)
	chain := buildLinearChain(t, tree)

	got, err := tree.FindHeaders(chain[0].Hash, 4, 0, false)
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, h := range got {
		require.NotNil(t, h)
		require.Equal(t, chain[i].Hash, h.Hash)
	}

	// past the end of the chain the slice holds nils.
	got, err = tree.FindHeaders(chain[2].Hash, 4, 0, false)
	require.NoError(t, err)
	require.NotNil(t, got[0])
	require.NotNil(t, got[1])
	require.Nil(t, got[2])
	require.Nil(t, got[3])
}

func TestCannotAcceptGate(t *testing.T) {
	tree := newTestTree(t)
	require.True(t, tree.CanAcceptNewBlocks())
	tree.canAcceptNewBlocks.Store(false)

	g := header(0, types.ZeroHash, 100, "g")
	res, err := tree.SuggestBlock(block(g), true)
	require.NoError(t, err)
	require.Equal(t, types.CannotAccept, res)
}

func TestWasProcessedTracksPromotion(t *testing.T) {
	tree := newTestTree(t)
	g := header(0, types.ZeroHash, 100, "g")
	_, err := tree.SuggestBlock(block(g), true)
	require.NoError(t, err)

	processed, err := tree.WasProcessed(0, g.Hash)
	require.NoError(t, err)
	require.False(t, processed)

	require.NoError(t, tree.UpdateMainChain([]*types.Block{block(g)}))
	processed, err = tree.WasProcessed(0, g.Hash)
	require.NoError(t, err)
	require.True(t, processed)
}
