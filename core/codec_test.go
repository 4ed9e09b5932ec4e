package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktreelabs/blocktree/core/types"
)

func TestRLPCodecHeaderRoundTrip(t *testing.T) {
	h := &types.BlockHeader{
		Number:     42,
		Hash:       types.HashBytes([]byte("h42")),
		ParentHash: types.HashBytes([]byte("h41")),
		Difficulty: big.NewInt(1000),
	}
	codec := RLPCodec{}

	raw, err := codec.EncodeHeader(h)
	require.NoError(t, err)

	got, err := codec.DecodeHeader(raw)
	require.NoError(t, err)
	require.Equal(t, h.Number, got.Number)
	require.Equal(t, h.Hash, got.Hash)
	require.Equal(t, h.ParentHash, got.ParentHash)
	require.Equal(t, 0, h.Difficulty.Cmp(got.Difficulty))
	// TotalDifficulty is never part of the wire format.
	require.Nil(t, got.TotalDifficulty)
}

func TestRLPCodecBlockRoundTrip(t *testing.T) {
	b := &types.Block{
		Header: &types.BlockHeader{
			Number:     7,
			Hash:       types.HashBytes([]byte("b7")),
			ParentHash: types.HashBytes([]byte("b6")),
			Difficulty: big.NewInt(500),
		},
		Body: &types.BlockBody{Transactions: []types.Transaction{
			{TxHash: types.HashBytes([]byte("tx1"))},
			{TxHash: types.HashBytes([]byte("tx2"))},
		}},
	}
	codec := RLPCodec{}

	raw, err := codec.EncodeBlock(b)
	require.NoError(t, err)

	got, err := codec.DecodeBlock(raw)
	require.NoError(t, err)
	require.Equal(t, b.Number(), got.Number())
	require.Equal(t, b.Hash(), got.Hash())
	require.Len(t, got.Body.Transactions, 2)
	require.Equal(t, b.Body.Transactions[0].TxHash, got.Body.Transactions[0].Hash())
	require.Equal(t, b.Body.Transactions[1].TxHash, got.Body.Transactions[1].Hash())
}

func TestRLPCodecLevelRoundTrip(t *testing.T) {
	level := &types.ChainLevelInfo{
		HasBlockOnMainChain: true,
		BlockInfos: []types.BlockInfo{
			{BlockHash: types.HashBytes([]byte("a")), TotalDifficulty: big.NewInt(10), WasProcessed: true},
			{BlockHash: types.HashBytes([]byte("b")), TotalDifficulty: big.NewInt(9), WasProcessed: false},
		},
	}
	codec := RLPCodec{}

	raw, err := codec.EncodeLevel(level)
	require.NoError(t, err)

	got, err := codec.DecodeLevel(raw)
	require.NoError(t, err)
	require.True(t, got.HasBlockOnMainChain)
	require.Len(t, got.BlockInfos, 2)
	require.Equal(t, level.BlockInfos[0].BlockHash, got.BlockInfos[0].BlockHash)
	require.Equal(t, 0, level.BlockInfos[0].TotalDifficulty.Cmp(got.BlockInfos[0].TotalDifficulty))
	require.True(t, got.BlockInfos[0].WasProcessed)
	require.False(t, got.BlockInfos[1].WasProcessed)
}

func TestRLPCodecLevelWithoutMainChain(t *testing.T) {
	level := &types.ChainLevelInfo{HasBlockOnMainChain: false, BlockInfos: []types.BlockInfo{
		{BlockHash: types.HashBytes([]byte("only")), TotalDifficulty: big.NewInt(1)},
	}}
	codec := RLPCodec{}
	raw, err := codec.EncodeLevel(level)
	require.NoError(t, err)
	got, err := codec.DecodeLevel(raw)
	require.NoError(t, err)
	require.False(t, got.HasBlockOnMainChain)
	require.Len(t, got.BlockInfos, 1)
}
