package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/blocktreelabs/blocktree/core/types"
)

// RLPCodec is the default types.Codec implementation. TotalDifficulty is
// never part of the wire format: it is derived from the matching
// BlockInfo at read time, not supplied by the caller, so encoding it
// alongside the header would let a stale or forged value leak back in
// on decode.
type RLPCodec struct{}

// rlpHeader is the on-disk shape of a BlockHeader, intentionally
// narrower than types.BlockHeader.
type rlpHeader struct {
	Number     uint64
	Hash       types.Hash
	ParentHash types.Hash
	Difficulty *big.Int
}

func (RLPCodec) EncodeHeader(h *types.BlockHeader) ([]byte, error) {
	return rlp.EncodeToBytes(&rlpHeader{
		Number:     h.Number,
		Hash:       h.Hash,
		ParentHash: h.ParentHash,
		Difficulty: h.Difficulty,
	})
}

func (RLPCodec) DecodeHeader(data []byte) (*types.BlockHeader, error) {
	var wire rlpHeader
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, err
	}
	return &types.BlockHeader{
		Number:     wire.Number,
		Hash:       wire.Hash,
		ParentHash: wire.ParentHash,
		Difficulty: wire.Difficulty,
	}, nil
}

// rlpTransaction is the on-disk shape of a Transaction.
type rlpTransaction struct {
	TxHash types.Hash
}

// rlpBlock is the on-disk shape of a Block: header plus a flat
// transaction-hash list.
type rlpBlock struct {
	Header       rlpHeader
	Transactions []rlpTransaction
}

func (c RLPCodec) EncodeBlock(b *types.Block) ([]byte, error) {
	txs := make([]rlpTransaction, len(b.Body.Transactions))
	for i, tx := range b.Body.Transactions {
		txs[i] = rlpTransaction{TxHash: tx.TxHash}
	}
	wire := rlpBlock{
		Header: rlpHeader{
			Number:     b.Header.Number,
			Hash:       b.Header.Hash,
			ParentHash: b.Header.ParentHash,
			Difficulty: b.Header.Difficulty,
		},
		Transactions: txs,
	}
	return rlp.EncodeToBytes(&wire)
}

func (c RLPCodec) DecodeBlock(data []byte) (*types.Block, error) {
	var wire rlpBlock
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, err
	}
	txs := make([]types.Transaction, len(wire.Transactions))
	for i, tx := range wire.Transactions {
		txs[i] = types.Transaction{TxHash: tx.TxHash}
	}
	return &types.Block{
		Header: &types.BlockHeader{
			Number:     wire.Header.Number,
			Hash:       wire.Header.Hash,
			ParentHash: wire.Header.ParentHash,
			Difficulty: wire.Header.Difficulty,
		},
		Body: &types.BlockBody{Transactions: txs},
	}, nil
}

// rlpBlockInfo is the on-disk shape of a BlockInfo.
type rlpBlockInfo struct {
	BlockHash       types.Hash
	TotalDifficulty *big.Int
	WasProcessed    bool
}

// rlpChainLevelInfo is the on-disk shape of a ChainLevelInfo: one RLP
// list whose first element is the bool (RLP's own bool encoding) and
// whose second is the BlockInfo list, so hasBlockOnMainChain reads first
// in a hex dump, right after the list header.
type rlpChainLevelInfo struct {
	HasBlockOnMainChain bool
	BlockInfos          []rlpBlockInfo
}

func (RLPCodec) EncodeLevel(l *types.ChainLevelInfo) ([]byte, error) {
	infos := make([]rlpBlockInfo, len(l.BlockInfos))
	for i, bi := range l.BlockInfos {
		infos[i] = rlpBlockInfo{
			BlockHash:       bi.BlockHash,
			TotalDifficulty: bi.TotalDifficulty,
			WasProcessed:    bi.WasProcessed,
		}
	}
	wire := rlpChainLevelInfo{
		HasBlockOnMainChain: l.HasBlockOnMainChain,
		BlockInfos:          infos,
	}
	return rlp.EncodeToBytes(&wire)
}

func (RLPCodec) DecodeLevel(data []byte) (*types.ChainLevelInfo, error) {
	var wire rlpChainLevelInfo
	if err := rlp.DecodeBytes(data, &wire); err != nil {
		return nil, err
	}
	infos := make([]types.BlockInfo, len(wire.BlockInfos))
	for i, bi := range wire.BlockInfos {
		infos[i] = types.BlockInfo{
			BlockHash:       bi.BlockHash,
			TotalDifficulty: bi.TotalDifficulty,
			WasProcessed:    bi.WasProcessed,
		}
	}
	return &types.ChainLevelInfo{
		HasBlockOnMainChain: wire.HasBlockOnMainChain,
		BlockInfos:          infos,
	}, nil
}

var _ types.Codec = RLPCodec{}
