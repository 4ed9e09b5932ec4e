// Package types holds the data model the block tree index operates on:
// headers, blocks, the per-height BlockInfo/ChainLevelInfo pair, and the
// events the tree publishes. Block validation, EVM execution and RLP
// codec internals live outside this package; types.Codec is the seam a
// caller plugs a concrete encoding into.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Hash is the 32-byte content address of a header. Equality is byte
// equality.
type Hash = common.Hash

// ZeroHash is the designated zero hash: the meta-store HEAD_KEY sentinel
// and the value of an absent parent.
var ZeroHash = Hash{}

// DeleteHash is the designated all-ones sentinel, the same value as the
// meta-store DELETE_POINTER_KEY (rawdb.DeletePointerKey).
var DeleteHash = func() Hash {
	var h Hash
	for i := range h {
		h[i] = 0xFF
	}
	return h
}()

// BlockHeader is opaque to the tree except for the fields below.
// TotalDifficulty is never part of the caller's input — it is populated
// by the tree from the matching BlockInfo whenever a header is returned
// from a lookup.
type BlockHeader struct {
	Number          uint64
	Hash            Hash
	ParentHash      Hash
	Difficulty      *big.Int
	TotalDifficulty *big.Int
}

// IsGenesis reports whether this header is the chain's genesis (number 0).
func (h *BlockHeader) IsGenesis() bool { return h.Number == 0 }

// Transaction exposes only a hash to the tree; the rest of its payload
// is opaque and owned by the caller.
type Transaction struct {
	TxHash Hash
}

// Hash returns the transaction's hash.
func (tx Transaction) Hash() Hash { return tx.TxHash }

// BlockBody is a block's opaque payload, exposed only as a transaction
// list (so the tree can notify the transaction pool on promotion).
type BlockBody struct {
	Transactions []Transaction
}

// Block is a header plus an opaque body.
type Block struct {
	Header *BlockHeader
	Body   *BlockBody
}

// Number returns the block's height.
func (b *Block) Number() uint64 { return b.Header.Number }

// Hash returns the block's hash.
func (b *Block) Hash() Hash { return b.Header.Hash }

// IsGenesis reports whether this block is the chain's genesis.
func (b *Block) IsGenesis() bool { return b.Header.IsGenesis() }

// BlockInfo belongs to exactly one ChainLevelInfo.
type BlockInfo struct {
	BlockHash       Hash
	TotalDifficulty *big.Int
	WasProcessed    bool
}

// ChainLevelInfo is the per-height index of every known block at that
// height. When HasBlockOnMainChain is true, BlockInfos[0] is the
// main-chain block; every other entry is a fork sibling. BlockInfos is
// non-empty whenever the level exists at all.
type ChainLevelInfo struct {
	HasBlockOnMainChain bool
	BlockInfos          []BlockInfo
}

// AddBlockResult is the outcome of SuggestHeader/SuggestBlock. The zero
// value is intentionally unused so a zero AddBlockResult returned
// alongside a non-nil error can never be mistaken for Added.
type AddBlockResult int

const (
	// Added means the header/block was accepted and appended to its level.
	Added AddBlockResult = iota + 1
	// AlreadyKnown means the block's hash is already indexed at its height.
	AlreadyKnown
	// UnknownParent means the parent isn't known at number-1.
	UnknownParent
	// InvalidBlock means the (number, hash) pair is in the invalid set.
	InvalidBlock
	// CannotAccept means the tree isn't currently accepting new blocks
	// (a startup load or an invalid-block cleanup is in flight).
	CannotAccept
)

func (r AddBlockResult) String() string {
	switch r {
	case Added:
		return "Added"
	case AlreadyKnown:
		return "AlreadyKnown"
	case UnknownParent:
		return "UnknownParent"
	case InvalidBlock:
		return "InvalidBlock"
	case CannotAccept:
		return "CannotAccept"
	default:
		return "Unknown"
	}
}

// Codec encodes/decodes the three persisted entity types to/from bytes.
// Caller-provided per the external KV contract; core.RLPCodec is the
// default implementation used when a caller doesn't supply one.
type Codec interface {
	EncodeHeader(h *BlockHeader) ([]byte, error)
	DecodeHeader(data []byte) (*BlockHeader, error)
	EncodeBlock(b *Block) ([]byte, error)
	DecodeBlock(data []byte) (*Block, error)
	EncodeLevel(l *ChainLevelInfo) ([]byte, error)
	DecodeLevel(data []byte) (*ChainLevelInfo, error)
}

// NewBestSuggestedBlockEvent fires when BestSuggested advances.
type NewBestSuggestedBlockEvent struct{ Header *BlockHeader }

// BlockAddedToMainEvent fires for each block promoted by MoveToMain.
type BlockAddedToMainEvent struct{ Block *Block }

// NewHeadBlockEvent fires when Head advances.
type NewHeadBlockEvent struct{ Header *BlockHeader }
