package core

import (
	"math/big"

	"github.com/blocktreelabs/blocktree/core/types"
)

// SpecProvider supplies the chain parameters the tree itself never
// decides, matching spec.md's "consumed, not owned" collaborator list.
type SpecProvider interface {
	ChainID() *big.Int
}

// TxPool is told to drop each transaction of a block as that block is
// promoted onto the main chain, and is otherwise opaque to the tree.
type TxPool interface {
	RemoveTransaction(hash types.Hash)
}

// Processor receives suggested blocks from the bootstrap loader in
// batches; its actual execution/validation logic lives entirely outside
// this module.
type Processor interface {
	ProcessBlock(b *types.Block) error
}
