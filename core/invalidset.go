package core

import (
	"sync"

	"github.com/blocktreelabs/blocktree/core/types"
)

// invalidSet is the process-lifetime-only height -> hash-set mapping of
// blocks the processor rejected, consulted by suggest to short-circuit
// resuggestion of a block already known to be bad.
type invalidSet struct {
	mu   sync.RWMutex
	data map[uint64]map[types.Hash]struct{}
}

func newInvalidSet() invalidSet {
	return invalidSet{data: make(map[uint64]map[types.Hash]struct{})}
}

func (s *invalidSet) add(number uint64, hash types.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.data[number]
	if !ok {
		set = make(map[types.Hash]struct{})
		s.data[number] = set
	}
	set[hash] = struct{}{}
}

func (s *invalidSet) contains(number uint64, hash types.Hash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.data[number]
	if !ok {
		return false
	}
	_, ok = set[hash]
	return ok
}
