package rawdb

import (
	"github.com/blocktreelabs/blocktree/core/types"
)

// ReadHeader returns the raw encoded header bytes stored under hash, or
// ok=false if absent.
func ReadHeader(db KVStore, hash types.Hash) ([]byte, bool, error) {
	return db.Get(hash[:])
}

// WriteHeader stores the already-encoded header bytes under hash.
func WriteHeader(db KVStore, hash types.Hash, encoded []byte) error {
	return db.Put(hash[:], encoded)
}

// DeleteHeader removes the header stored under hash.
func DeleteHeader(db KVStore, hash types.Hash) error {
	return db.Delete(hash[:])
}

// ReadBlock returns the raw encoded block bytes stored under hash, or
// ok=false if absent.
func ReadBlock(db KVStore, hash types.Hash) ([]byte, bool, error) {
	return db.Get(hash[:])
}

// WriteBlock stores the already-encoded block bytes under hash.
func WriteBlock(db KVStore, hash types.Hash, encoded []byte) error {
	return db.Put(hash[:], encoded)
}

// DeleteBlock removes the block stored under hash.
func DeleteBlock(db KVStore, hash types.Hash) error {
	return db.Delete(hash[:])
}

// ReadLevel returns the raw encoded ChainLevelInfo bytes stored at
// number, or ok=false if the level doesn't exist.
func ReadLevel(db KVStore, number uint64) ([]byte, bool, error) {
	return db.Get(levelKey(number))
}

// WriteLevel stores the already-encoded ChainLevelInfo bytes at number.
func WriteLevel(db KVStore, number uint64, encoded []byte) error {
	return db.Put(levelKey(number), encoded)
}

// DeleteLevel removes the level stored at number.
func DeleteLevel(db KVStore, number uint64) error {
	return db.Delete(levelKey(number))
}

// ReadHead returns the hash stored at the meta-store HEAD_KEY sentinel.
func ReadHead(db KVStore) (types.Hash, bool, error) {
	v, ok, err := db.Get(HeadKey[:])
	if err != nil || !ok {
		return types.Hash{}, ok, err
	}
	var h types.Hash
	copy(h[:], v)
	return h, true, nil
}

// WriteHead stores hash at the meta-store HEAD_KEY sentinel.
func WriteHead(db KVStore, hash types.Hash) error {
	return db.Put(HeadKey[:], hash[:])
}

// ReadDeletePointer returns the hash stored at the meta-store
// DELETE_POINTER_KEY sentinel, used to resume an interrupted
// CleanInvalidBlocks run.
func ReadDeletePointer(db KVStore) (types.Hash, bool, error) {
	v, ok, err := db.Get(DeletePointerKey[:])
	if err != nil || !ok {
		return types.Hash{}, ok, err
	}
	var h types.Hash
	copy(h[:], v)
	return h, true, nil
}

// WriteDeletePointer stores hash at the meta-store DELETE_POINTER_KEY
// sentinel.
func WriteDeletePointer(db KVStore, hash types.Hash) error {
	return db.Put(DeletePointerKey[:], hash[:])
}

// ClearDeletePointer removes the DELETE_POINTER_KEY sentinel once a
// CleanInvalidBlocks run completes.
func ClearDeletePointer(db KVStore) error {
	return db.Delete(DeletePointerKey[:])
}
