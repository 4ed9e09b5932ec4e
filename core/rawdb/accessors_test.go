package rawdb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blocktreelabs/blocktree/core/types"
)

func TestHeaderStorage(t *testing.T) {
	db := NewMemoryStore()
	hash := types.HashBytes([]byte("header-1"))

	_, ok, err := ReadHeader(db, hash)
	require.NoError(t, err)
	require.False(t, ok, "non-existent header returned as present")

	require.NoError(t, WriteHeader(db, hash, []byte("encoded-header")))

	got, ok, err := ReadHeader(db, hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("encoded-header"), got)

	require.NoError(t, DeleteHeader(db, hash))
	_, ok, err = ReadHeader(db, hash)
	require.NoError(t, err)
	require.False(t, ok, "deleted header still present")
}

func TestBlockStorage(t *testing.T) {
	db := NewMemoryStore()
	hash := types.HashBytes([]byte("block-1"))

	require.NoError(t, WriteBlock(db, hash, []byte("encoded-block")))
	got, ok, err := ReadBlock(db, hash)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("encoded-block"), got)

	require.NoError(t, DeleteBlock(db, hash))
	_, ok, err = ReadBlock(db, hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLevelStorage(t *testing.T) {
	db := NewMemoryStore()

	_, ok, err := ReadLevel(db, 7)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, WriteLevel(db, 7, []byte("encoded-level-7")))
	require.NoError(t, WriteLevel(db, 8, []byte("encoded-level-8")))

	got, ok, err := ReadLevel(db, 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("encoded-level-7"), got)

	require.NoError(t, DeleteLevel(db, 7))
	_, ok, err = ReadLevel(db, 7)
	require.NoError(t, err)
	require.False(t, ok)

	// level 8 is untouched by deleting level 7
	got, ok, err = ReadLevel(db, 8)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("encoded-level-8"), got)
}

func TestHeadSentinel(t *testing.T) {
	db := NewMemoryStore()

	_, ok, err := ReadHead(db)
	require.NoError(t, err)
	require.False(t, ok)

	hash := types.HashBytes([]byte("head"))
	require.NoError(t, WriteHead(db, hash))

	got, ok, err := ReadHead(db)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hash, got)
}

func TestDeletePointerSentinel(t *testing.T) {
	db := NewMemoryStore()

	_, ok, err := ReadDeletePointer(db)
	require.NoError(t, err)
	require.False(t, ok)

	hash := types.HashBytes([]byte("descendant"))
	require.NoError(t, WriteDeletePointer(db, hash))

	got, ok, err := ReadDeletePointer(db)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hash, got)

	require.NoError(t, ClearDeletePointer(db))
	_, ok, err = ReadDeletePointer(db)
	require.NoError(t, err)
	require.False(t, ok)
}

// TestSentinelKeysDoNotCollideWithLevelKeys guards the schema invariant
// that HEAD_KEY/DELETE_POINTER_KEY (32 bytes) never alias an 8-byte
// level key, since all three share the meta namespace.
func TestSentinelKeysDoNotCollideWithLevelKeys(t *testing.T) {
	require.NotEqual(t, levelKey(0), HeadKey[:])
	require.Len(t, levelKey(0), 8)
	require.Len(t, HeadKey[:], 32)
	require.Len(t, DeletePointerKey[:], 32)
}

func TestLevelDBStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenLevelDBStore(dir)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	v, ok, err := store.Get([]byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)

	require.NoError(t, store.Delete([]byte("k")))
	_, ok, err = store.Get([]byte("k"))
	require.NoError(t, err)
	require.False(t, ok)
}
