package rawdb

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
)

// KVStore is the narrow get/put/delete contract the tree needs from each
// of its three namespaces (headers, blocks, meta). No batches, no ordered
// iteration, no compaction: the tree never asks for any of that.
type KVStore interface {
	Get(key []byte) (value []byte, ok bool, err error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Close() error
}

// Store bundles the three independently-backed namespaces a BlockTree
// reads and writes.
type Store struct {
	Headers KVStore
	Blocks  KVStore
	Meta    KVStore
}

// Close closes all three namespaces, returning the first error
// encountered while still attempting to close the rest.
func (s *Store) Close() error {
	var first error
	for _, kv := range []KVStore{s.Headers, s.Blocks, s.Meta} {
		if kv == nil {
			continue
		}
		if err := kv.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// memoryStore is a map-backed KVStore for tests and short-lived nodes.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory KVStore.
func NewMemoryStore() KVStore {
	return &memoryStore{data: make(map[string][]byte)}
}

// NewMemoryDatabase returns a Store whose three namespaces are
// independent in-memory maps, matching the teacher's
// abeydb.NewMemDatabase() test-fixture convention.
func NewMemoryDatabase() *Store {
	return &Store{
		Headers: NewMemoryStore(),
		Blocks:  NewMemoryStore(),
		Meta:    NewMemoryStore(),
	}
}

func (m *memoryStore) Get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *memoryStore) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[string(key)] = v
	return nil
}

func (m *memoryStore) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *memoryStore) Close() error { return nil }

// levelDBStore adapts a goleveldb engine to KVStore.
type levelDBStore struct {
	db *leveldb.DB
}

// OpenLevelDBStore opens (creating if absent) a single LevelDB engine
// rooted at dir.
func OpenLevelDBStore(dir string) (KVStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, err
	}
	return &levelDBStore{db: db}, nil
}

// OpenLevelDBDatabase opens three independent LevelDB engines, one per
// namespace, rooted at headers/blocks/meta subdirectories of dir.
func OpenLevelDBDatabase(dir string) (*Store, error) {
	headers, err := OpenLevelDBStore(dir + "/headers")
	if err != nil {
		return nil, err
	}
	blocks, err := OpenLevelDBStore(dir + "/blocks")
	if err != nil {
		headers.Close()
		return nil, err
	}
	meta, err := OpenLevelDBStore(dir + "/meta")
	if err != nil {
		headers.Close()
		blocks.Close()
		return nil, err
	}
	return &Store{Headers: headers, Blocks: blocks, Meta: meta}, nil
}

func (l *levelDBStore) Get(key []byte) ([]byte, bool, error) {
	v, err := l.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (l *levelDBStore) Put(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *levelDBStore) Delete(key []byte) error {
	return l.db.Delete(key, nil)
}

func (l *levelDBStore) Close() error {
	return l.db.Close()
}
