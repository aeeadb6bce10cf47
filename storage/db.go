// Package storage implements the persistence façade used by the pool,
// backstop, auction, and emissions engines. Every engine reads and writes
// through the KVStore interface; the concrete backend (in-memory, bbolt, or
// goleveldb) is chosen by the caller, mirroring how the teacher's
// core/state.Manager sits on top of a swappable Database.
package storage

import (
	"errors"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by Get when the key has no stored value.
var ErrNotFound = errors.New("storage: key not found")

// KVStore is a generic interface for a key-value store. It generalizes the
// teacher's Database interface (Put/Get/Close) with Delete (used by
// storage.Delete, which removes empty positions and finished auctions) and Has.
type KVStore interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close() error
}

// --- In-memory backend (tests, scenario harness) ---

// MemKV is a map-backed KVStore, grounded on the teacher's MemDB.
type MemKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemKV constructs an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{data: make(map[string][]byte)}
}

func (m *MemKV) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cloned := append([]byte(nil), value...)
	m.data[string(key)] = cloned
	return nil
}

func (m *MemKV) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemKV) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemKV) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, string(key))
	return nil
}

func (m *MemKV) Close() error { return nil }

// --- goleveldb backend ---

// LevelKV is a goleveldb-backed KVStore, grounded on the teacher's LevelDB.
type LevelKV struct {
	db *leveldb.DB
}

// NewLevelKV creates or opens a goleveldb database at path.
func NewLevelKV(path string) (*LevelKV, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelKV{db: db}, nil
}

func (l *LevelKV) Put(key, value []byte) error { return l.db.Put(key, value, nil) }

func (l *LevelKV) Get(key []byte) ([]byte, error) {
	value, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (l *LevelKV) Has(key []byte) (bool, error) { return l.db.Has(key, nil) }

func (l *LevelKV) Delete(key []byte) error { return l.db.Delete(key, nil) }

func (l *LevelKV) Close() error { return l.db.Close() }

// --- bbolt backend ---

var boltBucket = []byte("corelend")

// BoltKV is a bbolt-backed KVStore (go.etcd.io/bbolt). Like MemKV and
// LevelKV, a single instance holds the entries of every storage tier.
type BoltKV struct {
	db *bolt.DB
}

// NewBoltKV opens (creating if absent) a single-bucket bbolt database at path.
func NewBoltKV(path string) (*BoltKV, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltKV{db: db}, nil
}

func (b *BoltKV) Put(key, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put(key, value)
	})
}

func (b *BoltKV) Get(key []byte) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get(key)
		if v == nil {
			return ErrNotFound
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BoltKV) Has(key []byte) (bool, error) {
	found := false
	err := b.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(boltBucket).Get(key) != nil
		return nil
	})
	return found, err
}

func (b *BoltKV) Delete(key []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete(key)
	})
}

func (b *BoltKV) Close() error { return b.db.Close() }
