package storage

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryBackend implements Backend with in-memory maps. Nothing is persisted.
// Iteration follows key order, like bbolt.
type MemoryBackend struct {
	buckets map[string]map[string][]byte
	mu      sync.RWMutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		buckets: make(map[string]map[string][]byte),
	}
}

func (m *MemoryBackend) CreateBucket(name []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createBucket(name)
	return nil
}

func (m *MemoryBackend) BucketExists(name []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.buckets[string(name)]
	return exists, nil
}

func (m *MemoryBackend) Put(bucket, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.put(bucket, key, value)
}

func (m *MemoryBackend) Get(bucket, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bkt, exists := m.buckets[string(bucket)]
	if !exists {
		return nil, fmt.Errorf("bucket not found: %s", bucket)
	}
	return cloneBytes(bkt[string(key)]), nil
}

func (m *MemoryBackend) ForEach(bucket []byte, fn func(k, v []byte) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.forEach(bucket, fn)
}

// Update holds the write lock for the whole transaction.
func (m *MemoryBackend) Update(fn func(tx Transaction) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(memoryTx{m: m})
}

// View holds the read lock for the whole transaction.
func (m *MemoryBackend) View(fn func(tx Transaction) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return fn(memoryTx{m: m, readOnly: true})
}

func (m *MemoryBackend) Close() error {
	return nil
}

// The helpers below expect the caller to hold m.mu.

func (m *MemoryBackend) createBucket(name []byte) {
	if _, exists := m.buckets[string(name)]; !exists {
		m.buckets[string(name)] = make(map[string][]byte)
	}
}

func (m *MemoryBackend) put(bucket, key, value []byte) error {
	bkt, exists := m.buckets[string(bucket)]
	if !exists {
		return fmt.Errorf("bucket not found: %s", bucket)
	}
	bkt[string(key)] = cloneBytes(value)
	return nil
}

func (m *MemoryBackend) forEach(bucket []byte, fn func(k, v []byte) error) error {
	bkt, exists := m.buckets[string(bucket)]
	if !exists {
		return fmt.Errorf("bucket not found: %s", bucket)
	}

	keys := make([]string, 0, len(bkt))
	for k := range bkt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := fn([]byte(k), bkt[k]); err != nil {
			return err
		}
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

type memoryTx struct {
	m        *MemoryBackend
	readOnly bool
}

func (t memoryTx) CreateBucket(name []byte) error {
	if t.readOnly {
		return fmt.Errorf("create bucket %s: read-only transaction", name)
	}
	t.m.createBucket(name)
	return nil
}

func (t memoryTx) DeleteBucket(name []byte) error {
	if t.readOnly {
		return fmt.Errorf("delete bucket %s: read-only transaction", name)
	}
	delete(t.m.buckets, string(name))
	return nil
}

func (t memoryTx) Bucket(name []byte) Bucket {
	if _, exists := t.m.buckets[string(name)]; !exists {
		return nil
	}
	return memoryBucket{tx: t, name: name}
}

func (t memoryTx) ForEachBucket(fn func(name []byte) error) error {
	names := make([]string, 0, len(t.m.buckets))
	for name := range t.m.buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := fn([]byte(name)); err != nil {
			return err
		}
	}
	return nil
}

type memoryBucket struct {
	tx   memoryTx
	name []byte
}

func (b memoryBucket) Put(key, value []byte) error {
	if b.tx.readOnly {
		return fmt.Errorf("put %s: read-only transaction", key)
	}
	return b.tx.m.put(b.name, key, value)
}

func (b memoryBucket) Get(key []byte) []byte {
	return b.tx.m.buckets[string(b.name)][string(key)]
}

func (b memoryBucket) ForEach(fn func(k, v []byte) error) error {
	return b.tx.m.forEach(b.name, fn)
}
