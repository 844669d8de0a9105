// Package storage provides a small bucketed key-value abstraction used to
// persist run metadata.
package storage

// Backend is a bucketed key-value store working on raw bytes.
// Callers choose the value encoding; JSONStore covers the common case.
type Backend interface {
	CreateBucket(name []byte) error
	BucketExists(name []byte) (bool, error)

	Put(bucket, key, value []byte) error
	// Get returns nil without error when the key is absent.
	Get(bucket, key []byte) ([]byte, error)

	ForEach(bucket []byte, fn func(k, v []byte) error) error

	// Update runs fn in a read-write transaction, View in a read-only one.
	Update(fn func(tx Transaction) error) error
	View(fn func(tx Transaction) error) error

	Close() error
}

// Transaction groups bucket operations.
type Transaction interface {
	CreateBucket(name []byte) error
	DeleteBucket(name []byte) error
	// Bucket returns nil when the bucket does not exist.
	Bucket(name []byte) Bucket
	ForEachBucket(fn func(name []byte) error) error
}

// Bucket is a single bucket inside a transaction.
type Bucket interface {
	Put(key, value []byte) error
	Get(key []byte) []byte
	ForEach(fn func(k, v []byte) error) error
}
