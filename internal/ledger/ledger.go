// Package ledger persists run records and per-chunk metadata. Chunk payloads
// are never stored.
package ledger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"pkg.jsn.cam/numgen/pkg/numgen"
	"pkg.jsn.cam/numgen/pkg/numgen/protocol"
	"pkg.jsn.cam/numgen/pkg/storage"
)

var runsBucket = []byte("runs")

// Ledger records generation runs.
type Ledger interface {
	SaveRun(run *protocol.Run) error
	SaveChunk(runID string, meta numgen.ChunkMeta) error

	// LoadRun returns numgen.ErrRunNotFound for an unknown ID.
	LoadRun(runID string) (*protocol.Run, error)
	// LoadChunks returns the recorded chunks ordered by index.
	LoadChunks(runID string) ([]numgen.ChunkMeta, error)
	ListRuns() ([]*protocol.Run, error)

	Close() error
}

// Store implements Ledger on a storage backend.
type Store struct {
	store *storage.JSONStore
}

// New creates a ledger on backend.
func New(backend storage.Backend) (*Store, error) {
	if err := backend.CreateBucket(runsBucket); err != nil {
		return nil, fmt.Errorf("create runs bucket: %w", err)
	}
	return &Store{store: storage.NewJSONStore(backend)}, nil
}

// NewBbolt opens a bbolt-backed ledger at dbPath, creating parent directories.
func NewBbolt(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	backend, err := storage.NewBboltBackend(dbPath)
	if err != nil {
		return nil, err
	}

	l, err := New(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	log.Printf("[LEDGER] Bbolt ledger initialized at %s", dbPath)
	return l, nil
}

func chunksBucket(runID string) []byte {
	return []byte(fmt.Sprintf("run_%s_chunks", runID))
}

// chunkKey zero-pads the index so that bucket order is index order.
func chunkKey(index int) []byte {
	return []byte(fmt.Sprintf("%010d", index))
}

func (s *Store) SaveRun(run *protocol.Run) error {
	if err := s.store.PutJSON(runsBucket, []byte(run.ID), run); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) SaveChunk(runID string, meta numgen.ChunkMeta) error {
	data, err := storage.EncodeJSON(meta)
	if err != nil {
		return err
	}

	return s.store.Update(func(tx storage.Transaction) error {
		name := chunksBucket(runID)
		if err := tx.CreateBucket(name); err != nil {
			return err
		}
		return tx.Bucket(name).Put(chunkKey(meta.Index), data)
	})
}

func (s *Store) LoadRun(runID string) (*protocol.Run, error) {
	var run protocol.Run
	found, err := s.store.GetJSON(runsBucket, []byte(runID), &run)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", numgen.ErrRunNotFound, runID)
	}
	return &run, nil
}

func (s *Store) LoadChunks(runID string) ([]numgen.ChunkMeta, error) {
	var chunks []numgen.ChunkMeta

	err := s.store.View(func(tx storage.Transaction) error {
		b := tx.Bucket(chunksBucket(runID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var meta numgen.ChunkMeta
			if err := storage.DecodeJSON(v, &meta); err != nil {
				return err
			}
			chunks = append(chunks, meta)
			return nil
		})
	})

	return chunks, err
}

// ListRuns returns every recorded run, oldest first.
func (s *Store) ListRuns() ([]*protocol.Run, error) {
	var runs []*protocol.Run

	err := s.store.View(func(tx storage.Transaction) error {
		return tx.Bucket(runsBucket).ForEach(func(k, v []byte) error {
			var run protocol.Run
			if err := storage.DecodeJSON(v, &run); err != nil {
				log.Printf("[LEDGER] Warning: Failed to decode run %s: %v", k, err)
				return nil // Skip corrupted runs
			}
			runs = append(runs, &run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})
	return runs, nil
}

func (s *Store) Close() error {
	return s.store.Close()
}

// NoOpLedger discards everything.
type NoOpLedger struct{}

func NewNoOpLedger() *NoOpLedger {
	return &NoOpLedger{}
}

func (NoOpLedger) SaveRun(*protocol.Run) error              { return nil }
func (NoOpLedger) SaveChunk(string, numgen.ChunkMeta) error { return nil }
func (NoOpLedger) LoadRun(runID string) (*protocol.Run, error) {
	return nil, fmt.Errorf("%w: %s", numgen.ErrRunNotFound, runID)
}
func (NoOpLedger) LoadChunks(string) ([]numgen.ChunkMeta, error) { return nil, nil }
func (NoOpLedger) ListRuns() ([]*protocol.Run, error)            { return nil, nil }
func (NoOpLedger) Close() error                                  { return nil }

var (
	_ Ledger = (*Store)(nil)
	_ Ledger = NoOpLedger{}
)
