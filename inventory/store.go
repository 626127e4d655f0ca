/*
store.go - Persistence interface for the three collections

PURPOSE:
  Defines the boundary between the ledger and the backend. A backend is a
  plain key-value blob store: it knows nothing about transactions, only
  keys and bytes. Each collection is one key holding one JSON array.

ATOMIC BATCHES:
  Save() writes every entry or none. A mutation that changes purchases
  and sales also rewrites stock; all three land in one call so persisted
  state is never half-applied.

IMPLEMENTATIONS:
  - inventory/store/memory.go: In-memory, for tests and throwaway sessions
  - store/sqlite/sqlite.go:    SQLite key-value table

SEE ALSO:
  - records.go: JSON encoding, tolerant reads and pending writes on top of Store
*/
package inventory

import "context"

// Entry is one key/value pair written by Store.Save.
type Entry struct {
	Key   string
	Value []byte
}

// Store persists raw collection blobs.
type Store interface {
	// Load returns the blob stored under key. ok is false when the key is absent.
	Load(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Save persists all entries atomically: either all succeed or none do.
	Save(ctx context.Context, entries ...Entry) error

	// Close releases backend resources.
	Close() error
}
