/*
records.go - Collection access on top of a Store

PURPOSE:
  Records turns raw blobs into typed collections and back. It is the only
  code that touches the Store.

READS:
  Views (Purchases, Sales, Stock) never fail: an absent key, a backend read
  error, or a blob that is not a valid JSON array all read as an empty
  collection and the problem is logged.
  Mutations read through Logs instead. A backend read error there is
  returned, because rewriting a log that could not be read would replace
  the persisted history with whatever the mutation appended. Nothing is
  cached after a failed load, so the next read retries the backend.

WRITES NEVER HALT:
  Save() updates the in-memory copy first, then persists. If the backend
  rejects the write, the collections stay marked pending and the error is
  logged. Memory remains the source of truth for the session, and the next
  successful Save (or Flush) writes the pending collections as well.
*/
package inventory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Change is one collection to be written by Records.Save.
type Change struct {
	Collection Collection
	value      any
}

// PurchasesChange replaces the purchase log.
func PurchasesChange(txs []Transaction) Change {
	return Change{Collection: CollectionPurchases, value: nonNil(txs)}
}

// SalesChange replaces the sale log.
func SalesChange(txs []Transaction) Change {
	return Change{Collection: CollectionSales, value: nonNil(txs)}
}

// StockChange replaces the stock table.
func StockChange(stock []StockRecord) Change {
	return Change{Collection: CollectionStock, value: nonNil(stock)}
}

// Records reads and writes the three collections.
type Records struct {
	store Store
	log   zerolog.Logger

	mu      sync.Mutex
	cache   map[Collection][]byte
	pending map[Collection]bool
}

// NewRecords wraps a backend.
func NewRecords(store Store, log zerolog.Logger) *Records {
	return &Records{
		store:   store,
		log:     log.With().Str("component", "records").Logger(),
		cache:   make(map[Collection][]byte),
		pending: make(map[Collection]bool),
	}
}

// Backend returns the store the collections are persisted to.
func (r *Records) Backend() Store {
	return r.store
}

// Purchases returns a copy of the purchase log.
func (r *Records) Purchases(ctx context.Context) []Transaction {
	return readCollection[Transaction](ctx, r, CollectionPurchases)
}

// Sales returns a copy of the sale log.
func (r *Records) Sales(ctx context.Context) []Transaction {
	return readCollection[Transaction](ctx, r, CollectionSales)
}

// Stock returns a copy of the persisted stock table.
func (r *Records) Stock(ctx context.Context) []StockRecord {
	return readCollection[StockRecord](ctx, r, CollectionStock)
}

// Logs returns both transaction logs for a mutation. Unlike the views it
// fails with a *StorageError when the backend cannot be read; a blob that is
// absent or not valid JSON still reads as empty.
func (r *Records) Logs(ctx context.Context) (purchases, sales []Transaction, err error) {
	if purchases, err = loadCollection[Transaction](ctx, r, CollectionPurchases); err != nil {
		return nil, nil, err
	}
	if sales, err = loadCollection[Transaction](ctx, r, CollectionSales); err != nil {
		return nil, nil, err
	}
	return purchases, sales, nil
}

func readCollection[T any](ctx context.Context, r *Records, c Collection) []T {
	out, err := loadCollection[T](ctx, r, c)
	if err != nil {
		r.log.Warn().Err(err).Msg("collection unreadable, reading as empty")
		return []T{}
	}
	return out
}

func loadCollection[T any](ctx context.Context, r *Records, c Collection) ([]T, error) {
	raw, ok, err := r.raw(ctx, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		r.log.Warn().Err(err).Str("collection", string(c)).Msg("collection is not valid JSON, reading as empty")
		return []T{}, nil
	}
	if out == nil {
		return []T{}, nil
	}
	return out, nil
}

func (r *Records) raw(ctx context.Context, c Collection) ([]byte, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.cache[c]; ok {
		return b, true, nil
	}
	b, ok, err := r.store.Load(ctx, string(c))
	if err != nil {
		return nil, false, &StorageError{Op: "load", Collections: []Collection{c}, Err: err}
	}
	if !ok {
		return nil, false, nil
	}
	r.cache[c] = b
	return b, true, nil
}

// Save replaces the given collections. Memory is updated even when the
// backend write fails; the returned *StorageError is informational.
func (r *Records) Save(ctx context.Context, changes ...Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ch := range changes {
		b, err := json.Marshal(ch.value)
		if err != nil {
			serr := &StorageError{Op: "encode", Collections: []Collection{ch.Collection}, Err: err}
			r.log.Error().Err(serr).Msg("collection not saved")
			return serr
		}
		r.cache[ch.Collection] = b
		r.pending[ch.Collection] = true
	}
	return r.flushLocked(ctx)
}

// Flush retries any pending collections.
func (r *Records) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushLocked(ctx)
}

// Pending lists collections whose in-memory state is not yet persisted.
func (r *Records) Pending() []Collection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Collection
	for _, c := range Collections {
		if r.pending[c] {
			out = append(out, c)
		}
	}
	return out
}

func (r *Records) flushLocked(ctx context.Context) error {
	var (
		entries []Entry
		names   []Collection
	)
	for _, c := range Collections {
		if !r.pending[c] {
			continue
		}
		entries = append(entries, Entry{Key: string(c), Value: r.cache[c]})
		names = append(names, c)
	}
	if len(entries) == 0 {
		return nil
	}

	if err := r.store.Save(ctx, entries...); err != nil {
		serr := &StorageError{Op: "save", Collections: names, Err: err}
		r.log.Error().Err(serr).Msg("persisted state is behind memory until the next successful save")
		return serr
	}
	for _, c := range names {
		delete(r.pending, c)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
