/*
ledger.go - The parts ledger service

PURPOSE:
  Ledger is the one entry point for every read and mutation. It owns the
  Records, the clock and the logger, and serializes operations so an HTTP
  adapter can call it from many goroutines.

INVARIANT:
  Every mutation ends in commit(), which rebuilds stock from the new logs
  and saves the changed logs together with the rebuilt stock in a single
  batch. Stock is therefore always RebuildStock(purchases, sales).

FAILURE MODEL:
  Validation, not-found and insufficient-stock errors are raised before
  commit(), so they leave every collection untouched. So does a backend
  read error while loading the logs. Save errors are logged by Records and
  do not fail the operation: memory keeps the result and the write is
  retried.

SCALE:
  Collections are read and rewritten in full on each mutation. This assumes
  hundreds of records, not millions.

SEE ALSO:
  - recorder.go, propagate.go, adjust.go, edit.go: the mutations
  - query.go: read-only views
*/
package inventory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Ledger records purchases and sales and keeps stock reconciled.
type Ledger struct {
	records *Records
	log     zerolog.Logger

	// Now is the clock used for default dates. Replace it in tests.
	Now func() time.Time

	mu sync.Mutex
}

// NewLedger creates a ledger over the given backend.
func NewLedger(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		records: NewRecords(store, log),
		log:     log.With().Str("component", "ledger").Logger(),
		Now:     time.Now,
	}
}

// Records exposes the underlying collection access (pending writes, flush).
func (l *Ledger) Records() *Records {
	return l.records
}

func (l *Ledger) today() string {
	return FormatDate(l.Now())
}

// logs is a working copy of both transaction logs. Mutations edit it and
// hand it to commit.
type logs struct {
	purchases []Transaction
	sales     []Transaction

	purchasesChanged bool
	salesChanged     bool
}

// load reads both logs for a mutation. A backend read error aborts the
// mutation before anything is written.
func (l *Ledger) load(ctx context.Context) (*logs, error) {
	purchases, sales, err := l.records.Logs(ctx)
	if err != nil {
		l.log.Error().Err(err).Msg("logs unreadable, mutation aborted")
		return nil, err
	}
	return &logs{purchases: purchases, sales: sales}, nil
}

func (lg *logs) stock() []StockRecord {
	return RebuildStock(lg.purchases, lg.sales)
}

// commit saves the changed logs and the stock rebuilt from them in one batch.
func (l *Ledger) commit(ctx context.Context, lg *logs) []StockRecord {
	stock := lg.stock()

	changes := make([]Change, 0, 3)
	if lg.purchasesChanged {
		changes = append(changes, PurchasesChange(lg.purchases))
	}
	if lg.salesChanged {
		changes = append(changes, SalesChange(lg.sales))
	}
	changes = append(changes, StockChange(stock))

	// Storage failures are logged by Records; memory already holds the result.
	_ = l.records.Save(ctx, changes...)

	l.log.Debug().
		Int("purchases", len(lg.purchases)).
		Int("sales", len(lg.sales)).
		Int("stock", len(stock)).
		Msg("stock reconciled")
	return stock
}

// Replace swaps both logs wholesale and reconciles. Import and demo resets go
// through here; rows are stored as given apart from trimming identities.
func (l *Ledger) Replace(ctx context.Context, purchases, sales []Transaction) []StockRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg := &logs{
		purchases:        trimmed(purchases),
		sales:            trimmed(sales),
		purchasesChanged: true,
		salesChanged:     true,
	}
	stock := l.commit(ctx, lg)

	l.log.Info().
		Int("purchases", len(lg.purchases)).
		Int("sales", len(lg.sales)).
		Msg("logs replaced")
	return stock
}

func trimmed(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		tx.PartName = strings.TrimSpace(tx.PartName)
		tx.PartNumber = strings.TrimSpace(tx.PartNumber)
		tx.Date = strings.TrimSpace(tx.Date)
		out[i] = tx
	}
	return out
}
