package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/parts-ledger/inventory"
	"github.com/warp/parts-ledger/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	value, ok, err := s.Load(context.Background(), "purchases")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestStore_SaveBatchAndOverwrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Save(ctx,
		inventory.Entry{Key: "purchases", Value: []byte(`[1]`)},
		inventory.Entry{Key: "stock", Value: []byte(`[2]`)},
	))
	require.NoError(t, s.Save(ctx, inventory.Entry{Key: "stock", Value: []byte(`[3]`)}))

	p, ok, err := s.Load(ctx, "purchases")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[1]`, string(p))

	st, _, err := s.Load(ctx, "stock")
	require.NoError(t, err)
	assert.Equal(t, `[3]`, string(st))

	at, err := s.UpdatedAt(ctx, "stock")
	require.NoError(t, err)
	assert.False(t, at.IsZero())
}

func TestStore_UpdatedAtNeverWritten(t *testing.T) {
	at, err := newTestStore(t).UpdatedAt(context.Background(), "sales")

	require.NoError(t, err)
	assert.True(t, at.IsZero())
}

func TestStore_LedgerSurvivesReopen(t *testing.T) {
	// GIVEN: A ledger on a file-backed database
	// WHEN: Recording a purchase, closing, and reopening
	// THEN: The purchase and the derived stock are read back

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "parts.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	l := inventory.NewLedger(s, zerolog.Nop())
	_, err = l.RecordPurchase(ctx, inventory.TransactionInput{
		Date:       "2025-01-01",
		PartName:   "Bolt",
		PartNumber: "P1",
		Quantity:   10,
		Price:      decimal.RequireFromString("0.25"),
	})
	require.NoError(t, err)
	require.Empty(t, l.Records().Pending())
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	reopened := inventory.NewLedger(s, zerolog.Nop())

	require.Len(t, reopened.Purchases(ctx), 1)
	stock := reopened.Stock(ctx)
	require.Len(t, stock, 1)
	assert.Equal(t, 10, stock[0].Quantity)
}
