package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/parts-ledger/inventory"
	"github.com/warp/parts-ledger/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const today = "2025-03-15"

func newTestLedger(t *testing.T) (*inventory.Ledger, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	t.Cleanup(func() { mem.Close() })

	return withClock(inventory.NewLedger(mem, zerolog.Nop())), mem
}

func withClock(l *inventory.Ledger) *inventory.Ledger {
	l.Now = func() time.Time { return time.Date(2025, time.March, 15, 9, 30, 0, 0, time.UTC) }
	return l
}

func input(date, name, number string, qty int, price string) inventory.TransactionInput {
	return inventory.TransactionInput{
		Date:       date,
		PartName:   name,
		PartNumber: number,
		Quantity:   qty,
		Price:      decimal.RequireFromString(price),
	}
}

func mustPurchase(t *testing.T, l *inventory.Ledger, in inventory.TransactionInput) {
	t.Helper()
	_, err := l.RecordPurchase(context.Background(), in)
	require.NoError(t, err)
}

func mustSell(t *testing.T, l *inventory.Ledger, in inventory.TransactionInput) {
	t.Helper()
	_, err := l.RecordSale(context.Background(), in)
	require.NoError(t, err)
}

// boltsOnHand records 10 purchased and 3 sold P1/Bolt, leaving 7.
func boltsOnHand(t *testing.T) (*inventory.Ledger, *store.Memory) {
	l, mem := newTestLedger(t)
	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 10, "0.25"))
	mustSell(t, l, input("2025-01-05", "Bolt", "P1", 3, "0.50"))
	return l, mem
}

func assertStockIsDerived(t *testing.T, l *inventory.Ledger) {
	t.Helper()
	ctx := context.Background()
	want := inventory.RebuildStock(l.Purchases(ctx), l.Sales(ctx))
	assert.Equal(t, want, l.Stock(ctx))
}

// =============================================================================
// TRANSACTION RECORDER
// =============================================================================

func TestRecordPurchase_DefaultsDateAndRounds(t *testing.T) {
	// GIVEN: A purchase with no date and a three-decimal price
	// WHEN: Recording it
	// THEN: Date is today, price and total are rounded to cents

	l, _ := newTestLedger(t)
	ctx := context.Background()

	got, err := l.RecordPurchase(ctx, input("", " Bolt ", " P1 ", 3, "2.499"))
	require.NoError(t, err)

	assert.Equal(t, today, got.Date)
	assert.Equal(t, "Bolt", got.PartName)
	assert.Equal(t, "P1", got.PartNumber)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("7.5")))

	stock := l.Stock(ctx)
	require.Len(t, stock, 1)
	assert.Equal(t, 3, stock[0].Quantity)
	assert.Equal(t, today, stock[0].LastUpdated)
}

func TestRecordPurchase_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    inventory.TransactionInput
		field string
	}{
		{"missing name", input("", " ", "P1", 1, "1"), "partName"},
		{"zero quantity", input("", "Bolt", "P1", 0, "1"), "quantity"},
		{"negative quantity", input("", "Bolt", "P1", -2, "1"), "quantity"},
		{"negative price", input("", "Bolt", "P1", 1, "-0.01"), "price"},
		{"unparseable date", input("15/03/2025", "Bolt", "P1", 1, "1"), "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, mem := newTestLedger(t)

			_, err := l.RecordPurchase(context.Background(), tt.in)

			assert.ErrorIs(t, err, inventory.ErrValidation)
			var verr *inventory.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, 0, mem.Keys(), "nothing may be written")
		})
	}
}

func TestRecordPurchase_NoNumberAllowed(t *testing.T) {
	l, _ := newTestLedger(t)
	mustPurchase(t, l, input("2025-01-01", "Washer", "", 50, "0.05"))

	stock := l.Stock(context.Background())
	require.Len(t, stock, 1)
	assert.Equal(t, "Washer", stock[0].PartNumber)
}

func TestRecordSale_UnknownIdentity_NotFound(t *testing.T) {
	// GIVEN: Stock holds P1/Bolt
	// WHEN: Selling P1/Nut (number matches, name does not)
	// THEN: NotFoundError and the sale log stays empty

	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 10, "0.25"))

	_, err := l.RecordSale(ctx, input("2025-01-02", "Nut", "P1", 1, "1"))

	var nf *inventory.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.True(t, inventory.IsNotFound(err))
	assert.Equal(t, "P1", nf.PartNumber)
	assert.Equal(t, "Nut", nf.PartName)
	assert.Empty(t, l.Sales(ctx))
	assert.Equal(t, 10, l.Stock(ctx)[0].Quantity)
}

func TestRecordSale_InsufficientStock(t *testing.T) {
	// GIVEN: 5 bolts on hand
	// WHEN: Selling 6
	// THEN: InsufficientStockError with available 5, requested 6

	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 5, "0.25"))

	_, err := l.RecordSale(ctx, input("2025-01-02", "Bolt", "P1", 6, "0.50"))

	var short *inventory.InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.True(t, inventory.IsClientError(err))
	assert.Equal(t, 5, short.Available)
	assert.Equal(t, 6, short.Requested)
	assert.Empty(t, l.Sales(ctx))
	assert.Equal(t, 5, l.Stock(ctx)[0].Quantity)
}

func TestRecordSale_UsesCanonicalSpelling(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustPurchase(t, l, input("2025-01-01", "Hex Bolt", "P1", 5, "0.25"))

	got, err := l.RecordSale(ctx, input("", "hex bolt", "P1", 2, "0.5"))
	require.NoError(t, err)

	assert.Equal(t, "Hex Bolt", got.PartName)
	assert.Equal(t, today, got.Date)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 3, l.Stock(ctx)[0].Quantity)
}

func TestRecordSale_SellOut_RemovesRow(t *testing.T) {
	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 4, "0.25"))

	mustSell(t, l, input("2025-01-02", "Bolt", "P1", 4, "0.50"))

	assert.Empty(t, l.Stock(ctx))
	_, err := l.RecordSale(ctx, input("2025-01-03", "Bolt", "P1", 1, "0.50"))
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestRecordSale_Validation(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	for _, in := range []inventory.TransactionInput{
		input("", "Bolt", "", 1, "1"),
		input("", "", "P1", 1, "1"),
		input("", "Bolt", "P1", 0, "1"),
		input("", "Bolt", "P1", 1, "-1"),
		input("2025-13-01", "Bolt", "P1", 1, "1"),
	} {
		_, err := l.RecordSale(ctx, in)
		assert.ErrorIs(t, err, inventory.ErrValidation)
	}
	assert.Len(t, l.Sales(ctx), 1)
}

// =============================================================================
// IDENTITY PROPAGATOR
// =============================================================================

func TestRenameIdentity_CarriesHistory(t *testing.T) {
	// GIVEN: 10 bought and 3 sold as P1/Bolt
	// WHEN: Renaming P1/Bolt to P2/BoltV2
	// THEN: Both logs are rewritten and stock shows P2/BoltV2 with 7

	l, _ := boltsOnHand(t)
	ctx := context.Background()

	r, err := l.RenameIdentity(ctx, "P1", "Bolt", "P2", "BoltV2")
	require.NoError(t, err)

	assert.Equal(t, inventory.Renamed{Purchases: 1, Sales: 1}, r)
	stock := l.Stock(ctx)
	require.Len(t, stock, 1)
	assert.Equal(t, "P2", stock[0].PartNumber)
	assert.Equal(t, "BoltV2", stock[0].PartName)
	assert.Equal(t, 7, stock[0].Quantity)
	assertStockIsDerived(t, l)
}

func TestRenameIdentity_RequiresBothSides(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	_, err := l.RenameIdentity(ctx, "", " ", "P2", "BoltV2")
	assert.ErrorIs(t, err, inventory.ErrValidation)

	_, err = l.RenameIdentity(ctx, "P1", "Bolt", "", "")
	assert.ErrorIs(t, err, inventory.ErrValidation)

	assert.Equal(t, "P1", l.Stock(ctx)[0].PartNumber)
}

// =============================================================================
// STOCK ADJUSTMENT
// =============================================================================

func TestSynthesizeAdjustment_BooksPurchaseDelta(t *testing.T) {
	// GIVEN: Derived stock of 7
	// WHEN: Setting the quantity to 20
	// THEN: A zero-priced purchase of 13 is booked and stock becomes 20

	l, _ := boltsOnHand(t)
	ctx := context.Background()

	adj, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 20, "")
	require.NoError(t, err)

	require.NotNil(t, adj)
	assert.Equal(t, inventory.CollectionPurchases, adj.Collection)
	assert.Equal(t, 13, adj.Transaction.Quantity)
	assert.Equal(t, today, adj.Transaction.Date)
	assert.True(t, adj.Transaction.TotalPrice.IsZero())
	assert.Len(t, l.Purchases(ctx), 2)
	assert.Equal(t, 20, l.Stock(ctx)[0].Quantity)
}

func TestSynthesizeAdjustment_BooksSaleDelta(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	adj, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 2, "2025-02-01")
	require.NoError(t, err)

	require.NotNil(t, adj)
	assert.Equal(t, inventory.CollectionSales, adj.Collection)
	assert.Equal(t, 5, adj.Transaction.Quantity)
	assert.Equal(t, "2025-02-01", adj.Transaction.Date)
	assert.Equal(t, 2, l.Stock(ctx)[0].Quantity)
}

func TestSynthesizeAdjustment_OversoldPartReachesWanted(t *testing.T) {
	// GIVEN: 10 bought, 8 sold, then the purchase deleted (net -8)
	// WHEN: Setting the quantity to 3
	// THEN: The adjustment covers the oversold amount and stock is 3

	l, _ := newTestLedger(t)
	ctx := context.Background()
	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 10, "0.25"))
	mustSell(t, l, input("2025-01-02", "Bolt", "P1", 8, "0.50"))
	_, err := l.DeletePurchase(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, l.Stock(ctx))

	adj, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 3, "2025-02-01")
	require.NoError(t, err)

	require.NotNil(t, adj)
	assert.Equal(t, inventory.CollectionPurchases, adj.Collection)
	assert.Equal(t, 11, adj.Transaction.Quantity)
	stock := l.Stock(ctx)
	require.Len(t, stock, 1)
	assert.Equal(t, 3, stock[0].Quantity)

	again, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 3, "")
	require.NoError(t, err)
	assert.Nil(t, again)
}

func TestSynthesizeAdjustment_RejectsBadDate(t *testing.T) {
	l, mem := newTestLedger(t)

	_, err := l.SynthesizeAdjustment(context.Background(), "P1", "Bolt", 3, "yesterday")

	var verr *inventory.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "date", verr.Field)
	assert.Equal(t, 0, mem.Keys())
}

func TestSynthesizeAdjustment_NoDeltaNoTransaction(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	adj, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 7, "")
	require.NoError(t, err)

	assert.Nil(t, adj)
	assert.Len(t, l.Purchases(ctx), 1)
	assert.Len(t, l.Sales(ctx), 1)
}

func TestSynthesizeAdjustment_Validation(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	_, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", -1, "")
	assert.ErrorIs(t, err, inventory.ErrValidation)

	_, err = l.SynthesizeAdjustment(ctx, "", "", 3, "")
	assert.ErrorIs(t, err, inventory.ErrValidation)
}

// =============================================================================
// RECONCILIATION AND QUERIES
// =============================================================================

func TestRebuild_Idempotent(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	first, err := l.Rebuild(ctx)
	require.NoError(t, err)
	second, err := l.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first, l.Stock(ctx))
}

func TestRebuild_RepairsTamperedStock(t *testing.T) {
	// GIVEN: A persisted stock blob that disagrees with the logs
	// WHEN: Rebuilding
	// THEN: Stock is recomputed from purchases and sales only

	mem := store.NewMemory()
	mem.Put("purchases", []byte(`[{"date":"2025-01-01","partName":"Bolt","partNumber":"P1","quantity":4,"price":1,"totalPrice":4}]`))
	mem.Put("stock", []byte(`[{"partName":"Ghost","partNumber":"X","quantity":99,"lastUpdated":"2024-01-01"}]`))
	l := withClock(inventory.NewLedger(mem, zerolog.Nop()))
	ctx := context.Background()

	stock, err := l.Rebuild(ctx)

	require.NoError(t, err)
	require.Len(t, stock, 1)
	assert.Equal(t, "P1", stock[0].PartNumber)
	assert.Equal(t, 4, stock[0].Quantity)
}

func TestLookup_FallsBackToName(t *testing.T) {
	l, _ := boltsOnHand(t)
	ctx := context.Background()

	rec, err := l.Lookup(ctx, "P404", "bolt")
	require.NoError(t, err)
	assert.Equal(t, "P1", rec.PartNumber)

	_, err = l.Lookup(ctx, "P404", "Screw")
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestLedger_LatestPrices(t *testing.T) {
	l, _ := boltsOnHand(t)

	p := l.LatestPrices(context.Background(), "P1", "Bolt")

	assert.True(t, p.PurchasePrice.Equal(decimal.RequireFromString("0.25")))
	assert.True(t, p.SalePrice.Equal(decimal.RequireFromString("0.5")))
}

// =============================================================================
// STORAGE FAILURES
// =============================================================================

func TestStorage_SaveFailureDoesNotHalt(t *testing.T) {
	// GIVEN: A backend that rejects writes
	// WHEN: Recording a purchase
	// THEN: The purchase succeeds in memory and is persisted on the next flush

	l, mem := newTestLedger(t)
	ctx := context.Background()
	mem.FailSave = errors.New("disk full")

	_, err := l.RecordPurchase(ctx, input("2025-01-01", "Bolt", "P1", 10, "0.25"))
	require.NoError(t, err)

	assert.Equal(t, 10, l.Stock(ctx)[0].Quantity)
	assert.Equal(t, []inventory.Collection{inventory.CollectionPurchases, inventory.CollectionStock}, l.Records().Pending())
	assert.Equal(t, 0, mem.Keys())

	flushErr := l.Records().Flush(ctx)
	assert.ErrorIs(t, flushErr, inventory.ErrStorage)
	var serr *inventory.StorageError
	require.ErrorAs(t, flushErr, &serr)
	assert.Equal(t, "save", serr.Op)

	mem.FailSave = nil
	require.NoError(t, l.Records().Flush(ctx))
	assert.Empty(t, l.Records().Pending())

	reopened := inventory.NewLedger(mem, zerolog.Nop())
	assert.Len(t, reopened.Purchases(ctx), 1)
	assert.Equal(t, 10, reopened.Stock(ctx)[0].Quantity)
}

func TestStorage_CorruptBlobReadsEmpty(t *testing.T) {
	mem := store.NewMemory()
	mem.Put("purchases", []byte("{not json"))
	l := withClock(inventory.NewLedger(mem, zerolog.Nop()))
	ctx := context.Background()

	assert.Empty(t, l.Purchases(ctx))

	mustPurchase(t, l, input("2025-01-01", "Bolt", "P1", 2, "1"))
	assert.Len(t, l.Purchases(ctx), 1)
	assertStockIsDerived(t, l)
}

func TestStorage_LoadFailureReadsEmpty(t *testing.T) {
	mem := store.NewMemory()
	mem.FailLoad = errors.New("io error")
	l := inventory.NewLedger(mem, zerolog.Nop())

	assert.Empty(t, l.Purchases(context.Background()))
	assert.Empty(t, l.Stock(context.Background()))
}

func TestStorage_LoadFailureKeepsPersistedHistory(t *testing.T) {
	// GIVEN: Two purchases persisted, then a backend whose reads fail
	// WHEN: A fresh ledger is asked to mutate during the outage
	// THEN: Every mutation is refused and the history survives it

	ctx := context.Background()
	mem := store.NewMemory()
	first := withClock(inventory.NewLedger(mem, zerolog.Nop()))
	mustPurchase(t, first, input("2025-01-01", "Bolt", "P1", 10, "0.25"))
	mustPurchase(t, first, input("2025-01-02", "Nut", "P2", 5, "0.10"))

	mem.FailLoad = errors.New("database is locked")
	l := withClock(inventory.NewLedger(mem, zerolog.Nop()))

	_, err := l.RecordPurchase(ctx, input("2025-01-03", "Bolt", "P1", 1, "0.25"))
	var serr *inventory.StorageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "load", serr.Op)
	assert.ErrorIs(t, err, inventory.ErrStorage)

	_, err = l.RecordSale(ctx, input("2025-01-03", "Bolt", "P1", 1, "0.50"))
	assert.ErrorIs(t, err, inventory.ErrStorage)
	_, err = l.RenameIdentity(ctx, "P1", "Bolt", "P9", "Bolt")
	assert.ErrorIs(t, err, inventory.ErrStorage)
	_, err = l.SynthesizeAdjustment(ctx, "P1", "Bolt", 3, "")
	assert.ErrorIs(t, err, inventory.ErrStorage)
	_, err = l.DeletePurchase(ctx, 0)
	assert.ErrorIs(t, err, inventory.ErrStorage)
	_, err = l.Rebuild(ctx)
	assert.ErrorIs(t, err, inventory.ErrStorage)
	assert.Empty(t, l.Records().Pending())

	mem.FailLoad = nil
	mustPurchase(t, l, input("2025-01-03", "Bolt", "P1", 1, "0.25"))

	reopened := inventory.NewLedger(mem, zerolog.Nop())
	assert.Len(t, reopened.Purchases(ctx), 3)
	assertStockIsDerived(t, reopened)
	assert.Equal(t, 11, reopened.Stock(ctx)[0].Quantity)
}
