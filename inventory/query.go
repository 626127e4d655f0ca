package inventory

import (
	"context"
	"strings"
)

// =============================================================================
// READ-ONLY VIEWS
// =============================================================================

// Purchases returns a copy of the purchase log.
func (l *Ledger) Purchases(ctx context.Context) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.Purchases(ctx)
}

// Sales returns a copy of the sale log.
func (l *Ledger) Sales(ctx context.Context) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.Sales(ctx)
}

// Stock returns a copy of the persisted stock table.
func (l *Ledger) Stock(ctx context.Context) []StockRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records.Stock(ctx)
}

// Rebuild regenerates the stock table from the logs and persists it.
func (l *Ledger) Rebuild(ctx context.Context) ([]StockRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return l.commit(ctx, lg), nil
}

// Lookup finds a stock row by number, falling back to name.
func (l *Ledger) Lookup(ctx context.Context, partNumber, partName string) (StockRecord, error) {
	partNumber, partName = strings.TrimSpace(partNumber), strings.TrimSpace(partName)

	l.mu.Lock()
	defer l.mu.Unlock()

	stock := l.records.Stock(ctx)
	i := FindLoose(stock, partNumber, partName)
	if i < 0 {
		return StockRecord{}, &NotFoundError{PartNumber: partNumber, PartName: partName}
	}
	return stock[i], nil
}

// LatestPrices returns the price of the latest purchase and the latest sale
// whose number or name matches. Missing sides are zero.
func (l *Ledger) LatestPrices(ctx context.Context, partNumber, partName string) Prices {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LatestPrices(l.records.Purchases(ctx), l.records.Sales(ctx), partNumber, partName)
}

// LatestPrices is the pure form of Ledger.LatestPrices. On equal dates the
// later row in the log wins.
func LatestPrices(purchases, sales []Transaction, partNumber, partName string) Prices {
	return Prices{
		PurchasePrice: latest(purchases, partNumber, partName).Price,
		SalePrice:     latest(sales, partNumber, partName).Price,
	}
}

func latest(txs []Transaction, partNumber, partName string) Transaction {
	var (
		best  Transaction
		found bool
	)
	for _, tx := range txs {
		match := (partNumber != "" && tx.PartNumber == partNumber) ||
			(partName != "" && tx.PartName == partName)
		if !match {
			continue
		}
		if !found || laterDate(best.Date, tx.Date) == tx.Date {
			best, found = tx, true
		}
	}
	return best
}

// PricedStock is a stock row with the latest known prices of the part.
type PricedStock struct {
	StockRecord `yaml:",inline"`
	Prices      `yaml:",inline"`
}

// PricedStock returns the stock table with latest prices, read under one lock.
func (l *Ledger) PricedStock(ctx context.Context) []PricedStock {
	l.mu.Lock()
	defer l.mu.Unlock()

	purchases, sales := l.records.Purchases(ctx), l.records.Sales(ctx)
	stock := l.records.Stock(ctx)
	out := make([]PricedStock, len(stock))
	for i, s := range stock {
		out[i] = PricedStock{
			StockRecord: s,
			Prices:      LatestPrices(purchases, sales, s.PartNumber, s.PartName),
		}
	}
	return out
}
