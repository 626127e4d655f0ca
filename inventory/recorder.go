package inventory

import (
	"context"
)

// =============================================================================
// TRANSACTION RECORDER
// =============================================================================

// RecordPurchase validates and appends a purchase, then reconciles stock.
func (l *Ledger) RecordPurchase(ctx context.Context, in TransactionInput) (Transaction, error) {
	in = in.normalized()
	if in.PartName == "" {
		return Transaction{}, invalid("partName", "required")
	}
	if err := validateQuantityPrice(in); err != nil {
		return Transaction{}, err
	}
	if err := validateDate(in.Date); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := NewTransaction(l.dateOrToday(in.Date), in.PartName, in.PartNumber, in.Quantity, in.Price)

	lg, err := l.load(ctx)
	if err != nil {
		return Transaction{}, err
	}
	lg.purchases = append(lg.purchases, tx)
	lg.purchasesChanged = true
	l.commit(ctx, lg)

	l.log.Info().
		Str("part_number", tx.PartNumber).
		Str("part_name", tx.PartName).
		Int("quantity", tx.Quantity).
		Msg("purchase recorded")
	return tx, nil
}

// RecordSale validates a sale against current stock and appends it.
//
// The part must match one stock entry on both number and name. The stored
// sale takes that entry's number and name, so the log keeps the canonical
// spelling.
func (l *Ledger) RecordSale(ctx context.Context, in TransactionInput) (Transaction, error) {
	in = in.normalized()
	if in.Quantity <= 0 {
		return Transaction{}, invalid("quantity", "must be greater than zero")
	}
	if in.PartNumber == "" {
		return Transaction{}, invalid("partNumber", "required to sell")
	}
	if in.PartName == "" {
		return Transaction{}, invalid("partName", "required to sell")
	}
	if in.Price.IsNegative() {
		return Transaction{}, invalid("price", "must not be negative")
	}
	if err := validateDate(in.Date); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return Transaction{}, err
	}
	stock := lg.stock()
	idx := FindStrict(stock, in.PartNumber, in.PartName)
	if idx < 0 {
		return Transaction{}, &NotFoundError{PartNumber: in.PartNumber, PartName: in.PartName}
	}
	matched := stock[idx]
	if matched.Quantity < in.Quantity {
		return Transaction{}, &InsufficientStockError{
			PartNumber: matched.PartNumber,
			PartName:   matched.PartName,
			Available:  matched.Quantity,
			Requested:  in.Quantity,
		}
	}

	tx := NewTransaction(l.dateOrToday(in.Date), matched.PartName, matched.PartNumber, in.Quantity, in.Price)
	lg.sales = append(lg.sales, tx)
	lg.salesChanged = true
	l.commit(ctx, lg)

	l.log.Info().
		Str("part_number", tx.PartNumber).
		Str("part_name", tx.PartName).
		Int("quantity", tx.Quantity).
		Msg("sale recorded")
	return tx, nil
}

func validateQuantityPrice(in TransactionInput) error {
	if in.Quantity <= 0 {
		return invalid("quantity", "must be greater than zero")
	}
	if in.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	return nil
}

// validateDate accepts an empty date (today) or one ParseDate understands.
func validateDate(date string) error {
	if date == "" {
		return nil
	}
	if _, ok := ParseDate(date); !ok {
		return invalid("date", "must be a YYYY-MM-DD date")
	}
	return nil
}

func (l *Ledger) dateOrToday(date string) string {
	if date == "" {
		return l.today()
	}
	return date
}
