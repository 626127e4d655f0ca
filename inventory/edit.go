/*
edit.go - Structured edits and deletes

PURPOSE:
  Row edits arrive as a list of EditCommand{Field, OldValue, NewValue}.
  Every command is validated against the addressed row before anything
  is applied, so a bad command leaves all collections untouched.

RULES:
  - Field must be editable for the collection (see editable sets below).
  - OldValue, when non-empty, must equal the row's current value; a
    mismatch means the caller edited a stale view and is rejected.
  - An empty NewValue for date, partName or partNumber keeps the current
    value.
  - quantity must be a positive integer (zero allowed on stock), price a
    non-negative decimal, dates must parse.

PROPAGATION:
  A changed number or name is renamed across both logs (old -> new).
  A stock edit is then turned into a synthetic adjustment. Everything is
  written by one commit.
*/
package inventory

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names an editable column.
type Field string

const (
	FieldDate        Field = "date"
	FieldPartName    Field = "partName"
	FieldPartNumber  Field = "partNumber"
	FieldQuantity    Field = "quantity"
	FieldPrice       Field = "price"
	FieldLastUpdated Field = "lastUpdated"
)

var (
	transactionFields = map[Field]bool{
		FieldDate: true, FieldPartName: true, FieldPartNumber: true, FieldQuantity: true, FieldPrice: true,
	}
	stockFields = map[Field]bool{
		FieldPartName: true, FieldPartNumber: true, FieldQuantity: true, FieldLastUpdated: true,
	}
)

// EditCommand changes one field of one row.
type EditCommand struct {
	Field    Field  `json:"field"`
	OldValue string `json:"old"`
	NewValue string `json:"new"`
}

// EditResult describes what an edit or delete did.
type EditResult struct {
	Transaction *Transaction `json:"transaction,omitempty"`
	Stock       *StockRecord `json:"stock,omitempty"`
	Renamed     Renamed      `json:"renamed"`
	Adjustment  *Adjustment  `json:"adjustment,omitempty"`
}

// =============================================================================
// VALIDATION
// =============================================================================

func checkCommands(cmds []EditCommand, allowed map[Field]bool) error {
	if len(cmds) == 0 {
		return invalid("edits", "at least one edit required")
	}
	seen := make(map[Field]bool, len(cmds))
	for _, c := range cmds {
		if !allowed[c.Field] {
			return invalid(string(c.Field), "field is not editable here")
		}
		if seen[c.Field] {
			return invalid(string(c.Field), "edited more than once")
		}
		seen[c.Field] = true
	}
	return nil
}

func checkOld(c EditCommand, current string) error {
	old := strings.TrimSpace(c.OldValue)
	if old == "" {
		return nil
	}
	var same bool
	switch c.Field {
	case FieldQuantity:
		n, err := strconv.Atoi(old)
		same = err == nil && strconv.Itoa(n) == current
	case FieldPrice:
		a, errA := decimal.NewFromString(old)
		b, errB := decimal.NewFromString(current)
		same = errA == nil && errB == nil && a.Equal(b)
	default:
		same = old == current
	}
	if !same {
		return invalid(string(c.Field), "record changed since it was read (expected "+strconv.Quote(old)+", found "+strconv.Quote(current)+")")
	}
	return nil
}

func parseQuantity(field Field, s string, allowZero bool) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid(string(field), "must be an integer")
	}
	if n < 0 || (n == 0 && !allowZero) {
		return 0, invalid(string(field), "out of range")
	}
	return n, nil
}

func parseDateField(field Field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if _, ok := ParseDate(s); !ok {
		return "", invalid(string(field), "must be a YYYY-MM-DD date")
	}
	return s, nil
}

// =============================================================================
// TRANSACTION EDITS
// =============================================================================

func transactionValue(tx Transaction, f Field) string {
	switch f {
	case FieldDate:
		return tx.Date
	case FieldPartName:
		return tx.PartName
	case FieldPartNumber:
		return tx.PartNumber
	case FieldQuantity:
		return strconv.Itoa(tx.Quantity)
	case FieldPrice:
		return tx.Price.String()
	}
	return ""
}

// applyTransactionEdits returns the edited copy of tx.
func applyTransactionEdits(tx Transaction, cmds []EditCommand) (Transaction, error) {
	if err := checkCommands(cmds, transactionFields); err != nil {
		return tx, err
	}
	price := tx.Price
	for _, c := range cmds {
		if err := checkOld(c, transactionValue(tx, c.Field)); err != nil {
			return tx, err
		}
		v := strings.TrimSpace(c.NewValue)
		switch c.Field {
		case FieldDate:
			if v == "" {
				continue
			}
			d, err := parseDateField(c.Field, v)
			if err != nil {
				return tx, err
			}
			tx.Date = d
		case FieldPartName:
			if v != "" {
				tx.PartName = v
			}
		case FieldPartNumber:
			if v != "" {
				tx.PartNumber = v
			}
		case FieldQuantity:
			n, err := parseQuantity(c.Field, v, false)
			if err != nil {
				return tx, err
			}
			tx.Quantity = n
		case FieldPrice:
			p, err := decimal.NewFromString(v)
			if err != nil {
				return tx, invalid(string(c.Field), "must be a number")
			}
			if p.IsNegative() {
				return tx, invalid(string(c.Field), "must not be negative")
			}
			price = p
		}
	}
	return NewTransaction(tx.Date, tx.PartName, tx.PartNumber, tx.Quantity, price), nil
}

// EditPurchase applies edits to the purchase at index.
func (l *Ledger) EditPurchase(ctx context.Context, index int, cmds ...EditCommand) (EditResult, error) {
	return l.editTransaction(ctx, CollectionPurchases, index, cmds)
}

// EditSale applies edits to the sale at index.
func (l *Ledger) EditSale(ctx context.Context, index int, cmds ...EditCommand) (EditResult, error) {
	return l.editTransaction(ctx, CollectionSales, index, cmds)
}

func (l *Ledger) editTransaction(ctx context.Context, c Collection, index int, cmds []EditCommand) (EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return EditResult{}, err
	}
	txs := lg.purchases
	if c == CollectionSales {
		txs = lg.sales
	}
	if index < 0 || index >= len(txs) {
		return EditResult{}, &RecordNotFoundError{Collection: c, Index: index}
	}

	old := txs[index]
	edited, err := applyTransactionEdits(old, cmds)
	if err != nil {
		return EditResult{}, err
	}
	txs[index] = edited
	if c == CollectionSales {
		lg.salesChanged = true
	} else {
		lg.purchasesChanged = true
	}

	var res EditResult
	if old.PartNumber != edited.PartNumber || old.PartName != edited.PartName {
		res.Renamed = lg.rename(old.PartNumber, old.PartName, edited.PartNumber, edited.PartName)
	}
	l.commit(ctx, lg)

	res.Transaction = &edited
	l.log.Info().Str("collection", string(c)).Int("index", index).Msg("transaction edited")
	return res, nil
}

// DeletePurchase removes the purchase at index and reconciles.
func (l *Ledger) DeletePurchase(ctx context.Context, index int) (EditResult, error) {
	return l.deleteTransaction(ctx, CollectionPurchases, index)
}

// DeleteSale removes the sale at index and reconciles.
func (l *Ledger) DeleteSale(ctx context.Context, index int) (EditResult, error) {
	return l.deleteTransaction(ctx, CollectionSales, index)
}

func (l *Ledger) deleteTransaction(ctx context.Context, c Collection, index int) (EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return EditResult{}, err
	}
	txs := &lg.purchases
	if c == CollectionSales {
		txs = &lg.sales
	}
	if index < 0 || index >= len(*txs) {
		return EditResult{}, &RecordNotFoundError{Collection: c, Index: index}
	}

	removed := (*txs)[index]
	*txs = append((*txs)[:index], (*txs)[index+1:]...)
	if c == CollectionSales {
		lg.salesChanged = true
	} else {
		lg.purchasesChanged = true
	}
	l.commit(ctx, lg)

	l.log.Info().Str("collection", string(c)).Int("index", index).Msg("transaction deleted")
	return EditResult{Transaction: &removed}, nil
}

// =============================================================================
// STOCK EDITS
// =============================================================================

func stockValue(s StockRecord, f Field) string {
	switch f {
	case FieldPartName:
		return s.PartName
	case FieldPartNumber:
		return s.PartNumber
	case FieldQuantity:
		return strconv.Itoa(s.Quantity)
	case FieldLastUpdated:
		return s.LastUpdated
	}
	return ""
}

// applyStockEdits returns the edited copy of s and whether lastUpdated was set.
func applyStockEdits(s StockRecord, cmds []EditCommand) (StockRecord, bool, error) {
	if err := checkCommands(cmds, stockFields); err != nil {
		return s, false, err
	}
	dated := false
	for _, c := range cmds {
		if err := checkOld(c, stockValue(s, c.Field)); err != nil {
			return s, false, err
		}
		v := strings.TrimSpace(c.NewValue)
		switch c.Field {
		case FieldPartName:
			if v != "" {
				s.PartName = v
			}
		case FieldPartNumber:
			if v != "" {
				s.PartNumber = v
			}
		case FieldQuantity:
			n, err := parseQuantity(c.Field, v, true)
			if err != nil {
				return s, false, err
			}
			s.Quantity = n
		case FieldLastUpdated:
			if v == "" {
				continue
			}
			d, err := parseDateField(c.Field, v)
			if err != nil {
				return s, false, err
			}
			s.LastUpdated = d
			dated = true
		}
	}
	return s, dated, nil
}

// EditStock applies edits to the stock row at index. Identity changes are
// propagated to both logs; the quantity is reached with a synthetic
// adjustment dated at the edited lastUpdated, or today.
func (l *Ledger) EditStock(ctx context.Context, index int, cmds ...EditCommand) (EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return EditResult{}, err
	}
	stock := lg.stock()
	if index < 0 || index >= len(stock) {
		return EditResult{}, &RecordNotFoundError{Collection: CollectionStock, Index: index}
	}

	old := stock[index]
	edited, dated, err := applyStockEdits(old, cmds)
	if err != nil {
		return EditResult{}, err
	}
	asOf := l.today()
	if dated {
		asOf = edited.LastUpdated
	}

	var res EditResult
	if old.PartNumber != edited.PartNumber || old.PartName != edited.PartName {
		res.Renamed = lg.rename(old.PartNumber, old.PartName, edited.PartNumber, edited.PartName)
	}
	res.Adjustment = lg.adjust(edited.PartNumber, edited.PartName, edited.Quantity, asOf)
	stock = l.commit(ctx, lg)

	if i := FindStrict(stock, edited.PartNumber, edited.PartName); i >= 0 {
		res.Stock = &stock[i]
	}
	l.log.Info().Int("index", index).Str("part_number", edited.PartNumber).Msg("stock edited")
	return res, nil
}

// DeleteStock writes the part at index off by adjusting it to zero. The row
// disappears from stock; the logs keep the history plus the write-off.
func (l *Ledger) DeleteStock(ctx context.Context, index int) (EditResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return EditResult{}, err
	}
	stock := lg.stock()
	if index < 0 || index >= len(stock) {
		return EditResult{}, &RecordNotFoundError{Collection: CollectionStock, Index: index}
	}

	rec := stock[index]
	adj := lg.adjust(rec.PartNumber, rec.PartName, 0, l.today())
	l.commit(ctx, lg)

	l.log.Info().Int("index", index).Str("part_number", rec.PartNumber).Msg("stock written off")
	return EditResult{Stock: &rec, Adjustment: adj}, nil
}
