package inventory

import (
	"context"
	"strings"
)

// =============================================================================
// IDENTITY PROPAGATOR
// =============================================================================

// Renamed reports how many rows a rename touched in each log.
type Renamed struct {
	Purchases int `json:"purchases" yaml:"purchases"`
	Sales     int `json:"sales" yaml:"sales"`
}

// RenameTransactions overwrites number and name on every transaction that
// matches the old number OR the old name (case-insensitive). It returns the
// number of rows changed; txs is modified in place.
func RenameTransactions(txs []Transaction, oldNumber, oldName, newNumber, newName string) int {
	n := 0
	for i := range txs {
		tx := &txs[i]
		if !sameIdentity(tx.PartNumber, tx.PartName, oldNumber, oldName) {
			continue
		}
		if tx.PartNumber == newNumber && tx.PartName == newName {
			continue
		}
		tx.PartNumber = newNumber
		tx.PartName = newName
		n++
	}
	return n
}

func (lg *logs) rename(oldNumber, oldName, newNumber, newName string) Renamed {
	r := Renamed{
		Purchases: RenameTransactions(lg.purchases, oldNumber, oldName, newNumber, newName),
		Sales:     RenameTransactions(lg.sales, oldNumber, oldName, newNumber, newName),
	}
	lg.purchasesChanged = lg.purchasesChanged || r.Purchases > 0
	lg.salesChanged = lg.salesChanged || r.Sales > 0
	return r
}

// RenameIdentity rewrites a part's number and name across both logs and
// reconciles. Only logs that actually changed are written.
func (l *Ledger) RenameIdentity(ctx context.Context, oldNumber, oldName, newNumber, newName string) (Renamed, error) {
	oldNumber, oldName = strings.TrimSpace(oldNumber), strings.TrimSpace(oldName)
	newNumber, newName = strings.TrimSpace(newNumber), strings.TrimSpace(newName)
	if oldNumber == "" && oldName == "" {
		return Renamed{}, invalid("old", "part number or part name required")
	}
	if newNumber == "" && newName == "" {
		return Renamed{}, invalid("new", "part number or part name required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return Renamed{}, err
	}
	r := lg.rename(oldNumber, oldName, newNumber, newName)
	l.commit(ctx, lg)

	l.log.Info().
		Str("old_number", oldNumber).
		Str("new_number", newNumber).
		Int("purchases", r.Purchases).
		Int("sales", r.Sales).
		Msg("identity renamed")
	return r, nil
}
