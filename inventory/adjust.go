/*
adjust.go - Turn a direct stock edit into transactions

Stock is never edited in place: it would be overwritten by the next
rebuild. Instead the difference between the wanted quantity and the
quantity the logs already justify is booked as a zero-priced purchase
(delta > 0) or sale (delta < 0). Rebuilding afterwards yields exactly the
wanted quantity.

  net     = purchases(key) - sales(key)
  derived = max(0, net)
  delta   = desired - net     (none when desired == derived)

The delta is taken from the unfloored net so that a part oversold in the
logs (net < 0) still rebuilds to exactly the wanted quantity.
*/
package inventory

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Adjustment is a synthetic transaction and the log it belongs to.
type Adjustment struct {
	Collection  Collection  `json:"collection" yaml:"collection"`
	Transaction Transaction `json:"transaction" yaml:"transaction"`
}

// SynthesizeAdjustment computes the transaction that makes the logs derive
// desired for the given part. It returns nil when no adjustment is needed.
func SynthesizeAdjustment(purchases, sales []Transaction, partNumber, partName string, desired int, asOf string) *Adjustment {
	net := NetQuantity(purchases, sales, IdentityKey(partNumber, partName))
	if desired == max(0, net) {
		return nil
	}
	delta := desired - net
	switch {
	case delta > 0:
		return &Adjustment{
			Collection:  CollectionPurchases,
			Transaction: NewTransaction(asOf, partName, partNumber, delta, decimal.Zero),
		}
	case delta < 0:
		return &Adjustment{
			Collection:  CollectionSales,
			Transaction: NewTransaction(asOf, partName, partNumber, -delta, decimal.Zero),
		}
	default:
		return nil
	}
}

func (lg *logs) adjust(partNumber, partName string, desired int, asOf string) *Adjustment {
	adj := SynthesizeAdjustment(lg.purchases, lg.sales, partNumber, partName, desired, asOf)
	if adj == nil {
		return nil
	}
	if adj.Collection == CollectionPurchases {
		lg.purchases = append(lg.purchases, adj.Transaction)
		lg.purchasesChanged = true
	} else {
		lg.sales = append(lg.sales, adj.Transaction)
		lg.salesChanged = true
	}
	return adj
}

// SynthesizeAdjustment books the adjustment that brings the part to desired
// and reconciles. An empty asOf defaults to today.
func (l *Ledger) SynthesizeAdjustment(ctx context.Context, partNumber, partName string, desired int, asOf string) (*Adjustment, error) {
	partNumber, partName = strings.TrimSpace(partNumber), strings.TrimSpace(partName)
	if desired < 0 {
		return nil, invalid("quantity", "must not be negative")
	}
	if partNumber == "" && partName == "" {
		return nil, invalid("partNumber", "part number or part name required")
	}
	asOf = strings.TrimSpace(asOf)
	if err := validateDate(asOf); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	lg, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	adj := lg.adjust(partNumber, partName, desired, l.dateOrToday(asOf))
	l.commit(ctx, lg)

	if adj != nil {
		l.log.Info().
			Str("part_number", partNumber).
			Str("collection", string(adj.Collection)).
			Int("quantity", adj.Transaction.Quantity).
			Msg("stock adjustment synthesized")
	}
	return adj, nil
}
