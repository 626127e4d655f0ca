/*
reconcile.go - Derive the stock table from the purchase and sale logs

PURPOSE:
  RebuildStock is the single source of truth for stock. It replays both
  logs, the way a balance is replayed from a ledger, and produces the whole
  table from scratch. Nothing is merged with the previous stock.

ALGORITHM:
  1. Purchases: key each row, add its quantity, track the latest date.
  2. Sales: same key, subtract its quantity, track the latest date.
  3. Emit one row per key:
       partName    = first non-empty name seen, else "Unnamed <key>"
       partNumber  = first non-empty number seen, else the key
       quantity    = max(0, total)
       lastUpdated = latest contributing date
  4. Keys whose total is <= 0 are dropped. Absence means zero.

DETERMINISM:
  Rows come out in first-seen key order (purchases scanned before sales)
  and the function reads no clock, so identical logs give byte-identical
  output.
*/
package inventory

type stockAccumulator struct {
	partName    string
	partNumber  string
	total       int
	lastUpdated string
}

func (a *stockAccumulator) add(tx Transaction, sign int) {
	a.total += sign * tx.Quantity
	if a.partName == "" {
		a.partName = tx.PartName
	}
	if a.partNumber == "" {
		a.partNumber = tx.PartNumber
	}
	a.lastUpdated = laterDate(a.lastUpdated, tx.Date)
}

// RebuildStock derives the stock table from the two logs. lastUpdated is
// the latest date among the key's transactions; it is empty when none of
// them has a date, since the function reads no clock.
func RebuildStock(purchases, sales []Transaction) []StockRecord {
	var order []string
	acc := make(map[string]*stockAccumulator)

	apply := func(txs []Transaction, sign int) {
		for _, tx := range txs {
			key := tx.Key()
			a, ok := acc[key]
			if !ok {
				a = &stockAccumulator{}
				acc[key] = a
				order = append(order, key)
			}
			a.add(tx, sign)
		}
	}
	apply(purchases, +1)
	apply(sales, -1)

	stock := make([]StockRecord, 0, len(order))
	for _, key := range order {
		a := acc[key]
		if a.total <= 0 {
			continue
		}
		rec := StockRecord{
			PartName:    a.partName,
			PartNumber:  a.partNumber,
			Quantity:    a.total,
			LastUpdated: a.lastUpdated,
		}
		if rec.PartName == "" {
			rec.PartName = "Unnamed " + key
		}
		if rec.PartNumber == "" {
			rec.PartNumber = key
		}
		stock = append(stock, rec)
	}
	return stock
}

// DerivedQuantity is max(0, purchases - sales) for one identity key.
func DerivedQuantity(purchases, sales []Transaction, key string) int {
	return max(0, NetQuantity(purchases, sales, key))
}

// NetQuantity is purchases - sales for one identity key, unfloored. It is
// negative when more was sold than the logs show bought.
func NetQuantity(purchases, sales []Transaction, key string) int {
	total := 0
	for _, tx := range purchases {
		if tx.Key() == key {
			total += tx.Quantity
		}
	}
	for _, tx := range sales {
		if tx.Key() == key {
			total -= tx.Quantity
		}
	}
	return total
}
