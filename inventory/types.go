/*
Package inventory provides the parts ledger: purchase and sale logs, and the
stock table derived from them.

PURPOSE:
  Purchases and sales are the only authoritative state. Stock is a
  materialized view that is rebuilt in full from both logs after every
  mutation, so it can never drift from the transactions that justify it.

KEY CONCEPTS IN THIS FILE (types.go):
  - Transaction: a purchase or sale row as persisted
  - StockRecord: a derived stock row
  - TransactionInput: what callers submit to the recorder
  - Collection: the three persisted collection names

PRECISION:
  Prices use decimal.Decimal. They are rounded to 2 places when a
  transaction is built and serialized as plain JSON numbers, which keeps
  the persisted blobs compatible with the browser format.

SEE ALSO:
  - reconcile.go: RebuildStock, the only producer of stock rows
  - ledger.go: the Ledger service tying the components together
*/
package inventory

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// PricePlaces is the number of decimal places kept for prices and totals.
const PricePlaces = 2

// =============================================================================
// COLLECTIONS
// =============================================================================

// Collection names a persisted collection. The names are also the store keys.
type Collection string

const (
	CollectionPurchases Collection = "purchases"
	CollectionSales     Collection = "sales"
	CollectionStock     Collection = "stock"
)

// Collections lists every collection in a fixed order.
var Collections = []Collection{CollectionPurchases, CollectionSales, CollectionStock}

// =============================================================================
// TRANSACTION - One purchase or sale row
// =============================================================================

// Transaction is a purchase or a sale. The same shape is used for both logs.
type Transaction struct {
	Date       string          `json:"date" yaml:"date"`
	PartName   string          `json:"partName" yaml:"partName"`
	PartNumber string          `json:"partNumber" yaml:"partNumber"`
	Quantity   int             `json:"quantity" yaml:"quantity"`
	Price      decimal.Decimal `json:"price" yaml:"price"`
	TotalPrice decimal.Decimal `json:"totalPrice" yaml:"totalPrice"`
}

// Key returns the part identity key of the transaction.
func (t Transaction) Key() string {
	return IdentityKey(t.PartNumber, t.PartName)
}

// TransactionInput is the data submitted to RecordPurchase and RecordSale.
// Strings are trimmed; an empty Date defaults to the ledger's today.
type TransactionInput struct {
	Date       string          `json:"date" yaml:"date"`
	PartName   string          `json:"partName" yaml:"partName"`
	PartNumber string          `json:"partNumber" yaml:"partNumber"`
	Quantity   int             `json:"quantity" yaml:"quantity"`
	Price      decimal.Decimal `json:"price" yaml:"price"`
}

func (in TransactionInput) normalized() TransactionInput {
	in.Date = strings.TrimSpace(in.Date)
	in.PartName = strings.TrimSpace(in.PartName)
	in.PartNumber = strings.TrimSpace(in.PartNumber)
	return in
}

// NewTransaction builds a transaction, rounding the price and computing the
// total from the unrounded price.
func NewTransaction(date, partName, partNumber string, quantity int, price decimal.Decimal) Transaction {
	return Transaction{
		Date:       date,
		PartName:   partName,
		PartNumber: partNumber,
		Quantity:   quantity,
		Price:      price.Round(PricePlaces),
		TotalPrice: TotalPrice(quantity, price),
	}
}

// TotalPrice is quantity × price rounded to PricePlaces.
func TotalPrice(quantity int, price decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(price).Round(PricePlaces)
}

// =============================================================================
// STOCK RECORD - Derived, never authoritative
// =============================================================================

// StockRecord is one row of the derived stock table.
type StockRecord struct {
	PartName    string `json:"partName" yaml:"partName"`
	PartNumber  string `json:"partNumber" yaml:"partNumber"`
	Quantity    int    `json:"quantity" yaml:"quantity"`
	LastUpdated string `json:"lastUpdated" yaml:"lastUpdated"`
}

// Key returns the part identity key of the stock row.
func (s StockRecord) Key() string {
	return IdentityKey(s.PartNumber, s.PartName)
}

// Prices holds the latest known purchase and sale price of a part.
type Prices struct {
	PurchasePrice decimal.Decimal `json:"purchasePrice" yaml:"purchasePrice"`
	SalePrice     decimal.Decimal `json:"salePrice" yaml:"salePrice"`
}
