/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types from
  the inventory package are embedded where their JSON shape is already
  the contract (the persisted record layout), and wrapped where the API
  adds something (the row index, latest prices, paging).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Records:
    TransactionDTO, StockDTO, PageResponse

  Mutations:
    EditRequest, RenameRequest, AdjustRequest, AdjustResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done by the ledger, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - inventory/types.go: Transaction and StockRecord
*/
package api

import (
	"github.com/warp/parts-ledger/inventory"
)

// =============================================================================
// RECORDS
// =============================================================================

// TransactionDTO is a purchase or sale with its index in the log. The index
// addresses the row in PATCH and DELETE requests.
type TransactionDTO struct {
	Index int `json:"index"`
	inventory.Transaction
}

// StockDTO is a stock row with its index and the latest known prices.
type StockDTO struct {
	Index int `json:"index"`
	inventory.PricedStock
}

// PageResponse wraps one page of a filtered list.
type PageResponse[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// =============================================================================
// MUTATIONS
// =============================================================================

// EditRequest carries field edits for one row.
type EditRequest struct {
	Edits []inventory.EditCommand `json:"edits"`
}

// IdentityDTO is a part number and name pair.
type IdentityDTO struct {
	PartNumber string `json:"partNumber"`
	PartName   string `json:"partName"`
}

// RenameRequest renames a part across both logs.
type RenameRequest struct {
	Old IdentityDTO `json:"old"`
	New IdentityDTO `json:"new"`
}

// AdjustRequest sets a part's quantity through a synthetic transaction.
type AdjustRequest struct {
	PartNumber string `json:"partNumber"`
	PartName   string `json:"partName"`
	Quantity   *int   `json:"quantity"`
	Date       string `json:"date,omitempty"`
}

// AdjustResponse reports the synthetic transaction, if one was needed.
type AdjustResponse struct {
	Adjustment *inventory.Adjustment `json:"adjustment"`
}

// =============================================================================
// STATUS
// =============================================================================

// StorageStatusDTO describes persistence health.
type StorageStatusDTO struct {
	Pending     []inventory.Collection `json:"pending"`
	NextFlushAt string                 `json:"nextFlushAt,omitempty"`
	LastSavedAt string                 `json:"lastSavedAt,omitempty"`
	Healthy     bool                   `json:"healthy"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo data set.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}
