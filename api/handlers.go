/*
handlers.go - HTTP API handlers for the parts ledger

PURPOSE:
  Exposes the inventory ledger via REST API. Handles HTTP request/response,
  JSON serialization, paging and search, and delegates every rule to the
  inventory package.

ENDPOINTS:
  Purchases / Sales:
    GET    /api/purchases              List (paged, ?q= search)
    POST   /api/purchases              Record a purchase
    PATCH  /api/purchases/{index}      Edit fields of one purchase
    DELETE /api/purchases/{index}      Delete one purchase
    (same routes under /api/sales)

  Stock:
    GET    /api/stock                  Reconciled stock with latest prices
    GET    /api/stock/lookup           Find one part by number or name
    PATCH  /api/stock/{index}          Edit a row (becomes an adjustment)
    DELETE /api/stock/{index}          Write a part off
    POST   /api/stock/rebuild          Reconcile from the logs
    POST   /api/stock/adjust           Set a part's quantity

  Identity:
    POST   /api/identity/rename        Rename a part across both logs

  Storage:
    GET    /api/storage                Pending (unpersisted) collections, last save
    POST   /api/storage/flush          Retry pending writes now

REQUEST FLOW:
  1. Parse HTTP request
  2. Call the ledger (it validates)
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as {"error", "code", "field"} with HTTP status:
  - 400: Validation errors, malformed input
  - 404: Unknown part or row index
  - 409: Sale larger than the available stock
  - 503: Logs could not be read; nothing was changed
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/parts-ledger/inventory"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 10

// MaxPageSize caps the ?size query parameter.
const MaxPageSize = 100

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger   *inventory.Ledger
	PageSize int

	// Scheduler is optional; when set, storage status reports its next run.
	Scheduler *FlushScheduler

	log zerolog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over the given ledger.
func NewHandler(ledger *inventory.Ledger, pageSize int, log zerolog.Logger) *Handler {
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}
	return &Handler{
		Ledger:   ledger,
		PageSize: pageSize,
		log:      log.With().Str("component", "api").Logger(),
	}
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListPurchases returns the purchase log.
// GET /api/purchases?page=&size=&q=
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, h.Ledger.Purchases(r.Context()))
}

// ListSales returns the sale log.
// GET /api/sales?page=&size=&q=
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	h.listTransactions(w, r, h.Ledger.Sales(r.Context()))
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request, txs []inventory.Transaction) {
	q := searchTerm(r)
	dtos := make([]TransactionDTO, 0, len(txs))
	for i, tx := range txs {
		if matches(q, tx.PartNumber, tx.PartName) {
			dtos = append(dtos, TransactionDTO{Index: i, Transaction: tx})
		}
	}
	page, size := h.paging(r)
	writeJSON(w, http.StatusOK, paginate(dtos, page, size))
}

// RecordPurchase appends a purchase.
// POST /api/purchases
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	var in inventory.TransactionInput
	if !decodeBody(w, r, &in) {
		return
	}
	tx, err := h.Ledger.RecordPurchase(r.Context(), in)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// RecordSale appends a sale after checking it against stock.
// POST /api/sales
func (h *Handler) RecordSale(w http.ResponseWriter, r *http.Request) {
	var in inventory.TransactionInput
	if !decodeBody(w, r, &in) {
		return
	}
	tx, err := h.Ledger.RecordSale(r.Context(), in)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// EditPurchase applies field edits to one purchase.
// PATCH /api/purchases/{index}
func (h *Handler) EditPurchase(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.Ledger.EditPurchase)
}

// EditSale applies field edits to one sale.
// PATCH /api/sales/{index}
func (h *Handler) EditSale(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.Ledger.EditSale)
}

// EditStock applies field edits to one stock row.
// PATCH /api/stock/{index}
func (h *Handler) EditStock(w http.ResponseWriter, r *http.Request) {
	h.edit(w, r, h.Ledger.EditStock)
}

type editFunc func(ctx context.Context, index int, cmds ...inventory.EditCommand) (inventory.EditResult, error)

func (h *Handler) edit(w http.ResponseWriter, r *http.Request, fn editFunc) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req EditRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := fn(r.Context(), index, req.Edits...)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeletePurchase removes one purchase.
// DELETE /api/purchases/{index}
func (h *Handler) DeletePurchase(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Ledger.DeletePurchase)
}

// DeleteSale removes one sale.
// DELETE /api/sales/{index}
func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Ledger.DeleteSale)
}

// DeleteStock writes off one stock row.
// DELETE /api/stock/{index}
func (h *Handler) DeleteStock(w http.ResponseWriter, r *http.Request) {
	h.remove(w, r, h.Ledger.DeleteStock)
}

type deleteFunc func(ctx context.Context, index int) (inventory.EditResult, error)

func (h *Handler) remove(w http.ResponseWriter, r *http.Request, fn deleteFunc) {
	index, ok := indexParam(w, r)
	if !ok {
		return
	}
	res, err := fn(r.Context(), index)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

// ListStock returns the reconciled stock with latest prices.
// GET /api/stock?page=&size=&q=
func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	q := searchTerm(r)
	rows := h.Ledger.PricedStock(r.Context())
	dtos := make([]StockDTO, 0, len(rows))
	for i, row := range rows {
		if matches(q, row.PartNumber, row.PartName) {
			dtos = append(dtos, StockDTO{Index: i, PricedStock: row})
		}
	}
	page, size := h.paging(r)
	writeJSON(w, http.StatusOK, paginate(dtos, page, size))
}

// LookupStock finds one part, by number first and name second.
// GET /api/stock/lookup?partNumber=&partName=
func (h *Handler) LookupStock(w http.ResponseWriter, r *http.Request) {
	number := r.URL.Query().Get("partNumber")
	name := r.URL.Query().Get("partName")
	if strings.TrimSpace(number) == "" && strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION", "partNumber or partName required", "partNumber")
		return
	}
	rec, err := h.Ledger.Lookup(r.Context(), number, name)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inventory.PricedStock{
		StockRecord: rec,
		Prices:      h.Ledger.LatestPrices(r.Context(), rec.PartNumber, rec.PartName),
	})
}

// RebuildStock reconciles stock from the logs.
// POST /api/stock/rebuild
func (h *Handler) RebuildStock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.Ledger.Rebuild(r.Context())
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// AdjustStock books the synthetic transaction that sets a part's quantity.
// POST /api/stock/adjust
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	var req AdjustRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "quantity required", "quantity")
		return
	}
	adj, err := h.Ledger.SynthesizeAdjustment(r.Context(), req.PartNumber, req.PartName, *req.Quantity, req.Date)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustResponse{Adjustment: adj})
}

// RenameIdentity rewrites a part's number and name in both logs.
// POST /api/identity/rename
func (h *Handler) RenameIdentity(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	renamed, err := h.Ledger.RenameIdentity(r.Context(),
		req.Old.PartNumber, req.Old.PartName,
		req.New.PartNumber, req.New.PartName,
	)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renamed)
}

// =============================================================================
// STORAGE HANDLERS
// =============================================================================

// StorageStatus reports collections not yet persisted.
// GET /api/storage
func (h *Handler) StorageStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.storageStatus(r.Context()))
}

// FlushStorage retries pending writes immediately.
// POST /api/storage/flush
func (h *Handler) FlushStorage(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Records().Flush(r.Context()); err != nil {
		h.log.Warn().Err(err).Msg("manual flush failed")
		writeJSON(w, http.StatusServiceUnavailable, h.storageStatus(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, h.storageStatus(r.Context()))
}

// saveTimes is implemented by backends that record when each key was
// written (store/sqlite).
type saveTimes interface {
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}

func (h *Handler) storageStatus(ctx context.Context) StorageStatusDTO {
	pending := h.Ledger.Records().Pending()
	status := StorageStatusDTO{
		Pending: pending,
		Healthy: len(pending) == 0,
	}
	if status.Pending == nil {
		status.Pending = []inventory.Collection{}
	}
	if h.Scheduler != nil {
		if next := h.Scheduler.NextRunTime(); !next.IsZero() {
			status.NextFlushAt = next.UTC().Format(time.RFC3339)
		}
	}
	if st, ok := h.Ledger.Records().Backend().(saveTimes); ok {
		if last := h.lastSaved(ctx, st); !last.IsZero() {
			status.LastSavedAt = last.UTC().Format(time.RFC3339)
		}
	}
	return status
}

// lastSaved is the latest write time over all collections.
func (h *Handler) lastSaved(ctx context.Context, st saveTimes) time.Time {
	var last time.Time
	for _, c := range inventory.Collections {
		at, err := st.UpdatedAt(ctx, string(c))
		if err != nil {
			h.log.Warn().Err(err).Str("collection", string(c)).Msg("save time unavailable")
			continue
		}
		if at.After(last) {
			last = at
		}
	}
	return last
}

// Health reports that the server is up.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message, field string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Field: field})
}

// writeLedgerError maps inventory errors to HTTP statuses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), verr.Field)
	case errors.Is(err, inventory.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), "")
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error(), "quantity")
	case errors.Is(err, inventory.ErrStorage):
		h.log.Error().Err(err).Msg("storage unavailable")
		writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "storage unavailable, nothing was changed", "")
	default:
		h.log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error", "")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", fmt.Sprintf("invalid request body: %v", err), "")
		return false
	}
	return true
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "index must be an integer", "index")
		return 0, false
	}
	return index, true
}

// paging reads ?page (1-based) and ?size, clamping out-of-range values.
func (h *Handler) paging(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = h.PageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

func paginate[T any](items []T, page, size int) PageResponse[T] {
	total := len(items)
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return PageResponse[T]{
		Items: items[start:end],
		Page:  page,
		Size:  size,
		Total: total,
		Pages: (total + size - 1) / size,
	}
}

func searchTerm(r *http.Request) string {
	return strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
}

func matches(q, partNumber, partName string) bool {
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(partNumber), q) ||
		strings.Contains(strings.ToLower(partName), q)
}
