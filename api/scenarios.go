/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built data sets that replace the purchase and sale logs
	with a realistic history. Every row goes through the recorder, so
	scenarios obey the same validation as user input.

AVAILABLE SCENARIOS:

	workshop:         A small repair shop, several parts, partial sales
	renamed-part:     A part recorded under an old number, then renamed
	stock-correction: A physical count that differs from the books

HOW SCENARIOS WORK:
 1. Clear both logs (stock reconciles to empty)
 2. Record purchases
 3. Record sales
 4. Optionally rename or adjust

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "workshop"}

NOTE:

	Scenarios discard existing data. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler struct
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/parts-ledger/inventory"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "workshop",
		Name:        "Workshop",
		Description: "Bolts, nuts and washers bought in January, some sold",
	},
	{
		ID:          "renamed-part",
		Name:        "Renamed Part",
		Description: "Bolt P1 renamed to P2/BoltV2; history follows the new identity",
	},
	{
		ID:          "stock-correction",
		Name:        "Stock Correction",
		Description: "Counted 20 bolts where the books say 7; a purchase of 13 closes the gap",
	},
}

var scenarioLoaders = map[string]func(ctx context.Context, l *inventory.Ledger) error{
	"workshop":         loadWorkshopScenario,
	"renamed-part":     loadRenamedPartScenario,
	"stock-correction": loadStockCorrectionScenario,
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario replaces all data with a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, http.StatusBadRequest, "VALIDATION", fmt.Sprintf("unknown scenario %q", req.ScenarioID), "scenario_id")
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Ledger.Replace(ctx, nil, nil)
	h.currentScenario = ""
	if err := load(ctx, h.Ledger); err != nil {
		h.log.Error().Err(err).Str("scenario", req.ScenarioID).Msg("scenario failed to load")
		writeError(w, http.StatusInternalServerError, "INTERNAL", fmt.Sprintf("failed to load scenario: %v", err), "")
		return
	}
	h.currentScenario = req.ScenarioID

	h.log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetData clears both logs and the stock table.
// POST /api/scenarios/reset
func (h *Handler) ResetData(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.Ledger.Replace(r.Context(), nil, nil)
	h.currentScenario = ""
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type scenarioRow struct {
	sale bool
	in   inventory.TransactionInput
}

func buy(date, name, number string, qty int, price string) scenarioRow {
	return scenarioRow{in: inventory.TransactionInput{
		Date: date, PartName: name, PartNumber: number, Quantity: qty, Price: decimal.RequireFromString(price),
	}}
}

func sell(date, name, number string, qty int, price string) scenarioRow {
	row := buy(date, name, number, qty, price)
	row.sale = true
	return row
}

func record(ctx context.Context, l *inventory.Ledger, rows ...scenarioRow) error {
	for i, row := range rows {
		var err error
		if row.sale {
			_, err = l.RecordSale(ctx, row.in)
		} else {
			_, err = l.RecordPurchase(ctx, row.in)
		}
		if err != nil {
			return fmt.Errorf("row %d (%s): %w", i, row.in.PartName, err)
		}
	}
	return nil
}

func loadWorkshopScenario(ctx context.Context, l *inventory.Ledger) error {
	return record(ctx, l,
		buy("2025-01-02", "Hex Bolt M8", "HB-M8", 200, "0.12"),
		buy("2025-01-02", "Hex Nut M8", "HN-M8", 200, "0.05"),
		buy("2025-01-03", "Flat Washer", "", 500, "0.02"),
		buy("2025-01-10", "Brake Pad Set", "BP-221", 6, "34.90"),
		sell("2025-01-12", "Hex Bolt M8", "HB-M8", 40, "0.30"),
		sell("2025-01-12", "Hex Nut M8", "HN-M8", 40, "0.15"),
		sell("2025-01-15", "Brake Pad Set", "BP-221", 2, "59.00"),
		buy("2025-01-20", "Brake Pad Set", "BP-221", 4, "33.50"),
		sell("2025-01-28", "Flat Washer", "Flat Washer", 120, "0.05"),
	)
}

func loadRenamedPartScenario(ctx context.Context, l *inventory.Ledger) error {
	if err := record(ctx, l,
		buy("2025-01-01", "Bolt", "P1", 10, "0.25"),
		sell("2025-01-05", "Bolt", "P1", 3, "0.50"),
	); err != nil {
		return err
	}
	_, err := l.RenameIdentity(ctx, "P1", "Bolt", "P2", "BoltV2")
	return err
}

func loadStockCorrectionScenario(ctx context.Context, l *inventory.Ledger) error {
	if err := record(ctx, l,
		buy("2025-01-01", "Bolt", "P1", 10, "0.25"),
		sell("2025-01-05", "Bolt", "P1", 3, "0.50"),
	); err != nil {
		return err
	}
	_, err := l.SynthesizeAdjustment(ctx, "P1", "Bolt", 20, "2025-02-01")
	return err
}
