package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/parts-ledger/inventory"
)

func TestScenarios_ListAll(t *testing.T) {
	s := newTestServer(t)

	list := decode[[]ScenarioDTO](t, s.mustDo(t, "GET", "/api/scenarios", "", http.StatusOK))

	require.Len(t, list, len(scenarioLoaders))
	for _, sc := range list {
		assert.Contains(t, scenarioLoaders, sc.ID)
	}
}

func TestScenarios_EachLoads(t *testing.T) {
	for id := range scenarioLoaders {
		t.Run(id, func(t *testing.T) {
			s := newTestServer(t)

			s.mustDo(t, "POST", "/api/scenarios/load", `{"scenario_id":"`+id+`"}`, http.StatusOK)

			current := decode[ScenarioDTO](t, s.mustDo(t, "GET", "/api/scenarios/current", "", http.StatusOK))
			assert.Equal(t, id, current.ID)

			ctx := t.Context()
			stock := s.ledger.Stock(ctx)
			assert.NotEmpty(t, stock)
			assert.Equal(t, inventory.RebuildStock(s.ledger.Purchases(ctx), s.ledger.Sales(ctx)), stock)
		})
	}
}

func TestScenarios_Workshop(t *testing.T) {
	s := newTestServer(t)

	s.mustDo(t, "POST", "/api/scenarios/load", `{"scenario_id":"workshop"}`, http.StatusOK)

	want := map[string]int{"HB-M8": 160, "HN-M8": 160, "Flat Washer": 380, "BP-221": 8}
	got := map[string]int{}
	for _, row := range s.ledger.Stock(t.Context()) {
		got[row.PartNumber] = row.Quantity
	}
	assert.Equal(t, want, got)
}

func TestScenarios_ReplaceExistingData(t *testing.T) {
	s := newTestServer(t)
	s.seedBolts(t)

	s.mustDo(t, "POST", "/api/scenarios/load", `{"scenario_id":"stock-correction"}`, http.StatusOK)

	stock := s.ledger.Stock(t.Context())
	require.Len(t, stock, 1)
	assert.Equal(t, 20, stock[0].Quantity)
	assert.Len(t, s.ledger.Purchases(t.Context()), 2)
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	s := newTestServer(t)

	rec := s.mustDo(t, "POST", "/api/scenarios/load", `{"scenario_id":"nope"}`, http.StatusBadRequest)
	assert.Equal(t, "scenario_id", decode[ErrorResponse](t, rec).Field)

	s.mustDo(t, "POST", "/api/scenarios/load", `{"scenario_id":"workshop"}`, http.StatusOK)
	s.mustDo(t, "POST", "/api/scenarios/reset", "", http.StatusOK)

	assert.Empty(t, s.ledger.Stock(t.Context()))
	assert.Empty(t, s.ledger.Purchases(t.Context()))
	rec = s.mustDo(t, "GET", "/api/scenarios/current", "", http.StatusOK)
	assert.Equal(t, "null\n", rec.Body.String())
}

// =============================================================================
// SCHEDULER
// =============================================================================

func TestFlushScheduler_InvalidSpec(t *testing.T) {
	s := newTestServer(t)

	_, err := NewFlushScheduler(s.ledger, "every now and then", "", zerolog.Nop())
	assert.Error(t, err)

	_, err = NewFlushScheduler(s.ledger, "@every 1m", "not cron", zerolog.Nop())
	assert.Error(t, err)
}

func TestFlushScheduler_RetriesPendingWrites(t *testing.T) {
	// GIVEN: A purchase recorded while the backend was down
	// WHEN: The backend recovers and the scheduler runs
	// THEN: Nothing is pending any more

	s := newTestServer(t)
	sched, err := NewFlushScheduler(s.ledger, "@every 1h", "@daily", zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, sched.NextRunTime().IsZero())

	s.mem.FailSave = assert.AnError
	s.mustDo(t, "POST", "/api/purchases", `{"partName":"Bolt","partNumber":"P1","quantity":1,"price":1}`, http.StatusCreated)
	require.NotEmpty(t, s.ledger.Records().Pending())

	s.mem.FailSave = nil
	sched.RunNow()

	assert.Empty(t, s.ledger.Records().Pending())
	assert.Equal(t, 2, s.mem.Keys())
}

func TestFlushScheduler_StartStop(t *testing.T) {
	s := newTestServer(t)
	sched, err := NewFlushScheduler(s.ledger, "@every 1h", "", zerolog.Nop())
	require.NoError(t, err)
	s.handler.Scheduler = sched

	sched.Start()
	next := sched.NextRunTime()
	status := decode[StorageStatusDTO](t, s.mustDo(t, "GET", "/api/storage", "", http.StatusOK))
	sched.Stop()

	assert.WithinDuration(t, time.Now().Add(time.Hour), next, time.Minute)
	assert.NotEmpty(t, status.NextFlushAt)
	assert.True(t, status.Healthy)
}
