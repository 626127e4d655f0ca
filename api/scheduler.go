/*
scheduler.go - Background persistence scheduler

PURPOSE:
  A failed backend write leaves collections pending in memory (see
  inventory/records.go). The scheduler retries them on a cron schedule so
  the persisted state catches up without waiting for the next mutation.
  It can also reconcile stock periodically.

DESIGN:
  - robfig/cron runs the jobs on its own goroutine
  - The flush job is a no-op when nothing is pending
  - Each run gets a bounded context

CONFIGURATION:
  - FlushSchedule:   cron spec, e.g. "@every 30s" (required)
  - RebuildSchedule: cron spec, empty disables

USAGE:
  scheduler, err := NewFlushScheduler(ledger, "@every 30s", "", log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: FlushStorage endpoint (manual flush)
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/warp/parts-ledger/inventory"
)

const jobTimeout = 30 * time.Second

// FlushScheduler retries pending writes and optionally reconciles stock.
type FlushScheduler struct {
	Ledger *inventory.Ledger

	cron    *cron.Cron
	flushID cron.EntryID
	log     zerolog.Logger
}

// NewFlushScheduler parses the schedules and registers the jobs. Nothing runs
// until Start.
func NewFlushScheduler(ledger *inventory.Ledger, flushSpec, rebuildSpec string, log zerolog.Logger) (*FlushScheduler, error) {
	s := &FlushScheduler{
		Ledger: ledger,
		cron:   cron.New(),
		log:    log.With().Str("component", "scheduler").Logger(),
	}

	id, err := s.cron.AddFunc(flushSpec, s.flush)
	if err != nil {
		return nil, fmt.Errorf("flush schedule %q: %w", flushSpec, err)
	}
	s.flushID = id

	if rebuildSpec != "" {
		if _, err := s.cron.AddFunc(rebuildSpec, s.rebuild); err != nil {
			return nil, fmt.Errorf("rebuild schedule %q: %w", rebuildSpec, err)
		}
	}
	return s, nil
}

// Start begins the scheduler.
func (s *FlushScheduler) Start() {
	s.cron.Start()
	s.log.Info().Time("next_flush", s.NextRunTime()).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish, then makes
// one last flush attempt.
func (s *FlushScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.flush()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow triggers a flush immediately.
func (s *FlushScheduler) RunNow() {
	s.flush()
}

// NextRunTime returns when the next flush is due, or the zero time before Start.
func (s *FlushScheduler) NextRunTime() time.Time {
	return s.cron.Entry(s.flushID).Next
}

func (s *FlushScheduler) flush() {
	pending := s.Ledger.Records().Pending()
	if len(pending) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.Ledger.Records().Flush(ctx); err != nil {
		s.log.Warn().Err(err).Msg("pending collections still not persisted")
		return
	}
	s.log.Info().Int("collections", len(pending)).Msg("pending collections persisted")
}

func (s *FlushScheduler) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	stock, err := s.Ledger.Rebuild(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("scheduled reconciliation skipped")
		return
	}
	s.log.Debug().Int("stock", len(stock)).Msg("scheduled reconciliation")
}
