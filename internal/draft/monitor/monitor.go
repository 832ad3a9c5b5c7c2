// Package monitor runs the deadline scheduler: a single loop that
// sleeps until the soonest armed pick deadline, then dispatches
// expired drafts to a worker pool for auto-picking.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/draft/draft"
	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
)

// DeadlineStore surfaces armed pick deadlines.
type DeadlineStore interface {
	FetchNextDeadline(ctx context.Context) (*draft.NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, limit int32) ([]uuid.UUID, error)
}

// AutoPicker commits a fallback pick for the member on the clock.
type AutoPicker interface {
	AutoPick(ctx context.Context, draftID uuid.UUID) (*models.DraftPick, error)
}

// Pauser suspends a draft the monitor cannot advance.
type Pauser interface {
	Pause(ctx context.Context, id uuid.UUID, reason string) (*models.Draft, error)
}

type Monitor struct {
	deadlines  DeadlineStore
	autoPicker AutoPicker
	pauser     Pauser
	batchSize  int32
	clock      clockwork.Clock
	wakeCh     chan struct{}
	instanceID string

	numWorkers int
	workCh     chan uuid.UUID

	// Tracks drafts already handed to a worker so a slow auto-pick is
	// not queued twice by the next scheduler pass.
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

func New(deadlines DeadlineStore, autoPicker AutoPicker, pauser Pauser, batchSize int32) *Monitor {
	return NewWithClock(deadlines, autoPicker, pauser, batchSize, clockwork.NewRealClock())
}

// NewWithClock is New with an injectable clock for fake-clock tests.
func NewWithClock(deadlines DeadlineStore, autoPicker AutoPicker, pauser Pauser, batchSize int32, clock clockwork.Clock) *Monitor {
	numWorkers := 10
	return &Monitor{
		deadlines:  deadlines,
		autoPicker: autoPicker,
		pauser:     pauser,
		batchSize:  batchSize,
		clock:      clock,
		wakeCh:     make(chan struct{}, 1),
		instanceID: uuid.New().String()[:8],

		numWorkers: numWorkers,
		workCh:     make(chan uuid.UUID, numWorkers*2),
		inFlight:   make(map[uuid.UUID]bool),
	}
}

// Wake nudges the scheduler loop so a freshly armed deadline is
// noticed without waiting out the current sleep.
func (m *Monitor) Wake() {
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
}

// Run loops until ctx is cancelled, sleeping until the next deadline
// and queueing expired drafts for the worker pool.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info().Str("instance", m.instanceID).Int("workers", m.numWorkers).Msg("deadline monitor started")

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer func() {
		cancelWorkers()
		close(m.workCh)
		wg.Wait()
		log.Info().Str("instance", m.instanceID).Msg("all workers shut down")
	}()

	for i := 0; i < m.numWorkers; i++ {
		wg.Add(1)
		go m.worker(workerCtx, &wg, i)
	}

	timer := m.clock.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.Chan()
	}
	defer timer.Stop()

	const idlePollDuration = 5 * time.Second
	retryCount := 0
	const maxRetries = 3

	for {
		select {
		case <-m.wakeCh:
		default:
		}

		next, err := m.deadlines.FetchNextDeadline(ctx)
		if err != nil && !errors.Is(err, draft.ErrDraftNotFound) {
			retryCount++
			if retryCount > maxRetries {
				log.Error().Err(err).Str("instance", m.instanceID).Msg("fetching next deadline failed after retries")
				return err
			}
			log.Error().
				Err(err).
				Int("retry", retryCount).
				Str("instance", m.instanceID).
				Msg("error fetching next deadline, retrying")
			if !m.sleep(ctx, timer, time.Second*time.Duration(retryCount)) {
				return nil
			}
			continue
		}
		retryCount = 0

		if next == nil || next.Deadline == nil {
			if !m.idle(ctx, timer, idlePollDuration) {
				return nil
			}
			continue
		}

		wait := next.Deadline.Sub(m.clock.Now())
		if wait > 0 {
			timer.Reset(wait)
			select {
			case <-timer.Chan():
			case <-ctx.Done():
				log.Info().Str("instance", m.instanceID).Msg("shutdown during wait")
				return nil
			case <-m.wakeCh:
				// A sooner deadline may have been armed.
				continue
			}
		}

		due, err := m.deadlines.FetchDraftsDueForPick(ctx, m.batchSize)
		if err != nil {
			log.Error().Err(err).Str("instance", m.instanceID).Msg("error fetching due drafts")
			if !m.sleep(ctx, timer, time.Second) {
				return nil
			}
			continue
		}

		if len(due) > 0 {
			log.Info().
				Int("count_due", len(due)).
				Str("instance", m.instanceID).
				Msg("dispatching expired drafts")
		}
		for _, draftID := range due {
			m.inFlightMu.Lock()
			if m.inFlight[draftID] {
				m.inFlightMu.Unlock()
				continue
			}
			m.inFlight[draftID] = true
			m.inFlightMu.Unlock()

			select {
			case <-ctx.Done():
				m.inFlightMu.Lock()
				delete(m.inFlight, draftID)
				m.inFlightMu.Unlock()
				log.Info().Str("instance", m.instanceID).Msg("shutdown while queueing timeouts")
				return nil
			case m.workCh <- draftID:
			}
		}
	}
}

// sleep parks the loop for d. Returns false when ctx ended.
func (m *Monitor) sleep(ctx context.Context, timer clockwork.Timer, d time.Duration) bool {
	timer.Reset(d)
	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}

// idle parks the loop when no deadline is armed; a wake cuts it short.
func (m *Monitor) idle(ctx context.Context, timer clockwork.Timer, d time.Duration) bool {
	timer.Reset(d)
	select {
	case <-timer.Chan():
		return true
	case <-m.wakeCh:
		return true
	case <-ctx.Done():
		log.Info().Str("instance", m.instanceID).Msg("shutdown during idle")
		return false
	}
}

func (m *Monitor) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case draftID, ok := <-m.workCh:
			if !ok {
				return
			}
			m.handleTimeout(ctx, draftID, workerID)

			m.inFlightMu.Lock()
			delete(m.inFlight, draftID)
			m.inFlightMu.Unlock()
		}
	}
}

// handleTimeout fires one auto-pick for an expired draft. Losing the
// race to a late manual pick, or finding the draft paused or done, is
// a clean no-op. A draft with no teams left to assign cannot advance,
// so it gets paused for a commissioner to sort out. Any other failure
// is logged and retried on the next scheduler pass, since the
// deadline stays armed.
func (m *Monitor) handleTimeout(ctx context.Context, draftID uuid.UUID, workerID int) {
	logger := log.With().
		Str("draft_id", draftID.String()).
		Str("instance", m.instanceID).
		Int("worker_id", workerID).
		Logger()
	logger.Info().Msg("pick deadline expired, firing auto-pick")

	made, err := m.autoPicker.AutoPick(ctx, draftID)
	switch {
	case err == nil:
		logger.Info().
			Str("pick_id", made.ID.String()).
			Int("pick_number", made.PickNumber).
			Msg("auto-pick committed")
	case errors.Is(err, pick.ErrPickAlreadyMade):
		logger.Info().Msg("pick landed before the timeout was handled")
	case errors.Is(err, pick.ErrDraftNotActive):
		logger.Info().Msg("draft no longer active, skipping auto-pick")
	case errors.Is(err, pick.ErrNoTeamsAvailable):
		logger.Warn().Msg("no teams left to auto-pick, pausing draft")
		if _, perr := m.pauser.Pause(ctx, draftID, "no teams available for auto-pick"); perr != nil {
			logger.Error().Err(perr).Msg("failed to pause stuck draft")
		}
	default:
		logger.Error().Err(err).Msg("auto-pick failed, will retry next pass")
	}
}
