// Package draft owns the authoritative draft record: its status state
// machine (PRE_DRAFT → IN_PROGRESS ⇄ PAUSED → COMPLETED) and the
// deadline queries the expiration monitor runs on.
package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/draft/events"
	"github.com/draftpool/draftroom/internal/models"
)

// DraftRepository defines what the app needs from the record store.
type DraftRepository interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	StartDraft(ctx context.Context, id uuid.UUID, startedAt, deadline time.Time) (*models.Draft, error)
	PauseDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	ResumeDraft(ctx context.Context, id uuid.UUID, deadline time.Time) (*models.Draft, error)
	CompleteDraft(ctx context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error)
	FetchNextDeadline(ctx context.Context) (*NextDeadline, error)
	FetchDraftsDueForPick(ctx context.Context, limit int32) ([]uuid.UUID, error)
	ClearNextDeadline(ctx context.Context, id uuid.UUID) error
}

// OutboxApp defines what the app needs from the outbox.
type OutboxApp interface {
	InsertDraftStatusChanged(ctx context.Context, draftID uuid.UUID, payload []byte) error
}

// App applies commissioner actions and exposes the scheduler queries.
type App struct {
	repo   DraftRepository
	outbox OutboxApp
	clock  clockwork.Clock
}

func NewApp(repo DraftRepository, outbox OutboxApp, clock clockwork.Clock) *App {
	return &App{
		repo:   repo,
		outbox: outbox,
		clock:  clock,
	}
}

func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	if req.Settings.Rounds <= 0 {
		return nil, fmt.Errorf("%w: draft needs at least one round", ErrInvalidSettings)
	}
	if req.Settings.TimePerPickSec <= 0 {
		return nil, fmt.Errorf("%w: draft needs a positive pick timer", ErrInvalidSettings)
	}
	return a.repo.CreateDraft(ctx, req)
}

func (a *App) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	return a.repo.GetDraft(ctx, id)
}

// Start arms the first pick: pointer at 1, full timer window.
func (a *App) Start(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	now := a.clock.Now()
	d, err := a.repo.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	started, err := a.repo.StartDraft(ctx, id, now, now.Add(d.PickTimer()))
	if err != nil {
		return nil, err
	}
	a.emitStatusChanged(ctx, started, "")
	log.Info().Str("draft_id", id.String()).Msg("draft started")
	return started, nil
}

// Pause clears the deadline. Remaining time is not preserved; Resume
// issues a fresh full window.
func (a *App) Pause(ctx context.Context, id uuid.UUID, reason string) (*models.Draft, error) {
	d, err := a.repo.PauseDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	a.emitStatusChanged(ctx, d, reason)
	log.Info().Str("draft_id", id.String()).Str("reason", reason).Msg("draft paused")
	return d, nil
}

func (a *App) Resume(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	now := a.clock.Now()
	current, err := a.repo.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	d, err := a.repo.ResumeDraft(ctx, id, now.Add(current.PickTimer()))
	if err != nil {
		return nil, err
	}
	a.emitStatusChanged(ctx, d, "")
	log.Info().Str("draft_id", id.String()).Msg("draft resumed")
	return d, nil
}

// Complete is the commissioner override; the normal path is automatic
// completion inside the pick committer.
func (a *App) Complete(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	d, err := a.repo.CompleteDraft(ctx, id, a.clock.Now())
	if err != nil {
		return nil, err
	}
	a.emitStatusChanged(ctx, d, "commissioner override")
	log.Info().Str("draft_id", id.String()).Msg("draft completed")
	return d, nil
}

func (a *App) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	return a.repo.FetchNextDeadline(ctx)
}

func (a *App) FetchDraftsDueForPick(ctx context.Context, limit int32) ([]uuid.UUID, error) {
	return a.repo.FetchDraftsDueForPick(ctx, limit)
}

func (a *App) ClearNextDeadline(ctx context.Context, id uuid.UUID) error {
	return a.repo.ClearNextDeadline(ctx, id)
}

// emitStatusChanged records a DraftStatusChanged event after the
// transition committed. A failed insert is logged, not surfaced: the
// read model still reflects the transition and the outbox fallback
// poller cannot recover what was never written, so observers catch up
// on their next state fetch.
func (a *App) emitStatusChanged(ctx context.Context, d *models.Draft, reason string) {
	payload, err := json.Marshal(events.DraftStatusChangedPayload{
		DraftID:           d.ID.String(),
		Status:            string(d.Status),
		CurrentPickNumber: d.CurrentPickNumber,
		TimerExpiresAt:    d.TimerExpiresAt,
		Reason:            reason,
		ChangedAt:         a.clock.Now(),
	})
	if err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to marshal DraftStatusChanged payload")
		return
	}
	if err := a.outbox.InsertDraftStatusChanged(ctx, d.ID, payload); err != nil {
		log.Error().Err(err).Str("draft_id", d.ID.String()).Msg("failed to emit DraftStatusChanged event")
	}
}
