package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftpool/draftroom/internal/models"
)

const draftColumns = `id, league_id, status, settings, current_pick_number,
	timer_expires_at, started_at, completed_at, created_at, updated_at`

// Repository is the Postgres-backed draft record store. Status updates
// are guarded on the expected current status so a stale caller loses
// cleanly instead of clobbering a concurrent transition.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) CreateDraft(ctx context.Context, req CreateDraftRequest) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO drafts (id, league_id, status, settings, current_pick_number)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING `+draftColumns,
		req.ID, req.LeagueID, models.DraftStatusPreDraft, req.Settings)
	d, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("create draft: %w", err)
	}
	return d, nil
}

func (r *Repository) GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = $1`, id)
	d, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return d, nil
}

// StartDraft moves PRE_DRAFT → IN_PROGRESS, arming the first pick.
func (r *Repository) StartDraft(ctx context.Context, id uuid.UUID, startedAt, deadline time.Time) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, current_pick_number = 1, started_at = $3,
		    timer_expires_at = $4, updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+draftColumns,
		id, models.DraftStatusInProgress, startedAt, deadline, models.DraftStatusPreDraft)
	return r.transitioned(ctx, id, row)
}

// PauseDraft moves IN_PROGRESS → PAUSED and clears the deadline.
// Remaining time is discarded; resume grants a fresh window.
func (r *Repository) PauseDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, timer_expires_at = NULL, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+draftColumns,
		id, models.DraftStatusPaused, models.DraftStatusInProgress)
	return r.transitioned(ctx, id, row)
}

// ResumeDraft moves PAUSED → IN_PROGRESS with a full fresh deadline.
func (r *Repository) ResumeDraft(ctx context.Context, id uuid.UUID, deadline time.Time) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, timer_expires_at = $3, updated_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+draftColumns,
		id, models.DraftStatusInProgress, deadline, models.DraftStatusPaused)
	return r.transitioned(ctx, id, row)
}

// CompleteDraft is the commissioner override: any non-terminal running
// state → COMPLETED. Automatic completion after the final pick happens
// in the pick committer's transaction, not here.
func (r *Repository) CompleteDraft(ctx context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE drafts
		SET status = $2, timer_expires_at = NULL, completed_at = $3, updated_at = now()
		WHERE id = $1 AND status IN ($4, $5)
		RETURNING `+draftColumns,
		id, models.DraftStatusCompleted, completedAt,
		models.DraftStatusInProgress, models.DraftStatusPaused)
	return r.transitioned(ctx, id, row)
}

// FetchNextDeadline returns the soonest armed deadline, or
// ErrDraftNotFound when no in-progress draft has one.
func (r *Repository) FetchNextDeadline(ctx context.Context) (*NextDeadline, error) {
	var nd NextDeadline
	err := r.pool.QueryRow(ctx, `
		SELECT id, timer_expires_at
		FROM drafts
		WHERE status = $1 AND timer_expires_at IS NOT NULL
		ORDER BY timer_expires_at
		LIMIT 1`, models.DraftStatusInProgress).Scan(&nd.DraftID, &nd.Deadline)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("fetch next deadline: %w", err)
	}
	return &nd, nil
}

// FetchDraftsDueForPick lists in-progress drafts whose deadline has
// passed, oldest first.
func (r *Repository) FetchDraftsDueForPick(ctx context.Context, limit int32) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id
		FROM drafts
		WHERE status = $1 AND timer_expires_at IS NOT NULL AND timer_expires_at <= now()
		ORDER BY timer_expires_at
		LIMIT $2`, models.DraftStatusInProgress, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch due drafts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due draft: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) ClearNextDeadline(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE drafts SET timer_expires_at = NULL, updated_at = now() WHERE id = $1`, id)
	return err
}

// transitioned distinguishes "no such draft" from "guard lost" when a
// guarded UPDATE returned nothing.
func (r *Repository) transitioned(ctx context.Context, id uuid.UUID, row pgx.Row) (*models.Draft, error) {
	d, err := scanDraft(row)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("transition draft: %w", err)
	}
	if _, getErr := r.GetDraft(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInvalidTransition
}

func scanDraft(row pgx.Row) (*models.Draft, error) {
	var d models.Draft
	err := row.Scan(
		&d.ID, &d.LeagueID, &d.Status, &d.Settings, &d.CurrentPickNumber,
		&d.TimerExpiresAt, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
