package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/draftpool/draftroom/internal/draft/events"
)

var ErrEventNotFound = errors.New("outbox event not found or already sent")

// Repository reads and settles outbox rows over database/sql, the
// same connection family the LISTEN/NOTIFY listener runs on. Pick
// events are inserted transactionally by the pick store; this side
// only drains them.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertDraftStatusChanged appends a status-change event. Used by the
// draft lifecycle app, whose transitions are single guarded updates
// rather than multi-statement transactions.
func (r *Repository) InsertDraftStatusChanged(ctx context.Context, draftID uuid.UUID, payload []byte) error {
	return r.insert(ctx, draftID, events.TypeDraftStatusChanged, payload, pqtype.NullRawMessage{})
}

func (r *Repository) insert(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte, metadata pqtype.NullRawMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload, metadata)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), draftID, eventType, payload, metadata)
	if err != nil {
		return fmt.Errorf("insert %s outbox event: %w", eventType, err)
	}
	return nil
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, draft_id, event_type, payload, metadata, created_at, sent_at
		FROM draft_outbox
		WHERE id = $1 AND sent_at IS NULL`,
		id)
	ev, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("fetch outbox event by id: %w", err)
	}
	return ev, nil
}

func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, draft_id, event_type, payload, metadata, created_at, sent_at
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE draft_outbox SET sent_at = now() WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("mark outbox event sent: %w", err)
	}
	return nil
}

func scanEvent(row interface{ Scan(...any) error }) (*Event, error) {
	var ev Event
	if err := row.Scan(&ev.ID, &ev.DraftID, &ev.EventType, &ev.Payload, &ev.Metadata, &ev.CreatedAt, &ev.SentAt); err != nil {
		return nil, err
	}
	return &ev, nil
}
