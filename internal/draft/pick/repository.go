package pick

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftpool/draftroom/internal/models"
	"github.com/draftpool/draftroom/internal/pgtx"
)

// Repository is the Postgres-backed pick store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InTx implements Store. FOR UPDATE on the draft row plus serializable
// isolation gives the committer its one-winner-per-slot guarantee.
func (r *Repository) InTx(ctx context.Context, fn func(tx DraftTx) error) error {
	return pgtx.RunSerializable(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&draftTx{tx: tx})
	})
}

// PicksByDraft returns all committed picks ordered by pick number.
func (r *Repository) PicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, draft_id, league_member_id, team_id, pick_number, round, is_auto_pick, created_at
		FROM draft_picks
		WHERE draft_id = $1
		ORDER BY pick_number`, draftID)
	if err != nil {
		return nil, fmt.Errorf("query picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var p models.DraftPick
		if err := rows.Scan(&p.ID, &p.DraftID, &p.LeagueMemberID, &p.TeamID, &p.PickNumber, &p.Round, &p.IsAutoPick, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

// AvailableTeams returns the league's undrafted teams, best rank first,
// ties broken by team id.
func (r *Repository) AvailableTeams(ctx context.Context, draftID uuid.UUID) ([]models.LeagueTeam, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.league_id, t.name, t.rank
		FROM league_teams t
		JOIN drafts d ON d.league_id = t.league_id
		WHERE d.id = $1
		  AND NOT EXISTS (
			SELECT 1 FROM draft_picks p
			WHERE p.draft_id = d.id AND p.team_id = t.id
		  )
		ORDER BY t.rank, t.id`, draftID)
	if err != nil {
		return nil, fmt.Errorf("query available teams: %w", err)
	}
	defer rows.Close()

	var teams []models.LeagueTeam
	for rows.Next() {
		var t models.LeagueTeam
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.Name, &t.Rank); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// draftTx binds DraftTx to a live pgx transaction.
type draftTx struct {
	tx pgx.Tx
}

func (t *draftTx) DraftForUpdate(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	var d models.Draft
	err := t.tx.QueryRow(ctx, `
		SELECT id, league_id, status, settings, current_pick_number,
		       timer_expires_at, started_at, completed_at, created_at, updated_at
		FROM drafts
		WHERE id = $1
		FOR UPDATE`, draftID).Scan(
		&d.ID, &d.LeagueID, &d.Status, &d.Settings, &d.CurrentPickNumber,
		&d.TimerExpiresAt, &d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("select draft for update: %w", err)
	}
	return &d, nil
}

func (t *draftTx) Members(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, league_id, draft_position, team_name
		FROM league_members
		WHERE league_id = $1
		ORDER BY draft_position`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []models.LeagueMember
	for rows.Next() {
		var m models.LeagueMember
		if err := rows.Scan(&m.ID, &m.LeagueID, &m.DraftPosition, &m.TeamName); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (t *draftTx) TeamDrafted(ctx context.Context, draftID, teamID uuid.UUID) (bool, error) {
	var drafted bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM draft_picks WHERE draft_id = $1 AND team_id = $2
		)`, draftID, teamID).Scan(&drafted)
	return drafted, err
}

func (t *draftTx) PickExists(ctx context.Context, draftID uuid.UUID, pickNumber int) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM draft_picks WHERE draft_id = $1 AND pick_number = $2
		)`, draftID, pickNumber).Scan(&exists)
	return exists, err
}

func (t *draftTx) InsertPick(ctx context.Context, p models.DraftPick) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO draft_picks (id, draft_id, league_member_id, team_id, pick_number, round, is_auto_pick, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.DraftID, p.LeagueMemberID, p.TeamID, p.PickNumber, p.Round, p.IsAutoPick, p.CreatedAt)
	return err
}

func (t *draftTx) SaveDraft(ctx context.Context, d *models.Draft) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE drafts
		SET status = $2, current_pick_number = $3, timer_expires_at = $4,
		    completed_at = $5, updated_at = $6
		WHERE id = $1`,
		d.ID, d.Status, d.CurrentPickNumber, d.TimerExpiresAt, d.CompletedAt, d.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDraftNotFound
	}
	return nil
}

func (t *draftTx) AppendOutbox(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO draft_outbox (id, draft_id, event_type, payload)
		VALUES ($1, $2, $3, $4)`,
		uuid.New(), draftID, eventType, payload)
	return err
}
