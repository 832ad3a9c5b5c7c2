// Package roster reads league membership and the draftable team
// catalog.
package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/draftpool/draftroom/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Roster returns the league's members ordered by draft position.
func (r *Repository) Roster(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, league_id, draft_position, team_name
		FROM league_members
		WHERE league_id = $1
		ORDER BY draft_position`,
		leagueID)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var members []models.LeagueMember
	for rows.Next() {
		var m models.LeagueMember
		if err := rows.Scan(&m.ID, &m.LeagueID, &m.DraftPosition, &m.TeamName); err != nil {
			return nil, fmt.Errorf("scan league member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// TeamCatalog returns every draftable team in the league ordered by
// rank, drafted or not.
func (r *Repository) TeamCatalog(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueTeam, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, league_id, name, rank
		FROM league_teams
		WHERE league_id = $1
		ORDER BY rank, id`,
		leagueID)
	if err != nil {
		return nil, fmt.Errorf("query team catalog: %w", err)
	}
	defer rows.Close()

	var teams []models.LeagueTeam
	for rows.Next() {
		var t models.LeagueTeam
		if err := rows.Scan(&t.ID, &t.LeagueID, &t.Name, &t.Rank); err != nil {
			return nil, fmt.Errorf("scan league team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
