package models

import (
	"github.com/google/uuid"
)

// LeagueTeam is a draftable entity: selectable exactly once per draft.
// Rank drives auto-pick selection and the default catalog sort.
type LeagueTeam struct {
	ID       uuid.UUID `json:"id"`
	LeagueID uuid.UUID `json:"league_id"`
	Name     string    `json:"name"`
	Rank     int       `json:"rank"`
}
