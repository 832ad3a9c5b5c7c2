package models

import (
	"github.com/google/uuid"
)

// LeagueMember is a draft participant. DraftPosition values are a
// permutation of 1..N assigned before the draft starts and immutable
// once it begins; the roster feed is trusted on that invariant.
type LeagueMember struct {
	ID            uuid.UUID `json:"id"`
	LeagueID      uuid.UUID `json:"league_id"`
	DraftPosition int       `json:"draft_position"`
	TeamName      string    `json:"team_name"`
}
