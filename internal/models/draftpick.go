package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftPick is an immutable record of one committed selection.
// Pick numbers form a contiguous 1..k sequence per draft and a team
// appears in at most one pick.
type DraftPick struct {
	ID             uuid.UUID `json:"id"`
	DraftID        uuid.UUID `json:"draft_id"`
	LeagueMemberID uuid.UUID `json:"league_member_id"`
	TeamID         uuid.UUID `json:"team_id"`
	PickNumber     int       `json:"pick_number"`
	Round          int       `json:"round"`
	IsAutoPick     bool      `json:"is_auto_pick"`
	CreatedAt      time.Time `json:"created_at"`
}
