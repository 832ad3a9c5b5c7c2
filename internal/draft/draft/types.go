package draft

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/draftpool/draftroom/internal/models"
)

var (
	// ErrDraftNotFound: no draft row for the given id.
	ErrDraftNotFound = errors.New("draft not found")

	// ErrInvalidTransition: the requested status change is not legal
	// from the draft's current state (completed is terminal).
	ErrInvalidTransition = errors.New("invalid draft status transition")

	// ErrInvalidSettings: the draft settings fail validation.
	ErrInvalidSettings = errors.New("invalid draft settings")
)

// CreateDraftRequest creates a draft in PRE_DRAFT for a league.
type CreateDraftRequest struct {
	ID       uuid.UUID            `json:"id"`
	LeagueID uuid.UUID            `json:"league_id"`
	Settings models.DraftSettings `json:"settings"`
}

// NextDeadline is the soonest pick deadline across in-progress drafts.
type NextDeadline struct {
	DraftID  uuid.UUID  `json:"draft_id"`
	Deadline *time.Time `json:"deadline"`
}
