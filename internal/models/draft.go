package models

import (
	"time"

	"github.com/google/uuid"
)

// DraftStatus defines the lifecycle state of a draft.
type DraftStatus string

const (
	DraftStatusPreDraft   DraftStatus = "PRE_DRAFT"
	DraftStatusInProgress DraftStatus = "IN_PROGRESS"
	DraftStatusPaused     DraftStatus = "PAUSED"
	DraftStatusCompleted  DraftStatus = "COMPLETED"
)

// DraftSettings holds JSONB configuration for a draft.
type DraftSettings struct {
	Rounds         int `json:"rounds"`
	TimePerPickSec int `json:"time_per_pick_sec"`
}

// Draft is the authoritative record for one league's draft: status,
// turn pointer and pick deadline. It is mutated only through the pick
// committer and the explicit status transitions.
type Draft struct {
	ID                uuid.UUID     `json:"id"`
	LeagueID          uuid.UUID     `json:"league_id"`
	Status            DraftStatus   `json:"status"`
	Settings          DraftSettings `json:"settings"`
	CurrentPickNumber int           `json:"current_pick_number"`
	// TimerExpiresAt is nil exactly when the draft is not in progress.
	TimerExpiresAt *time.Time `json:"timer_expires_at,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// PickTimer returns the configured per-pick window.
func (d *Draft) PickTimer() time.Duration {
	return time.Duration(d.Settings.TimePerPickSec) * time.Second
}
