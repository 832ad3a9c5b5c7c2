// Package events holds the payload types shared by the outbox
// publisher, the gateway and client view models.
package events

import (
	"time"
)

// Event type names as they appear on outbox rows and NATS subjects.
const (
	TypePickCommitted      = "PickCommitted"
	TypeDraftStatusChanged = "DraftStatusChanged"
)

// PickCommittedPayload is the payload for a PickCommitted event.
// Subscribers must key on PickNumber/TeamID, not arrival order.
type PickCommittedPayload struct {
	PickID         string    `json:"pick_id"`
	DraftID        string    `json:"draft_id"`
	LeagueMemberID string    `json:"league_member_id"`
	TeamID         string    `json:"team_id"`
	PickNumber     int       `json:"pick_number"`
	Round          int       `json:"round"`
	IsAutoPick     bool      `json:"is_auto_pick"`
	MadeAt         time.Time `json:"made_at"`
}

// DraftStatusChangedPayload is the payload for a DraftStatusChanged
// event, emitted on start/pause/resume/complete and on automatic
// completion after the final pick.
type DraftStatusChangedPayload struct {
	DraftID           string     `json:"draft_id"`
	Status            string     `json:"status"`
	CurrentPickNumber int        `json:"current_pick_number"`
	TimerExpiresAt    *time.Time `json:"timer_expires_at,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	ChangedAt         time.Time  `json:"changed_at"`
}
