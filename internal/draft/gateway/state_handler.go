package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StateProvider serves the reconnect snapshot for a draft room.
type StateProvider interface {
	GetDraftState(ctx context.Context, draftID uuid.UUID) (*DraftStateResponse, error)
}

// DraftStateResponse is the full room snapshot a client needs to
// render after connecting or reconnecting.
type DraftStateResponse struct {
	DraftID          string           `json:"draft_id"`
	LeagueID         string           `json:"league_id"`
	Status           string           `json:"status"`
	CurrentPick      *CurrentPickInfo `json:"current_pick,omitempty"`
	RecentPicks      []RecentPickInfo `json:"recent_picks"`
	TimeRemainingSec *int             `json:"time_remaining_sec,omitempty"`
	TotalPicks       int              `json:"total_picks"`
	CompletedPicks   int              `json:"completed_picks"`
	TotalMembers     int              `json:"total_members"`
	TotalRounds      int              `json:"total_rounds"`
}

// CurrentPickInfo describes the slot currently on the clock.
type CurrentPickInfo struct {
	PickNumber     int        `json:"pick_number"`
	Round          int        `json:"round"`
	PickInRound    int        `json:"pick_in_round"`
	MemberID       string     `json:"member_id"`
	TeamName       string     `json:"team_name,omitempty"`
	TimerExpiresAt *time.Time `json:"timer_expires_at,omitempty"`
	TimePerPickSec int        `json:"time_per_pick_sec"`
}

// RecentPickInfo is one committed pick in the snapshot tail.
type RecentPickInfo struct {
	PickID     string    `json:"pick_id"`
	MemberID   string    `json:"member_id"`
	TeamID     string    `json:"team_id"`
	PickNumber int       `json:"pick_number"`
	Round      int       `json:"round"`
	IsAutoPick bool      `json:"is_auto_pick"`
	MadeAt     time.Time `json:"made_at"`
}

// StateHandler serves GET /api/drafts/{id}/state.
type StateHandler struct {
	stateProvider StateProvider
}

func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{stateProvider: provider}
}

func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid draft id", http.StatusBadRequest)
		return
	}

	state, err := h.stateProvider.GetDraftState(r.Context(), draftID)
	if err != nil {
		log.Error().Err(err).Str("draft_id", draftID.String()).Msg("failed to get draft state")
		http.Error(w, "failed to get draft state", http.StatusInternalServerError)
		return
	}

	if state.CurrentPick != nil {
		state.TimeRemainingSec = timeRemaining(state.CurrentPick.TimerExpiresAt, time.Now())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error().Err(err).Msg("failed to encode draft state response")
	}
}

func (h *StateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/drafts/{id}/state", h.HandleGetDraftState)
}
