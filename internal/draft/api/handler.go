// Package api exposes the draft coordination HTTP surface: draft
// lifecycle, pick submission and read endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/draft/draft"
	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
)

// DraftService is the lifecycle surface the handler calls into.
// Implemented by draft.App.
type DraftService interface {
	CreateDraft(ctx context.Context, req draft.CreateDraftRequest) (*models.Draft, error)
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Start(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Pause(ctx context.Context, id uuid.UUID, reason string) (*models.Draft, error)
	Resume(ctx context.Context, id uuid.UUID) (*models.Draft, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Draft, error)
}

// PickService commits picks. Implemented by pick.Committer.
type PickService interface {
	CommitPick(ctx context.Context, draftID, actingMemberID, teamID uuid.UUID, isAutoPick bool) (*models.DraftPick, error)
}

// PickReader serves the pick read endpoints. Implemented by
// pick.Repository.
type PickReader interface {
	PicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
	AvailableTeams(ctx context.Context, draftID uuid.UUID) ([]models.LeagueTeam, error)
}

// Waker nudges the deadline scheduler after a mutation arms or moves
// a deadline. Implemented by monitor.Monitor.
type Waker interface {
	Wake()
}

type Handler struct {
	drafts DraftService
	picks  PickService
	reader PickReader
	waker  Waker
}

func NewHandler(drafts DraftService, picks PickService, reader PickReader, waker Waker) *Handler {
	return &Handler{
		drafts: drafts,
		picks:  picks,
		reader: reader,
		waker:  waker,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/drafts", h.handleCreateDraft)
	mux.HandleFunc("GET /api/drafts/{id}", h.handleGetDraft)
	mux.HandleFunc("POST /api/drafts/{id}/start", h.handleStart)
	mux.HandleFunc("POST /api/drafts/{id}/pause", h.handlePause)
	mux.HandleFunc("POST /api/drafts/{id}/resume", h.handleResume)
	mux.HandleFunc("POST /api/drafts/{id}/complete", h.handleComplete)
	mux.HandleFunc("POST /api/drafts/{id}/picks", h.handleSubmitPick)
	mux.HandleFunc("GET /api/drafts/{id}/picks", h.handleListPicks)
	mux.HandleFunc("GET /api/drafts/{id}/available-teams", h.handleAvailableTeams)
}

type createDraftRequest struct {
	LeagueID string               `json:"league_id"`
	Settings models.DraftSettings `json:"settings"`
}

func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req createDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	leagueID, err := uuid.Parse(req.LeagueID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league_id")
		return
	}

	created, err := h.drafts.CreateDraft(r.Context(), draft.CreateDraftRequest{
		ID:       uuid.New(),
		LeagueID: leagueID,
		Settings: req.Settings,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathDraftID(w, r)
	if !ok {
		return
	}
	d, err := h.drafts.GetDraft(r.Context(), draftID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
		return h.drafts.Start(ctx, id)
	})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	// Body is optional; an empty reason is fine.
	json.NewDecoder(r.Body).Decode(&body)

	h.lifecycle(w, r, func(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
		return h.drafts.Pause(ctx, id, body.Reason)
	})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
		return h.drafts.Resume(ctx, id)
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
		return h.drafts.Complete(ctx, id)
	})
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (*models.Draft, error)) {
	draftID, ok := pathDraftID(w, r)
	if !ok {
		return
	}
	d, err := op(r.Context(), draftID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.waker.Wake()
	writeJSON(w, http.StatusOK, d)
}

type submitPickRequest struct {
	LeagueMemberID string `json:"league_member_id"`
	TeamID         string `json:"team_id"`
}

func (h *Handler) handleSubmitPick(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathDraftID(w, r)
	if !ok {
		return
	}

	var req submitPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	memberID, err := uuid.Parse(req.LeagueMemberID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid league_member_id")
		return
	}
	teamID, err := uuid.Parse(req.TeamID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid team_id")
		return
	}

	made, err := h.picks.CommitPick(r.Context(), draftID, memberID, teamID, false)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.waker.Wake()
	writeJSON(w, http.StatusCreated, made)
}

func (h *Handler) handleListPicks(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathDraftID(w, r)
	if !ok {
		return
	}
	picks, err := h.reader.PicksByDraft(r.Context(), draftID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if picks == nil {
		picks = []models.DraftPick{}
	}
	writeJSON(w, http.StatusOK, picks)
}

func (h *Handler) handleAvailableTeams(w http.ResponseWriter, r *http.Request) {
	draftID, ok := pathDraftID(w, r)
	if !ok {
		return
	}
	teams, err := h.reader.AvailableTeams(r.Context(), draftID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if teams == nil {
		teams = []models.LeagueTeam{}
	}
	writeJSON(w, http.StatusOK, teams)
}

// writeDomainError maps domain errors onto HTTP statuses. Precondition
// failures are conflicts: the request was well formed, the draft state
// just disagrees with it.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, draft.ErrDraftNotFound), errors.Is(err, pick.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "draft not found")
	case errors.Is(err, draft.ErrInvalidTransition),
		errors.Is(err, pick.ErrDraftNotActive),
		errors.Is(err, pick.ErrNotYourTurn),
		errors.Is(err, pick.ErrTeamAlreadyDrafted),
		errors.Is(err, pick.ErrPickAlreadyMade):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, draft.ErrInvalidSettings):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathDraftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	draftID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft id")
		return uuid.Nil, false
	}
	return draftID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
