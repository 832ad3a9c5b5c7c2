package pick_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
)

// memStore is an in-memory pick.Store. A mutex stands in for the
// serializable transaction: fn runs against staged copies and the
// staged writes are applied only when fn succeeds.
type memStore struct {
	mu      sync.Mutex
	drafts  map[uuid.UUID]*models.Draft
	members []models.LeagueMember
	picks   []models.DraftPick
	outbox  []memEvent
}

type memEvent struct {
	draftID   uuid.UUID
	eventType string
	payload   json.RawMessage
}

func newMemStore() *memStore {
	return &memStore{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (s *memStore) InTx(_ context.Context, fn func(tx pick.DraftTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}

	if tx.savedDraft != nil {
		d := *tx.savedDraft
		s.drafts[d.ID] = &d
	}
	s.picks = append(s.picks, tx.insertedPicks...)
	s.outbox = append(s.outbox, tx.appendedEvents...)
	return nil
}

type memTx struct {
	store          *memStore
	savedDraft     *models.Draft
	insertedPicks  []models.DraftPick
	appendedEvents []memEvent
}

func (t *memTx) DraftForUpdate(_ context.Context, draftID uuid.UUID) (*models.Draft, error) {
	d, ok := t.store.drafts[draftID]
	if !ok {
		return nil, pick.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (t *memTx) Members(_ context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	var out []models.LeagueMember
	for _, m := range t.store.members {
		if m.LeagueID == leagueID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *memTx) TeamDrafted(_ context.Context, draftID, teamID uuid.UUID) (bool, error) {
	for _, p := range t.store.picks {
		if p.DraftID == draftID && p.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) PickExists(_ context.Context, draftID uuid.UUID, pickNumber int) (bool, error) {
	for _, p := range t.store.picks {
		if p.DraftID == draftID && p.PickNumber == pickNumber {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertPick(_ context.Context, p models.DraftPick) error {
	t.insertedPicks = append(t.insertedPicks, p)
	return nil
}

func (t *memTx) SaveDraft(_ context.Context, d *models.Draft) error {
	cp := *d
	t.savedDraft = &cp
	return nil
}

func (t *memTx) AppendOutbox(_ context.Context, draftID uuid.UUID, eventType string, payload []byte) error {
	t.appendedEvents = append(t.appendedEvents, memEvent{
		draftID:   draftID,
		eventType: eventType,
		payload:   append(json.RawMessage(nil), payload...),
	})
	return nil
}

// fixture builds a league with n members (draft positions 1..n in
// slice order) and n*rounds ranked teams, plus an in-progress draft.
type fixture struct {
	store   *memStore
	draft   *models.Draft
	members []models.LeagueMember
	teams   []models.LeagueTeam
}

func newFixture(n, rounds int, now time.Time) *fixture {
	leagueID := uuid.New()
	store := newMemStore()

	members := make([]models.LeagueMember, n)
	for i := range members {
		members[i] = models.LeagueMember{
			ID:            uuid.New(),
			LeagueID:      leagueID,
			DraftPosition: i + 1,
			TeamName:      "team",
		}
	}
	store.members = members

	teams := make([]models.LeagueTeam, n*rounds)
	for i := range teams {
		teams[i] = models.LeagueTeam{
			ID:       uuid.New(),
			LeagueID: leagueID,
			Name:     "seed",
			Rank:     i + 1,
		}
	}

	deadline := now.Add(60 * time.Second)
	draft := &models.Draft{
		ID:                uuid.New(),
		LeagueID:          leagueID,
		Status:            models.DraftStatusInProgress,
		Settings:          models.DraftSettings{Rounds: rounds, TimePerPickSec: 60},
		CurrentPickNumber: 1,
		TimerExpiresAt:    &deadline,
		StartedAt:         &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	store.drafts[draft.ID] = draft

	return &fixture{store: store, draft: draft, members: members, teams: teams}
}

func (f *fixture) memberAt(position int) models.LeagueMember {
	return f.members[position-1]
}

func (f *fixture) currentDraft() *models.Draft {
	return f.store.drafts[f.draft.ID]
}
