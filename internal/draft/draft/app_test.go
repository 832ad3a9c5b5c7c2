package draft_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftpool/draftroom/internal/draft/draft"
	"github.com/draftpool/draftroom/internal/draft/events"
	"github.com/draftpool/draftroom/internal/models"
)

// fakeRepo mirrors the repository's guarded transitions in memory.
type fakeRepo struct {
	drafts map[uuid.UUID]*models.Draft
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{drafts: make(map[uuid.UUID]*models.Draft)}
}

func (r *fakeRepo) CreateDraft(_ context.Context, req draft.CreateDraftRequest) (*models.Draft, error) {
	d := &models.Draft{
		ID:                req.ID,
		LeagueID:          req.LeagueID,
		Status:            models.DraftStatusPreDraft,
		Settings:          req.Settings,
		CurrentPickNumber: 1,
	}
	r.drafts[d.ID] = d
	return d, nil
}

func (r *fakeRepo) GetDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	d, ok := r.drafts[id]
	if !ok {
		return nil, draft.ErrDraftNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRepo) StartDraft(_ context.Context, id uuid.UUID, startedAt, deadline time.Time) (*models.Draft, error) {
	return r.guarded(id, func(d *models.Draft) bool {
		if d.Status != models.DraftStatusPreDraft {
			return false
		}
		d.Status = models.DraftStatusInProgress
		d.CurrentPickNumber = 1
		d.StartedAt = &startedAt
		d.TimerExpiresAt = &deadline
		return true
	})
}

func (r *fakeRepo) PauseDraft(_ context.Context, id uuid.UUID) (*models.Draft, error) {
	return r.guarded(id, func(d *models.Draft) bool {
		if d.Status != models.DraftStatusInProgress {
			return false
		}
		d.Status = models.DraftStatusPaused
		d.TimerExpiresAt = nil
		return true
	})
}

func (r *fakeRepo) ResumeDraft(_ context.Context, id uuid.UUID, deadline time.Time) (*models.Draft, error) {
	return r.guarded(id, func(d *models.Draft) bool {
		if d.Status != models.DraftStatusPaused {
			return false
		}
		d.Status = models.DraftStatusInProgress
		d.TimerExpiresAt = &deadline
		return true
	})
}

func (r *fakeRepo) CompleteDraft(_ context.Context, id uuid.UUID, completedAt time.Time) (*models.Draft, error) {
	return r.guarded(id, func(d *models.Draft) bool {
		if d.Status != models.DraftStatusInProgress && d.Status != models.DraftStatusPaused {
			return false
		}
		d.Status = models.DraftStatusCompleted
		d.TimerExpiresAt = nil
		d.CompletedAt = &completedAt
		return true
	})
}

func (r *fakeRepo) FetchNextDeadline(context.Context) (*draft.NextDeadline, error) {
	return nil, draft.ErrDraftNotFound
}

func (r *fakeRepo) FetchDraftsDueForPick(context.Context, int32) ([]uuid.UUID, error) {
	return nil, nil
}

func (r *fakeRepo) ClearNextDeadline(_ context.Context, id uuid.UUID) error {
	if d, ok := r.drafts[id]; ok {
		d.TimerExpiresAt = nil
	}
	return nil
}

func (r *fakeRepo) guarded(id uuid.UUID, apply func(*models.Draft) bool) (*models.Draft, error) {
	d, ok := r.drafts[id]
	if !ok {
		return nil, draft.ErrDraftNotFound
	}
	if !apply(d) {
		return nil, draft.ErrInvalidTransition
	}
	cp := *d
	return &cp, nil
}

type fakeOutbox struct {
	statusEvents []json.RawMessage
}

func (o *fakeOutbox) InsertDraftStatusChanged(_ context.Context, _ uuid.UUID, payload []byte) error {
	o.statusEvents = append(o.statusEvents, append(json.RawMessage(nil), payload...))
	return nil
}

func newApp(t *testing.T) (*draft.App, *fakeRepo, *fakeOutbox, *clockwork.FakeClock, *models.Draft) {
	t.Helper()
	repo := newFakeRepo()
	outbox := &fakeOutbox{}
	clock := clockwork.NewFakeClock()
	app := draft.NewApp(repo, outbox, clock)

	d, err := app.CreateDraft(context.Background(), draft.CreateDraftRequest{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		Settings: models.DraftSettings{Rounds: 3, TimePerPickSec: 90},
	})
	require.NoError(t, err)
	return app, repo, outbox, clock, d
}

func TestStartArmsFirstPick(t *testing.T) {
	app, _, outbox, clock, d := newApp(t)

	started, err := app.Start(context.Background(), d.ID)
	require.NoError(t, err)

	assert.Equal(t, models.DraftStatusInProgress, started.Status)
	assert.Equal(t, 1, started.CurrentPickNumber)
	require.NotNil(t, started.StartedAt)
	assert.Equal(t, clock.Now(), *started.StartedAt)
	require.NotNil(t, started.TimerExpiresAt)
	assert.Equal(t, clock.Now().Add(90*time.Second), *started.TimerExpiresAt)

	require.Len(t, outbox.statusEvents, 1)
	var payload events.DraftStatusChangedPayload
	require.NoError(t, json.Unmarshal(outbox.statusEvents[0], &payload))
	assert.Equal(t, string(models.DraftStatusInProgress), payload.Status)
}

func TestStartTwiceIsInvalid(t *testing.T) {
	app, _, _, _, d := newApp(t)

	_, err := app.Start(context.Background(), d.ID)
	require.NoError(t, err)
	_, err = app.Start(context.Background(), d.ID)
	assert.ErrorIs(t, err, draft.ErrInvalidTransition)
}

func TestPauseDiscardsRemainingTime(t *testing.T) {
	app, _, outbox, clock, d := newApp(t)
	ctx := context.Background()

	_, err := app.Start(ctx, d.ID)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	paused, err := app.Pause(ctx, d.ID, "commissioner break")
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusPaused, paused.Status)
	assert.Nil(t, paused.TimerExpiresAt)

	// Resume grants a fresh full window, not the 60s that were left.
	clock.Advance(5 * time.Minute)
	resumed, err := app.Resume(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusInProgress, resumed.Status)
	require.NotNil(t, resumed.TimerExpiresAt)
	assert.Equal(t, clock.Now().Add(90*time.Second), *resumed.TimerExpiresAt)

	require.Len(t, outbox.statusEvents, 3)
	var pausedPayload events.DraftStatusChangedPayload
	require.NoError(t, json.Unmarshal(outbox.statusEvents[1], &pausedPayload))
	assert.Equal(t, "commissioner break", pausedPayload.Reason)
	assert.Nil(t, pausedPayload.TimerExpiresAt)
}

func TestPauseRequiresInProgress(t *testing.T) {
	app, _, _, _, d := newApp(t)

	_, err := app.Pause(context.Background(), d.ID, "")
	assert.ErrorIs(t, err, draft.ErrInvalidTransition)
}

func TestCompletedIsTerminal(t *testing.T) {
	app, _, _, _, d := newApp(t)
	ctx := context.Background()

	_, err := app.Start(ctx, d.ID)
	require.NoError(t, err)
	completed, err := app.Complete(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.DraftStatusCompleted, completed.Status)
	assert.Nil(t, completed.TimerExpiresAt)
	assert.NotNil(t, completed.CompletedAt)

	for name, fn := range map[string]func() error{
		"start":    func() error { _, err := app.Start(ctx, d.ID); return err },
		"pause":    func() error { _, err := app.Pause(ctx, d.ID, ""); return err },
		"resume":   func() error { _, err := app.Resume(ctx, d.ID); return err },
		"complete": func() error { _, err := app.Complete(ctx, d.ID); return err },
	} {
		assert.ErrorIs(t, fn(), draft.ErrInvalidTransition, name)
	}
}

func TestUnknownDraft(t *testing.T) {
	app, _, _, _, _ := newApp(t)

	_, err := app.Start(context.Background(), uuid.New())
	assert.ErrorIs(t, err, draft.ErrDraftNotFound)
}

func TestCreateDraftValidatesSettings(t *testing.T) {
	app, _, _, _, _ := newApp(t)

	_, err := app.CreateDraft(context.Background(), draft.CreateDraftRequest{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		Settings: models.DraftSettings{Rounds: 0, TimePerPickSec: 60},
	})
	assert.ErrorIs(t, err, draft.ErrInvalidSettings)

	_, err = app.CreateDraft(context.Background(), draft.CreateDraftRequest{
		ID:       uuid.New(),
		LeagueID: uuid.New(),
		Settings: models.DraftSettings{Rounds: 2, TimePerPickSec: 0},
	})
	assert.ErrorIs(t, err, draft.ErrInvalidSettings)
}
