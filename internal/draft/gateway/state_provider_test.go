package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftpool/draftroom/internal/models"
)

type fakeStores struct {
	draft   *models.Draft
	members []models.LeagueMember
	picks   []models.DraftPick
}

func (f *fakeStores) GetDraft(_ context.Context, _ uuid.UUID) (*models.Draft, error) {
	d := *f.draft
	return &d, nil
}

func (f *fakeStores) PicksByDraft(_ context.Context, _ uuid.UUID) ([]models.DraftPick, error) {
	return f.picks, nil
}

func (f *fakeStores) Roster(_ context.Context, _ uuid.UUID) ([]models.LeagueMember, error) {
	return f.members, nil
}

func snapshotFixture(t *testing.T, currentPick int, madePicks int) (*fakeStores, uuid.UUID) {
	t.Helper()
	draftID := uuid.New()
	leagueID := uuid.New()
	members := make([]models.LeagueMember, 4)
	for i := range members {
		members[i] = models.LeagueMember{
			ID:            uuid.New(),
			LeagueID:      leagueID,
			DraftPosition: i + 1,
			TeamName:      "Squad " + string(rune('A'+i)),
		}
	}
	picks := make([]models.DraftPick, madePicks)
	for i := range picks {
		picks[i] = models.DraftPick{
			ID:         uuid.New(),
			DraftID:    draftID,
			TeamID:     uuid.New(),
			PickNumber: i + 1,
			Round:      i/4 + 1,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Minute),
		}
	}
	deadline := time.Now().Add(45 * time.Second)
	return &fakeStores{
		draft: &models.Draft{
			ID:                draftID,
			LeagueID:          leagueID,
			Status:            models.DraftStatusInProgress,
			Settings:          models.DraftSettings{Rounds: 3, TimePerPickSec: 60},
			CurrentPickNumber: currentPick,
			TimerExpiresAt:    &deadline,
		},
		members: members,
		picks:   picks,
	}, draftID
}

func TestGetDraftStateInProgress(t *testing.T) {
	stores, draftID := snapshotFixture(t, 6, 5)
	stores.picks[2].IsAutoPick = true
	provider := NewDraftStateProvider(stores, stores, stores)

	state, err := provider.GetDraftState(context.Background(), draftID)
	require.NoError(t, err)

	assert.Equal(t, string(models.DraftStatusInProgress), state.Status)
	assert.Equal(t, 12, state.TotalPicks)
	assert.Equal(t, 5, state.CompletedPicks)
	assert.Len(t, state.RecentPicks, 5)
	assert.True(t, state.RecentPicks[2].IsAutoPick)

	// Pick 6 of a 4-member snake draft is round 2, second pick, which
	// belongs to draft position 3.
	require.NotNil(t, state.CurrentPick)
	assert.Equal(t, 6, state.CurrentPick.PickNumber)
	assert.Equal(t, 2, state.CurrentPick.Round)
	assert.Equal(t, stores.members[2].ID.String(), state.CurrentPick.MemberID)
	assert.Equal(t, "Squad C", state.CurrentPick.TeamName)
	require.NotNil(t, state.CurrentPick.TimerExpiresAt)
}

func TestGetDraftStatePreDraftHasNoCurrentPick(t *testing.T) {
	stores, draftID := snapshotFixture(t, 1, 0)
	stores.draft.Status = models.DraftStatusPreDraft
	stores.draft.TimerExpiresAt = nil
	provider := NewDraftStateProvider(stores, stores, stores)

	state, err := provider.GetDraftState(context.Background(), draftID)
	require.NoError(t, err)
	assert.Nil(t, state.CurrentPick)
	assert.Empty(t, state.RecentPicks)
}

func TestGetDraftStateTrimsRecentPicks(t *testing.T) {
	stores, draftID := snapshotFixture(t, 12, 11)
	provider := NewDraftStateProvider(stores, stores, stores)

	state, err := provider.GetDraftState(context.Background(), draftID)
	require.NoError(t, err)

	require.Len(t, state.RecentPicks, recentPicksShown)
	assert.Equal(t, 2, state.RecentPicks[0].PickNumber, "oldest pick should fall off")
	assert.Equal(t, 11, state.RecentPicks[len(state.RecentPicks)-1].PickNumber)
	assert.Equal(t, 11, state.CompletedPicks)
}

func TestTimeRemainingClampsAtZero(t *testing.T) {
	now := time.Now()

	past := now.Add(-10 * time.Second)
	remaining := timeRemaining(&past, now)
	require.NotNil(t, remaining)
	assert.Equal(t, 0, *remaining)

	future := now.Add(30 * time.Second)
	remaining = timeRemaining(&future, now)
	require.NotNil(t, remaining)
	assert.Equal(t, 30, *remaining)

	assert.Nil(t, timeRemaining(nil, now))
}
