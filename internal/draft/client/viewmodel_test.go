package client

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftpool/draftroom/internal/draft/events"
	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
)

type fakeSubmitter struct {
	err   error
	calls int
}

func (f *fakeSubmitter) SubmitPick(_ context.Context, draftID, memberID, teamID uuid.UUID) (*models.DraftPick, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &models.DraftPick{
		ID:             uuid.New(),
		DraftID:        draftID,
		LeagueMemberID: memberID,
		TeamID:         teamID,
	}, nil
}

func committedPayload(memberID, teamID uuid.UUID, pickNumber int) events.PickCommittedPayload {
	return events.PickCommittedPayload{
		PickID:         uuid.New().String(),
		LeagueMemberID: memberID.String(),
		TeamID:         teamID.String(),
		PickNumber:     pickNumber,
		Round:          1,
		MadeAt:         time.Now(),
	}
}

func TestSubmitPickAppliesOptimistically(t *testing.T) {
	submitter := &fakeSubmitter{}
	vm := NewViewModel(uuid.New(), submitter)
	memberID, teamID := uuid.New(), uuid.New()

	require.NoError(t, vm.SubmitPick(context.Background(), memberID, teamID))

	pv, ok := vm.Pick(1)
	require.True(t, ok)
	assert.True(t, pv.Pending, "pick stays pending until the event confirms it")
	assert.Equal(t, teamID, pv.TeamID)
	assert.Equal(t, 2, vm.CurrentPick())
	assert.True(t, vm.TeamDrafted(teamID))
}

func TestSubmitPickRollsBackOnRejection(t *testing.T) {
	submitter := &fakeSubmitter{err: pick.ErrNotYourTurn}
	vm := NewViewModel(uuid.New(), submitter)
	memberID, teamID := uuid.New(), uuid.New()

	err := vm.SubmitPick(context.Background(), memberID, teamID)
	require.ErrorIs(t, err, pick.ErrNotYourTurn)

	_, ok := vm.Pick(1)
	assert.False(t, ok, "rejected pick must vanish from the board")
	assert.Equal(t, 1, vm.CurrentPick())
	assert.False(t, vm.TeamDrafted(teamID))
}

func TestEventConfirmsOptimisticPick(t *testing.T) {
	submitter := &fakeSubmitter{}
	vm := NewViewModel(uuid.New(), submitter)
	memberID, teamID := uuid.New(), uuid.New()

	require.NoError(t, vm.SubmitPick(context.Background(), memberID, teamID))
	require.NoError(t, vm.ApplyPickCommitted(committedPayload(memberID, teamID, 1)))

	pv, ok := vm.Pick(1)
	require.True(t, ok)
	assert.False(t, pv.Pending)
	assert.Equal(t, teamID, pv.TeamID)
	assert.Equal(t, 2, vm.CurrentPick())
}

func TestEventApplicationIsIdempotent(t *testing.T) {
	vm := NewViewModel(uuid.New(), &fakeSubmitter{})
	memberID, teamID := uuid.New(), uuid.New()
	payload := committedPayload(memberID, teamID, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, vm.ApplyPickCommitted(payload))
	}

	pv, ok := vm.Pick(1)
	require.True(t, ok)
	assert.Equal(t, teamID, pv.TeamID)
	assert.Equal(t, 2, vm.CurrentPick())
}

func TestAuthoritativeEventOverridesLostOptimisticPick(t *testing.T) {
	// A slow rejection races the winning pick's event. The event lands
	// first; the late rollback must not clobber it.
	submitter := &fakeSubmitter{err: pick.ErrPickAlreadyMade}
	vm := NewViewModel(uuid.New(), submitter)
	us, them := uuid.New(), uuid.New()
	ourTeam, theirTeam := uuid.New(), uuid.New()

	// Optimistic state from our submission exists while the request is
	// in flight; simulate by applying the winner's event between the
	// optimistic apply and the rollback. Easiest path: apply the event
	// first, then submit and fail.
	require.NoError(t, vm.ApplyPickCommitted(committedPayload(them, theirTeam, 1)))

	err := vm.SubmitPick(context.Background(), us, ourTeam)
	require.ErrorIs(t, err, pick.ErrPickAlreadyMade)

	pv, ok := vm.Pick(1)
	require.True(t, ok)
	assert.Equal(t, theirTeam, pv.TeamID, "the committed pick must survive")
	assert.False(t, pv.Pending)
	assert.False(t, vm.TeamDrafted(ourTeam))
	assert.True(t, vm.TeamDrafted(theirTeam))
}

func TestStatusChangedUpdatesPointerAndDeadline(t *testing.T) {
	vm := NewViewModel(uuid.New(), &fakeSubmitter{})
	deadline := time.Now().Add(90 * time.Second)

	vm.ApplyStatusChanged(events.DraftStatusChangedPayload{
		Status:            string(models.DraftStatusInProgress),
		CurrentPickNumber: 5,
		TimerExpiresAt:    &deadline,
	})

	assert.Equal(t, models.DraftStatusInProgress, vm.Status())
	assert.Equal(t, 5, vm.CurrentPick())
	assert.InDelta(t, 90, vm.Remaining().Seconds(), 1)
}

func TestRemainingCountsDownAndClamps(t *testing.T) {
	clock := clockwork.NewFakeClock()
	vm := newViewModel(uuid.New(), &fakeSubmitter{}, clock)

	deadline := clock.Now().Add(60 * time.Second)
	vm.SetDeadline(&deadline)

	assert.Equal(t, 60*time.Second, vm.Remaining())

	clock.Advance(45 * time.Second)
	assert.Equal(t, 15*time.Second, vm.Remaining())

	clock.Advance(30 * time.Second)
	assert.Equal(t, time.Duration(0), vm.Remaining(), "expired timers never go negative")

	vm.SetDeadline(nil)
	assert.Equal(t, time.Duration(0), vm.Remaining())
}
