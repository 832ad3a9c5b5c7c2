// Package client holds the room view model a draft client renders
// from. Submissions apply optimistically and reconcile against the
// event stream; the server remains authoritative for every pick.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/draftpool/draftroom/internal/draft/events"
	"github.com/draftpool/draftroom/internal/models"
)

// Submitter sends a pick to the server. Implemented by the HTTP API
// client.
type Submitter interface {
	SubmitPick(ctx context.Context, draftID, memberID, teamID uuid.UUID) (*models.DraftPick, error)
}

// PickView is one slot in the rendered board.
type PickView struct {
	PickNumber int
	Round      int
	MemberID   uuid.UUID
	TeamID     uuid.UUID
	IsAutoPick bool
	Pending    bool
}

// ViewModel mirrors one draft room. All methods are safe for
// concurrent use; the websocket reader and the UI thread share it.
type ViewModel struct {
	mu sync.Mutex

	draftID     uuid.UUID
	status      models.DraftStatus
	currentPick int
	deadline    *time.Time

	picks        map[int]PickView
	draftedTeams map[uuid.UUID]int // team id -> pick number

	submitter Submitter
	clock     clockwork.Clock
}

func NewViewModel(draftID uuid.UUID, submitter Submitter) *ViewModel {
	return newViewModel(draftID, submitter, clockwork.NewRealClock())
}

func newViewModel(draftID uuid.UUID, submitter Submitter, clock clockwork.Clock) *ViewModel {
	return &ViewModel{
		draftID:      draftID,
		status:       models.DraftStatusPreDraft,
		currentPick:  1,
		picks:        make(map[int]PickView),
		draftedTeams: make(map[uuid.UUID]int),
		submitter:    submitter,
		clock:        clock,
	}
}

// snapshot captures the mutable state a failed submission must
// restore.
type snapshot struct {
	status      models.DraftStatus
	currentPick int
	deadline    *time.Time
	pick        *PickView
}

// SubmitPick applies the pick locally, then sends it. If the server
// rejects it the local board rolls back to what it showed before the
// call.
func (vm *ViewModel) SubmitPick(ctx context.Context, memberID, teamID uuid.UUID) error {
	vm.mu.Lock()
	saved := snapshot{
		status:      vm.status,
		currentPick: vm.currentPick,
		deadline:    vm.deadline,
	}
	if existing, ok := vm.picks[vm.currentPick]; ok {
		cp := existing
		saved.pick = &cp
	}
	pickNumber := vm.currentPick

	vm.picks[pickNumber] = PickView{
		PickNumber: pickNumber,
		MemberID:   memberID,
		TeamID:     teamID,
		Pending:    true,
	}
	vm.draftedTeams[teamID] = pickNumber
	vm.currentPick = pickNumber + 1
	vm.deadline = nil
	vm.mu.Unlock()

	_, err := vm.submitter.SubmitPick(ctx, vm.draftID, memberID, teamID)
	if err != nil {
		vm.rollback(pickNumber, teamID, saved)
		return err
	}
	return nil
}

// rollback restores the pre-submission state unless an authoritative
// event already overwrote the slot.
func (vm *ViewModel) rollback(pickNumber int, teamID uuid.UUID, saved snapshot) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	current, ok := vm.picks[pickNumber]
	if ok && !current.Pending {
		// The event stream settled this slot while the request was in
		// flight. Its word stands.
		return
	}
	if saved.pick != nil {
		vm.picks[pickNumber] = *saved.pick
	} else {
		delete(vm.picks, pickNumber)
	}
	if vm.draftedTeams[teamID] == pickNumber {
		delete(vm.draftedTeams, teamID)
	}
	vm.status = saved.status
	vm.currentPick = saved.currentPick
	vm.deadline = saved.deadline
}

// ApplyPickCommitted folds a PickCommitted event into the board.
// Events may arrive more than once or race a local optimistic pick;
// the slot always ends up holding the server's version.
func (vm *ViewModel) ApplyPickCommitted(payload events.PickCommittedPayload) error {
	memberID, err := uuid.Parse(payload.LeagueMemberID)
	if err != nil {
		return err
	}
	teamID, err := uuid.Parse(payload.TeamID)
	if err != nil {
		return err
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	if existing, ok := vm.picks[payload.PickNumber]; ok && !existing.Pending &&
		existing.TeamID == teamID && existing.MemberID == memberID {
		// Duplicate delivery.
		return nil
	}

	// If a different optimistic team occupied the slot, unwind it
	// before the authoritative pick lands.
	if existing, ok := vm.picks[payload.PickNumber]; ok && existing.TeamID != teamID {
		if vm.draftedTeams[existing.TeamID] == payload.PickNumber {
			delete(vm.draftedTeams, existing.TeamID)
		}
	}

	vm.picks[payload.PickNumber] = PickView{
		PickNumber: payload.PickNumber,
		Round:      payload.Round,
		MemberID:   memberID,
		TeamID:     teamID,
		IsAutoPick: payload.IsAutoPick,
		Pending:    false,
	}
	vm.draftedTeams[teamID] = payload.PickNumber

	if payload.PickNumber >= vm.currentPick {
		vm.currentPick = payload.PickNumber + 1
	}
	return nil
}

// ApplyStatusChanged folds a DraftStatusChanged event into the view.
// The event carries the server's pick pointer and deadline, so it
// also corrects any drift the optimistic path introduced.
func (vm *ViewModel) ApplyStatusChanged(payload events.DraftStatusChangedPayload) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	vm.status = models.DraftStatus(payload.Status)
	if payload.CurrentPickNumber > 0 {
		vm.currentPick = payload.CurrentPickNumber
	}
	vm.deadline = payload.TimerExpiresAt
}

// SetDeadline installs an authoritative deadline, typically from the
// reconnect snapshot.
func (vm *ViewModel) SetDeadline(deadline *time.Time) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.deadline = deadline
}

// Remaining reports the countdown for the pick on the clock. Zero
// when expired or when no deadline is armed.
func (vm *ViewModel) Remaining() time.Duration {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.deadline == nil {
		return 0
	}
	remaining := vm.deadline.Sub(vm.clock.Now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Status returns the view's draft status.
func (vm *ViewModel) Status() models.DraftStatus {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.status
}

// CurrentPick returns the pick number the view believes is on the
// clock.
func (vm *ViewModel) CurrentPick() int {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.currentPick
}

// Pick returns the view of one slot.
func (vm *ViewModel) Pick(pickNumber int) (PickView, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	pv, ok := vm.picks[pickNumber]
	return pv, ok
}

// TeamDrafted reports whether the board shows the team as taken.
func (vm *ViewModel) TeamDrafted(teamID uuid.UUID) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	_, ok := vm.draftedTeams[teamID]
	return ok
}
