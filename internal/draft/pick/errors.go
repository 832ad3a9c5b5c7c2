package pick

import "errors"

// Commit failure modes. All four are recoverable and user-visible;
// callers pick the remedy (refresh the board, wait for their turn).
var (
	// ErrDraftNotActive: pick attempted while the draft is missing or
	// not in progress. No state change.
	ErrDraftNotActive = errors.New("draft is not active")

	// ErrNotYourTurn: acting member does not hold the computed slot.
	ErrNotYourTurn = errors.New("not your turn to pick")

	// ErrTeamAlreadyDrafted: race lost against another commit for the
	// same team. Client should refresh the available list.
	ErrTeamAlreadyDrafted = errors.New("team already drafted")

	// ErrPickAlreadyMade: race lost at the pick-number level, including
	// a manual pick colliding with auto-pick. The losing caller no-ops.
	ErrPickAlreadyMade = errors.New("pick already made for this slot")

	// ErrNoTeamsAvailable: the draftable supply ran out before
	// totalPicks. League setup defect; drafting halts rather than skips.
	ErrNoTeamsAvailable = errors.New("no draftable teams available")

	// ErrDraftNotFound is returned by stores when the draft row does
	// not exist; the committer surfaces it to callers as
	// ErrDraftNotActive.
	ErrDraftNotFound = errors.New("draft not found")
)
