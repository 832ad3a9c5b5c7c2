// Package autopick selects a fallback team for a member whose pick
// window expired. Selection is deterministic and the commit goes
// through the same validator path as a manual pick, so racing a late
// manual submission is safe.
package autopick

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/draft/order"
	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
)

// Reader is the read-side view the engine selects from.
type Reader interface {
	GetDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
	Roster(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error)
	AvailableTeams(ctx context.Context, draftID uuid.UUID) ([]models.LeagueTeam, error)
}

// Committer commits the selected pick. Implemented by pick.Committer.
type Committer interface {
	CommitPick(ctx context.Context, draftID, actingMemberID, teamID uuid.UUID, isAutoPick bool) (*models.DraftPick, error)
}

// Engine picks the best-ranked available team for the member on the
// clock.
type Engine struct {
	reader    Reader
	committer Committer
}

func NewEngine(reader Reader, committer Committer) *Engine {
	return &Engine{
		reader:    reader,
		committer: committer,
	}
}

// AutoPick resolves the current drafter, selects the lowest-rank
// available team (ties broken by team id) and commits it with
// is_auto_pick set. Losing the commit race surfaces the committer's
// error (typically ErrPickAlreadyMade) and changes nothing.
func (e *Engine) AutoPick(ctx context.Context, draftID uuid.UUID) (*models.DraftPick, error) {
	draft, err := e.reader.GetDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if draft.Status != models.DraftStatusInProgress {
		return nil, pick.ErrDraftNotActive
	}

	members, err := e.reader.Roster(ctx, draft.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	slot := order.Slot(draft.CurrentPickNumber, len(members))
	var onClock *models.LeagueMember
	for i := range members {
		if members[i].DraftPosition == slot.DraftPosition {
			onClock = &members[i]
			break
		}
	}
	if onClock == nil {
		return nil, fmt.Errorf("no member at draft position %d", slot.DraftPosition)
	}

	teams, err := e.reader.AvailableTeams(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("load available teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, pick.ErrNoTeamsAvailable
	}
	choice := bestRanked(teams)

	log.Info().
		Str("draft_id", draftID.String()).
		Str("member_id", onClock.ID.String()).
		Str("team_id", choice.ID.String()).
		Int("rank", choice.Rank).
		Int("pick_number", draft.CurrentPickNumber).
		Msg("auto-pick selected team")

	return e.committer.CommitPick(ctx, draftID, onClock.ID, choice.ID, true)
}

// bestRanked does not trust input ordering: lowest rank wins, ties go
// to the smaller team id, so repeated expirations for the same pick
// always select the same team.
func bestRanked(teams []models.LeagueTeam) models.LeagueTeam {
	best := teams[0]
	for _, t := range teams[1:] {
		if t.Rank < best.Rank || (t.Rank == best.Rank && bytes.Compare(t.ID[:], best.ID[:]) < 0) {
			best = t
		}
	}
	return best
}
