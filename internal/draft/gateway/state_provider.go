package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftpool/draftroom/internal/draft/order"
	"github.com/draftpool/draftroom/internal/models"
)

// DraftReader loads the draft record.
type DraftReader interface {
	GetDraft(ctx context.Context, id uuid.UUID) (*models.Draft, error)
}

// PickReader loads committed picks in pick order.
type PickReader interface {
	PicksByDraft(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
}

// RosterReader loads league members in draft position order.
type RosterReader interface {
	Roster(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error)
}

const recentPicksShown = 10

// DraftStateProvider assembles the reconnect snapshot for a draft
// room from the underlying stores.
type DraftStateProvider struct {
	drafts DraftReader
	picks  PickReader
	roster RosterReader
}

func NewDraftStateProvider(drafts DraftReader, picks PickReader, roster RosterReader) *DraftStateProvider {
	return &DraftStateProvider{
		drafts: drafts,
		picks:  picks,
		roster: roster,
	}
}

// GetDraftState builds the full room snapshot: draft status, the
// member currently on the clock with their deadline, and the most
// recent committed picks.
func (p *DraftStateProvider) GetDraftState(ctx context.Context, draftID uuid.UUID) (*DraftStateResponse, error) {
	draft, err := p.drafts.GetDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}

	members, err := p.roster.Roster(ctx, draft.LeagueID)
	if err != nil {
		return nil, fmt.Errorf("get roster: %w", err)
	}

	picks, err := p.picks.PicksByDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("get picks: %w", err)
	}

	response := &DraftStateResponse{
		DraftID:        draftID.String(),
		LeagueID:       draft.LeagueID.String(),
		Status:         string(draft.Status),
		TotalPicks:     order.TotalPicks(len(members), draft.Settings.Rounds),
		CompletedPicks: len(picks),
		TotalMembers:   len(members),
		TotalRounds:    draft.Settings.Rounds,
		RecentPicks:    recentPicks(picks),
	}

	if draft.Status == models.DraftStatusInProgress {
		response.CurrentPick = currentPickInfo(draft, members)
	}

	return response, nil
}

func currentPickInfo(draft *models.Draft, members []models.LeagueMember) *CurrentPickInfo {
	slot := order.Slot(draft.CurrentPickNumber, len(members))
	info := &CurrentPickInfo{
		PickNumber:     draft.CurrentPickNumber,
		Round:          slot.Round,
		PickInRound:    slot.PickInRound,
		TimePerPickSec: draft.Settings.TimePerPickSec,
	}
	for _, m := range members {
		if m.DraftPosition == slot.DraftPosition {
			info.MemberID = m.ID.String()
			info.TeamName = m.TeamName
			break
		}
	}
	if draft.TimerExpiresAt != nil {
		deadline := *draft.TimerExpiresAt
		info.TimerExpiresAt = &deadline
	}
	return info
}

func recentPicks(picks []models.DraftPick) []RecentPickInfo {
	start := 0
	if len(picks) > recentPicksShown {
		start = len(picks) - recentPicksShown
	}
	out := make([]RecentPickInfo, 0, len(picks)-start)
	for _, pk := range picks[start:] {
		out = append(out, RecentPickInfo{
			PickID:     pk.ID.String(),
			MemberID:   pk.LeagueMemberID.String(),
			TeamID:     pk.TeamID.String(),
			PickNumber: pk.PickNumber,
			Round:      pk.Round,
			IsAutoPick: pk.IsAutoPick,
			MadeAt:     pk.CreatedAt,
		})
	}
	return out
}

// timeRemaining computes the countdown the handler attaches to an
// in-progress snapshot.
func timeRemaining(deadline *time.Time, now time.Time) *int {
	if deadline == nil {
		return nil
	}
	remaining := int(deadline.Sub(now).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
