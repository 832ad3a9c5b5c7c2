// Package pick validates and commits draft picks. Every pick, manual
// or auto, becomes final through Committer.CommitPick, which evaluates
// the full precondition chain and applies all effects in one
// transaction.
package pick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/draft/events"
	"github.com/draftpool/draftroom/internal/draft/order"
	"github.com/draftpool/draftroom/internal/models"
)

// DraftTx is the transactional view the committer works against. The
// pgx implementation locks the draft row; the checks and writes below
// therefore see a consistent snapshot.
type DraftTx interface {
	// DraftForUpdate loads and locks the draft, or ErrDraftNotFound.
	DraftForUpdate(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
	Members(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error)
	TeamDrafted(ctx context.Context, draftID, teamID uuid.UUID) (bool, error)
	PickExists(ctx context.Context, draftID uuid.UUID, pickNumber int) (bool, error)
	InsertPick(ctx context.Context, p models.DraftPick) error
	SaveDraft(ctx context.Context, d *models.Draft) error
	AppendOutbox(ctx context.Context, draftID uuid.UUID, eventType string, payload []byte) error
}

// Store runs a function inside a serializable transaction scoped to
// one draft.
type Store interface {
	InTx(ctx context.Context, fn func(tx DraftTx) error) error
}

// Committer enforces pick legality and advances the draft.
type Committer struct {
	store Store
	clock clockwork.Clock
}

func NewCommitter(store Store, clock clockwork.Clock) *Committer {
	return &Committer{
		store: store,
		clock: clock,
	}
}

// CommitPick checks the precondition chain in order and, on success,
// atomically inserts the pick, advances the turn pointer and either
// resets the pick deadline or completes the draft. Concurrent attempts
// for the same slot resolve to exactly one winner; the rest fail one of
// the preconditions.
func (c *Committer) CommitPick(ctx context.Context, draftID, actingMemberID, teamID uuid.UUID, isAutoPick bool) (*models.DraftPick, error) {
	var committed *models.DraftPick

	err := c.store.InTx(ctx, func(tx DraftTx) error {
		draft, err := tx.DraftForUpdate(ctx, draftID)
		if err != nil {
			if errors.Is(err, ErrDraftNotFound) {
				return ErrDraftNotActive
			}
			return fmt.Errorf("load draft: %w", err)
		}
		if draft.Status != models.DraftStatusInProgress {
			return ErrDraftNotActive
		}

		members, err := tx.Members(ctx, draft.LeagueID)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}
		slot := order.Slot(draft.CurrentPickNumber, len(members))
		onClock, ok := memberAtPosition(members, slot.DraftPosition)
		if !ok || onClock.ID != actingMemberID {
			return ErrNotYourTurn
		}

		drafted, err := tx.TeamDrafted(ctx, draftID, teamID)
		if err != nil {
			return fmt.Errorf("check team: %w", err)
		}
		if drafted {
			return ErrTeamAlreadyDrafted
		}

		exists, err := tx.PickExists(ctx, draftID, draft.CurrentPickNumber)
		if err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if exists {
			return ErrPickAlreadyMade
		}

		now := c.clock.Now()
		p := models.DraftPick{
			ID:             uuid.New(),
			DraftID:        draftID,
			LeagueMemberID: actingMemberID,
			TeamID:         teamID,
			PickNumber:     draft.CurrentPickNumber,
			Round:          slot.Round,
			IsAutoPick:     isAutoPick,
			CreatedAt:      now,
		}
		if err := tx.InsertPick(ctx, p); err != nil {
			return fmt.Errorf("insert pick: %w", err)
		}

		draft.CurrentPickNumber++
		if draft.CurrentPickNumber > order.TotalPicks(len(members), draft.Settings.Rounds) {
			draft.Status = models.DraftStatusCompleted
			draft.CompletedAt = &now
			draft.TimerExpiresAt = nil
		} else {
			deadline := now.Add(draft.PickTimer())
			draft.TimerExpiresAt = &deadline
		}
		draft.UpdatedAt = now
		if err := tx.SaveDraft(ctx, draft); err != nil {
			return fmt.Errorf("advance draft: %w", err)
		}

		if err := c.appendPickEvents(ctx, tx, draft, p); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}

		committed = &p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("draft_id", draftID.String()).
		Str("team_id", teamID.String()).
		Int("pick_number", committed.PickNumber).
		Bool("auto", isAutoPick).
		Msg("pick committed")

	return committed, nil
}

// appendPickEvents records the PickCommitted event, plus the terminal
// DraftStatusChanged when this was the final pick, in the same
// transaction as the pick itself.
func (c *Committer) appendPickEvents(ctx context.Context, tx DraftTx, draft *models.Draft, p models.DraftPick) error {
	pickPayload, err := json.Marshal(events.PickCommittedPayload{
		PickID:         p.ID.String(),
		DraftID:        p.DraftID.String(),
		LeagueMemberID: p.LeagueMemberID.String(),
		TeamID:         p.TeamID.String(),
		PickNumber:     p.PickNumber,
		Round:          p.Round,
		IsAutoPick:     p.IsAutoPick,
		MadeAt:         p.CreatedAt,
	})
	if err != nil {
		return err
	}
	if err := tx.AppendOutbox(ctx, draft.ID, events.TypePickCommitted, pickPayload); err != nil {
		return err
	}

	if draft.Status != models.DraftStatusCompleted {
		return nil
	}
	statusPayload, err := json.Marshal(events.DraftStatusChangedPayload{
		DraftID:           draft.ID.String(),
		Status:            string(draft.Status),
		CurrentPickNumber: draft.CurrentPickNumber,
		ChangedAt:         p.CreatedAt,
	})
	if err != nil {
		return err
	}
	return tx.AppendOutbox(ctx, draft.ID, events.TypeDraftStatusChanged, statusPayload)
}

func memberAtPosition(members []models.LeagueMember, position int) (models.LeagueMember, bool) {
	for _, m := range members {
		if m.DraftPosition == position {
			return m, true
		}
	}
	return models.LeagueMember{}, false
}
