// Package order computes snake-draft turn order. It is pure arithmetic
// and the single source of truth for "whose turn is it"; every other
// component derives the current drafter from Slot.
package order

// Position locates an overall pick number within the snake order.
type Position struct {
	Round         int // 1-based round
	PickInRound   int // 1-based pick within the round
	DraftPosition int // draft_position of the member on the clock
}

// Slot maps an overall pick number to its snake-order position for a
// league of totalMembers. Odd rounds run 1..N, even rounds N..1.
func Slot(pickNumber, totalMembers int) Position {
	round := (pickNumber-1)/totalMembers + 1
	inRound := (pickNumber-1)%totalMembers + 1

	pos := inRound
	if round%2 == 0 {
		pos = totalMembers - inRound + 1
	}

	return Position{
		Round:         round,
		PickInRound:   inRound,
		DraftPosition: pos,
	}
}

// TotalPicks returns the number of picks a full draft commits.
func TotalPicks(totalMembers, rounds int) int {
	return totalMembers * rounds
}
