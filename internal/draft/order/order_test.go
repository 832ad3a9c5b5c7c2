package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlotSnakeSequence(t *testing.T) {
	// N=4: rounds alternate 1,2,3,4 / 4,3,2,1 / 1,2,3,4.
	want := []int{1, 2, 3, 4, 4, 3, 2, 1, 1, 2, 3, 4}
	for i, exp := range want {
		got := Slot(i+1, 4)
		assert.Equal(t, exp, got.DraftPosition, "pick %d", i+1)
	}
}

func TestSlotRoundAndPickInRound(t *testing.T) {
	testCases := []struct {
		name         string
		pick         int
		members      int
		wantRound    int
		wantInRound  int
		wantPosition int
	}{
		{"first pick", 1, 6, 1, 1, 1},
		{"end of round one", 6, 6, 1, 6, 6},
		{"snake turn-around", 7, 6, 2, 1, 6},
		{"end of round two", 12, 6, 2, 6, 1},
		{"round three resumes forward", 13, 6, 3, 1, 1},
		{"two-member league", 4, 2, 2, 2, 1},
		{"single member", 3, 1, 3, 1, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Slot(tc.pick, tc.members)
			assert.Equal(t, tc.wantRound, got.Round)
			assert.Equal(t, tc.wantInRound, got.PickInRound)
			assert.Equal(t, tc.wantPosition, got.DraftPosition)
		})
	}
}

func TestSlotEveryMemberPicksOncePerRound(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8, 12} {
		rounds := 4
		for r := 0; r < rounds; r++ {
			seen := make(map[int]bool, n)
			for i := 1; i <= n; i++ {
				pos := Slot(r*n+i, n)
				assert.False(t, seen[pos.DraftPosition], "N=%d round %d duplicate position %d", n, r+1, pos.DraftPosition)
				seen[pos.DraftPosition] = true
			}
			assert.Len(t, seen, n)
		}
	}
}

func TestTotalPicks(t *testing.T) {
	assert.Equal(t, 24, TotalPicks(6, 4))
	assert.Equal(t, 1, TotalPicks(1, 1))
	assert.Equal(t, 0, TotalPicks(0, 10))
}
