package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedDesire_ExplicitDesireWins(t *testing.T) {
	desire := DesireReserve
	slot := &MatchSlot{Status: StatusGoing, Desire: &desire}

	assert.Equal(t, DesireReserve, slot.NormalizedDesire())
}

func TestNormalizedDesire_InferredFromLegacyStatus(t *testing.T) {
	cases := []struct {
		status SlotStatus
		want   SlotDesire
	}{
		{StatusGoing, DesireGoing},
		{StatusReserve, DesireReserve},
		{StatusNotGoing, DesireNotGoing},
		{SlotStatus("unknown"), DesireNotGoing},
	}

	for _, tc := range cases {
		slot := &MatchSlot{Status: tc.status}
		assert.Equal(t, tc.want, slot.NormalizedDesire(), "status %q", tc.status)
	}
}

func TestGoingLimit_Defaults(t *testing.T) {
	assert.Equal(t, 8, (&Match{MaxPlayers: 8}).GoingLimit())
	assert.Equal(t, DefaultGoingLimit, (&Match{}).GoingLimit())
	assert.Equal(t, DefaultGoingLimit, (&Match{MaxPlayers: -3}).GoingLimit())
}

func TestIsSlotDesire(t *testing.T) {
	assert.True(t, IsSlotDesire("going"))
	assert.True(t, IsSlotDesire("reserve"))
	assert.True(t, IsSlotDesire("not_going"))
	assert.False(t, IsSlotDesire("go"))
	assert.False(t, IsSlotDesire(""))
}
