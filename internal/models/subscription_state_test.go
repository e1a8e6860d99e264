package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to SubscriptionStatus
		want     bool
	}{
		{SubscriptionStatusActive, SubscriptionStatusCancelled, true},
		{SubscriptionStatusActive, SubscriptionStatusSuspended, true},
		{SubscriptionStatusCancelled, SubscriptionStatusActive, true},
		{SubscriptionStatusExpired, SubscriptionStatusActive, true},
		{SubscriptionStatusSuspended, SubscriptionStatusActive, true},

		// только rollover
		{SubscriptionStatusTrial, SubscriptionStatusCancelled, false},
		{SubscriptionStatusTrial, SubscriptionStatusActive, false},
		{SubscriptionStatusTrial, SubscriptionStatusExpired, false},
		{SubscriptionStatusActive, SubscriptionStatusExpired, false},

		{SubscriptionStatusTrial, SubscriptionStatusSuspended, false},
		{SubscriptionStatusCancelled, SubscriptionStatusSuspended, false},
		{SubscriptionStatusExpired, SubscriptionStatusCancelled, false},
		{SubscriptionStatusActive, SubscriptionStatusTrial, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanTransitionOnRollover(t *testing.T) {
	assert.True(t, CanTransitionOnRollover(SubscriptionStatusTrial, SubscriptionStatusActive))
	assert.True(t, CanTransitionOnRollover(SubscriptionStatusTrial, SubscriptionStatusExpired))
	assert.True(t, CanTransitionOnRollover(SubscriptionStatusTrial, SubscriptionStatusCancelled))
	assert.True(t, CanTransitionOnRollover(SubscriptionStatusActive, SubscriptionStatusCancelled))
	assert.False(t, CanTransitionOnRollover(SubscriptionStatusCancelled, SubscriptionStatusExpired))
}

func TestSubscriptionStatus_IsLive(t *testing.T) {
	assert.True(t, SubscriptionStatusTrial.IsLive())
	assert.True(t, SubscriptionStatusActive.IsLive())
	assert.False(t, SubscriptionStatusSuspended.IsLive())
	assert.False(t, SubscriptionStatusCancelled.IsLive())
	assert.False(t, SubscriptionStatus("bogus").IsValid())
}
