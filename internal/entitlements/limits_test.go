package entitlements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimits(t *testing.T) {
	limits, dropped, err := ParseLimits([]byte(`{"max_users": 10, "storage_mb": 5000.0, "tier": "gold", "ratio": 2.5, "flag": true}`))
	require.NoError(t, err)

	assert.Equal(t, Limits{"max_users": 10, "storage_mb": 5000}, limits)
	assert.Equal(t, []string{"flag", "ratio", "tier"}, dropped)
}

func TestParseLimits_Empty(t *testing.T) {
	for _, raw := range []string{"", "null", "  "} {
		limits, dropped, err := ParseLimits([]byte(raw))
		require.NoError(t, err)
		assert.Empty(t, limits)
		assert.Empty(t, dropped)
	}
}

func TestParseLimits_Malformed(t *testing.T) {
	_, _, err := ParseLimits([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestLimits_AbsentKeyIsUnlimited(t *testing.T) {
	limits := Limits{"max_users": 3}

	assert.True(t, limits.Allows("max_users", 2))
	assert.False(t, limits.Allows("max_users", 3))
	assert.True(t, limits.Allows("api_calls", 1_000_000))
}
