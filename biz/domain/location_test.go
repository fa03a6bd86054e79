package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallbackCityIsDeterministic(t *testing.T) {
	a := FallbackCity("user-42")
	b := FallbackCity("user-42")

	require.NotNil(t, a)
	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)
}

func TestFallbackCityComesFromTheFixedList(t *testing.T) {
	// "polygenelubricants" hashes to exactly MinInt32, where int32 negation
	// wraps back to a negative value.
	keys := []string{"", "x", "user-1", "aVeryLongUserIdentifierThatOverflowsInt32Hashing", "polygenelubricants"}
	for _, key := range keys {
		loc := FallbackCity(key)
		require.NotNil(t, loc, key)
		assert.Contains(t, fallbackCities, *loc, key)
		assert.GreaterOrEqual(t, simpleHash(key), 0, key)
	}
}

func TestFallbackCitySpreadsUsers(t *testing.T) {
	seen := map[string]bool{}
	for _, key := range []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8"} {
		seen[FallbackCity(key).City] = true
	}
	assert.Greater(t, len(seen), 1)
}
