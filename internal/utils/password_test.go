package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("community-hall", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "community-hall", hash)

	assert.True(t, VerifyPassword(hash, "community-hall"))
	assert.False(t, VerifyPassword(hash, "Community-Hall"))
	assert.False(t, VerifyPassword("not-a-bcrypt-hash", "community-hall"))
}

func TestHashPasswordClampsCost(t *testing.T) {
	// Costs outside bcrypt's range fall back to the default instead of
	// erroring, so a misconfigured BCRYPT_COST never blocks signups.
	for _, cost := range []int{-1, 0, 99} {
		hash, err := HashPassword("pw", cost)
		require.NoError(t, err, "cost %d", cost)
		assert.True(t, VerifyPassword(hash, "pw"))
	}
}
