package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	manager := NewJWTManager("test-secret", 1)
	playerID := uuid.New()

	token, err := manager.Generate(playerID, "alice", "player")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, playerID, claims.PlayerID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "player", claims.Role)
	assert.Equal(t, playerID.String(), claims.Subject)
}

func TestJWTValidateRejects(t *testing.T) {
	manager := NewJWTManager("test-secret", 1)

	t.Run("garbage token", func(t *testing.T) {
		_, err := manager.Validate("not-a-token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager("other-secret", 1)
		token, err := other.Generate(uuid.New(), "alice", "player")
		require.NoError(t, err)
		_, err = manager.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -1)
		token, err := expired.Generate(uuid.New(), "alice", "player")
		require.NoError(t, err)
		_, err = manager.Validate(token)
		assert.Error(t, err)
	})
}
