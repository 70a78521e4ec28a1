package events

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	player := uuid.New()

	ev, err := New(7, TopicPlayerLeftPending, &player, PlayerLeftPending{
		GameID:           7,
		Player:           player,
		StakeRefunded:    500,
		RemainingPlayers: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(7), ev.GameID)
	assert.Equal(t, TopicPlayerLeftPending, ev.Topic)
	require.NotNil(t, ev.Actor)
	assert.Equal(t, player, *ev.Actor)

	var got PlayerLeftPending
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	assert.Equal(t, int64(500), got.StakeRefunded)
	assert.Equal(t, 2, got.RemainingPlayers)
}

func TestNewNilActor(t *testing.T) {
	ev, err := New(3, TopicPendingGameEnded, nil, PendingGameEnded{GameID: 3})
	require.NoError(t, err)
	assert.Nil(t, ev.Actor)
	assert.JSONEq(t, `{"game_id":3}`, string(ev.Payload))
}
