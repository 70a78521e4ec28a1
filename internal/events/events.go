// Package events records and serves the append-only game audit log.
// Each event carries a topic plus the game id and (where relevant) the
// acting player as indexable keys, so external observers can query the
// trail by game or by player.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/tycoon-games/backend/internal/models"
)

// Event topics.
const (
	// TopicGameCreated is emitted when a lobby is opened.
	TopicGameCreated = "GameCreated"
	// TopicPlayerJoinedPending is emitted when a player joins a pending game.
	TopicPlayerJoinedPending = "PlayerJoinedPending"
	// TopicPlayerLeftPending is emitted when a player leaves a pending game.
	TopicPlayerLeftPending = "PlayerLeftPending"
	// TopicPendingGameEnded is emitted when the last player leaves and the
	// lobby is automatically closed.
	TopicPendingGameEnded = "PendingGameEnded"
	// TopicGameStarted is emitted on the pending -> ongoing transition.
	TopicGameStarted = "GameStarted"
	// TopicGameEnded is emitted on the ongoing -> ended transition.
	TopicGameEnded = "GameEnded"
)

// GameCreated is the payload for TopicGameCreated.
type GameCreated struct {
	GameID         uint64          `json:"game_id"`
	Creator        uuid.UUID       `json:"creator"`
	Mode           models.GameMode `json:"mode"`
	StakePerPlayer int64           `json:"stake_per_player"`
}

// PlayerJoinedPending is the payload for TopicPlayerJoinedPending.
type PlayerJoinedPending struct {
	GameID         uint64    `json:"game_id"`
	Player         uuid.UUID `json:"player"`
	StakeDeposited int64     `json:"stake_deposited"`
	PlayerCount    int       `json:"player_count"`
}

// PlayerLeftPending is the payload for TopicPlayerLeftPending.
type PlayerLeftPending struct {
	GameID           uint64    `json:"game_id"`
	Player           uuid.UUID `json:"player"`
	StakeRefunded    int64     `json:"stake_refunded"`
	RemainingPlayers int       `json:"remaining_players"`
}

// PendingGameEnded is the payload for TopicPendingGameEnded.
type PendingGameEnded struct {
	GameID uint64 `json:"game_id"`
}

// GameStarted is the payload for TopicGameStarted.
type GameStarted struct {
	GameID      uint64 `json:"game_id"`
	PlayerCount int    `json:"player_count"`
}

// GameEnded is the payload for TopicGameEnded.
type GameEnded struct {
	GameID  uint64    `json:"game_id"`
	Winner  uuid.UUID `json:"winner"`
	PotPaid int64     `json:"pot_paid"`
}

// New builds an unsaved GameEvent with the payload marshaled to JSON.
func New(gameID uint64, topic string, actor *uuid.UUID, payload any) (*models.GameEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return &models.GameEvent{
		GameID:  gameID,
		Topic:   topic,
		Actor:   actor,
		Payload: body,
	}, nil
}
