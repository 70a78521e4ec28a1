package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	// GameStatusPending means the game is created and accepting players.
	GameStatusPending GameStatus = "pending"
	// GameStatusOngoing means the game has started.
	GameStatusOngoing GameStatus = "ongoing"
	// GameStatusEnded means the game has concluded. Terminal.
	GameStatusEnded GameStatus = "ended"
)

// GameMode determines who can join a game.
type GameMode string

const (
	GameModePublic  GameMode = "public"
	GameModePrivate GameMode = "private"
)

// Game represents one game session, including membership and escrow accounting.
//
// JoinedPlayers preserves insertion order; entries are unique. While the game
// is pending, TotalStaked equals StakePerPlayer * len(JoinedPlayers).
type Game struct {
	ID              uint64      `json:"id"`
	Code            string      `json:"code"`
	Creator         uuid.UUID   `json:"creator"`
	Status          GameStatus  `json:"status"`
	Winner          *uuid.UUID  `json:"winner,omitempty"`
	NumberOfPlayers int         `json:"number_of_players"`
	JoinedPlayers   []uuid.UUID `json:"joined_players"`
	Mode            GameMode    `json:"mode"`
	AI              bool        `json:"ai"`
	StakePerPlayer  int64       `json:"stake_per_player"` // smallest currency unit (cents)
	TotalStaked     int64       `json:"total_staked"`
	CreatedAt       time.Time   `json:"created_at"`
	EndedAt         *time.Time  `json:"ended_at,omitempty"`
}

// HasPlayer reports whether id is in JoinedPlayers. Identity equality only.
func (g *Game) HasPlayer(id uuid.UUID) bool {
	for _, p := range g.JoinedPlayers {
		if p == id {
			return true
		}
	}
	return false
}

// GameSettings holds per-game configuration that does not affect escrow
// accounting. Stored independently of the Game record under the same id.
type GameSettings struct {
	GameID          uint64    `json:"game_id"`
	MaxPlayers      int       `json:"max_players"`
	Auction         bool      `json:"auction"`
	StartingCash    int64     `json:"starting_cash"`
	PrivateRoomCode string    `json:"private_room_code,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// GameEvent is one row of the append-only game audit log.
type GameEvent struct {
	ID        int64           `json:"id"`
	GameID    uint64          `json:"game_id"`
	Topic     string          `json:"topic"`
	Actor     *uuid.UUID      `json:"actor,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
