package models

import (
	"time"

	"github.com/google/uuid"
)

// Role represents a player's role in the platform.
type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// Player represents a registered player.
type Player struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PlayerPublic is Player without sensitive fields for API responses.
type PlayerPublic struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToPublic converts Player to PlayerPublic.
func (p *Player) ToPublic() PlayerPublic {
	return PlayerPublic{
		ID:        p.ID,
		Username:  p.Username,
		Role:      p.Role,
		CreatedAt: p.CreatedAt,
	}
}
