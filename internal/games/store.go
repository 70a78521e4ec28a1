package games

import (
	"context"

	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/internal/state"
)

// Store is the unit-of-work surface the game engine mutates. WithinTx runs
// fn against a transaction-scoped store: everything fn touches commits
// together or not at all, and games fetched with GetGameForUpdate are locked
// against concurrent mutation for the duration.
type Store interface {
	WithinTx(ctx context.Context, fn func(s Store) error) error

	// GetGame and GetSettings return (nil, nil) for unknown ids.
	GetGame(ctx context.Context, id uint64) (*models.Game, error)
	GetGameForUpdate(ctx context.Context, id uint64) (*models.Game, error)
	SaveGame(ctx context.Context, g *models.Game) error
	GetSettings(ctx context.Context, id uint64) (*models.GameSettings, error)
	SaveSettings(ctx context.Context, gs *models.GameSettings) error

	NextGameID(ctx context.Context) (uint64, error)

	StateGet(ctx context.Context, key state.Key) (value string, ok bool, err error)
	StateSet(ctx context.Context, key state.Key, value string) error

	// Transfer moves escrow between accounts, all-or-nothing.
	Transfer(ctx context.Context, from, to string, amount int64) error

	AppendEvent(ctx context.Context, ev *models.GameEvent) error
}
