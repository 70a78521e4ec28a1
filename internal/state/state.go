// Package state stores contract-level scalar slots (owner, reward system,
// escrow token, initialized flag) and allocates monotonic game ids.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Key identifies a contract state slot. Keys are a closed set so every
// storage slot is known at compile time.
type Key string

const (
	// KeyOwner is the administrative owner's player id.
	KeyOwner Key = "owner"
	// KeyRewardSystem is the reward subsystem's address.
	KeyRewardSystem Key = "reward_system"
	// KeyEscrowToken is the stake token's address.
	KeyEscrowToken Key = "escrow_token"
	// KeyInitialized marks the one-time initialization as done.
	KeyInitialized Key = "initialized"
)

// GameIDCounter names the counter row backing game id allocation.
const GameIDCounter = "game_id"

// Querier is the subset of pgx supported by both pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads and writes contract state slots and counters.
type Repository struct {
	db Querier
}

// NewRepository creates a state repository over a pool or transaction.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Get returns the value for key, reporting absence via ok=false.
func (r *Repository) Get(ctx context.Context, key Key) (value string, ok bool, err error) {
	const q = `SELECT value FROM contract_state WHERE key = $1`
	err = r.db.QueryRow(ctx, q, string(key)).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes the value for key, overwriting any previous value.
func (r *Repository) Set(ctx context.Context, key Key, value string) error {
	const q = `INSERT INTO contract_state (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.db.Exec(ctx, q, string(key), value); err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// Exists reports whether key has a stored value.
func (r *Repository) Exists(ctx context.Context, key Key) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM contract_state WHERE key = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, string(key)).Scan(&exists); err != nil {
		return false, fmt.Errorf("state exists %s: %w", key, err)
	}
	return exists, nil
}

// NextGameID allocates the next game id. The first allocation returns 1 and
// the sequence is strictly increasing; the single upsert-and-return statement
// makes allocation atomic, so concurrent callers never receive the same id.
func (r *Repository) NextGameID(ctx context.Context) (uint64, error) {
	const q = `INSERT INTO counters (name, value) VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`
	var id int64
	if err := r.db.QueryRow(ctx, q, GameIDCounter).Scan(&id); err != nil {
		return 0, fmt.Errorf("next game id: %w", err)
	}
	return uint64(id), nil
}
