package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tycoon-games/backend/internal/models"
)

// ErrPlayerNotFound means no player row matched the lookup.
var ErrPlayerNotFound = errors.New("player not found")

// Repository persists player accounts.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new player and fills in the generated id and timestamps.
func (r *Repository) Create(ctx context.Context, p *models.Player) error {
	const q = `INSERT INTO players (username, password, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, q, p.Username, p.Password, string(p.Role)).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create player: %w", err)
	}
	return nil
}

// GetByUsername returns the player with the given username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.Player, error) {
	const q = `SELECT id, username, password, role, created_at, updated_at
		FROM players WHERE username = $1`
	var p models.Player
	err := r.db.QueryRow(ctx, q, username).Scan(
		&p.ID, &p.Username, &p.Password, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player by username: %w", err)
	}
	return &p, nil
}

// GetByID returns the player with the given id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	const q = `SELECT id, username, password, role, created_at, updated_at
		FROM players WHERE id = $1`
	var p models.Player
	err := r.db.QueryRow(ctx, q, id).Scan(
		&p.ID, &p.Username, &p.Password, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player by id: %w", err)
	}
	return &p, nil
}

// ExistsByID reports whether a player account exists.
func (r *Repository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`
	var exists bool
	if err := r.db.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check player exists: %w", err)
	}
	return exists, nil
}
