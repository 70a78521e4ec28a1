package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tycoon-games/backend/internal/models"
)

// Querier is the subset of pgx supported by both pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository appends to and reads from the game_events log.
type Repository struct {
	db Querier
}

// NewRepository creates an event repository over a pool or transaction.
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Append inserts one event row. There is no update or delete path.
func (r *Repository) Append(ctx context.Context, ev *models.GameEvent) error {
	const q = `INSERT INTO game_events (game_id, topic, actor, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, q, int64(ev.GameID), ev.Topic, ev.Actor, ev.Payload).
		Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.Topic, err)
	}
	return nil
}

// ListByGame returns the full trail for a game in append order.
func (r *Repository) ListByGame(ctx context.Context, gameID uint64) ([]models.GameEvent, error) {
	const q = `SELECT id, game_id, topic, actor, payload, created_at
		FROM game_events WHERE game_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, q, int64(gameID))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var list []models.GameEvent
	for rows.Next() {
		var ev models.GameEvent
		var gid int64
		if err := rows.Scan(&ev.ID, &gid, &ev.Topic, &ev.Actor, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		ev.GameID = uint64(gid)
		list = append(list, ev)
	}
	return list, rows.Err()
}
