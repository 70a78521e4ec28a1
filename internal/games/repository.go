package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tycoon-games/backend/internal/escrow"
	"github.com/tycoon-games/backend/internal/events"
	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/internal/state"
)

// Querier is the subset of pgx supported by both pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the Postgres-backed Store. A pool-scoped repository opens a
// real transaction in WithinTx; the transaction-scoped view it hands to fn
// shares one pgx.Tx across game records, settings, contract state, the
// escrow ledger, and the event log.
type Repository struct {
	pool   *pgxpool.Pool // nil for transaction-scoped views
	db     Querier
	state  *state.Repository
	ledger *escrow.Ledger
	events *events.Repository
}

// NewRepository creates a game repository over a connection pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	r := &Repository{pool: pool}
	r.bind(pool)
	return r
}

func (r *Repository) bind(db Querier) {
	r.db = db
	r.state = state.NewRepository(db)
	r.ledger = escrow.NewLedger(db)
	r.events = events.NewRepository(db)
}

// WithinTx runs fn inside a database transaction.
func (r *Repository) WithinTx(ctx context.Context, fn func(s Store) error) error {
	if r.pool == nil {
		// Already transaction-scoped; nested units of work share the tx.
		return fn(r)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	scoped := &Repository{}
	scoped.bind(tx)
	if err := fn(scoped); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const gameColumns = `id, code, creator, status, winner, number_of_players, joined_players,
	mode, ai, stake_per_player, total_staked, created_at, ended_at`

func (r *Repository) getGame(ctx context.Context, id uint64, forUpdate bool) (*models.Game, error) {
	q := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}

	var (
		g       models.Game
		gid     int64
		players []byte
	)
	err := r.db.QueryRow(ctx, q, int64(id)).Scan(
		&gid, &g.Code, &g.Creator, &g.Status, &g.Winner, &g.NumberOfPlayers, &players,
		&g.Mode, &g.AI, &g.StakePerPlayer, &g.TotalStaked, &g.CreatedAt, &g.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game %d: %w", id, err)
	}
	g.ID = uint64(gid)
	if err := json.Unmarshal(players, &g.JoinedPlayers); err != nil {
		return nil, fmt.Errorf("decode joined players for game %d: %w", id, err)
	}
	if g.JoinedPlayers == nil {
		g.JoinedPlayers = []uuid.UUID{}
	}
	return &g, nil
}

// GetGame returns a game by id, or (nil, nil) when absent.
func (r *Repository) GetGame(ctx context.Context, id uint64) (*models.Game, error) {
	return r.getGame(ctx, id, false)
}

// GetGameForUpdate returns a game by id with a row lock held until the
// enclosing transaction finishes.
func (r *Repository) GetGameForUpdate(ctx context.Context, id uint64) (*models.Game, error) {
	return r.getGame(ctx, id, true)
}

// SaveGame upserts a game record.
func (r *Repository) SaveGame(ctx context.Context, g *models.Game) error {
	players, err := json.Marshal(g.JoinedPlayers)
	if err != nil {
		return fmt.Errorf("encode joined players: %w", err)
	}
	const q = `INSERT INTO games (` + gameColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			status = EXCLUDED.status,
			winner = EXCLUDED.winner,
			joined_players = EXCLUDED.joined_players,
			stake_per_player = EXCLUDED.stake_per_player,
			total_staked = EXCLUDED.total_staked,
			ended_at = EXCLUDED.ended_at`
	_, err = r.db.Exec(ctx, q,
		int64(g.ID), g.Code, g.Creator, string(g.Status), g.Winner, g.NumberOfPlayers, players,
		string(g.Mode), g.AI, g.StakePerPlayer, g.TotalStaked, g.CreatedAt, g.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("save game %d: %w", g.ID, err)
	}
	return nil
}

// GetSettings returns a game's settings record, or (nil, nil) when absent.
func (r *Repository) GetSettings(ctx context.Context, id uint64) (*models.GameSettings, error) {
	const q = `SELECT game_id, max_players, auction, starting_cash, private_room_code, created_at, updated_at
		FROM game_settings WHERE game_id = $1`
	var (
		gs  models.GameSettings
		gid int64
	)
	err := r.db.QueryRow(ctx, q, int64(id)).Scan(
		&gid, &gs.MaxPlayers, &gs.Auction, &gs.StartingCash, &gs.PrivateRoomCode, &gs.CreatedAt, &gs.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings %d: %w", id, err)
	}
	gs.GameID = uint64(gid)
	return &gs, nil
}

// SaveSettings upserts a game's settings record.
func (r *Repository) SaveSettings(ctx context.Context, gs *models.GameSettings) error {
	const q = `INSERT INTO game_settings (game_id, max_players, auction, starting_cash, private_room_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (game_id) DO UPDATE SET
			max_players = EXCLUDED.max_players,
			auction = EXCLUDED.auction,
			starting_cash = EXCLUDED.starting_cash,
			private_room_code = EXCLUDED.private_room_code,
			updated_at = NOW()
		RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, q,
		int64(gs.GameID), gs.MaxPlayers, gs.Auction, gs.StartingCash, gs.PrivateRoomCode,
	).Scan(&gs.CreatedAt, &gs.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save settings %d: %w", gs.GameID, err)
	}
	return nil
}

// NextGameID allocates the next game id.
func (r *Repository) NextGameID(ctx context.Context) (uint64, error) {
	return r.state.NextGameID(ctx)
}

// StateGet reads a contract state slot.
func (r *Repository) StateGet(ctx context.Context, key state.Key) (string, bool, error) {
	return r.state.Get(ctx, key)
}

// StateSet writes a contract state slot.
func (r *Repository) StateSet(ctx context.Context, key state.Key, value string) error {
	return r.state.Set(ctx, key, value)
}

// Transfer moves escrow between ledger accounts.
func (r *Repository) Transfer(ctx context.Context, from, to string, amount int64) error {
	return r.ledger.Transfer(ctx, from, to, amount)
}

// AppendEvent appends one row to the game event log.
func (r *Repository) AppendEvent(ctx context.Context, ev *models.GameEvent) error {
	return r.events.Append(ctx, ev)
}
