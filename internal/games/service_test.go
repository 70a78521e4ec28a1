package games

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tycoon-games/backend/internal/escrow"
	"github.com/tycoon-games/backend/internal/events"
	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/internal/state"
)

// fakeStore is an in-memory Store. WithinTx snapshots all state up front and
// restores it when fn fails, mirroring the rollback the real store gets from
// Postgres.
type fakeStore struct {
	games    map[uint64]*models.Game
	settings map[uint64]*models.GameSettings
	state    map[state.Key]string
	balances map[string]int64
	events   []*models.GameEvent
	counter  uint64
	nextEvID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:    make(map[uint64]*models.Game),
		settings: make(map[uint64]*models.GameSettings),
		state:    make(map[state.Key]string),
		balances: make(map[string]int64),
	}
}

func copyGame(g *models.Game) *models.Game {
	cp := *g
	cp.JoinedPlayers = append([]uuid.UUID{}, g.JoinedPlayers...)
	if g.Winner != nil {
		w := *g.Winner
		cp.Winner = &w
	}
	if g.EndedAt != nil {
		e := *g.EndedAt
		cp.EndedAt = &e
	}
	return &cp
}

func (f *fakeStore) snapshot() *fakeStore {
	snap := newFakeStore()
	for id, g := range f.games {
		snap.games[id] = copyGame(g)
	}
	for id, s := range f.settings {
		cp := *s
		snap.settings[id] = &cp
	}
	for k, v := range f.state {
		snap.state[k] = v
	}
	for a, b := range f.balances {
		snap.balances[a] = b
	}
	snap.events = append([]*models.GameEvent{}, f.events...)
	snap.counter = f.counter
	snap.nextEvID = f.nextEvID
	return snap
}

func (f *fakeStore) restore(snap *fakeStore) {
	f.games = snap.games
	f.settings = snap.settings
	f.state = snap.state
	f.balances = snap.balances
	f.events = snap.events
	f.counter = snap.counter
	f.nextEvID = snap.nextEvID
}

func (f *fakeStore) WithinTx(ctx context.Context, fn func(s Store) error) error {
	snap := f.snapshot()
	if err := fn(f); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeStore) GetGame(ctx context.Context, id uint64) (*models.Game, error) {
	g, ok := f.games[id]
	if !ok {
		return nil, nil
	}
	return copyGame(g), nil
}

func (f *fakeStore) GetGameForUpdate(ctx context.Context, id uint64) (*models.Game, error) {
	return f.GetGame(ctx, id)
}

func (f *fakeStore) SaveGame(ctx context.Context, g *models.Game) error {
	f.games[g.ID] = copyGame(g)
	return nil
}

func (f *fakeStore) GetSettings(ctx context.Context, id uint64) (*models.GameSettings, error) {
	s, ok := f.settings[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) SaveSettings(ctx context.Context, gs *models.GameSettings) error {
	cp := *gs
	f.settings[gs.GameID] = &cp
	return nil
}

func (f *fakeStore) NextGameID(ctx context.Context) (uint64, error) {
	f.counter++
	return f.counter, nil
}

func (f *fakeStore) StateGet(ctx context.Context, key state.Key) (string, bool, error) {
	v, ok := f.state[key]
	return v, ok, nil
}

func (f *fakeStore) StateSet(ctx context.Context, key state.Key, value string) error {
	f.state[key] = value
	return nil
}

func (f *fakeStore) Transfer(ctx context.Context, from, to string, amount int64) error {
	if amount <= 0 {
		return escrow.ErrInvalidAmount
	}
	if f.balances[from] < amount {
		return escrow.ErrInsufficientFunds
	}
	f.balances[from] -= amount
	f.balances[to] += amount
	return nil
}

func (f *fakeStore) AppendEvent(ctx context.Context, ev *models.GameEvent) error {
	f.nextEvID++
	ev.ID = f.nextEvID
	ev.CreatedAt = time.Now().UTC()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeStore) topics() []string {
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Topic)
	}
	return out
}

type fakePublisher struct {
	published []string
}

func (p *fakePublisher) PublishGameEvent(gameID uint64, topic string, payload []byte) error {
	p.published = append(p.published, topic)
	return nil
}

func initializedService(t *testing.T, owner uuid.UUID) (*Service, *fakeStore, *fakePublisher) {
	t.Helper()
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, zap.NewNop())
	require.NoError(t, svc.Initialize(context.Background(), owner, owner, "http://rewards.local", "escrow-token"))
	return svc, store, pub
}

func TestInitialize(t *testing.T) {
	owner := uuid.New()
	ctx := context.Background()

	t.Run("succeeds once", func(t *testing.T) {
		svc, store, _ := initializedService(t, owner)

		got, err := svc.Owner(ctx)
		require.NoError(t, err)
		assert.Equal(t, owner, got)

		addr, err := svc.RewardSystem(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://rewards.local", addr)

		assert.Equal(t, "escrow-token", store.state[state.KeyEscrowToken])

		err = svc.Initialize(ctx, owner, owner, "http://other.local", "other")
		assert.ErrorIs(t, err, ErrAlreadyInitialized)
		// The failed second call must not clobber the first.
		addr, err = svc.RewardSystem(ctx)
		require.NoError(t, err)
		assert.Equal(t, "http://rewards.local", addr)
	})

	t.Run("actor must be the proposed owner", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, zap.NewNop())
		err := svc.Initialize(ctx, uuid.New(), owner, "http://rewards.local", "escrow-token")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("operations refuse before initialization", func(t *testing.T) {
		svc := NewService(newFakeStore(), nil, zap.NewNop())
		_, err := svc.CreateGame(ctx, uuid.New(), CreateGameParams{Capacity: 4})
		assert.ErrorIs(t, err, ErrNotInitialized)
		_, err = svc.LeavePendingGame(ctx, 1, uuid.New())
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestCreateGame(t *testing.T) {
	owner := uuid.New()
	ctx := context.Background()
	svc, store, pub := initializedService(t, owner)

	alice := uuid.New()
	store.balances[escrow.PlayerAccount(alice)] = 2000

	g1, err := svc.CreateGame(ctx, alice, CreateGameParams{StakePerPlayer: 500, Capacity: 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), g1.ID, "first allocated id is 1")
	assert.Equal(t, []uuid.UUID{alice}, g1.JoinedPlayers)
	assert.Equal(t, int64(500), g1.TotalStaked)
	assert.Equal(t, models.GameStatusPending, g1.Status)
	assert.Len(t, g1.Code, 6)

	g2, err := svc.CreateGame(ctx, alice, CreateGameParams{StakePerPlayer: 500, Capacity: 4})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), g2.ID)

	assert.Equal(t, int64(1000), store.balances[escrow.HoldingAccount])
	assert.Equal(t, int64(1000), store.balances[escrow.PlayerAccount(alice)])
	assert.Equal(t, []string{events.TopicGameCreated, events.TopicGameCreated}, store.topics())
	assert.Equal(t, []string{events.TopicGameCreated, events.TopicGameCreated}, pub.published)
}

func TestCreateGame_InsufficientFunds(t *testing.T) {
	owner := uuid.New()
	svc, store, _ := initializedService(t, owner)
	broke := uuid.New()

	_, err := svc.CreateGame(context.Background(), broke, CreateGameParams{StakePerPlayer: 500, Capacity: 4})
	assert.ErrorIs(t, err, escrow.ErrInsufficientFunds)
	assert.Empty(t, store.games, "failed create must leave nothing behind")
	assert.Empty(t, store.events)
}

func TestJoinPendingGame(t *testing.T) {
	owner := uuid.New()
	ctx := context.Background()
	svc, store, _ := initializedService(t, owner)

	alice, bob := uuid.New(), uuid.New()
	store.balances[escrow.PlayerAccount(alice)] = 500
	store.balances[escrow.PlayerAccount(bob)] = 500

	g, err := svc.CreateGame(ctx, alice, CreateGameParams{StakePerPlayer: 500, Capacity: 4})
	require.NoError(t, err)

	got, err := svc.JoinPendingGame(ctx, g.ID, bob, "")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{alice, bob}, got.JoinedPlayers)
	assert.Equal(t, int64(1000), got.TotalStaked)
	assert.Equal(t, int64(1000), store.balances[escrow.HoldingAccount])

	_, err = svc.JoinPendingGame(ctx, g.ID, bob, "")
	assert.ErrorIs(t, err, ErrAlreadyJoined)

	_, err = svc.JoinPendingGame(ctx, 99, bob, "")
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestLeavePendingGame(t *testing.T) {
	owner := uuid.New()
	ctx := context.Background()

	setup := func(t *testing.T, stake int64) (*Service, *fakeStore, *fakePublisher, uuid.UUID, uuid.UUID, *models.Game) {
		svc, store, pub := initializedService(t, owner)
		alice, bob := uuid.New(), uuid.New()
		store.balances[escrow.PlayerAccount(alice)] = 1000
		store.balances[escrow.PlayerAccount(bob)] = 1000
		g, err := svc.CreateGame(ctx, alice, CreateGameParams{StakePerPlayer: stake, Capacity: 4})
		require.NoError(t, err)
		_, err = svc.JoinPendingGame(ctx, g.ID, bob, "")
		require.NoError(t, err)
		return svc, store, pub, alice, bob, g
	}

	t.Run("refunds and persists", func(t *testing.T) {
		svc, store, pub, alice, bob, g := setup(t, 500)

		got, err := svc.LeavePendingGame(ctx, g.ID, bob)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{alice}, got.JoinedPlayers)
		assert.Equal(t, int64(500), got.TotalStaked)
		assert.Equal(t, models.GameStatusPending, got.Status)

		assert.Equal(t, int64(1000), store.balances[escrow.PlayerAccount(bob)], "stake returned")
		assert.Equal(t, int64(500), store.balances[escrow.HoldingAccount])

		last := store.events[len(store.events)-1]
		assert.Equal(t, events.TopicPlayerLeftPending, last.Topic)
		require.NotNil(t, last.Actor)
		assert.Equal(t, bob, *last.Actor)

		var payload events.PlayerLeftPending
		require.NoError(t, json.Unmarshal(last.Payload, &payload))
		assert.Equal(t, g.ID, payload.GameID)
		assert.Equal(t, int64(500), payload.StakeRefunded)
		assert.Equal(t, 1, payload.RemainingPlayers)

		assert.Contains(t, pub.published, events.TopicPlayerLeftPending)
	})

	t.Run("last leaver auto-ends", func(t *testing.T) {
		svc, store, _, alice, bob, g := setup(t, 500)

		_, err := svc.LeavePendingGame(ctx, g.ID, bob)
		require.NoError(t, err)
		got, err := svc.LeavePendingGame(ctx, g.ID, alice)
		require.NoError(t, err)

		assert.Equal(t, models.GameStatusEnded, got.Status)
		assert.NotNil(t, got.EndedAt)
		assert.Empty(t, got.JoinedPlayers)
		assert.Equal(t, int64(0), store.balances[escrow.HoldingAccount])

		topics := store.topics()
		require.GreaterOrEqual(t, len(topics), 2)
		assert.Equal(t, events.TopicPlayerLeftPending, topics[len(topics)-2])
		assert.Equal(t, events.TopicPendingGameEnded, topics[len(topics)-1])
	})

	t.Run("zero stake emits refund of zero", func(t *testing.T) {
		svc, store, _, _, bob, g := setup(t, 0)

		before := store.balances[escrow.PlayerAccount(bob)]
		_, err := svc.LeavePendingGame(ctx, g.ID, bob)
		require.NoError(t, err)
		assert.Equal(t, before, store.balances[escrow.PlayerAccount(bob)], "no transfer for zero stake")

		var payload events.PlayerLeftPending
		require.NoError(t, json.Unmarshal(store.events[len(store.events)-1].Payload, &payload))
		assert.Equal(t, int64(0), payload.StakeRefunded)
	})

	t.Run("unknown game", func(t *testing.T) {
		svc, _, _, _, bob, _ := setup(t, 500)
		_, err := svc.LeavePendingGame(ctx, 404, bob)
		assert.ErrorIs(t, err, ErrGameNotFound)
	})

	t.Run("non-member", func(t *testing.T) {
		svc, _, _, _, _, g := setup(t, 500)
		_, err := svc.LeavePendingGame(ctx, g.ID, uuid.New())
		assert.ErrorIs(t, err, ErrNotInGame)
	})

	t.Run("started game rejects leave", func(t *testing.T) {
		svc, _, _, alice, bob, g := setup(t, 500)
		_, err := svc.StartGame(ctx, g.ID, alice)
		require.NoError(t, err)
		_, err = svc.LeavePendingGame(ctx, g.ID, bob)
		assert.ErrorIs(t, err, ErrGameNotPending)
	})

	t.Run("failed refund aborts everything", func(t *testing.T) {
		svc, store, pub, alice, bob, g := setup(t, 500)

		// Drain the holding account so the refund cannot be covered.
		store.balances[escrow.HoldingAccount] = 0
		eventsBefore := len(store.events)
		publishedBefore := len(pub.published)

		_, err := svc.LeavePendingGame(ctx, g.ID, bob)
		assert.ErrorIs(t, err, escrow.ErrInsufficientFunds)

		// Membership, stake accounting, and the trail are all untouched.
		after, err := svc.GetGame(ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{alice, bob}, after.JoinedPlayers)
		assert.Equal(t, int64(1000), after.TotalStaked)
		assert.Len(t, store.events, eventsBefore)
		assert.Len(t, pub.published, publishedBefore)
	})
}

func TestCompleteGame(t *testing.T) {
	owner := uuid.New()
	ctx := context.Background()
	svc, store, _ := initializedService(t, owner)

	alice, bob := uuid.New(), uuid.New()
	store.balances[escrow.PlayerAccount(alice)] = 500
	store.balances[escrow.PlayerAccount(bob)] = 500

	g, err := svc.CreateGame(ctx, alice, CreateGameParams{StakePerPlayer: 500, Capacity: 4})
	require.NoError(t, err)
	_, err = svc.JoinPendingGame(ctx, g.ID, bob, "")
	require.NoError(t, err)
	_, err = svc.StartGame(ctx, g.ID, alice)
	require.NoError(t, err)

	t.Run("only the owner completes", func(t *testing.T) {
		_, err := svc.CompleteGame(ctx, g.ID, alice, bob)
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("winner takes the pot", func(t *testing.T) {
		got, err := svc.CompleteGame(ctx, g.ID, owner, bob)
		require.NoError(t, err)
		assert.Equal(t, models.GameStatusEnded, got.Status)
		require.NotNil(t, got.Winner)
		assert.Equal(t, bob, *got.Winner)
		assert.Equal(t, int64(0), got.TotalStaked)
		assert.Equal(t, int64(1000), store.balances[escrow.PlayerAccount(bob)])
		assert.Equal(t, int64(0), store.balances[escrow.HoldingAccount])
	})
}
