package games

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tycoon-games/backend/internal/escrow"
	"github.com/tycoon-games/backend/internal/events"
	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/internal/state"
)

// EventPublisher pushes committed events to live observers. Publication is
// best-effort; the durable trail is the game_events log.
type EventPublisher interface {
	PublishGameEvent(gameID uint64, topic string, payload []byte) error
}

// Service is the game session engine. Every mutating operation validates
// actor identity and game phase, runs as a single store transaction, and
// appends its events inside that transaction.
type Service struct {
	store  Store
	pub    EventPublisher
	logger *zap.Logger
}

// NewService creates the game service.
func NewService(store Store, pub EventPublisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, pub: pub, logger: logger}
}

// Initialize records the owner, the reward system address, and the escrow
// token address. It succeeds exactly once; the caller must be the proposed
// owner.
func (s *Service) Initialize(ctx context.Context, actor, owner uuid.UUID, rewardSystem, escrowToken string) error {
	if actor != owner {
		return ErrUnauthorized
	}
	return s.store.WithinTx(ctx, func(st Store) error {
		_, initialized, err := st.StateGet(ctx, state.KeyInitialized)
		if err != nil {
			return err
		}
		if initialized {
			return ErrAlreadyInitialized
		}
		if err := st.StateSet(ctx, state.KeyOwner, owner.String()); err != nil {
			return err
		}
		if err := st.StateSet(ctx, state.KeyRewardSystem, rewardSystem); err != nil {
			return err
		}
		if err := st.StateSet(ctx, state.KeyEscrowToken, escrowToken); err != nil {
			return err
		}
		return st.StateSet(ctx, state.KeyInitialized, "true")
	})
}

func (s *Service) requireInitialized(ctx context.Context, st Store) error {
	_, initialized, err := st.StateGet(ctx, state.KeyInitialized)
	if err != nil {
		return err
	}
	if !initialized {
		return ErrNotInitialized
	}
	return nil
}

// CreateGameParams carries lobby configuration for CreateGame.
type CreateGameParams struct {
	StakePerPlayer int64
	Capacity       int
	Mode           models.GameMode
	AI             bool
	Auction        bool
	StartingCash   int64
	RoomCode       string
}

// CreateGame opens a new lobby with the creator as its first member. The
// creator's stake is deposited into the holding balance up front.
func (s *Service) CreateGame(ctx context.Context, creator uuid.UUID, p CreateGameParams) (*models.Game, error) {
	roomCode := p.RoomCode
	if p.Mode == models.GameModePrivate && roomCode == "" {
		roomCode = newGameCode()
	}

	var (
		game      *models.Game
		committed []*models.GameEvent
	)
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := s.requireInitialized(ctx, st); err != nil {
			return err
		}
		id, err := st.NextGameID(ctx)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		g := &models.Game{
			ID:              id,
			Code:            newGameCode(),
			Creator:         creator,
			Status:          models.GameStatusPending,
			NumberOfPlayers: p.Capacity,
			JoinedPlayers:   []uuid.UUID{creator},
			Mode:            p.Mode,
			AI:              p.AI,
			StakePerPlayer:  p.StakePerPlayer,
			TotalStaked:     p.StakePerPlayer,
			CreatedAt:       now,
		}
		if g.StakePerPlayer > 0 {
			if err := st.Transfer(ctx, escrow.PlayerAccount(creator), escrow.HoldingAccount, g.StakePerPlayer); err != nil {
				return err
			}
		}
		if err := st.SaveGame(ctx, g); err != nil {
			return err
		}
		gs := &models.GameSettings{
			GameID:          id,
			MaxPlayers:      p.Capacity,
			Auction:         p.Auction,
			StartingCash:    p.StartingCash,
			PrivateRoomCode: roomCode,
		}
		if err := st.SaveSettings(ctx, gs); err != nil {
			return err
		}
		ev, err := events.New(id, events.TopicGameCreated, &creator, events.GameCreated{
			GameID:         id,
			Creator:        creator,
			Mode:           g.Mode,
			StakePerPlayer: g.StakePerPlayer,
		})
		if err != nil {
			return err
		}
		if err := st.AppendEvent(ctx, ev); err != nil {
			return err
		}
		game = g
		committed = append(committed, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(committed)
	return game, nil
}

// JoinPendingGame adds the actor to a pending lobby and deposits their stake.
func (s *Service) JoinPendingGame(ctx context.Context, gameID uint64, actor uuid.UUID, roomCode string) (*models.Game, error) {
	var (
		game      *models.Game
		committed []*models.GameEvent
	)
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := s.requireInitialized(ctx, st); err != nil {
			return err
		}
		g, err := st.GetGameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		var settings *models.GameSettings
		if g.Mode == models.GameModePrivate {
			if settings, err = st.GetSettings(ctx, gameID); err != nil {
				return err
			}
		}
		if err := applyJoin(g, settings, actor, roomCode); err != nil {
			return err
		}
		if g.StakePerPlayer > 0 {
			if err := st.Transfer(ctx, escrow.PlayerAccount(actor), escrow.HoldingAccount, g.StakePerPlayer); err != nil {
				return err
			}
		}
		if err := st.SaveGame(ctx, g); err != nil {
			return err
		}
		ev, err := events.New(gameID, events.TopicPlayerJoinedPending, &actor, events.PlayerJoinedPending{
			GameID:         gameID,
			Player:         actor,
			StakeDeposited: g.StakePerPlayer,
			PlayerCount:    len(g.JoinedPlayers),
		})
		if err != nil {
			return err
		}
		if err := st.AppendEvent(ctx, ev); err != nil {
			return err
		}
		game = g
		committed = append(committed, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(committed)
	return game, nil
}

// LeavePendingGame removes the actor from a pending lobby, refunds their
// stake, and ends the game automatically when the lobby drains. The refund,
// the membership change, and the emitted events commit as one unit; a failed
// refund aborts everything.
func (s *Service) LeavePendingGame(ctx context.Context, gameID uint64, actor uuid.UUID) (*models.Game, error) {
	var (
		game      *models.Game
		committed []*models.GameEvent
	)
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := s.requireInitialized(ctx, st); err != nil {
			return err
		}
		g, err := st.GetGameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}

		out, err := applyLeave(g, actor, time.Now().UTC())
		if err != nil {
			return err
		}
		if out.DuplicateMembership {
			s.logger.Error("membership invariant violation: player joined more than once",
				zap.Uint64("game_id", gameID),
				zap.String("player", actor.String()),
			)
		}

		if out.StakeRefunded > 0 {
			if err := st.Transfer(ctx, escrow.HoldingAccount, escrow.PlayerAccount(actor), out.StakeRefunded); err != nil {
				return err
			}
		}
		if err := st.SaveGame(ctx, g); err != nil {
			return err
		}

		left, err := events.New(gameID, events.TopicPlayerLeftPending, &actor, events.PlayerLeftPending{
			GameID:           gameID,
			Player:           actor,
			StakeRefunded:    g.StakePerPlayer,
			RemainingPlayers: out.RemainingPlayers,
		})
		if err != nil {
			return err
		}
		if err := st.AppendEvent(ctx, left); err != nil {
			return err
		}
		committed = append(committed, left)

		if out.AutoEnded {
			ended, err := events.New(gameID, events.TopicPendingGameEnded, nil, events.PendingGameEnded{GameID: gameID})
			if err != nil {
				return err
			}
			if err := st.AppendEvent(ctx, ended); err != nil {
				return err
			}
			committed = append(committed, ended)
		}

		game = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(committed)
	return game, nil
}

// StartGame moves a pending lobby to ongoing. Creator only.
func (s *Service) StartGame(ctx context.Context, gameID uint64, actor uuid.UUID) (*models.Game, error) {
	var (
		game      *models.Game
		committed []*models.GameEvent
	)
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := s.requireInitialized(ctx, st); err != nil {
			return err
		}
		g, err := st.GetGameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		if err := applyStart(g, actor); err != nil {
			return err
		}
		if err := st.SaveGame(ctx, g); err != nil {
			return err
		}
		ev, err := events.New(gameID, events.TopicGameStarted, &actor, events.GameStarted{
			GameID:      gameID,
			PlayerCount: len(g.JoinedPlayers),
		})
		if err != nil {
			return err
		}
		if err := st.AppendEvent(ctx, ev); err != nil {
			return err
		}
		game = g
		committed = append(committed, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(committed)
	return game, nil
}

// CompleteGame ends an ongoing game with a determined winner and pays the
// pot out of the holding balance. Only the contract owner may complete.
func (s *Service) CompleteGame(ctx context.Context, gameID uint64, actor, winner uuid.UUID) (*models.Game, error) {
	var (
		game      *models.Game
		committed []*models.GameEvent
	)
	err := s.store.WithinTx(ctx, func(st Store) error {
		if err := s.requireInitialized(ctx, st); err != nil {
			return err
		}
		ownerValue, ok, err := st.StateGet(ctx, state.KeyOwner)
		if err != nil {
			return err
		}
		if !ok || ownerValue != actor.String() {
			return ErrUnauthorized
		}
		g, err := st.GetGameForUpdate(ctx, gameID)
		if err != nil {
			return err
		}
		if g == nil {
			return ErrGameNotFound
		}
		pot, err := applyComplete(g, winner, time.Now().UTC())
		if err != nil {
			return err
		}
		if pot > 0 {
			if err := st.Transfer(ctx, escrow.HoldingAccount, escrow.PlayerAccount(winner), pot); err != nil {
				return err
			}
		}
		if err := st.SaveGame(ctx, g); err != nil {
			return err
		}
		ev, err := events.New(gameID, events.TopicGameEnded, &winner, events.GameEnded{
			GameID:  gameID,
			Winner:  winner,
			PotPaid: pot,
		})
		if err != nil {
			return err
		}
		if err := st.AppendEvent(ctx, ev); err != nil {
			return err
		}
		game = g
		committed = append(committed, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(committed)
	return game, nil
}

// GetGame returns a game by id, or (nil, nil) when unknown. Pure read.
func (s *Service) GetGame(ctx context.Context, id uint64) (*models.Game, error) {
	return s.store.GetGame(ctx, id)
}

// GetGameSettings returns a game's settings, or (nil, nil) when unknown.
// Independent of GetGame: either record may exist without the other.
func (s *Service) GetGameSettings(ctx context.Context, id uint64) (*models.GameSettings, error) {
	return s.store.GetSettings(ctx, id)
}

// Owner returns the owner recorded at initialization.
func (s *Service) Owner(ctx context.Context) (uuid.UUID, error) {
	value, ok, err := s.store.StateGet(ctx, state.KeyOwner)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, ErrNotInitialized
	}
	owner, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("stored owner is not a player id: %w", err)
	}
	return owner, nil
}

// RewardSystem returns the reward system address recorded at initialization.
func (s *Service) RewardSystem(ctx context.Context) (string, error) {
	value, ok, err := s.store.StateGet(ctx, state.KeyRewardSystem)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotInitialized
	}
	return value, nil
}

func (s *Service) publish(evs []*models.GameEvent) {
	if s.pub == nil {
		return
	}
	for _, ev := range evs {
		if err := s.pub.PublishGameEvent(ev.GameID, ev.Topic, ev.Payload); err != nil {
			s.logger.Warn("publish event failed",
				zap.Uint64("game_id", ev.GameID),
				zap.String("topic", ev.Topic),
				zap.Error(err),
			)
		}
	}
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newGameCode returns a 6-character join code. Ambiguous characters are
// excluded from the alphabet.
func newGameCode() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// uuid-derived code rather than returning an error up the stack.
		copy(buf, uuid.New().NodeID())
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return string(buf)
}
