package games

import (
	"time"

	"github.com/google/uuid"

	"github.com/tycoon-games/backend/internal/models"
)

// leaveOutcome describes the effect of a successful leave transition.
type leaveOutcome struct {
	// StakeRefunded is the amount owed back to the leaving player. It equals
	// the game's stake_per_player, including when that is zero.
	StakeRefunded    int64
	RemainingPlayers int
	// AutoEnded is true when the lobby drained and the game ended.
	AutoEnded bool
	// DuplicateMembership flags that the player appeared more than once in
	// the member list. Only the first occurrence is removed; callers should
	// surface a diagnostic, since correct creation logic never produces this.
	DuplicateMembership bool
}

// applyLeave removes actor from a pending game, preserving the relative
// order of the remaining players. When the last player leaves, the game is
// ended automatically with no winner.
func applyLeave(g *models.Game, actor uuid.UUID, now time.Time) (leaveOutcome, error) {
	if g.Status != models.GameStatusPending {
		return leaveOutcome{}, ErrGameNotPending
	}

	idx := -1
	duplicate := false
	for i, p := range g.JoinedPlayers {
		if p == actor {
			if idx == -1 {
				idx = i
			} else {
				duplicate = true
			}
		}
	}
	if idx == -1 {
		return leaveOutcome{}, ErrNotInGame
	}

	g.JoinedPlayers = append(g.JoinedPlayers[:idx], g.JoinedPlayers[idx+1:]...)

	// Saturating: a corrupted total must not panic or go negative.
	if g.TotalStaked >= g.StakePerPlayer {
		g.TotalStaked -= g.StakePerPlayer
	} else {
		g.TotalStaked = 0
	}

	out := leaveOutcome{
		StakeRefunded:       g.StakePerPlayer,
		RemainingPlayers:    len(g.JoinedPlayers),
		DuplicateMembership: duplicate,
	}

	if out.RemainingPlayers == 0 {
		g.Status = models.GameStatusEnded
		g.EndedAt = &now
		out.AutoEnded = true
	}
	return out, nil
}

// applyJoin adds actor to a pending game. settings may be nil when no
// settings record exists for the game; private games then reject all joins.
func applyJoin(g *models.Game, settings *models.GameSettings, actor uuid.UUID, roomCode string) error {
	if g.Status != models.GameStatusPending {
		return ErrGameNotPending
	}
	if g.HasPlayer(actor) {
		return ErrAlreadyJoined
	}
	if len(g.JoinedPlayers) >= g.NumberOfPlayers {
		return ErrGameFull
	}
	if g.Mode == models.GameModePrivate {
		if settings == nil || settings.PrivateRoomCode == "" || settings.PrivateRoomCode != roomCode {
			return ErrBadRoomCode
		}
	}
	g.JoinedPlayers = append(g.JoinedPlayers, actor)
	g.TotalStaked += g.StakePerPlayer
	return nil
}

// applyStart moves a pending game to ongoing. Only the creator may start,
// and a lobby without AI opponents needs at least two players.
func applyStart(g *models.Game, actor uuid.UUID) error {
	if g.Status != models.GameStatusPending {
		return ErrGameNotPending
	}
	if g.Creator != actor {
		return ErrNotCreator
	}
	if len(g.JoinedPlayers) < 2 && !g.AI {
		return ErrNotEnoughPlayers
	}
	g.Status = models.GameStatusOngoing
	return nil
}

// applyComplete ends an ongoing game with a winner and returns the pot owed
// to them. The winner must be a member.
func applyComplete(g *models.Game, winner uuid.UUID, now time.Time) (potPaid int64, err error) {
	if g.Status != models.GameStatusOngoing {
		return 0, ErrGameNotOngoing
	}
	if !g.HasPlayer(winner) {
		return 0, ErrWinnerNotMember
	}
	potPaid = g.TotalStaked
	g.TotalStaked = 0
	w := winner
	g.Winner = &w
	g.Status = models.GameStatusEnded
	g.EndedAt = &now
	return potPaid, nil
}
