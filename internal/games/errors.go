package games

import "errors"

// Operation errors. Each aborts the whole operation with no partial state
// change; none are retried internally.
var (
	// ErrAlreadyInitialized means Initialize was called more than once.
	ErrAlreadyInitialized = errors.New("contract already initialized")
	// ErrNotInitialized means a mutating operation ran before Initialize.
	ErrNotInitialized = errors.New("contract not initialized")
	// ErrGameNotFound means the game id does not exist.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameNotPending means the game has already started or ended.
	ErrGameNotPending = errors.New("game is not pending")
	// ErrGameNotOngoing means the game is not in progress.
	ErrGameNotOngoing = errors.New("game is not ongoing")
	// ErrNotInGame means the player has not joined the game.
	ErrNotInGame = errors.New("player is not in this game")
	// ErrUnauthorized means the caller cannot act for the named player.
	ErrUnauthorized = errors.New("caller is not authorized for this player")
	// ErrGameFull means the lobby has reached its player capacity.
	ErrGameFull = errors.New("game is full")
	// ErrAlreadyJoined means the player is already in the lobby.
	ErrAlreadyJoined = errors.New("player already joined this game")
	// ErrBadRoomCode means the private room code does not match.
	ErrBadRoomCode = errors.New("invalid room code")
	// ErrNotCreator means only the game creator may perform the operation.
	ErrNotCreator = errors.New("only the creator can do this")
	// ErrNotEnoughPlayers means the lobby is too small to start.
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	// ErrWinnerNotMember means the declared winner never joined the game.
	ErrWinnerNotMember = errors.New("winner is not in this game")
)
