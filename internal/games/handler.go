package games

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tycoon-games/backend/internal/escrow"
	"github.com/tycoon-games/backend/internal/middleware"
	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/pkg/response"
)

// Handler serves the game session API.
type Handler struct {
	service *Service
}

// NewHandler creates a games handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func actorFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(middleware.ContextPlayerID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

func gameIDParam(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid game id")
		return 0, false
	}
	return id, true
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrAlreadyInitialized),
		errors.Is(err, ErrGameNotPending),
		errors.Is(err, ErrGameNotOngoing),
		errors.Is(err, ErrGameFull),
		errors.Is(err, ErrAlreadyJoined),
		errors.Is(err, escrow.ErrInsufficientFunds):
		response.Conflict(c, err.Error())
	case errors.Is(err, ErrNotInitialized):
		response.ServiceUnavailable(c, err.Error())
	case errors.Is(err, ErrGameNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, ErrNotInGame),
		errors.Is(err, ErrBadRoomCode),
		errors.Is(err, ErrWinnerNotMember),
		errors.Is(err, ErrNotEnoughPlayers),
		errors.Is(err, escrow.ErrInvalidAmount):
		response.BadRequest(c, err.Error())
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotCreator):
		response.Forbidden(c, err.Error())
	default:
		response.Internal(c, "operation failed")
	}
}

type initializeRequest struct {
	Owner        uuid.UUID `json:"owner" binding:"required"`
	RewardSystem string    `json:"reward_system" binding:"required"`
	EscrowToken  string    `json:"escrow_token" binding:"required"`
}

// Initialize handles POST /admin/initialize.
func (h *Handler) Initialize(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	var req initializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.service.Initialize(c.Request.Context(), actor, req.Owner, req.RewardSystem, req.EscrowToken); err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"owner": req.Owner})
}

type createGameRequest struct {
	StakePerPlayer int64           `json:"stake_per_player" binding:"min=0"`
	Capacity       int             `json:"capacity" binding:"required,min=1,max=8"`
	Mode           models.GameMode `json:"mode" binding:"omitempty,oneof=public private"`
	AI             bool            `json:"ai"`
	Auction        bool            `json:"auction"`
	StartingCash   int64           `json:"starting_cash" binding:"min=0"`
	RoomCode       string          `json:"room_code"`
}

// Create handles POST /games.
func (h *Handler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = models.GameModePublic
	}
	game, err := h.service.CreateGame(c.Request.Context(), actor, CreateGameParams{
		StakePerPlayer: req.StakePerPlayer,
		Capacity:       req.Capacity,
		Mode:           req.Mode,
		AI:             req.AI,
		Auction:        req.Auction,
		StartingCash:   req.StartingCash,
		RoomCode:       req.RoomCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, game)
}

type joinGameRequest struct {
	RoomCode string `json:"room_code"`
}

// Join handles POST /games/:id/join.
func (h *Handler) Join(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	var req joinGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}
	game, err := h.service.JoinPendingGame(c.Request.Context(), id, actor, req.RoomCode)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, game)
}

type leaveGameRequest struct {
	PlayerID *uuid.UUID `json:"player_id"`
}

// Leave handles POST /games/:id/leave. The optional player_id in the body
// must match the authenticated caller; players cannot remove each other.
func (h *Handler) Leave(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	var req leaveGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, err.Error())
		return
	}
	if req.PlayerID != nil && *req.PlayerID != actor {
		response.Forbidden(c, ErrUnauthorized.Error())
		return
	}
	game, err := h.service.LeavePendingGame(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, game)
}

// Start handles POST /games/:id/start.
func (h *Handler) Start(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	game, err := h.service.StartGame(c.Request.Context(), id, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, game)
}

type completeGameRequest struct {
	Winner uuid.UUID `json:"winner" binding:"required"`
}

// Complete handles POST /games/:id/complete.
func (h *Handler) Complete(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Unauthorized(c, "missing player context")
		return
	}
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	var req completeGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	game, err := h.service.CompleteGame(c.Request.Context(), id, actor, req.Winner)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, game)
}

// GetByID handles GET /games/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	game, err := h.service.GetGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if game == nil {
		response.NotFound(c, ErrGameNotFound.Error())
		return
	}
	response.OK(c, game)
}

// GetSettings handles GET /games/:id/settings.
func (h *Handler) GetSettings(c *gin.Context) {
	id, ok := gameIDParam(c)
	if !ok {
		return
	}
	settings, err := h.service.GetGameSettings(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if settings == nil {
		response.NotFound(c, "settings not found")
		return
	}
	response.OK(c, settings)
}

// Owner handles GET /state/owner.
func (h *Handler) Owner(c *gin.Context) {
	owner, err := h.service.Owner(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"owner": owner})
}

// RewardSystem handles GET /state/reward-system.
func (h *Handler) RewardSystem(c *gin.Context) {
	addr, err := h.service.RewardSystem(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, gin.H{"reward_system": addr})
}
