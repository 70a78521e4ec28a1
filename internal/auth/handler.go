package auth

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tycoon-games/backend/internal/models"
	"github.com/tycoon-games/backend/pkg/queue"
	"github.com/tycoon-games/backend/pkg/response"
	"github.com/tycoon-games/backend/pkg/utils"
)

// Handler serves registration, login, and registration lookups.
type Handler struct {
	repo   *Repository
	jwt    *JWTManager
	queue  *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an auth handler. queue may be nil; registration then
// skips the welcome voucher.
func NewHandler(repo *Repository, jwt *JWTManager, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, queue: q, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role"`
}

// parseRole maps the optional role field to a Role. Empty means player.
func parseRole(s string) (models.Role, error) {
	switch s {
	case "":
		return models.RolePlayer, nil
	case string(models.RolePlayer):
		return models.RolePlayer, nil
	case string(models.RoleAdmin):
		return models.RoleAdmin, nil
	}
	return "", errors.New("invalid role")
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token  string              `json:"token"`
	Player models.PlayerPublic `json:"player"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	role, err := parseRole(req.Role)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if _, err := h.repo.GetByUsername(c.Request.Context(), req.Username); err == nil {
		response.Conflict(c, "username already taken")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	player := &models.Player{
		Username: req.Username,
		Password: hashed,
		Role:     role,
	}
	if err := h.repo.Create(c.Request.Context(), player); err != nil {
		h.logger.Error("create player failed", zap.Error(err))
		response.Internal(c, "failed to create player")
		return
	}

	// Welcome voucher is best-effort; registration succeeds regardless.
	if h.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.queue.EnqueueVoucherGrant(ctx, queue.VoucherGrantPayload{
			PlayerID: player.ID,
			Reason:   "registration",
		}); err != nil {
			h.logger.Warn("enqueue welcome voucher failed", zap.Error(err), zap.String("player_id", player.ID.String()))
		}
	}

	token, err := h.jwt.Generate(player.ID, player.Username, string(player.Role))
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, authResponse{Token: token, Player: player.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	player, err := h.repo.GetByUsername(c.Request.Context(), req.Username)
	if err != nil || !utils.CheckPassword(req.Password, player.Password) {
		response.Unauthorized(c, "invalid credentials")
		return
	}

	token, err := h.jwt.Generate(player.ID, player.Username, string(player.Role))
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, authResponse{Token: token, Player: player.ToPublic()})
}

// IsRegistered handles GET /players/:id/registered.
func (h *Handler) IsRegistered(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid player id")
		return
	}
	exists, err := h.repo.ExistsByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to check registration")
		return
	}
	response.OK(c, gin.H{"player_id": id, "registered": exists})
}
