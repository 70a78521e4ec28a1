package events

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tycoon-games/backend/pkg/response"
)

// Handler serves the game event trail.
type Handler struct {
	repo *Repository
}

// NewHandler creates an events handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// ListByGame handles GET /games/:id/events.
func (h *Handler) ListByGame(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid game id")
		return
	}
	list, err := h.repo.ListByGame(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}
