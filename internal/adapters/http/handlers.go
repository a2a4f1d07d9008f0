package http

import (
	"net/http"

	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/gin-gonic/gin"
)

// Read-only views of the relay state.
type handlers struct {
	orch *orch.Orchestrator
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.orch.Registry.Count(),
	})
}

func (h *handlers) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms.List()})
}

// GET /api/presence?user=a&user=b
func (h *handlers) presence(c *gin.Context) {
	users := domain.UserIDs(c.QueryArray("user"))
	if len(users) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing user"})
		return
	}
	for _, u := range users {
		if err := u.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"presence": h.orch.Presence.Query(users)})
}

func (h *handlers) calls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"calls": h.orch.Calls.Snapshot()})
}
