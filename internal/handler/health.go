package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	mode string
}

// NewHealthHandler creates a new HealthHandler for the given gateway mode.
func NewHealthHandler(mode string) *HealthHandler {
	return &HealthHandler{mode: mode}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"mode":      h.mode,
	})
}
