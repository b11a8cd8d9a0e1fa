package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkout/internal/cookie"
	"checkout/internal/service"
)

// HistoryHandler handles HTTP requests for payment history.
type HistoryHandler struct {
	responder
	historyService *service.HistoryService
	cookies        *cookie.Store
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService, cookies *cookie.Store, logger *zap.Logger, exposeErrors bool) *HistoryHandler {
	return &HistoryHandler{
		responder:      newResponder(logger, exposeErrors),
		historyService: historyService,
		cookies:        cookies,
	}
}

// CustomerHistoryRequest is the HTTP request body for a server-side history page.
type CustomerHistoryRequest struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
	Page       int    `json:"page"`
}

// CookieHistory handles GET /api/payment-history
func (h *HistoryHandler) CookieHistory(c *gin.Context) {
	history, err := h.cookies.History(c)
	if err != nil {
		h.logger.Warn("discarding unreadable payment history cookie", zap.Error(err))
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Data: history})
}

// CustomerHistory handles POST /api/payment-history
func (h *HistoryHandler) CustomerHistory(c *gin.Context) {
	var req CustomerHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, "Invalid request body")
		return
	}
	if req.Type == "" {
		req.Type = "user"
	}
	if !h.historyService.Enabled() {
		h.CookieHistory(c)
		return
	}

	result, err := h.historyService.List(c.Request.Context(), service.HistoryRequest{
		Identifier: req.Identifier,
		Type:       req.Type,
		Page:       req.Page,
	})
	if err != nil {
		h.respondError(c, err, "Failed to fetch payment history")
		return
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Data: result})
}
