package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkout/internal/cookie"
)

// CartHandler handles HTTP requests for the cart cookie.
type CartHandler struct {
	responder
	cookies *cookie.Store
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cookies *cookie.Store, logger *zap.Logger, exposeErrors bool) *CartHandler {
	return &CartHandler{
		responder: newResponder(logger, exposeErrors),
		cookies:   cookies,
	}
}

// UpdateCartRequest is the HTTP request body for replacing the cart.
type UpdateCartRequest struct {
	Items json.RawMessage `json:"items" binding:"required"`
}

// GetCart handles GET /api/cart
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.cookies.Cart(c)
	if err != nil {
		h.logger.Warn("discarding unreadable cart cookie", zap.Error(err))
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Data: cart})
}

// UpdateCart handles POST /api/cart
func (h *CartHandler) UpdateCart(c *gin.Context) {
	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, "Invalid request body")
		return
	}

	if err := h.cookies.SaveCart(c, req.Items); err != nil {
		h.respondError(c, err, "Failed to update cart")
		return
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Message: "Cart updated successfully"})
}
