package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkout/internal/domain"
	"checkout/internal/service"
)

// CustomerHandler handles HTTP requests for bot customer verification.
type CustomerHandler struct {
	responder
	customerService *service.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customerService *service.CustomerService, logger *zap.Logger, exposeErrors bool) *CustomerHandler {
	return &CustomerHandler{
		responder:       newResponder(logger, exposeErrors),
		customerService: customerService,
	}
}

// VerifyUserRequest is the HTTP request body for verifying a customer.
type VerifyUserRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=user group"`
}

// VerifyUser handles POST /api/verify-user
func (h *CustomerHandler) VerifyUser(c *gin.Context) {
	var req VerifyUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, "Missing identifier or type")
		return
	}

	customer, err := h.customerService.Verify(c.Request.Context(), req.Identifier, req.Type)
	if err != nil {
		h.respondError(c, err, "Database error")
		return
	}

	message := fmt.Sprintf("Apakah kamu bernama \"%s\"?", customer.Name)
	if customer.Type == domain.CustomerTypeGroup {
		message = fmt.Sprintf("Apakah grup kamu bernama \"%s\"?", customer.Name)
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Message: message, Data: customer})
}
