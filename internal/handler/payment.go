package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"checkout/internal/cookie"
	"checkout/internal/domain"
	"checkout/internal/service"
)

const maxCallbackBytes = 1 << 20

// CallbackSignatureHeader carries the gateway's HMAC of the callback body.
const CallbackSignatureHeader = "X-Callback-Signature"

// PaymentHandler handles HTTP requests for checkout transactions.
type PaymentHandler struct {
	responder
	paymentService *service.PaymentService
	cookies        *cookie.Store
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService, cookies *cookie.Store, logger *zap.Logger, exposeErrors bool) *PaymentHandler {
	return &PaymentHandler{
		responder:      newResponder(logger, exposeErrors),
		paymentService: paymentService,
		cookies:        cookies,
	}
}

// CreateTransactionRequest is the HTTP request body for creating a transaction.
type CreateTransactionRequest struct {
	Method        string             `json:"method" binding:"required"`
	Amount        int64              `json:"amount" binding:"required,gt=0"`
	CustomerName  string             `json:"customerName"`
	CustomerPhone string             `json:"customerPhone"`
	GroupID       string             `json:"groupId"`
	OrderItems    []domain.OrderItem `json:"orderItems" binding:"required,min=1,dive"`
	ReturnURL     string             `json:"returnUrl"`
}

// PaymentChannels handles GET /api/payment-channels
func (h *PaymentHandler) PaymentChannels(c *gin.Context) {
	channels, err := h.paymentService.PaymentChannels(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch payment channels")
		return
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Data: channels})
}

// CreateTransaction handles POST /api/create-transaction
func (h *PaymentHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBindError(c, err, "Missing required fields")
		return
	}

	result, err := h.paymentService.CreateTransaction(c.Request.Context(), service.CreateTransactionRequest{
		Method:        req.Method,
		Amount:        req.Amount,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		GroupID:       req.GroupID,
		OrderItems:    req.OrderItems,
		ReturnURL:     req.ReturnURL,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create transaction")
		return
	}

	if result.Transaction.Reference != "" {
		history := h.readHistory(c)
		history = cookie.Prepend(history, result.Transaction.Record())
		h.writeHistory(c, history)
	}

	respondJSON(c, http.StatusOK, Response{
		Success: true,
		Message: "Transaction created successfully",
		Data:    result.Payment,
	})
}

// TransactionStatus handles GET /api/transaction-status/:reference
func (h *PaymentHandler) TransactionStatus(c *gin.Context) {
	reference := c.Param("reference")

	result, err := h.paymentService.TransactionStatus(c.Request.Context(), reference)
	if err != nil {
		h.respondError(c, err, "Failed to fetch transaction status")
		return
	}

	if result.Status != "" {
		history := h.readHistory(c)
		if cookie.ApplyStatus(history, reference, result.Status, result.At) {
			h.writeHistory(c, history)
		}
	}

	respondJSON(c, http.StatusOK, Response{Success: true, Data: result.Detail})
}

// Callback handles POST /callback
func (h *PaymentHandler) Callback(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(c, http.StatusRequestEntityTooLarge, Response{Success: false, Message: "Payload too large"})
			return
		}
		h.respondError(c, err, "Internal server error")
		return
	}

	if _, err := h.paymentService.HandleCallback(c.Request.Context(), c.GetHeader(CallbackSignatureHeader), body); err != nil {
		h.respondError(c, err, "Internal server error")
		return
	}

	respondJSON(c, http.StatusOK, Response{Success: true})
}

func (h *PaymentHandler) readHistory(c *gin.Context) []domain.TransactionRecord {
	history, err := h.cookies.History(c)
	if err != nil {
		h.logger.Warn("discarding unreadable payment history cookie", zap.Error(err))
	}
	return history
}

func (h *PaymentHandler) writeHistory(c *gin.Context, history []domain.TransactionRecord) {
	if err := h.cookies.SaveHistory(c, history); err != nil {
		h.logger.Warn("failed to write payment history cookie", zap.Error(err))
	}
}
