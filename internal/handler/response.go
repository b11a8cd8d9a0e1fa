package handler

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"checkout/internal/repository"
	"checkout/internal/service"
	"checkout/internal/tripay"
)

const (
	msgUserNotFound  = "Tidak menemukan user di database, pastikan kamu sudah menggunakan bot dari kami"
	msgGroupNotFound = "Tidak menemukan grup di database, pastikan kamu sudah menggunakan bot dari kami"
)

// Response is the envelope of every API response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// responder writes envelopes and maps errors to status codes.
type responder struct {
	logger       *zap.Logger
	exposeErrors bool
}

func newResponder(logger *zap.Logger, exposeErrors bool) responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return responder{logger: logger, exposeErrors: exposeErrors}
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondError sends an error envelope. fallback is the message used for
// unexpected errors.
func (r responder) respondError(c *gin.Context, err error, fallback string) {
	code, message := mapError(err)
	resp := Response{Success: false, Message: message}
	if message == "" {
		resp.Message = fallback
	}

	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
		r.logger.Error(resp.Message,
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		if r.exposeErrors {
			resp.Error = err.Error()
		}
	}

	respondJSON(c, code, resp)
}

// respondBindError sends a 400 envelope for a body that failed to decode or
// validate.
func (r responder) respondBindError(c *gin.Context, err error, message string) {
	resp := Response{Success: false, Message: message}
	detail := validationDetail(err)
	r.logger.Debug("Rejected request body",
		zap.String("path", c.FullPath()),
		zap.String("detail", detail),
	)
	if r.exposeErrors {
		resp.Error = detail
	}
	respondJSON(c, http.StatusBadRequest, resp)
}

// validationDetail renders binding failures one field at a time, sorted by
// field name. Errors that are not validation errors are returned as is.
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", field))
		case "gt":
			parts = append(parts, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "min":
			parts = append(parts, fmt.Sprintf("%s must have at least %s entries", field, fe.Param()))
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", field, fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", field))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// mapError maps service, gateway and repository errors to an HTTP status and
// a client message. An empty message means the caller's fallback is used.
func mapError(err error) (int, string) {
	var apiErr *tripay.APIError

	switch {
	// Validation errors
	case errors.Is(err, service.ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields"
	case errors.Is(err, service.ErrMissingCustomer):
		return http.StatusBadRequest, "Either customerPhone or groupId is required"
	case errors.Is(err, service.ErrMissingReference):
		return http.StatusBadRequest, "Missing transaction reference"
	case errors.Is(err, service.ErrMissingIdentifier):
		return http.StatusBadRequest, "Missing identifier"
	case errors.Is(err, service.ErrInvalidCustomerType):
		return http.StatusBadRequest, "Missing identifier or type"
	case errors.Is(err, service.ErrInvalidCallbackPayload):
		return http.StatusBadRequest, "Invalid JSON payload"

	case errors.Is(err, service.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"

	// Not found
	case errors.Is(err, service.ErrTransactionNotFound):
		return http.StatusNotFound, "Transaction not found"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, msgUserNotFound
	case errors.Is(err, service.ErrGroupNotFound):
		return http.StatusNotFound, msgGroupNotFound
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found"

	// Gateway
	case errors.Is(err, tripay.ErrNotConfigured):
		return http.StatusInternalServerError, "Payment gateway not configured"
	case errors.As(err, &apiErr):
		return apiErr.HTTPStatus(), apiErr.Message
	case errors.Is(err, tripay.ErrUnavailable):
		return http.StatusServiceUnavailable, "Payment gateway temporarily unavailable"

	case errors.Is(err, service.ErrDatabaseUnavailable):
		return http.StatusServiceUnavailable, "Database not available"

	default:
		return http.StatusInternalServerError, ""
	}
}

// NotFound handles unmatched routes.
func NotFound(c *gin.Context) {
	respondJSON(c, http.StatusNotFound, Response{Success: false, Message: "Endpoint not found"})
}
