package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"checkout/internal/domain"
	internalRedis "checkout/internal/redis"
	"checkout/internal/repository"
	"checkout/internal/tripay"
)

const (
	transactionLifetime = 24 * time.Hour
	callbackLockTTL     = 30 * time.Second
)

// Gateway is the payment gateway contract used by PaymentService.
type Gateway interface {
	PaymentChannels(ctx context.Context) ([]domain.PaymentChannel, error)
	CreateTransaction(ctx context.Context, payload tripay.CreateTransactionPayload) (map[string]any, error)
	TransactionDetail(ctx context.Context, reference string) (map[string]any, error)
	VerifyCallback(signature string, payload []byte) bool
}

// Ensure the Tripay client implements Gateway.
var _ Gateway = (*tripay.Client)(nil)

// PaymentDeps holds the dependencies of a PaymentService.
// History and Locker are optional.
type PaymentDeps struct {
	Gateway    Gateway
	History    repository.HistoryRepository
	Locker     internalRedis.ReferenceLocker
	SiteDomain string
	Logger     *zap.Logger
	Now        func() time.Time
}

// PaymentService proxies checkout operations to the payment gateway.
type PaymentService struct {
	gateway    Gateway
	history    repository.HistoryRepository
	locker     internalRedis.ReferenceLocker
	siteDomain string
	logger     *zap.Logger
	now        func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(deps PaymentDeps) *PaymentService {
	s := &PaymentService{
		gateway:    deps.Gateway,
		history:    deps.History,
		locker:     deps.Locker,
		siteDomain: deps.SiteDomain,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// PaymentChannels returns the gateway's active payment channels.
func (s *PaymentService) PaymentChannels(ctx context.Context) ([]domain.PaymentChannel, error) {
	channels, err := s.gateway.PaymentChannels(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]domain.PaymentChannel, 0, len(channels))
	for _, ch := range channels {
		if ch.Active {
			active = append(active, ch)
		}
	}
	return active, nil
}

// CreateTransactionRequest contains the parameters for creating a transaction.
type CreateTransactionRequest struct {
	Method        string
	Amount        int64
	CustomerName  string
	CustomerPhone string
	GroupID       string
	OrderItems    []domain.OrderItem
	ReturnURL     string
}

// CreateTransactionResult contains the result of creating a transaction.
type CreateTransactionResult struct {
	// Payment is the gateway's transaction data, passed through to the client.
	Payment     map[string]any
	Transaction *domain.Transaction
	// HistoryErr is set when the server-side history could not be written.
	// The transaction itself was still created.
	HistoryErr error
}

// CreateTransaction opens a gateway transaction for an order.
func (s *PaymentService) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResult, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	merchantRef := NewMerchantRef(now)

	identifier := req.CustomerPhone
	if identifier == "" {
		identifier = req.GroupID
	}
	customerName := req.CustomerName
	if customerName == "" {
		customerName = "Customer-" + identifier
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = fmt.Sprintf("https://%s/pricing", s.siteDomain)
	}

	payment, err := s.gateway.CreateTransaction(ctx, tripay.CreateTransactionPayload{
		Method:        req.Method,
		MerchantRef:   merchantRef,
		Amount:        req.Amount,
		CustomerName:  customerName,
		CustomerEmail: "noreply@" + s.siteDomain,
		CustomerPhone: req.CustomerPhone,
		OrderItems:    req.OrderItems,
		ReturnURL:     returnURL,
		ExpiredTime:   now.Add(transactionLifetime).Unix(),
	})
	if err != nil {
		return nil, err
	}
	if payment == nil {
		payment = map[string]any{}
	}
	if _, ok := payment["merchant_ref"]; !ok {
		payment["merchant_ref"] = merchantRef
	}

	reference, _ := payment["reference"].(string)
	tx := &domain.Transaction{
		Reference:     reference,
		MerchantRef:   merchantRef,
		CustomerName:  customerName,
		CustomerPhone: req.CustomerPhone,
		GroupID:       req.GroupID,
		Method:        req.Method,
		Amount:        req.Amount,
		Status:        domain.TransactionStatusUnpaid,
		OrderItems:    req.OrderItems,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result := &CreateTransactionResult{Payment: payment, Transaction: tx}
	if reference == "" {
		s.logger.Warn("gateway response has no reference",
			zap.String("merchant_ref", merchantRef),
		)
		return result, nil
	}

	result.HistoryErr = s.recordCreated(ctx, tx)
	if result.HistoryErr != nil {
		s.logger.Warn("failed to record transaction history",
			zap.String("reference", reference),
			zap.String("merchant_ref", merchantRef),
			zap.Error(result.HistoryErr),
		)
	}

	return result, nil
}

func (s *PaymentService) recordCreated(ctx context.Context, tx *domain.Transaction) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.Create(ctx, tx); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return s.history.AppendEvent(ctx, &domain.TransactionEvent{
		ID:          uuid.New().String(),
		MerchantRef: tx.MerchantRef,
		Reference:   tx.Reference,
		Status:      tx.Status,
		Source:      domain.EventSourceCreated,
		ObservedAt:  tx.CreatedAt,
	})
}

func validateCreateRequest(req CreateTransactionRequest) error {
	if strings.TrimSpace(req.Method) == "" || req.Amount <= 0 || len(req.OrderItems) == 0 {
		return ErrMissingFields
	}
	if req.CustomerPhone == "" && req.GroupID == "" {
		return ErrMissingCustomer
	}
	return nil
}

// TransactionStatusResult contains the gateway's view of a transaction.
type TransactionStatusResult struct {
	Detail map[string]any
	Status domain.TransactionStatus
	At     time.Time
}

// TransactionStatus fetches the current state of a transaction from the gateway
// and mirrors a known status into the server-side history.
func (s *PaymentService) TransactionStatus(ctx context.Context, reference string) (*TransactionStatusResult, error) {
	if reference == "" {
		return nil, ErrMissingReference
	}

	detail, err := s.gateway.TransactionDetail(ctx, reference)
	if err != nil {
		var apiErr *tripay.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, apiErr.Message)
		}
		return nil, err
	}

	result := &TransactionStatusResult{Detail: detail, At: s.now()}
	status, _ := detail["status"].(string)
	result.Status = domain.TransactionStatus(status)

	if s.history != nil && result.Status != "" {
		merchantRef, _ := detail["merchant_ref"].(string)
		var paidAt *time.Time
		if result.Status == domain.TransactionStatusPaid {
			paidAt = unixField(detail["paid_at"])
		}
		if err := s.applyStatus(ctx, reference, merchantRef, result.Status, domain.EventSourceStatus, nil, result.At, paidAt); err != nil {
			s.logger.Warn("failed to mirror transaction status",
				zap.String("reference", reference),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// HandleCallback verifies and applies a gateway webhook.
// body must be the raw request body the signature was computed over.
func (s *PaymentService) HandleCallback(ctx context.Context, signature string, body []byte) (*domain.CallbackPayload, error) {
	if !s.gateway.VerifyCallback(signature, body) {
		return nil, ErrInvalidSignature
	}

	payload, err := parseCallback(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallbackPayload, err)
	}

	s.logger.Info("payment callback received",
		zap.String("reference", payload.Reference),
		zap.String("merchant_ref", payload.MerchantRef),
		zap.String("status", string(payload.Status)),
		zap.Int64("amount", payload.Amount),
		zap.Int64("total_amount", payload.TotalAmount),
	)

	if s.history == nil || payload.Status == "" {
		return payload, nil
	}

	key := payload.Reference
	if key == "" {
		key = payload.MerchantRef
	}
	if key == "" {
		return payload, nil
	}

	if s.locker != nil {
		token, err := s.locker.AcquireReferenceLock(ctx, key, callbackLockTTL)
		if err != nil {
			s.logger.Warn("callback lock unavailable", zap.String("reference", key), zap.Error(err))
		} else if token == "" {
			s.logger.Info("callback already being applied", zap.String("reference", key))
			return payload, nil
		} else {
			defer func() {
				if err := s.locker.ReleaseReferenceLock(context.WithoutCancel(ctx), key, token); err != nil {
					s.logger.Warn("failed to release callback lock", zap.String("reference", key), zap.Error(err))
				}
			}()
		}
	}

	now := s.now()
	var paidAt *time.Time
	if payload.Status == domain.TransactionStatusPaid {
		paidAt = &now
		if payload.PaidAt > 0 {
			t := time.Unix(payload.PaidAt, 0).UTC()
			paidAt = &t
		}
	}

	if err := s.applyStatus(ctx, key, payload.MerchantRef, payload.Status, domain.EventSourceCallback, body, now, paidAt); err != nil {
		s.logger.Warn("failed to apply callback",
			zap.String("reference", key),
			zap.String("status", string(payload.Status)),
			zap.Error(err),
		)
	}

	return payload, nil
}

// applyStatus updates the history row and logs the observation.
// Unknown transactions are skipped.
func (s *PaymentService) applyStatus(
	ctx context.Context,
	reference, merchantRef string,
	status domain.TransactionStatus,
	source domain.EventSource,
	raw []byte,
	at time.Time,
	paidAt *time.Time,
) error {
	if err := s.history.UpdateStatus(ctx, reference, status, at, paidAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("update status: %w", err)
	}

	if merchantRef == "" {
		merchantRef = reference
	}
	return s.history.AppendEvent(ctx, &domain.TransactionEvent{
		ID:          uuid.New().String(),
		MerchantRef: merchantRef,
		Reference:   reference,
		Status:      status,
		Source:      source,
		Payload:     raw,
		ObservedAt:  at,
	})
}

// parseCallback reads the webhook fields the service uses. Only a body that
// is not a JSON object is rejected; a field of an unexpected type reads as its
// zero value.
func parseCallback(body []byte) (*domain.CallbackPayload, error) {
	if !json.Valid(body) {
		return nil, errors.New("body is not valid JSON")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}

	amount, _ := intField(fields["amount"])
	total, _ := intField(fields["total_amount"])
	paidAt, _ := intField(fields["paid_at"])

	return &domain.CallbackPayload{
		Reference:         stringField(fields["reference"]),
		MerchantRef:       stringField(fields["merchant_ref"]),
		PaymentMethod:     stringField(fields["payment_method"]),
		PaymentMethodCode: stringField(fields["payment_method_code"]),
		TotalAmount:       total,
		Amount:            amount,
		Status:            domain.TransactionStatus(stringField(fields["status"])),
		PaidAt:            paidAt,
		Note:              stringField(fields["note"]),
	}, nil
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// intField reads a whole number sent as a JSON number or numeric string.
// Fractions are truncated.
func intField(v any) (int64, bool) {
	var raw string
	switch n := v.(type) {
	case json.Number:
		raw = n.String()
	case float64:
		return int64(n), true
	case string:
		raw = strings.TrimSpace(n)
	default:
		return 0, false
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// unixField reads a unix-seconds value decoded with json.Number.
func unixField(v any) *time.Time {
	secs, ok := intField(v)
	if !ok || secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
