package tripay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"checkout/internal/config"
	"checkout/internal/domain"
)

const maxResponseBytes = 1 << 20

// CreateTransactionPayload is the body of POST /transaction/create.
// Signature is filled in by the client.
type CreateTransactionPayload struct {
	Method        string             `json:"method"`
	MerchantRef   string             `json:"merchant_ref"`
	Amount        int64              `json:"amount"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	CustomerPhone string             `json:"customer_phone"`
	OrderItems    []domain.OrderItem `json:"order_items"`
	ReturnURL     string             `json:"return_url"`
	ExpiredTime   int64              `json:"expired_time"`
	Signature     string             `json:"signature"`
}

// envelope is the response wrapper used by every gateway endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the Tripay merchant API.
type Client struct {
	baseURL      string
	apiKey       string
	privateKey   string
	merchantCode string
	httpClient   *http.Client
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg config.TripayConfig, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		baseURL:      strings.TrimRight(cfg.APIURL, "/"),
		apiKey:       cfg.APIKey,
		privateKey:   cfg.PrivateKey,
		merchantCode: cfg.MerchantCode,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "tripay",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isRejection(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// HasAPIKey reports whether read-only calls can be made.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// CanCreateTransactions reports whether signed calls can be made.
func (c *Client) CanCreateTransactions() bool {
	return c.apiKey != "" && c.privateKey != "" && c.merchantCode != ""
}

// PaymentChannels fetches every channel configured for the merchant.
func (c *Client) PaymentChannels(ctx context.Context) ([]domain.PaymentChannel, error) {
	if !c.HasAPIKey() {
		return nil, ErrNotConfigured
	}

	data, err := c.call(ctx, http.MethodGet, "/merchant/payment-channel", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch payment channels: %w", err)
	}

	var channels []domain.PaymentChannel
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &channels); err != nil {
			return nil, fmt.Errorf("decode payment channels: %w: %v", ErrInvalidResponse, err)
		}
	}
	return channels, nil
}

// CreateTransaction signs the payload and opens a closed-payment transaction.
// The gateway's data object is returned untouched.
func (c *Client) CreateTransaction(ctx context.Context, payload CreateTransactionPayload) (map[string]any, error) {
	if !c.CanCreateTransactions() {
		return nil, ErrNotConfigured
	}

	payload.Signature = GenerateSignature(c.privateKey, c.merchantCode, payload.MerchantRef, payload.Amount)

	data, err := c.call(ctx, http.MethodPost, "/transaction/create", payload)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return decodeObject(data)
}

// TransactionDetail fetches a transaction by the gateway reference.
func (c *Client) TransactionDetail(ctx context.Context, reference string) (map[string]any, error) {
	if !c.HasAPIKey() {
		return nil, ErrNotConfigured
	}

	data, err := c.call(ctx, http.MethodGet, "/transaction/detail?reference="+url.QueryEscape(reference), nil)
	if err != nil {
		return nil, fmt.Errorf("transaction detail: %w", err)
	}
	return decodeObject(data)
}

// VerifyCallback checks a webhook signature against the merchant private key.
func (c *Client) VerifyCallback(signature string, payload []byte) bool {
	return VerifyCallbackSignature(c.privateKey, signature, payload)
}

// call runs one request through the circuit breaker. Nothing is retried.
func (c *Client) call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, method, path, body)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	return result.(json.RawMessage), nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		message := env.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		c.logger.Debug("gateway rejected request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	return env.Data, nil
}

func decodeObject(data json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: empty data", ErrInvalidResponse)
	}
	return obj, nil
}
