package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	inFlightTTL       = time.Minute
)

// cachedResponse stores the response for idempotent requests.
type cachedResponse struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	BodyHash   string          `json:"body_hash"`
	Headers    http.Header     `json:"headers"`
}

// responseWriter wraps gin.ResponseWriter to capture the response.
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// idempotencyKey scopes a client-supplied key to the caller and route, so two
// clients picking the same key never share a response.
func idempotencyKey(clientIP, path, key string) string {
	return "idempotency:" + clientIP + ":" + path + ":" + key
}

// Idempotency replays the stored response of a POST carrying an
// Idempotency-Key header. A key reused with a different body is rejected
// with 409, as is a key whose first request is still running.
func Idempotency(client redis.Cmdable, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		rawBody, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortJSON(c, http.StatusBadRequest, "Invalid request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(rawBody))
		bodyHash := hashBody(rawBody)

		ctx := c.Request.Context()
		cacheKey := idempotencyKey(c.ClientIP(), c.Request.URL.Path, key)
		inFlightKey := cacheKey + ":inflight"

		cached, err := getCachedResponse(ctx, client, cacheKey)
		if err != nil && !errors.Is(err, redis.Nil) {
			// Redis error - proceed without idempotency.
			logger.Warn("idempotency lookup failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if cached != nil {
			if cached.BodyHash != "" && cached.BodyHash != bodyHash {
				abortJSON(c, http.StatusConflict, "Idempotency key already used for a different request body.")
				return
			}
			for k, v := range cached.Headers {
				for _, val := range v {
					c.Header(k, val)
				}
			}
			c.Header("X-Cache-Hit", "true")
			c.Data(cached.StatusCode, "application/json", cached.Body)
			c.Abort()
			return
		}

		acquired, err := client.SetNX(ctx, inFlightKey, bodyHash, inFlightTTL).Result()
		if err != nil {
			logger.Warn("idempotency lock failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			abortJSON(c, http.StatusConflict, "A request with this idempotency key is already in progress.")
			return
		}
		defer client.Del(context.WithoutCancel(ctx), inFlightKey)

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w

		c.Next()

		// Server errors are not cached so the client can retry.
		if c.Writer.Status() >= 200 && c.Writer.Status() < 500 {
			response := cachedResponse{
				StatusCode: c.Writer.Status(),
				Body:       w.body.Bytes(),
				BodyHash:   bodyHash,
				Headers:    extractResponseHeaders(c),
			}
			if err := setCachedResponse(context.WithoutCancel(ctx), client, cacheKey, &response, idempotencyTTL); err != nil {
				logger.Warn("failed to store idempotent response", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

// getCachedResponse retrieves a cached response from Redis.
func getCachedResponse(ctx context.Context, client redis.Cmdable, key string) (*cachedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

// setCachedResponse stores a response in Redis.
func setCachedResponse(ctx context.Context, client redis.Cmdable, key string, response *cachedResponse, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}

	return client.Set(ctx, key, data, ttl).Err()
}

// extractResponseHeaders extracts headers to cache.
// Set-Cookie is not replayed so a retry never rewinds the history cookie.
func extractResponseHeaders(c *gin.Context) http.Header {
	headers := make(http.Header)
	if ct := c.Writer.Header().Get("Content-Type"); ct != "" {
		headers.Set("Content-Type", ct)
	}
	return headers
}

func hashBody(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}
