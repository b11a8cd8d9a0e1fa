package tripay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"checkout/internal/config"
	"checkout/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*config.TripayConfig)) (*Client, *int32) {
	t.Helper()

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	cfg := config.TripayConfig{
		APIKey:          "api-key",
		PrivateKey:      testPrivateKey,
		MerchantCode:    "T0001",
		APIURL:          server.URL,
		Timeout:         5 * time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg, zap.NewNop()), &calls
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestPaymentChannels_SendsBearerAndDecodes(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/payment-channel", r.URL.Path)
		assert.Equal(t, "Bearer api-key", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": []map[string]any{
				{"group": "E-Wallet", "code": "QRIS", "name": "QRIS", "active": true, "icon_url": "https://x/qris.png", "total_fee": map[string]any{"flat": 750, "percent": "0.70"}},
				{"group": "Virtual Account", "code": "BRIVA", "name": "BRI VA", "active": false},
			},
		})
	})

	channels, err := client.PaymentChannels(context.Background())
	require.NoError(t, err)
	require.Len(t, channels, 2)
	assert.Equal(t, "QRIS", channels[0].Code)
	assert.True(t, channels[0].Active)
	assert.JSONEq(t, `{"flat":750,"percent":"0.70"}`, string(channels[0].TotalFee))
	assert.False(t, channels[1].Active)
}

func TestPaymentChannels_NotConfiguredMakesNoCall(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, func(cfg *config.TripayConfig) { cfg.APIKey = "" })

	_, err := client.PaymentChannels(context.Background())

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCreateTransaction_SignsPayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/create", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var payload CreateTransactionPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, GenerateSignature(testPrivateKey, "T0001", payload.MerchantRef, payload.Amount), payload.Signature)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "",
			"data": map[string]any{
				"reference":    "DEV-T0001000001",
				"merchant_ref": payload.MerchantRef,
				"amount":       payload.Amount,
				"expired_time": payload.ExpiredTime,
				"status":       "UNPAID",
			},
		})
	})

	data, err := client.CreateTransaction(context.Background(), CreateTransactionPayload{
		Method:      "QRIS",
		MerchantRef: "PREMIUM-1-abcdefg",
		Amount:      7000,
		OrderItems:  []domain.OrderItem{{Name: "Test", Price: 7000, Quantity: 1}},
		ExpiredTime: 1700086400,
	})

	require.NoError(t, err)
	assert.Equal(t, "DEV-T0001000001", data["reference"])
	assert.Equal(t, json.Number("1700086400"), data["expired_time"])
}

func TestCreateTransaction_RequiresAllCredentials(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}, func(cfg *config.TripayConfig) { cfg.MerchantCode = "" })

	_, err := client.CreateTransaction(context.Background(), CreateTransactionPayload{MerchantRef: "x", Amount: 1})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestCreateTransaction_RelaysGatewayMessage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid signature"})
	})

	_, err := client.CreateTransaction(context.Background(), CreateTransactionPayload{MerchantRef: "x", Amount: 1})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Invalid signature", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus())
}

func TestTransactionDetail_SuccessFalseIsAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/detail", r.URL.Path)
		assert.Equal(t, "DEV-T1 2", r.URL.Query().Get("reference"))
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Transaksi tidak ditemukan"})
	})

	_, err := client.TransactionDetail(context.Background(), "DEV-T1 2")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusOK, apiErr.StatusCode)
	assert.Equal(t, http.StatusBadRequest, apiErr.HTTPStatus())
}

func TestTransactionDetail_NonJSONBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := client.TransactionDetail(context.Background(), "DEV-T1")

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCircuitBreaker_OpensOnServerErrorsOnly(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("reference") == "missing" {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "not found"})
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "message": "upstream down"})
	})
	ctx := context.Background()

	// Rejections do not count against the breaker.
	for i := 0; i < 3; i++ {
		_, err := client.TransactionDetail(ctx, "missing")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
	}

	for i := 0; i < 2; i++ {
		_, err := client.TransactionDetail(ctx, "T1")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.HTTPStatus())
	}

	before := atomic.LoadInt32(calls)
	_, err := client.TransactionDetail(ctx, "T1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, before, atomic.LoadInt32(calls))
}

func TestVerifyCallback_UsesConfiguredKey(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	payload := []byte(`{"reference":"T1","status":"PAID"}`)

	assert.True(t, client.VerifyCallback("3274fc5fe0f16c7a98d0fc769f97506359938497d750ac017e366270d23cd277", payload))
	assert.False(t, client.VerifyCallback("deadbeef", payload))
}
