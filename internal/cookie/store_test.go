package cookie

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout/internal/domain"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(cookies ...*http.Cookie) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		c.Request.AddCookie(ck)
	}
	return c, w
}

func encoded(t *testing.T, name string, v any) *http.Cookie {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return &http.Cookie{Name: name, Value: url.QueryEscape(string(raw))}
}

func record(i int) domain.TransactionRecord {
	return domain.TransactionRecord{
		Reference:   fmt.Sprintf("DEV-T%04d", i),
		MerchantRef: fmt.Sprintf("PREMIUM-%d-abcdefg", i),
		Method:      "QRIS",
		Amount:      7000,
		Status:      domain.TransactionStatusUnpaid,
		CreatedAt:   "2026-01-01T00:00:00Z",
		OrderItems:  []domain.OrderItem{{Name: "User Premium 15 Hari", Price: 7000, Quantity: 1}},
	}
}

func TestPrepend_NewestFirst(t *testing.T) {
	history := []domain.TransactionRecord{record(1)}

	out := Prepend(history, record(2))

	require.Len(t, out, 2)
	assert.Equal(t, "DEV-T0002", out[0].Reference)
	assert.Equal(t, "DEV-T0001", out[1].Reference)
	assert.Len(t, history, 1)
}

func TestPrepend_EvictsOldestBeyondCap(t *testing.T) {
	var history []domain.TransactionRecord
	for i := 1; i <= MaxHistory; i++ {
		history = Prepend(history, record(i))
	}
	require.Len(t, history, MaxHistory)
	assert.Equal(t, "DEV-T0001", history[MaxHistory-1].Reference)

	history = Prepend(history, record(51))

	require.Len(t, history, MaxHistory)
	assert.Equal(t, "DEV-T0051", history[0].Reference)
	assert.Equal(t, "DEV-T0002", history[MaxHistory-1].Reference)
	for _, rec := range history {
		assert.NotEqual(t, "DEV-T0001", rec.Reference)
	}
}

func TestApplyStatus(t *testing.T) {
	history := []domain.TransactionRecord{record(1), record(2)}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	assert.True(t, ApplyStatus(history, "DEV-T0002", domain.TransactionStatusPaid, at))
	assert.Equal(t, domain.TransactionStatusPaid, history[1].Status)
	assert.Equal(t, "2026-01-02T03:04:05Z", history[1].UpdatedAt)
	assert.Equal(t, domain.TransactionStatusUnpaid, history[0].Status)
	assert.Empty(t, history[0].UpdatedAt)

	assert.False(t, ApplyStatus(history, "DEV-UNKNOWN", domain.TransactionStatusPaid, at))
	assert.Len(t, history, 2)
}

func TestStore_HistoryRoundTripThroughCookie(t *testing.T) {
	store := NewStore("shiroine.my.id", false)
	c, w := newContext()

	require.NoError(t, store.SaveHistory(c, []domain.TransactionRecord{record(1)}))

	resp := w.Result()
	cookies := resp.Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, HistoryName, cookies[0].Name)
	assert.Equal(t, "/", cookies[0].Path)
	assert.Equal(t, maxAge, cookies[0].MaxAge)
	assert.False(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Empty(t, cookies[0].Domain)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)

	next, _ := newContext(cookies[0])
	history, err := store.History(next)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "DEV-T0001", history[0].Reference)
	assert.Equal(t, "User Premium 15 Hari", history[0].OrderItems[0].Name)
}

func TestStore_ProductionScopesCookie(t *testing.T) {
	store := NewStore("shiroine.my.id", true)
	c, w := newContext()

	require.NoError(t, store.SaveCart(c, json.RawMessage(`[{"id":"user-15d"}]`)))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, "shiroine.my.id", cookies[0].Domain)
}

func TestStore_SaveHistoryTrims(t *testing.T) {
	store := NewStore("", false)
	c, w := newContext()

	var history []domain.TransactionRecord
	for i := 0; i < MaxHistory+5; i++ {
		history = append(history, record(i))
	}
	require.NoError(t, store.SaveHistory(c, history))

	next, _ := newContext(w.Result().Cookies()...)
	got, err := store.History(next)
	require.NoError(t, err)
	assert.Len(t, got, MaxHistory)
}

func TestStore_MissingAndMalformedCookies(t *testing.T) {
	store := NewStore("", false)

	c, _ := newContext()
	history, err := store.History(c)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.NotNil(t, history)

	c, _ = newContext(&http.Cookie{Name: HistoryName, Value: url.QueryEscape("{not json")})
	history, err = store.History(c)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Empty(t, history)

	c, _ = newContext(&http.Cookie{Name: CartName, Value: url.QueryEscape("[1,")})
	cart, err := store.Cart(c)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.JSONEq(t, `[]`, string(cart))
}

func TestStore_CartEcho(t *testing.T) {
	store := NewStore("", false)
	items := []map[string]any{{"id": "group-1m", "qty": 1}}
	c, _ := newContext(encoded(t, CartName, items))

	cart, err := store.Cart(c)

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"group-1m","qty":1}]`, string(cart))
}
