package cookie

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"checkout/internal/domain"
)

const (
	HistoryName = "paymentHistory"
	CartName    = "cart"

	// MaxHistory is the number of records kept in the history cookie.
	MaxHistory = 50

	maxAge = 365 * 24 * 60 * 60
)

// ErrMalformed is returned when a cookie exists but does not hold valid JSON.
var ErrMalformed = errors.New("malformed cookie value")

// Store reads and writes the client-side history and cart cookies.
type Store struct {
	domain string
	secure bool
}

// NewStore creates a Store. In production cookies are Secure and scoped to
// the apex domain so subdomains share them.
func NewStore(siteDomain string, production bool) *Store {
	s := &Store{secure: production}
	if production && siteDomain != "" {
		s.domain = "." + siteDomain
	}
	return s
}

// History returns the records stored in the history cookie. A missing cookie
// is an empty history; a malformed one is an empty history plus ErrMalformed.
func (s *Store) History(c *gin.Context) ([]domain.TransactionRecord, error) {
	value, err := c.Cookie(HistoryName)
	if err != nil || value == "" {
		return []domain.TransactionRecord{}, nil
	}

	var history []domain.TransactionRecord
	if err := json.Unmarshal([]byte(value), &history); err != nil {
		return []domain.TransactionRecord{}, fmt.Errorf("%s: %w: %v", HistoryName, ErrMalformed, err)
	}
	if history == nil {
		history = []domain.TransactionRecord{}
	}
	return history, nil
}

// SaveHistory writes the history cookie, trimming to MaxHistory entries.
func (s *Store) SaveHistory(c *gin.Context, history []domain.TransactionRecord) error {
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	return s.write(c, HistoryName, history)
}

// Cart returns the raw cart JSON, or an empty list when no cart is stored.
func (s *Store) Cart(c *gin.Context) (json.RawMessage, error) {
	value, err := c.Cookie(CartName)
	if err != nil || value == "" {
		return json.RawMessage("[]"), nil
	}
	if !json.Valid([]byte(value)) {
		return json.RawMessage("[]"), fmt.Errorf("%s: %w", CartName, ErrMalformed)
	}
	return json.RawMessage(value), nil
}

// SaveCart writes the cart cookie.
func (s *Store) SaveCart(c *gin.Context, items json.RawMessage) error {
	return s.write(c, CartName, items)
}

func (s *Store) write(c *gin.Context, name string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s cookie: %w", name, err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, string(encoded), maxAge, "/", s.domain, s.secure, false)
	return nil
}

// Prepend puts record at the head of history and evicts the oldest entries
// beyond MaxHistory. The input slice is not modified.
func Prepend(history []domain.TransactionRecord, record domain.TransactionRecord) []domain.TransactionRecord {
	size := len(history) + 1
	if size > MaxHistory {
		size = MaxHistory
	}
	out := make([]domain.TransactionRecord, 0, size)
	out = append(out, record)
	for _, rec := range history {
		if len(out) == MaxHistory {
			break
		}
		out = append(out, rec)
	}
	return out
}

// ApplyStatus sets status and updatedAt on the first record matching
// reference. It reports whether a record matched; other records are untouched
// and nothing is added when none matches.
func ApplyStatus(history []domain.TransactionRecord, reference string, status domain.TransactionStatus, at time.Time) bool {
	for i := range history {
		if history[i].Reference == reference {
			history[i].Status = status
			history[i].UpdatedAt = at.Format(time.RFC3339)
			return true
		}
	}
	return false
}
