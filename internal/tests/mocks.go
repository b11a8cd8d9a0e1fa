package tests

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"checkout/internal/domain"
	"checkout/internal/repository"
	"checkout/internal/tripay"
)

const (
	testPrivateKey   = "DEV-private"
	testMerchantCode = "T0001"
	testDomain       = "shiroine.my.id"
)

// ──────────────────────────────────────────────
// MOCK GATEWAY
// ──────────────────────────────────────────────

// MockGateway is an in-memory payment gateway. It signs and verifies like
// the real one and keeps created transactions by reference.
type MockGateway struct {
	mu           sync.Mutex
	transactions map[string]map[string]any
	channels     []domain.PaymentChannel
	seq          int

	// Last create payload received.
	LastPayload tripay.CreateTransactionPayload

	// Counters
	CreateCallCount int32
	DetailCallCount int32

	// Error injection
	CreateError   error
	DetailError   error
	ChannelsError error

	// OmitReference makes create responses lack a reference.
	OmitReference bool
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		transactions: make(map[string]map[string]any),
	}
}

// SetChannels sets the channel list returned by PaymentChannels.
func (m *MockGateway) SetChannels(channels []domain.PaymentChannel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = channels
}

// SetStatus changes the status the gateway reports for a reference.
func (m *MockGateway) SetStatus(reference string, status domain.TransactionStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tx, ok := m.transactions[reference]; ok {
		tx["status"] = string(status)
	}
}

func (m *MockGateway) PaymentChannels(ctx context.Context) ([]domain.PaymentChannel, error) {
	if m.ChannelsError != nil {
		return nil, m.ChannelsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PaymentChannel, len(m.channels))
	copy(out, m.channels)
	return out, nil
}

func (m *MockGateway) CreateTransaction(ctx context.Context, payload tripay.CreateTransactionPayload) (map[string]any, error) {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return nil, m.CreateError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	payload.Signature = tripay.GenerateSignature(testPrivateKey, testMerchantCode, payload.MerchantRef, payload.Amount)
	m.LastPayload = payload

	m.seq++
	reference := fmt.Sprintf("DEV-T%04d", m.seq)
	tx := map[string]any{
		"reference":    reference,
		"merchant_ref": payload.MerchantRef,
		"amount":       payload.Amount,
		"status":       string(domain.TransactionStatusUnpaid),
		"checkout_url": "https://tripay.co.id/checkout/" + reference,
	}
	if m.OmitReference {
		delete(tx, "reference")
	} else {
		m.transactions[reference] = tx
	}

	out := make(map[string]any, len(tx))
	for k, v := range tx {
		out[k] = v
	}
	return out, nil
}

func (m *MockGateway) TransactionDetail(ctx context.Context, reference string) (map[string]any, error) {
	atomic.AddInt32(&m.DetailCallCount, 1)
	if m.DetailError != nil {
		return nil, m.DetailError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[reference]
	if !ok {
		return nil, &tripay.APIError{StatusCode: 200, Message: "Transaction not found"}
	}
	out := make(map[string]any, len(tx))
	for k, v := range tx {
		out[k] = v
	}
	return out, nil
}

func (m *MockGateway) VerifyCallback(signature string, payload []byte) bool {
	return tripay.VerifyCallbackSignature(testPrivateKey, signature, payload)
}

// Sign returns the callback signature the gateway would send for body.
func Sign(body []byte) string {
	return tripay.GenerateCallbackSignature(testPrivateKey, body)
}

// ──────────────────────────────────────────────
// MOCK HISTORY REPOSITORY
// ──────────────────────────────────────────────

// MockHistoryRepository is a mock implementation of HistoryRepository.
type MockHistoryRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	events       []*domain.TransactionEvent

	// Counters
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
	AppendEventError  error
}

// NewMockHistoryRepository creates a new mock history repository.
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

// AddTransaction adds a transaction to the mock repository.
func (m *MockHistoryRepository) AddTransaction(tx *domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.Reference] = tx
}

func (m *MockHistoryRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.transactions[tx.Reference]; exists {
		return repository.ErrDuplicate
	}
	copy := *tx
	m.transactions[tx.Reference] = &copy
	return nil
}

func (m *MockHistoryRepository) UpdateStatus(ctx context.Context, reference string, status domain.TransactionStatus, at time.Time, paidAt *time.Time) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.transactions {
		if tx.Reference == reference || tx.MerchantRef == reference {
			tx.Status = status
			tx.UpdatedAt = at
			if paidAt != nil {
				p := *paidAt
				tx.PaidAt = &p
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *MockHistoryRepository) AppendEvent(ctx context.Context, event *domain.TransactionEvent) error {
	if m.AppendEventError != nil {
		return m.AppendEventError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockHistoryRepository) ListByCustomer(ctx context.Context, q repository.HistoryQuery) (*repository.HistoryPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*domain.Transaction
	for _, tx := range m.transactions {
		id := tx.CustomerPhone
		if q.GroupID {
			id = tx.GroupID
		}
		if id == q.Identifier {
			matched = append(matched, tx)
		}
	}
	// Newest first.
	for i := 1; i < len(matched); i++ {
		for j := i; j > 0 && matched[j].CreatedAt.After(matched[j-1].CreatedAt); j-- {
			matched[j], matched[j-1] = matched[j-1], matched[j]
		}
	}

	page := &repository.HistoryPage{TotalCount: len(matched), Transactions: []*domain.Transaction{}}
	start := (q.Page - 1) * q.PerPage
	for i := start; i < len(matched) && i < start+q.PerPage; i++ {
		page.Transactions = append(page.Transactions, matched[i])
	}
	return page, nil
}

// GetTransaction returns a transaction by reference (for test assertions).
func (m *MockHistoryRepository) GetTransaction(reference string) *domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.transactions[reference]
}

// Events returns the events appended for a merchant reference.
func (m *MockHistoryRepository) Events(merchantRef string) []*domain.TransactionEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TransactionEvent
	for _, e := range m.events {
		if e.MerchantRef == merchantRef {
			out = append(out, e)
		}
	}
	return out
}

// CountTransactions returns the number of stored transactions.
func (m *MockHistoryRepository) CountTransactions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions)
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER REPOSITORY
// ──────────────────────────────────────────────

// MockCustomerRepository is a mock implementation of CustomerRepository.
type MockCustomerRepository struct {
	Groups    map[string]string
	UserLIDs  map[string]string
	PushNames map[string]string

	// Error injection
	PushNameError error
}

// NewMockCustomerRepository creates a new mock customer repository.
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{
		Groups:    make(map[string]string),
		UserLIDs:  make(map[string]string),
		PushNames: make(map[string]string),
	}
}

func (m *MockCustomerRepository) GroupName(ctx context.Context, groupID string) (string, error) {
	name, ok := m.Groups[groupID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return name, nil
}

func (m *MockCustomerRepository) UserLID(ctx context.Context, phone string) (string, error) {
	lid, ok := m.UserLIDs[phone]
	if !ok || lid == "" {
		return "", repository.ErrNotFound
	}
	return lid, nil
}

func (m *MockCustomerRepository) PushName(ctx context.Context, lid string) (string, error) {
	if m.PushNameError != nil {
		return "", m.PushNameError
	}
	return m.PushNames[lid], nil
}

// ──────────────────────────────────────────────
// MOCK CUSTOMER CACHE
// ──────────────────────────────────────────────

// MockCustomerCache is a mock implementation of CustomerCache.
type MockCustomerCache struct {
	mu      sync.Mutex
	entries map[string]domain.Customer
}

// NewMockCustomerCache creates a new mock customer cache.
func NewMockCustomerCache() *MockCustomerCache {
	return &MockCustomerCache{entries: make(map[string]domain.Customer)}
}

func (m *MockCustomerCache) GetCustomer(ctx context.Context, customerType, identifier string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.entries[customerType+":"+identifier]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *MockCustomerCache) SetCustomer(ctx context.Context, identifier string, customer *domain.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[customer.Type+":"+identifier] = *customer
	return nil
}

// Len returns the number of cached customers.
func (m *MockCustomerCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of ReferenceLocker.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]string),
	}
}

func (m *MockLockStore) AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[reference]; held {
		return "", nil
	}
	token := "token-" + reference
	m.locks[reference] = token
	return token, nil
}

func (m *MockLockStore) ReleaseReferenceLock(ctx context.Context, reference, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[reference] == token {
		delete(m.locks, reference)
	}
	return nil
}

// Hold takes the lock for reference as if another callback were running.
func (m *MockLockStore) Hold(reference string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[reference] = "held-elsewhere"
}

// IsLocked checks if a reference is locked (for test assertions).
func (m *MockLockStore) IsLocked(reference string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[reference]
	return ok
}

// ──────────────────────────────────────────────
// HELPERS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)

// callbackBody encodes a callback payload as the gateway would send it.
func callbackBody(reference, merchantRef string, status domain.TransactionStatus, amount int64) []byte {
	body, _ := json.Marshal(map[string]any{
		"reference":    reference,
		"merchant_ref": merchantRef,
		"status":       status,
		"amount":       amount,
		"total_amount": amount,
	})
	return body
}
