package repository

import (
	"context"
	"time"

	"checkout/internal/domain"
)

// HistoryQuery selects one page of a customer's transactions.
type HistoryQuery struct {
	Identifier string
	GroupID    bool
	Page       int
	PerPage    int
}

// HistoryPage is one page of transactions, newest first.
type HistoryPage struct {
	Transactions []*domain.Transaction
	TotalCount   int
}

// HistoryRepository defines the server-side transaction history.
type HistoryRepository interface {
	// Create persists a newly created transaction.
	Create(ctx context.Context, tx *domain.Transaction) error

	// UpdateStatus sets the status of a transaction identified by gateway
	// reference or merchant reference. paidAt is stored when non-nil.
	UpdateStatus(ctx context.Context, reference string, status domain.TransactionStatus, at time.Time, paidAt *time.Time) error

	// AppendEvent adds an entry to the append-only transaction log.
	AppendEvent(ctx context.Context, event *domain.TransactionEvent) error

	// ListByCustomer returns a page of a phone number's or group's transactions.
	ListByCustomer(ctx context.Context, q HistoryQuery) (*HistoryPage, error)
}

// CustomerRepository reads the bot's user and group tables.
type CustomerRepository interface {
	// GroupName returns the name of a bot group.
	GroupName(ctx context.Context, groupID string) (string, error)

	// UserLID returns the WhatsApp LID registered for a phone number.
	UserLID(ctx context.Context, phone string) (string, error)

	// PushName returns the display name recorded for a LID.
	// Returns an empty string if none is recorded.
	PushName(ctx context.Context, lid string) (string, error)
}
