package domain

import "time"

// TransactionStatus is the payment status reported by the gateway.
// Values are stored verbatim; the gateway may report statuses outside the
// constants below and those are kept as-is.
type TransactionStatus string

const (
	TransactionStatusUnpaid  TransactionStatus = "UNPAID"
	TransactionStatusPaid    TransactionStatus = "PAID"
	TransactionStatusExpired TransactionStatus = "EXPIRED"
	TransactionStatusFailed  TransactionStatus = "FAILED"
)

// OrderItem is a single line of a checkout order.
type OrderItem struct {
	SKU        string `json:"sku,omitempty"`
	Name       string `json:"name" binding:"required"`
	Price      int64  `json:"price" binding:"gte=0"`
	Quantity   int    `json:"quantity" binding:"gte=1"`
	ProductURL string `json:"product_url,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// TransactionRecord is the client-visible history entry kept in the
// paymentHistory cookie. Field names follow the cookie's JSON layout.
type TransactionRecord struct {
	Reference   string `json:"reference"`
	MerchantRef string `json:"merchantRef"`
	// CustomerName and PaidAt are only filled for server-side listings.
	CustomerName string            `json:"customerName,omitempty"`
	Method       string            `json:"method"`
	Amount       int64             `json:"amount"`
	Status       TransactionStatus `json:"status"`
	CreatedAt    string            `json:"createdAt"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
	PaidAt       string            `json:"paidAt,omitempty"`
	OrderItems   []OrderItem       `json:"orderItems"`
}

// Transaction is the server-side history row for a created transaction.
type Transaction struct {
	Reference     string
	MerchantRef   string
	CustomerName  string
	CustomerPhone string
	GroupID       string
	Method        string
	Amount        int64
	Status        TransactionStatus
	OrderItems    []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
	PaidAt        *time.Time
}

// Record converts the server-side row into its cookie representation.
func (t *Transaction) Record() TransactionRecord {
	rec := TransactionRecord{
		Reference:   t.Reference,
		MerchantRef: t.MerchantRef,
		Method:      t.Method,
		Amount:      t.Amount,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		OrderItems:  t.OrderItems,
	}
	if !t.UpdatedAt.IsZero() && !t.UpdatedAt.Equal(t.CreatedAt) {
		rec.UpdatedAt = t.UpdatedAt.Format(time.RFC3339)
	}
	return rec
}
