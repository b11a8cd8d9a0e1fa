package domain

import (
	"encoding/json"
	"time"
)

// EventSource identifies what observed a status.
type EventSource string

const (
	EventSourceCreated  EventSource = "created"
	EventSourceStatus   EventSource = "status_checked"
	EventSourceCallback EventSource = "callback"
)

// TransactionEvent is one entry of the append-only transaction log.
type TransactionEvent struct {
	ID          string
	MerchantRef string
	Reference   string
	Status      TransactionStatus
	Source      EventSource
	Payload     json.RawMessage
	ObservedAt  time.Time
}

// CallbackPayload holds the gateway webhook fields the service reads.
// PaidAt is unix seconds, zero when absent.
type CallbackPayload struct {
	Reference         string
	MerchantRef       string
	PaymentMethod     string
	PaymentMethodCode string
	TotalAmount       int64
	Amount            int64
	Status            TransactionStatus
	PaidAt            int64
	Note              string
}

// Customer is a bot user or group resolved for checkout confirmation.
type Customer struct {
	Type        string `json:"type"`
	ID          string `json:"id,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	LID         string `json:"lid,omitempty"`
	Name        string `json:"name"`
}

const (
	CustomerTypeUser  = "user"
	CustomerTypeGroup = "group"
)
