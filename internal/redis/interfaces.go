package redis

import (
	"context"
	"time"

	"checkout/internal/domain"
)

// ReferenceLocker defines the interface for per-transaction locking.
type ReferenceLocker interface {
	AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (string, error)
	ReleaseReferenceLock(ctx context.Context, reference, token string) error
}

// CustomerCache defines the interface for caching customer lookups.
type CustomerCache interface {
	GetCustomer(ctx context.Context, customerType, identifier string) (*domain.Customer, error)
	SetCustomer(ctx context.Context, identifier string, customer *domain.Customer) error
}

// Ensure concrete types implement interfaces.
var (
	_ ReferenceLocker = (*LockStore)(nil)
	_ CustomerCache   = (*CacheStore)(nil)
)
