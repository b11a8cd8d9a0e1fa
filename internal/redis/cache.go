package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"checkout/internal/domain"
)

// CustomerCacheTTL bounds how stale a renamed user or group can appear at checkout.
const CustomerCacheTTL = 5 * time.Minute

const customerCachePrefix = "cache:customer:"

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetCustomer retrieves a verified customer from cache.
// Returns nil, nil on a cache miss.
func (s *CacheStore) GetCustomer(ctx context.Context, customerType, identifier string) (*domain.Customer, error) {
	data, err := s.client.Get(ctx, customerKey(customerType, identifier)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var customer domain.Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// SetCustomer stores a verified customer in cache.
func (s *CacheStore) SetCustomer(ctx context.Context, identifier string, customer *domain.Customer) error {
	data, err := json.Marshal(customer)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, customerKey(customer.Type, identifier), data, CustomerCacheTTL).Err()
}

func customerKey(customerType, identifier string) string {
	return customerCachePrefix + customerType + ":" + identifier
}
