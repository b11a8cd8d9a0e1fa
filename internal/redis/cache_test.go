package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkout/internal/domain"
)

func TestCacheStore_Customer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewCacheStore(client)
	ctx := context.Background()

	miss, err := store.GetCustomer(ctx, domain.CustomerTypeGroup, "1203630@g.us")
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, store.SetCustomer(ctx, "1203630@g.us", &domain.Customer{
		Type: domain.CustomerTypeGroup,
		ID:   "1203630@g.us",
		Name: "Shiroine Squad",
	}))
	assert.Equal(t, CustomerCacheTTL, mr.TTL("cache:customer:group:1203630@g.us"))

	hit, err := store.GetCustomer(ctx, domain.CustomerTypeGroup, "1203630@g.us")
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, "Shiroine Squad", hit.Name)

	other, err := store.GetCustomer(ctx, domain.CustomerTypeUser, "1203630@g.us")
	require.NoError(t, err)
	assert.Nil(t, other)

	mr.FastForward(CustomerCacheTTL)
	expired, err := store.GetCustomer(ctx, domain.CustomerTypeGroup, "1203630@g.us")
	require.NoError(t, err)
	assert.Nil(t, expired)
}
