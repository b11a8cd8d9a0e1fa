package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token, so a lock
// that expired and was taken by another request is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireReferenceLock attempts to lock a transaction reference while a
// callback for it is applied. Returns the lock token, or an empty token if
// the lock is already held.
func (s *LockStore) AcquireReferenceLock(ctx context.Context, reference string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, referenceLockKey(reference), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseReferenceLock releases a lock previously acquired with token.
func (s *LockStore) ReleaseReferenceLock(ctx context.Context, reference, token string) error {
	return releaseScript.Run(ctx, s.client, []string{referenceLockKey(reference)}, token).Err()
}

func referenceLockKey(reference string) string {
	return fmt.Sprintf("lock:transaction:%s", reference)
}
