package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaReleaseLockIfMatch deletes the lock only when the stored token matches,
// so a slow holder cannot release a lock someone else re-acquired.
const luaReleaseLockIfMatch = `
local lockKey = KEYS[1]
local token = ARGV[1]
if redis.call('GET', lockKey) == token then
  return redis.call('DEL', lockKey)
end
return 0
`

// AcquireTransitionLock takes the per-order transition lock. Two admins
// racing the same order through the state machine should not interleave
// side effects; the loser gets acquired=false and reports a conflict.
func AcquireTransitionLock(ctx context.Context, rdb *rd.Client, orderID uint, token string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, TransitionLockKey(orderID), token, ttl).Result()
}

// ReleaseTransitionLock releases the lock iff token still owns it.
func ReleaseTransitionLock(ctx context.Context, rdb *rd.Client, orderID uint, token string) error {
	_, err := rdb.Eval(ctx, luaReleaseLockIfMatch, []string{TransitionLockKey(orderID)}, token).Int()
	return err
}
