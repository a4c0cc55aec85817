package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaMarkOnce claims a SETNX mark with a TTL in one round trip.
const luaMarkOnce = `
local markKey = KEYS[1]
local ttlSec = tonumber(ARGV[1])

if redis.call('SETNX', markKey, '1') == 1 then
  redis.call('EXPIRE', markKey, ttlSec)
  return 1
end
return 0
`

// MarkDispatchedOnce claims the dispatch mark for one (order, status) pair.
// The first caller gets true; a replayed transition gets false and must not
// enqueue a second notification event.
func MarkDispatchedOnce(ctx context.Context, rdb *rd.Client, orderID uint, status string) (bool, error) {
	const markTTLSeconds = int64((7 * 24 * time.Hour) / time.Second)

	n, err := rdb.Eval(ctx, luaMarkOnce, []string{DispatchMarkKey(orderID, status)}, markTTLSeconds).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
