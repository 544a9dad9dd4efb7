package orderthrottle

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "alpaca-mcp:order-throttle:"

var (
	ErrInvalidWindow      = errors.New("order throttle window must be positive")
	ErrUnexpectedResponse = errors.New("unexpected order throttle response")
)

// fixedWindowScript counts the key and starts its expiry on the first hit of a window.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])

local current = redis.call("INCR", key)
if current == 1 then
  redis.call("PEXPIRE", key, window_ms)
end

local ttl = redis.call("PTTL", key)
if ttl < 0 then
  ttl = window_ms
end

if current > limit then
  return {0, ttl}
end
return {1, ttl}
`)

// RedisThrottle shares one submission window across every server process
// pointed at the same redis.
type RedisThrottle struct {
	client    *redis.Client
	maxOrders int
	window    time.Duration
	prefix    string
}

func NewRedisThrottle(client *redis.Client, maxOrders int, window time.Duration, prefix string) *RedisThrottle {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &RedisThrottle{
		client:    client,
		maxOrders: maxOrders,
		window:    window,
		prefix:    prefix,
	}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string, _ time.Time) (bool, time.Duration, error) {
	windowMS := t.window.Milliseconds()
	if windowMS <= 0 {
		return false, 0, ErrInvalidWindow
	}

	res, err := fixedWindowScript.Run(ctx, t.client, []string{t.prefix + key}, t.maxOrders, windowMS).Result()
	if err != nil {
		return false, 0, err
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, 0, ErrUnexpectedResponse
	}

	allowed, ok := vals[0].(int64)
	if !ok {
		return false, 0, ErrUnexpectedResponse
	}
	ttlMS, ok := vals[1].(int64)
	if !ok {
		return false, 0, ErrUnexpectedResponse
	}

	retryAfter := time.Duration(ttlMS) * time.Millisecond
	if allowed == 1 || retryAfter < 0 {
		retryAfter = 0
	}

	return allowed == 1, retryAfter, nil
}
