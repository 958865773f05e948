package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateStore atomically checks and consumes send quota across the hourly and
// daily windows. Both counters move together or not at all.
type RateStore interface {
	// Allow consumes n sends against both windows. A limit of 0 means that
	// window is unbounded. Returns false without consuming when either
	// window would overflow.
	Allow(ctx context.Context, hourKey, dayKey string, n, hourLimit, dayLimit int, hourTTL, dayTTL time.Duration) (bool, error)

	// Reset clears all counters. Test harnesses only.
	Reset(ctx context.Context) error
}

// RateLimiter enforces the optional hourly/daily send ceilings. The clock is
// injectable so window rollover is testable.
type RateLimiter struct {
	store   RateStore
	perHour int
	perDay  int
	now     func() time.Time
}

// NewRateLimiter creates a limiter. Zero limits disable the matching window.
func NewRateLimiter(store RateStore, perHour, perDay int) *RateLimiter {
	return &RateLimiter{store: store, perHour: perHour, perDay: perDay, now: time.Now}
}

// WithClock overrides the limiter's clock. Test harnesses only.
func (l *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	l.now = now
	return l
}

// Allow consumes quota for n sends. A nil limiter, or one with no ceilings
// configured, always allows.
func (l *RateLimiter) Allow(ctx context.Context, n int) (bool, error) {
	if l == nil || (l.perHour <= 0 && l.perDay <= 0) {
		return true, nil
	}

	t := l.now().UTC()
	hourKey := "sends:h:" + t.Format("2006010215")
	dayKey := "sends:d:" + t.Format("20060102")
	return l.store.Allow(ctx, hourKey, dayKey, n, l.perHour, l.perDay, 2*time.Hour, 26*time.Hour)
}

// MemoryRateStore is the process-local backing store: rolling counters that
// reset on rollover and on restart. Not shared across instances; deploy the
// Redis store when more than one worker runs.
type MemoryRateStore struct {
	mu       sync.Mutex
	counters map[string]int
}

// NewMemoryRateStore creates an empty in-process rate store.
func NewMemoryRateStore() *MemoryRateStore {
	return &MemoryRateStore{counters: make(map[string]int)}
}

func (m *MemoryRateStore) Allow(_ context.Context, hourKey, dayKey string, n, hourLimit, dayLimit int, _, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hourLimit > 0 && m.counters[hourKey]+n > hourLimit {
		return false, nil
	}
	if dayLimit > 0 && m.counters[dayKey]+n > dayLimit {
		return false, nil
	}
	m.counters[hourKey] += n
	m.counters[dayKey] += n
	return true, nil
}

func (m *MemoryRateStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = make(map[string]int)
	return nil
}

// Lua script for the shared store: checks both windows before incrementing
// so concurrent workers can never overshoot a ceiling.
const rateWindowLuaScript = `
local hourKey = KEYS[1]
local dayKey = KEYS[2]
local increment = tonumber(ARGV[1])
local hourLimit = tonumber(ARGV[2])
local dayLimit = tonumber(ARGV[3])
local hourTTL = tonumber(ARGV[4])
local dayTTL = tonumber(ARGV[5])

local hourCurrent = tonumber(redis.call("GET", hourKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dayKey) or "0")

if hourLimit > 0 and hourCurrent + increment > hourLimit then
    return 0
end
if dayLimit > 0 and dayCurrent + increment > dayLimit then
    return 0
end

local newHour = redis.call("INCRBY", hourKey, increment)
if newHour == increment then
    redis.call("EXPIRE", hourKey, hourTTL)
end

local newDay = redis.call("INCRBY", dayKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dayKey, dayTTL)
end

return 1
`

// RedisRateStore shares send quota across worker instances using an atomic
// Lua script (GET -> check -> INCR done server-side to avoid races).
type RedisRateStore struct {
	redis  *redis.Client
	script *redis.Script
}

// NewRedisRateStore creates a store over an existing client.
func NewRedisRateStore(client *redis.Client) *RedisRateStore {
	return &RedisRateStore{redis: client, script: redis.NewScript(rateWindowLuaScript)}
}

// NewRedisRateStoreFromURL connects to Redis and verifies the connection.
func NewRedisRateStoreFromURL(url string) (*RedisRateStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisRateStore(client), nil
}

func (r *RedisRateStore) Allow(ctx context.Context, hourKey, dayKey string, n, hourLimit, dayLimit int, hourTTL, dayTTL time.Duration) (bool, error) {
	res, err := r.script.Run(ctx, r.redis,
		[]string{hourKey, dayKey},
		n, hourLimit, dayLimit,
		int(hourTTL.Seconds()), int(dayTTL.Seconds()),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate script: %w", err)
	}
	return res == 1, nil
}

func (r *RedisRateStore) Reset(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.redis.Scan(ctx, cursor, "sends:*", 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.redis.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
