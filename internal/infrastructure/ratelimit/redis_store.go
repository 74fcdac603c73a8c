package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bocado-ai/gate/internal/domain/models"
	"github.com/bocado-ai/gate/pkg/constants"
	"github.com/bocado-ai/gate/pkg/errors"
)

// Lua script for the atomic fixed-window admission step.
// KEYS[1] record hash, KEYS[2] index zset scored by updated_at.
// Returns {allowed, reason, count, window_start_ms, retry_ms}.
const admitLuaScript = `
local key = KEYS[1]
local index = KEYS[2]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
local cooldown = tonumber(ARGV[4])
local cooldown_counts = tonumber(ARGV[5])

local rec = redis.call('HMGET', key, 'window_start', 'count', 'last_request_at')
local ws = tonumber(rec[1])
local count = tonumber(rec[2])
local last = tonumber(rec[3])

redis.call('ZADD', index, now, key)

if ws == nil or count == nil then
    redis.call('HSET', key,
        'window_start', now, 'count', 1, 'last_request_at', now,
        'created_at', now, 'updated_at', now, 'expires_at', now + window)
    return {1, '', 1, now, 0}
end

if now - ws >= window then
    redis.call('HSET', key,
        'window_start', now, 'count', 1, 'last_request_at', now,
        'updated_at', now, 'expires_at', now + window)
    return {1, '', 1, now, 0}
end

redis.call('HSET', key, 'updated_at', now)

if count >= max then
    return {0, 'window', count, ws, ws + window - now}
end

if cooldown > 0 and last ~= nil and now - last < cooldown then
    if cooldown_counts == 1 then
        count = count + 1
        redis.call('HSET', key, 'count', count)
    end
    return {0, 'cooldown', count, ws, cooldown - (now - last)}
end

count = count + 1
redis.call('HSET', key, 'count', count, 'last_request_at', now)
return {1, '', count, ws, 0}
`

// Removes up to ARGV[2] records whose index score is below ARGV[1].
const deleteStaleLuaScript = `
local index = KEYS[1]
local limit = tonumber(ARGV[2])
local members = redis.call('ZRANGEBYSCORE', index, '-inf', '(' .. ARGV[1], 'LIMIT', 0, limit)
for _, k in ipairs(members) do
    redis.call('DEL', k)
    redis.call('ZREM', index, k)
end
return #members
`

var (
	admitScript       = redis.NewScript(admitLuaScript)
	deleteStaleScript = redis.NewScript(deleteStaleLuaScript)
)

// RedisStore keeps records as Redis hashes. Records carry no TTL; the
// cleanup sweep removes them through the updated_at index.
type RedisStore struct {
	client   redis.UniversalClient
	indexKey string
}

// NewRedisStore creates a RedisStore on client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, indexKey: constants.RateLimitKeyPrefix + "index"}
}

func (s *RedisStore) Admit(ctx context.Context, key string, p models.Policy, now time.Time) (Result, error) {
	countFlag := 0
	if p.CooldownCountsAgainstWindow {
		countFlag = 1
	}

	raw, err := admitScript.Run(ctx, s.client, []string{key, s.indexKey},
		now.UnixMilli(),
		p.Window.Milliseconds(),
		p.MaxRequests,
		p.Cooldown.Milliseconds(),
		countFlag,
	).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: rate limit script: %v", errors.ErrStoreUnavailable, err)
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) < 5 {
		return Result{}, fmt.Errorf("%w: unexpected script result %T", errors.ErrStoreUnavailable, raw)
	}

	allowed, _ := values[0].(int64)
	reason, _ := values[1].(string)
	count, _ := values[2].(int64)
	windowStart, _ := values[3].(int64)
	retryMs, _ := values[4].(int64)

	return Result{
		Allowed:     allowed == 1,
		Reason:      models.RejectReason(reason),
		Count:       int(count),
		WindowStart: time.UnixMilli(windowStart),
		RetryAfter:  time.Duration(retryMs) * time.Millisecond,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*models.RateLimitRecord, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	count, _ := strconv.Atoi(fields["count"])
	return &models.RateLimitRecord{
		WindowStart:   parseMillis(fields["window_start"]),
		Count:         count,
		LastRequestAt: parseMillis(fields["last_request_at"]),
		CreatedAt:     parseMillis(fields["created_at"]),
		UpdatedAt:     parseMillis(fields["updated_at"]),
		ExpiresAt:     parseMillis(fields["expires_at"]),
	}, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.ZRem(ctx, s.indexKey, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisStore) DeleteStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	n, err := deleteStaleScript.Run(ctx, s.client, []string{s.indexKey}, cutoff.UnixMilli(), limit).Int()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return n, nil
}

func parseMillis(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return time.Time{}
		}
		ms = int64(f)
	}
	return time.UnixMilli(ms)
}
