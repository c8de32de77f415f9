package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-booking/internal/config"
)

// bucketScript refills a token bucket by the whole intervals elapsed since
// the last refill, takes one token if any is left, and returns
// {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local every = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', key, 't'))
local last = tonumber(redis.call('HGET', key, 'ts'))
if tokens == nil or last == nil then
	tokens = capacity
	last = now
end

local gained = math.floor(math.max(0, now - last) / every)
if gained > 0 then
	tokens = math.min(capacity, tokens + gained)
	last = last + gained * every
end

local allowed = 0
local retry = 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	retry = every - (now - last)
end

redis.call('HSET', key, 't', tokens, 'ts', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry}
`)

// RateLimit limits each client to cfg.Capacity requests per route, refilled
// one token every cfg.RefillEvery.  Clients are keyed by user id when
// authenticated and by IP otherwise.  With no Redis client, or when Redis
// errors, requests pass through.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttlSec := int64(cfg.TTL / time.Second)
	if ttlSec < 1 {
		ttlSec = 1
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg.Prefix, c)
			res, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(), cfg.Capacity, cfg.RefillEvery.Milliseconds(), ttlSec).Int64Slice()
			if err != nil || len(res) != 3 {
				c.Logger().Warnf("ratelimit: %s: %v", key, err)
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
			if res[0] != 1 {
				h.Set("Retry-After", strconv.FormatInt(retryAfterSeconds(res[2]), 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"success": false, "message": "Too many requests, please try again later"})
			}
			return next(c)
		}
	}
}

// retryAfterSeconds rounds a millisecond wait up to whole seconds, at
// least one.
func retryAfterSeconds(ms int64) int64 {
	s := (ms + 999) / 1000
	if s < 1 {
		s = 1
	}
	return s
}

func rateKey(prefix string, c echo.Context) string {
	who := "ip:" + c.RealIP()
	if id, ok := c.Get(KeyUserID).(string); ok && id != "" {
		who = "user:" + id
	}
	return strings.Join([]string{prefix, c.Request().Method, c.Path(), who}, ":")
}
