package config

import "time"

// RateLimitConfig configures the Redis token bucket placed in front of the
// authentication and booking write endpoints.  Each client key starts with
// Capacity tokens and regains one token every RefillEvery.
type RateLimitConfig struct {
	Enabled     bool
	Capacity    int
	RefillEvery time.Duration
	TTL         time.Duration
	Prefix      string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Values are clamped so
// that a misconfigured limiter still lets traffic through eventually.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:     envBool("RATE_LIMIT_ENABLED", true),
		Capacity:    envInt("RATE_LIMIT_CAPACITY", 30),
		RefillEvery: envDur("RATE_LIMIT_REFILL_EVERY", 2*time.Second),
		TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillEvery <= 0 {
		cfg.RefillEvery = time.Second
	}
	if minTTL := time.Duration(cfg.Capacity) * cfg.RefillEvery; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
