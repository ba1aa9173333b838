package config

import (
	"time"
)

// RateLimitConfig controls the Redis token-bucket limiter applied to write
// endpoints (login, registration, ticket purchase).  Capacity is the bucket
// size, RefillTokens/RefillInterval the refill rate, TTL how long idle
// buckets survive in Redis.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
}

// LoadRateLimitConfig reads environment variables and applies floor values so
// a misconfigured limiter can never block all traffic.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        getenv("RATE_LIMIT_ENABLED", "true") == "true",
		Capacity:       intenv("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   intenv("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: durenv("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            durenv("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	minTTL := 5 * cfg.RefillInterval
	if cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}

func intenv(k string, d int) int {
	if v := getenv(k, ""); v != "" {
		return atoi(v)
	}
	return d
}

func durenv(k string, d time.Duration) time.Duration {
	if v := getenv(k, ""); v != "" {
		return parseDur(v)
	}
	return d
}
