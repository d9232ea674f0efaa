package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig drives the Redis token bucket placed in front of the API.
// Reservation writes get their own, tighter bucket so a client hammering
// the seat map cannot starve catalog reads.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string
    Prefix         string
    Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.
func LoadRateLimitConfig() RateLimitConfig {
    return loadRateLimit("RATE_LIMIT", 60, "rl", "ip_user_route")
}

// LoadBookingRateLimitConfig reads BOOKING_RATE_LIMIT_* variables used on
// reservation mutations.
func LoadBookingRateLimitConfig() RateLimitConfig {
    return loadRateLimit("BOOKING_RATE_LIMIT", 10, "rl:booking", "user")
}

func loadRateLimit(ns string, capacity int, prefix, strategy string) RateLimitConfig {
    def := RateLimitConfig{
        Enabled:        envBool(ns+"_ENABLED", true),
        Capacity:       envInt(ns+"_CAPACITY", capacity),
        RefillTokens:   envInt(ns+"_REFILL_TOKENS", 1),
        RefillInterval: envDur(ns+"_REFILL_INTERVAL", time.Second),
        TTL:            envDur(ns+"_TTL", 10*time.Minute),
        KeyStrategy:    envStr(ns+"_KEY_STRATEGY", strategy),
        Prefix:         envStr(ns+"_PREFIX", prefix),
        Debug:          envBool(ns+"_DEBUG", false),
    }
    if b := envInt(ns+"_BURST", -1); b > 0 { def.Capacity = b }
    if every := envDur(ns+"_REFILL_EVERY", 0); every > 0 {
        def.RefillTokens = 1
        def.RefillInterval = every
    }
    if def.Capacity < 1 { def.Capacity = 1 }
    if def.RefillTokens < 1 { def.RefillTokens = 1 }
    if def.RefillInterval <= 0 { def.RefillInterval = time.Second }
    minTTL := 5 * def.RefillInterval
    if def.TTL < minTTL { def.TTL = minTTL }
    return def
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
