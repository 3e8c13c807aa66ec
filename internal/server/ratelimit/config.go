package ratelimit

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by LoadConfig
const (
	EnvEnabled         = "KNAPSACK_RATE_LIMIT_ENABLED"
	EnvDefault         = "KNAPSACK_RATE_LIMIT_DEFAULT"  // e.g. 1000/1m
	EnvEvaluate        = "KNAPSACK_RATE_LIMIT_EVALUATE" // e.g. 30/1h/3
	EnvSolve           = "KNAPSACK_RATE_LIMIT_SOLVE"
	EnvCleanupInterval = "KNAPSACK_RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "KNAPSACK_RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "KNAPSACK_RATE_LIMIT_BLACKLIST"
)

// EndpointConfig is the limit for one method and path. A Path ending in "/"
// matches every path below it.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 means unlimited
	Window time.Duration
	Burst  int // defaults to Limit
}

// Rate is a parsed "limit/window[/burst]" spec
type Rate struct {
	Limit  int
	Window time.Duration
	Burst  int
}

// ParseRate parses specs such as "600/1m" or "30/1h/3"
func ParseRate(spec string) (Rate, error) {
	parts := strings.Split(strings.TrimSpace(spec), "/")
	if len(parts) < 2 || len(parts) > 3 {
		return Rate{}, fmt.Errorf("invalid rate %q: want limit/window[/burst]", spec)
	}
	limit, err := strconv.Atoi(parts[0])
	if err != nil || limit < 0 {
		return Rate{}, fmt.Errorf("invalid rate %q: bad limit", spec)
	}
	window, err := time.ParseDuration(parts[1])
	if err != nil || window <= 0 {
		return Rate{}, fmt.Errorf("invalid rate %q: bad window", spec)
	}
	r := Rate{Limit: limit, Window: window}
	if len(parts) == 3 {
		if r.Burst, err = strconv.Atoi(parts[2]); err != nil || r.Burst < 0 {
			return Rate{}, fmt.Errorf("invalid rate %q: bad burst", spec)
		}
	}
	return r, nil
}

// Evaluations and tournaments share a tier: both run a whole dataset
var (
	defaultRate  = Rate{Limit: 1000, Window: time.Minute}
	evaluateRate = Rate{Limit: 30, Window: time.Hour, Burst: 3}
	solveRate    = Rate{Limit: 600, Window: time.Minute, Burst: 20}
)

// LoadConfig reads the rate limiting configuration from the environment.
// Malformed values fall back to the defaults.
func LoadConfig() *Config {
	if !envBool(EnvEnabled, true) {
		return &Config{Enabled: false}
	}

	def := envRate(EnvDefault, defaultRate)
	return &Config{
		Enabled:         true,
		DefaultLimit:    def.Limit,
		DefaultWindow:   def.Window,
		CleanupInterval: envDuration(EnvCleanupInterval, 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv(EnvWhitelist)),
		Blacklist:       parseIPList(os.Getenv(EnvBlacklist)),
		EndpointConfigs: endpointConfigs(envRate(EnvEvaluate, evaluateRate), envRate(EnvSolve, solveRate)),
	}
}

// DefaultEndpointConfigs returns the built-in endpoint tiers.
// /health and /metrics are exempt in MatchEndpoint; everything else not
// listed here falls back to the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return endpointConfigs(evaluateRate, solveRate)
}

func endpointConfigs(evaluate, solve Rate) []EndpointConfig {
	tier := func(method, path string, r Rate) EndpointConfig {
		return EndpointConfig{Path: path, Method: method, Limit: r.Limit, Window: r.Window, Burst: r.Burst}
	}
	return []EndpointConfig{
		tier("POST", "/evaluate", evaluate),
		tier("POST", "/tournament/", evaluate),
		tier("POST", "/solve", solve),
	}
}

func envRate(key string, fallback Rate) Rate {
	if value := os.Getenv(key); value != "" {
		if r, err := ParseRate(value); err == nil {
			return r
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}

// parseIPList turns "a, b" into a set
func parseIPList(list string) map[string]bool {
	set := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			set[ip] = true
		}
	}
	return set
}
