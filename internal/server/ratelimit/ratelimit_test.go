package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/strategies", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
		assert.False(t, info.ResetTime.IsZero())
	}

	allowed, info := limiter.Allow("127.0.0.1", "/strategies", "GET")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Positive(t, info.RetryAfter)
	assert.LessOrEqual(t, info.RetryAfter, 6*time.Second)
}

func TestLimiter_Whitelist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/solve", "POST")
		require.True(t, allowed)
		assert.Equal(t, 0, info.Limit)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("192.168.1.1", "/health", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 50; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/evaluate", "POST")
		require.True(t, allowed)
	}
	assert.Equal(t, 0, limiter.Len())
}

func TestLimiter_EndpointSpecific(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		EndpointConfigs: DefaultEndpointConfigs(),
	})
	defer limiter.Stop()

	// /evaluate allows a burst of 3
	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("10.0.0.1", "/evaluate", "POST")
		require.True(t, allowed)
		assert.Equal(t, 30, info.Limit)
	}
	allowed, _ := limiter.Allow("10.0.0.1", "/evaluate", "POST")
	assert.False(t, allowed)

	// Other endpoints and clients have their own buckets
	allowed, info := limiter.Allow("10.0.0.1", "/solve", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 600, info.Limit)
	allowed, _ = limiter.Allow("10.0.0.2", "/evaluate", "POST")
	assert.True(t, allowed)

	// Health and metrics are unlimited
	for i := 0; i < 2000; i++ {
		allowed, _ = limiter.Allow("10.0.0.1", "/health", "GET")
		require.True(t, allowed)
	}
	allowed, _ = limiter.Allow("10.0.0.1", "/metrics", "GET")
	assert.True(t, allowed)
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
	})
	defer limiter.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				ok, _ := limiter.Allow("client", "/solve", "GET")
				if ok {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestLimiter_CleanupBuckets(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/strategies", "GET")
	}
	require.Equal(t, 5, limiter.Len())

	limiter.cleanupBuckets(time.Now().Add(-time.Minute))
	assert.Equal(t, 5, limiter.Len())

	limiter.cleanupBuckets(time.Now().Add(time.Second))
	assert.Equal(t, 0, limiter.Len())
}

func TestLimiter_RefillsOverTime(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: 100 * time.Millisecond,
	})
	defer limiter.Stop()

	allowed, _ := limiter.Allow("client", "/runs", "GET")
	require.True(t, allowed)
	allowed, _ = limiter.Allow("client", "/runs", "GET")
	require.False(t, allowed)

	time.Sleep(150 * time.Millisecond)
	allowed, _ = limiter.Allow("client", "/runs", "GET")
	assert.True(t, allowed)
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(nil)
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/solve", Method: "POST", Limit: 5, Window: time.Minute},
		{Path: "/runs/", Method: "GET", Limit: 7, Window: time.Minute},
		{Path: "/runs/archive/", Method: "GET", Limit: 3, Window: time.Minute},
	}

	tests := []struct {
		name      string
		path      string
		method    string
		wantLimit int
		wantNil   bool
	}{
		{name: "exact", path: "/solve", method: "POST", wantLimit: 5},
		{name: "wrong method", path: "/solve", method: "GET", wantNil: true},
		{name: "prefix", path: "/runs/abc", method: "GET", wantLimit: 7},
		{name: "longest prefix", path: "/runs/archive/abc", method: "GET", wantLimit: 3},
		{name: "health unlimited", path: "/health", method: "GET", wantLimit: 0},
		{name: "metrics unlimited", path: "/metrics", method: "GET", wantLimit: 0},
		{name: "metrics post not exempt", path: "/metrics", method: "POST", wantNil: true},
		{name: "no match", path: "/other", method: "GET", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestMatchEndpoint_TournamentSharesEvaluateTier(t *testing.T) {
	configs := DefaultEndpointConfigs()
	evaluate := MatchEndpoint("/evaluate", "POST", configs)
	tournament := MatchEndpoint("/tournament/stream", "POST", configs)
	require.NotNil(t, evaluate)
	require.NotNil(t, tournament)
	assert.Equal(t, evaluate.Limit, tournament.Limit)
	assert.Equal(t, evaluate.Window, tournament.Window)
}

func TestParseRate(t *testing.T) {
	r, err := ParseRate("600/1m")
	require.NoError(t, err)
	assert.Equal(t, Rate{Limit: 600, Window: time.Minute}, r)

	r, err = ParseRate(" 30/1h/3 ")
	require.NoError(t, err)
	assert.Equal(t, Rate{Limit: 30, Window: time.Hour, Burst: 3}, r)

	for _, bad := range []string{"", "10", "x/1m", "10/soon", "10/0s", "10/1m/x", "-1/1m", "1/1m/2/3"} {
		_, err := ParseRate(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvEnabled, "true")
	t.Setenv(EnvDefault, "42/30s")
	t.Setenv(EnvSolve, "5/1s/2")
	t.Setenv(EnvEvaluate, "garbage")
	t.Setenv(EnvWhitelist, "127.0.0.1, ::1")
	t.Setenv(EnvBlacklist, "")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 42, cfg.DefaultLimit)
	assert.Equal(t, 30*time.Second, cfg.DefaultWindow)
	assert.True(t, cfg.Whitelist["127.0.0.1"])
	assert.True(t, cfg.Whitelist["::1"])
	assert.Empty(t, cfg.Blacklist)

	solve := MatchEndpoint("/solve", "POST", cfg.EndpointConfigs)
	require.NotNil(t, solve)
	assert.Equal(t, 5, solve.Limit)
	assert.Equal(t, 2, solve.Burst)

	evaluate := MatchEndpoint("/evaluate", "POST", cfg.EndpointConfigs)
	require.NotNil(t, evaluate)
	assert.Equal(t, 30, evaluate.Limit, "malformed spec keeps the default tier")

	t.Setenv(EnvEnabled, "false")
	assert.False(t, LoadConfig().Enabled)
}
