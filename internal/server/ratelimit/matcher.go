package ratelimit

import "strings"

// exempt requests are never limited
var exempt = map[string]bool{
	"GET /health":  true,
	"GET /metrics": true,
}

// unlimited is returned for exempt requests
var unlimited = EndpointConfig{}

// MatchEndpoint returns the config for method and path, or nil when the
// default limit applies. An exact path wins over a prefix; among prefixes
// the longest wins.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	if exempt[method+" "+path] {
		u := unlimited
		return &u
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			if best == nil || len(c.Path) > len(best.Path) {
				best = c
			}
		}
	}
	return best
}
