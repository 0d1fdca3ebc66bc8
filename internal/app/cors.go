package app

import (
	"net/url"
	"strings"
)

// originAllowed reports whether origin matches one of the configured patterns.
// Patterns are hosts ("app.example.com"), subdomain wildcards ("*.example.com"),
// any-port hosts ("localhost:*") or "*".
func originAllowed(patterns []string, origin string) bool {
	host := extractOriginHost(origin)
	for _, pattern := range patterns {
		if matchOriginPattern(pattern, host) {
			return true
		}
	}
	return false
}

// extractOriginHost returns the lower-cased "host[:port]" portion of an origin URL.
func extractOriginHost(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Host == "" {
		return strings.ToLower(origin)
	}
	return strings.ToLower(u.Host)
}

func matchOriginPattern(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	switch {
	case pattern == "*", pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasSuffix(pattern, ":*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	}
	return false
}
