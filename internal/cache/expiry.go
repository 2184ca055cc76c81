package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultMaxAge applies when a response carries no Cache-Control max-age.
const DefaultMaxAge = 300 * time.Second

// ExpireTime computes the absolute expiry (unix milliseconds) for a response.
//
// The expiry is Date + max-age + 1ms. Without a parsable Date header it is 0,
// which no lookup will ever accept.
func ExpireTime(header http.Header, defaultMaxAge time.Duration) int64 {
	date, err := http.ParseTime(header.Get("Date"))
	if err != nil {
		return 0
	}

	maxAge := defaultMaxAge
	if secs, ok := parseMaxAge(header.Get("Cache-Control")); ok {
		maxAge = time.Duration(secs) * time.Second
	}

	return date.UnixMilli() + maxAge.Milliseconds() + 1
}

// parseMaxAge extracts max-age=<seconds> from a Cache-Control value.
func parseMaxAge(cacheControl string) (int64, bool) {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(directive), "=")
		if !found || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}
		secs, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(value), `"`), 10, 64)
		if err != nil || secs < 0 {
			return 0, false
		}
		return secs, true
	}
	return 0, false
}
