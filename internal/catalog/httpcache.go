package catalog

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// cacheKey identifies an upstream request. The base URL's host and path are
// part of the key so catalogs sharing one Redis never collide. Query
// parameters are sorted so that equivalent requests share one key.
func cacheKey(base *url.URL, resource string, query url.Values) string {
	key := http.MethodGet + " " + base.Host + base.JoinPath(resource).Path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

// responseTTL decides how long a successful response may be cached.
// Zero means the response must not be stored.
func responseTTL(h http.Header, defaultTTL, maxTTL time.Duration) time.Duration {
	ttl, ok := cacheControlTTL(h.Get("Cache-Control"))
	if !ok {
		ttl = defaultTTL
	}
	if ttl <= 0 {
		return 0
	}
	if maxTTL > 0 && ttl > maxTTL {
		return maxTTL
	}
	return ttl
}

// cacheControlTTL parses a Cache-Control value. ok is false when the header
// carries no freshness information and the default applies.
func cacheControlTTL(value string) (ttl time.Duration, ok bool) {
	if value == "" {
		return 0, false
	}

	var maxAge, sharedMaxAge time.Duration
	hasMaxAge, hasShared := false, false

	for _, part := range strings.Split(value, ",") {
		name, arg, _ := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.ToLower(strings.TrimSpace(name))
		arg = strings.Trim(strings.TrimSpace(arg), `"`)

		switch name {
		case "no-store", "no-cache", "private":
			return 0, true
		case "max-age":
			if d, valid := parseSeconds(arg); valid {
				maxAge, hasMaxAge = d, true
			}
		case "s-maxage":
			if d, valid := parseSeconds(arg); valid {
				sharedMaxAge, hasShared = d, true
			}
		}
	}

	switch {
	case hasShared:
		return sharedMaxAge, true
	case hasMaxAge:
		return maxAge, true
	default:
		return 0, false
	}
}

func parseSeconds(s string) (time.Duration, bool) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
