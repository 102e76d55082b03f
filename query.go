package sqlgate

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// CachePolicy controls whether an intermediary may serve a statement's result
// from a shared cache. The zero value bypasses caching entirely.
type CachePolicy struct {
	// TTL is how long a cached result may be served. A zero or negative TTL
	// attaches no cache directives to the request.
	TTL time.Duration
}

// CacheFor returns a policy that allows results to be cached for ttl.
func CacheFor(ttl time.Duration) CachePolicy {
	return CachePolicy{TTL: ttl}
}

// Query is one SQL statement plus its cache policy. Queries are immutable
// values constructed per call; the client never modifies one.
type Query struct {
	SQL   string
	Cache CachePolicy
}

// cacheKey derives the deterministic shared-cache key for a query, or ""
// when the policy bypasses caching. The key covers the principal and the
// whitespace-normalized statement so identical statements by the same user
// share a cache entry regardless of formatting.
func (q Query) cacheKey(username string) string {
	if q.Cache.TTL <= 0 {
		return ""
	}
	normalized := strings.Join(strings.Fields(q.SQL), " ")
	sum := sha256.Sum256([]byte(username + "/" + normalized))
	return hex.EncodeToString(sum[:])
}
