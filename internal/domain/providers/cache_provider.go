package providers

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned, possibly wrapped, by CacheProvider.Get when a key
// is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache key namespaces used by the search pipeline.
const (
	CacheNamespaceInterpretation = "query_interp"
	CacheNamespaceSuggestions    = "search_suggest"
)

// CacheKey scopes a normalized query to a namespace.
func CacheKey(namespace, normalized string) string {
	return namespace + ":" + normalized
}

// CacheProvider stores query interpretations and suggestion lists as opaque bytes.
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for expirationSeconds. Zero or less keeps it until evicted.
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
