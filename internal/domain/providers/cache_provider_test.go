package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "search_suggest:res", CacheKey(CacheNamespaceSuggestions, "res"))
	assert.NotEqual(t,
		CacheKey(CacheNamespaceSuggestions, "vpn"),
		CacheKey(CacheNamespaceInterpretation, "vpn"))
}
