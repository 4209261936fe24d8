package cache

import (
	"time"

	catalogdomain "github.com/smallbiznis/catalog/internal/catalog/domain"
)

type facetCache struct {
	results Cache[string, *catalogdomain.FacetResult]
	ttl     time.Duration
}

// NewFacetCache returns an in-memory facet cache. Entries may be stale for up
// to ttl after a write unless Purge is called.
func NewFacetCache(ttl time.Duration) catalogdomain.FacetCache {
	return &facetCache{
		results: NewTTLCache[string, *catalogdomain.FacetResult](),
		ttl:     ttl,
	}
}

func (c *facetCache) Get(key string) (*catalogdomain.FacetResult, bool) {
	return c.results.Get(key)
}

func (c *facetCache) Set(key string, result *catalogdomain.FacetResult) {
	if result == nil {
		return
	}
	c.results.Set(key, result, c.ttl)
}

func (c *facetCache) Purge() {
	c.results.Purge()
}
