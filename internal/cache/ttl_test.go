package cache

import (
	"testing"
	"time"

	catalogdomain "github.com/smallbiznis/catalog/internal/catalog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiresEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newTTLCache[string, int](func() time.Time { return now })

	c.Set("a", 1, time.Minute)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheDeleteAndPurge(t *testing.T) {
	c := NewTTLCache[string, int]()
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)

	c.Delete("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestFacetCache(t *testing.T) {
	c := NewFacetCache(time.Hour)
	c.Set("k", nil)
	_, ok := c.Get("k")
	assert.False(t, ok)

	result := &catalogdomain.FacetResult{Count: 2}
	c.Set("k", result)
	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Same(t, result, got)

	c.Purge()
	_, ok = c.Get("k")
	assert.False(t, ok)
}
