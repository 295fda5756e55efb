// Package cache memoizes conversion results keyed by their source reference.
package cache

import (
	"github.com/woozymasta/shpjson/internal/geo"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is the number of results kept when no size is configured.
const DefaultCapacity = 20

// Cache is a bounded least-recently-used map from source reference to result.
// Keys are used verbatim, without case or whitespace normalization.
// Results are copied in and out, so callers may modify what they get.
// It is safe for concurrent use.
type Cache struct {
	lru *lru.Cache[string, geo.Result]
}

// New returns a cache holding up to capacity results. A capacity of zero or
// less selects DefaultCapacity.
func New(capacity int) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	l, err := lru.New[string, geo.Result](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// Get returns the result stored under key and marks it recently used.
func (c *Cache) Get(key string) (geo.Result, bool) {
	r, ok := c.lru.Get(key)
	if !ok {
		return geo.Result{}, false
	}
	return r.Clone(), true
}

// Set stores r under key, evicting the least recently used entry when full.
func (c *Cache) Set(key string, r geo.Result) {
	c.lru.Add(key, r.Clone())
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.lru.Purge()
}
