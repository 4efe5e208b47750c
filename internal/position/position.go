// Package position provides the cached argument-position stamps P1..Pk
// used to mark an argument's slot when an operator is encoded. Position
// vectors are pure functions of (index, D); the cache is purely an
// optimization.
package position

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"hdcmind/internal/bitvector"
	"hdcmind/internal/stamp"
)

// MaxPositions is the largest argument index a statement may address.
const MaxPositions = 20

// cacheKey identifies a (index, D) pair.
type cacheKey struct {
	index int
	d     int
}

// Cache is a thread-safe memoised lookup for position codes. The zero
// value is not usable; construct with NewCache.
type Cache struct {
	lru *lru.Cache[cacheKey, bitvector.BitVector]
}

// NewCache builds a position-code cache bounded to size entries (size is
// generous relative to MaxPositions * a handful of geometries; eviction
// only matters for pathological multi-D usage within one process).
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = MaxPositions * 8
	}
	c, err := lru.New[cacheKey, bitvector.BitVector](size)
	if err != nil {
		return nil, fmt.Errorf("position: build cache: %w", err)
	}
	return &Cache{lru: c}, nil
}

// Position returns the stamp of the synthetic name "__POS_i__" at width d,
// memoised. i must be in [1, MaxPositions].
func (c *Cache) Position(i, d int) (bitvector.BitVector, error) {
	if i < 1 || i > MaxPositions {
		return bitvector.BitVector{}, fmt.Errorf("position: index %d out of range [1,%d]", i, MaxPositions)
	}
	key := cacheKey{index: i, d: d}
	if v, ok := c.lru.Get(key); ok {
		return v, nil
	}
	v, err := stamp.Stamp(positionName(i), d)
	if err != nil {
		return bitvector.BitVector{}, err
	}
	c.lru.Add(key, v)
	return v, nil
}

func positionName(i int) string {
	return fmt.Sprintf("__POS_%d__", i)
}
