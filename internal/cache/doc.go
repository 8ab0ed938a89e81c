// Package cache provides a generic LRU cache with a soft limit.
//
// The guardian uses it for geom mungers keyed by render state and for
// munged vertex data keyed by source identity, so repeated draws of the
// same geometry under the same state reuse one result.
//
//	c := cache.New[uint64, *Munger](256)
//	m, hit := c.GetOrCreate(key, build)
//
// When the soft limit is exceeded the oldest 25% of entries are evicted.
// Trim evicts down to an explicit size.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
