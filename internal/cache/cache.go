// Package cache provides a small key→value cache with per-entry expiry,
// used for the map-tile session token. The abstraction is injected into
// its consumers rather than held as a process-wide singleton.
package cache

import (
	"context"
	"time"
)

// Cache stores string values under string keys with a TTL.
type Cache interface {
	// Get returns the value and true when the key exists and has not
	// expired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores the value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
