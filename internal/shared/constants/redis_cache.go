package constants

import (
	"time"
)

// Redis cache keys and TTLs.
// Pattern: clientregistry:{module}:{operation}:{identifier}

const (
	TTL_DYNAMIC_MEDIUM = 10 * time.Minute
)

const (
	CACHE_PREFIX = "clientregistry"
)

// ================== CLIENTS MODULE ==================

const (
	CACHE_KEY_CLIENT_DETAIL = CACHE_PREFIX + ":clients:detail:uuid:" // + client-id
)

const (
	TTL_CLIENT_DETAIL    = TTL_DYNAMIC_MEDIUM
	// outlives any in-flight read so its cache fill cannot land after a write
	TTL_CLIENT_TOMBSTONE = 30 * time.Second
)

// ================== INVALIDATION PATTERNS ==================

const (
	PATTERN_INVALIDATE_CLIENTS_ALL = CACHE_PREFIX + ":clients:*"
)

func BuildClientDetailKey(clientID string) string {
	return CACHE_KEY_CLIENT_DETAIL + clientID
}
