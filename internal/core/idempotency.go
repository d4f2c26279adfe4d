package core

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// IdempotencyChecker implements two-tier deduplication: a hot in-memory LRU
// backed by a cold Postgres lookup for keys that aged out of the cache.
type IdempotencyChecker struct {
	lru       *lru.Cache[string, struct{}]
	dbChecker DBIdempotencyChecker
}

// DBIdempotencyChecker is the interface for the Postgres dedup lookup
type DBIdempotencyChecker interface {
	IsDuplicate(op string, callID uuid.UUID) (bool, error)
}

func NewIdempotencyChecker(capacity int, dbChecker DBIdempotencyChecker) (*IdempotencyChecker, error) {
	cache, err := lru.New[string, struct{}](capacity)
	if err != nil {
		return nil, fmt.Errorf("init dedup lru: %w", err)
	}
	return &IdempotencyChecker{
		lru:       cache,
		dbChecker: dbChecker,
	}, nil
}

func compositeKey(op string, callID uuid.UUID) string {
	return op + ":" + callID.String()
}

// IsDuplicate checks if a call has been processed (two-tier lookup).
// Returns the tier that answered ("lru" when the hot cache hit, "postgres"
// whenever the cold tier was consulted) for metrics.
func (ic *IdempotencyChecker) IsDuplicate(op string, callID uuid.UUID) (bool, string) {
	key := compositeKey(op, callID)

	// Tier 1: LRU check (hot path)
	if ic.lru.Contains(key) {
		return true, "lru"
	}

	// Tier 2: Postgres check (cold path)
	if ic.dbChecker != nil {
		isDup, err := ic.dbChecker.IsDuplicate(op, callID)
		if err != nil {
			// Conservative: a DB issue must not block call processing,
			// so assume not duplicate. The unique constraint on the call
			// log still prevents double-persisting.
			return false, "postgres"
		}
		if isDup {
			// Cache so we don't hit the DB again
			ic.lru.Add(key, struct{}{})
		}
		return isDup, "postgres"
	}

	return false, ""
}

// MarkProcessed adds the key to the LRU after successful processing
func (ic *IdempotencyChecker) MarkProcessed(op string, callID uuid.UUID) {
	ic.lru.Add(compositeKey(op, callID), struct{}{})
}

// WarmFromKeys loads recent composite keys into the LRU. On restart this
// avoids cold-path DB lookups for recently processed calls.
func (ic *IdempotencyChecker) WarmFromKeys(keys []string) {
	for _, key := range keys {
		ic.lru.Add(key, struct{}{})
	}
}

// Size returns current number of cached entries
func (ic *IdempotencyChecker) Size() int {
	return ic.lru.Len()
}

// Keys returns the cached composite keys, oldest first.
func (ic *IdempotencyChecker) Keys() []string {
	return ic.lru.Keys()
}
