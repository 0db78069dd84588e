package cache

import (
	"context"
	"time"
)

// KnownKeys memoizes derivative keys the edge has already confirmed, so warm
// repeats can skip the HEAD probe. Entries are written only after the edge
// itself vouched for the key (a probe hit or a completed publish), and
// derivatives are immutable, so a memo hit can never be a false positive.
//
// The memo is strictly best-effort: every error degrades to "unknown" and the
// request falls through to the real probe. Correctness never depends on it.
type KnownKeys interface {
	Known(ctx context.Context, key string) (bool, error)
	Remember(ctx context.Context, key string, ttl time.Duration) error
}
