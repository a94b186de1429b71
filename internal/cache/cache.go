package cache

import (
	"context"
	"time"
)

// SummaryCache is the injected cache in front of the summary
// endpoints. Lifetime is explicit: entries carry a TTL and
// Invalidate drops everything at once, so cache behavior is testable
// apart from the aggregation itself.
type SummaryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Noop disables caching; every lookup misses.
type Noop struct{}

func (Noop) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

func (Noop) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}

func (Noop) Invalidate(ctx context.Context) error {
	return nil
}
