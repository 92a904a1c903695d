package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is a keyed store of values that may expire.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Len() int
}

// Cleaner is implemented by caches that can drop expired entries in bulk.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically sweeps registered caches.
type Janitor struct {
	caches   []Cleaner
	interval time.Duration
}

func NewJanitor(interval time.Duration, caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, interval: interval}
}

// Run sweeps every interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.interval <= 0 || len(j.caches) == 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", n)
			}
		}
	}
}

// Sweep runs one cleanup pass and returns how many entries were removed.
func (j *Janitor) Sweep() int {
	total := 0
	for _, c := range j.caches {
		total += c.CleanExpired()
	}
	return total
}
