package bolt

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Compactor periodically compacts each collection of a Store on its own
// interval. A collection with a non-positive interval is never compacted.
type Compactor struct {
	store     *Store
	intervals map[string]time.Duration
	log       zerolog.Logger
}

func NewCompactor(store *Store, intervals map[string]time.Duration, log zerolog.Logger) *Compactor {
	return &Compactor{store: store, intervals: intervals, log: log}
}

// Run blocks until ctx is done.
func (c *Compactor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for name, interval := range c.intervals {
		if interval <= 0 {
			c.log.Info().Str("collection", name).Msg("compaction disabled")
			continue
		}
		wg.Add(1)
		go func(name string, interval time.Duration) {
			defer wg.Done()
			c.loop(ctx, name, interval)
		}(name, interval)
	}
	wg.Wait()
}

func (c *Compactor) loop(ctx context.Context, name string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.log.Info().Str("collection", name).Dur("interval", interval).Msg("compaction scheduled")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Compact logs its own failures; the next tick retries.
			_ = c.store.Compact(ctx, name)
		}
	}
}
