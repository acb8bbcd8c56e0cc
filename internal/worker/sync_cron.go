package worker

// sync_cron.go
// Background goroutine that runs a merge cycle on a fixed interval so
// replicas converge even when nobody presses the sync button. Skips ticks
// while the remote circuit breaker is open to avoid hammering a downed
// backend.

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shoyaib4265a/st-shop-poss/internal/infra"
)

// SyncRunner is the slice of the coordinator the cron needs.
type SyncRunner interface {
	Sync(ctx context.Context) error
	BreakerState() infra.CBState
}

// StartSyncCron launches a goroutine that ticks every interval and runs one
// sync cycle. It respects the context for graceful shutdown; interval <= 0
// disables the cron entirely.
func StartSyncCron(ctx context.Context, runner SyncRunner, interval time.Duration) {
	if interval <= 0 {
		log.Info().Msg("sync_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Info().Dur("interval", interval).Msg("sync_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("sync_cron: shutting down")
				return
			case <-ticker.C:
				if runner.BreakerState() == infra.CBOpen {
					log.Debug().Msg("sync_cron: circuit breaker is open, skipping tick")
					continue
				}
				if err := runner.Sync(ctx); err != nil {
					// The next tick retries the whole cycle.
					log.Warn().Err(err).Msg("sync_cron: cycle failed")
				}
			}
		}
	}()
}
