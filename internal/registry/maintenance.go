package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// finalSaveTimeout bounds the save performed after ctx is cancelled.
const finalSaveTimeout = 30 * time.Second

// SaveFunc persists the registry state.
type SaveFunc func(ctx context.Context) error

// RunMaintenance purges expired modifiers every sweepEvery and calls save every
// saveEvery until ctx is cancelled, then saves once more. The registry must
// not be used from other goroutines while this runs. A nil save disables saving.
func (r *Registry) RunMaintenance(ctx context.Context, sweepEvery, saveEvery time.Duration, save SaveFunc) error {
	if sweepEvery <= 0 || saveEvery <= 0 {
		return fmt.Errorf("maintenance intervals must be positive: sweep=%s save=%s", sweepEvery, saveEvery)
	}

	sweep := time.NewTicker(sweepEvery)
	defer sweep.Stop()
	flush := time.NewTicker(saveEvery)
	defer flush.Stop()

	for {
		select {
		case <-ctx.Done():
			if save == nil {
				return nil
			}
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			defer cancel()
			if err := save(saveCtx); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			return nil

		case <-sweep.C:
			r.PurgeExpired()

		case <-flush.C:
			if save == nil {
				continue
			}
			if err := save(ctx); err != nil {
				// Keep running; the next tick retries.
				slog.Error("periodic save failed", "entities", r.Len(), "error", err)
			}
		}
	}
}
