package ledger

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/0chain/imagestore/code/go/0chain.net/core/logging"
)

// SetupWorkers starts the background sweep of expired entities. Reads do
// not depend on it; expired entities are already invisible.
func SetupWorkers(ctx context.Context, store Store, frequency time.Duration) {
	go sweepWorker(ctx, store, frequency)
}

func sweepWorker(ctx context.Context, store Store, frequency time.Duration) {
	if frequency <= 0 {
		frequency = 10 * time.Minute
	}
	ticker := time.NewTicker(frequency)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept, err := store.SweepExpired(ctx)
			if err != nil {
				logging.Logger.Error("ledger sweep failed", zap.Error(err))
				continue
			}
			if swept > 0 {
				logging.Logger.Info("ledger sweep",
					zap.Int64("entities_removed", swept),
					zap.Int64("current_block", store.CurrentBlock()))
			}
		}
	}
}
