package retention

import (
	"context"
	"github.com/icinga/icinga-livestatus/pkg/periodic"
	"github.com/icinga/icinga-livestatus/pkg/utils"
	"go.uber.org/zap"
	"time"
)

// Loader loads all comments and downtimes of the monitoring core.
type Loader interface {
	Load(ctx context.Context) (Comments, Downtimes, error)
}

// Refresh loads comments and downtimes once and replaces the ones in store.
func Refresh(ctx context.Context, store *Store, loader Loader) error {
	comments, downtimes, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	store.ReplaceComments(comments)
	store.ReplaceDowntimes(downtimes)

	return nil
}

// Sync refreshes store from loader immediately and every interval until ctx is done.
// Failed refreshes keep the previous collections and are logged.
func Sync(ctx context.Context, store *Store, loader Loader, interval time.Duration, logger *zap.SugaredLogger) periodic.Stopper {
	return periodic.Start(ctx, interval, func(tick periodic.Tick) {
		defer utils.Timed(time.Now(), func(elapsed time.Duration) {
			logger.Debugf(
				"Loaded %d comments and %d downtimes in %s", store.NumComments(), store.NumDowntimes(), elapsed,
			)
		})

		if err := Refresh(ctx, store, loader); err != nil && !utils.IsContextCanceled(err) {
			logger.Warnw("Can't refresh comments and downtimes", zap.Error(err))
		}
	}, periodic.Immediate())
}
