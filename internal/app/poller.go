package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/netmoya/internal/api"
	"github.com/five82/netmoya/internal/catalog"
	"github.com/five82/netmoya/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

type productLister interface {
	List(ctx context.Context, query catalog.ListProducts) (catalog.ProductListResponse, error)
}

type healthChecker interface {
	Check(ctx context.Context) bool
}

// StartPoller launches a background goroutine that refreshes the store,
// backing off while refreshes fail. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, products productLister, health healthChecker, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			refresh(ctx, store, products, health, logger)
			timer.Reset(nextDelay(store.Snapshot(), interval))
		}
	}()
}

func refresh(ctx context.Context, store *state.Store, products productLister, health healthChecker, logger zerolog.Logger) {
	healthy := health.Check(ctx)
	page, err := products.List(ctx, catalog.ListProducts{})
	if err != nil {
		if api.KindOf(err) == api.KindCancelled {
			return
		}
		store.Update(nil, healthy, err)
		logger.Warn().Err(err).Str("kind", api.KindOf(err).String()).Msg("product refresh failed")
		return
	}
	store.Update(&page, healthy, nil)
}

// nextDelay picks the wait before the next refresh. Offline failures are
// rejected locally by the gate, so they keep the base interval and the view
// recovers as soon as the network returns. Auth failures wait the maximum.
// Everything else doubles per consecutive failure up to maxBackoff.
func nextDelay(snap state.Snapshot, base time.Duration) time.Duration {
	if snap.ConsecutiveFailures <= 0 || snap.LastError == nil {
		return base
	}
	switch api.KindOf(snap.LastError) {
	case api.KindNoInternetConnection:
		return base
	case api.KindUnauthorized, api.KindForbidden:
		return maxBackoff
	}
	delay := base
	for range snap.ConsecutiveFailures {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
