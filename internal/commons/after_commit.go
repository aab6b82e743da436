package commons

import (
	"context"

	"go.uber.org/zap"

	"stockroom/internal/domain"
)

type Cache interface {
	Remove(ctx context.Context, key string) error
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, events []domain.Event) error
}

// AfterCommit runs the side effects of a committed transaction: product cache
// entries are dropped, then events are dispatched. Failures are logged and
// never reach the caller, whose writes are already durable.
type AfterCommit struct {
	cache      Cache
	dispatcher EventDispatcher
	logger     *zap.Logger
}

func NewAfterCommit(cache Cache, dispatcher EventDispatcher, logger *zap.Logger) *AfterCommit {
	return &AfterCommit{cache: cache, dispatcher: dispatcher, logger: logger}
}

func (a *AfterCommit) Publish(ctx context.Context, productIDs []string, events []domain.Event) {
	for _, id := range productIDs {
		if err := a.cache.Remove(ctx, domain.ProductCacheKey(id)); err != nil {
			a.logger.Warn("cache invalidation failed", zap.String("productId", id), zap.Error(err))
		}
	}

	if len(events) == 0 {
		return
	}

	if err := a.dispatcher.Dispatch(ctx, events); err != nil {
		a.logger.Error("event dispatch failed", zap.Int("eventCount", len(events)), zap.Error(err))
	}
}
