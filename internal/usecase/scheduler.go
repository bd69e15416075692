package usecase

import (
	"context"
	"sync"

	"github.com/macrolens/menulens/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MenuExtractor processes one restaurant to completion
type MenuExtractor interface {
	Extract(ctx context.Context, desc domain.RestaurantDescriptor) *domain.ExtractionResult
}

// Scheduler runs restaurants through an extractor on a bounded pool of
// workers. Results are delivered in completion order.
type Scheduler struct {
	extractor MenuExtractor
	workers   int
	logger    *zap.Logger
}

// NewScheduler creates a scheduler with the given worker count (default 4)
func NewScheduler(extractor MenuExtractor, workers int, logger *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{extractor: extractor, workers: workers, logger: logger}
}

// Run processes every descriptor and calls emit once per result. Calls to
// emit never overlap. Once ctx is done no new restaurants are started; the
// returned error is ctx.Err().
func (s *Scheduler) Run(ctx context.Context, descs []domain.RestaurantDescriptor, emit func(*domain.ExtractionResult)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	var mu sync.Mutex
	for _, desc := range descs {
		if gctx.Err() != nil {
			s.logger.Warn("scheduler stopped before all restaurants were started",
				zap.String("next_restaurant_id", desc.ID))
			break
		}
		g.Go(func() error {
			result := s.extractor.Extract(gctx, desc)
			mu.Lock()
			defer mu.Unlock()
			emit(result)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}
