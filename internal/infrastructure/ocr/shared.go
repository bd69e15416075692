package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/macrolens/menulens/internal/domain"
	"golang.org/x/time/rate"
)

const defaultCallTimeout = 60 * time.Second

// SharedEngine serializes calls to an engine shared by all workers, spaces
// them with a rate limiter and bounds each call with a timeout
type SharedEngine struct {
	inner   domain.OCREngine
	slot    chan struct{} // one call at a time
	limiter *rate.Limiter
	timeout time.Duration
}

// NewSharedEngine wraps inner. A non-positive rate disables the limiter;
// a non-positive timeout uses 60s.
func NewSharedEngine(inner domain.OCREngine, callsPerSecond float64, burst int, timeout time.Duration) *SharedEngine {
	if burst <= 0 {
		burst = 1
	}
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	limit := rate.Inf
	if callsPerSecond > 0 {
		limit = rate.Limit(callsPerSecond)
	}
	return &SharedEngine{
		inner:   inner,
		slot:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// Available delegates to the wrapped engine
func (s *SharedEngine) Available() bool {
	return s.inner.Available()
}

// Recognize waits for its turn, then runs the wrapped engine
func (s *SharedEngine) Recognize(ctx context.Context, image []byte) ([]domain.OCRToken, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Recognize(callCtx, image)
}
