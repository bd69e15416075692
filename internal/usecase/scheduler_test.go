package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/macrolens/menulens/internal/domain"
)

// MockExtractor tracks how many extractions run at once
type MockExtractor struct {
	delay  time.Duration
	active atomic.Int32
	peak   atomic.Int32
}

func (m *MockExtractor) Extract(ctx context.Context, desc domain.RestaurantDescriptor) *domain.ExtractionResult {
	n := m.active.Add(1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(m.delay)
	m.active.Add(-1)
	return &domain.ExtractionResult{RestaurantID: desc.ID, Success: true}
}

func descriptors(n int) []domain.RestaurantDescriptor {
	out := make([]domain.RestaurantDescriptor, n)
	for i := range out {
		out[i] = domain.RestaurantDescriptor{ID: fmt.Sprintf("r-%02d", i), Name: "R", URL: "https://r.example"}
	}
	return out
}

func TestNewScheduler(t *testing.T) {
	s := NewScheduler(&MockExtractor{}, 0, nil)
	if s.workers != 4 {
		t.Errorf("workers = %d, want 4 (default)", s.workers)
	}
}

func TestSchedulerRun(t *testing.T) {
	extractor := &MockExtractor{delay: 10 * time.Millisecond}
	s := NewScheduler(extractor, 3, nil)

	var ids []string
	err := s.Run(context.Background(), descriptors(10), func(r *domain.ExtractionResult) {
		// emit is serialized, so no lock is needed here
		ids = append(ids, r.RestaurantID)
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(ids) != 10 {
		t.Fatalf("emitted %d results, want 10", len(ids))
	}
	sort.Strings(ids)
	for i, id := range ids {
		if want := fmt.Sprintf("r-%02d", i); id != want {
			t.Errorf("ids[%d] = %s, want %s", i, id, want)
		}
	}
	if peak := extractor.peak.Load(); peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", peak)
	}
}

func TestSchedulerRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emitted := 0
	err := NewScheduler(&MockExtractor{}, 2, nil).Run(ctx, descriptors(5), func(*domain.ExtractionResult) {
		emitted++
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if emitted != 0 {
		t.Errorf("emitted = %d, want 0 after cancellation", emitted)
	}
}
