// Package metrics exports pipeline observations to Prometheus.
package metrics

import (
	"github.com/macrolens/menulens/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "menulens"

// Outcome labels for restaurants
const (
	OutcomeSuccess   = "success"
	OutcomeExhausted = "exhausted"
	OutcomeFailed    = "failed"
)

// Status labels for attempts
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
	StatusError = "error"
)

// Recorder implements usecase.Recorder with Prometheus collectors
type Recorder struct {
	restaurants     *prometheus.CounterVec
	attempts        *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	items           *prometheus.CounterVec
	ocrInvocations  prometheus.Counter
	priceCoverage   prometheus.Histogram
	fallbacks       prometheus.Counter
}

// NewRecorder registers the collectors on reg. Use prometheus.NewRegistry()
// in tests so registrations do not collide.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		restaurants: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "restaurants_processed_total",
				Help:      "Restaurants processed, by outcome",
			},
			[]string{"outcome"},
		),
		attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_attempts_total",
				Help:      "Strategy attempts, by strategy and status",
			},
			[]string{"strategy", "status"},
		),
		attemptDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "extraction_attempt_duration_seconds",
				Help:      "Duration of strategy attempts in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"strategy"},
		),
		items: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "menu_items_extracted_total",
				Help:      "Final menu items, by winning strategy",
			},
			[]string{"strategy"},
		),
		ocrInvocations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ocr_invocations_total",
				Help:      "Images sent to the OCR engine",
			},
		),
		priceCoverage: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "price_coverage_ratio",
				Help:      "Share of items with a price, per successful restaurant",
				Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
			},
		),
		fallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_sources_total",
				Help:      "Restaurants that needed a discovered fallback website",
			},
		),
	}
}

// ObserveAttempt counts one strategy attempt
func (r *Recorder) ObserveAttempt(attempt domain.ExtractionAttempt) {
	status := StatusOK
	switch {
	case attempt.Error != "":
		status = StatusError
	case attempt.CandidateCount == 0:
		status = StatusEmpty
	}
	strategy := string(attempt.Strategy)
	r.attempts.WithLabelValues(strategy, status).Inc()
	r.attemptDuration.WithLabelValues(strategy).Observe(attempt.Elapsed.Seconds())
}

// ObserveOCR counts images sent to OCR
func (r *Recorder) ObserveOCR(invocations int) {
	if invocations > 0 {
		r.ocrInvocations.Add(float64(invocations))
	}
}

// ObserveResult counts a finished restaurant and its items
func (r *Recorder) ObserveResult(result *domain.ExtractionResult) {
	if result == nil {
		return
	}
	r.restaurants.WithLabelValues(Outcome(result)).Inc()
	if result.UsedFallback {
		r.fallbacks.Inc()
	}
	for _, item := range result.Items {
		r.items.WithLabelValues(string(item.Source)).Inc()
	}
	if result.Success {
		r.priceCoverage.Observe(result.PriceCoverage())
	}
}

// Outcome classifies a result for the restaurants counter
func Outcome(result *domain.ExtractionResult) string {
	switch {
	case result.Success:
		return OutcomeSuccess
	case result.Error == domain.ErrAllSourcesExhausted.Error():
		return OutcomeExhausted
	default:
		return OutcomeFailed
	}
}
