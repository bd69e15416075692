package usecase

import "github.com/macrolens/menulens/internal/domain"

// Recorder receives pipeline observations, typically for metrics
type Recorder interface {
	ObserveAttempt(attempt domain.ExtractionAttempt)
	ObserveOCR(invocations int)
	ObserveResult(result *domain.ExtractionResult)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(domain.ExtractionAttempt) {}
func (nopRecorder) ObserveOCR(int) {}
func (nopRecorder) ObserveResult(*domain.ExtractionResult) {}
