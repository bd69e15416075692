package batch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/macrolens/menulens/internal/domain"
)

// Summary totals a batch run
type Summary struct {
	Restaurants int
	Succeeded   int
	Items       int
}

// ResultWriter writes each result as one JSON line
type ResultWriter struct {
	mu      sync.Mutex
	enc     *json.Encoder
	summary Summary
	err     error
}

// NewResultWriter creates a writer on w
func NewResultWriter(w io.Writer) *ResultWriter {
	return &ResultWriter{enc: json.NewEncoder(w)}
}

// Write encodes one result. After the first failure every call is a no-op
// and Err reports the failure.
func (w *ResultWriter) Write(result *domain.ExtractionResult) {
	if result == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	if err := w.enc.Encode(result); err != nil {
		w.err = fmt.Errorf("write result %s: %w", result.RestaurantID, err)
		return
	}
	w.summary.Restaurants++
	w.summary.Items += result.ItemCount
	if result.Success {
		w.summary.Succeeded++
	}
}

// Err returns the first write failure
func (w *ResultWriter) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Summary returns the totals so far
func (w *ResultWriter) Summary() Summary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.summary
}
