package usecase

import (
	"testing"

	"github.com/macrolens/menulens/internal/domain"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func TestScore(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name string
		item domain.MenuItem
		want float64
	}{
		{
			name: "structured item with every signal is clamped",
			item: domain.MenuItem{
				Name:        "Margherita Pizza",
				Description: strPtr("Tomato, mozzarella, basil"),
				Price:       floatPtr(14),
				Allergens:   []domain.Allergen{domain.AllergenDairy},
				Source:      domain.StrategyStructuredMetadata,
			},
			want: 1.0,
		},
		{
			name: "structured prior alone",
			item: domain.MenuItem{Name: "Zorblax", Source: domain.StrategyStructuredMetadata},
			want: 0.7,
		},
		{
			name: "price text with price",
			item: domain.MenuItem{Name: "Zorblax", Price: floatPtr(9), Source: domain.StrategyPriceText},
			want: 0.7,
		},
		{
			name: "review mention with food keyword",
			item: domain.MenuItem{Name: "garlic naan", Source: domain.StrategyReviewMining},
			want: 0.5,
		},
		{
			name: "short description earns nothing",
			item: domain.MenuItem{Name: "Zorblax", Description: strPtr("tasty"), Source: domain.StrategySelectorPattern},
			want: 0.5,
		},
		{
			name: "corroboration adds per extra strategy",
			item: domain.MenuItem{
				Name:       "Zorblax",
				Source:     domain.StrategySelectorPattern,
				Strategies: []domain.StrategyTag{domain.StrategySelectorPattern, domain.StrategyPriceText},
			},
			want: 0.55,
		},
		{
			name: "corroboration is capped",
			item: domain.MenuItem{
				Name:   "Zorblax",
				Source: domain.StrategyImageOCR,
				Strategies: []domain.StrategyTag{
					domain.StrategyStructuredMetadata, domain.StrategySelectorPattern,
					domain.StrategyPriceText, domain.StrategyReviewMining, domain.StrategyImageOCR,
				},
			},
			want: 0.5,
		},
		{
			name: "unknown strategy uses the default prior",
			item: domain.MenuItem{Name: "Zorblax", Source: "hand_entered"},
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Score(tt.item)
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Score() = %v outside [0,1]", got)
			}
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := NewScorer()
	item := domain.MenuItem{
		Name:        "Chicken Tikka Masala",
		Description: strPtr("charred chicken in a spiced tomato cream sauce"),
		Price:       floatPtr(17.5),
		Source:      domain.StrategySelectorPattern,
	}
	first := s.Score(item)
	for i := 0; i < 50; i++ {
		if got := s.Score(item); got != first {
			t.Fatalf("Score() changed between calls: %v then %v", first, got)
		}
	}
}
