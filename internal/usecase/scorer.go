package usecase

import (
	"math"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

// Base priors by strategy
const (
	priorStructured = 0.7 // machine-readable annotations
	priorDefault    = 0.5
	priorWeak       = 0.4 // review and OCR text are noisy
)

// Additive boosts
const (
	priceBoost          = 0.2
	allergenBoost       = 0.1
	descriptionBoost    = 0.1
	foodKeywordBoost    = 0.1
	corroborationBoost  = 0.05 // per additional strategy
	maxCorroboration    = 0.1
	minDescriptionRunes = 10
	maxDescriptionRunes = 300
)

var strategyPriors = map[domain.StrategyTag]float64{
	domain.StrategyStructuredMetadata: priorStructured,
	domain.StrategySelectorPattern:    priorDefault,
	domain.StrategyPriceText:          priorDefault,
	domain.StrategyReviewMining:       priorWeak,
	domain.StrategyImageOCR:           priorWeak,
}

// Scorer computes a reproducible confidence in [0,1] from an item's
// signals. It holds no state.
type Scorer struct{}

// NewScorer creates a scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Prior returns the base score for a strategy
func (s *Scorer) Prior(tag domain.StrategyTag) float64 {
	if p, ok := strategyPriors[tag]; ok {
		return p
	}
	return priorDefault
}

// Score rates item. Allergens must already be classified for the allergen
// boost to apply.
func (s *Scorer) Score(item domain.MenuItem) float64 {
	score := s.Prior(item.Source)

	if item.HasPrice() {
		score += priceBoost
	}
	if len(item.Allergens) > 0 {
		score += allergenBoost
	}
	if n := textproc.RuneLen(item.DescriptionText()); n >= minDescriptionRunes && n <= maxDescriptionRunes {
		score += descriptionBoost
	}
	if textproc.ContainsFoodKeyword(item.ClassificationText()) {
		score += foodKeywordBoost
	}
	if extra := len(domain.SortStrategies(item.Strategies)) - 1; extra > 0 {
		score += math.Min(float64(extra)*corroborationBoost, maxCorroboration)
	}

	return clampScore(score)
}

// clampScore bounds v to [0,1] and rounds to two decimals so that equal
// signals always compare equal
func clampScore(v float64) float64 {
	v = math.Round(v*100) / 100
	return math.Max(0, math.Min(1, v))
}
