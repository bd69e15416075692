package usecase

import (
	"math"

	"github.com/agext/levenshtein"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

// DedupConfig holds the fuzzy-match tolerances
type DedupConfig struct {
	SimilarityThreshold float64 // levenshtein similarity of normalized names
	PriceTolerance      float64 // prices closer than this agree
}

// Deduplicator merges items that describe the same menu entry
type Deduplicator struct {
	threshold float64
	tolerance float64
}

// NewDeduplicator creates a deduplicator, applying defaults to zero values
func NewDeduplicator(config DedupConfig) *Deduplicator {
	threshold := config.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.9
	}
	tolerance := config.PriceTolerance
	if tolerance <= 0 {
		tolerance = 0.01
	}
	return &Deduplicator{threshold: threshold, tolerance: tolerance}
}

// Matches reports whether a and b refer to the same dish: identical
// normalized names, or near-identical names whose prices agree when both
// are known. It is symmetric.
func (d *Deduplicator) Matches(a, b domain.MenuItem) bool {
	ka, kb := textproc.NormalizeKey(a.Name), textproc.NormalizeKey(b.Name)
	if ka == kb {
		return true
	}
	if a.Price != nil && b.Price != nil && math.Abs(*a.Price-*b.Price) > d.tolerance+1e-9 {
		return false
	}
	return levenshtein.Similarity(ka, kb, nil) >= d.threshold
}

// Dedup merges matching items until no two survivors match. Survivors keep
// the position of the first item of their group, and Dedup(Dedup(x)) equals
// Dedup(x).
func (d *Deduplicator) Dedup(items []domain.MenuItem) []domain.MenuItem {
	out := make([]domain.MenuItem, len(items))
	copy(out, items)
	for {
		merged, changed := d.pass(out)
		out = merged
		if !changed {
			return out
		}
	}
}

func (d *Deduplicator) pass(items []domain.MenuItem) ([]domain.MenuItem, bool) {
	out := make([]domain.MenuItem, 0, len(items))
	changed := false
	for _, item := range items {
		merged := false
		for i := range out {
			if d.Matches(out[i], item) {
				out[i] = d.Merge(out[i], item)
				merged, changed = true, true
				break
			}
		}
		if !merged {
			out = append(out, item)
		}
	}
	return out, changed
}

// Merge combines two matching items. The higher-confidence item wins
// (then the earlier strategy, then a); its missing fields are filled from
// the other. Sets are unioned, the confidence is the maximum and the
// provenance comes from the earliest-priority strategy.
func (d *Deduplicator) Merge(a, b domain.MenuItem) domain.MenuItem {
	winner, loser := a, b
	switch {
	case b.Confidence > a.Confidence:
		winner, loser = b, a
	case b.Confidence == a.Confidence && b.Source.Priority() < a.Source.Priority():
		winner, loser = b, a
	}

	merged := winner
	if merged.Price == nil {
		merged.Price = loser.Price
	}
	if merged.Description == nil {
		merged.Description = loser.Description
	}
	if missingCategory(merged.Category) && !missingCategory(loser.Category) {
		merged.Category = loser.Category
	}

	merged.Allergens = domain.SortAllergens(append(append([]domain.Allergen{}, a.Allergens...), b.Allergens...))
	merged.DietaryTags = domain.SortTags(append(append([]string{}, a.DietaryTags...), b.DietaryTags...))
	merged.Strategies = domain.SortStrategies(append(append([]domain.StrategyTag{a.Source}, a.Strategies...),
		append([]domain.StrategyTag{b.Source}, b.Strategies...)...))
	merged.Confidence = math.Max(a.Confidence, b.Confidence)

	if loser.Source.Priority() < winner.Source.Priority() {
		merged.Source = loser.Source
		merged.SourceURL = loser.SourceURL
		merged.Provenance = loser.Provenance
	}
	return merged
}

func missingCategory(c string) bool {
	return c == "" || c == domain.UncategorizedCategory
}
