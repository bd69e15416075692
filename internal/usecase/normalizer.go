package usecase

import (
	"fmt"
	"strings"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

// NormalizerConfig bounds accepted names and descriptions, in runes
type NormalizerConfig struct {
	MinNameLength        int
	MaxNameLength        int
	MaxDescriptionLength int
}

// Normalizer turns raw candidates into unscored MenuItem skeletons
type Normalizer struct {
	minName int
	maxName int
	maxDesc int
}

// NewNormalizer creates a normalizer, filling zero limits with defaults
func NewNormalizer(config NormalizerConfig) *Normalizer {
	n := &Normalizer{
		minName: config.MinNameLength,
		maxName: config.MaxNameLength,
		maxDesc: config.MaxDescriptionLength,
	}
	if n.minName <= 0 {
		n.minName = 2
	}
	if n.maxName <= 0 {
		n.maxName = 120
	}
	if n.maxDesc <= 0 {
		n.maxDesc = 500
	}
	return n
}

// Normalize validates and cleans one candidate. Rejections wrap
// domain.ErrMalformedCandidate.
func (n *Normalizer) Normalize(c domain.ExtractionCandidate) (domain.MenuItem, error) {
	name := textproc.CleanName(c.Name)
	length := textproc.RuneLen(name)

	switch {
	case length < n.minName:
		return domain.MenuItem{}, fmt.Errorf("%w: name %q too short", domain.ErrMalformedCandidate, name)
	case length > n.maxName:
		return domain.MenuItem{}, fmt.Errorf("%w: name too long (%d runes)", domain.ErrMalformedCandidate, length)
	case !textproc.HasLetter(name):
		return domain.MenuItem{}, fmt.Errorf("%w: name %q has no letters", domain.ErrMalformedCandidate, name)
	case textproc.IsBoilerplate(name):
		return domain.MenuItem{}, fmt.Errorf("%w: name %q is not a dish", domain.ErrMalformedCandidate, name)
	}

	item := domain.MenuItem{
		Name:        name,
		Category:    n.category(c, name),
		Allergens:   []domain.Allergen{},
		DietaryTags: []string{},
		Source:      c.Strategy,
		SourceURL:   c.SourceURL,
		Provenance:  c.Provenance,
		Strategies:  []domain.StrategyTag{c.Strategy},
	}

	if desc := textproc.CollapseSpace(c.Description); desc != "" &&
		textproc.NormalizeKey(desc) != textproc.NormalizeKey(name) {
		desc = textproc.Truncate(desc, n.maxDesc)
		item.Description = &desc
	}

	if price, ok := textproc.ParsePrice(c.RawPrice); ok {
		item.Price = &price
	}

	return item, nil
}

// NormalizeAll normalizes every candidate, returning the accepted items in
// input order and the number rejected
func (n *Normalizer) NormalizeAll(cands []domain.ExtractionCandidate) ([]domain.MenuItem, int) {
	items := make([]domain.MenuItem, 0, len(cands))
	rejected := 0
	for _, c := range cands {
		item, err := n.Normalize(c)
		if err != nil {
			rejected++
			continue
		}
		items = append(items, item)
	}
	return items, rejected
}

func (n *Normalizer) category(c domain.ExtractionCandidate, name string) string {
	if label := strings.ToLower(textproc.CollapseSpace(c.Category)); label != "" {
		return label
	}
	if inferred := textproc.InferCategory(name + " " + c.Description); inferred != "" {
		return inferred
	}
	return domain.UncategorizedCategory
}
