package usecase

import (
	"sync/atomic"

	"github.com/macrolens/menulens/internal/domain"
)

// Classification is the allergen and dietary tagging of one text
type Classification struct {
	Allergens   []domain.Allergen
	DietaryTags []string
}

// Classifier tags menu text with allergens and dietary labels. The
// dictionary behind it can be swapped at runtime while classification is in
// flight; each call sees one consistent dictionary.
type Classifier struct {
	dict atomic.Pointer[Dictionary]
}

// NewClassifier creates a classifier. A nil dictionary selects the built-in
// vocabulary.
func NewClassifier(dict *Dictionary) *Classifier {
	if dict == nil {
		dict = MustCompileDictionary(DefaultDictionarySpec())
	}
	c := &Classifier{}
	c.dict.Store(dict)
	return c
}

// Swap replaces the active dictionary. Nil is ignored.
func (c *Classifier) Swap(dict *Dictionary) {
	if dict != nil {
		c.dict.Store(dict)
	}
}

// Update compiles spec and swaps it in. On error the active dictionary is
// left untouched.
func (c *Classifier) Update(spec domain.DictionarySpec) error {
	dict, err := CompileDictionary(spec)
	if err != nil {
		return err
	}
	c.Swap(dict)
	return nil
}

// Dictionary returns the active dictionary
func (c *Classifier) Dictionary() *Dictionary {
	return c.dict.Load()
}

// Classify runs the active dictionary over text. An allergen whose negation
// phrase appears ("nut-free", "no shellfish") is suppressed even when one of
// its ingredients is also mentioned.
func (c *Classifier) Classify(text string) Classification {
	dict := c.dict.Load()
	out := Classification{Allergens: []domain.Allergen{}, DietaryTags: []string{}}
	if text == "" {
		return out
	}

	for _, m := range dict.allergens {
		if m.negation != nil && m.negation.MatchString(text) {
			continue
		}
		if m.include.MatchString(text) {
			out.Allergens = append(out.Allergens, m.allergen)
		}
	}
	for _, m := range dict.dietary {
		if m.include.MatchString(text) {
			out.DietaryTags = append(out.DietaryTags, m.tag)
		}
	}
	return out
}

// Apply classifies the item's name and description and unions the result
// into its allergen and dietary sets
func (c *Classifier) Apply(item *domain.MenuItem) {
	cl := c.Classify(item.ClassificationText())
	item.Allergens = domain.SortAllergens(append(append([]domain.Allergen{}, item.Allergens...), cl.Allergens...))
	item.DietaryTags = domain.SortTags(append(append([]string{}, item.DietaryTags...), cl.DietaryTags...))
}
