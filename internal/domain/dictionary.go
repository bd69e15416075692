package domain

// DictionarySpec is the uncompiled allergen and dietary vocabulary. Patterns
// are regular expression fragments; the classifier wraps each one in
// case-insensitive word boundaries.
type DictionarySpec struct {
	Allergens map[Allergen]AllergenPatterns `json:"allergens" yaml:"allergens"`
	Dietary   map[string][]string           `json:"dietary" yaml:"dietary"`
}

// AllergenPatterns holds the include and negation fragments for one allergen
type AllergenPatterns struct {
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Negations []string `json:"negations,omitempty" yaml:"negations,omitempty"`
}

// Merge returns a copy of s with every allergen and dietary tag defined in
// override replaced by the override's entry
func (s DictionarySpec) Merge(override DictionarySpec) DictionarySpec {
	out := DictionarySpec{
		Allergens: make(map[Allergen]AllergenPatterns, len(s.Allergens)+len(override.Allergens)),
		Dietary:   make(map[string][]string, len(s.Dietary)+len(override.Dietary)),
	}
	for k, v := range s.Allergens {
		out.Allergens[k] = v
	}
	for k, v := range override.Allergens {
		out.Allergens[k] = v
	}
	for k, v := range s.Dietary {
		out.Dietary[k] = v
	}
	for k, v := range override.Dietary {
		out.Dietary[k] = v
	}
	return out
}
