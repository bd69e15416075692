package domain

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// StrategyTag identifies which extraction strategy produced a candidate
type StrategyTag string

const (
	StrategyStructuredMetadata StrategyTag = "structured_metadata"
	StrategySelectorPattern    StrategyTag = "selector_pattern"
	StrategyPriceText          StrategyTag = "price_text"
	StrategyReviewMining       StrategyTag = "review_mining"
	StrategyImageOCR           StrategyTag = "image_ocr"
)

// Priority returns the fixed invocation order of the strategy (1 runs first).
// Unknown tags sort last.
func (t StrategyTag) Priority() int {
	switch t {
	case StrategyStructuredMetadata:
		return 1
	case StrategySelectorPattern:
		return 2
	case StrategyPriceText:
		return 3
	case StrategyReviewMining:
		return 4
	case StrategyImageOCR:
		return 5
	default:
		return 99
	}
}

// Allergen is one of the nine allergen categories the classifier reports
type Allergen string

const (
	AllergenGluten    Allergen = "gluten"
	AllergenDairy     Allergen = "dairy"
	AllergenNuts      Allergen = "nuts"
	AllergenPeanuts   Allergen = "peanuts"
	AllergenEggs      Allergen = "eggs"
	AllergenSoy       Allergen = "soy"
	AllergenFish      Allergen = "fish"
	AllergenShellfish Allergen = "shellfish"
	AllergenSesame    Allergen = "sesame"
)

// AllAllergens lists the closed allergen vocabulary in report order
var AllAllergens = []Allergen{
	AllergenGluten, AllergenDairy, AllergenNuts, AllergenPeanuts, AllergenEggs,
	AllergenSoy, AllergenFish, AllergenShellfish, AllergenSesame,
}

// IsKnownAllergen reports whether a belongs to the allergen vocabulary
func IsKnownAllergen(a Allergen) bool {
	for _, known := range AllAllergens {
		if a == known {
			return true
		}
	}
	return false
}

// UncategorizedCategory is the category assigned when no label or keyword applies
const UncategorizedCategory = "uncategorized"

// RestaurantDescriptor identifies one restaurant to process
type RestaurantDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Location string `json:"location,omitempty"`
}

// Validate checks the descriptor is usable as pipeline input
func (d RestaurantDescriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDescriptor)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDescriptor)
	}
	u, err := url.Parse(strings.TrimSpace(d.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: url %q is not an absolute http(s) URL", ErrInvalidDescriptor, d.URL)
	}
	return nil
}

// ExtractionCandidate is the raw output of a strategy before normalization
type ExtractionCandidate struct {
	Strategy    StrategyTag `json:"strategy"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	RawPrice    string      `json:"rawPrice,omitempty"`
	Category    string      `json:"category,omitempty"`
	Provenance  string      `json:"provenance,omitempty"`
	SourceURL   string      `json:"sourceUrl,omitempty"`
}

// MenuItem is a normalized, classified and scored menu record
type MenuItem struct {
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	Price       *float64      `json:"price"`
	Category    string        `json:"category"`
	Allergens   []Allergen    `json:"allergens"`
	DietaryTags []string      `json:"dietaryTags"`
	Confidence  float64       `json:"confidence"`
	Source      StrategyTag   `json:"sourceStrategy"`
	SourceURL   string        `json:"sourceUrl"`
	Provenance  string        `json:"provenance"`
	Strategies  []StrategyTag `json:"strategies"`
}

// HasPrice reports whether the item carries a parsed price
func (m MenuItem) HasPrice() bool {
	return m.Price != nil
}

// DescriptionText returns the description or an empty string
func (m MenuItem) DescriptionText() string {
	if m.Description == nil {
		return ""
	}
	return *m.Description
}

// ClassificationText is the text the allergen classifier runs over
func (m MenuItem) ClassificationText() string {
	if m.Description == nil {
		return m.Name
	}
	return m.Name + " " + *m.Description
}

// ExtractionAttempt records one strategy run against one source
type ExtractionAttempt struct {
	SourceURL      string        `json:"sourceUrl"`
	Strategy       StrategyTag   `json:"strategy"`
	CandidateCount int           `json:"candidateCount"`
	Elapsed        time.Duration `json:"elapsedNs"`
	Error          string        `json:"error"`
}

// ExtractionResult is the pipeline output for one restaurant
type ExtractionResult struct {
	RunID        string              `json:"runId"`
	RestaurantID string              `json:"restaurantId"`
	Items        []MenuItem          `json:"items"`
	Success      bool                `json:"success"`
	ItemCount    int                 `json:"itemCount"`
	UsedFallback bool                `json:"usedFallback"`
	UsedOCR      bool                `json:"usedOcr"`
	FallbackURL  string              `json:"fallbackUrl"`
	Attempts     []ExtractionAttempt `json:"attempts"`
	Error        string              `json:"error"`
	Duration     time.Duration       `json:"durationNs"`
}

// PriceCoverage returns the share of items that carry a price, in [0,1]
func (r *ExtractionResult) PriceCoverage() float64 {
	if len(r.Items) == 0 {
		return 0
	}
	priced := 0
	for _, item := range r.Items {
		if item.HasPrice() {
			priced++
		}
	}
	return float64(priced) / float64(len(r.Items))
}

// AllergenSummary counts how many items carry each allergen
func (r *ExtractionResult) AllergenSummary() map[Allergen]int {
	summary := make(map[Allergen]int)
	for _, item := range r.Items {
		for _, a := range item.Allergens {
			summary[a]++
		}
	}
	return summary
}

// SortAllergens returns a de-duplicated copy of set in vocabulary order
func SortAllergens(set []Allergen) []Allergen {
	seen := make(map[Allergen]bool, len(set))
	for _, a := range set {
		seen[a] = true
	}
	out := make([]Allergen, 0, len(seen))
	for _, a := range AllAllergens {
		if seen[a] {
			out = append(out, a)
			delete(seen, a)
		}
	}
	// anything outside the vocabulary goes last, alphabetically
	var rest []string
	for a := range seen {
		rest = append(rest, string(a))
	}
	sort.Strings(rest)
	for _, a := range rest {
		out = append(out, Allergen(a))
	}
	return out
}

// SortTags returns a de-duplicated, sorted copy of tags
func SortTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SortStrategies returns a de-duplicated copy of tags in priority order
func SortStrategies(tags []StrategyTag) []StrategyTag {
	seen := make(map[StrategyTag]bool, len(tags))
	out := make([]StrategyTag, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority() < out[j].Priority()
	})
	return out
}
