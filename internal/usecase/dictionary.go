package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/macrolens/menulens/internal/domain"
)

// Dictionary is a compiled allergen and dietary vocabulary. It is immutable
// once compiled and safe to share between goroutines.
type Dictionary struct {
	allergens []allergenMatcher
	dietary   []tagMatcher
}

type allergenMatcher struct {
	allergen domain.Allergen
	include  *regexp.Regexp
	negation *regexp.Regexp // nil when the allergen has no negation phrases
}

type tagMatcher struct {
	tag     string
	include *regexp.Regexp
}

// DefaultDictionarySpec returns the built-in vocabulary
func DefaultDictionarySpec() domain.DictionarySpec {
	return domain.DictionarySpec{
		Allergens: map[domain.Allergen]domain.AllergenPatterns{
			domain.AllergenGluten: {
				Patterns: []string{
					`gluten`, `wheat`, `flour`, `breads?`, `breaded`, `pasta`, `noodles?`, `cereal`,
					`barley`, `rye`, `oats?`, `malt`, `croutons?`, `buns?`, `tortillas?`, `seitan`,
					`spaghetti`, `linguine`, `fettuccine`, `penne`, `ravioli`, `lasagna`, `couscous`,
				},
				Negations: []string{
					`gluten[\s-]?free`, `wheat[\s-]?free`, `gf`, `celiac[\s-]?(?:safe|friendly)`,
					`no gluten`, `without gluten`,
				},
			},
			domain.AllergenDairy: {
				Patterns: []string{
					`milk`, `cheeses?`, `cream`, `butter`, `yogh?urt`, `dairy`, `lactose`, `casein`,
					`whey`, `mozzarella`, `cheddar`, `parmesan`, `ricotta`, `burrata`, `feta`, `ghee`,
					`alfredo`, `gelato`, `queso`,
				},
				Negations: []string{
					`dairy[\s-]?free`, `lactose[\s-]?free`, `milk[\s-]?free`, `non[\s-]?dairy`,
					`no dairy`, `without dairy`,
				},
			},
			domain.AllergenNuts: {
				Patterns: []string{
					`nuts?`, `tree nuts?`, `almonds?`, `walnuts?`, `pecans?`, `cashews?`, `pistachios?`,
					`hazelnuts?`, `macadamia`, `brazil nuts?`, `pine nuts?`, `praline`, `pesto`,
				},
				Negations: []string{
					`(?:tree[\s-]?)?nut[\s-]?free`, `no nuts?`, `without nuts?`,
				},
			},
			domain.AllergenPeanuts: {
				Patterns: []string{`peanuts?`, `peanut butter`, `groundnuts?`, `satay`},
				Negations: []string{
					`peanut[\s-]?free`, `no peanuts?`, `without peanuts?`,
				},
			},
			domain.AllergenEggs: {
				Patterns: []string{
					`eggs?`, `egg whites?`, `egg yolks?`, `mayonnaise`, `mayo`, `hollandaise`, `aioli`,
					`meringue`, `custard`, `frittata`, `omelett?e?`, `carbonara`,
				},
				Negations: []string{`egg[\s-]?free`, `eggless`, `no eggs?`, `without eggs?`},
			},
			domain.AllergenSoy: {
				Patterns:  []string{`soy`, `soya`, `tofu`, `tempeh`, `miso`, `soy sauce`, `edamame`, `tamari`},
				Negations: []string{`soy[\s-]?free`, `no soy`, `without soy`},
			},
			domain.AllergenFish: {
				Patterns: []string{
					`fish`, `salmon`, `tuna`, `cod`, `halibut`, `anchov(?:y|ies)`, `sardines?`, `bass`,
					`trout`, `mackerel`, `tilapia`, `mahi[\s-]?mahi`, `swordfish`,
				},
				Negations: []string{`fish[\s-]?free`, `no fish`, `without fish`},
			},
			domain.AllergenShellfish: {
				Patterns: []string{
					`shellfish`, `shrimps?`, `crabs?`, `lobsters?`, `oysters?`, `mussels?`, `clams?`,
					`scallops?`, `prawns?`, `crawfish`, `crayfish`, `scampi`, `langoustines?`,
				},
				Negations: []string{`shellfish[\s-]?free`, `no shellfish`, `without shellfish`},
			},
			domain.AllergenSesame: {
				Patterns:  []string{`sesame`, `tahini`, `benne`},
				Negations: []string{`sesame[\s-]?free`, `no sesame`, `without sesame`},
			},
		},
		Dietary: map[string][]string{
			"vegetarian":  {`vegetarian`, `veggie`, `plant[\s-]?based`, `meat[\s-]?free`, `meatless`},
			"vegan":       {`vegan`, `plant[\s-]?based`},
			"gluten-free": {`gluten[\s-]?free`, `gf`, `celiac[\s-]?friendly`},
			"dairy-free":  {`dairy[\s-]?free`, `lactose[\s-]?free`, `non[\s-]?dairy`},
			"nut-free":    {`nut[\s-]?free`},
			"keto":        {`keto`, `ketogenic`, `low[\s-]?carb`},
			"paleo":       {`paleo`},
			"organic":     {`organic`, `farm[\s-]?fresh`, `locally sourced`},
			"spicy":       {`spicy`, `jalape(?:n|ñ)os?`, `habanero`, `sriracha`, `chil(?:i|li|e)s?`, `ghost pepper`},
			"healthy":     {`healthy`, `low[\s-]?cal`, `nutritious`, `superfood`},
			"halal":       {`halal`},
			"kosher":      {`kosher`},
		},
	}
}

// CompileDictionary validates spec and compiles every fragment into a
// case-insensitive whole-word pattern
func CompileDictionary(spec domain.DictionarySpec) (*Dictionary, error) {
	d := &Dictionary{}

	for a := range spec.Allergens {
		if !domain.IsKnownAllergen(a) {
			return nil, fmt.Errorf("%w: unknown allergen %q", domain.ErrInvalidDictionary, a)
		}
	}
	for _, a := range domain.AllAllergens {
		p, ok := spec.Allergens[a]
		if !ok || len(p.Patterns) == 0 {
			continue
		}
		include, err := compileFragments(p.Patterns)
		if err != nil {
			return nil, fmt.Errorf("%w: allergen %s: %v", domain.ErrInvalidDictionary, a, err)
		}
		m := allergenMatcher{allergen: a, include: include}
		if len(p.Negations) > 0 {
			if m.negation, err = compileFragments(p.Negations); err != nil {
				return nil, fmt.Errorf("%w: allergen %s negations: %v", domain.ErrInvalidDictionary, a, err)
			}
		}
		d.allergens = append(d.allergens, m)
	}

	tags := make([]string, 0, len(spec.Dietary))
	for tag := range spec.Dietary {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return nil, fmt.Errorf("%w: empty dietary tag", domain.ErrInvalidDictionary)
		}
		fragments := spec.Dietary[tag]
		if len(fragments) == 0 {
			continue
		}
		include, err := compileFragments(fragments)
		if err != nil {
			return nil, fmt.Errorf("%w: dietary tag %s: %v", domain.ErrInvalidDictionary, tag, err)
		}
		d.dietary = append(d.dietary, tagMatcher{tag: tag, include: include})
	}

	return d, nil
}

// MustCompileDictionary is CompileDictionary for vocabularies known to be valid
func MustCompileDictionary(spec domain.DictionarySpec) *Dictionary {
	d, err := CompileDictionary(spec)
	if err != nil {
		panic(err)
	}
	return d
}

func compileFragments(fragments []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, fmt.Errorf("empty pattern")
		}
		if _, err := regexp.Compile(f); err != nil {
			return nil, fmt.Errorf("pattern %q: %v", f, err)
		}
		parts = append(parts, "(?:"+f+")")
	}
	return regexp.Compile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// Allergens lists the categories the dictionary can detect
func (d *Dictionary) Allergens() []domain.Allergen {
	out := make([]domain.Allergen, len(d.allergens))
	for i, m := range d.allergens {
		out[i] = m.allergen
	}
	return out
}
