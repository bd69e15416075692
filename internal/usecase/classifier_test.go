package usecase

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/macrolens/menulens/internal/domain"
)

func TestClassify(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		text          string
		wantAllergens []domain.Allergen
		wantTags      []string
	}{
		{"Shrimp Scampi", []domain.Allergen{domain.AllergenShellfish}, []string{}},
		{"Grilled Salmon with Lemon Butter", []domain.Allergen{domain.AllergenDairy, domain.AllergenFish}, []string{}},
		{"Spicy Tofu Stir Fry (vegan, gf)", []domain.Allergen{domain.AllergenSoy}, []string{"gluten-free", "spicy", "vegan"}},
		{"Pad Thai with peanuts", []domain.Allergen{domain.AllergenPeanuts}, []string{}},
		{"Plant-based Burger", []domain.Allergen{}, []string{"vegan", "vegetarian"}},
		{"", []domain.Allergen{}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(tt.text)
			if !reflect.DeepEqual(got.Allergens, tt.wantAllergens) {
				t.Errorf("Allergens = %v, want %v", got.Allergens, tt.wantAllergens)
			}
			if !reflect.DeepEqual(got.DietaryTags, tt.wantTags) {
				t.Errorf("DietaryTags = %v, want %v", got.DietaryTags, tt.wantTags)
			}
		})
	}
}

func TestClassify_Negation(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		text       string
		suppressed domain.Allergen
	}{
		{"Almond Cake, nut free", domain.AllergenNuts},
		{"Chocolate Tart (nut-free)", domain.AllergenNuts},
		{"Vegan Cheese Pizza - dairy free", domain.AllergenDairy},
		{"Non-dairy Latte with oat milk", domain.AllergenDairy},
		{"Paella, no shellfish", domain.AllergenShellfish},
		{"Caesar Salad without eggs", domain.AllergenEggs},
		{"Gluten-free Pasta Primavera", domain.AllergenGluten},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := c.Classify(tt.text)
			for _, a := range got.Allergens {
				if a == tt.suppressed {
					t.Errorf("Classify(%q) allergens = %v, %s should be suppressed", tt.text, got.Allergens, tt.suppressed)
				}
			}
		})
	}

	t.Run("negation only affects its own category", func(t *testing.T) {
		got := c.Classify("Pad Thai, no shellfish, with peanuts")
		want := []domain.Allergen{domain.AllergenPeanuts}
		if !reflect.DeepEqual(got.Allergens, want) {
			t.Errorf("Allergens = %v, want %v", got.Allergens, want)
		}
	})

	t.Run("negation adds the matching dietary tag", func(t *testing.T) {
		got := c.Classify("Chocolate Tart (nut-free)")
		if !reflect.DeepEqual(got.DietaryTags, []string{"nut-free"}) {
			t.Errorf("DietaryTags = %v, want [nut-free]", got.DietaryTags)
		}
	})
}

func TestClassifierApply(t *testing.T) {
	c := NewClassifier(nil)
	desc := "with sweet chili sauce"
	item := domain.MenuItem{
		Name:        "Shrimp Toast",
		Description: &desc,
		Allergens:   []domain.Allergen{domain.AllergenSesame},
		DietaryTags: []string{"house-special"},
	}

	c.Apply(&item)

	wantAllergens := []domain.Allergen{domain.AllergenShellfish, domain.AllergenSesame}
	if !reflect.DeepEqual(item.Allergens, wantAllergens) {
		t.Errorf("Allergens = %v, want %v", item.Allergens, wantAllergens)
	}
	wantTags := []string{"house-special", "spicy"}
	if !reflect.DeepEqual(item.DietaryTags, wantTags) {
		t.Errorf("DietaryTags = %v, want %v", item.DietaryTags, wantTags)
	}
}

func TestClassifierSwap(t *testing.T) {
	c := NewClassifier(nil)

	custom, err := CompileDictionary(domain.DictionarySpec{
		Allergens: map[domain.Allergen]domain.AllergenPatterns{
			domain.AllergenGluten: {Patterns: []string{`zorblax`}},
		},
	})
	if err != nil {
		t.Fatalf("CompileDictionary() error = %v", err)
	}
	c.Swap(custom)

	if got := c.Classify("zorblax bread").Allergens; !reflect.DeepEqual(got, []domain.Allergen{domain.AllergenGluten}) {
		t.Errorf("after swap Allergens = %v, want [gluten]", got)
	}
	if got := c.Classify("shrimp").Allergens; len(got) != 0 {
		t.Errorf("after swap shrimp allergens = %v, want none", got)
	}

	t.Run("nil swap is ignored", func(t *testing.T) {
		c.Swap(nil)
		if c.Dictionary() != custom {
			t.Error("Swap(nil) replaced the dictionary")
		}
	})

	t.Run("invalid update keeps the active dictionary", func(t *testing.T) {
		err := c.Update(domain.DictionarySpec{
			Allergens: map[domain.Allergen]domain.AllergenPatterns{"celery": {Patterns: []string{"celery"}}},
		})
		if !errors.Is(err, domain.ErrInvalidDictionary) {
			t.Errorf("Update() error = %v, want ErrInvalidDictionary", err)
		}
		if c.Dictionary() != custom {
			t.Error("failed Update replaced the dictionary")
		}
	})
}

func TestClassifierSwap_Concurrent(t *testing.T) {
	c := NewClassifier(nil)
	alt := MustCompileDictionary(DefaultDictionarySpec())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				got := c.Classify("Shrimp Scampi")
				if len(got.Allergens) != 1 || got.Allergens[0] != domain.AllergenShellfish {
					t.Errorf("Classify during swap = %v", got.Allergens)
					return
				}
			}
		}()
	}
	for j := 0; j < 100; j++ {
		c.Swap(alt)
	}
	wg.Wait()
}

func TestCompileDictionary_Errors(t *testing.T) {
	tests := []struct {
		name string
		spec domain.DictionarySpec
	}{
		{
			name: "unknown allergen",
			spec: domain.DictionarySpec{Allergens: map[domain.Allergen]domain.AllergenPatterns{
				"mustard": {Patterns: []string{"mustard"}},
			}},
		},
		{
			name: "bad pattern",
			spec: domain.DictionarySpec{Allergens: map[domain.Allergen]domain.AllergenPatterns{
				domain.AllergenSoy: {Patterns: []string{"soy("}},
			}},
		},
		{
			name: "bad negation",
			spec: domain.DictionarySpec{Allergens: map[domain.Allergen]domain.AllergenPatterns{
				domain.AllergenSoy: {Patterns: []string{"soy"}, Negations: []string{"[soy"}},
			}},
		},
		{
			name: "empty fragment",
			spec: domain.DictionarySpec{Dietary: map[string][]string{"vegan": {" "}}},
		},
		{
			name: "empty tag",
			spec: domain.DictionarySpec{Dietary: map[string][]string{"": {"vegan"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CompileDictionary(tt.spec); !errors.Is(err, domain.ErrInvalidDictionary) {
				t.Errorf("CompileDictionary() error = %v, want ErrInvalidDictionary", err)
			}
		})
	}
}

func TestDefaultDictionaryCoversVocabulary(t *testing.T) {
	dict := MustCompileDictionary(DefaultDictionarySpec())
	if got := dict.Allergens(); !reflect.DeepEqual(got, domain.AllAllergens) {
		t.Errorf("Allergens() = %v, want %v", got, domain.AllAllergens)
	}
}
