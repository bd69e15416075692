package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// foodTerms contains dish and ingredient keywords that mark text as food
var foodTerms = map[string]bool{
	// Proteins
	"chicken": true, "beef": true, "pork": true, "fish": true, "salmon": true,
	"turkey": true, "lamb": true, "shrimp": true, "tuna": true, "bacon": true,
	"sausage": true, "steak": true, "ham": true, "crab": true, "lobster": true,
	"duck": true, "veal": true, "ribs": true, "brisket": true, "tofu": true,
	"scallops": true, "oysters": true, "mussels": true, "clams": true, "calamari": true,
	"prawns": true, "cod": true, "halibut": true, "chorizo": true, "meatballs": true,
	// Dairy & eggs
	"cheese": true, "yogurt": true, "butter": true, "cream": true, "eggs": true,
	"egg": true, "cheddar": true, "mozzarella": true, "parmesan": true, "feta": true,
	"ricotta": true, "burrata": true, "omelette": true, "omelet": true,
	// Grains
	"bread": true, "rice": true, "pasta": true, "noodles": true, "tortilla": true,
	"bagel": true, "spaghetti": true, "linguine": true, "fettuccine": true, "penne": true,
	"ravioli": true, "lasagna": true, "gnocchi": true, "risotto": true, "focaccia": true,
	"pancakes": true, "waffles": true, "toast": true, "croissant": true, "biscuit": true,
	// Produce
	"lettuce": true, "tomato": true, "potato": true, "onion": true, "mushroom": true,
	"spinach": true, "avocado": true, "pepper": true, "corn": true, "beans": true,
	"eggplant": true, "zucchini": true, "kale": true, "arugula": true, "basil": true,
	"garlic": true, "lemon": true, "fries": true,
	// Beverages
	"juice": true, "soda": true, "coffee": true, "tea": true, "latte": true,
	"espresso": true, "cappuccino": true, "lemonade": true, "smoothie": true, "shake": true,
	"beer": true, "wine": true, "cocktail": true, "margarita": true, "mojito": true,
	// Sweets
	"cake": true, "pie": true, "brownie": true, "cookie": true, "cookies": true,
	"chocolate": true, "cheesecake": true, "tiramisu": true, "gelato": true, "sundae": true,
	"pudding": true, "tart": true, "donut": true, "churros": true,
	// Sauces
	"sauce": true, "salsa": true, "dressing": true, "aioli": true, "pesto": true,
	"marinara": true, "alfredo": true, "gravy": true, "curry": true,
	// Dishes
	"pizza": true, "burger": true, "sandwich": true, "soup": true, "salad": true,
	"burrito": true, "taco": true, "tacos": true, "wrap": true, "quesadilla": true,
	"nachos": true, "wings": true, "sushi": true, "roll": true, "ramen": true,
	"pho": true, "dumplings": true, "bao": true, "bowl": true, "kebab": true,
	"gyro": true, "falafel": true, "hummus": true, "tikka": true, "masala": true,
	"biryani": true, "pad": true, "thai": true, "teriyaki": true, "tempura": true,
	"bruschetta": true, "calzone": true, "panini": true, "chowder": true, "bisque": true,
	"margherita": true, "carbonara": true, "scampi": true, "parmigiana": true, "fajitas": true,
	"enchiladas": true, "paella": true, "poke": true, "benedict": true, "slider": true,
	"sliders": true, "stew": true, "skewers": true, "platter": true, "entree": true,
	"appetizer": true, "dessert": true, "special": true,
}

// categoryRule maps a keyword family to a category label. Rules are applied
// in order so that "Chicken Caesar Salad" lands in salad, not meat.
type categoryRule struct {
	category string
	pattern  *regexp.Regexp
}

var categoryRules = []categoryRule{
	{"dessert", regexp.MustCompile(`(?i)\b(?:desserts?|cakes?|cheesecake|pies?|brownies?|ice cream|gelato|tiramisu|puddings?|cookies?|sundaes?|tarts?|churros|cannoli|donuts?)\b`)},
	{"beverage", regexp.MustCompile(`(?i)\b(?:beverages?|drinks?|coffee|teas?|latte|espresso|cappuccino|sodas?|juices?|smoothies?|lemonade|beers?|wines?|cocktails?|shakes?|milkshakes?|mojito|sangria)\b`)},
	{"pizza", regexp.MustCompile(`(?i)\b(?:pizzas?|margherita|calzones?|flatbreads?|stromboli)\b`)},
	{"pasta", regexp.MustCompile(`(?i)\b(?:pastas?|spaghetti|linguine|fettuccine|penne|ravioli|lasagna|gnocchi|carbonara|alfredo|rigatoni|tortellini|noodles?)\b`)},
	{"salad", regexp.MustCompile(`(?i)\b(?:salads?|caesar|greens)\b`)},
	{"soup", regexp.MustCompile(`(?i)\b(?:soups?|chowder|bisque|broth|ramen|pho|gumbo|minestrone)\b`)},
	{"sandwich", regexp.MustCompile(`(?i)\b(?:sandwich(?:es)?|burgers?|wraps?|subs?|panini|hoagies?|melts?|sliders?|gyros?|tacos?|burritos?)\b`)},
	{"seafood", regexp.MustCompile(`(?i)\b(?:seafood|fish|salmon|tuna|shrimp|lobster|crab|scallops?|oysters?|mussels|clams|sushi|cod|halibut|prawns?|scampi)\b`)},
	{"appetizer", regexp.MustCompile(`(?i)\b(?:appetizers?|starters?|wings|nachos|calamari|bruschetta|dips?|sliders|fries|dumplings|spring rolls?|small plates?)\b`)},
	{"meat", regexp.MustCompile(`(?i)\b(?:steaks?|chicken|beef|pork|lamb|ribs|brisket|veal|duck|chops?|sausages?|meatballs?)\b`)},
}

// tokenize lowercases text and splits it into letter runs
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// ContainsFoodKeyword reports whether text mentions a dish or ingredient.
// Simple plurals ("burgers", "tomatoes") are folded before lookup.
func ContainsFoodKeyword(text string) bool {
	for _, token := range tokenize(text) {
		if foodTerms[token] {
			return true
		}
		if strings.HasSuffix(token, "es") && foodTerms[strings.TrimSuffix(token, "es")] {
			return true
		}
		if strings.HasSuffix(token, "s") && foodTerms[strings.TrimSuffix(token, "s")] {
			return true
		}
	}
	return false
}

// InferCategory returns the first category whose keyword family appears in
// text, or an empty string
func InferCategory(text string) string {
	for _, rule := range categoryRules {
		if rule.pattern.MatchString(text) {
			return rule.category
		}
	}
	return ""
}
