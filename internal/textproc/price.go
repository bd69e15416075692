package textproc

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Price bounds outside which a match is treated as noise (years, phone fragments)
const (
	minPrice = 0.0
	maxPrice = 10000.0
)

// pricePattern is one currency-shaped token pattern. Group 1 is the integer
// part (thousands separators allowed), group 2 the optional fractional part.
// A trailing-symbol pattern must not claim a symbol that opens the next
// amount: in "Wings 10 $12.99" the "$" belongs to 12.99, not to 10.
type pricePattern struct {
	re             *regexp.Regexp
	trailingSymbol bool
}

var pricePatterns = []pricePattern{
	// $12.99, $ 12, US$1,250.00, Price: $9
	{re: regexp.MustCompile(`(?i)(?:price:\s*)?(?:US)?\$\s?(\d{1,3}(?:,\d{3})+|\d+)(?:[.,](\d{1,2}))?`)},
	// 12.99$
	{re: regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d+)(?:[.,](\d{2}))?\s?\$`), trailingSymbol: true},
	// USD 12.99, EUR 9,50
	{re: regexp.MustCompile(`(?i)\b(?:USD|EUR|GBP|CAD|AUD)\s?(\d{1,3}(?:,\d{3})+|\d+)(?:[.,](\d{2}))?\b`)},
	// 12 dollars, 9.50 euros
	{re: regexp.MustCompile(`(?i)\b(\d+)(?:[.,](\d{2}))?\s?(?:dollars?|bucks|euros?|usd|eur)\b`)},
	// €12,50, £9
	{re: regexp.MustCompile(`[€£]\s?(\d{1,3}(?:,\d{3})+|\d+)(?:[.,](\d{2}))?`)},
	// 12,50 €, 9£
	{re: regexp.MustCompile(`\b(\d+)(?:[.,](\d{2}))?\s?[€£]`), trailingSymbol: true},
	// bare 14.00 closing a line, as in dot-leader menus
	{re: regexp.MustCompile(`(?m)\b(\d{1,3})[.,](\d{2})[ \t]*$`)},
}

// plainNumberPattern parses structured prices such as "14", "14.5" or "1,250.00"
var plainNumberPattern = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})+|\d+)(?:[.,](\d{1,2}))?$`)

// PriceMatch is one currency-shaped token located in a text
type PriceMatch struct {
	Start int
	End   int
	Raw   string
	Value float64
}

// FindPrices returns non-overlapping price tokens in text order. When two
// patterns overlap, the one starting first (then the longer one) wins.
func FindPrices(text string) []PriceMatch {
	if text == "" {
		return nil
	}

	var all []PriceMatch
	for _, p := range pricePatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			if p.trailingSymbol && opensAmount(text[loc[1]:]) {
				continue
			}
			intPart := text[loc[2]:loc[3]]
			frac := ""
			if loc[4] >= 0 {
				frac = text[loc[4]:loc[5]]
			}
			value, ok := priceValue(intPart, frac)
			if !ok {
				continue
			}
			all = append(all, PriceMatch{
				Start: loc[0],
				End:   loc[1],
				Raw:   strings.TrimSpace(text[loc[0]:loc[1]]),
				Value: value,
			})
		}
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End > all[j].End
	})

	var matches []PriceMatch
	lastEnd := -1
	for _, m := range all {
		if m.Start < lastEnd {
			continue
		}
		matches = append(matches, m)
		lastEnd = m.End
	}
	return matches
}

// opensAmount reports whether rest starts with a digit
func opensAmount(rest string) bool {
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

// ParsePrice converts a raw price string into a value. It accepts any
// currency-shaped token as well as a bare number; comma decimals ("12,50")
// and thousands separators ("1,234.56") are both understood.
func ParsePrice(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if m := plainNumberPattern.FindStringSubmatch(raw); m != nil {
		return priceValue(m[1], m[2])
	}
	if matches := FindPrices(raw); len(matches) > 0 {
		return matches[0].Value, true
	}
	return 0, false
}

// StripPrices removes every price token from text
func StripPrices(text string) string {
	matches := FindPrices(text)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	prev := 0
	for _, m := range matches {
		b.WriteString(text[prev:m.Start])
		b.WriteByte(' ')
		prev = m.End
	}
	b.WriteString(text[prev:])
	return CollapseSpace(b.String())
}

func priceValue(intPart, frac string) (float64, bool) {
	intPart = strings.ReplaceAll(intPart, ",", "")
	s := intPart
	if frac != "" {
		s += "." + frac
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= minPrice || v >= maxPrice {
		return 0, false
	}
	return v, true
}
