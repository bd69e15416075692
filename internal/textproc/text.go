// Package textproc holds the text heuristics shared by the extraction
// strategies and the normalizer: price tokens, cleanup, boilerplate
// detection and food vocabulary.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// leading bullets and list numbering such as "• ", "- ", "3. ", "12) "
	leadingMarkerPattern = regexp.MustCompile(`^\s*(?:[•·*▪►◦\-–—]+|\d{1,2}[.)])\s*`)

	// dot leaders and trailing separators left behind once a price is cut off
	dotLeaderPattern         = regexp.MustCompile(`\s*(?:\.{2,}|…+|_{2,})\s*`)
	trailingSeparatorPattern = regexp.MustCompile(`[\s.:·•\-–—|,;/]+$`)

	// "Name - description" and "Name: description"
	nameDescriptionSplit = regexp.MustCompile(`\s+[-–—]\s+|:\s+`)
)

// boilerplatePatterns flag navigation, contact, social and bot-wall text
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b\d[\d,.]*k?\s*(?:photos?|reviews?|ratings?|stars?)\b`),
	regexp.MustCompile(`(?i)\b(?:copyright|privacy|cookies?|terms of (?:use|service)|all rights reserved)\b`),
	regexp.MustCompile(`(?i)\b(?:follow us|join our|newsletter|subscribe to|sign (?:in|up)|log ?in|create (?:an )?account)\b`),
	regexp.MustCompile(`(?i)\b(?:captcha|are you (?:a robot|human)|not a robot|verify (?:you|that you)|access denied|enable javascript)\b`),
	regexp.MustCompile(`(?i)\b(?:on|via|with)\s+(?:yelp|google|facebook|instagram|tripadvisor|twitter|tiktok)\b`),
	regexp.MustCompile(`(?i)\b(?:contact us|get directions|opening hours|hours of operation|book a table|make a reservation|open daily|gift cards?)\b`),
	// single nav and contact words only count as the whole text or as a "Label:" prefix
	regexp.MustCompile(`(?i)^(?:our\s+)?(?:contact|address|phone|e-?mail|directions|locations?|hours|reservations?|careers|register|subscribe|yelp|google|facebook|instagram|tripadvisor|twitter|tiktok)(?:\s+us)?\s*(?::|$)`),
	regexp.MustCompile(`(?i)^(?:home|about(?: us)?|menus?|our menu|full menu|view (?:menu|more|all)|see (?:all|more|menu)|more|order(?: now| online)?|click here|submit|button|back|next|previous|section|category|categories|photos?|reviews?)$`),
	regexp.MustCompile(`(?i)^(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?(?:\s*[-–,&]\s*(?:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?)*$`),
	regexp.MustCompile(`(?i)^(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?(?:\s+\d{1,2})?(?:,?\s+\d{4})?$`),
	regexp.MustCompile(`(?i)^\d{1,2}(?::\d{2})?\s*(?:am|pm)\b`),
}

// CollapseSpace trims s and collapses runs of whitespace into single spaces
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeKey case-folds s, strips punctuation and symbols, and collapses
// whitespace. Two names with the same key are the same dish.
func NormalizeKey(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return unicode.ToLower(r)
	}, s)
	return CollapseSpace(mapped)
}

// CleanName strips list markers, dot leaders, price tokens and trailing
// separators from a candidate name
func CleanName(s string) string {
	s = CollapseSpace(s)
	s = leadingMarkerPattern.ReplaceAllString(s, "")
	s = StripPrices(s)
	s = dotLeaderPattern.ReplaceAllString(s, " ")
	s = trailingSeparatorPattern.ReplaceAllString(s, "")
	return CollapseSpace(s)
}

// SplitNameDescription splits "Name - description" or "Name: description".
// When no separator is present the whole clause is the name.
func SplitNameDescription(clause string) (string, string) {
	clause = CollapseSpace(clause)
	loc := nameDescriptionSplit.FindStringIndex(clause)
	if loc == nil || loc[0] == 0 {
		return clause, ""
	}
	return strings.TrimSpace(clause[:loc[0]]), strings.TrimSpace(clause[loc[1]:])
}

// IsBoilerplate reports whether text looks like navigation, contact info,
// review counters, dates or a bot wall rather than a dish
func IsBoilerplate(text string) bool {
	text = CollapseSpace(text)
	if text == "" {
		return true
	}
	for _, re := range boilerplatePatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// HasLetter reports whether s contains at least one letter
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsTitleCase reports whether every word of at least two letters starts with
// an upper-case letter, ignoring short connectives ("and", "with", "of")
func IsTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if connectives[strings.ToLower(w)] {
			continue
		}
		r := []rune(w)
		if len(r) < 2 {
			continue
		}
		if !unicode.IsUpper(r[0]) {
			return false
		}
	}
	return true
}

var connectives = map[string]bool{
	"and": true, "with": true, "of": true, "on": true, "in": true,
	"a": true, "the": true, "de": true, "al": true, "la": true, "&": true,
}

// RuneLen returns the number of runes in s
func RuneLen(s string) int {
	return len([]rune(s))
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
