package discovery

import (
	"net/url"
	"strings"
	"unicode"
)

// DefaultMinScore is the lowest score a result needs to be accepted
const DefaultMinScore = 3

// Scoring weights
const (
	domainTokenScore = 2
	pathTokenScore   = 1
	titleNameScore   = 3
	titleTokenScore  = 1
	officialScore    = 5
)

// Listing, delivery and social sites. A host is a platform when any of its
// labels is one of these.
var platformLabels = map[string]bool{
	"yelp": true, "tripadvisor": true, "facebook": true, "instagram": true,
	"twitter": true, "tiktok": true, "youtube": true, "linkedin": true,
	"pinterest": true, "doordash": true, "ubereats": true, "grubhub": true,
	"seamless": true, "postmates": true, "opentable": true, "resy": true,
	"zomato": true, "foursquare": true, "google": true, "wikipedia": true,
	"yellowpages": true, "menupages": true, "allmenus": true,
	"timeout": true, "eater": true, "theinfatuation": true, "zagat": true,
}

// Words that say nothing about which restaurant a page belongs to
var stopWords = map[string]bool{
	"the": true, "and": true, "of": true, "a": true, "an": true,
	"restaurant": true, "restaurants": true, "bar": true, "grill": true,
	"cafe": true, "kitchen": true, "co": true,
}

// BestResult returns the highest-scoring non-platform link and its score.
// Ties keep the search engine's order. "" is returned when no result
// reaches minScore.
func BestResult(name string, results []SearchResult, minScore int) (string, int) {
	best, bestScore := "", 0
	for _, r := range results {
		score := ScoreResult(name, r)
		if score > bestScore {
			best, bestScore = r.Link, score
		}
	}
	if bestScore < minScore {
		return "", bestScore
	}
	return best, bestScore
}

// ScoreResult rates how likely a search hit is the restaurant's own site.
// Platform and non-web links score zero.
func ScoreResult(name string, r SearchResult) int {
	u, err := url.Parse(strings.TrimSpace(r.Link))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return 0
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if IsPlatform(host) {
		return 0
	}

	tokens := nameTokens(name)
	if len(tokens) == 0 {
		return 0
	}

	path := strings.ToLower(u.Path)
	title := strings.ToLower(r.Title)
	fullName := strings.Join(strings.Fields(strings.ToLower(name)), " ")

	score := 0
	for _, tok := range tokens {
		if strings.Contains(host, tok) {
			score += domainTokenScore
		}
		if strings.Contains(path, tok) {
			score += pathTokenScore
		}
	}

	if strings.Contains(title, fullName) {
		score += titleNameScore
	} else {
		for _, tok := range tokens {
			if strings.Contains(title, tok) {
				score += titleTokenScore
			}
		}
	}

	// "official" only counts for pages that already look related
	if score > 0 && (strings.Contains(title, "official") || strings.Contains(strings.ToLower(r.Snippet), "official")) {
		score += officialScore
	}
	return score
}

// IsPlatform reports whether host belongs to a listing, delivery or social
// site
func IsPlatform(host string) bool {
	for _, label := range strings.Split(strings.ToLower(host), ".") {
		if platformLabels[label] {
			return true
		}
	}
	return false
}

func nameTokens(name string) []string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, f := range fields {
		if len([]rune(f)) < 2 || stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
