package strategy

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

const (
	minDishMention = 3
	maxDishMention = 40
)

// terminator closes a lazily captured dish mention
const terminator = `(?:\s+(?:and|which|that|with|but|for|because|as|at|on)\b|[.!?,;:\n)]|$)`

const praise = `(?:absolutely |really |so |very |just |simply )?(?:delicious|amazing|great|good|excellent|fantastic|incredible|outstanding|perfect|tasty|phenomenal|superb|awesome)`

// reviewTemplates surface dish names from diner prose; group 1 is the dish
var reviewTemplates = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bI (?:ordered|had|got|tried|loved) the ([^.!?,;:\n]{3,40}?)` + terminator),
	regexp.MustCompile(`(?i)\bThe ((?:[^\s.!?,;:]+ ){0,3}[^\s.!?,;:]+) (?:was|were|is|are) ` + praise),
	regexp.MustCompile(`(?i)\bTry the ([^.!?,;:\n]{3,40}?)` + terminator),
	regexp.MustCompile(`(?i)\brecommend(?:ed)? the ([^.!?,;:\n]{3,40}?)` + terminator),
	// "Chicken Tikka Masala is amazing": case-sensitive so only title-cased dishes match
	regexp.MustCompile(`\b([A-Z][a-z]+(?: (?:[A-Z][a-z]+|and|with|of)){1,4}) (?:is|was|are|were) ` + praise),
}

// reviewBlockSelectors locate review and caption text on a page
var reviewBlockSelectors = []string{
	`[class*="review"]`, `[class*="Review"]`, `[data-testid*="review"]`,
	`.comment-text`, `figcaption`, `[class*="caption"]`, `[class*="Caption"]`,
}

// ReviewMining applies templated phrases to review and caption text to find
// dishes a menu page never lists. It yields names without prices.
type ReviewMining struct{}

// NewReviewMining creates the review mining strategy
func NewReviewMining() *ReviewMining {
	return &ReviewMining{}
}

// Tag identifies the strategy
func (s *ReviewMining) Tag() domain.StrategyTag {
	return domain.StrategyReviewMining
}

// Extract mines review and caption blocks, falling back to the page text when
// the page has none
func (s *ReviewMining) Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error) {
	if page == nil {
		return nil, nil
	}

	blocks := reviewBlocks(page)
	if len(blocks) == 0 {
		return MineReviewText(page.Text, page.URL, domain.StrategyReviewMining, "page text"), nil
	}
	return MineReviewText(strings.Join(blocks, "\n"), page.URL, domain.StrategyReviewMining, "review"), nil
}

func reviewBlocks(page *domain.PageContent) []string {
	var blocks []string
	if doc, ok := parseDocument(page); ok {
		doc.Find(strings.Join(reviewBlockSelectors, ", ")).Each(func(_ int, sel *goquery.Selection) {
			// nested matches repeat their parent's text
			if sel.ParentsFiltered(strings.Join(reviewBlockSelectors, ", ")).Length() > 0 {
				return
			}
			if t := nodeText(sel); t != "" {
				blocks = append(blocks, t)
			}
		})
	}
	for _, img := range page.Images {
		if alt := textproc.CollapseSpace(img.Alt); alt != "" {
			blocks = append(blocks, alt)
		}
	}
	return blocks
}

// MineReviewText applies the review templates to text
func MineReviewText(text, sourceURL string, tag domain.StrategyTag, provenance string) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	for _, re := range reviewTemplates {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			dish := cleanDishMention(m[1])
			if !plausibleDish(dish) {
				continue
			}
			out = append(out, domain.ExtractionCandidate{
				Strategy:   tag,
				Name:       dish,
				Provenance: provenance + ": " + textproc.Truncate(textproc.CollapseSpace(m[0]), 80),
				SourceURL:  sourceURL,
			})
		}
	}
	return dedupeCandidates(out)
}

var (
	leadingFiller = regexp.MustCompile(`(?i)^(?:(?:the|a|an|our|their|my|best|famous|amazing|delicious)\s+)+`)
	// "the curry and it was": the capture ran past the dish
	pronoun = regexp.MustCompile(`(?i)\b(?:it|they|we|i|you|he|she|this|that|which)\b`)
)

func cleanDishMention(s string) string {
	s = textproc.CollapseSpace(s)
	s = leadingFiller.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func plausibleDish(s string) bool {
	n := textproc.RuneLen(s)
	if n < minDishMention || n > maxDishMention {
		return false
	}
	if textproc.IsBoilerplate(s) || pronoun.MatchString(s) {
		return false
	}
	return textproc.ContainsFoodKeyword(s) || textproc.IsTitleCase(s)
}
