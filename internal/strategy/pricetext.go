package strategy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

const maxClauseLength = 160

var (
	// hard boundaries between two items sharing a line
	clauseBoundary = regexp.MustCompile(`[;|•·!?]|\.\s`)
	dotLeaders     = regexp.MustCompile(`\.{2,}|…+`)

	// a piece count right before the price, as in "Wings 10 $12.99"
	trailingCount = regexp.MustCompile(`\s+\d{1,3}$`)
)

// PriceText anchors on currency tokens in the visible text and takes the
// clause before each one as an item name
type PriceText struct{}

// NewPriceText creates the price-anchored text strategy
func NewPriceText() *PriceText {
	return &PriceText{}
}

// Tag identifies the strategy
func (s *PriceText) Tag() domain.StrategyTag {
	return domain.StrategyPriceText
}

// Extract mines page.Text line by line
func (s *PriceText) Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error) {
	if page == nil {
		return nil, nil
	}
	return MinePriceText(page.Text, page.URL, domain.StrategyPriceText, "text"), nil
}

// MinePriceText finds "name ... price" pairs in text. A price with nothing
// before it on its line takes the previous price-less line as its name, the
// layout many menus use. Candidates carry the given tag so the OCR strategy
// can reuse this over recognized text.
func MinePriceText(text, sourceURL string, tag domain.StrategyTag, provenance string) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	pending := ""

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pending = ""
			continue
		}

		matches := textproc.FindPrices(line)
		if len(matches) == 0 {
			pending = line
			continue
		}

		prev := 0
		for j, m := range matches {
			clause := lastClause(line[prev:m.Start])
			prev = m.End
			if trimmed := trailingCount.ReplaceAllString(clause, ""); textproc.HasLetter(trimmed) {
				clause = trimmed
			}

			name, description := textproc.SplitNameDescription(clause)
			if name == "" && j == 0 && pending != "" {
				name, description = textproc.SplitNameDescription(pending)
			}
			if name == "" || textproc.RuneLen(name) > maxClauseLength {
				continue
			}

			// a single price followed by text: the tail describes the item
			if len(matches) == 1 && description == "" {
				description = strings.TrimSpace(line[m.End:])
			}

			out = append(out, domain.ExtractionCandidate{
				Strategy:    tag,
				Name:        name,
				Description: description,
				RawPrice:    m.Raw,
				Provenance:  fmt.Sprintf("%s line %d", provenance, i+1),
				SourceURL:   sourceURL,
			})
		}
		pending = ""
	}

	return dedupeCandidates(out)
}

// lastClause keeps the part of s after the last hard boundary
func lastClause(s string) string {
	s = dotLeaders.ReplaceAllString(s, " ")
	locs := clauseBoundary.FindAllStringIndex(s, -1)
	if len(locs) > 0 {
		s = s[locs[len(locs)-1][1]:]
	}
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "-–—:,"))
}
