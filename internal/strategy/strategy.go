// Package strategy implements the independent menu extraction strategies.
// Each strategy turns one rendered page into raw candidates; normalization,
// classification and scoring happen downstream.
package strategy

import (
	"context"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
	"golang.org/x/net/html"
)

// Strategy extracts raw candidates from one page. Malformed input yields an
// empty result, never an error; errors are reserved for I/O failures.
type Strategy interface {
	Tag() domain.StrategyTag
	Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error)
}

// SortByPriority orders strategies by their fixed invocation priority
func SortByPriority(strategies []Strategy) []Strategy {
	sorted := make([]Strategy, len(strategies))
	copy(sorted, strategies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Tag().Priority() < sorted[j].Tag().Priority()
	})
	return sorted
}

// TextStrategies returns the four page-level strategies with default settings
func TextStrategies() []Strategy {
	return []Strategy{
		NewStructuredMetadata(),
		NewSelectorPattern(DefaultSelectorLibrary()),
		NewPriceText(),
		NewReviewMining(),
	}
}

func parseDocument(page *domain.PageContent) (*goquery.Document, bool) {
	if page == nil || strings.TrimSpace(page.HTML) == "" {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, false
	}
	return doc, true
}

// nodeText joins the text nodes under sel with spaces so adjacent elements
// ("<h3>Pizza</h3><span>$12</span>") do not run together
func nodeText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return textproc.CollapseSpace(strings.Join(parts, " "))
}

// firstText returns the text of the first non-empty match among selectors
func firstText(sel *goquery.Selection, selectors []string) string {
	for _, s := range selectors {
		var found string
		sel.Find(s).EachWithBreak(func(_ int, match *goquery.Selection) bool {
			found = nodeText(match)
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// dedupeCandidates drops repeated names within one strategy run
func dedupeCandidates(cands []domain.ExtractionCandidate) []domain.ExtractionCandidate {
	seen := make(map[string]bool, len(cands))
	out := cands[:0]
	for _, c := range cands {
		key := textproc.NormalizeKey(c.Name) + "|" + c.RawPrice
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}
