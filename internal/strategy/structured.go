package strategy

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
)

// StructuredMetadata reads schema.org menu data from JSON-LD blocks and
// microdata attributes
type StructuredMetadata struct{}

// NewStructuredMetadata creates the structured-metadata strategy
func NewStructuredMetadata() *StructuredMetadata {
	return &StructuredMetadata{}
}

// Tag identifies the strategy
func (s *StructuredMetadata) Tag() domain.StrategyTag {
	return domain.StrategyStructuredMetadata
}

// Extract walks every JSON-LD block and MenuItem microdata scope on the page
func (s *StructuredMetadata) Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error) {
	doc, ok := parseDocument(page)
	if !ok {
		return nil, nil
	}

	var out []domain.ExtractionCandidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}
		var data any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return
		}
		s.walk(data, "", page.URL, &out)
	})

	out = append(out, s.microdata(doc, page.URL)...)
	return dedupeCandidates(out), nil
}

// walk descends through objects, arrays and @graph looking for MenuItem
// nodes; the nearest enclosing MenuSection name becomes the category
func (s *StructuredMetadata) walk(node any, section, sourceURL string, out *[]domain.ExtractionCandidate) {
	switch n := node.(type) {
	case []any:
		for _, child := range n {
			s.walk(child, section, sourceURL, out)
		}
	case map[string]any:
		types := schemaTypes(n["@type"])
		if types["MenuItem"] {
			if c, ok := menuItemCandidate(n, section, sourceURL); ok {
				*out = append(*out, c)
			}
			return
		}
		if types["MenuSection"] {
			if name := stringValue(n["name"]); name != "" {
				section = name
			}
		}
		// map order is random; sorted keys keep output deterministic
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			s.walk(n[k], section, sourceURL, out)
		}
	}
}

func menuItemCandidate(n map[string]any, section, sourceURL string) (domain.ExtractionCandidate, bool) {
	name := textproc.CollapseSpace(stringValue(n["name"]))
	if name == "" {
		return domain.ExtractionCandidate{}, false
	}

	description := textproc.CollapseSpace(stringValue(n["description"]))
	if diets := dietLabels(n["suitableForDiet"]); len(diets) > 0 {
		description = strings.TrimSpace(description + " " + strings.Join(diets, ", "))
	}

	return domain.ExtractionCandidate{
		Strategy:    domain.StrategyStructuredMetadata,
		Name:        name,
		Description: description,
		RawPrice:    offerPrice(n["offers"]),
		Category:    section,
		Provenance:  "json-ld",
		SourceURL:   sourceURL,
	}, true
}

func (s *StructuredMetadata) microdata(doc *goquery.Document, sourceURL string) []domain.ExtractionCandidate {
	var out []domain.ExtractionCandidate
	doc.Find(`[itemtype*="MenuItem"]`).Each(func(_ int, item *goquery.Selection) {
		name := nodeText(item.Find(`[itemprop="name"]`).First())
		if name == "" {
			return
		}

		var price string
		priceSel := item.Find(`[itemprop="price"]`).First()
		if content, ok := priceSel.Attr("content"); ok && content != "" {
			price = content
		} else {
			price = nodeText(priceSel)
		}

		var category string
		if section := item.Closest(`[itemtype*="MenuSection"]`); section.Length() > 0 {
			category = nodeText(section.Find(`[itemprop="name"]`).
				Not(`[itemtype*="MenuItem"] [itemprop="name"]`).First())
		}

		out = append(out, domain.ExtractionCandidate{
			Strategy:    domain.StrategyStructuredMetadata,
			Name:        name,
			Description: nodeText(item.Find(`[itemprop="description"]`).First()),
			RawPrice:    price,
			Category:    category,
			Provenance:  "microdata",
			SourceURL:   sourceURL,
		})
	})
	return out
}

func schemaTypes(v any) map[string]bool {
	types := make(map[string]bool)
	switch t := v.(type) {
	case string:
		types[t] = true
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				types[s] = true
			}
		}
	}
	return types
}

// offerPrice reads offers.price from an Offer object or the first priced
// entry of an Offer list; numbers and strings are both accepted
func offerPrice(v any) string {
	switch o := v.(type) {
	case map[string]any:
		return scalarString(o["price"])
	case []any:
		for _, entry := range o {
			if p := offerPrice(entry); p != "" {
				return p
			}
		}
	}
	return ""
}

// dietLabels turns schema.org diet URLs ("https://schema.org/GlutenFreeDiet")
// into words the classifier understands ("Gluten Free")
func dietLabels(v any) []string {
	var raw []string
	switch d := v.(type) {
	case string:
		raw = []string{d}
	case []any:
		for _, item := range d {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}

	labels := make([]string, 0, len(raw))
	for _, r := range raw {
		if idx := strings.LastIndex(r, "/"); idx >= 0 {
			r = r[idx+1:]
		}
		r = strings.TrimSuffix(r, "Diet")
		if r == "" {
			continue
		}
		labels = append(labels, splitCamel(r))
	}
	return labels
}

func splitCamel(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	}
	return ""
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
