package strategy

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/macrolens/menulens/internal/domain"
	"github.com/macrolens/menulens/internal/textproc"
	"golang.org/x/net/html"
)

// defaultMaxContainerText bounds the text of a single item container; longer
// containers are menu sections, not items
const defaultMaxContainerText = 600

// SelectorLibrary is the configurable set of CSS selectors used to find menu
// item containers and the name, price and description inside them
type SelectorLibrary struct {
	Containers  []string `mapstructure:"containers"`
	Name        []string `mapstructure:"name"`
	Price       []string `mapstructure:"price"`
	Description []string `mapstructure:"description"`
	Sections    []string `mapstructure:"sections"`
}

// DefaultSelectorLibrary returns selectors for the layouts seen on common
// restaurant sites and ordering platforms
func DefaultSelectorLibrary() SelectorLibrary {
	return SelectorLibrary{
		Containers: []string{
			`[class*="menu-item"]`, `[class*="menuItem"]`, `[class*="MenuItem"]`, `[class*="menu_item"]`,
			`[class*="food-item"]`, `[class*="FoodItem"]`, `[class*="dish"]`, `[class*="Dish"]`,
			`[class*="product-item"]`, `[data-testid*="menu-item"]`, `[data-testid*="MenuItem"]`,
			`[data-testid*="dish"]`, `ul[class*="menu"] > li`, `table[class*="menu"] tr`, `[role="listitem"]`,
		},
		Name: []string{
			`[class*="name"]`, `[class*="Name"]`, `[class*="title"]`, `[class*="Title"]`,
			`[data-testid*="name"]`, `h2`, `h3`, `h4`, `h5`, `strong`, `b`, `td:first-child`,
		},
		Price: []string{
			`[class*="price"]`, `[class*="Price"]`, `[data-testid*="price"]`, `[itemprop="price"]`,
		},
		Description: []string{
			`[class*="desc"]`, `[class*="Desc"]`, `[data-testid*="description"]`, `p`,
		},
		Sections: []string{
			`[class*="menu-section"]`, `[class*="category"]`, `[class*="Category"]`, `section`,
		},
	}
}

// SelectorPattern finds item containers by class, attribute and semantic
// patterns and reads their parts
type SelectorPattern struct {
	lib              SelectorLibrary
	containers       string
	parts            string
	maxContainerText int
}

// NewSelectorPattern creates the selector strategy; empty library sections
// fall back to the defaults
func NewSelectorPattern(lib SelectorLibrary) *SelectorPattern {
	defaults := DefaultSelectorLibrary()
	if len(lib.Containers) == 0 {
		lib.Containers = defaults.Containers
	}
	if len(lib.Name) == 0 {
		lib.Name = defaults.Name
	}
	if len(lib.Price) == 0 {
		lib.Price = defaults.Price
	}
	if len(lib.Description) == 0 {
		lib.Description = defaults.Description
	}
	if len(lib.Sections) == 0 {
		lib.Sections = defaults.Sections
	}
	parts := append(append(append([]string{}, lib.Name...), lib.Price...), lib.Description...)
	return &SelectorPattern{
		lib:              lib,
		containers:       strings.Join(lib.Containers, ", "),
		parts:            strings.Join(parts, ", "),
		maxContainerText: defaultMaxContainerText,
	}
}

// Tag identifies the strategy
func (s *SelectorPattern) Tag() domain.StrategyTag {
	return domain.StrategySelectorPattern
}

// Extract reads one candidate per item container. Containers are visited in
// document order; a container nested in an accepted one is skipped, and a
// container wrapping two or more other item containers is treated as a list,
// not an item. Matches that are themselves item parts ("menu-item__price")
// never count as containers.
func (s *SelectorPattern) Extract(ctx context.Context, page *domain.PageContent) ([]domain.ExtractionCandidate, error) {
	doc, ok := parseDocument(page)
	if !ok {
		return nil, nil
	}

	accepted := make(map[*html.Node]bool)
	var out []domain.ExtractionCandidate

	doc.Find(s.containers).Each(func(_ int, sel *goquery.Selection) {
		node := sel.Nodes[0]
		if hasAcceptedAncestor(node, accepted) || sel.Is(s.parts) {
			return
		}
		if s.nestedItems(sel) >= 2 {
			return
		}
		text := nodeText(sel)
		if text == "" || textproc.RuneLen(text) > s.maxContainerText {
			return
		}

		c, ok := s.candidate(sel, text, page.URL)
		if !ok {
			return
		}
		accepted[node] = true
		out = append(out, c)
	})

	return dedupeCandidates(out), nil
}

func (s *SelectorPattern) candidate(sel *goquery.Selection, text, sourceURL string) (domain.ExtractionCandidate, bool) {
	name := firstText(sel, s.lib.Name)
	price := firstText(sel, s.lib.Price)
	description := firstText(sel, s.lib.Description)

	prices := textproc.FindPrices(text)
	if price == "" && len(prices) > 0 {
		price = prices[0].Raw
	}

	if name == "" {
		clause := text
		if len(prices) > 0 {
			clause = text[:prices[0].Start]
		}
		var rest string
		name, rest = textproc.SplitNameDescription(clause)
		if description == "" {
			description = rest
		}
	}
	if name == "" {
		return domain.ExtractionCandidate{}, false
	}
	if description == name {
		description = ""
	}

	return domain.ExtractionCandidate{
		Strategy:    domain.StrategySelectorPattern,
		Name:        name,
		Description: description,
		RawPrice:    price,
		Category:    s.sectionName(sel),
		Provenance:  "selector",
		SourceURL:   sourceURL,
	}, true
}

func (s *SelectorPattern) nestedItems(sel *goquery.Selection) int {
	return sel.Find(s.containers).FilterFunction(func(_ int, nested *goquery.Selection) bool {
		return !nested.Is(s.parts)
	}).Length()
}

// sectionName reads the heading of the closest enclosing menu section
func (s *SelectorPattern) sectionName(sel *goquery.Selection) string {
	section := sel.Parent().Closest(strings.Join(s.lib.Sections, ", "))
	if section.Length() == 0 {
		return ""
	}
	return nodeText(section.ChildrenFiltered("h1, h2, h3, h4").First())
}

func hasAcceptedAncestor(n *html.Node, accepted map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if accepted[p] {
			return true
		}
	}
	return false
}
