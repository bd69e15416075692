package fetch

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/macrolens/menulens/internal/domain"
	"golang.org/x/net/html"
)

// MenuLinkClass is appended to the class of images wrapped in a link that
// points at a menu
const MenuLinkClass = "menu-link"

// Elements whose boundaries start a new line of visible text
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"fieldset": true, "figcaption": true, "figure": true, "footer": true,
	"form": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tbody": true, "thead": true, "tr": true, "ul": true,
}

// Elements whose text is never visible
var hiddenElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "iframe": true,
}

// Source newlines carry no meaning outside block boundaries
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Document is the visible structure of one HTML page
type Document struct {
	Title  string
	Text   string
	Images []domain.ImageRef
}

// ParseHTML tokenizes body and collects its visible text, one block element
// per line, and the images it references resolved against base
func ParseHTML(base *url.URL, body []byte) Document {
	var (
		doc     Document
		text    strings.Builder
		title   strings.Builder
		hidden  int
		inTitle bool
		anchors []string
	)

	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			switch {
			case tok.Data == "title" && hidden == 0:
				inTitle = tt == html.StartTagToken
			case hiddenElements[tok.Data]:
				if tt == html.StartTagToken {
					hidden++
				}
			case tok.Data == "a" && tt == html.StartTagToken:
				anchors = append(anchors, attr(tok, "href"))
			case tok.Data == "img":
				if img, ok := imageRef(base, tok, anchors); ok {
					doc.Images = append(doc.Images, img)
				}
			case tok.Data == "td" || tok.Data == "th":
				text.WriteByte(' ')
			}
			if blockElements[tok.Data] {
				text.WriteByte('\n')
			}

		case html.EndTagToken:
			switch {
			case tok.Data == "title":
				inTitle = false
			case hiddenElements[tok.Data]:
				if hidden > 0 {
					hidden--
				}
			case tok.Data == "a":
				if len(anchors) > 0 {
					anchors = anchors[:len(anchors)-1]
				}
			}
			if blockElements[tok.Data] {
				text.WriteByte('\n')
			}

		case html.TextToken:
			if inTitle {
				title.WriteString(tok.Data)
				continue
			}
			if hidden > 0 {
				continue
			}
			text.WriteString(lineBreaks.Replace(tok.Data))
		}
	}

	doc.Title = strings.Join(strings.Fields(title.String()), " ")
	doc.Text = collapseLines(text.String())
	return doc
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func imageRef(base *url.URL, tok html.Token, anchors []string) (domain.ImageRef, bool) {
	src := firstAttr(tok, "src", "data-src", "data-lazy-src", "data-original")
	if src == "" || strings.HasPrefix(src, "data:") {
		return domain.ImageRef{}, false
	}

	resolved := src
	if ref, err := url.Parse(src); err == nil && base != nil {
		resolved = base.ResolveReference(ref).String()
	}

	img := domain.ImageRef{
		URL:    resolved,
		Alt:    strings.TrimSpace(attr(tok, "alt")),
		Title:  strings.TrimSpace(attr(tok, "title")),
		Class:  strings.TrimSpace(attr(tok, "class")),
		Width:  dimension(attr(tok, "width")),
		Height: dimension(attr(tok, "height")),
	}
	if len(anchors) > 0 && strings.Contains(strings.ToLower(anchors[len(anchors)-1]), "menu") {
		img.Class = strings.TrimSpace(img.Class + " " + MenuLinkClass)
	}
	return img, true
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstAttr(tok html.Token, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(attr(tok, key)); v != "" {
			return v
		}
	}
	return ""
}

// dimension parses "640" or "640px"; anything else is unknown
func dimension(v string) int {
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
