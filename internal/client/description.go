package client

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespace = regexp.MustCompile(`[ \t\r\n\f]+`)

// Description is a product description reduced to what a terminal can show.
type Description struct {
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

type descriptionParser struct {
	baseURL *url.URL
}

func newDescriptionParser(baseURL string) (*descriptionParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	return &descriptionParser{baseURL: u}, nil
}

// ParseDescription turns the HTML description of a product into plain text,
// one block element per line, and collects absolute image URLs.
func ParseDescription(baseURL, html string) (*Description, error) {
	p, err := newDescriptionParser(baseURL)
	if err != nil {
		return nil, err
	}
	return p.parse(html)
}

func (p *descriptionParser) parse(html string) (*Description, error) {
	desc := &Description{}
	if strings.TrimSpace(html) == "" {
		return desc, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse description HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	doc.Find("img[src]").Each(func(i int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if abs := p.resolve(src); abs != "" {
			desc.Images = append(desc.Images, abs)
		}
	})

	w := &textWriter{}
	w.walk(doc.Selection)
	w.flush()

	desc.Text = strings.Join(w.lines, "\n")
	return desc, nil
}

// blockElements start a new line. Their own text and the text of their
// nested blocks end up on separate lines.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"ul": true, "ol": true, "li": true, "table": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"br": true, "hr": true,
}

type textWriter struct {
	lines  []string
	cur    strings.Builder
	prefix string
}

func (w *textWriter) walk(s *goquery.Selection) {
	s.Contents().Each(func(i int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			w.cur.WriteString(child.Text())
		case strings.HasPrefix(name, "#"):
			// comments
		case blockElements[name]:
			w.flush()
			if name == "li" {
				w.prefix = "- "
			}
			w.walk(child)
			w.flush()
			w.prefix = ""
		default:
			w.walk(child)
		}
	})
}

// flush ends the current line. A pending list prefix waits for the first non-empty line.
func (w *textWriter) flush() {
	text := collapse(w.cur.String())
	w.cur.Reset()
	if text == "" {
		return
	}
	w.lines = append(w.lines, w.prefix+text)
	w.prefix = ""
}

func (p *descriptionParser) resolve(src string) string {
	src = strings.TrimSpace(src)
	if src == "" || strings.HasPrefix(src, "data:") {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(ref).String()
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
