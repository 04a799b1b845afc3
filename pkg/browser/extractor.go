package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PageContent is the output of whole-page extraction: cleaned text and HTML
// with page metadata, ready for downstream analysis.
type PageContent struct {
	Title       string
	Description string
	Text        string
	HTML        string
	Truncated   bool
}

// DefaultMaxContentLength bounds cleaned output so a pathological page can't
// blow up analysis prompts.
const DefaultMaxContentLength = 50000

// CleanPage parses raw page markup, strips noise elements (scripts, styles,
// navigation chrome, ad-marked blocks), and returns the page title,
// meta description, cleaned text, and cleaned HTML preserving semantic
// structure and targeting attributes.
func CleanPage(rawHTML string, maxLength int) (*PageContent, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxContentLength
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &PageContent{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
	}

	c := &cleaner{maxLength: maxLength}
	result.Truncated = c.walk(doc, 0)
	result.HTML = c.html.String()
	result.Text = strings.Join(c.text, " ")
	return result, nil
}

// cleaner accumulates cleaned HTML and plain text in one pass.
type cleaner struct {
	html      strings.Builder
	text      []string
	length    int
	maxLength int
}

// walk recursively processes nodes, skipping noise and reporting whether
// output was truncated at maxLength.
func (c *cleaner) walk(n *html.Node, depth int) bool {
	if c.length >= c.maxLength {
		return true
	}

	switch n.Type {
	case html.CommentNode:
		return false
	case html.TextNode:
		return c.writeText(n)
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) || isAdMarked(n) {
			return false
		}
		return c.writeElement(n, tag, depth)
	default:
		return c.walkChildren(n, depth)
	}
}

func (c *cleaner) writeText(n *html.Node) bool {
	text := strings.TrimSpace(n.Data)
	if text == "" {
		return false
	}

	if c.length+len(text) > c.maxLength {
		text = truncateAtRune(text, c.maxLength-c.length) + "..."
		c.html.WriteString(text)
		c.text = append(c.text, text)
		c.length = c.maxLength
		return true
	}

	c.html.WriteString(text)
	c.text = append(c.text, text)
	c.length += len(text)
	return false
}

// truncateAtRune cuts s to at most max bytes, backing up so the cut never
// splits a multi-byte rune.
func truncateAtRune(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

func (c *cleaner) writeElement(n *html.Node, tag string, depth int) bool {
	if depth > 0 && isBlockElement(tag) {
		c.html.WriteString("\n")
		c.html.WriteString(strings.Repeat("  ", depth))
	}

	c.html.WriteString("<")
	c.html.WriteString(tag)
	for _, attr := range n.Attr {
		if shouldPreserveAttribute(tag, attr.Key) {
			fmt.Fprintf(&c.html, ` %s="%s"`, attr.Key, html.EscapeString(attr.Val))
		}
	}
	c.html.WriteString(">")
	c.length += len(tag) + 2

	truncated := c.walkChildren(n, depth+1)

	if !isVoidElement(tag) {
		if isBlockElement(tag) {
			c.html.WriteString("\n")
			c.html.WriteString(strings.Repeat("  ", depth))
		}
		c.html.WriteString("</")
		c.html.WriteString(tag)
		c.html.WriteString(">")
		c.length += len(tag) + 3
	}

	return truncated
}

func (c *cleaner) walkChildren(n *html.Node, depth int) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if c.walk(child, depth) {
			return true
		}
	}
	return false
}

// isSkippedElement returns true for elements removed entirely, including the
// boilerplate chrome (nav, footer, aside) that pollutes text analysis.
func isSkippedElement(tag string) bool {
	switch tag {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg",
		"nav", "footer", "aside":
		return true
	}
	return false
}

// adMarkers are class/id tokens that identify advertising blocks.
var adMarkers = map[string]bool{
	"ad":            true,
	"ads":           true,
	"advert":        true,
	"advertisement": true,
	"adsbygoogle":   true,
	"sponsored":     true,
}

// isAdMarked reports whether an element carries an ad-marker class or id
// token.
func isAdMarked(n *html.Node) bool {
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if key != "class" && key != "id" {
			continue
		}
		for _, token := range strings.Fields(strings.ToLower(attr.Val)) {
			if adMarkers[token] {
				return true
			}
		}
	}
	return false
}

func isBlockElement(tag string) bool {
	switch tag {
	case "div", "p", "section", "article", "header", "main",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre":
		return true
	}
	return false
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}

// shouldPreserveAttribute keeps attributes useful for analysis and element
// targeting; everything else is dropped.
func shouldPreserveAttribute(tag, attr string) bool {
	attr = strings.ToLower(attr)

	switch attr {
	case "id", "class", "role", "aria-label", "aria-describedby":
		return true
	}
	if strings.HasPrefix(attr, "data-") {
		return true
	}

	switch tag {
	case "a":
		return attr == "href" || attr == "target"
	case "img":
		return attr == "src" || attr == "alt"
	case "input", "textarea", "select":
		return attr == "name" || attr == "type" || attr == "placeholder" || attr == "value"
	case "button":
		return attr == "type" || attr == "name"
	case "form":
		return attr == "action" || attr == "method"
	}
	return false
}

func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if title != "" {
				return
			}
		}
	}
	traverse(doc)
	return title
}

func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				if attr.Key == "name" && attr.Val == "description" {
					isDescription = true
				}
				if attr.Key == "content" {
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
			if description != "" {
				return
			}
		}
	}
	traverse(doc)
	return description
}
