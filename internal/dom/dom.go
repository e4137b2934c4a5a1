// Package dom gives read access to a parsed html document. The document is
// treated as a live graph: every query runs against its current state.
package dom

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Document wraps a parsed html document together with the URL it was loaded from.
type Document struct {
	doc *goquery.Document
	url *url.URL
}

// Parse reads an html document from r. pageURL is used to resolve relative
// references and may be empty.
func Parse(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("error while parsing html: %w", err)
	}
	return NewDocument(doc, pageURL)
}

// NewDocument wraps an existing goquery document.
func NewDocument(doc *goquery.Document, pageURL string) (*Document, error) {
	if doc == nil || len(doc.Nodes) == 0 {
		return nil, errors.New("empty document")
	}
	d := &Document{doc: doc}
	if pageURL != "" {
		u, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
		}
		d.url = u
	}
	return d, nil
}

// Root returns the document node.
func (d *Document) Root() *html.Node {
	return d.doc.Nodes[0]
}

// Body returns the body element or nil.
func (d *Document) Body() *html.Node {
	return d.First("body")
}

// URL returns the url the document was loaded from.
func (d *Document) URL() string {
	if d.url == nil {
		return ""
	}
	return d.url.String()
}

// Title returns the trimmed text of the title element or "" if there is none.
func (d *Document) Title() string {
	return strings.TrimSpace(d.doc.Find("head title").First().Text())
}

// Selection returns the goquery selection of the whole document.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// Query returns all elements matching selector in document order. A selector
// that cannot be parsed matches nothing.
func (d *Document) Query(selector string) []*html.Node {
	return QueryWithin(d.Root(), selector)
}

// QueryWithin returns all descendants of n matching selector.
func QueryWithin(n *html.Node, selector string) []*html.Node {
	sg, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil
	}
	return cascadia.QueryAll(n, sg)
}

// Count returns the number of elements matching selector.
func (d *Document) Count(selector string) int {
	return len(d.Query(selector))
}

// Unique reports whether selector matches exactly one element.
func (d *Document) Unique(selector string) bool {
	return d.Count(selector) == 1
}

// First returns the first element matching selector or nil.
func (d *Document) First(selector string) *html.Node {
	nodes := d.Query(selector)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Elements returns all elements of the document in document order.
func (d *Document) Elements() []*html.Node {
	var elements []*html.Node
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				elements = append(elements, c)
			}
			walk(c)
		}
	}
	walk(d.Root())
	return elements
}

// ResolveURL turns ref into an absolute url, taking a <base href> element into
// account. If the document has no url, ref is returned as is.
func (d *Document) ResolveURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	base := d.url
	if b := d.First("base[href]"); b != nil {
		href, _ := Attr(b, "href")
		if bu, err := url.Parse(strings.TrimSpace(href)); err == nil {
			if base != nil {
				base = base.ResolveReference(bu)
			} else if bu.IsAbs() {
				base = bu
			}
		}
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if base == nil {
		return r.String()
	}
	return base.ResolveReference(r).String()
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// TagName returns the lower case tag name of n.
func TagName(n *html.Node) string {
	return strings.ToLower(n.Data)
}

// Attr returns the value of the attribute key of n.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets the attribute key of n to val.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes the attribute key from n.
func RemoveAttr(n *html.Node, key string) {
	j := 0
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		n.Attr[j] = a
		j++
	}
	n.Attr = n.Attr[:j]
}

// Classes returns the class tokens of n in declaration order.
func Classes(n *html.Node) []string {
	cls, _ := Attr(n, "class")
	return strings.Fields(cls)
}

// ParentElement returns the parent of n if it is an element, nil otherwise.
func ParentElement(n *html.Node) *html.Node {
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		return n.Parent
	}
	return nil
}

// ElementChildren returns the element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	var children []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			children = append(children, c)
		}
	}
	return children
}

// Closest returns n or the nearest ancestor of n whose tag is one of tags.
func Closest(n *html.Node, tags ...string) *html.Node {
	for c := n; IsElement(c); c = c.Parent {
		for _, t := range tags {
			if TagName(c) == t {
				return c
			}
		}
	}
	return nil
}

// Text returns the concatenated text of all text nodes below n.
func Text(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// Describe returns a short human readable representation of n, eg. div#main.content
func Describe(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	s := TagName(n)
	if id, ok := Attr(n, "id"); ok && id != "" {
		s += "#" + id
	}
	for _, cl := range Classes(n) {
		s += "." + cl
	}
	return s
}
