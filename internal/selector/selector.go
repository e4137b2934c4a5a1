// Package selector synthesizes css selectors that re-identify a given element
// of a document.
package selector

import (
	"fmt"
	"strings"

	"github.com/jakopako/gopick/internal/dom"
	"golang.org/x/net/html"
)

// Synthesize returns a selector for n. The rules below are tried in order and the
// first one that yields a selector matching exactly one element of d wins:
//
//  1. #id
//  2. all class tokens combined, eg. .card.featured
//  3. the first data-* attribute, eg. [data-sku="123"]
//  4. a structural path of child combinators built bottom up, with :nth-child(k)
//     wherever the element has siblings with the same tag.
//
// If even the full structural path up to the root is not unique it is returned
// anyway, so callers must not assume that the result matches a single element.
// Uniqueness is always checked against the current state of d.
func Synthesize(d *dom.Document, n *html.Node) string {
	for n != nil && n.Type != html.ElementNode {
		n = n.Parent
	}
	if n == nil {
		return ":root"
	}

	if s, ok := byID(d, n); ok {
		return s
	}
	if s, ok := byClasses(d, n); ok {
		return s
	}
	if s, ok := byDataAttr(d, n); ok {
		return s
	}
	return structural(d, n)
}

// byID returns #id if n has an id that no other element of the document carries.
// The id is used verbatim.
func byID(d *dom.Document, n *html.Node) (string, bool) {
	id, ok := dom.Attr(n, "id")
	if !ok || strings.TrimSpace(id) == "" {
		return "", false
	}
	// counting is done on the attribute directly since an id is not necessarily
	// a valid css identifier
	count := 0
	for _, e := range d.Elements() {
		if eid, ok := dom.Attr(e, "id"); ok && eid == id {
			count++
		}
	}
	if count != 1 {
		return "", false
	}
	return "#" + id, true
}

func byClasses(d *dom.Document, n *html.Node) (string, bool) {
	cls := dom.Classes(n)
	if len(cls) == 0 {
		return "", false
	}
	s := node{classes: cls}.string()
	if d.Unique(s) {
		return s, true
	}
	return "", false
}

func byDataAttr(d *dom.Document, n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace != "" || !strings.HasPrefix(a.Key, "data-") {
			continue
		}
		s := fmt.Sprintf("[%s=%s]", a.Key, quoteAttrValue(a.Val))
		if d.Unique(s) {
			return s, true
		}
	}
	return "", false
}

// structural walks from n up to the root. At every level the path built so far
// is prefixed with the parent's tag and checked for uniqueness.
func structural(d *dom.Document, n *html.Node) string {
	p := path{levelNode(n)}
	current := n
	for {
		parent := dom.ParentElement(current)
		if parent == nil {
			return p.string()
		}
		candidate := append(path{{tagName: dom.TagName(parent)}}, p...)
		if d.Unique(candidate.string()) {
			return candidate.string()
		}
		p = append(path{levelNode(parent)}, p...)
		current = parent
	}
}

// levelNode returns the node for n within a structural path. It gets an
// nth-child pseudo class if n has a sibling with the same tag. The index is
// the position among all element children of the parent, not only those with
// the same tag.
func levelNode(n *html.Node) node {
	nd := node{tagName: dom.TagName(n)}
	parent := dom.ParentElement(n)
	if parent == nil {
		return nd
	}
	sameTag := 0
	position := 0
	for i, c := range dom.ElementChildren(parent) {
		if dom.TagName(c) == nd.tagName {
			sameTag++
		}
		if c == n {
			position = i + 1
		}
	}
	if sameTag > 1 {
		nd.pseudoClasses = []string{fmt.Sprintf("nth-child(%d)", position)}
	}
	return nd
}
