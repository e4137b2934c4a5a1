// Package classify assigns a field type and a value to an element.
package classify

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jakopako/gopick/internal/dom"
	"github.com/jakopako/gopick/internal/types"
	"golang.org/x/net/html"
)

// descriptionMinLength is the text length (in characters) above which a
// text element is considered a description.
const descriptionMinLength = 50

var (
	decimalRegex = regexp.MustCompile(`\d+\.\d{2}`)
	headingTags  = []string{"h1", "h2", "h3", "h4", "h5", "h6"}
)

// Classify returns a record describing n. ID, SourceURL and CapturedAt are left
// empty, they are owned by whoever commits the record. The result only depends
// on the current state of n and its ancestors.
func Classify(d *dom.Document, n *html.Node, selector string) types.Record {
	for n != nil && n.Type != html.ElementNode {
		n = n.Parent
	}
	r := types.Record{
		Type:     types.FieldTypeText,
		Selector: selector,
	}
	if n == nil {
		return r
	}

	switch dom.TagName(n) {
	case "img":
		r.Type = types.FieldTypeImage
		r.Value = Value(d, n, types.FieldTypeImage)
		return r
	case "a":
		r.Type = types.FieldTypeLink
		r.Value = Value(d, n, types.FieldTypeLink)
		return r
	}

	text := strings.TrimSpace(dom.Text(n))
	r.Value = text
	r.Type = textType(n, text)
	return r
}

// Value extracts the value of n the way it would be captured for field type ft:
// the absolute image source for images, the absolute target for links and the
// trimmed text otherwise.
func Value(d *dom.Document, n *html.Node, ft types.FieldType) string {
	var attr string
	switch {
	case ft == types.FieldTypeImage && dom.TagName(n) == "img":
		attr = "src"
	case ft == types.FieldTypeLink && dom.TagName(n) == "a":
		attr = "href"
	default:
		return strings.TrimSpace(dom.Text(n))
	}
	v, ok := dom.Attr(n, attr)
	if !ok {
		return ""
	}
	return d.ResolveURL(v)
}

func textType(n *html.Node, text string) types.FieldType {
	t := strings.ToLower(text)
	if isPrice(t) {
		return types.FieldTypePrice
	}
	if dom.Closest(n, headingTags...) != nil {
		return types.FieldTypeTitle
	}
	if utf8.RuneCountInString(t) > descriptionMinLength {
		return types.FieldTypeDescription
	}
	return types.FieldTypeText
}

// isPrice expects t to be lower case.
func isPrice(t string) bool {
	if strings.Contains(t, "price") {
		return true
	}
	for _, r := range t {
		if unicode.Is(unicode.Sc, r) {
			return true
		}
	}
	return decimalRegex.MatchString(t)
}
