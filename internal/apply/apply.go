// Package apply re-applies a saved template to a document and extracts one
// item per matching container.
package apply

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jakopako/gopick/internal/classify"
	"github.com/jakopako/gopick/internal/dom"
	"github.com/jakopako/gopick/internal/types"
	"golang.org/x/net/html"
)

// Result is the outcome of applying a template to a document.
type Result struct {
	Items []types.Item
	// Ambiguous counts the field lookups whose selector matched more than one
	// element. The first match was used for each of them.
	Ambiguous int
	// Missing counts the field lookups whose selector matched nothing.
	Missing int
}

// Apply evaluates t against d. Without a container selector the whole document
// yields a single item. Otherwise every element matching the container yields
// an item and the field selectors are evaluated within it. Items without any
// value are skipped.
func Apply(d *dom.Document, t *types.Template, now time.Time) Result {
	logger := slog.With(slog.String("template", t.Name), slog.String("url", d.URL()))
	res := Result{Items: []types.Item{}}

	var scopes *goquery.Selection
	if t.ContainerSelector == "" {
		scopes = d.Selection()
	} else {
		scopes = d.Selection().Find(t.ContainerSelector)
		if scopes.Length() == 0 {
			logger.Warn(fmt.Sprintf("container selector %s did not match any element", t.ContainerSelector))
		}
	}

	scopes.Each(func(i int, s *goquery.Selection) {
		item := types.Item{
			URL:       d.URL(),
			Timestamp: now,
			Data:      map[types.FieldType]string{},
		}
		for _, ft := range types.FieldTypes {
			sel, found := t.Selectors[ft]
			if !found {
				continue
			}
			matches := s.Find(sel)
			switch matches.Length() {
			case 0:
				res.Missing++
				logger.Debug(fmt.Sprintf("selector %s of field %s did not match in container %d", sel, ft, i))
				continue
			case 1:
			default:
				res.Ambiguous++
				logger.Warn(fmt.Sprintf("selector %s of field %s matched %d elements, using the first one", sel, ft, matches.Length()))
			}
			item.Data[ft] = value(d, matches.Get(0), ft)
		}
		if len(item.Data) == 0 {
			return
		}
		res.Items = append(res.Items, item)
	})

	logger.Info(fmt.Sprintf("extracted %d items", len(res.Items)))
	return res
}

// value extracts the value of n for ft. An image or link field pointing at a
// wrapper element uses the first img or a element inside of it.
func value(d *dom.Document, n *html.Node, ft types.FieldType) string {
	var tag string
	switch ft {
	case types.FieldTypeImage:
		tag = "img"
	case types.FieldTypeLink:
		tag = "a"
	}
	if tag != "" && dom.TagName(n) != tag {
		if inner := dom.QueryWithin(n, tag); len(inner) > 0 {
			n = inner[0]
		}
	}
	return classify.Value(d, n, ft)
}
