// Package page models the embedded document the user interacts with. It owns the
// listener registrations and the visual affordances of selection mode. All
// affordances are real, reversible mutations of the document.
package page

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jakopako/gopick/internal/dom"
	"golang.org/x/net/html"
)

const (
	OverlayID      = "selection-overlay"
	IndicatorClass = "selection-indicator"

	highlightStyle = "outline: 2px solid #4DEAC7; background-color: rgba(77, 234, 199, 0.1); position: relative;"
	indicatorStyle = "position: absolute; top: -12px; right: -12px; background: #4DEAC7; color: #1e293b; border-radius: 50%; width: 20px; height: 20px; z-index: 9999; pointer-events: none;"
	overlayStyle   = "position: fixed; top: 0; left: 0; width: 100vw; height: 100vh; background: rgba(30, 41, 59, 0.1); z-index: 9998; pointer-events: none;"
	crosshairStyle = "cursor: crosshair;"
)

// void elements cannot hold the indicator badge
var voidElements = []string{"area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "source", "track", "wbr"}

// Listener receives pointer and click events of a page while it is installed.
type Listener interface {
	PointerMove(n *html.Node)
	// Click returns true if the default action of the click should be prevented.
	Click(n *html.Node) bool
}

type savedStyle struct {
	style    string
	hadStyle bool
}

type decoration struct {
	savedStyle
	badge *html.Node
}

// Page is a loaded document together with its event stream. It is not safe for
// concurrent use, all calls are expected to come from the single ui event loop.
type Page struct {
	doc       *dom.Document
	listeners []Listener
	decorated map[*html.Node]*decoration
	overlay   *html.Node
	cursor    *savedStyle
	logger    *slog.Logger
}

// New returns a page for the given document.
func New(doc *dom.Document) *Page {
	return &Page{
		doc:       doc,
		decorated: map[*html.Node]*decoration{},
		logger:    slog.With(slog.String("page", doc.URL())),
	}
}

// FromHTML parses htmlStr and returns a page for it.
func FromHTML(htmlStr, pageURL string) (*Page, error) {
	doc, err := dom.Parse(strings.NewReader(htmlStr), pageURL)
	if err != nil {
		return nil, fmt.Errorf("error while loading page %s: %w", pageURL, err)
	}
	return New(doc), nil
}

// Document returns the live document of the page.
func (p *Page) Document() *dom.Document {
	return p.doc
}

// Install registers l for pointer and click events. Installing the same
// listener twice has no effect.
func (p *Page) Install(l Listener) {
	if slices.Contains(p.listeners, l) {
		return
	}
	p.listeners = append(p.listeners, l)
	p.logger.Debug("installed listener", slog.Int("listeners", len(p.listeners)))
}

// Uninstall removes l. Removing a listener that is not installed has no effect.
func (p *Page) Uninstall(l Listener) {
	i := slices.Index(p.listeners, l)
	if i == -1 {
		return
	}
	p.listeners = slices.Delete(p.listeners, i, i+1)
	p.logger.Debug("uninstalled listener", slog.Int("listeners", len(p.listeners)))
}

// Listeners returns the number of installed listeners.
func (p *Page) Listeners() int {
	return len(p.listeners)
}

// PointerMove dispatches a pointer move over n to all installed listeners.
func (p *Page) PointerMove(n *html.Node) {
	for _, l := range slices.Clone(p.listeners) {
		l.PointerMove(n)
	}
}

// Click dispatches a click on n and reports whether the default action was
// prevented by any listener.
func (p *Page) Click(n *html.Node) bool {
	prevented := false
	for _, l := range slices.Clone(p.listeners) {
		if l.Click(n) {
			prevented = true
		}
	}
	return prevented
}

// SetCrosshair switches the pointer affordance of the document body.
func (p *Page) SetCrosshair(on bool) {
	body := p.doc.Body()
	if body == nil {
		return
	}
	if on {
		if p.cursor != nil {
			return
		}
		s := saveStyle(body)
		p.cursor = &s
		dom.SetAttr(body, "style", appendStyle(s.style, crosshairStyle))
		return
	}
	if p.cursor != nil {
		restoreStyle(body, *p.cursor)
		p.cursor = nil
	}
}

// Crosshair reports whether the crosshair pointer is active.
func (p *Page) Crosshair() bool {
	return p.cursor != nil
}

// ShowOverlay adds the full viewport selection overlay to the body.
func (p *Page) ShowOverlay() {
	if p.overlay != nil {
		return
	}
	parent := p.doc.Body()
	if parent == nil {
		return
	}
	p.overlay = &html.Node{
		Type: html.ElementNode,
		Data: "div",
		Attr: []html.Attribute{
			{Key: "id", Val: OverlayID},
			{Key: "style", Val: overlayStyle},
		},
	}
	parent.AppendChild(p.overlay)
}

// HideOverlay removes the overlay again.
func (p *Page) HideOverlay() {
	if p.overlay == nil {
		return
	}
	if p.overlay.Parent != nil {
		p.overlay.Parent.RemoveChild(p.overlay)
	}
	p.overlay = nil
}

// OverlayVisible reports whether the overlay is part of the document.
func (p *Page) OverlayVisible() bool {
	return p.overlay != nil
}

// Decorate applies the highlight decoration (outline, tint and corner badge)
// to n. Decorating a decorated node again has no effect.
func (p *Page) Decorate(n *html.Node) {
	if !dom.IsElement(n) {
		return
	}
	if _, found := p.decorated[n]; found {
		return
	}
	d := &decoration{savedStyle: saveStyle(n)}
	dom.SetAttr(n, "style", appendStyle(d.style, highlightStyle))
	if !slices.Contains(voidElements, dom.TagName(n)) {
		d.badge = &html.Node{
			Type: html.ElementNode,
			Data: "div",
			Attr: []html.Attribute{
				{Key: "class", Val: IndicatorClass},
				{Key: "style", Val: indicatorStyle},
			},
		}
		d.badge.AppendChild(&html.Node{Type: html.TextNode, Data: "✓"})
		n.AppendChild(d.badge)
	}
	p.decorated[n] = d
}

// Undecorate removes the decoration from n and restores its original style.
func (p *Page) Undecorate(n *html.Node) {
	d, found := p.decorated[n]
	if !found {
		return
	}
	restoreStyle(n, d.savedStyle)
	if d.badge != nil && d.badge.Parent != nil {
		d.badge.Parent.RemoveChild(d.badge)
	}
	delete(p.decorated, n)
}

// Decorated reports whether n currently carries the highlight decoration.
func (p *Page) Decorated(n *html.Node) bool {
	_, found := p.decorated[n]
	return found
}

func saveStyle(n *html.Node) savedStyle {
	style, ok := dom.Attr(n, "style")
	return savedStyle{style: style, hadStyle: ok}
}

func restoreStyle(n *html.Node, s savedStyle) {
	if s.hadStyle {
		dom.SetAttr(n, "style", s.style)
	} else {
		dom.RemoveAttr(n, "style")
	}
}

func appendStyle(style, extra string) string {
	style = strings.TrimSpace(style)
	if style == "" {
		return extra
	}
	if !strings.HasSuffix(style, ";") {
		style += ";"
	}
	return style + " " + extra
}
