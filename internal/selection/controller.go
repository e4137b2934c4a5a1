// Package selection implements selection mode: arming a page for a field type,
// highlighting the element under the pointer and turning a click into a record.
package selection

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jakopako/gopick/internal/classify"
	"github.com/jakopako/gopick/internal/page"
	"github.com/jakopako/gopick/internal/selector"
	"github.com/jakopako/gopick/internal/types"
	"golang.org/x/net/html"
)

// State is the state of a Controller.
type State int

const (
	Idle State = iota
	Armed
	Highlighting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Highlighting:
		return "highlighting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Controller drives selection mode on a single page. Committed records are sent
// to the out channel, one per arming. The controller keeps no reference to them.
//
// Like the page itself a controller must only be used from the page's event
// loop. Since the commit happens inside the click handler, the consumer of out
// must not be that same event loop unless out is buffered.
type Controller struct {
	page        *page.Page
	out         chan<- types.Record
	state       State
	fieldType   types.FieldType
	highlighted *html.Node
	logger      *slog.Logger
	newID       func() string
	now         func() time.Time
}

// NewController returns an idle controller for p.
func NewController(p *page.Page, out chan<- types.Record) *Controller {
	return &Controller{
		page:   p,
		out:    out,
		state:  Idle,
		logger: slog.With(slog.String("component", "selection")),
		newID:  newRecordID,
		now:    time.Now,
	}
}

// newRecordID returns a time ordered id so that ids of records created later
// sort after earlier ones.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// FieldType returns the armed field type or "" when idle.
func (c *Controller) FieldType() types.FieldType {
	return c.fieldType
}

// Highlighted returns the currently highlighted element or nil.
func (c *Controller) Highlighted() *html.Node {
	return c.highlighted
}

// Arm enters selection mode for ft. An active arming is cancelled first.
func (c *Controller) Arm(ft types.FieldType) {
	if c.state != Idle {
		c.logger.Debug(fmt.Sprintf("re-arming, cancelling capture of %s", c.fieldType))
		c.teardown()
	}
	c.fieldType = ft
	c.state = Armed
	c.page.SetCrosshair(true)
	c.page.ShowOverlay()
	c.page.Install(c)
	c.logger.Info(fmt.Sprintf("selection mode armed for field type %s", ft))
}

// Disarm leaves selection mode without emitting a record.
func (c *Controller) Disarm() {
	if c.state == Idle {
		return
	}
	c.logger.Info(fmt.Sprintf("selection of %s cancelled", c.fieldType))
	c.teardown()
}

// PointerMove moves the highlight to n. It never produces a record.
func (c *Controller) PointerMove(n *html.Node) {
	if c.state == Idle || !isTarget(n) {
		return
	}
	if c.highlighted != nil && c.highlighted != n {
		c.page.Undecorate(c.highlighted)
	}
	c.page.Decorate(n)
	c.highlighted = n
	c.state = Highlighting
}

// Click commits n: selection mode is torn down first, then the element is
// synthesized, classified and the resulting record is emitted.
func (c *Controller) Click(n *html.Node) bool {
	if c.state == Idle || !isTarget(n) {
		return false
	}
	armed := c.fieldType
	c.teardown()

	doc := c.page.Document()
	sel := selector.Synthesize(doc, n)
	rec := classify.Classify(doc, n, sel)
	rec.ID = c.newID()
	rec.SourceURL = doc.URL()
	rec.CapturedAt = c.now()

	logger := c.logger.With(slog.String("selector", rec.Selector), slog.String("type", string(rec.Type)))
	if !doc.Unique(rec.Selector) {
		logger.Warn("selector matches more than one element")
	}
	if rec.Type != armed {
		logger.Debug(fmt.Sprintf("element was classified as %s while capturing %s", rec.Type, armed))
	}
	logger.Info("captured element")

	if c.out == nil {
		logger.Warn("no receiver for captured records, dropping record")
		return true
	}
	c.out <- rec
	return true
}

// teardown reverts every side effect of Arm and PointerMove. It is a no-op when idle.
func (c *Controller) teardown() {
	if c.state == Idle {
		return
	}
	c.page.Uninstall(c)
	if c.highlighted != nil {
		c.page.Undecorate(c.highlighted)
		c.highlighted = nil
	}
	c.page.HideOverlay()
	c.page.SetCrosshair(false)
	c.state = Idle
	c.fieldType = ""
}

// isTarget reports whether n can be selected. The overlay and the indicator
// badge belong to selection mode and are never targets.
func isTarget(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for c := n; c != nil; c = c.Parent {
		for _, a := range c.Attr {
			if (a.Key == "id" && a.Val == page.OverlayID) || (a.Key == "class" && a.Val == page.IndicatorClass) {
				return false
			}
		}
	}
	return true
}
