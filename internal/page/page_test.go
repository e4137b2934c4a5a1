package page

import (
	"testing"

	"github.com/jakopako/gopick/internal/dom"
	"golang.org/x/net/html"
)

type recordingListener struct {
	moves   []*html.Node
	clicks  []*html.Node
	prevent bool
}

func (r *recordingListener) PointerMove(n *html.Node) { r.moves = append(r.moves, n) }
func (r *recordingListener) Click(n *html.Node) bool {
	r.clicks = append(r.clicks, n)
	return r.prevent
}

func newPage(t *testing.T) *Page {
	t.Helper()
	p, err := FromHTML(`<body><div style="color: red"><p>hello</p><img src="a.png"></div></body>`, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestListeners(t *testing.T) {
	p := newPage(t)
	l := &recordingListener{prevent: true}
	n := p.Document().First("p")

	if p.Click(n) {
		t.Fatal("click without listeners must not be prevented")
	}

	p.Install(l)
	p.Install(l)
	if p.Listeners() != 1 {
		t.Fatalf("expected 1 listener, got %d", p.Listeners())
	}
	p.PointerMove(n)
	if !p.Click(n) {
		t.Fatal("expected click to be prevented")
	}
	if len(l.moves) != 1 || len(l.clicks) != 1 {
		t.Fatalf("expected one move and one click, got %d and %d", len(l.moves), len(l.clicks))
	}

	p.Uninstall(l)
	p.Uninstall(l)
	p.PointerMove(n)
	if len(l.moves) != 1 {
		t.Fatalf("uninstalled listener received an event")
	}
}

func TestDecorate(t *testing.T) {
	p := newPage(t)
	div := p.Document().First("div")

	p.Decorate(div)
	p.Decorate(div)
	if !p.Decorated(div) {
		t.Fatal("expected div to be decorated")
	}
	if got := len(p.Document().Query("." + IndicatorClass)); got != 1 {
		t.Fatalf("expected exactly one indicator, got %d", got)
	}
	style, _ := dom.Attr(div, "style")
	if style != "color: red; "+highlightStyle {
		t.Fatalf("unexpected style %q", style)
	}

	p.Undecorate(div)
	style, _ = dom.Attr(div, "style")
	if style != "color: red" {
		t.Fatalf("expected original style to be restored, got %q", style)
	}
	if got := len(p.Document().Query("." + IndicatorClass)); got != 0 {
		t.Fatalf("expected indicator to be removed, got %d", got)
	}
}

func TestDecorateVoidElement(t *testing.T) {
	p := newPage(t)
	img := p.Document().First("img")

	p.Decorate(img)
	if img.FirstChild != nil {
		t.Fatal("void elements must not get an indicator child")
	}
	p.Undecorate(img)
	if _, ok := dom.Attr(img, "style"); ok {
		t.Fatal("expected style attribute to be removed again")
	}
}

func TestOverlayAndCrosshair(t *testing.T) {
	p := newPage(t)
	body := p.Document().Body()

	p.ShowOverlay()
	p.ShowOverlay()
	p.SetCrosshair(true)
	if got := p.Document().Count("#" + OverlayID); got != 1 {
		t.Fatalf("expected one overlay, got %d", got)
	}
	if style, _ := dom.Attr(body, "style"); style != crosshairStyle {
		t.Fatalf("unexpected body style %q", style)
	}

	p.HideOverlay()
	p.SetCrosshair(false)
	if p.OverlayVisible() || p.Document().Count("#"+OverlayID) != 0 {
		t.Fatal("expected overlay to be removed")
	}
	if _, ok := dom.Attr(body, "style"); ok {
		t.Fatal("expected body style to be removed")
	}
}
