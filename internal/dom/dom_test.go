package dom

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const testHTML = `<html><head><title> Shop </title></head><body>
<div id="main" class="content wide"><p>Hello <b>World</b></p><p>again</p></div>
<a href="/x">x</a>
</body></html>`

func parse(t *testing.T, s, pageURL string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(s), pageURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return d
}

func TestQuery(t *testing.T) {
	d := parse(t, testHTML, "https://example.com/shop/")

	if got := d.Count("p"); got != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", got)
	}
	if !d.Unique("#main") || d.Unique("p") {
		t.Fatal("unexpected uniqueness")
	}
	if d.Count("[[invalid") != 0 {
		t.Fatal("expected an invalid selector to match nothing")
	}
	if d.First("table") != nil {
		t.Fatal("expected no match")
	}
	if got := len(QueryWithin(d.First("#main"), "b")); got != 1 {
		t.Fatalf("expected 1 match within #main, got %d", got)
	}
	if d.Title() != "Shop" {
		t.Fatalf("unexpected title %q", d.Title())
	}
}

func TestLiveQuery(t *testing.T) {
	d := parse(t, testHTML, "")
	main := d.First("#main")
	main.AppendChild(&html.Node{Type: html.ElementNode, Data: "p"})
	if got := d.Count("p"); got != 3 {
		t.Fatalf("expected the appended paragraph to be found, got %d", got)
	}
}

func TestResolveURL(t *testing.T) {
	d := parse(t, testHTML, "https://example.com/shop/")
	tests := map[string]string{
		"/x":                  "https://example.com/x",
		"img/a.png":           "https://example.com/shop/img/a.png",
		"https://other.org/b": "https://other.org/b",
		"  ":                  "",
	}
	for ref, expected := range tests {
		if got := d.ResolveURL(ref); got != expected {
			t.Errorf("%q: expected %q, got %q", ref, expected, got)
		}
	}

	noURL := parse(t, testHTML, "")
	if got := noURL.ResolveURL("img/a.png"); got != "img/a.png" {
		t.Errorf("expected ref to be returned as is, got %q", got)
	}

	withBase := parse(t, `<head><base href="https://cdn.example.org/b/"></head><body></body>`, "https://example.com")
	if got := withBase.ResolveURL("c.png"); got != "https://cdn.example.org/b/c.png" {
		t.Errorf("expected base href to be used, got %q", got)
	}
}

func TestNodeHelpers(t *testing.T) {
	d := parse(t, testHTML, "")
	main := d.First("#main")
	b := d.First("b")

	if Describe(main) != "div#main.content.wide" {
		t.Fatalf("unexpected description %q", Describe(main))
	}
	if strings.Join(Classes(main), ",") != "content,wide" {
		t.Fatalf("unexpected classes %v", Classes(main))
	}
	if Text(d.First("p")) != "Hello World" {
		t.Fatalf("unexpected text %q", Text(d.First("p")))
	}
	if len(ElementChildren(main)) != 2 {
		t.Fatalf("expected 2 element children")
	}
	if Closest(b, "div") != main || Closest(b, "h1") != nil {
		t.Fatal("unexpected closest ancestor")
	}
	if ParentElement(b) != d.First("p") {
		t.Fatal("unexpected parent")
	}

	SetAttr(b, "style", "color: red")
	if v, ok := Attr(b, "style"); !ok || v != "color: red" {
		t.Fatalf("unexpected attribute %q", v)
	}
	SetAttr(b, "style", "color: blue")
	RemoveAttr(b, "style")
	if _, ok := Attr(b, "style"); ok {
		t.Fatal("expected attribute to be removed")
	}
	if IsElement(b.FirstChild) || Describe(b.FirstChild) != "" {
		t.Fatal("text node is not an element")
	}
}
