package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/gopick/internal/page"
	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
)

func TestCaptureElement(t *testing.T) {
	p, err := page.FromHTML(`<body><div><span>$19.99</span><h2 class="title">Widget</h2></div></body>`, "https://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := captureElement(p, types.FieldTypeTitle, "h2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Selector != ".title" || rec.Type != types.FieldTypeTitle || rec.Value != "Widget" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.ID == "" || rec.SourceURL != "https://example.com" {
		t.Fatalf("expected id and url to be set, got %+v", rec)
	}
	if p.Listeners() != 0 || p.OverlayVisible() {
		t.Fatal("expected selection mode to be torn down")
	}

	if _, err := captureElement(p, types.FieldTypeText, "table"); err == nil {
		t.Fatal("expected an error for a selector without match")
	}
}

func TestItemSession(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tpl := &types.Template{
		Name:      "shop",
		Selectors: map[types.FieldType]string{types.FieldTypeTitle: "h2", types.FieldTypePrice: ".price"},
	}
	it := types.Item{
		URL:       "https://example.com",
		Timestamp: ts,
		Data:      map[types.FieldType]string{types.FieldTypePrice: "$1", types.FieldTypeTitle: "Widget"},
	}

	s := itemSession(it, tpl, "Shop")

	if s.TemplateName != "shop" || s.URL != "https://example.com" || !s.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected session %+v", s)
	}
	if len(s.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(s.Records))
	}
	// records follow the order of types.FieldTypes
	if s.Records[0].Type != types.FieldTypeTitle || s.Records[0].Selector != "h2" || s.Records[1].Value != "$1" {
		t.Fatalf("unexpected records %+v", s.Records)
	}
}

func TestReadTemplates(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.yaml")
	list := filepath.Join(dir, "list.yaml")
	invalid := filepath.Join(dir, "invalid.yaml")
	files := map[string]string{
		single:  "name: shop\ncontainer_selector: .card\nselectors:\n  title: h2\n  price: .price\n",
		list:    "- name: a\n  selectors:\n    text: p\n- name: b\n  selectors:\n    link: a\n",
		invalid: "name: bad\nselectors:\n  color: h2\n",
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	tpl, err := readTemplateFile(single)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tpl.Name != "shop" || tpl.ContainerSelector != ".card" || tpl.Selectors[types.FieldTypePrice] != ".price" {
		t.Fatalf("unexpected template %+v", tpl)
	}

	templates, err := readTemplates(list)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(templates) != 2 || templates[1].Name != "b" {
		t.Fatalf("unexpected templates %+v", templates)
	}
	if _, err := readTemplateFile(list); err == nil {
		t.Fatal("expected an error for more than one template")
	}
	if _, err := readTemplates(invalid); err == nil {
		t.Fatal("expected a validation error")
	}
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	if err := renderTable(&buf, []string{"ID", "URL"}, [][]string{{"1", "https://example.com"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "https://example.com") {
		t.Fatalf("unexpected table %q", buf.String())
	}
}

func TestInteractionFlags(t *testing.T) {
	opts := InteractionFlags{Click: []string{"#accept", ".more"}, Scroll: 3}.opts()
	if len(opts.Interaction) != 3 {
		t.Fatalf("expected 3 interactions, got %d", len(opts.Interaction))
	}
	if opts.Interaction[1].Type != types.InteractionTypeClick || opts.Interaction[1].Selector != ".more" {
		t.Fatalf("unexpected interaction %+v", opts.Interaction[1])
	}
	if opts.Interaction[2].Type != types.InteractionTypeScroll || opts.Interaction[2].Count != 3 {
		t.Fatalf("unexpected interaction %+v", opts.Interaction[2])
	}
	if len(InteractionFlags{}.opts().Interaction) != 0 {
		t.Fatal("expected no interactions")
	}
}

const shopPage = `<html><head><title>Shop</title></head><body><div class="card"><h2 class="title">Widget</h2><span class="price">$19.99</span></div></body></html>`

// writeDisabledStoreConfig writes a config serving shopPage from the mock
// fetcher, exporting to exportDir and with the store switched off.
func writeDisabledStoreConfig(t *testing.T, exportDir string) string {
	t.Helper()
	conf := "store:\n" +
		"  kind: none\n" +
		"fetcher:\n" +
		"  type: mock\n" +
		"  mock_pages:\n" +
		"    - url: https://example.com/shop\n" +
		"      content: '" + shopPage + "'\n" +
		"export:\n" +
		"  type: file\n" +
		"  dir: " + exportDir + "\n"
	path := filepath.Join(t.TempDir(), "gopick.yaml")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func readExport(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one exported file, got %d", len(entries))
	}
	content, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return string(content)
}

func TestCaptureExportsWhenSaveFails(t *testing.T) {
	exportDir := t.TempDir()
	c := &CaptureCmd{
		ConfigFlag:  ConfigFlag{Config: writeDisabledStoreConfig(t, exportDir)},
		ExportFlags: ExportFlags{Format: "json"},
		URL:         "https://example.com/shop",
		Type:        "title",
		Target:      "h2",
		Save:        true,
	}

	err := c.Run()
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected the save error to be returned, got %v", err)
	}
	content := readExport(t, exportDir)
	if !strings.Contains(content, `"selector": ".title"`) || !strings.Contains(content, `"value": "Widget"`) {
		t.Fatalf("captured record missing from export %q", content)
	}
}

func TestApplyExportsWhenSaveFails(t *testing.T) {
	exportDir := t.TempDir()
	tplPath := filepath.Join(t.TempDir(), "shop.yaml")
	if err := os.WriteFile(tplPath, []byte("name: shop\ncontainer_selector: .card\nselectors:\n  title: h2\n  price: .price\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := &ApplyCmd{
		ConfigFlag:  ConfigFlag{Config: writeDisabledStoreConfig(t, exportDir)},
		ExportFlags: ExportFlags{Format: "csv"},
		URL:         "https://example.com/shop",
		File:        tplPath,
		Save:        true,
	}

	err := a.Run()
	if !errors.Is(err, store.ErrUnavailable) {
		t.Fatalf("expected the save error to be returned, got %v", err)
	}
	content := readExport(t, exportDir)
	if !strings.Contains(content, `"Widget"`) || !strings.Contains(content, `"$19.99"`) {
		t.Fatalf("extracted item missing from export %q", content)
	}
}
