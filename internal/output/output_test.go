package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jakopako/gopick/internal/types"
)

var testRecords = []types.Record{
	{ID: "1", Type: types.FieldTypeTitle, Selector: `[data-name="x"]`, Value: `The "best" widget`, SourceURL: "https://example.com/a"},
	{ID: "2", Type: types.FieldTypePrice, Selector: "div > span", Value: "$1,99", SourceURL: "https://example.com/a"},
	{ID: "3", Type: types.FieldTypeDescription, Selector: "p", Value: "line one\nline two", SourceURL: "https://example.com/a"},
	{ID: "4", Type: types.FieldTypeText, Selector: "b", Value: "", SourceURL: "https://example.com/a"},
}

func TestFormatRecordsCSVRoundTrip(t *testing.T) {
	out := FormatRecordsCSV(testRecords)
	if !strings.HasPrefix(out, "type,selector,value,url\n") {
		t.Fatalf("unexpected header in %q", out)
	}
	if strings.HasSuffix(out, "\n") {
		t.Fatal("expected no trailing newline")
	}

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != len(testRecords)+1 {
		t.Fatalf("expected %d rows, got %d", len(testRecords)+1, len(rows))
	}
	for i, r := range testRecords {
		expected := []string{string(r.Type), r.Selector, r.Value, r.SourceURL}
		for j := range expected {
			if rows[i+1][j] != expected[j] {
				t.Errorf("row %d cell %d: expected %q, got %q", i+1, j, expected[j], rows[i+1][j])
			}
		}
	}
}

func TestFormatRecordsCSVQuoting(t *testing.T) {
	out := FormatRecordsCSV(testRecords[:1])
	expected := "type,selector,value,url\n" + `"title","[data-name=""x""]","The ""best"" widget","https://example.com/a"`
	if out != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, out)
	}
	if FormatRecordsCSV(nil) != "" {
		t.Fatal("expected empty output for no records")
	}
}

func TestFormatItemsCSV(t *testing.T) {
	items := []types.Item{
		{
			URL:       "https://example.com",
			Timestamp: time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
			Data: map[types.FieldType]string{
				types.FieldTypeTitle: "Widget",
				types.FieldTypePrice: `9" nails`,
				types.FieldTypeText:  "ignored",
			},
		},
	}
	expected := `"URL","Timestamp","Image","Title","Description","Price"` + "\n" +
		`"https://example.com","2024-05-01T12:30:00.000Z","","Widget","","9"" nails"`
	if out := FormatItemsCSV(items); out != expected {
		t.Fatalf("expected\n%s\ngot\n%s", expected, out)
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatRecords(testRecords[:1], JSON_FORMAT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(out, "[\n  {\n    \"id\": \"1\"") {
		t.Fatalf("expected two space indentation, got %s", out)
	}
	if strings.Contains(out, `&`) || strings.HasSuffix(out, "\n") {
		t.Fatalf("unexpected escaping or trailing newline in %s", out)
	}
	var decoded []types.Record
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded[0].Value != testRecords[0].Value || decoded[0].SourceURL != testRecords[0].SourceURL {
		t.Fatalf("unexpected decoded record %+v", decoded[0])
	}

	out, err = FormatRecords(nil, JSON_FORMAT)
	if err != nil || out != "[]" {
		t.Fatalf("expected empty array, got %q (%v)", out, err)
	}
	out, err = FormatJSON(map[string]string{"q": "a&b<c>"})
	if err != nil || !strings.Contains(out, "a&b<c>") {
		t.Fatalf("expected html characters to be kept, got %q (%v)", out, err)
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("CSV"); err != nil || f != CSV_FORMAT {
		t.Fatalf("expected csv, got %q (%v)", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected an error for xml")
	}
	if _, err := FormatItems(nil, "xml"); err == nil {
		t.Fatal("expected an error for xml")
	}
}

func TestItemsFromSession(t *testing.T) {
	s := types.Session{URL: "https://example.com", Records: []types.Record{
		{Type: types.FieldTypeTitle, Value: "A"},
		{Type: types.FieldTypeTitle, Value: "B"},
		{Type: types.FieldTypePrice, Value: "$1"},
	}}
	items := ItemsFromSession(s)
	if len(items) != 1 || items[0].Data[types.FieldTypeTitle] != "B" || items[0].Data[types.FieldTypePrice] != "$1" {
		t.Fatalf("unexpected items %+v", items)
	}
	if ItemsFromSession(types.Session{}) != nil {
		t.Fatal("expected no items for an empty session")
	}
}

func TestFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	w, err := NewWriter(&WriterConfig{Type: FILE_WRITER_TYPE, Dir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write("data.csv", "a,b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "data.csv"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != "a,b" {
		t.Fatalf("unexpected file content %q", b)
	}
	if err := w.Write("", "x"); err == nil {
		t.Fatal("expected an error for an empty name")
	}
}

func TestWriteExportFileFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WriteExportFile(filepath.Join(blocker, "out.json"), "[]"); err == nil {
		t.Fatal("expected an error when the parent is a file")
	}
}

func TestStdoutWriter(t *testing.T) {
	var buf bytes.Buffer
	if err := NewStdoutWriter(&buf).Write("x.json", "[]"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestAPIWriter(t *testing.T) {
	var gotBody, gotType, gotUser string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	w, err := NewWriter(&WriterConfig{Type: API_WRITER_TYPE, Uri: ts.URL, User: "u", Password: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Write("x.csv", "a,b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody != "a,b" || gotType != "text/csv" || gotUser != "u" {
		t.Fatalf("unexpected request: body %q type %q user %q", gotBody, gotType, gotUser)
	}

	if _, err := NewWriter(&WriterConfig{Type: API_WRITER_TYPE}); err == nil {
		t.Fatal("expected an error without uri")
	}
	if _, err := NewWriter(&WriterConfig{Type: "kafka"}); err == nil {
		t.Fatal("expected an error for an unknown writer type")
	}
}

func TestAPIWriterFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer ts.Close()

	w, _ := NewAPIWriter(&WriterConfig{Uri: ts.URL})
	if err := w.Write("x.json", "[]"); err == nil || !strings.Contains(err.Error(), "400") {
		t.Fatalf("expected a status error, got %v", err)
	}
}
