package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jakopako/gopick/internal/types"
)

// Format is the text format of an export.
type Format string

const (
	JSON_FORMAT Format = "json"
	CSV_FORMAT  Format = "csv"
)

// ParseFormat returns the Format for s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON_FORMAT, CSV_FORMAT:
		return f, nil
	default:
		return "", fmt.Errorf("export format '%s' not implemented", s)
	}
}

var (
	recordsHeader = []string{"type", "selector", "value", "url"}
	itemsHeader   = []string{"URL", "Timestamp", "Image", "Title", "Description", "Price"}
)

// itemTimestampLayout matches the millisecond UTC layout of ISO 8601
// timestamps as produced by browsers.
const itemTimestampLayout = "2006-01-02T15:04:05.000Z"

// FormatJSON returns v as a json document indented by two spaces.
func FormatJSON(v any) (string, error) {
	// json.MarshalIndent would replace html characters such as < and & with
	// unicode escapes which we don't want in an export.
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("error while encoding json: %w", err)
	}
	return strings.TrimSuffix(buffer.String(), "\n"), nil
}

// FormatRecordsCSV returns the records as csv with the header
// type,selector,value,url. Every value cell is quoted. An empty slice yields
// an empty string.
func FormatRecordsCSV(records []types.Record) string {
	if len(records) == 0 {
		return ""
	}
	rows := make([]string, 0, len(records)+1)
	rows = append(rows, strings.Join(recordsHeader, ","))
	for _, r := range records {
		rows = append(rows, csvRow(string(r.Type), r.Selector, r.Value, r.SourceURL))
	}
	return strings.Join(rows, "\n")
}

// FormatItemsCSV returns the items as csv, one row per item with the columns
// URL,Timestamp,Image,Title,Description,Price. All cells including the
// header are quoted.
func FormatItemsCSV(items []types.Item) string {
	if len(items) == 0 {
		return ""
	}
	rows := make([]string, 0, len(items)+1)
	rows = append(rows, csvRow(itemsHeader...))
	for _, it := range items {
		rows = append(rows, csvRow(
			it.URL,
			it.Timestamp.UTC().Format(itemTimestampLayout),
			it.Data[types.FieldTypeImage],
			it.Data[types.FieldTypeTitle],
			it.Data[types.FieldTypeDescription],
			it.Data[types.FieldTypePrice],
		))
	}
	return strings.Join(rows, "\n")
}

// ItemsFromSession groups the records of a session into a single item, the
// last record of each type wins.
func ItemsFromSession(s types.Session) []types.Item {
	if len(s.Records) == 0 {
		return nil
	}
	it := types.Item{URL: s.URL, Timestamp: s.CreatedAt, Data: map[types.FieldType]string{}}
	for _, r := range s.Records {
		it.Data[r.Type] = r.Value
	}
	return []types.Item{it}
}

// FormatRecords formats records in format f.
func FormatRecords(records []types.Record, f Format) (string, error) {
	switch f {
	case JSON_FORMAT:
		if records == nil {
			records = []types.Record{}
		}
		return FormatJSON(records)
	case CSV_FORMAT:
		return FormatRecordsCSV(records), nil
	default:
		return "", fmt.Errorf("export format '%s' not implemented", f)
	}
}

// FormatItems formats items in format f.
func FormatItems(items []types.Item, f Format) (string, error) {
	switch f {
	case JSON_FORMAT:
		if items == nil {
			items = []types.Item{}
		}
		return FormatJSON(items)
	case CSV_FORMAT:
		return FormatItemsCSV(items), nil
	default:
		return "", fmt.Errorf("export format '%s' not implemented", f)
	}
}

// csvRow quotes every cell, doubling quotes inside of it. encoding/csv only
// quotes cells that need it which is not what consumers of the export expect.
func csvRow(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// ExportFilename returns the default file name for an export.
func ExportFilename(name string, f Format, t time.Time) string {
	if name == "" {
		name = "extraction-data"
	}
	return fmt.Sprintf("%s-%s.%s", name, t.Format("20060102-150405"), f)
}
