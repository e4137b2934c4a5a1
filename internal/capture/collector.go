// Package capture holds the records captured on a page until they are saved
// as a session or turned into a template.
package capture

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
)

// Collector is the ordered, in-memory collection of captured records. It is
// safe for concurrent use since records arrive from the selection event loop
// while the ui reads them.
type Collector struct {
	mu      sync.RWMutex
	records []types.Record
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends r.
func (c *Collector) Add(r types.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Consume adds every record received on in until in is closed or ctx is done.
// The optional onAdd callback is called after each record was added.
func (c *Collector) Consume(ctx context.Context, in <-chan types.Record, onAdd func(types.Record)) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-in:
			if !ok {
				return
			}
			c.Add(r)
			if onAdd != nil {
				onAdd(r)
			}
		}
	}
}

// Records returns a copy of the records in capture order.
func (c *Collector) Records() []types.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.records)
}

// Len returns the number of records.
func (c *Collector) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// UpdateValue sets the value of the record with the given id. Only the value
// of a record is editable. It reports whether the record exists.
func (c *Collector) UpdateValue(id, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.records {
		if c.records[i].ID == id {
			c.records[i].Value = value
			return true
		}
	}
	return false
}

// Delete removes the record with the given id and reports whether it existed.
func (c *Collector) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := slices.IndexFunc(c.records, func(r types.Record) bool { return r.ID == id })
	if i == -1 {
		return false
	}
	c.records = slices.Delete(c.records, i, i+1)
	return true
}

// Clear removes all records.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

// Template builds a template from the captured records. If more than one
// record has the same type the one captured last wins.
func (c *Collector) Template(name, containerSelector string) types.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := types.Template{
		Name:              name,
		Selectors:         map[types.FieldType]string{},
		ContainerSelector: containerSelector,
	}
	for _, r := range c.records {
		t.Selectors[r.Type] = r.Selector
	}
	return t
}

// Session returns a session of the current records.
func (c *Collector) Session(title, pageURL, templateName string) types.Session {
	return types.Session{
		URL:          pageURL,
		Title:        title,
		Records:      c.Records(),
		TemplateName: templateName,
		CreatedAt:    time.Now(),
	}
}

// SaveSession persists the current records as a new session and returns its id.
// The collection is left untouched in any case.
func (c *Collector) SaveSession(ctx context.Context, s store.Store, title, pageURL, templateName string) (int64, error) {
	if !store.Available(s) {
		return 0, unavailable(s)
	}
	session := c.Session(title, pageURL, templateName)
	id, err := s.PersistSession(ctx, &session)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to save session of %s: %v", pageURL, err))
		return 0, fmt.Errorf("failed to save session: %w", err)
	}
	slog.Info(fmt.Sprintf("saved session %d with %d records", id, len(session.Records)))
	return id, nil
}

// SaveTemplate persists a template of the current records under name.
func (c *Collector) SaveTemplate(ctx context.Context, s store.Store, name, containerSelector string) (*types.Template, error) {
	if !store.Available(s) {
		return nil, unavailable(s)
	}
	t := c.Template(name, containerSelector)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.PersistTemplate(ctx, &t); err != nil {
		slog.Error(fmt.Sprintf("failed to save template %s: %v", name, err))
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	slog.Info(fmt.Sprintf("saved template %s with %d selectors", name, len(t.Selectors)))
	return &t, nil
}

func unavailable(s store.Store) error {
	if d, ok := s.(*store.Disabled); ok {
		return d.Err()
	}
	return store.ErrUnavailable
}
