package capture

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	store.Disabled
	err       error
	sessions  []types.Session
	templates []types.Template
}

func (f *fakeStore) PersistSession(ctx context.Context, s *types.Session) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.sessions = append(f.sessions, *s)
	return int64(len(f.sessions)), nil
}

func (f *fakeStore) PersistTemplate(ctx context.Context, t *types.Template) error {
	if f.err != nil {
		return f.err
	}
	f.templates = append(f.templates, *t)
	return nil
}

func newCollector() *Collector {
	c := NewCollector()
	c.Add(types.Record{ID: "a", Type: types.FieldTypeTitle, Selector: "h2", Value: "Widget"})
	c.Add(types.Record{ID: "b", Type: types.FieldTypePrice, Selector: ".price", Value: "$1"})
	c.Add(types.Record{ID: "c", Type: types.FieldTypeTitle, Selector: ".title", Value: "Widget"})
	return c
}

func TestEditAndDelete(t *testing.T) {
	c := newCollector()

	assert.True(t, c.UpdateValue("b", "$2"))
	assert.False(t, c.UpdateValue("zzz", "x"))
	assert.Equal(t, "$2", c.Records()[1].Value)
	assert.Equal(t, ".price", c.Records()[1].Selector)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
	ids := []string{}
	for _, r := range c.Records() {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"b", "c"}, ids)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestRecordsIsACopy(t *testing.T) {
	c := newCollector()
	records := c.Records()
	records[0].Value = "changed"
	assert.Equal(t, "Widget", c.Records()[0].Value)
}

func TestTemplateLastWriteWins(t *testing.T) {
	tpl := newCollector().Template("shop", ".card")
	assert.Equal(t, map[types.FieldType]string{
		types.FieldTypeTitle: ".title",
		types.FieldTypePrice: ".price",
	}, tpl.Selectors)
	assert.Equal(t, ".card", tpl.ContainerSelector)
	assert.NoError(t, tpl.Validate())
}

func TestSaveSession(t *testing.T) {
	c := newCollector()
	s := &fakeStore{}

	id, err := c.SaveSession(context.Background(), s, "Shop", "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	require.Len(t, s.sessions, 1)
	assert.Equal(t, "https://example.com", s.sessions[0].URL)
	assert.Len(t, s.sessions[0].Records, 3)
	assert.Equal(t, 3, c.Len())
}

func TestFailedSaveKeepsRecords(t *testing.T) {
	c := newCollector()
	boom := errors.New("disk full")
	s := &fakeStore{err: boom}

	_, err := c.SaveSession(context.Background(), s, "Shop", "https://example.com", "")
	assert.ErrorIs(t, err, boom)
	_, err = c.SaveTemplate(context.Background(), s, "shop", "")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, c.Len())
}

func TestSaveWithoutStore(t *testing.T) {
	c := newCollector()

	_, err := c.SaveSession(context.Background(), nil, "Shop", "https://example.com", "")
	assert.ErrorIs(t, err, store.ErrUnavailable)

	disabled := &store.Disabled{Reason: errors.New("no sqlite")}
	_, err = c.SaveTemplate(context.Background(), disabled, "shop", "")
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Equal(t, 3, c.Len())
}

func TestSaveEmptyTemplate(t *testing.T) {
	_, err := NewCollector().SaveTemplate(context.Background(), &fakeStore{}, "empty", "")
	assert.Error(t, err)
}

func TestConsume(t *testing.T) {
	c := NewCollector()
	in := make(chan types.Record)
	added := make(chan string, 2)
	done := make(chan struct{})
	go func() {
		c.Consume(context.Background(), in, func(r types.Record) { added <- r.ID })
		close(done)
	}()

	in <- types.Record{ID: "1"}
	in <- types.Record{ID: "2"}
	close(in)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("consume did not return after the channel was closed")
	}
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "1", <-added)
	assert.Equal(t, "2", <-added)
}
