package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jakopako/gopick/internal/types"
)

func TestOpenNone(t *testing.T) {
	s, err := Open(context.Background(), Config{Kind: NONE_STORE_KIND})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if Available(s) {
		t.Fatal("expected a disabled store")
	}
	if _, err := s.PersistSession(context.Background(), &types.Session{URL: "https://example.com"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error on close: %v", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(context.Background(), Config{Kind: "mssql"}); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
	s := OpenOrDisable(context.Background(), Config{Kind: "mssql"})
	if Available(s) {
		t.Fatal("expected a disabled store")
	}
	if err := s.PersistTemplate(context.Background(), &types.Template{}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRegister(t *testing.T) {
	failing := errors.New("boom")
	Register("failing", func(ctx context.Context, cfg Config) (Store, error) { return nil, failing })
	defer func() {
		mu.Lock()
		delete(registry, "failing")
		mu.Unlock()
	}()
	if _, err := Open(context.Background(), Config{Kind: "failing"}); !errors.Is(err, failing) {
		t.Fatalf("expected wrapped factory error, got %v", err)
	}
	if Available(nil) {
		t.Fatal("nil store must not be available")
	}
}
