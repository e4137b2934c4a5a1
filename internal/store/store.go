// Package store defines the durable store for sessions and templates and a
// registry of its backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jakopako/gopick/internal/types"
)

var (
	// ErrNotFound is returned when a session or template does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable is returned by every operation of a disabled store.
	ErrUnavailable = errors.New("store unavailable")
)

// Store persists sessions and templates. Lists are returned in insertion order.
type Store interface {
	PersistSession(ctx context.Context, s *types.Session) (int64, error)
	ListSessions(ctx context.Context) ([]types.Session, error)
	GetSession(ctx context.Context, id int64) (*types.Session, error)
	DeleteSession(ctx context.Context, id int64) error
	// PersistTemplate inserts t or replaces the template with the same name.
	PersistTemplate(ctx context.Context, t *types.Template) error
	ListTemplates(ctx context.Context) ([]types.Template, error)
	GetTemplate(ctx context.Context, name string) (*types.Template, error)
	Close() error
}

// Kind is the kind of store backend
type Kind string

const (
	SQLITE_STORE_KIND   Kind = "sqlite"
	POSTGRES_STORE_KIND Kind = "postgres"
	NONE_STORE_KIND     Kind = "none"
)

// Config defines which backend to use and how to connect to it.
type Config struct {
	Kind Kind   `yaml:"kind" env:"GOPICK_STORE_KIND" env-default:"sqlite"`
	DSN  string `yaml:"dsn" env:"GOPICK_STORE_DSN" env-default:"extractions.db"`
}

// Factory opens a store of a specific kind.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu       sync.RWMutex
	registry = map[Kind]Factory{}
)

// Register makes a backend available under kind. It is meant to be called from
// the init function of a backend package.
func Register(kind Kind, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	registry[kind] = f
}

// Kinds returns the registered backend kinds.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := []string{}
	for k := range registry {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return kinds
}

// Open opens the store configured in cfg. Kind none returns a disabled store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == NONE_STORE_KIND {
		return &Disabled{Reason: errors.New("store disabled by configuration")}, nil
	}
	mu.RLock()
	f, found := registry[cfg.Kind]
	mu.RUnlock()
	if !found {
		return nil, fmt.Errorf("store of kind '%s' not implemented", cfg.Kind)
	}
	s, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error while opening %s store: %w", cfg.Kind, err)
	}
	return s, nil
}

// OpenOrDisable is like Open but never fails. If the store cannot be opened a
// disabled store is returned so that everything not depending on it keeps working.
func OpenOrDisable(ctx context.Context, cfg Config) Store {
	s, err := Open(ctx, cfg)
	if err != nil {
		slog.Warn(fmt.Sprintf("sessions and templates are disabled: %v", err))
		return &Disabled{Reason: err}
	}
	return s
}

// Available reports whether s is a working store.
func Available(s Store) bool {
	if s == nil {
		return false
	}
	_, disabled := s.(*Disabled)
	return !disabled
}
