// Package postgres implements store.Store on top of PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id BIGSERIAL PRIMARY KEY,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	data JSONB NOT NULL,
	template_name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS templates (
	id BIGSERIAL PRIMARY KEY,
	name TEXT UNIQUE NOT NULL,
	selectors JSONB NOT NULL,
	container_selector TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

// Store implements store.Store for PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func init() {
	store.Register(store.POSTGRES_STORE_KIND, func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return New(ctx, cfg.DSN)
	})
}

// New connects to the database at databaseURL and creates the tables if necessary.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) PersistSession(ctx context.Context, session *types.Session) (int64, error) {
	if session.URL == "" {
		return 0, errors.New("session url cannot be empty")
	}
	data, err := json.Marshal(session.Records)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal records: %w", err)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO extractions (url, title, data, template_name, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		session.URL, session.Title, data, session.TemplateName, session.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert session: %w", err)
	}
	session.ID = id
	return id, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]types.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, title, data, template_name, created_at FROM extractions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []types.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

func (s *Store) GetSession(ctx context.Context, id int64) (*types.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, url, title, data, template_name, created_at FROM extractions WHERE id = $1`, id)
	session, err := scanSession(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, store.ErrNotFound)
	}
	return session, err
}

func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM extractions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) PersistTemplate(ctx context.Context, t *types.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	selectors, err := json.Marshal(t.Selectors)
	if err != nil {
		return fmt.Errorf("failed to marshal selectors: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO templates (name, selectors, container_selector, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET selectors = $2, container_selector = $3`,
		t.Name, selectors, t.ContainerSelector, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save template %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]types.Template, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, selectors, container_selector, created_at FROM templates ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []types.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func (s *Store) GetTemplate(ctx context.Context, name string) (*types.Template, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT name, selectors, container_selector, created_at FROM templates WHERE name = $1`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", name, store.ErrNotFound)
	}
	return t, err
}

func scanSession(row pgx.Row) (*types.Session, error) {
	var (
		session types.Session
		data    []byte
	)
	if err := row.Scan(&session.ID, &session.URL, &session.Title, &data, &session.TemplateName, &session.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &session.Records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal records of session %d: %w", session.ID, err)
	}
	return &session, nil
}

func scanTemplate(row pgx.Row) (*types.Template, error) {
	var (
		t         types.Template
		selectors []byte
	)
	if err := row.Scan(&t.Name, &selectors, &t.ContainerSelector, &t.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(selectors, &t.Selectors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal selectors of template %s: %w", t.Name, err)
	}
	return &t, nil
}
