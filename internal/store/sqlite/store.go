// Package sqlite implements store.Store on top of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jakopako/gopick/internal/store"
	"github.com/jakopako/gopick/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS extractions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	data TEXT NOT NULL,
	template_name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS templates (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT UNIQUE NOT NULL,
	selectors TEXT NOT NULL,
	container_selector TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);`

// Store implements store.Store for SQLite. Timestamps are stored as RFC3339Nano
// strings since SQLite has no timestamp type.
type Store struct {
	db *sql.DB
}

func init() {
	store.Register(store.SQLITE_STORE_KIND, func(ctx context.Context, cfg store.Config) (store.Store, error) {
		return New(ctx, cfg.DSN)
	})
}

// New opens the database at dsn and creates the tables if necessary.
func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite does not support concurrent writers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) PersistSession(ctx context.Context, session *types.Session) (int64, error) {
	if session.URL == "" {
		return 0, errors.New("session url cannot be empty")
	}
	data, err := json.Marshal(session.Records)
	if err != nil {
		return 0, fmt.Errorf("encode records: %w", err)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (url, title, data, template_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		session.URL, session.Title, string(data), session.TemplateName, formatTime(session.CreatedAt))
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	session.ID = id
	return id, nil
}

func (s *Store) ListSessions(ctx context.Context) ([]types.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, title, data, template_name, created_at FROM extractions ORDER BY id ASC`)
	if err != nil {
		return nil, err
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
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, title, data, template_name, created_at FROM extractions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", id, store.ErrNotFound)
	}
	return session, err
}

func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM extractions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
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
		return fmt.Errorf("encode selectors: %w", err)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (name, selectors, container_selector, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET selectors = excluded.selectors, container_selector = excluded.container_selector`,
		t.Name, string(selectors), t.ContainerSelector, formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("upsert template %s: %w", t.Name, err)
	}
	return nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]types.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, selectors, container_selector, created_at FROM templates ORDER BY id ASC`)
	if err != nil {
		return nil, err
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
	row := s.db.QueryRowContext(ctx,
		`SELECT name, selectors, container_selector, created_at FROM templates WHERE name = ?`, name)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %s: %w", name, store.ErrNotFound)
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*types.Session, error) {
	var (
		session   types.Session
		data      string
		createdAt string
	)
	if err := row.Scan(&session.ID, &session.URL, &session.Title, &data, &session.TemplateName, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &session.Records); err != nil {
		return nil, fmt.Errorf("decode records of session %d: %w", session.ID, err)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	session.CreatedAt = t
	return &session, nil
}

func scanTemplate(row scanner) (*types.Template, error) {
	var (
		t         types.Template
		selectors string
		createdAt string
	)
	if err := row.Scan(&t.Name, &selectors, &t.ContainerSelector, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(selectors), &t.Selectors); err != nil {
		return nil, fmt.Errorf("decode selectors of template %s: %w", t.Name, err)
	}
	ct, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt = ct
	return &t, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
