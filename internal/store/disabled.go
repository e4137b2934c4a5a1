package store

import (
	"context"
	"fmt"

	"github.com/jakopako/gopick/internal/types"
)

// Disabled is the store used when no working backend is available.
type Disabled struct {
	Reason error
}

// Err returns ErrUnavailable wrapping the reason the store is disabled.
func (d *Disabled) Err() error {
	if d.Reason == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, d.Reason)
}

func (d *Disabled) PersistSession(ctx context.Context, s *types.Session) (int64, error) {
	return 0, d.Err()
}

func (d *Disabled) ListSessions(ctx context.Context) ([]types.Session, error) {
	return nil, d.Err()
}

func (d *Disabled) GetSession(ctx context.Context, id int64) (*types.Session, error) {
	return nil, d.Err()
}

func (d *Disabled) DeleteSession(ctx context.Context, id int64) error {
	return d.Err()
}

func (d *Disabled) PersistTemplate(ctx context.Context, t *types.Template) error {
	return d.Err()
}

func (d *Disabled) ListTemplates(ctx context.Context) ([]types.Template, error) {
	return nil, d.Err()
}

func (d *Disabled) GetTemplate(ctx context.Context, name string) (*types.Template, error) {
	return nil, d.Err()
}

func (d *Disabled) Close() error { return nil }
