package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Seeder loads reference rows once migrations have run.
type Seeder interface {
	Name() string
	Seed(ctx context.Context, db *sqlx.DB) error
}

type seederFunc struct {
	name string
	fn   func(ctx context.Context, db *sqlx.DB) error
}

func (s seederFunc) Name() string                                { return s.name }
func (s seederFunc) Seed(ctx context.Context, db *sqlx.DB) error { return s.fn(ctx, db) }

// SeederFunc adapts a named function to Seeder.
func SeederFunc(name string, fn func(ctx context.Context, db *sqlx.DB) error) Seeder {
	return seederFunc{name: name, fn: fn}
}
