package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Storage is the infrastructure handed to seeders.
type Storage struct {
	// DB is nil when the bot runs without a database.
	DB *sqlx.DB
}

// Seeder loads reference data before the bot starts.
type Seeder interface {
	Seed(ctx context.Context, storage Storage) error
}

// SeederFunc adapts a bare function to the Seeder interface.
type SeederFunc func(ctx context.Context, storage Storage) error

// Seed executes the underlying function.
func (f SeederFunc) Seed(ctx context.Context, storage Storage) error {
	return f(ctx, storage)
}

// Modules groups optional bootstrapping hooks.
type Modules struct {
	Seeders []Seeder
}

func (m Modules) seed(ctx context.Context, storage Storage) error {
	for i, s := range m.Seeders {
		if s == nil {
			continue
		}
		if err := s.Seed(ctx, storage); err != nil {
			return fmt.Errorf("bootstrap: seeder %d failed: %w", i, err)
		}
	}
	return nil
}
