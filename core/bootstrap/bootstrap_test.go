package bootstrap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/pixabot/core/config"
	coredatabase "github.com/m3rciful/pixabot/core/database"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunWithoutDatabase(t *testing.T) {
	var seeded []int
	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			t.Fatal("connect must not run without a host")
			return nil, nil
		},
		Modules: Modules{Seeders: []Seeder{
			SeederFunc(func(_ context.Context, s Storage) error {
				assert.Nil(t, s.DB)
				seeded = append(seeded, 1)
				return nil
			}),
			nil,
			SeederFunc(func(context.Context, Storage) error {
				seeded = append(seeded, 2)
				return nil
			}),
		}},
	})
	require.NoError(t, err)
	assert.Nil(t, res.DB)
	assert.NoError(t, res.Close())
	assert.Equal(t, []int{1, 2}, seeded)
}

func TestRunStopsOnFailures(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("disk full") },
	})
	assert.ErrorContains(t, err, "logger init failed")

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return nil, errors.New("refused")
		},
	})
	assert.ErrorContains(t, err, "database initialization failed")

	_, err = Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Modules: Modules{Seeders: []Seeder{SeederFunc(func(context.Context, Storage) error {
			return errors.New("bad seed")
		})}},
	})
	assert.ErrorContains(t, err, "seeder 0 failed")
}

func TestRunAppliesMigrations(t *testing.T) {
	migrations := fstest.MapFS{"0001_init.up.sql": {Data: []byte("SELECT 1;")}}
	var applied fs.FS
	db := sqlx.NewDb(nil, "postgres")

	res, err := Run(context.Background(), Options{
		Config:     &coreconfig.Config{},
		Database:   coredatabase.Config{Host: "db"},
		Migrations: migrations,
		LoggerInit: noLogger,
		Connect: func(context.Context, coredatabase.Config) (*sqlx.DB, error) {
			return db, nil
		},
		Migrate: func(_ context.Context, _ coredatabase.Config, m fs.FS) error {
			applied = m
			return nil
		},
	})
	require.NoError(t, err)
	assert.Same(t, db, res.DB)
	assert.NotNil(t, applied)
}
