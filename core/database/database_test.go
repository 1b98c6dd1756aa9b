package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
)

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", User: "bot", Password: "p w'd", Name: "pixabot"}
	assert.True(t, cfg.Enabled())
	assert.Equal(t, `user=bot password='p w\'d' host=db port=5432 dbname=pixabot sslmode=disable`, cfg.DSN())
	assert.Equal(t, "postgres://bot:p%20w%27d@db:5432/pixabot?sslmode=disable", cfg.URL())

	assert.False(t, Config{}.Enabled())
}

func TestMigrationFileSelection(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_searches.up.sql": {Data: []byte("--")},
		"0001_audit.up.sql":    {Data: []byte("--")},
		"0001_audit.down.sql":  {Data: []byte("--")},
		"0003_index.up.sql":    {Data: []byte("--")},
		"README.md":            {Data: []byte("--")},
	}
	files := listMigrationFiles(fsys)
	assert.Equal(t, []string{"0001_audit.up.sql", "0002_searches.up.sql", "0003_index.up.sql"}, files)

	assert.Equal(t, []string{"0002_searches.up.sql", "0003_index.up.sql"}, selectApplied(files, 1, 3))
	assert.Empty(t, selectApplied(files, 3, 3))
	assert.EqualValues(t, 12, parseVersion("12_x.up.sql"))
}
