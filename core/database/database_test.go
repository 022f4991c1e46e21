package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/migrations"
)

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Host: "localhost", Name: "weather"}
	require.NoError(t, cfg.Normalize())
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "disable", cfg.SSLMode)
	assert.Equal(t, 5, cfg.MaxConnections)

	assert.Error(t, (&Config{Name: "x"}).Normalize())
	assert.Error(t, (&Config{Host: "x"}).Normalize())
}

func TestConfigURLEscapesCredentials(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "p@ss/word", Name: "weather", SSLMode: "disable"}
	assert.Equal(t, "postgres://bot:p%40ss%2Fword@db:5432/weather?sslmode=disable", cfg.URL())
	assert.Contains(t, cfg.DSN(), "dbname=weather")
}

func TestListMigrationFiles(t *testing.T) {
	src := fstest.MapFS{
		"0002_b.up.sql":   {},
		"0001_a.up.sql":   {},
		"0001_a.down.sql": {},
		"README":          {},
	}
	assert.Equal(t, []string{"0001_a.up.sql", "0002_b.up.sql"}, listMigrationFiles(src))
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files := listMigrationFiles(migrations.FS)
	require.NotEmpty(t, files)
	assert.Equal(t, uint64(1), parseVersion(files[0]))
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}
	assert.Equal(t, []string{"0002_b.up.sql", "0003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Nil(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(0), parseVersion("bogus.up.sql"))
}
