package subscription

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/migrations"
)

// setupTestDB connects to TEST_DATABASE_URL and applies the schema.
// Tests are skipped when the variable is unset or Postgres is unreachable.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	schema, err := migrations.FS.ReadFile("0001_create_subscriptions.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	_, err = db.Exec(`TRUNCATE subscriptions`)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRepositoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	rec, err := repo.Find(ctx, 501)
	require.NoError(t, err)
	assert.Nil(t, rec)

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpsertSubscribed(ctx, 501, at))
	require.NoError(t, repo.UpsertSubscribed(ctx, 501, at.Add(time.Hour)))

	rec, err = repo.Find(ctx, 501)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.IsSubscribed)
	assert.True(t, at.Equal(rec.SubscriptionDate))

	require.NoError(t, repo.EnsureAdmin(ctx, 502))
	rec, err = repo.Find(ctx, 502)
	require.NoError(t, err)
	assert.True(t, rec.IsAdmin)

	n, err := repo.CountSubscribed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
