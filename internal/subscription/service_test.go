package subscription

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/weatherbot/internal/errs"
)

func TestSubscribeIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()
	first := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	ok, err := svc.IsSubscribed(ctx, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	already, err := svc.Subscribe(ctx, 10, first)
	require.NoError(t, err)
	assert.False(t, already)

	already, err = svc.Subscribe(ctx, 10, first.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, already)

	rec, err := repo.Find(ctx, 10)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, first, rec.SubscriptionDate)
	assert.False(t, rec.IsAdmin)

	n, err := svc.CountSubscribed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreFailuresAreCoded(t *testing.T) {
	repo := NewMemoryRepository()
	repo.Err = errors.New("connection refused")
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.IsSubscribed(ctx, 1)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	_, err = svc.Subscribe(ctx, 1, time.Now())
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
	_, err = svc.CountSubscribed(ctx)
	assert.ErrorIs(t, err, errs.ErrStoreUnavailable)
}

func TestSeedAdmin(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, seedAdmin(ctx, repo, 0))
	n, _ := svc.CountSubscribed(ctx)
	assert.Zero(t, n)

	require.NoError(t, seedAdmin(ctx, repo, 77))
	admin, err := svc.IsAdmin(ctx, 77)
	require.NoError(t, err)
	assert.True(t, admin)
	subscribed, err := svc.IsSubscribed(ctx, 77)
	require.NoError(t, err)
	assert.True(t, subscribed)

	admin, err = svc.IsAdmin(ctx, 78)
	require.NoError(t, err)
	assert.False(t, admin)
}
