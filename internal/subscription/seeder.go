package subscription

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/weatherbot/core/bootstrap"
	"github.com/m3rciful/weatherbot/core/logger"
)

// AdminSeeder makes adminID a subscribed admin at boot. A zero id seeds nothing.
func AdminSeeder(adminID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc("subscription.admin", func(ctx context.Context, db *sqlx.DB) error {
		return seedAdmin(ctx, NewRepository(db), adminID)
	})
}

func seedAdmin(ctx context.Context, repo Repository, adminID int64) error {
	if adminID == 0 {
		logger.LogEvent(ctx, logger.SEED, slog.LevelDebug, "seed.admin", slog.String("status", "skip"))
		return nil
	}
	if err := repo.EnsureAdmin(ctx, adminID); err != nil {
		return err
	}
	logger.LogEvent(ctx, logger.SEED, slog.LevelInfo, "seed.admin",
		slog.String("status", "ok"),
		slog.Int64("user_id", adminID),
	)
	return nil
}
