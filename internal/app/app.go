// Package app assembles the weather bot from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/weatherbot/core/bootstrap"
	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/internal/bot"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/internal/health"
	"github.com/m3rciful/weatherbot/internal/session"
	"github.com/m3rciful/weatherbot/internal/subscription"
	"github.com/m3rciful/weatherbot/internal/weather"
	"github.com/m3rciful/weatherbot/migrations"
)

// Bootstrap prepares infrastructure (logger, database, migrations, admin
// seed, optional Redis) and returns a bot ready to run. Resources are
// released by the bot's stop hooks.
func Bootstrap(ctx context.Context, cfg *config.Config) (*bot.Bot, error) {
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     cfg.CoreConfig(),
		Database:   cfg.Database,
		Migrations: migrations.FS,
		Seeders:    []bootstrap.Seeder{subscription.AdminSeeder(cfg.Telegram.AdminID)},
	})
	if err != nil {
		return nil, err
	}

	// release holds the stop hooks in the order they are acquired.
	release := []bot.Hook{func(context.Context) error { return res.DB.Close() }}
	fail := func(err error) (*bot.Bot, error) {
		if cerr := closeAll(ctx, release); cerr != nil {
			logger.Warn(ctx, logger.CompApp, "bootstrap.release",
				slog.String("status", "fail"),
				slog.String("err", cerr.Error()),
			)
		}
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Weather.Timezone)
	if err != nil {
		return fail(fmt.Errorf("app: %w", err))
	}

	source, closeCache := buildSource(ctx, cfg)
	if closeCache != nil {
		release = append(release, closeCache)
	}

	conv, err := session.NewService(session.Options{
		Subscriptions:     subscription.NewService(subscription.NewRepository(res.DB)),
		Forecaster:        weather.NewService(source, loc),
		Store:             state.NewMemoryStore(),
		InactivityTimeout: cfg.Session.InactivityTimeout,
		PromptDelay:       cfg.Session.PromptDelay,
		AdminID:           cfg.Telegram.AdminID,
	})
	if err != nil {
		return fail(err)
	}

	probes := health.NewServer(cfg.HTTP.Listen, res.DB)
	b, err := bot.New(bot.Options{
		Config:       cfg.CoreConfig(),
		Conversation: conv,
		OnStart:      []bot.Hook{probes.Start},
		OnStop:       []bot.Hook{probes.Stop, func(ctx context.Context) error { return closeAll(ctx, release) }},
	})
	if err != nil {
		return fail(err)
	}
	return b, nil
}

// closeAll runs hooks in reverse order and joins their errors.
func closeAll(ctx context.Context, hooks []bot.Hook) error {
	var errList []error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// buildSource returns the provider client, wrapped in the Redis cache when
// cache.redis_url is set. An unreachable Redis disables the cache.
func buildSource(ctx context.Context, cfg *config.Config) (weather.Source, bot.Hook) {
	client := weather.NewClient(weather.ClientOptions{
		APIKey:  cfg.Weather.APIKey,
		BaseURL: cfg.Weather.BaseURL,
		Timeout: cfg.Weather.Timeout,
		Backoff: weather.BackoffConfig{MaxRetries: cfg.Weather.Retries},
	})
	if cfg.Cache.RedisURL == "" {
		return client, nil
	}

	rdb, err := weather.DialRedis(ctx, cfg.Cache.RedisURL)
	if err != nil {
		logger.Warn(ctx, logger.CompWeather, "cache.connect",
			slog.String("status", "skip"),
			slog.String("err", err.Error()),
		)
		return client, nil
	}
	logger.Info(ctx, logger.CompWeather, "cache.connect",
		slog.String("status", "ok"),
		slog.Duration("ttl", cfg.Cache.TTL),
	)
	closeRedis := func(context.Context) error { return rdb.Close() }
	return weather.NewCachedSource(client, weather.NewRedisCache(rdb), cfg.Cache.TTL), closeRedis
}
