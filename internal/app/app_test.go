package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/weatherbot/internal/bot"
	"github.com/m3rciful/weatherbot/internal/config"
	"github.com/m3rciful/weatherbot/internal/weather"
)

func TestBuildSourceWithoutCache(t *testing.T) {
	cfg := &config.Config{Weather: config.WeatherConfig{APIKey: "k", Timeout: time.Second}}
	src, closer := buildSource(context.Background(), cfg)
	assert.IsType(t, &weather.Client{}, src)
	assert.Nil(t, closer)
}

func TestBuildSourceSkipsUnreachableRedis(t *testing.T) {
	cfg := &config.Config{
		Weather: config.WeatherConfig{APIKey: "k"},
		Cache:   config.CacheConfig{RedisURL: "redis://127.0.0.1:1/0", TTL: time.Minute},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	src, closer := buildSource(ctx, cfg)
	assert.IsType(t, &weather.Client{}, src)
	assert.Nil(t, closer)
}

func TestCloseAllRunsInReverseAndJoins(t *testing.T) {
	var order []string
	hook := func(name string, err error) bot.Hook {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}
	dbErr := errors.New("db")
	err := closeAll(context.Background(), []bot.Hook{
		hook("db", dbErr),
		hook("cache", nil),
	})
	assert.Equal(t, []string{"cache", "db"}, order)
	assert.ErrorIs(t, err, dbErr)
	assert.NoError(t, closeAll(context.Background(), nil))
}
