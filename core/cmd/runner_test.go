package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type app struct{ opts coretelegram.RunOptions }

func (a app) TelegramRunOptions() (coretelegram.RunOptions, error) { return a.opts, nil }

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	t.Setenv("WB_CONFIG", "")
	assert.Equal(t, existing, resolveConfigPath(Options{ConfigEnvVar: "WB_CONFIG", DefaultConfigPath: existing}))
	assert.Equal(t, "", resolveConfigPath(Options{ConfigEnvVar: "WB_CONFIG", DefaultConfigPath: filepath.Join(dir, "missing.yaml")}))

	t.Setenv("WB_CONFIG", "/etc/bot.yaml")
	assert.Equal(t, "/etc/bot.yaml", resolveConfigPath(Options{ConfigEnvVar: "WB_CONFIG"}))
}

func TestRunLoadsEnvFileAndWrapsHooks(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("WB_RUNNER_PROBE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("WB_RUNNER_PROBE") })

	var started, stopped bool
	err := Run(Options{
		ConfigEnvVar: "WB_RUNNER_CONFIG",
		EnvFiles:     []string{envFile, filepath.Join(dir, "absent.env")},
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "", path)
			assert.Equal(t, "loaded", os.Getenv("WB_RUNNER_PROBE"))
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) {
			return app{opts: coretelegram.RunOptions{
				OnStart: func(context.Context, coretelegram.Runtime) error { started = true; return nil },
				OnStop:  func(context.Context, coretelegram.Runtime) error { stopped = true; return nil },
			}}, nil
		},
		ShutdownLogger: func() error { return nil },
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.True(t, started)
	assert.True(t, stopped)
}

func TestRunRequiresHooks(t *testing.T) {
	assert.Error(t, Run(Options{}))
}
