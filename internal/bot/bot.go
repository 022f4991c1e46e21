// Package bot connects the conversation service to the Telegram runtime:
// it registers commands, turns updates into service calls and sends the
// resulting replies.
package bot

import (
	"context"
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/weatherbot/core/config"
	coretelegram "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/commands"
	"github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/router"
	tgsender "github.com/m3rciful/weatherbot/core/telegram/sender"
	"github.com/m3rciful/weatherbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

// Conversation is the session service as used by the handlers.
type Conversation interface {
	OnStart(ctx context.Context, userID int64, now time.Time) (session.Result, error)
	OnSubscribe(ctx context.Context, userID int64, now time.Time) (session.Result, error)
	OnText(ctx context.Context, userID int64, text string, now time.Time) (session.Result, error)
	OnStats(ctx context.Context, userID int64) (session.Result, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// Hook runs when the Telegram runtime starts or stops.
type Hook func(ctx context.Context) error

// Options wires a Bot.
type Options struct {
	Config       *coreconfig.Config
	Conversation Conversation
	// Scheduler delivers deferred replies; nil uses time.AfterFunc.
	Scheduler  Scheduler
	Dispatcher tgsender.Options
	OnStart    []Hook
	OnStop     []Hook
	Now        func() time.Time
}

// Bot owns the command registry and the update handlers.
type Bot struct {
	cfg       *coreconfig.Config
	conv      Conversation
	scheduler Scheduler
	dispatch  tgsender.Options
	onStart   []Hook
	onStop    []Hook
	now       func() time.Time
	registry  *coretelegram.Registry
}

// New validates opts and registers the bot commands.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bot: config is required")
	}
	if opts.Conversation == nil {
		return nil, fmt.Errorf("bot: conversation is required")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	b := &Bot{
		cfg:       opts.Config,
		conv:      opts.Conversation,
		scheduler: opts.Scheduler,
		dispatch:  opts.Dispatcher,
		onStart:   opts.OnStart,
		onStop:    opts.OnStop,
		now:       opts.Now,
		registry:  coretelegram.NewRegistry(),
	}
	b.register()
	return b, nil
}

// Registry exposes the registered commands.
func (b *Bot) Registry() *coretelegram.Registry {
	return b.registry
}

func (b *Bot) register() {
	b.registry.RegisterCommand("/start", commands.Command{
		Handler:     b.handleStart,
		Description: "Start a weather conversation",
	})
	b.registry.RegisterCommand("/subscribe", commands.Command{
		Handler:     b.handleSubscribe,
		Description: "Subscribe to the weather bot",
	})
	b.registry.RegisterCommand("/stats", commands.Command{
		Handler:     b.handleStats,
		Description: "Subscriber statistics",
		AdminOnly:   true,
		Hidden:      true,
	})
	b.registry.SetTextFallback(b.handleText)
}

// TelegramRunOptions builds the runtime options: global middlewares,
// command and text routes, and the lifecycle hooks.
func (b *Bot) TelegramRunOptions() (coretelegram.RunOptions, error) {
	routes := router.CommandRoutes(b.registry, router.CommandRouteOptions{
		IsAdmin: b.conv.IsAdmin,
		OnAdminReject: func(c tele.Context) error {
			return helpers.Send(c, nil, message(session.Reply{Text: session.TextNotAllowed}))
		},
	})
	routes = append(routes, router.TextRoutes(b.registry, router.TextOptions{})...)

	return coretelegram.RunOptions{
		Config:            b.cfg,
		Registry:          b.registry,
		DispatcherOptions: b.dispatch,
		Middlewares: coretelegram.DefaultMiddlewares(b.cfg, coretelegram.MiddlewareOptions{
			PanicReply: session.TextStoreFailure,
		}),
		Routes: routes,
		OnStart: func(ctx context.Context, _ coretelegram.Runtime) error {
			return runHooks(ctx, b.onStart)
		},
		OnStop: func(ctx context.Context, _ coretelegram.Runtime) error {
			return runHooks(ctx, b.onStop)
		},
	}, nil
}

func runHooks(ctx context.Context, hooks []Hook) error {
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}
