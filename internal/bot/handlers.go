package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/helpers"
	"github.com/m3rciful/weatherbot/core/telegram/keyboard"
	"github.com/m3rciful/weatherbot/internal/session"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) handleStart(c tele.Context) error {
	return b.serve(c, func(ctx context.Context, userID int64, now time.Time) (session.Result, error) {
		return b.conv.OnStart(ctx, userID, now)
	})
}

func (b *Bot) handleSubscribe(c tele.Context) error {
	return b.serve(c, func(ctx context.Context, userID int64, now time.Time) (session.Result, error) {
		return b.conv.OnSubscribe(ctx, userID, now)
	})
}

func (b *Bot) handleStats(c tele.Context) error {
	return b.serve(c, func(ctx context.Context, userID int64, _ time.Time) (session.Result, error) {
		return b.conv.OnStats(ctx, userID)
	})
}

func (b *Bot) handleText(c tele.Context) error {
	text := c.Text()
	return b.serve(c, func(ctx context.Context, userID int64, now time.Time) (session.Result, error) {
		return b.conv.OnText(ctx, userID, text, now)
	})
}

// serve runs one entry point and delivers its result. Replies are sent even
// when the entry point failed; the entry point error wins over send errors.
func (b *Bot) serve(c tele.Context, call func(context.Context, int64, time.Time) (session.Result, error)) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := helpers.BuildContext(c)
	res, err := call(ctx, user.ID, b.now())
	if sendErr := b.deliver(ctx, c, res); sendErr != nil && err == nil {
		err = sendErr
	}
	return err
}

// deliver sends the replies in order and arms the deferred reply only once
// the last of them has gone out.
func (b *Bot) deliver(ctx context.Context, c tele.Context, res session.Result) error {
	msgs := make([]helpers.Message, 0, len(res.Replies))
	for _, r := range res.Replies {
		msgs = append(msgs, message(r))
	}
	var after func()
	if d := res.Deferred; d != nil {
		later := message(d.Reply)
		after = func() {
			b.scheduler.AfterFunc(d.Delay, func() {
				if err := helpers.Send(c, nil, later); err != nil {
					logger.Warn(ctx, logger.CompSender, "send.deferred",
						slog.String("status", "fail"),
						slog.String("err", err.Error()),
					)
				}
			})
		}
	}
	return helpers.Send(c, after, msgs...)
}

func message(r session.Reply) helpers.Message {
	var markup *tele.ReplyMarkup
	switch {
	case len(r.Choices) > 0:
		markup = keyboard.OneTimeChoices(r.Choices...)
	case r.ClearChoices:
		markup = keyboard.RemoveKeyboard()
	}
	if r.Markdown {
		return helpers.Markdown(r.Text, markup)
	}
	return helpers.Plain(r.Text, markup)
}
