package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/weatherbot/core/logger"
	"github.com/m3rciful/weatherbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
// Nil switches helpers back to synchronous sends.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func sendAsync(c tele.Context, action string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, "sendMessage", run)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, logger.CompSender, "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	default:
		return err
	}
}

// Message is one outbound chat message.
type Message struct {
	Text string
	Opts *tele.SendOptions
}

// Plain builds a plain text message. markup may be nil.
func Plain(text string, markup *tele.ReplyMarkup) Message {
	if markup == nil {
		return Message{Text: text}
	}
	return Message{Text: text, Opts: &tele.SendOptions{ReplyMarkup: markup}}
}

// Markdown builds a legacy Markdown message. markup may be nil.
func Markdown(text string, markup *tele.ReplyMarkup) Message {
	return Message{Text: text, Opts: &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: markup}}
}

// Send delivers msgs to the current chat as a single job, so they arrive in
// the given order. after, when not nil, runs once the last message is out;
// it does not run if a send fails. A retried job resumes at the message that
// failed instead of repeating the ones already delivered.
func Send(c tele.Context, after func(), msgs ...Message) error {
	if len(msgs) == 0 {
		if after != nil {
			after()
		}
		return nil
	}
	action := "send.text"
	if len(msgs) > 1 {
		action = "send.batch"
	}
	next := 0
	return sendAsync(c, action, func() error {
		for next < len(msgs) {
			m := msgs[next]
			var err error
			if m.Opts != nil {
				err = c.Send(m.Text, m.Opts)
			} else {
				err = c.Send(m.Text)
			}
			if err != nil {
				return err
			}
			next++
		}
		if after != nil {
			after()
		}
		return nil
	})
}
