package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware catches handler panics and logs them.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return RecoverWithReply("")(next)
}

// RecoverWithReply is RecoverMiddleware that also sends reply to the chat
// after a panic. An empty reply sends nothing.
func RecoverWithReply(reply string) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := tghelpers.BuildContext(c)
				logger.LogEvent(ctx, logger.TG, slog.LevelError, "tg.panic",
					slog.String("err", fmt.Sprint(r)),
					slog.String("stack", string(debug.Stack())),
				)
				if reply != "" {
					_ = c.Send(reply)
				}
				err = fmt.Errorf("panic: %v", r)
			}()
			return next(c)
		}
	}
}
