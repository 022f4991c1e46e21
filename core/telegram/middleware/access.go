package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/weatherbot/core/logger"
	tghelpers "github.com/m3rciful/weatherbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker reports whether userID may run admin-only commands.
type AdminChecker func(ctx context.Context, userID int64) (bool, error)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	IsAdmin  AdminChecker
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware runs next only for admins. A nil checker rejects
// everyone; checker errors are returned to the caller.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			allowed := false
			if user != nil && opts.IsAdmin != nil {
				ok, err := opts.IsAdmin(tghelpers.BuildContext(c), user.ID)
				if err != nil {
					return err
				}
				allowed = ok
			}
			if allowed {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelWarn, "access.denied",
				slog.String("cause", "admin_only"),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
