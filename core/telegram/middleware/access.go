package middleware

import (
	"log/slog"

	"github.com/m3rciful/pixabot/core/logger"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions configures AdminOnlyMiddleware.
type AdminOptions struct {
	AdminID int64
	// OnReject answers rejected updates; nil stays silent.
	OnReject tele.HandlerFunc
}

// IsAdmin reports whether the sender of c is the configured admin. An unset
// admin id matches nobody.
func (o AdminOptions) IsAdmin(c tele.Context) bool {
	u := c.Sender()
	return o.AdminID != 0 && u != nil && u.ID == o.AdminID
}

// AdminOnlyMiddleware lets only the configured admin reach next.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.IsAdmin(c) {
				return next(c)
			}
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelDebug, "access.denied",
				slog.String("status", "skip"),
			)
			if opts.OnReject == nil {
				return nil
			}
			return opts.OnReject(c)
		}
	}
}
