package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/pixabot/core/logger"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware converts a handler panic into an error, so one broken
// update cannot take the poller down.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			err = fmt.Errorf("telegram: handler panic: %v", r)
			logger.LogEvent(tghelpers.BuildContext(c), logger.TG, slog.LevelError, "tg.panic",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
				slog.String("stack", string(debug.Stack())),
			)
		}()
		return next(c)
	}
}
