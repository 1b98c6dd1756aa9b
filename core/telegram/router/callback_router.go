package router

import (
	"log/slog"

	tg "github.com/m3rciful/pixabot/core/telegram"
	"github.com/m3rciful/pixabot/core/telegram/callbacks"
	"github.com/m3rciful/pixabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns the single OnCallback route that dispatches button
// presses to the handler registered for their unique. Handlers answer the
// callback themselves.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		if c.Callback() == nil {
			return nil
		}

		key, _ := callbacks.ParseCallbackData(c.Callback())
		s := newSummary("callback."+normalizeHandlerName(key), slog.String("cb_key", key))

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			s.status = "skip"
			s.extras = append(s.extras, slog.String("reason", "not_found"))
			fallback := reg.CallbackNotFound()
			return s.run(c, func() error {
				if fallback == nil {
					return c.Respond()
				}
				return fallback(c)
			})
		}
		return s.run(c, func() error { return cbHandler(c) })
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  wrap(handler),
	}
}

// wrap applies recover and receipt logging per route; both are idempotent
// next to the global chain.
func wrap(h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.RecoverMiddleware(middleware.LoggerMiddleware(h))
}
