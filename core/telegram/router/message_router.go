package router

import (
	"strings"

	tg "github.com/m3rciful/pixabot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// TextOptions controls fallback behaviour for text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoute handles plain text. A registered command or alias typed as
// text runs that command; other text goes to the registry fallback, then
// to UnknownText. Text nobody handles is logged as skipped.
func TextRoute(reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		name, h := textTarget(reg, c.Text())
		if h == nil {
			h = opts.UnknownText
		}
		if h == nil {
			s := newSummary(name)
			s.status, s.outcome = "skip", "ok"
			s.log(c, nil)
			return nil
		}
		return newSummary(name).run(c, func() error { return h(c) })
	}
	return tg.Route{Endpoint: tele.OnText, Handler: wrap(handler)}
}

// textTarget picks the handler for text and its summary name.
func textTarget(reg *tg.Registry, text string) (string, tele.HandlerFunc) {
	if reg == nil {
		return "unknown_text", nil
	}
	if len(text) > 1 && strings.HasPrefix(text, "/") {
		if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
			return normalizeHandlerName(key), cmd.Handler
		}
	}
	if fb := reg.TextFallback(); fb != nil {
		return "text", fb
	}
	return "unknown_text", nil
}
