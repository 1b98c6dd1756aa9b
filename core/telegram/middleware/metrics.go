package middleware

import tele "gopkg.in/telebot.v4"

const statsKey = "reply_stats"

// replyStats counts the replies a handler produced.
type replyStats struct {
	messages int
	keyboard bool
}

// countingContext forwards every reply to the wrapped context and records
// the successful ones.
type countingContext struct {
	tele.Context
	stats *replyStats
}

func (c countingContext) count(err error, opts []any) error {
	if err != nil {
		return err
	}
	c.stats.messages++
	if !c.stats.keyboard {
		c.stats.keyboard = hasKeyboard(opts)
	}
	return nil
}

func (c countingContext) Send(what any, opts ...any) error {
	return c.count(c.Context.Send(what, opts...), opts)
}

func (c countingContext) Reply(what any, opts ...any) error {
	return c.count(c.Context.Reply(what, opts...), opts)
}

func (c countingContext) Edit(what any, opts ...any) error {
	return c.count(c.Context.Edit(what, opts...), opts)
}

func (c countingContext) EditOrSend(what any, opts ...any) error {
	return c.count(c.Context.EditOrSend(what, opts...), opts)
}

func (c countingContext) EditOrReply(what any, opts ...any) error {
	return c.count(c.Context.EditOrReply(what, opts...), opts)
}

// hasKeyboard reports whether the send options attach a reply markup.
func hasKeyboard(opts []any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v != nil
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		}
	}
	return false
}

// MessageMetricsMiddleware counts the replies a handler sends and whether
// any carried a keyboard. The router reads them back with GetCounters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		stats := &replyStats{}
		c.Set(statsKey, stats)
		return next(countingContext{Context: c, stats: stats})
	}
}

// GetCounters returns the reply count and keyboard flag recorded for c.
func GetCounters(c tele.Context) (messages int, keyboard bool) {
	if s, ok := c.Get(statsKey).(*replyStats); ok && s != nil {
		return s.messages, s.keyboard
	}
	return 0, false
}
