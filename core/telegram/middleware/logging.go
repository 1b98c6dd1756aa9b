// Package middleware holds the telebot middleware shared by every route.
package middleware

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seen holds update ids whose receipt line was written. Routes wrap the
// middleware again, so the same update can pass through it twice.
var seen = cache.New(10*time.Second, time.Minute)

func alreadyLogged(updateID int) bool {
	return seen.Add(strconv.Itoa(updateID), struct{}{}, cache.DefaultExpiration) != nil
}

// LoggerMiddleware starts the per-update logging context and, when debug
// sampling allows, writes one update.received line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, rid := tghelpers.NewUpdateContext(c)
		if logger.ShouldSampleDebug() && !alreadyLogged(c.Update().ID) {
			logReceipt(ctx, c, rid)
		}
		return next(c)
	}
}

func logReceipt(ctx context.Context, c tele.Context, rid string) {
	updateID, chatID, userID := tghelpers.UpdateIDs(c)
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", rid),
		slog.Int("update_id", updateID),
	}
	if chatID != 0 {
		attrs = append(attrs, slog.Int64("chat_id", chatID), slog.String("chat_type", string(c.Chat().Type)))
	}
	if u := c.Sender(); userID != 0 {
		attrs = append(attrs, slog.Int64("user_id", userID))
		if u.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
		}
		if u.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", u.LanguageCode))
		}
	}
	attrs = append(attrs, payloadAttrs(c)...)
	logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
}

// payloadAttrs describes what the user sent: the button key and payload
// for callbacks, the text for messages.
func payloadAttrs(c tele.Context) []slog.Attr {
	if cb := c.Callback(); cb != nil {
		var out []slog.Attr
		key, payload := callbacks.ParseCallbackData(cb)
		if key != "" {
			out = append(out, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			out = append(out, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
		return out
	}
	if c.Message() != nil && c.Text() != "" {
		return []slog.Attr{slog.String("payload", logger.SanitizeLimit(c.Text(), 256))}
	}
	return nil
}
