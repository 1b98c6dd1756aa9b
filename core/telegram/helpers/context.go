package helpers

import (
	"context"

	"github.com/m3rciful/pixabot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys under which per-update values live in tele.Context.
const (
	ctxKey = "logger_ctx"
	ridKey = "rid"
)

// UpdateIDs returns the update, chat and sender ids of c; absent parts are 0.
func UpdateIDs(c tele.Context) (updateID int, chatID, userID int64) {
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return c.Update().ID, chatID, userID
}

// NewUpdateContext derives a fresh logging context for c, stores it along
// with its request id and returns both.
func NewUpdateContext(c tele.Context) (context.Context, string) {
	updateID, chatID, userID := UpdateIDs(c)
	rid, _ := c.Get(ridKey).(string)
	if rid == "" {
		rid = logger.BuildRID(updateID, chatID, userID)
		c.Set(ridKey, rid)
	}
	ctx := logger.WithUpdateMeta(logger.WithRID(logger.Background(), rid), updateID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.TG)
	StoreContext(c, ctx)
	return ctx, rid
}

// StoreContext keeps ctx on c for later helpers. nil values are ignored.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context stored on c, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// BuildContext returns the stored context of c, creating it on first use.
func BuildContext(c tele.Context) context.Context {
	if ctx, ok := ContextFrom(c); ok {
		return ctx
	}
	ctx, _ := NewUpdateContext(c)
	return ctx
}

// WithHandler tags the update context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler != "" {
		ctx = logger.WithHandler(ctx, handler)
		StoreContext(c, ctx)
	}
	return ctx
}
