package logger

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
)

type ctxKey int

const (
	metaKey ctxKey = iota
	loggerKey
)

// Meta is the correlation data the handler adds to every line logged with
// a context. Zero fields are omitted.
type Meta struct {
	RID      string
	UpdateID int
	UserID   int64
	ChatID   int64
	Handler  string
}

// MetaFrom returns the correlation data stored in ctx.
func MetaFrom(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	m, _ := ctx.Value(metaKey).(Meta)
	return m
}

func update(ctx context.Context, set func(*Meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := MetaFrom(ctx)
	set(&m)
	return context.WithValue(ctx, metaKey, m)
}

// WithLogger makes log the logger FromContext returns. nil is ignored.
func WithLogger(ctx context.Context, log *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if log == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger stored by WithLogger, or L.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// WithRID sets the request id.
func WithRID(ctx context.Context, rid string) context.Context {
	return update(ctx, func(m *Meta) { m.RID = rid })
}

// RIDFrom returns the request id of ctx.
func RIDFrom(ctx context.Context) string { return MetaFrom(ctx).RID }

// WithUpdateMeta sets the ids of the update being handled.
func WithUpdateMeta(ctx context.Context, updateID int, userID, chatID int64) context.Context {
	return update(ctx, func(m *Meta) {
		m.UpdateID, m.UserID, m.ChatID = updateID, userID, chatID
	})
}

// WithUser sets only the user id, for work not tied to an update such as
// broadcast fan-out.
func WithUser(ctx context.Context, userID int64) context.Context {
	return update(ctx, func(m *Meta) { m.UserID = userID })
}

// WithHandler sets the handler name; an empty name leaves ctx unchanged.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		if ctx == nil {
			ctx = context.Background()
		}
		return ctx
	}
	return update(ctx, func(m *Meta) { m.Handler = handler })
}

// Sanitize drops control and format runes, tab and newline excepted, so
// user text cannot break log lines.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLimit is Sanitize cut to at most max runes.
func SanitizeLimit(s string, max int) string {
	if max <= 0 {
		return ""
	}
	s = Sanitize(s)
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// BuildRID formats a request id as update:chat:user.
func BuildRID(updateID int, chatID, userID int64) string {
	return strconv.Itoa(updateID) + ":" + strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

// CompactRID rewrites an update:chat:user id as base36 segments joined by
// dots. Anything else is returned unchanged.
func CompactRID(rid string) string {
	rid = strings.TrimSpace(rid)
	parts := strings.Split(rid, ":")
	if len(parts) != 3 {
		return rid
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return rid
		}
		out[i] = strconv.FormatInt(n, 36)
	}
	return strings.Join(out, ".")
}
