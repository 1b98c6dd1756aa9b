package logger

import (
	"log/slog"
	"strings"
	"time"
)

// levelName maps slog level strings to the upper-case names used in lines.
// slog renders in-between levels as "INFO+2"; those are kept as is.
func levelName(level string) string {
	switch strings.ToLower(level) {
	case "", "info":
		return "INFO"
	case "debug":
		return "DEBUG"
	case "warn", "warning":
		return "WARN"
	case "error":
		return "ERROR"
	}
	return strings.ToUpper(level)
}

// normalizeStatus lower-cases status values. Unknown statuses such as
// "not_ready" pass through.
func normalizeStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

var outcomes = map[string]bool{
	"ok":           true,
	"fail":         true,
	"cancelled":    true,
	"rate_limited": true,
}

// normalizeOutcome accepts only the known handler outcomes.
func normalizeOutcome(outcome string) (string, bool) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	return outcome, outcomes[outcome]
}

// defaultKeyOrder puts correlation data first, then the fields the bot
// components emit, then errors.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "update_id", "user_id", "chat_id", "chat_type",
	"handler", "op", "cb_key", "outcome", "duration_ms", "messages", "kb",
	"endpoint", "filter", "query", "lang", "total", "items", "cursor",
	"channel", "channels", "missing", "target_id",
	"broadcast_id", "recipients", "sent", "failed", "breaker",
	"mode", "listen", "public_url", "http_code",
	"db", "host", "port", "version",
	"err", "err_code", "retryable", "attempts", "backoff_ms", "repeats",
}

// Since returns the time elapsed from start at millisecond precision.
func Since(start time.Time) time.Duration { return wholeMS(time.Since(start)) }

// wholeMS clamps clock skew to zero before rounding.
func wholeMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// Preview renders a long list as a bounded attribute: the first limit
// values under key, the count under key_total, and key_truncated when
// values were cut. An empty list yields only the count.
func Preview(key string, values []string, limit int) []slog.Attr {
	attrs := []slog.Attr{slog.Int(key+"_total", len(values))}
	shown := values[:min(max(limit, 0), len(values))]
	if len(shown) > 0 {
		attrs = append(attrs, slog.String(key, strings.Join(shown, ", ")))
	}
	if len(shown) < len(values) {
		attrs = append(attrs, slog.Bool(key+"_truncated", true))
	}
	return attrs
}
