// Package router turns the registry into telebot routes and writes one
// summary log line per handled update.
package router

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/pixabot/core/logger"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"
	"github.com/m3rciful/pixabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// summary describes one handler invocation for the handler.handled line.
// Empty status and outcome are derived from the handler error.
type summary struct {
	handler string
	start   time.Time
	status  string
	outcome string
	extras  []slog.Attr
}

func newSummary(handler string, extras ...slog.Attr) *summary {
	return &summary{handler: handler, start: time.Now(), extras: extras}
}

// run invokes fn with the handler name on the logging context and logs
// the result.
func (s *summary) run(c tele.Context, fn func() error) error {
	tghelpers.WithHandler(c, s.handler)
	err := fn()
	s.log(c, err)
	return err
}

func (s *summary) log(c tele.Context, err error) {
	result := "ok"
	if err != nil {
		result = "fail"
	}
	msgs, kb := middleware.GetCounters(c)
	attrs := []slog.Attr{
		slog.String("status", cmpOr(s.status, result)),
		slog.String("handler", s.handler),
		slog.String("outcome", cmpOr(s.outcome, result)),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", logger.Since(s.start).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", s.handler),
		)
	}
	logger.LogEvent(tghelpers.WithHandler(c, s.handler), logger.TG, slog.LevelInfo, "handler.handled",
		append(attrs, s.extras...)...)
}

func cmpOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// normalizeHandlerName turns "/Start" or "admin ban" into a log-friendly
// handler name.
func normalizeHandlerName(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "/")
	if name == "" {
		return "unknown"
	}
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// deriveErrorCode prefers an explicit Code() on the error chain and falls
// back to the dynamic type name of err.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if code := strings.TrimSpace(coded.Code()); code != "" {
			return upperSnake(code)
		}
	}
	name := fmt.Sprintf("%T", err)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return upperSnake(name)
}

func upperSnake(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
}
