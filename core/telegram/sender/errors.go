package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pixabot/core/netutil"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// retryable reports whether a failed call may succeed when repeated:
// transient network errors, flood control and upstream 5xx answers.
func retryable(err error) bool {
	var flood tele.FloodError
	return netutil.ShouldRetry(err) ||
		errors.As(err, &flood) ||
		netutil.ShouldRetryStatus(statusOf(err))
}

// retryDelay waits as long as flood control asks, and backs off linearly
// otherwise.
func (d *Dispatcher) retryDelay(err error, attempt int) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return d.opts.RetryBackoff * time.Duration(attempt)
}

// classifyError buckets err for the err_code log field.
func classifyError(err error) string {
	if err == nil {
		return ""
	}
	var (
		dnsErr   *net.DNSError
		opErr    *net.OpError
		netErr   net.Error
		alertErr tls.AlertError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &alertErr):
		return "tls"
	}
	switch status := statusOf(err); {
	case status == http.StatusTooManyRequests:
		return "flood"
	case status >= 500:
		return "http_5xx"
	case status >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// redact keeps bot tokens out of logged error messages; telebot includes
// the request URL in transport errors.
func redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

// statusOf extracts the HTTP-like code of a Bot API error. telebot renders
// unknown API errors as "telegram: <description> (<code>)".
func statusOf(err error) int {
	if err == nil {
		return 0
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return http.StatusTooManyRequests
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Code
	}
	msg := err.Error()
	open, end := strings.LastIndex(msg, "("), strings.LastIndex(msg, ")")
	if open < 0 || end <= open+1 {
		return 0
	}
	code, convErr := strconv.Atoi(strings.TrimSpace(msg[open+1 : end]))
	if convErr != nil {
		return 0
	}
	return code
}
