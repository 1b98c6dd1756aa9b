package telegram

import (
	"net/http"
	"time"

	"github.com/m3rciful/pixabot/core/netutil"
)

// BuildHTTPClient returns an HTTP client tuned for Telegram API calls.
// Long polling keeps a request open for the whole poll interval, so the
// header and client timeouts are stretched past it.
func BuildHTTPClient(pollTimeoutSeconds int) *http.Client {
	poll := defaultPollTimeout
	if pollTimeoutSeconds > 0 {
		poll = time.Duration(pollTimeoutSeconds) * time.Second
	}
	return netutil.NewClient(netutil.ClientOptions{
		ResponseTimeout: poll + 5*time.Second,
		Timeout:         poll + 20*time.Second,
	})
}
