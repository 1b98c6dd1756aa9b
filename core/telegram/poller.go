package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/pixabot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollTimeout = 10 * time.Second

// WebhookOptions is where the webhook listener binds and what Telegram calls.
type WebhookOptions struct {
	Listen string
	Port   int
	URL    string
}

// PollerOptions selects the update source.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	Webhook                WebhookOptions
}

// UseWebhook reports whether the options select the webhook listener.
func (o PollerOptions) UseWebhook() bool {
	return strings.EqualFold(strings.TrimSpace(o.RunMode), coreconfig.RunModeWebhook)
}

// BuildPoller returns a webhook listener for the webhook run mode and a
// long poller otherwise.
func BuildPoller(opts PollerOptions) tele.Poller {
	if opts.UseWebhook() {
		return &tele.Webhook{
			Listen:   net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint: &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
		}
	}
	timeout := defaultPollTimeout
	if opts.LongPollTimeoutSeconds > 0 {
		timeout = time.Duration(opts.LongPollTimeoutSeconds) * time.Second
	}
	return &tele.LongPoller{Timeout: timeout}
}
