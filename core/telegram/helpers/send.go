package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, "tg.sender", "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// Send delivers text or a media value to the current chat, through the
// outbound dispatcher when one is wired.
func Send(c tele.Context, what any, opts *tele.SendOptions) error {
	action, endpoint := describe(what)
	return sendAsync(c, action, endpoint, func() error {
		if opts != nil {
			return c.Send(what, opts)
		}
		return c.Send(what)
	})
}

// SendText sends raw text (no parse mode) with an optional keyboard.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	return Send(c, text, &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true})
}

// EditOrSend edits the message that carried the pressed button and falls
// back to a new message when Telegram refuses the edit, for example when a
// text message would turn into a photo. An unchanged message is not an error.
func EditOrSend(c tele.Context, what any, opts *tele.SendOptions) error {
	if c.Callback() == nil || c.Callback().Message == nil {
		return Send(c, what, opts)
	}
	err := c.Edit(what, opts)
	if err == nil || errors.Is(err, tele.ErrSameMessageContent) {
		return nil
	}
	logger.Debug(BuildContext(c), "tg", "edit.fallback_send", slog.String("err", err.Error()))
	return Send(c, what, opts)
}

func describe(what any) (action, endpoint string) {
	switch what.(type) {
	case string:
		return "send.text", "sendMessage"
	case *tele.Photo:
		return "send.photo", "sendPhoto"
	case *tele.Video:
		return "send.video", "sendVideo"
	case *tele.Audio:
		return "send.audio", "sendAudio"
	}
	return "send.other", ""
}
