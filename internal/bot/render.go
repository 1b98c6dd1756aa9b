package bot

import (
	"errors"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pixabot/core/logger"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"
	"github.com/m3rciful/pixabot/core/telegram/keyboard"
	"github.com/m3rciful/pixabot/internal/session"
	"github.com/m3rciful/pixabot/internal/view"
)

// Telegram limits, counted in characters.
const (
	maxTextRunes    = 4096
	maxCaptionRunes = 1024
)

// render answers the pressed button, if any, and delivers every message.
// A failed message does not stop the ones after it.
func render(c tele.Context, msgs []view.Message) error {
	if c.Callback() != nil {
		answerCallback(c, msgs)
	}
	var errs []error
	for _, m := range msgs {
		if err := renderOne(c, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// answerCallback stops the client spinner with the first notice found.
func answerCallback(c tele.Context, msgs []view.Message) {
	resp := &tele.CallbackResponse{}
	for _, m := range msgs {
		if m.Notice != "" {
			resp.Text, resp.ShowAlert = m.Notice, m.Alert
			break
		}
	}
	if err := c.Respond(resp); err != nil {
		logger.Debug(tghelpers.BuildContext(c), "tg", "callback.answer_failed", slog.String("err", err.Error()))
	}
}

func renderOne(c tele.Context, m view.Message) error {
	if m.Text == "" && !m.HasMedia() {
		return nil
	}
	if m.Code != "" {
		logger.Debug(tghelpers.BuildContext(c), "tg", "reply.failure", slog.String("code", string(m.Code)))
	}
	opts := &tele.SendOptions{ReplyMarkup: markup(m.Rows), DisableWebPagePreview: true}
	if m.HasMedia() {
		return sendMedia(c, m, opts)
	}
	text := truncate(m.Text, maxTextRunes)
	if m.Edit {
		return tghelpers.EditOrSend(c, text, opts)
	}
	return tghelpers.Send(c, text, opts)
}

// sendMedia runs synchronously so a file Telegram refuses to fetch can
// still reach the user as a text message with the link.
func sendMedia(c tele.Context, m view.Message, opts *tele.SendOptions) error {
	media := mediaOf(m)
	ctx := tghelpers.BuildContext(c)

	if m.Edit && c.Callback() != nil && c.Callback().Message != nil {
		err := c.Edit(media, opts)
		if err == nil || errors.Is(err, tele.ErrSameMessageContent) {
			return nil
		}
		logger.Debug(ctx, "tg", "edit_media.fallback_send", slog.String("err", err.Error()))
	}

	err := c.Send(media, opts)
	if err == nil {
		return nil
	}
	logger.Warn(ctx, "tg", "media.fallback_text",
		slog.String("kind", string(m.MediaKind)),
		slog.String("err", err.Error()),
	)
	return tghelpers.SendText(c, truncate(m.Text+"\n\n"+m.MediaURL, maxTextRunes), opts.ReplyMarkup)
}

func mediaOf(m view.Message) any {
	caption := truncate(m.Text, maxCaptionRunes)
	file := tele.FromURL(m.MediaURL)
	switch m.MediaKind {
	case session.KindVideo:
		return &tele.Video{File: file, Caption: caption}
	case session.KindAudio:
		return &tele.Audio{File: file, Caption: caption}
	}
	return &tele.Photo{File: file, Caption: caption}
}

// markup converts view rows to an inline keyboard; nil when there are none.
func markup(rows []view.Row) *tele.ReplyMarkup {
	btnRows := make([][]keyboard.InlineBtn, 0, len(rows))
	for _, row := range rows {
		btns := make([]keyboard.InlineBtn, 0, len(row))
		for _, b := range row {
			btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: b.Key, Data: b.Payload, URL: b.URL})
		}
		btnRows = append(btnRows, btns)
	}
	return keyboard.InlineButtonsRows(btnRows...)
}

// truncate cuts s to at most limit characters, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
