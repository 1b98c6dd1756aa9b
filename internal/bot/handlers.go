package bot

import (
	"context"
	"strings"
	"unicode"

	tele "gopkg.in/telebot.v4"

	coretelegram "github.com/m3rciful/pixabot/core/telegram"
	"github.com/m3rciful/pixabot/core/telegram/callbacks"
	"github.com/m3rciful/pixabot/core/telegram/commands"
	tghelpers "github.com/m3rciful/pixabot/core/telegram/helpers"
	"github.com/m3rciful/pixabot/internal/dispatch"
	"github.com/m3rciful/pixabot/internal/view"
)

// Handler turns one event into replies.
type Handler interface {
	Handle(ctx context.Context, ev dispatch.Event) []view.Message
}

// Register binds the bot commands, every button key and the text fallback
// to h.
func Register(reg *coretelegram.Registry, h Handler) error {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     commandHandler(h, "start"),
		Description: "Main menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     commandHandler(h, "help"),
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     commandHandler(h, "admin"),
		Description: "Admin panel",
		AdminOnly:   true,
		Hidden:      true,
	})
	reg.SetTextFallback(textHandler(h))
	return reg.RegisterCallbacks(dispatch.Keys, buttonHandler(h, reg.CallbackNotFound()))
}

func userOf(c tele.Context) (dispatch.User, bool) {
	s := c.Sender()
	if s == nil {
		return dispatch.User{}, false
	}
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		name = s.Username
	}
	return dispatch.User{ID: s.ID, DisplayName: name}, true
}

func commandHandler(h Handler, name string) tele.HandlerFunc {
	return func(c tele.Context) error {
		user, ok := userOf(c)
		if !ok {
			return nil
		}
		ev := dispatch.NewCommand(user, name, commandPayload(c))
		return render(c, h.Handle(tghelpers.BuildContext(c), ev))
	}
}

// commandPayload is the text after the command word. telebot fills Payload
// for direct command matches only; aliases reach here through the text route.
func commandPayload(c tele.Context) string {
	if msg := c.Message(); msg != nil && msg.Payload != "" {
		return msg.Payload
	}
	text := strings.TrimSpace(c.Text())
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(text[i:])
}

func buttonHandler(h Handler, notFound tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		user, ok := userOf(c)
		if !ok {
			return nil
		}
		action, err := dispatch.DecodeAction(callbacks.CallbackKey(c), callbacks.CallbackPayload(c))
		if err != nil {
			if notFound != nil {
				return notFound(c)
			}
			return err
		}
		ev := dispatch.Button{User: user, CallbackID: c.Callback().ID, Action: action}
		return render(c, h.Handle(tghelpers.BuildContext(c), ev))
	}
}

func textHandler(h Handler) tele.HandlerFunc {
	return func(c tele.Context) error {
		user, ok := userOf(c)
		if !ok {
			return nil
		}
		ev := dispatch.Text{User: user, Text: c.Text()}
		return render(c, h.Handle(tghelpers.BuildContext(c), ev))
	}
}
