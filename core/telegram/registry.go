package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// ErrInvalidCallback is returned for callback registrations without a key
// or handler.
var ErrInvalidCallback = errors.New("telegram: invalid callback registration")

// Registry collects what the bot answers to: slash commands, button uniques
// and a fallback for plain text. Commands are registered during wiring only;
// callbacks may be added later and are guarded.
type Registry struct {
	commands map[string]commands.Command

	mu        sync.RWMutex
	callbacks map[string]tele.HandlerFunc

	notFound tele.HandlerFunc
	text     tele.HandlerFunc
}

// NewRegistry returns an empty Registry whose unknown buttons are answered
// with a short notice, so the client stops its spinner.
func NewRegistry() *Registry {
	return &Registry{
		commands:  map[string]commands.Command{},
		callbacks: map[string]tele.HandlerFunc{},
		notFound: func(c tele.Context) error {
			return c.Respond(&tele.CallbackResponse{Text: "This button is no longer supported"})
		},
	}
}

func wireWarn(event string, attrs ...slog.Attr) {
	logger.LogEvent(context.Background(), logger.TWire, slog.LevelWarn, event, attrs...)
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Invalid and duplicate registrations are logged and ignored.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) {
	if r == nil {
		return
	}
	reason := ""
	switch _, dup := r.commands[name]; {
	case !cmd.Valid() || name == "":
		reason = "invalid"
	case !strings.HasPrefix(name, "/"):
		reason = "no_slash_prefix"
	case dup:
		reason = "duplicate"
	}
	if reason != "" {
		wireWarn("register.command.skip", slog.String("name", name), slog.String("reason", reason))
		return
	}
	r.commands[name] = cmd
}

// Commands exposes the registered commands keyed by slash name.
func (r *Registry) Commands() map[string]commands.Command { return r.commands }

// LookupCommand resolves typed text to a registered command, by name first
// and alias second. The canonical slash name is returned with it.
func (r *Registry) LookupCommand(text string) (string, commands.Command, bool) {
	name := commands.Normalize(text)
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		if cmd.Answers(name) {
			return key, cmd, true
		}
	}
	return "", commands.Command{}, false
}

// ListCommands builds the command menu sorted by name. With publicOnly the
// hidden and admin entries are left out.
func (r *Registry) ListCommands(publicOnly bool) []tele.Command {
	menu := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if publicOnly && !cmd.Public() {
			continue
		}
		menu = append(menu, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	slices.SortFunc(menu, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return menu
}

// RegisterCallback binds a button unique to handler.
func (r *Registry) RegisterCallback(key string, handler tele.HandlerFunc) error {
	if r == nil || key == "" || handler == nil {
		wireWarn("register.callback.skip", slog.String("key", key), slog.Bool("handler_nil", handler == nil))
		return ErrInvalidCallback
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.callbacks[key]; dup {
		return fmt.Errorf("telegram: callback %q already registered", key)
	}
	r.callbacks[key] = handler
	return nil
}

// RegisterCallbacks binds every key to the same handler and reports all
// failures together.
func (r *Registry) RegisterCallbacks(keys []string, handler tele.HandlerFunc) error {
	errs := make([]error, 0, len(keys))
	for _, key := range keys {
		errs = append(errs, r.RegisterCallback(key, handler))
	}
	return errors.Join(errs...)
}

// GetCallback returns the handler bound to key.
func (r *Registry) GetCallback(key string) (tele.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns the bound keys in sorted order.
func (r *Registry) ListCallbacks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetCallbackNotFound replaces the handler for unknown buttons. nil is ignored.
func (r *Registry) SetCallbackNotFound(h tele.HandlerFunc) {
	if h != nil {
		r.notFound = h
	}
}

// CallbackNotFound returns the handler for unknown buttons.
func (r *Registry) CallbackNotFound() tele.HandlerFunc { return r.notFound }

// SetTextFallback sets the handler for text that names no command.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) { r.text = h }

// TextFallback returns the handler for text that names no command.
func (r *Registry) TextFallback() tele.HandlerFunc { return r.text }

// SetupCommands publishes the public menu. A failure is logged only, the
// commands keep working without a menu.
func SetupCommands(bot *tele.Bot, reg *Registry) {
	menu := reg.ListCommands(true)
	ctx := context.Background()
	if err := bot.SetCommands(menu); err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelError, "register.commands.set_failed", slog.String("err", err.Error()))
		return
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "register.commands.set", slog.Int("commands", len(menu)))
}
