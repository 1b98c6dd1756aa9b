// Package commands describes slash commands independently of how they are
// routed.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	// AdminOnly commands are wrapped with the admin check and kept out of
	// the public menu.
	AdminOnly bool
	// Hidden commands work but are not published to the menu.
	Hidden  bool
	Aliases []string
}

// Valid reports whether the command can be registered.
func (c Command) Valid() bool {
	return c.Handler != nil && strings.TrimSpace(c.Description) != ""
}

// Public reports whether the command belongs in the public menu.
func (c Command) Public() bool { return !c.Hidden && !c.AdminOnly }

// Answers reports whether name, with or without its slash, is one of the
// command aliases.
func (c Command) Answers(name string) bool {
	name = strings.TrimPrefix(name, "/")
	for _, alias := range c.Aliases {
		if strings.EqualFold(strings.TrimPrefix(alias, "/"), name) {
			return true
		}
	}
	return false
}

// Normalize reduces typed text like "/Start@bot args" to "/start".
func Normalize(text string) string {
	name := strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexAny(name, " \n\t@"); i > 0 {
		name = name[:i]
	}
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}
