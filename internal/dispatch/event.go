package dispatch

import "strings"

// User identifies who triggered an event.
type User struct {
	ID          int64
	DisplayName string
}

// Event is the closed set of inbound updates the dispatcher routes.
type Event interface {
	Actor() User
	event()
}

// Command is a slash command such as /start or /admin ban 42.
type Command struct {
	User User
	// Name is the command without the slash, lower case.
	Name string
	// Payload is the raw text after the command; Args is Payload split on whitespace.
	Payload string
	Args    []string
}

// Button is a press on an inline keyboard button.
type Button struct {
	User       User
	CallbackID string
	Action     Action
}

// Text is a plain message that is not a command.
type Text struct {
	User User
	Text string
}

func (e Command) Actor() User { return e.User }
func (e Button) Actor() User  { return e.User }
func (e Text) Actor() User    { return e.User }

func (Command) event() {}
func (Button) event()  {}
func (Text) event()    {}

// NewCommand builds a Command from its name and raw payload.
func NewCommand(user User, name, payload string) Command {
	payload = strings.TrimSpace(payload)
	return Command{
		User:    user,
		Name:    strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "/")),
		Payload: payload,
		Args:    strings.Fields(payload),
	}
}

// cutWord splits s into its first word and the trimmed remainder.
func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t\n")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i+1:])
}
