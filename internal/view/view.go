// Package view describes outgoing messages without tying them to a chat
// transport. The Telegram adapter turns them into sends or edits.
package view

import (
	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/session"
)

// Button is either a callback button (Key and Payload) or a link (URL).
type Button struct {
	Text    string
	Key     string
	Payload string
	URL     string
}

// Row is one line of inline buttons.
type Row []Button

// Message is one reply to the user who triggered the event.
type Message struct {
	Text string
	// MediaKind and MediaURL attach a photo, video or audio file; Text
	// becomes the caption.
	MediaKind session.MediaKind
	MediaURL  string
	Rows      []Row
	// Edit replaces the message that carried the pressed button instead of
	// sending a new one.
	Edit bool
	// Notice is the short callback answer shown for button presses.
	Notice string
	Alert  bool
	// Code marks the error kind behind a failure reply, for logging.
	Code apperr.Kind
}

// HasMedia reports whether the message carries a file.
func (m Message) HasMedia() bool { return m.MediaURL != "" }

// Text builds a plain text message.
func Text(text string, rows ...Row) Message {
	return Message{Text: text, Rows: rows}
}

// Failure builds a text reply tagged with an error kind.
func Failure(kind apperr.Kind, text string, rows ...Row) Message {
	return Message{Text: text, Rows: rows, Code: kind}
}

// Chunk lays buttons out n per row.
func Chunk(buttons []Button, n int) []Row {
	if n <= 0 {
		n = 1
	}
	var rows []Row
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, Row(buttons[i:end]))
	}
	return rows
}
