// Package callbacks decodes the callback data telebot attaches to inline buttons.
package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits telebot's "\f<unique>|<payload>" encoding.
// Data without the form feed prefix is treated as a bare unique.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	return Split(cb.Data)
}

// Split decodes raw callback data into unique and payload.
func Split(raw string) (string, string) {
	raw = strings.TrimPrefix(raw, "\f")
	unique, payload, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(unique), payload
}

// CallbackKey returns cb.Unique when telebot already resolved it, otherwise
// the unique parsed from Data.
func CallbackKey(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Unique
	}
	k, _ := ParseCallbackData(cb)
	return k
}

// CallbackPayload returns the payload of the pressed button. Generic
// OnCallback handlers see the full data, so it is always parsed from Data
// unless telebot already split it.
func CallbackPayload(c tele.Context) string {
	cb := c.Callback()
	if cb == nil {
		return ""
	}
	if cb.Unique != "" {
		return cb.Data
	}
	_, payload := ParseCallbackData(cb)
	return payload
}
