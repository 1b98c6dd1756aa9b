package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		what     any
		action   string
		endpoint string
	}{
		{"hi", "send.text", "sendMessage"},
		{&tele.Photo{}, "send.photo", "sendPhoto"},
		{&tele.Video{}, "send.video", "sendVideo"},
		{&tele.Audio{}, "send.audio", "sendAudio"},
		{42, "send.other", ""},
	}
	for _, tc := range cases {
		action, endpoint := describe(tc.what)
		assert.Equal(t, tc.action, action)
		assert.Equal(t, tc.endpoint, endpoint)
	}
}
