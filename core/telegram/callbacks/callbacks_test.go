package callbacks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		data, unique, payload string
	}{
		{"\ffilter|video", "filter", "video"},
		{"\fnext", "next", ""},
		{"\fadmin|remove_channel", "admin", "remove_channel"},
		{"plain", "plain", ""},
		{"\fa|b|c", "a", "b|c"},
		{"", "", ""},
	}
	for _, tc := range cases {
		u, p := ParseCallbackData(&tele.Callback{Data: tc.data})
		assert.Equal(t, tc.unique, u, "%q", tc.data)
		assert.Equal(t, tc.payload, p, "%q", tc.data)
	}

	u, p := ParseCallbackData(nil)
	assert.Empty(t, u)
	assert.Empty(t, p)
}
