package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineButtonsRowsMixesLinksAndCallbacks(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "Join @a", URL: "https://t.me/a"}},
		nil,
		[]InlineBtn{{Text: "Verify", Unique: "verify"}, {Text: "Video", Unique: "filter", Data: "video"}},
	)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2, "empty rows are dropped")

	link := markup.InlineKeyboard[0][0]
	assert.Equal(t, "https://t.me/a", link.URL)
	assert.Empty(t, link.Data)

	video := markup.InlineKeyboard[1][1]
	assert.Equal(t, "filter", video.Unique)
	assert.Equal(t, "video", video.Data)
}

func TestInlineButtonsEmpty(t *testing.T) {
	assert.Nil(t, InlineButtonsRows())
	assert.Nil(t, InlineButtonsRows(nil, nil))
}
