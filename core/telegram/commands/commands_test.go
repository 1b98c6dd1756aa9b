package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/start", Normalize("/Start@pixabot"))
	assert.Equal(t, "/admin", Normalize(" /admin ban 5"))
	assert.Equal(t, "/help", Normalize("help"))
}

func TestCommandFlags(t *testing.T) {
	h := func(tele.Context) error { return nil }
	cmd := Command{Handler: h, Description: "Admin", AdminOnly: true, Aliases: []string{"panel", "/ops"}}
	assert.True(t, cmd.Valid())
	assert.False(t, cmd.Public())
	assert.True(t, cmd.Answers("/PANEL"))
	assert.True(t, cmd.Answers("ops"))
	assert.False(t, cmd.Answers("/admin"))
	assert.False(t, Command{Handler: h}.Valid())
}
