package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pixabot/core/telegram/commands"
)

func noop(tele.Context) error { return nil }

func TestRegisterAndLookupCommands(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "Main menu"})
	reg.RegisterCommand("/admin", commands.Command{Handler: noop, Description: "Admin", AdminOnly: true, Aliases: []string{"panel"}})
	reg.RegisterCommand("help", commands.Command{Handler: noop, Description: "no slash"})
	reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "duplicate"})

	assert.Len(t, reg.Commands(), 2)
	assert.Equal(t, "Main menu", reg.Commands()["/start"].Description)

	key, _, ok := reg.LookupCommand("/panel ban 5")
	require.True(t, ok)
	assert.Equal(t, "/admin", key)

	key, _, ok = reg.LookupCommand("/START@pixabot")
	require.True(t, ok)
	assert.Equal(t, "/start", key)

	_, _, ok = reg.LookupCommand("/nope")
	assert.False(t, ok)

	visible := reg.ListCommands(true)
	require.Len(t, visible, 1)
	assert.Equal(t, "start", visible[0].Text)
}

func TestRegisterCallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterCallbacks([]string{"next", "prev"}, noop))
	assert.Error(t, reg.RegisterCallbacks([]string{"next", "select"}, noop), "duplicate is reported")
	assert.Equal(t, []string{"next", "prev", "select"}, reg.ListCallbacks())

	_, ok := reg.GetCallback("prev")
	assert.True(t, ok)
	assert.Error(t, reg.RegisterCallback("", noop))
}

func TestFallbacks(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg.CallbackNotFound())
	reg.SetCallbackNotFound(nil)
	assert.NotNil(t, reg.CallbackNotFound(), "nil keeps the default")

	assert.Nil(t, reg.TextFallback())
	reg.SetTextFallback(noop)
	assert.NotNil(t, reg.TextFallback())
	assert.ErrorIs(t, reg.RegisterCallback("x", nil), ErrInvalidCallback)
}
