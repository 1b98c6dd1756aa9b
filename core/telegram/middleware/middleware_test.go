package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"
)

func newContext(t *testing.T, userID int64) tele.Context {
	t.Helper()
	b, err := tele.NewBot(tele.Settings{Offline: true})
	require.NoError(t, err)
	return b.NewContext(tele.Update{ID: 1, Message: &tele.Message{
		Sender: &tele.User{ID: userID},
		Chat:   &tele.Chat{ID: userID},
		Text:   "/admin",
	}})
}

func TestAlreadyLoggedOncePerUpdate(t *testing.T) {
	assert.False(t, alreadyLogged(4242))
	assert.True(t, alreadyLogged(4242))
	assert.False(t, alreadyLogged(4243))
}

func TestHasKeyboard(t *testing.T) {
	assert.False(t, hasKeyboard(nil))
	assert.False(t, hasKeyboard([]any{"text"}))
	assert.False(t, hasKeyboard([]any{&tele.SendOptions{}}))
	assert.True(t, hasKeyboard([]any{&tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}}))
	assert.True(t, hasKeyboard([]any{&tele.ReplyMarkup{}}))
}

func TestCountersStartAtZero(t *testing.T) {
	c := newContext(t, 1)
	msgs, kb := GetCounters(c)
	assert.Zero(t, msgs)
	assert.False(t, kb)

	var seen tele.Context
	require.NoError(t, MessageMetricsMiddleware(func(c tele.Context) error {
		seen = c
		return nil
	})(c))
	_, wrapped := seen.(countingContext)
	assert.True(t, wrapped)
}

func TestCountingContextRecordsSuccessOnly(t *testing.T) {
	stats := &replyStats{}
	cc := countingContext{stats: stats}
	assert.Error(t, cc.count(errors.New("send failed"), nil))
	assert.NoError(t, cc.count(nil, []any{"plain"}))
	assert.NoError(t, cc.count(nil, []any{&tele.ReplyMarkup{}}))
	assert.Equal(t, 2, stats.messages)
	assert.True(t, stats.keyboard)
}

func TestAdminOnly(t *testing.T) {
	var called, rejected int
	next := func(tele.Context) error { called++; return nil }
	reject := func(tele.Context) error { rejected++; return nil }

	mw := AdminOnlyMiddleware(AdminOptions{AdminID: 7, OnReject: reject})
	require.NoError(t, mw(next)(newContext(t, 7)))
	require.NoError(t, mw(next)(newContext(t, 8)))
	assert.Equal(t, 1, called)
	assert.Equal(t, 1, rejected)

	assert.False(t, AdminOptions{}.IsAdmin(newContext(t, 0)), "no admin configured")
}

func TestRecoverTurnsPanicIntoError(t *testing.T) {
	err := RecoverMiddleware(func(tele.Context) error { panic("boom") })(newContext(t, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
