// Package bot connects the dispatcher to Telegram: it turns telebot updates
// into dispatch events, renders view messages back, and gives the gate and
// the admin console their Telegram-facing collaborators.
package bot

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/pixabot/internal/gate"
)

// ErrNotAttached is returned before the runtime hands over the bot.
var ErrNotAttached = errors.New("bot: telegram client not attached")

// Client wraps the telebot instance once the runtime has built it.
type Client struct {
	bot atomic.Pointer[tele.Bot]
}

// NewClient returns a client without a bot; call Attach before use.
func NewClient() *Client { return &Client{} }

// Attach stores the bot built by the runtime.
func (c *Client) Attach(b *tele.Bot) { c.bot.Store(b) }

func (c *Client) current() (*tele.Bot, error) {
	b := c.bot.Load()
	if b == nil {
		return nil, ErrNotAttached
	}
	return b, nil
}

// chatRef addresses a chat by its public @username.
type chatRef string

func (r chatRef) Recipient() string { return string(r) }

// Status reports the user's membership in channel. telebot calls are not
// cancellable, so the call runs in a goroutine and ctx bounds the wait.
func (c *Client) Status(ctx context.Context, channel string, userID int64) (gate.MemberStatus, error) {
	b, err := c.current()
	if err != nil {
		return "", err
	}

	type result struct {
		member *tele.ChatMember
		err    error
	}
	done := make(chan result, 1)
	go func() {
		m, err := b.ChatMemberOf(chatRef(channel), tele.ChatID(userID))
		done <- result{member: m, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("bot: membership %s: %w", channel, ctx.Err())
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("bot: membership %s: %w", channel, r.err)
		}
		if r.member == nil {
			return gate.StatusLeft, nil
		}
		return memberStatus(r.member.Role), nil
	}
}

func memberStatus(role tele.MemberStatus) gate.MemberStatus {
	switch role {
	case tele.Creator:
		return gate.StatusCreator
	case tele.Administrator:
		return gate.StatusAdministrator
	case tele.Member:
		return gate.StatusMember
	case tele.Restricted:
		return gate.StatusRestricted
	case tele.Kicked:
		return gate.StatusKicked
	}
	return gate.StatusLeft
}

// SendText delivers a plain message to a user's private chat. It is used for
// broadcasts and the admin digest, outside of any update.
func (c *Client) SendText(ctx context.Context, userID int64, text string) error {
	b, err := c.current()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err = b.Send(tele.ChatID(userID), truncate(text, maxTextRunes), &tele.SendOptions{DisableWebPagePreview: true})
	return err
}
