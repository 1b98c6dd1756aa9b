// Package admin implements the moderation surface reserved for the single
// administrator: bans, the mandatory channel list, broadcasts and stats.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"golang.org/x/time/rate"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/registry"
	"github.com/m3rciful/pixabot/internal/session"
	"github.com/m3rciful/pixabot/internal/view"
)

const component = "service.admin"

// Sender delivers a plain text message to a user.
type Sender interface {
	SendText(ctx context.Context, userID int64, text string) error
}

// History lists recent journal events, newest first.
type History interface {
	Recent(ctx context.Context, kind audit.Kind, limit int) ([]audit.Event, error)
}

// Options tunes the console.
type Options struct {
	AdminID int64
	// Workers bounds concurrent broadcast sends; zero selects 8.
	Workers int
	// RatePerSecond paces broadcast sends; zero selects 25, negative disables pacing.
	RatePerSecond float64
}

// Console executes admin operations. Callers check IsAdmin first; the
// console itself never answers a non-admin.
type Console struct {
	adminID int64
	reg     registry.Registry
	store   session.Store
	sender  Sender
	journal audit.Journal
	history History
	workers int
	limiter *rate.Limiter
	now     func() time.Time
}

// New wires a console. journal may be nil; when it also implements History
// the history view is served from it.
func New(reg registry.Registry, store session.Store, sender Sender, journal audit.Journal, opts Options) *Console {
	if journal == nil {
		journal = audit.Nop{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 8
	}
	perSecond := opts.RatePerSecond
	if perSecond == 0 {
		perSecond = 25
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	c := &Console{
		adminID: opts.AdminID,
		reg:     reg,
		store:   store,
		sender:  sender,
		journal: journal,
		workers: workers,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
	if h, ok := journal.(History); ok {
		c.history = h
	}
	return c
}

// IsAdmin reports whether userID is the configured administrator.
func (c *Console) IsAdmin(userID int64) bool {
	return c.adminID != 0 && userID == c.adminID
}

// Panel lists the admin commands.
func (c *Console) Panel() view.Message {
	return view.Text(strings.Join([]string{
		"🛠 Admin panel",
		"",
		"/admin stats - bot statistics",
		"/admin ban <id> - ban a user",
		"/admin unban <id> - unban a user",
		"/admin broadcast <text> - message every user",
		"/admin add-channel <@name> - add a mandatory channel",
		"/admin remove-channel <@name> - remove a mandatory channel",
		"/admin history - recent admin actions",
	}, "\n"))
}

// Prompt asks for the free-text answer of mode.
func (c *Console) Prompt(mode session.InputMode, op session.ModerationOp) view.Message {
	switch mode {
	case session.ModeAwaitingBroadcast:
		return view.Text("📢 Send the message to broadcast to every user.")
	case session.ModeAwaitingChannelAdd:
		return view.Text("➕ Send the channel to add, for example @mychannel.")
	case session.ModeAwaitingChannelDel:
		return view.Text("➖ Send the channel to remove.")
	case session.ModeAwaitingModerationID:
		if op == session.OpUnban {
			return view.Text("✅ Send the id of the user to unban.")
		}
		return view.Text("🚫 Send the id of the user to ban.")
	}
	return c.Panel()
}

// Consume handles the answer to a pending admin input. The caller has
// already reset the session mode.
func (c *Console) Consume(ctx context.Context, mode session.InputMode, op session.ModerationOp, text string) view.Message {
	switch mode {
	case session.ModeAwaitingBroadcast:
		return c.BroadcastMessage(ctx, text)
	case session.ModeAwaitingChannelAdd:
		return c.AddChannel(ctx, text)
	case session.ModeAwaitingChannelDel:
		return c.RemoveChannel(ctx, text)
	case session.ModeAwaitingModerationID:
		if op == session.OpUnban {
			return c.Unban(ctx, text)
		}
		return c.Ban(ctx, text)
	}
	return c.Panel()
}

// Ban adds the user to the ban list. Banning twice is reported, not failed.
func (c *Console) Ban(ctx context.Context, raw string) view.Message {
	id, err := parseUserID(raw)
	if err != nil {
		return view.Failure(apperr.InvalidInput, "❌ Invalid user id. Send a numeric Telegram id.")
	}
	if c.IsAdmin(id) {
		return view.Failure(apperr.InvalidInput, "❌ The administrator cannot be banned.")
	}
	if !c.reg.Ban(id) {
		return view.Text(fmt.Sprintf("ℹ️ User %d is already banned.", id))
	}
	c.record(ctx, audit.Event{Kind: audit.KindBan, ActorID: c.adminID, TargetID: id}, slog.Int64("target_id", id))
	return view.Text(fmt.Sprintf("✅ User %d has been banned.", id))
}

// Unban removes the user from the ban list.
func (c *Console) Unban(ctx context.Context, raw string) view.Message {
	id, err := parseUserID(raw)
	if err != nil {
		return view.Failure(apperr.InvalidInput, "❌ Invalid user id. Send a numeric Telegram id.")
	}
	if !c.reg.Unban(id) {
		return view.Text(fmt.Sprintf("ℹ️ User %d is not banned.", id))
	}
	c.record(ctx, audit.Event{Kind: audit.KindUnban, ActorID: c.adminID, TargetID: id}, slog.Int64("target_id", id))
	return view.Text(fmt.Sprintf("✅ User %d has been unbanned.", id))
}

// AddChannel appends a mandatory channel.
func (c *Console) AddChannel(ctx context.Context, raw string) view.Message {
	name, added := c.reg.AddChannel(raw)
	switch {
	case name == "":
		return view.Failure(apperr.InvalidInput, "❌ Invalid channel name. Use @name or a t.me link.")
	case !added:
		return view.Text(fmt.Sprintf("ℹ️ %s is already in the list.", name))
	}
	c.record(ctx, audit.Event{Kind: audit.KindChannelAdd, ActorID: c.adminID, Subject: name}, slog.String("channel", name))
	return view.Text(fmt.Sprintf("✅ Channel %s added.", name))
}

// RemoveChannel drops a mandatory channel, suggesting the closest existing
// one when the name is unknown.
func (c *Console) RemoveChannel(ctx context.Context, raw string) view.Message {
	name, removed := c.reg.RemoveChannel(raw)
	switch {
	case name == "":
		return view.Failure(apperr.InvalidInput, "❌ Invalid channel name. Use @name or a t.me link.")
	case !removed:
		text := fmt.Sprintf("❌ %s is not in the list.", name)
		if guess := closest(name, c.reg.Channels()); guess != "" {
			text += fmt.Sprintf(" Did you mean %s?", guess)
		}
		return view.Text(text)
	}
	c.record(ctx, audit.Event{Kind: audit.KindChannelRemove, ActorID: c.adminID, Subject: name}, slog.String("channel", name))
	return view.Text(fmt.Sprintf("✅ Channel %s removed.", name))
}

// HistoryMessage shows the latest journaled admin actions.
func (c *Console) HistoryMessage(ctx context.Context, limit int) view.Message {
	if c.history == nil {
		return view.Text("ℹ️ The audit journal is disabled.")
	}
	events, err := c.history.Recent(ctx, "", limit*2)
	if err != nil {
		logger.Warn(ctx, component, "admin.history_failed", slog.String("err", err.Error()))
		return view.Failure(apperr.ProviderError, "❌ Could not read the journal.")
	}
	var lines []string
	for _, e := range events {
		if e.Kind == audit.KindSearch {
			continue
		}
		lines = append(lines, formatEvent(e))
		if len(lines) == limit {
			break
		}
	}
	if len(lines) == 0 {
		return view.Text("ℹ️ No admin actions recorded yet.")
	}
	return view.Text("🗂 Recent admin actions\n\n" + strings.Join(lines, "\n"))
}

func formatEvent(e audit.Event) string {
	at := e.At.UTC().Format("2006-01-02 15:04")
	switch e.Kind {
	case audit.KindBan, audit.KindUnban:
		return fmt.Sprintf("%s %s %d", at, e.Kind, e.TargetID)
	case audit.KindBroadcast:
		return fmt.Sprintf("%s broadcast %s sent=%d %s", at, e.Subject, e.Count, e.Detail)
	default:
		return fmt.Sprintf("%s %s %s", at, e.Kind, e.Subject)
	}
}

func (c *Console) record(ctx context.Context, e audit.Event, attr slog.Attr) {
	logger.Info(ctx, component, "admin."+string(e.Kind), attr)
	c.journal.Record(ctx, e)
}

func parseUserID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("user id must be positive")
	}
	return id, nil
}

// closest returns the channel within a small edit distance of name.
func closest(name string, channels []string) string {
	best, bestDist := "", -1
	target := strings.ToLower(name)
	for _, ch := range channels {
		d := levenshtein.ComputeDistance(target, strings.ToLower(ch))
		if bestDist < 0 || d < bestDist {
			best, bestDist = ch, d
		}
	}
	if bestDist < 0 || bestDist > max(2, len(name)/3) {
		return ""
	}
	return best
}
