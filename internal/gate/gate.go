// Package gate decides whether a user may use the bot given the mandatory
// channel list. Membership lookups that fail count as "not a member".
package gate

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/pixabot/core/logger"
)

const component = "service.gate"

// MemberStatus mirrors the chat member status reported by Telegram.
type MemberStatus string

const (
	StatusCreator       MemberStatus = "creator"
	StatusAdministrator MemberStatus = "administrator"
	StatusMember        MemberStatus = "member"
	StatusRestricted    MemberStatus = "restricted"
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
)

// IsMember treats every status except left and kicked as membership.
func (s MemberStatus) IsMember() bool {
	return s != StatusLeft && s != StatusKicked
}

// MembershipChecker looks up a user's status in one channel.
type MembershipChecker interface {
	Status(ctx context.Context, channel string, userID int64) (MemberStatus, error)
}

// ChannelSource yields a consistent snapshot of the mandatory channels.
type ChannelSource interface {
	Channels() []string
}

// Decision is the outcome of a check. Missing keeps channel list order.
type Decision struct {
	Granted bool
	Missing []string
}

const (
	defaultTimeout  = 5 * time.Second
	defaultParallel = 4
)

// Gate runs membership checks against every mandatory channel.
type Gate struct {
	channels ChannelSource
	checker  MembershipChecker
	timeout  time.Duration
	parallel int
}

// New builds a Gate. timeout bounds each membership call; zero selects 5s.
func New(channels ChannelSource, checker MembershipChecker, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gate{
		channels: channels,
		checker:  checker,
		timeout:  timeout,
		parallel: defaultParallel,
	}
}

// Check evaluates the gate for userID against one snapshot of the channel list.
func (g *Gate) Check(ctx context.Context, userID int64) Decision {
	channels := g.channels.Channels()
	if len(channels) == 0 {
		return Decision{Granted: true}
	}

	member := make([]bool, len(channels))
	var eg errgroup.Group
	eg.SetLimit(g.parallel)
	for i, ch := range channels {
		eg.Go(func() error {
			member[i] = g.isMember(ctx, ch, userID)
			return nil
		})
	}
	_ = eg.Wait()

	var missing []string
	for i, ch := range channels {
		if !member[i] {
			missing = append(missing, ch)
		}
	}

	logger.Debug(ctx, component, "gate.checked",
		slog.Int("channels", len(channels)),
		slog.Any("missing", missing),
	)
	return Decision{Granted: len(missing) == 0, Missing: missing}
}

func (g *Gate) isMember(ctx context.Context, channel string, userID int64) bool {
	if g.checker == nil {
		return false
	}
	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	status, err := g.checker.Status(cctx, channel, userID)
	if err != nil {
		logger.Error(ctx, component, "gate.member_check_failed",
			slog.String("channel", channel),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return status.IsMember()
}
