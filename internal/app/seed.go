package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/pixabot/core/bootstrap"
	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/registry"
)

// channelSeeder loads the configured mandatory channels into the registry.
func channelSeeder(reg registry.Registry, channels []string) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, _ bootstrap.Storage) error {
		added := 0
		for _, ch := range channels {
			if _, ok := reg.AddChannel(ch); ok {
				added++
			}
		}
		logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "seed.channels", slog.Int("count", added))
		return nil
	})
}

// stateSeeder replays journaled bans and channel edits so moderation
// survives restarts. Without a database there is nothing to replay.
func stateSeeder(reg registry.Registry, journal func(bootstrap.Storage) audit.Replayer) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, storage bootstrap.Storage) error {
		r := journal(storage)
		if r == nil {
			return nil
		}
		n, err := restoreState(ctx, r, reg)
		if err != nil {
			return err
		}
		logger.LogEvent(ctx, logger.DB, slog.LevelInfo, "seed.replay",
			slog.Int("events", n),
			slog.Int("banned", reg.BannedCount()),
			slog.Int("channels", len(reg.Channels())),
		)
		return nil
	})
}

// restoreState applies ban, unban and channel events in write order.
func restoreState(ctx context.Context, r audit.Replayer, reg registry.Registry) (int, error) {
	events, err := r.Replay(ctx, audit.StateKinds...)
	if err != nil {
		return 0, fmt.Errorf("replay journal: %w", err)
	}
	for _, e := range events {
		switch e.Kind {
		case audit.KindBan:
			reg.Ban(e.TargetID)
		case audit.KindUnban:
			reg.Unban(e.TargetID)
		case audit.KindChannelAdd:
			reg.AddChannel(e.Subject)
		case audit.KindChannelRemove:
			reg.RemoveChannel(e.Subject)
		}
	}
	return len(events), nil
}
