package admin

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/view"
)

// Report is the outcome of one broadcast.
type Report struct {
	ID         string
	Recipients int
	Sent       int
	Failed     int
}

func (r Report) String() string {
	return fmt.Sprintf("📢 Broadcast %s finished\n✅ Sent: %d\n❌ Failed: %d", r.ID, r.Sent, r.Failed)
}

// Broadcast sends text to every known user except the administrator. Each
// recipient succeeds or fails on its own; a failure never stops the batch.
func (c *Console) Broadcast(ctx context.Context, text string) (Report, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Report{}, apperr.Errorf(apperr.InvalidInput, "admin.broadcast", "empty text")
	}

	var recipients []int64
	for _, id := range c.store.UserIDs() {
		if !c.IsAdmin(id) {
			recipients = append(recipients, id)
		}
	}
	report := Report{ID: newBroadcastID(c.now()), Recipients: len(recipients)}
	logger.Info(ctx, component, "broadcast.start",
		slog.String("broadcast_id", report.ID),
		slog.Int("recipients", len(recipients)),
	)

	start := time.Now()
	var sent, failed atomic.Int64
	var eg errgroup.Group
	eg.SetLimit(c.workers)
	for i, userID := range recipients {
		if err := c.limiter.Wait(ctx); err != nil {
			failed.Add(int64(len(recipients) - i))
			logger.Warn(ctx, component, "broadcast.aborted",
				slog.String("broadcast_id", report.ID),
				slog.String("err", err.Error()),
			)
			break
		}
		eg.Go(func() error {
			uctx := logger.WithUser(ctx, userID)
			if err := c.sender.SendText(uctx, userID, text); err != nil {
				failed.Add(1)
				logger.Warn(uctx, component, "broadcast.send_failed",
					slog.String("broadcast_id", report.ID),
					slog.String("err", err.Error()),
				)
				return nil
			}
			sent.Add(1)
			return nil
		})
	}
	_ = eg.Wait()

	report.Sent = int(sent.Load())
	report.Failed = int(failed.Load())
	logger.Info(ctx, component, "broadcast.done",
		slog.String("broadcast_id", report.ID),
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", logger.Since(start)),
	)
	c.journal.Record(ctx, audit.Event{
		Kind:    audit.KindBroadcast,
		ActorID: c.adminID,
		Subject: report.ID,
		Detail:  fmt.Sprintf("failed=%d", report.Failed),
		Count:   report.Sent,
	})
	return report, nil
}

// BroadcastMessage runs Broadcast and renders its report.
func (c *Console) BroadcastMessage(ctx context.Context, text string) view.Message {
	report, err := c.Broadcast(ctx, text)
	if err != nil {
		return view.Failure(apperr.KindOf(err), "❌ The broadcast text is empty.")
	}
	return view.Text(report.String())
}

func newBroadcastID(t time.Time) string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(t.UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
