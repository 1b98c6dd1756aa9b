package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/view"
)

// StatsView is the read-only projection shown to the administrator.
type StatsView struct {
	TotalUsers    int64
	Sessions      int
	TotalSearches int64
	Channels      []string
	Banned        int
	StartedAt     time.Time
	DaysRunning   int
}

// Snapshot projects the registry and session store at now.
func (c *Console) Snapshot(now time.Time) StatsView {
	st := c.reg.Stats()
	return StatsView{
		TotalUsers:    st.TotalUsers,
		Sessions:      c.store.Len(),
		TotalSearches: st.TotalSearches,
		Channels:      st.Channels,
		Banned:        st.Banned,
		StartedAt:     st.StartedAt,
		DaysRunning:   st.DaysRunning(now),
	}
}

func (v StatsView) String() string {
	var b strings.Builder
	b.WriteString("📊 Bot statistics\n\n")
	fmt.Fprintf(&b, "👥 Users: %d\n", v.TotalUsers)
	fmt.Fprintf(&b, "💬 Active sessions: %d\n", v.Sessions)
	fmt.Fprintf(&b, "🔍 Searches: %d\n", v.TotalSearches)
	fmt.Fprintf(&b, "📢 Mandatory channels: %d\n", len(v.Channels))
	fmt.Fprintf(&b, "🚫 Banned users: %d\n", v.Banned)
	fmt.Fprintf(&b, "📅 Days running: %d\n", v.DaysRunning)
	fmt.Fprintf(&b, "🕐 Started: %s", v.StartedAt.UTC().Format("2006-01-02 15:04 MST"))
	if len(v.Channels) > 0 {
		b.WriteString("\n\nChannels:\n")
		b.WriteString(strings.Join(v.Channels, "\n"))
	}
	return b.String()
}

// Stats renders the statistics message.
func (c *Console) Stats(now time.Time) view.Message {
	return view.Text(c.Snapshot(now).String())
}

// Digest sends the statistics to the administrator.
func (c *Console) Digest(ctx context.Context) error {
	if c.adminID == 0 {
		return nil
	}
	text := c.Snapshot(c.now()).String()
	if err := c.sender.SendText(ctx, c.adminID, text); err != nil {
		logger.Warn(ctx, component, "digest.send_failed", slog.String("err", err.Error()))
		return err
	}
	logger.Info(ctx, component, "digest.sent")
	return nil
}

// ScheduleDigest starts a cron job sending the digest on spec, a standard
// five-field expression or a descriptor such as "@daily". The caller stops
// the returned scheduler on shutdown.
func (c *Console) ScheduleDigest(spec string) (*cron.Cron, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(strings.TrimSpace(spec))
	if err != nil {
		return nil, fmt.Errorf("admin: parse digest schedule %q: %w", spec, err)
	}
	scheduler := cron.New()
	scheduler.Schedule(schedule, cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = c.Digest(ctx)
	}))
	scheduler.Start()
	return scheduler, nil
}
