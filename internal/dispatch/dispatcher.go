// Package dispatch routes inbound commands, button presses and text to the
// bot components and returns the replies to send. It knows nothing about
// the chat transport; the Telegram adapter feeds it events and renders the
// resulting view.Message values.
package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/admin"
	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/browser"
	"github.com/m3rciful/pixabot/internal/gate"
	"github.com/m3rciful/pixabot/internal/registry"
	"github.com/m3rciful/pixabot/internal/search"
	"github.com/m3rciful/pixabot/internal/session"
	"github.com/m3rciful/pixabot/internal/view"
)

const (
	component    = "service.dispatch"
	historyLimit = 15
)

// Gatekeeper decides whether a user passed the subscription gate.
type Gatekeeper interface {
	Check(ctx context.Context, userID int64) gate.Decision
}

// Searcher runs a query for a user and stores the results in the session.
type Searcher interface {
	Run(ctx context.Context, userID int64, query string) (search.Outcome, error)
}

// Deps are the collaborators of a Dispatcher.
type Deps struct {
	Store    session.Store
	Registry registry.Registry
	Gate     Gatekeeper
	Search   Searcher
	Admin    *admin.Console
	// Version is shown in /help when set.
	Version string
	Now     func() time.Time
}

// Dispatcher maps events to replies.
type Dispatcher struct {
	store   session.Store
	reg     registry.Registry
	gate    Gatekeeper
	search  Searcher
	admin   *admin.Console
	version string
	now     func() time.Time
}

// New builds a Dispatcher.
func New(d Deps) *Dispatcher {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Dispatcher{
		store:   d.Store,
		reg:     d.Registry,
		gate:    d.Gate,
		search:  d.Search,
		admin:   d.Admin,
		version: d.Version,
		now:     now,
	}
}

// Handle routes one event. A nil result means nothing is sent back.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) []view.Message {
	user := ev.Actor()
	ctx = logger.WithUser(ctx, user.ID)

	if d.reg.IsBanned(user.ID) && !d.isAdmin(user.ID) {
		logger.Info(ctx, component, "dispatch.banned_user")
		msg := view.Failure(apperr.AccessDenied, textBanned)
		if _, ok := ev.(Button); ok {
			msg = withNotice(msg, textBanned, true)
		}
		return []view.Message{msg}
	}

	switch e := ev.(type) {
	case Command:
		return d.onCommand(ctx, e)
	case Button:
		return d.onButton(ctx, e)
	case Text:
		return d.onText(ctx, e)
	}
	return nil
}

func (d *Dispatcher) isAdmin(userID int64) bool {
	return d.admin != nil && d.admin.IsAdmin(userID)
}

func (d *Dispatcher) onCommand(ctx context.Context, e Command) []view.Message {
	switch e.Name {
	case "start":
		d.touch(ctx, e.User)
		d.clearMode(e.User.ID)
		return one(d.entry(ctx, e.User.ID))
	case "help":
		// Read-only: a pending input survives /help.
		if _, ok := d.store.View(e.User.ID); !ok {
			return one(view.Failure(apperr.NotInitialized, textNotInitialized))
		}
		return one(helpMessage(d.version))
	case "admin":
		if !d.isAdmin(e.User.ID) {
			return nil
		}
		d.touch(ctx, e.User)
		d.clearMode(e.User.ID)
		sub, rest := cutWord(e.Payload)
		op, ok := ParseAdminOp(sub)
		if !ok {
			return one(d.adminPanel())
		}
		return one(d.adminOp(ctx, e.User.ID, op, rest))
	}
	return one(view.Failure(apperr.InvalidInput, textUnknownCommand))
}

// touch creates the session on first contact and counts the new user.
func (d *Dispatcher) touch(ctx context.Context, u User) {
	if _, created := d.store.Create(u.ID, u.DisplayName); created {
		d.reg.RecordUser()
		logger.Info(ctx, component, "dispatch.user_joined")
	}
}

// entry shows the main menu to users who passed the gate, and the
// subscription prompt to everyone else.
func (d *Dispatcher) entry(ctx context.Context, userID int64) view.Message {
	if dec, ok := d.passGate(ctx, userID); !ok {
		return subscription(dec.Missing)
	}
	return mainMenu(d.isAdmin(userID))
}

func (d *Dispatcher) passGate(ctx context.Context, userID int64) (gate.Decision, bool) {
	if d.isAdmin(userID) || d.gate == nil {
		return gate.Decision{Granted: true}, true
	}
	dec := d.gate.Check(ctx, userID)
	if !dec.Granted {
		logger.Debug(ctx, component, "dispatch.gate_denied", logger.Preview("missing", dec.Missing, 5)...)
	}
	return dec, dec.Granted
}

func (d *Dispatcher) onButton(ctx context.Context, e Button) []view.Message {
	userID := e.User.ID
	snap, ok := d.store.View(userID)
	if !ok {
		return one(withNotice(view.Failure(apperr.NotInitialized, textNotInitialized), textNotInitialized, true))
	}
	if op, isAdminMenu := e.Action.(AdminMenu); isAdminMenu {
		if !d.isAdmin(userID) {
			return nil
		}
		d.clearMode(userID)
		return one(d.adminOp(ctx, userID, op.Op, ""))
	}

	// A new menu action abandons any pending input.
	d.clearMode(userID)

	if _, verify := e.Action.(Verify); verify {
		dec, granted := d.passGate(ctx, userID)
		if !granted {
			return one(withNotice(subscription(dec.Missing), "❌ "+textSubscribeFirst, true))
		}
		logger.Info(ctx, component, "dispatch.verified")
		msg := mainMenu(d.isAdmin(userID))
		msg.Edit = true
		return one(withNotice(msg, "✅ Subscription confirmed", false))
	}
	if dec, granted := d.passGate(ctx, userID); !granted {
		return one(withNotice(subscription(dec.Missing), textSubscribeFirst, true))
	}
	// The gate may block on the network while other updates of this user
	// move the cursor; render from the state after it.
	if snap, ok = d.store.View(userID); !ok {
		return one(withNotice(view.Failure(apperr.NotInitialized, textNotInitialized), textNotInitialized, true))
	}

	switch a := e.Action.(type) {
	case StartSearch, SearchWithFilter:
		_ = d.store.Update(userID, func(s *session.Session) error {
			s.Await(session.ModeAwaitingQuery, "")
			return nil
		})
		return one(queryPrompt(snap.Filter))
	case FilterMenu:
		msg := filterMenu(snap.Filter)
		msg.Edit = true
		return one(msg)
	case PickFilter:
		_ = d.store.Update(userID, func(s *session.Session) error {
			s.Filter = a.Filter
			return nil
		})
		msg := filterMenu(a.Filter)
		msg.Edit = true
		return one(withNotice(msg, "Type: "+filterLabel(a.Filter), false))
	case NextResult:
		return d.advance(ctx, userID, browser.Next)
	case PrevResult:
		return d.advance(ctx, userID, browser.Prev)
	case SelectResult:
		spec, ok := browser.Select(snap)
		if !ok {
			return one(withNotice(view.Message{}, textEndOfResults, false))
		}
		msg := resultMessage(spec)
		msg.Edit = true
		return one(withNotice(msg, "✅ "+textSelected, false))
	case BackToMain:
		msg := mainMenu(d.isAdmin(userID))
		msg.Edit = true
		return one(msg)
	}
	return nil
}

func (d *Dispatcher) advance(ctx context.Context, userID int64, dir int) []view.Message {
	spec, moved, err := browser.Advance(d.store, userID, dir)
	if err != nil {
		logger.Warn(ctx, component, "dispatch.advance_failed", slog.String("err", err.Error()))
		return one(withNotice(view.Failure(apperr.KindOf(err), textNotInitialized), textNotInitialized, true))
	}
	if !moved {
		return one(withNotice(view.Message{}, textEndOfResults, false))
	}
	msg := resultMessage(spec)
	msg.Edit = true
	return one(msg)
}

func (d *Dispatcher) onText(ctx context.Context, e Text) []view.Message {
	userID := e.User.ID
	if _, ok := d.store.View(userID); !ok {
		return one(view.Failure(apperr.NotInitialized, textNotInitialized))
	}
	if dec, granted := d.passGate(ctx, userID); !granted {
		return one(subscription(dec.Missing))
	}

	var (
		mode session.InputMode
		op   session.ModerationOp
	)
	_ = d.store.Update(userID, func(s *session.Session) error {
		mode, op = s.TakeMode()
		return nil
	})

	switch mode {
	case session.ModeAwaitingQuery:
		return d.runSearch(ctx, userID, e.Text)
	case session.ModeAwaitingBroadcast, session.ModeAwaitingChannelAdd,
		session.ModeAwaitingChannelDel, session.ModeAwaitingModerationID:
		if d.isAdmin(userID) {
			msg := d.admin.Consume(ctx, mode, op, e.Text)
			msg.Rows = append(msg.Rows, adminBackRow())
			return one(msg)
		}
	}
	if len(e.Text) > 1 && e.Text[0] == '/' {
		return one(view.Failure(apperr.InvalidInput, textUnknownCommand))
	}
	return one(view.Text(textUseMenu, mainMenu(d.isAdmin(userID)).Rows...))
}

func (d *Dispatcher) runSearch(ctx context.Context, userID int64, query string) []view.Message {
	out, err := d.search.Run(ctx, userID, query)
	switch apperr.KindOf(err) {
	case "":
		if err != nil {
			return one(view.Failure(apperr.ProviderError, textProviderError, backRow()))
		}
	case apperr.InvalidInput:
		return one(view.Failure(apperr.InvalidInput, textEmptyQuery, view.Row{button("🔍 Search", StartSearch{})}))
	case apperr.EmptyResult:
		return one(emptyResult(query))
	case apperr.NotInitialized:
		return one(view.Failure(apperr.NotInitialized, textNotInitialized))
	default:
		return one(view.Failure(apperr.ProviderError, textProviderError,
			view.Row{button("🔍 Search again", StartSearch{})}, backRow()))
	}

	snap, _ := d.store.View(userID)
	spec, ok := browser.Render(snap)
	if !ok {
		return one(emptyResult(query))
	}
	logger.Debug(ctx, component, "dispatch.search_rendered",
		slog.Int("total", out.Total),
		slog.Int("items", out.Items),
	)
	return one(resultMessage(spec))
}

func (d *Dispatcher) adminPanel() view.Message {
	msg := d.admin.Panel()
	msg.Rows = adminRows()
	return msg
}

// adminOp runs op with arg, or prompts for the argument and parks the
// session in the matching input mode when arg is empty.
func (d *Dispatcher) adminOp(ctx context.Context, userID int64, op AdminOp, arg string) view.Message {
	var (
		mode  session.InputMode
		modOp session.ModerationOp
	)
	switch op {
	case OpPanel:
		return d.adminPanel()
	case OpStats:
		msg := d.admin.Stats(d.now())
		msg.Rows = []view.Row{adminBackRow()}
		return msg
	case OpHistory:
		msg := d.admin.HistoryMessage(ctx, historyLimit)
		msg.Rows = []view.Row{adminBackRow()}
		return msg
	case OpBan:
		mode, modOp = session.ModeAwaitingModerationID, session.OpBan
	case OpUnban:
		mode, modOp = session.ModeAwaitingModerationID, session.OpUnban
	case OpBroadcast:
		mode = session.ModeAwaitingBroadcast
	case OpAddChannel:
		mode = session.ModeAwaitingChannelAdd
	case OpRemoveChannel:
		mode = session.ModeAwaitingChannelDel
	default:
		return d.adminPanel()
	}

	if arg == "" {
		_ = d.store.Update(userID, func(s *session.Session) error {
			s.Await(mode, modOp)
			return nil
		})
		return d.admin.Prompt(mode, modOp)
	}
	msg := d.admin.Consume(ctx, mode, modOp, arg)
	msg.Rows = append(msg.Rows, adminBackRow())
	return msg
}

func (d *Dispatcher) clearMode(userID int64) {
	_ = d.store.Update(userID, func(s *session.Session) error {
		s.TakeMode()
		return nil
	})
}

func one(msg view.Message) []view.Message {
	return []view.Message{msg}
}
