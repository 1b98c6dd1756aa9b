package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/internal/apperr"
	"github.com/m3rciful/pixabot/internal/audit"
	"github.com/m3rciful/pixabot/internal/session"
)

const (
	defaultPerPage = 20
	minPerPage     = 3
	maxPerPage     = 100
	defaultLang    = "en"
	defaultTimeout = 10 * time.Second
)

// Counter receives the global search counter increment.
type Counter interface {
	RecordSearch()
}

// Options tunes the orchestrator.
type Options struct {
	Lang    string
	PerPage int
	Timeout time.Duration
}

// Outcome summarizes a successful search.
type Outcome struct {
	Query  string
	Filter session.Filter
	Total  int
	Items  int
}

// Orchestrator runs searches and stores their results in the session.
type Orchestrator struct {
	store    session.Store
	provider Provider
	counter  Counter
	journal  audit.Journal
	opts     Options
}

// NewOrchestrator wires the orchestrator. journal may be nil.
func NewOrchestrator(store session.Store, provider Provider, counter Counter, journal audit.Journal, opts Options) *Orchestrator {
	if journal == nil {
		journal = audit.Nop{}
	}
	return &Orchestrator{
		store:    store,
		provider: provider,
		counter:  counter,
		journal:  journal,
		opts:     normalizeOptions(opts),
	}
}

func normalizeOptions(o Options) Options {
	o.Lang = strings.TrimSpace(o.Lang)
	if o.Lang == "" {
		o.Lang = defaultLang
	}
	switch {
	case o.PerPage == 0:
		o.PerPage = defaultPerPage
	case o.PerPage < minPerPage:
		o.PerPage = minPerPage
	case o.PerPage > maxPerPage:
		o.PerPage = maxPerPage
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return o
}

// Run searches query with the user's current filter. On success the session
// result set is replaced and the cursor moves to the first item.
func (o *Orchestrator) Run(ctx context.Context, userID int64, query string) (Outcome, error) {
	const op = "search.run"

	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, apperr.Errorf(apperr.InvalidInput, op, "empty query")
	}
	snap, ok := o.store.View(userID)
	if !ok {
		return Outcome{}, apperr.New(apperr.NotInitialized, op, session.ErrNoSession)
	}

	endpoint, category := Route(snap.Filter)
	req := Request{
		Endpoint: endpoint,
		Category: category,
		Query:    query,
		Lang:     o.opts.Lang,
		PerPage:  o.opts.PerPage,
	}

	cctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	start := time.Now()
	resp, err := o.provider.Search(cctx, req)
	cancel()
	if err != nil {
		logger.Error(ctx, component, "search.provider_failed",
			slog.String("endpoint", string(endpoint)),
			slog.String("filter", string(snap.Filter)),
			slog.Duration("duration", logger.Since(start)),
			slog.String("err", err.Error()),
		)
		return Outcome{}, apperr.New(apperr.ProviderError, op, err)
	}
	if resp.Total == 0 || len(resp.Items) == 0 {
		logger.Info(ctx, component, "search.empty",
			slog.String("endpoint", string(endpoint)),
			slog.String("filter", string(snap.Filter)),
			slog.String("query", logger.SanitizeLimit(query, 64)),
		)
		return Outcome{}, apperr.Errorf(apperr.EmptyResult, op, "no results for %q", query)
	}

	err = o.store.Update(userID, func(s *session.Session) error {
		s.SetResults(resp.Items)
		s.LastQuery = query
		s.SearchCount++
		return nil
	})
	if errors.Is(err, session.ErrNoSession) {
		return Outcome{}, apperr.New(apperr.NotInitialized, op, err)
	}
	if err != nil {
		return Outcome{}, apperr.New(apperr.ProviderError, op, err)
	}
	if o.counter != nil {
		o.counter.RecordSearch()
	}

	out := Outcome{Query: query, Filter: snap.Filter, Total: resp.Total, Items: len(resp.Items)}
	logger.Info(ctx, component, "search.done",
		slog.String("endpoint", string(endpoint)),
		slog.String("filter", string(out.Filter)),
		slog.Int("total", out.Total),
		slog.Int("items", out.Items),
		slog.Duration("duration", logger.Since(start)),
	)
	o.journal.Record(ctx, audit.Event{
		Kind:    audit.KindSearch,
		ActorID: userID,
		Subject: query,
		Detail:  string(out.Filter),
		Count:   out.Items,
	})
	return out, nil
}
