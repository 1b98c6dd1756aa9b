package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/m3rciful/pixabot/core/logger"
)

const (
	defaultBreakerFailures uint32 = 5
	defaultBreakerOpen            = 30 * time.Second
	defaultBreakerInterval        = 60 * time.Second
)

// BreakerOptions configures Breaker. Zero values take the defaults.
type BreakerOptions struct {
	// MaxFailures is the count of consecutive failures that opens the circuit.
	MaxFailures uint32
	// OpenFor is how long the circuit stays open before a trial request is let through.
	OpenFor time.Duration
	// Interval clears failure counts while the circuit is closed.
	Interval time.Duration
}

// Breaker stops calling a provider that keeps failing.
type Breaker struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[Response]
}

// NewBreaker wraps inner with a circuit breaker.
func NewBreaker(inner Provider, opts BreakerOptions) *Breaker {
	maxFailures := opts.MaxFailures
	if maxFailures == 0 {
		maxFailures = defaultBreakerFailures
	}
	openFor := opts.OpenFor
	if openFor <= 0 {
		openFor = defaultBreakerOpen
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultBreakerInterval
	}

	cb := gobreaker.NewCircuitBreaker[Response](gobreaker.Settings{
		Name:        "pixabay",
		MaxRequests: 1,
		Interval:    interval,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), component, "breaker.state_changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
		// A user abandoning a request says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

// Search routes the call through the circuit breaker.
func (b *Breaker) Search(ctx context.Context, req Request) (Response, error) {
	resp, err := b.cb.Execute(func() (Response, error) {
		return b.inner.Search(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Response{}, fmt.Errorf("pixabay circuit open: %w", err)
	}
	return resp, err
}

// State reports the breaker state for diagnostics.
func (b *Breaker) State() gobreaker.State { return b.cb.State() }
