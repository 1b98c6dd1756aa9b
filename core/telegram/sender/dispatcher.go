// Package sender runs outbound Telegram calls on a small worker pool with
// retries, so handlers return before slow sends finish.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/pixabot/core/logger"
)

const component = "tg.sender"

var (
	// ErrQueueClosed is returned by Enqueue after Close.
	ErrQueueClosed = errors.New("telegram sender: queue closed")
	// ErrQueueFull is returned when the job could not be queued.
	ErrQueueFull = errors.New("telegram sender: queue full")
)

// Options controls the behaviour of the outbound dispatcher.
type Options struct {
	QueueSize int
	Workers   int
	// MaxRetries is the number of repeats after the first attempt.
	MaxRetries   int
	RetryBackoff time.Duration
	// MaxDuration bounds the time spent retrying a single job.
	MaxDuration time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	o.MaxRetries = max(o.MaxRetries, 0)
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 2 * time.Second
	}
	if o.MaxDuration <= 0 {
		o.MaxDuration = 12 * time.Second
	}
	return o
}

type job struct {
	ctx      context.Context
	action   string
	endpoint string
	run      func() error
}

// Dispatcher executes outbound Telegram calls asynchronously with retries.
type Dispatcher struct {
	opts Options
	jobs chan job

	// mu orders Enqueue against Close so no job is sent on a closed queue.
	mu     sync.RWMutex
	closed bool

	once sync.Once
	wg   sync.WaitGroup
	errs atomic.Uint64
}

// NewDispatcher starts the workers. Zero options take defaults: a 256 job
// queue, 4 workers, 2s backoff and 12s per job.
func NewDispatcher(opts Options) *Dispatcher {
	opts = opts.withDefaults()
	d := &Dispatcher{opts: opts, jobs: make(chan job, opts.QueueSize)}
	d.wg.Add(opts.Workers)
	for range opts.Workers {
		go func() {
			defer d.wg.Done()
			for j := range d.jobs {
				d.process(j)
			}
		}()
	}
	return d
}

// Enqueue schedules run. It never blocks: a full queue yields ErrQueueFull.
// run may be called more than once when the call fails transiently.
func (d *Dispatcher) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	if run == nil {
		return errors.New("telegram sender: nil run function")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrQueueClosed
	}
	select {
	case d.jobs <- job{ctx: ctx, action: action, endpoint: endpoint, run: run}:
		return nil
	default:
		return ErrQueueFull
	}
}

// ErrorCount returns the number of jobs that failed for good.
func (d *Dispatcher) ErrorCount() uint64 { return d.errs.Load() }

// Pending returns the number of queued jobs not yet picked by a worker.
func (d *Dispatcher) Pending() int { return len(d.jobs) }

// Close stops accepting jobs and waits for the queued ones to finish.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.jobs)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

// process runs one job until it succeeds, fails permanently, runs out of
// attempts or exceeds MaxDuration.
func (d *Dispatcher) process(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, d.opts.MaxDuration)
	defer cancel()

	start := time.Now()
	attrs := []slog.Attr{slog.String("action", j.action)}
	if j.endpoint != "" {
		attrs = append(attrs, slog.String("endpoint", j.endpoint))
	}

	var err error
	attempt := 0
	for attempt < d.opts.MaxRetries+1 {
		attempt++
		if err = j.run(); err == nil {
			logger.Debug(j.ctx, component, "send.ok", append(attrs,
				slog.Int("attempts", attempt),
				slog.Duration("duration", time.Since(start)),
			)...)
			return
		}
		if !retryable(err) || attempt > d.opts.MaxRetries {
			break
		}
		delay := d.retryDelay(err, attempt)
		logger.Debug(j.ctx, component, "send.retry", append(attrs,
			slog.Int("attempts", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", redact(err)),
		)...)
		if !sleep(ctx, delay) {
			err = errors.Join(err, ctx.Err())
			break
		}
	}

	d.errs.Add(1)
	logger.Error(j.ctx, component, "send.fail", append(attrs,
		slog.Int("attempts", attempt),
		slog.Duration("duration", time.Since(start)),
		slog.String("err", redact(err)),
		slog.String("err_code", classifyError(err)),
	)...)
}

// sleep waits for d or until ctx ends, reporting whether the full wait passed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
