package logger

import (
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// queuedWriter hands lines to one goroutine that writes them to every sink,
// so a slow file never blocks a handler for long.
type queuedWriter struct {
	lines chan []byte
	flush chan chan error
	done  chan struct{}
	sinks []io.Writer

	mu     sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error
}

func newQueuedWriter(sinks []io.Writer, depth int) *queuedWriter {
	if depth <= 0 {
		depth = 256
	}
	live := make([]io.Writer, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	w := &queuedWriter{
		lines: make(chan []byte, depth),
		flush: make(chan chan error),
		done:  make(chan struct{}),
		sinks: live,
	}
	go w.run()
	return w
}

func (w *queuedWriter) run() {
	defer close(w.done)
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.writeLine(line)
		case ack := <-w.flush:
			w.drain()
			ack <- w.firstErr()
		}
	}
}

// drain writes whatever is queued right now.
func (w *queuedWriter) drain() {
	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return
			}
			w.writeLine(line)
		default:
			return
		}
	}
}

func (w *queuedWriter) writeLine(line []byte) {
	for _, s := range w.sinks {
		if _, err := s.Write(line); err != nil {
			w.errMu.Lock()
			if w.err == nil {
				w.err = err
			}
			w.errMu.Unlock()
		}
	}
}

func (w *queuedWriter) firstErr() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}

// Write queues a copy of p. It blocks when the queue is full rather than
// dropping lines.
func (w *queuedWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	w.lines <- append([]byte(nil), p...)
	return nil
}

// Flush returns once every line queued before the call is written.
func (w *queuedWriter) Flush() error {
	w.mu.RLock()
	if w.closed {
		w.mu.RUnlock()
		return w.firstErr()
	}
	ack := make(chan error, 1)
	w.flush <- ack
	w.mu.RUnlock()
	return <-ack
}

// Close writes the remaining lines and stops the goroutine.
func (w *queuedWriter) Close() error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.lines)
	}
	w.mu.Unlock()
	<-w.done
	return w.firstErr()
}
