// Package persist implements the persistence bridge: debounced snapshot
// writes to a durable local store with best-effort remote sync.
package persist

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// Debouncer coalesces bursts of Schedule calls into a single write. Each call
// replaces the pending payload and resets the timer; when the burst quiets
// the latest payload is handed to a single writer goroutine, so writes for
// one store are applied in mutation order and a delayed write never clobbers
// a newer state with a stale one.
//
// Schedule never blocks the caller on I/O: durability is eventual, with a
// data-loss window of at most one debounce interval on crash.
type Debouncer[T any] struct {
	interval time.Duration
	sink     func(context.Context, T) error

	mu      sync.Mutex
	timer   *time.Timer
	pending *T
	closed  bool

	queue    chan T
	flushReq chan chan struct{}
	quit     chan struct{}
	done     chan struct{}
}

// NewDebouncer starts a debouncer writing through sink. The context carries
// the logger (zctx) and bounds the background writes; it should outlive the
// debouncer.
func NewDebouncer[T any](ctx context.Context, interval time.Duration, sink func(context.Context, T) error) *Debouncer[T] {
	d := &Debouncer[T]{
		interval: interval,
		sink:     sink,
		queue:    make(chan T, 16),
		flushReq: make(chan chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go d.worker(ctx)
	return d
}

// Schedule records v as the latest pending payload and resets the debounce
// timer. Calls after Close are ignored.
func (d *Debouncer[T]) Schedule(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	d.pending = &v
	if d.timer == nil {
		d.timer = time.AfterFunc(d.interval, d.fire)
	} else {
		d.timer.Reset(d.interval)
	}
}

// Flush synchronously writes any pending payload, bypassing the timer. Any
// older payload already fired to the worker is written first, preserving
// mutation order: the flushed state is the newest and must land last.
func (d *Debouncer[T]) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	v := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	// Barrier: wait until the worker has drained everything older. The send
	// blocks while a write is in flight, so an older payload can never land
	// after the flushed one.
	ack := make(chan struct{})
	select {
	case d.flushReq <- ack:
		<-ack
	case <-d.done:
	}

	if v == nil {
		return nil
	}
	return d.sink(ctx, *v)
}

// Close stops the timer, drains queued writes, and flushes the pending
// payload synchronously. The debouncer must not be used afterwards.
func (d *Debouncer[T]) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	v := d.pending
	d.pending = nil
	d.mu.Unlock()

	close(d.quit)
	<-d.done

	if v == nil {
		return nil
	}
	return d.sink(ctx, *v)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	v := d.pending
	d.pending = nil
	closed := d.closed
	d.mu.Unlock()

	if v == nil || closed {
		return
	}
	d.queue <- *v
}

func (d *Debouncer[T]) worker(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case v := <-d.queue:
			d.write(ctx, v)
		case ack := <-d.flushReq:
			d.drain(ctx)
			close(ack)
		case <-d.quit:
			// Drain whatever fired before Close.
			d.drain(ctx)
			return
		}
	}
}

func (d *Debouncer[T]) drain(ctx context.Context) {
	for {
		select {
		case v := <-d.queue:
			d.write(ctx, v)
		default:
			return
		}
	}
}

// write persists one payload. Failures are logged and swallowed: in-memory
// state stays authoritative and the next debounce cycle retries with the
// then-current state.
func (d *Debouncer[T]) write(ctx context.Context, v T) {
	if err := d.sink(ctx, v); err != nil {
		zctx.From(ctx).Warn("debounced snapshot write failed", zap.Error(err))
	}
}
