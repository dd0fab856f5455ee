package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Dispatcher.Deliver when the buffer is full and
// the notification was dropped.
var ErrQueueFull = errors.New("notify: dispatch queue full")

const (
	defaultQueueSize   = 256
	defaultSendTimeout = 10 * time.Second
)

// Dispatcher fans notifications out to sinks from a background goroutine.
// Deliver never blocks; a failing sink is logged and skipped.
type Dispatcher struct {
	sinks   []Sink
	queue   chan Notification
	log     *slog.Logger
	timeout time.Duration

	closeOnce sync.Once
	done      chan struct{}
}

// DispatcherOpts configures a Dispatcher.
type DispatcherOpts struct {
	QueueSize   int
	SendTimeout time.Duration
	Logger      *slog.Logger
}

// NewDispatcher builds a Dispatcher over sinks. Call Run to start delivery.
func NewDispatcher(opts DispatcherOpts, sinks ...Sink) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		sinks:   sinks,
		queue:   make(chan Notification, opts.QueueSize),
		log:     opts.Logger,
		timeout: opts.SendTimeout,
		done:    make(chan struct{}),
	}
}

// Deliver enqueues n for every sink.
func (d *Dispatcher) Deliver(_ context.Context, n Notification) error {
	select {
	case <-d.done:
		return errors.New("notify: dispatcher closed")
	default:
	}
	select {
	case d.queue <- n:
		return nil
	default:
		d.log.Warn("notification dropped", slog.String("id", n.ID), slog.String("operator", n.OperatorID))
		return ErrQueueFull
	}
}

// Run delivers queued notifications until ctx is cancelled or Close is
// called, then drains what is already queued.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.send(ctx, n)
		case <-ctx.Done():
			d.drain(context.Background())
			return
		case <-d.done:
			d.drain(ctx)
			return
		}
	}
}

// Close stops Run after it drains the queue.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

func (d *Dispatcher) drain(ctx context.Context) {
	for {
		select {
		case n := <-d.queue:
			d.send(ctx, n)
		default:
			return
		}
	}
}

func (d *Dispatcher) send(ctx context.Context, n Notification) {
	for _, s := range d.sinks {
		sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
		if err := s.Deliver(sendCtx, n); err != nil {
			d.log.Warn("notification delivery failed",
				slog.String("id", n.ID),
				slog.String("operator", n.OperatorID),
				slog.Any("err", err))
		}
		cancel()
	}
}

var _ Sink = (*Dispatcher)(nil)
