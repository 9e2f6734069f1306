package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/walletwise/auth-server/internal/metrics"
)

const (
	defaultQueueSize   = 256
	defaultWorkers     = 2
	defaultSendTimeout = 15 * time.Second
)

// Dispatcher delivers messages in the background. Enqueue never blocks and
// never reports delivery problems to the caller; they are logged and counted.
type Dispatcher struct {
	mailer      Mailer
	queue       chan Message
	workers     int
	sendTimeout time.Duration
	logger      zerolog.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type DispatcherOption func(*Dispatcher)

func WithQueueSize(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan Message, n)
		}
	}
}

func WithWorkers(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithSendTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.sendTimeout = timeout
		}
	}
}

// NewDispatcher starts the worker goroutines. Call Close to drain and stop them.
func NewDispatcher(m Mailer, options ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		mailer:      m,
		queue:       make(chan Message, defaultQueueSize),
		workers:     defaultWorkers,
		sendTimeout: defaultSendTimeout,
		logger:      log.With().Str("component", "mail-dispatcher").Logger(),
	}
	for _, opt := range options {
		opt(d)
	}

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

// Enqueue schedules msg for delivery. It returns false if the message was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(msg, "dispatcher closed")
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.drop(msg, "queue full")
		return false
	}
}

// Close stops accepting messages and waits for queued ones to be attempted.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for msg := range d.queue {
		d.deliver(msg)
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), d.sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		metrics.EmailDeliveries.WithLabelValues("failed").Inc()
		d.logger.Warn().Err(err).Str("to", msg.To).Str("subject", msg.Subject).Msg("email delivery failed")
		return
	}
	metrics.EmailDeliveries.WithLabelValues("sent").Inc()
}

func (d *Dispatcher) drop(msg Message, reason string) {
	metrics.EmailDeliveries.WithLabelValues("dropped").Inc()
	d.logger.Warn().Str("to", msg.To).Str("reason", reason).Msg("email dropped")
}
