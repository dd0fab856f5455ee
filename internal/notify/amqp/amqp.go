// Package amqp publishes notifications to a RabbitMQ topic exchange as JSON
// envelopes routed by notification kind.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/zulandar/switchboard/internal/notify"
)

const (
	// defaultRetryAttempts bounds the initial dial.
	defaultRetryAttempts = 5
	// defaultDelay is the first backoff between dial attempts.
	defaultDelay = time.Second
	// maxDelay caps the dial backoff.
	maxDelay = 60 * time.Second
)

// channel abstracts the amqp091.Channel methods we use.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// connection abstracts the amqp091.Connection methods we use.
type connection interface {
	Channel() (channel, error)
	Close() error
}

type realConnection struct {
	conn *amqp091.Connection
}

func (r *realConnection) Channel() (channel, error) { return r.conn.Channel() }
func (r *realConnection) Close() error              { return r.conn.Close() }

// Envelope is the message body published for each notification.
type Envelope struct {
	Meta         Meta                `json:"meta"`
	Notification notify.Notification `json:"notification"`
}

// Meta carries routing metadata alongside the payload.
type Meta struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Opts holds parameters for creating a Publisher.
type Opts struct {
	URL           string
	Exchange      string
	RetryAttempts int
	Delay         time.Duration
	Logger        *slog.Logger
	// For testing: inject a connection instead of dialing URL.
	Conn connection
}

// Publisher is a notify.Sink that publishes to a topic exchange.
type Publisher struct {
	conn     connection
	exchange string
	log      *slog.Logger
	now      func() time.Time
}

// New dials the broker, declares the exchange and returns a Publisher.
func New(ctx context.Context, opts Opts) (*Publisher, error) {
	if opts.Exchange == "" {
		return nil, fmt.Errorf("amqp: exchange is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	conn := opts.Conn
	if conn == nil {
		if opts.URL == "" {
			return nil, fmt.Errorf("amqp: url is required")
		}
		c, err := dialWithRetry(ctx, opts)
		if err != nil {
			return nil, err
		}
		conn = &realConnection{conn: c}
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp: declare exchange %s: %w", opts.Exchange, err)
	}

	return &Publisher{
		conn:     conn,
		exchange: opts.Exchange,
		log:      opts.Logger,
		now:      time.Now,
	}, nil
}

// RoutingKey returns the key a notification is published under.
func RoutingKey(n notify.Notification) string {
	return "notification." + string(n.Type)
}

// Deliver publishes n as a persistent JSON message.
func (p *Publisher) Deliver(ctx context.Context, n notify.Notification) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp: open channel: %w", err)
	}
	defer ch.Close()

	now := p.now()
	env := Envelope{
		Meta: Meta{
			ID:         uuid.NewString(),
			Source:     "switchboard",
			Type:       string(n.Type),
			OccurredAt: now,
		},
		Notification: n,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("amqp: marshal %s: %w", n.ID, err)
	}

	key := RoutingKey(n)
	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: n.ID,
		Timestamp:     now,
		Body:          body,
	})
	if err != nil {
		return fmt.Errorf("amqp: publish %s: %w", n.ID, err)
	}
	p.log.Debug("published", slog.String("key", key), slog.String("exchange", p.exchange))
	return nil
}

// Close closes the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}

// dialWithRetry connects with exponential backoff, honoring ctx.
func dialWithRetry(ctx context.Context, opts Opts) (*amqp091.Connection, error) {
	attempts := opts.RetryAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	delay := opts.Delay
	if delay <= 0 {
		delay = defaultDelay
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(opts.URL)
		if err == nil {
			if i > 1 {
				opts.Logger.Info("rabbit connected", slog.Int("attempt", i))
			}
			return conn, nil
		}
		lastErr = err
		if i == attempts {
			break
		}

		sleep := delay * time.Duration(math.Pow(2, float64(i-1)))
		if sleep > maxDelay {
			sleep = maxDelay
		}
		opts.Logger.Warn("rabbit dial failed",
			slog.Int("attempt", i),
			slog.Duration("sleep", sleep),
			slog.Any("err", err))

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(fmt.Errorf("amqp: dial cancelled"), ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("amqp: connect after %d attempts: %w", attempts, lastErr)
}

var _ notify.Sink = (*Publisher)(nil)
