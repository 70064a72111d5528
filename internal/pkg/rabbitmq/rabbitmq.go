// Package rabbitmq opens the broker connection shared by the command consumer and the
// AMQP notifier.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	initialRetryDelay = time.Second
	maxRetryDelay     = 30 * time.Second
)

type Config struct {
	URL string
	// MaxAttempts bounds the dial loop; values below one mean a single attempt.
	MaxAttempts int
	// Prefetch is the channel QoS prefetch count.
	Prefetch int
}

// Connection owns one AMQP connection and channel.
type Connection struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Dial connects with a growing delay between attempts.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Connection, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url is required")
	}
	attempts := max(cfg.MaxAttempts, 1)
	logger = logger.With("component", "rabbitmq")

	delay := initialRetryDelay
	for attempt := 1; ; attempt++ {
		c, err := connect(cfg)
		if err == nil {
			logger.Info("connected", "attempt", attempt)
			c.logger = logger
			return c, nil
		}
		if attempt >= attempts {
			return nil, fmt.Errorf("connect after %d attempts: %w", attempt, err)
		}
		logger.Warn("connection attempt failed", "attempt", attempt, "max_attempts", attempts,
			"retry_in", delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay = nextDelay(delay)
	}
}

func nextDelay(d time.Duration) time.Duration {
	return min(time.Duration(float64(d)*1.5), maxRetryDelay)
}

func connect(cfg Config) (*Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if cfg.Prefetch > 0 {
		if err = ch.Qos(cfg.Prefetch, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set qos: %w", err)
		}
	}
	return &Connection{conn: conn, ch: ch}, nil
}

func (c *Connection) Channel() *amqp.Channel {
	return c.ch
}

// DeclareQueue declares a durable queue.
func (c *Connection) DeclareQueue(name string) error {
	if _, err := c.ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	return nil
}

// Consume starts a manual-ack consumer on queue.
func (c *Connection) Consume(queue, consumer string) (<-chan amqp.Delivery, error) {
	deliveries, err := c.ch.Consume(queue, consumer, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	c.logger.Info("consuming", "queue", queue)
	return deliveries, nil
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	err := errors.Join(c.ch.Close(), c.conn.Close())
	c.logger.Info("connection closed")
	return err
}
