// Package queue carries attempt records over RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AttemptQueueName is the durable queue attempts are published to
const AttemptQueueName = "parsons.attempts"

const (
	// attemptTTL bounds how long an unconsumed attempt stays queued
	attemptTTL    = 24 * time.Hour
	maxReconnects = 10
)

// ErrNoChannel is returned when publishing while the broker is unreachable
var ErrNoChannel = errors.New("no open channel")

// Connection holds one AMQP connection and channel. When the broker drops
// the connection it is redialed in the background until Close.
type Connection struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel

	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection dials url and declares the attempt queue. A nil logger uses
// slog.Default.
func NewConnection(url string, logger *slog.Logger) (*Connection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Connection{url: url, logger: logger, done: make(chan struct{})}
	conn, err := c.dial()
	if err != nil {
		return nil, err
	}
	go c.supervise(conn)
	return c, nil
}

// dial opens a connection and channel, declares the queue and installs them
func (c *Connection) dial() (*amqp.Connection, error) {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(AttemptQueueName, true, false, false, false, amqp.Table{
		"x-message-ttl": int32(attemptTTL.Milliseconds()),
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare %s: %w", AttemptQueueName, err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, ch
	c.mu.Unlock()

	c.logger.Info("connected to RabbitMQ", "url", sanitizeURL(c.url))
	return conn, nil
}

// supervise redials whenever conn closes with an error
func (c *Connection) supervise(conn *amqp.Connection) {
	for {
		select {
		case <-c.done:
			return
		case amqpErr, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)):
			if !ok || amqpErr == nil {
				return
			}
			c.logger.Warn("RabbitMQ connection lost", "error", amqpErr)
		}

		next, ok := c.redial()
		if !ok {
			return
		}
		conn = next
	}
}

func (c *Connection) redial() (*amqp.Connection, bool) {
	for attempt := range maxReconnects {
		select {
		case <-c.done:
			return nil, false
		case <-time.After(backoff(attempt)):
		}
		conn, err := c.dial()
		if err == nil {
			c.logger.Info("reconnected to RabbitMQ", "attempts", attempt+1)
			return conn, true
		}
		c.logger.Error("reconnection failed", "attempt", attempt+1, "error", err)
	}
	c.logger.Error("giving up on RabbitMQ", "attempts", maxReconnects)
	return nil, false
}

// backoff doubles from one second up to thirty
func backoff(attempt int) time.Duration {
	return min(time.Second<<attempt, 30*time.Second)
}

// Channel returns the current channel or nil before the first dial
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Logger returns the logger the connection reports through
func (c *Connection) Logger() *slog.Logger {
	return c.logger
}

// IsConnected reports whether the underlying connection is open
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// Close stops reconnecting and closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.channel != nil {
			_ = c.channel.Close()
		}
		if c.conn != nil {
			err = c.conn.Close()
		}
	})
	return err
}

// PublishJSON publishes a persistent JSON message to a queue
func (c *Connection) PublishJSON(ctx context.Context, queue string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("publish to %s: %w", queue, ErrNoChannel)
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
}

// sanitizeURL drops credentials from an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "amqp://<invalid>"
	}
	u.User = nil
	return u.String()
}
