package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/parsons/internal/attempt"
)

// AttemptHandler processes one consumed attempt
type AttemptHandler func(ctx context.Context, a attempt.Attempt) error

// StoreHandler writes consumed attempts into store
func StoreHandler(store attempt.Store) AttemptHandler {
	return store.Record
}

// ConsumerConfig holds consumer configuration
type ConsumerConfig struct {
	Workers  int           // concurrent workers
	Prefetch int           // unacked deliveries per channel
	Timeout  time.Duration // per-message handler timeout
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Workers:  2,
		Prefetch: 10,
		Timeout:  10 * time.Second,
	}
}

// Consumer drains the attempt queue into an AttemptHandler
type Consumer struct {
	conn    *Connection
	handler AttemptHandler
	logger  *slog.Logger

	workers  int
	prefetch int
	timeout  time.Duration

	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

func NewConsumer(conn *Connection, handler AttemptHandler, cfg ConsumerConfig) *Consumer {
	def := DefaultConsumerConfig()
	c := &Consumer{
		conn:     conn,
		handler:  handler,
		logger:   slog.Default(),
		workers:  def.Workers,
		prefetch: def.Prefetch,
		timeout:  def.Timeout,
	}
	if conn != nil {
		c.logger = conn.Logger()
	}
	if cfg.Workers > 0 {
		c.workers = cfg.Workers
	}
	if cfg.Prefetch > 0 {
		c.prefetch = cfg.Prefetch
	}
	if cfg.Timeout > 0 {
		c.timeout = cfg.Timeout
	}
	return c
}

// Start subscribes to the attempt queue and launches the workers. It
// returns once consumption has begun.
func (c *Consumer) Start(ctx context.Context) error {
	ch := c.conn.Channel()
	if ch == nil {
		return ErrNoChannel
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := ch.Consume(AttemptQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", AttemptQueueName, err)
	}

	ctx, c.cancelFunc = context.WithCancel(ctx)
	c.logger.Info("starting attempt consumer", "workers", c.workers, "prefetch", c.prefetch)
	for id := range c.workers {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.work(ctx, id, msgs)
		}()
	}
	return nil
}

func (c *Consumer) work(ctx context.Context, id int, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Info("attempt deliveries closed", "worker_id", id)
				return
			}
			c.processMessage(ctx, id, msg)
		}
	}
}

// processMessage acks stored attempts, rejects malformed ones and requeues
// a failed write once
func (c *Consumer) processMessage(ctx context.Context, workerID int, msg amqp.Delivery) {
	log := c.logger.With("worker_id", workerID)

	var a attempt.Attempt
	if err := json.Unmarshal(msg.Body, &a); err != nil {
		log.Error("malformed attempt message", "error", err)
		_ = msg.Reject(false)
		return
	}
	log = log.With("attempt_id", a.ID, "problem_id", a.ProblemID)

	hctx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.handler(hctx, a)
	cancel()

	switch {
	case err == nil:
		if err := msg.Ack(false); err != nil {
			log.Error("ack attempt failed", "error", err)
		}
	case msg.Redelivered:
		log.Error("attempt handler failed again, dropping", "error", err)
		_ = msg.Nack(false, false)
	default:
		log.Warn("attempt handler failed, requeueing", "error", err)
		_ = msg.Nack(false, true)
	}
}

// Stop cancels the workers and waits for in-flight messages
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	if c.logger != nil {
		c.logger.Info("attempt consumer stopped")
	}
}
