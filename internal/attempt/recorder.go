package attempt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/parsons/internal/domain"
)

// Publisher hands attempts to an external broker
type Publisher interface {
	Publish(ctx context.Context, a Attempt) error
}

// RecorderConfig holds recorder configuration
type RecorderConfig struct {
	// Buffer is the number of attempts queued before new ones are dropped
	Buffer int

	// WriteTimeout bounds each store write or publish
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// Recorder subscribes to domain events and writes attempts off the request
// path. When a Publisher is set attempts go to the broker, otherwise they
// are written to the Store directly.
type Recorder struct {
	store     Store
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger

	ch        chan Attempt
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// NewRecorder creates a recorder and starts its writer goroutine. publisher
// may be nil.
func NewRecorder(store Store, publisher Publisher, cfg RecorderConfig) *Recorder {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	r := &Recorder{
		store:     store,
		publisher: publisher,
		timeout:   cfg.WriteTimeout,
		logger:    cfg.Logger,
		ch:        make(chan Attempt, cfg.Buffer),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Attach subscribes the recorder to every event of d
func (r *Recorder) Attach(d *domain.EventDispatcher) {
	d.SubscribeAll(r.Handle)
}

// Handle queues the attempt carried by e. It never blocks: when the buffer
// is full the attempt is dropped and logged.
func (r *Recorder) Handle(e domain.Event) {
	a, ok := FromEvent(e)
	if !ok {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- a:
	default:
		r.logger.Warn("attempt buffer full, dropping attempt",
			"problem_id", a.ProblemID,
			"kind", a.Kind)
	}
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for a := range r.ch {
		r.write(a)
	}
}

func (r *Recorder) write(a Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if r.publisher != nil {
		err := r.publisher.Publish(ctx, a)
		if err == nil {
			return
		}
		r.logger.Warn("publish attempt failed, writing locally", "problem_id", a.ProblemID, "error", err)
	}
	if r.store == nil {
		return
	}
	if err := r.store.Record(ctx, a); err != nil {
		r.logger.Error("record attempt failed", "problem_id", a.ProblemID, "kind", a.Kind, "error", err)
	}
}

// Close stops accepting attempts and waits for queued ones to be written
func (r *Recorder) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()
	})
	r.wg.Wait()
}
