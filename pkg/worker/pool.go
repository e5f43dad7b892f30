// Package worker provides an asynchronous worker pool for publishing decoded
// conversation messages through an eventstream.Publisher.
//
// The pool decouples publishing from the decode hot path so that slow or
// unreachable downstream brokers never stall a live stream.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/papercomputeco/spool/pkg/eventstream"
	"github.com/papercomputeco/spool/pkg/llm"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Dialect  string
	Messages []llm.Message
	Usage    llm.Usage
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Publisher receives the decoded-message events.
	Publisher eventstream.Publisher

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// Pool publishes decode results asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Publisher == nil {
		return nil, fmt.Errorf("a publisher is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"dialect", job.Dialect,
			"messages", len(job.Messages),
		)
		return true
	default:
		p.logger.Error("job not queued, queue full, job dropped",
			"dialect", job.Dialect,
			"messages", len(job.Messages),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the decode loop has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("publish worker stopped", "worker_id", id)
}

// processJob publishes a decoded-message event built from the job.
func (p *Pool) processJob(job Job) {
	ctx := context.Background()

	event := eventstream.NewMessageDecodedEvent(job.Dialect, job.Messages, &job.Usage)

	if err := p.config.Publisher.PublishMessage(ctx, event); err != nil {
		p.logger.Error("async publish failed",
			"event_id", event.EventID,
			"dialect", job.Dialect,
			"error", err,
		)
		return
	}

	p.logger.Info("decode result published",
		"event_id", event.EventID,
		"dialect", job.Dialect,
		"messages", len(job.Messages),
	)
}
