package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/pkg/jobs"
)

// Dispatcher decouples event production from delivery: operations append
// events synchronously and a worker pool drives the sinks. A failed delivery
// is retried by the queue and ultimately logged, never surfaced to the
// operation that emitted the event.
type Dispatcher struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// DispatcherConfig tunes the underlying queue.
type DispatcherConfig struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// NewDispatcher builds a dispatcher that delivers events to sink.
func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job jobs.Job) error {
		event, ok := job.Payload.(Event)
		if !ok {
			logger.Warn("dropping malformed event job", zap.String("job_id", job.ID))
			return nil
		}
		return sink.Publish(ctx, event)
	}
	queue := jobs.NewQueue("domain-events", handler, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return &Dispatcher{queue: queue, logger: logger}
}

// Start launches the delivery workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop drains the workers.
func (d *Dispatcher) Stop() {
	d.queue.Stop()
}

// Publish enqueues the event for asynchronous delivery. Enqueue failures are
// logged and swallowed: event delivery must never fail a registration.
func (d *Dispatcher) Publish(_ context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    string(event.Type),
		Payload: event,
	}
	if err := d.queue.Enqueue(job); err != nil {
		d.logger.Warn("failed to enqueue domain event",
			zap.String("type", string(event.Type)), zap.Error(err))
	}
	return nil
}
