package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/course-registration-api/internal/models"
)

// Type identifies a domain event.
type Type string

// Domain event types emitted by the registration core.
const (
	TypeRegistered       Type = "REGISTERED"
	TypeStatusUpdated    Type = "STATUS_UPDATED"
	TypeCancelled        Type = "CANCELLED"
	TypeWaitlistPromoted Type = "WAITLIST_PROMOTED"
)

// Event is a domain event value. Registration events carry the registration;
// WAITLIST_PROMOTED carries the promoted waitlist entry.
type Event struct {
	Type          Type                  `json:"type"`
	Registration  *models.Registration  `json:"registration,omitempty"`
	WaitlistEntry *models.WaitlistEntry `json:"waitlist_entry,omitempty"`
	OccurredAt    time.Time             `json:"occurred_at"`
}

// Sink receives domain events. Delivery is fire-and-forget from the core's
// point of view; sink errors are reported to the dispatcher, never to the
// operation that produced the event.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// LogSink writes events to the structured log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Publish logs the event.
func (s *LogSink) Publish(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String("type", string(event.Type)),
		zap.Time("occurred_at", event.OccurredAt),
	}
	if event.Registration != nil {
		fields = append(fields,
			zap.String("registration_id", event.Registration.ID),
			zap.String("student_id", event.Registration.StudentID),
			zap.String("course_id", event.Registration.CourseID),
			zap.String("status", string(event.Registration.Status)),
		)
	}
	if event.WaitlistEntry != nil {
		fields = append(fields,
			zap.String("waitlist_entry_id", event.WaitlistEntry.ID),
			zap.String("student_id", event.WaitlistEntry.StudentID),
			zap.String("course_id", event.WaitlistEntry.CourseID),
		)
	}
	s.logger.Info("domain_event", fields...)
	return nil
}

// RedisSink publishes events as JSON to a Redis pub/sub channel for
// downstream consumers (notification service, audit trail).
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink constructs a RedisSink.
func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

// Publish serialises and publishes the event.
func (s *RedisSink) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}

// MultiSink fans an event out to several sinks, returning the first error.
type MultiSink []Sink

// Publish delivers the event to every sink.
func (m MultiSink) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
