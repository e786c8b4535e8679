package event

import (
	"context"
	"log/slog"
	"time"

	"payment-platform/internal/config"
	"payment-platform/internal/db"
	"payment-platform/internal/logcontext"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/segmentio/kafka-go"
)

const (
	defaultPollingIntervalMs  = 500
	defaultFetchSize          = 200
	defaultRescheduleDelayMs  = 10_000
	defaultMaxPublishAttempts = 3
)

var (
	// producer batch metrics
	producerErrorFetchingCounter = metrics.GetOrCreateCounter(`payment_event_producer_total{result="fetching_failed"}`)
	producerErrorKafkaCounter    = metrics.GetOrCreateCounter(`payment_event_producer_total{result="publish_failed"}`)
	producerErrorUpdateCounter   = metrics.GetOrCreateCounter(`payment_event_producer_total{result="db_update_failed"}`)
	producerSuccessCounter       = metrics.GetOrCreateCounter(`payment_event_producer_total{result="success"}`)

	producerProcessDurationHistogram = metrics.GetOrCreateHistogram(`payment_event_producer_duration_milliseconds`)

	// producer per message metrics
	producerMessagesPublishedCounter   = metrics.GetOrCreateCounter(`payment_event_producer_messages_total{result="published"}`)
	producerMessagesMaxAttemptsCounter = metrics.GetOrCreateCounter(`payment_event_producer_messages_total{result="max_attempts_reached"}`)
	producerMessagesRescheduledCounter = metrics.GetOrCreateCounter(`payment_event_producer_messages_total{result="rescheduled"}`)
)

// OutboxRepository is the slice of db.PaymentRepository the producer needs.
type OutboxRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*db.PaymentEventEntity, error)
	UpdateEvent(ctx context.Context, tx pgx.Tx, event *db.PaymentEventEntity) error
}

// Producer drains the payment_event outbox into Kafka. Events are published
// keyed by payment id so per-payment ordering is preserved.
type Producer struct {
	repo               OutboxRepository
	writer             *kafka.Writer
	pollingInterval    time.Duration
	fetchSize          int
	rescheduleDelay    time.Duration
	maxPublishAttempts int
	logger             *slog.Logger
}

func NewProducer(repo OutboxRepository, writer *kafka.Writer, cfg config.EventProducer, logger *slog.Logger) *Producer {
	pollingIntervalMs := cfg.PollingIntervalMs
	if pollingIntervalMs <= 0 {
		pollingIntervalMs = defaultPollingIntervalMs
	}
	fetchSize := cfg.FetchSize
	if fetchSize <= 0 {
		fetchSize = defaultFetchSize
	}
	rescheduleDelayMs := cfg.RescheduleDelayMs
	if rescheduleDelayMs <= 0 {
		rescheduleDelayMs = defaultRescheduleDelayMs
	}
	maxPublishAttempts := cfg.MaxPublishAttempts
	if maxPublishAttempts <= 0 {
		maxPublishAttempts = defaultMaxPublishAttempts
	}

	return &Producer{
		repo:               repo,
		writer:             writer,
		pollingInterval:    time.Duration(pollingIntervalMs) * time.Millisecond,
		fetchSize:          fetchSize,
		rescheduleDelay:    time.Duration(rescheduleDelayMs) * time.Millisecond,
		maxPublishAttempts: maxPublishAttempts,
		logger:             logger,
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(p.pollingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.process(ctx)
			case <-ctx.Done():
				p.logger.InfoContext(ctx, "Context done, stopping producer")
				return
			}
		}
	}()
}

func (p *Producer) process(ctx context.Context) {
	startTime := time.Now()

	// runId correlates all logs of one polling pass
	ctx = logcontext.AppendCtx(ctx, slog.String("runId", uuid.New().String()))

	tx, err := p.repo.BeginTx(ctx)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error starting transaction", "error", err)
		producerErrorFetchingCounter.Inc()
		return
	}

	defer tx.Rollback(ctx)

	events, err := p.repo.GetUnpublishedEvents(ctx, tx, p.fetchSize)
	if err != nil {
		p.logger.ErrorContext(ctx, "Error fetching unpublished events", "error", err)
		producerErrorFetchingCounter.Inc()
		return
	}

	if len(events) == 0 {
		producerSuccessCounter.Inc()
		return
	}

	p.logger.InfoContext(ctx, "Publishing payment events", "count", len(events))

	writeErr := p.writer.WriteMessages(ctx, p.toKafkaMessages(ctx, events)...)
	if writeErr != nil {
		p.logger.ErrorContext(ctx, "Error writing messages to Kafka", "error", writeErr)
		producerErrorKafkaCounter.Inc()
	}

	now := time.Now()
	for _, event := range events {
		eventCtx := logcontext.AppendCtx(ctx, slog.String("id", event.ID.String()))

		event.PublishAttempts++

		if writeErr != nil {
			errMsg := writeErr.Error()
			event.Error = &errMsg

			if event.PublishAttempts >= p.maxPublishAttempts {
				p.logger.WarnContext(eventCtx, "Max publish attempts reached for event")
				event.ScheduledAt = nil

				producerMessagesMaxAttemptsCounter.Inc()
			} else {
				scheduledAt := now.Add(time.Duration(event.PublishAttempts) * p.rescheduleDelay)
				event.ScheduledAt = &scheduledAt

				producerMessagesRescheduledCounter.Inc()
			}
		} else {
			event.ScheduledAt = nil
			event.Error = nil
			publishedAt := now
			event.PublishedAt = &publishedAt

			producerMessagesPublishedCounter.Inc()
		}

		if err := p.repo.UpdateEvent(eventCtx, tx, event); err != nil {
			p.logger.ErrorContext(eventCtx, "Error updating event", "error", err)
			producerErrorUpdateCounter.Inc()
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		p.logger.ErrorContext(ctx, "Error committing transaction", "error", err)
		producerErrorUpdateCounter.Inc()
	} else {
		producerSuccessCounter.Inc()
	}

	producerProcessDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
}

func (p *Producer) toKafkaMessages(ctx context.Context, events []*db.PaymentEventEntity) []kafka.Message {
	var kafkaMessages []kafka.Message

	for _, event := range events {
		p.logger.DebugContext(ctx, "Preparing Kafka message for event", "id", event.ID)

		kafkaMessages = append(kafkaMessages, kafka.Message{
			// payment id as key keeps per-payment ordering
			Key:   []byte(event.PaymentID),
			Value: []byte(event.Payload),
		})
	}
	return kafkaMessages
}
