package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"payment-platform/internal/config"

	"github.com/VictoriaMetrics/metrics"
	"github.com/segmentio/kafka-go"
)

type readerMetrics struct {
	readErrorCounter    *metrics.Counter
	processErrorCounter *metrics.Counter
	successCounter      *metrics.Counter
}

var paymentEventMetrics = readerMetrics{
	readErrorCounter:    metrics.GetOrCreateCounter(`kafka_reader_total{result="read_error",type="payment_event"}`),
	processErrorCounter: metrics.GetOrCreateCounter(`kafka_reader_total{result="process_error",type="payment_event"}`),
	successCounter:      metrics.GetOrCreateCounter(`kafka_reader_total{result="success",type="payment_event"}`),
}

func NewReader(cfg config.Kafka) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.Broker.URL, ","),
		GroupID: cfg.Reader.GroupID,
		Topic:   cfg.Topic.PaymentEvents,
	})
}

// ReadPaymentEvents consumes the payment-events topic until the context is
// cancelled. Unmarshal and process failures are counted and skipped; they are
// marked by the process callback reporting an error.
func ReadPaymentEvents(ctx context.Context, reader *kafka.Reader, logger *slog.Logger, process func(context.Context, []byte) error) {
	go func() {
		for {
			logger.InfoContext(ctx, "Waiting for messages from Kafka...")
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.InfoContext(ctx, "Context done, stopping payment event reader")
					return
				}
				logger.ErrorContext(ctx, fmt.Sprintf("Error reading message: %v", err))
				paymentEventMetrics.readErrorCounter.Inc()
				continue
			}
			logger.InfoContext(ctx, fmt.Sprintf("Received message: %s from topic %s", string(m.Value), m.Topic))

			if err := process(ctx, m.Value); err != nil {
				logger.ErrorContext(ctx, fmt.Sprintf("Error processing message: %v", err))
				paymentEventMetrics.processErrorCounter.Inc()
				continue
			}
			paymentEventMetrics.successCounter.Inc()
		}
	}()
}
