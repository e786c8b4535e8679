package event

import (
	"context"
	"encoding/json"
	"log/slog"

	"payment-platform/internal/db"
	"payment-platform/internal/message"

	"github.com/VictoriaMetrics/metrics"
)

var (
	intakeUnmarshalErrorCounter = metrics.GetOrCreateCounter(`payment_event_intake_total{result="unmarshal_error"}`)
	intakeOpenErrorCounter      = metrics.GetOrCreateCounter(`payment_event_intake_total{result="open_error"}`)
	intakeSkippedCounter        = metrics.GetOrCreateCounter(`payment_event_intake_total{result="skipped"}`)
	intakeOpenedCounter         = metrics.GetOrCreateCounter(`payment_event_intake_total{result="opened"}`)
)

// Opener opens a processing request for a payment; implemented by
// processing.Service.
type Opener interface {
	Open(ctx context.Context, tenantID, paymentID string) (*db.ProcessingRequestEntity, error)
}

// Intake turns consumed payment.created events into processing requests.
// Other event types are acknowledged and skipped.
type Intake struct {
	opener Opener
	logger *slog.Logger
}

func NewIntake(opener Opener, logger *slog.Logger) *Intake {
	return &Intake{opener: opener, logger: logger}
}

func (i *Intake) Process(ctx context.Context, value []byte) error {
	var event message.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		i.logger.ErrorContext(ctx, "Error unmarshalling payment event", "error", err)
		intakeUnmarshalErrorCounter.Inc()
		return err
	}

	if event.Event != message.EventPaymentCreated {
		intakeSkippedCounter.Inc()
		return nil
	}

	entity, err := i.opener.Open(ctx, event.TenantID, event.Payload.PaymentID)
	if err != nil {
		i.logger.ErrorContext(ctx, "Error opening processing request for event", "error", err, "eventId", event.ID)
		intakeOpenErrorCounter.Inc()
		return err
	}

	intakeOpenedCounter.Inc()
	i.logger.InfoContext(ctx, "Opened processing request from event",
		"eventId", event.ID, "requestId", entity.RequestID, "paymentId", entity.PaymentID)
	return nil
}
