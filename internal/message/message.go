package message

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventPaymentCreated       = "payment.created"
	EventPaymentStatusChanged = "payment.status_changed"
)

// Payment is the snapshot carried inside a lifecycle event.
type Payment struct {
	PaymentID  string          `json:"paymentId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CustomerID string          `json:"customerId"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// PaymentEvent is what the outbox producer publishes to the payment-events
// topic, keyed by payment id.
type PaymentEvent struct {
	ID       uuid.UUID `json:"id"`
	Event    string    `json:"event"`
	TenantID string    `json:"tenantId"`
	Payload  Payment   `json:"payload"`
}
