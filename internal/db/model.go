package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
)

type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "PENDING"
	ProcessingInProgress ProcessingStatus = "IN_PROGRESS"
	ProcessingCompleted  ProcessingStatus = "COMPLETED"
	ProcessingFailed     ProcessingStatus = "FAILED"
)

// PaymentEntity is a payment record. PaymentID is the tenant-scoped business
// id; ID is the synthetic primary key.
type PaymentEntity struct {
	ID         uuid.UUID       `json:"-"`
	TenantID   string          `json:"tenantId"`
	PaymentID  string          `json:"paymentId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CustomerID string          `json:"customerId"`
	Status     PaymentStatus   `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ProcessingRequestEntity tracks one unit of simulated settlement work.
// PaymentID references a payment by value only; no foreign key.
type ProcessingRequestEntity struct {
	ID           uuid.UUID        `json:"-"`
	TenantID     string           `json:"tenantId"`
	RequestID    string           `json:"requestId"`
	PaymentID    string           `json:"paymentId"`
	Status       ProcessingStatus `json:"status"`
	ErrorMessage *string          `json:"errorMessage,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// PaymentEventEntity is an outbox row written in the same transaction as the
// payment mutation it describes.
type PaymentEventEntity struct {
	ID              uuid.UUID
	TenantID        string
	PaymentID       string
	EventType       string
	Payload         string
	CreatedAt       time.Time
	ScheduledAt     *time.Time
	PublishedAt     *time.Time
	PublishAttempts int
	Error           *string
}
