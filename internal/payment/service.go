package payment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"payment-platform/internal/apperr"
	"payment-platform/internal/db"
	"payment-platform/internal/message"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var (
	createdCounter          = metrics.GetOrCreateCounter(`payments_created_total`)
	statusUpdatedCounter    = metrics.GetOrCreateCounter(`payment_status_updates_total{result="success"}`)
	statusRejectedCounter   = metrics.GetOrCreateCounter(`payment_status_updates_total{result="rejected"}`)
	statusNotFoundCounter   = metrics.GetOrCreateCounter(`payment_status_updates_total{result="not_found"}`)
	validationFailedCounter = metrics.GetOrCreateCounter(`payment_validation_failures_total`)
)

// Repository is the slice of db.PaymentRepository the service needs.
type Repository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, tx pgx.Tx, entity *db.PaymentEntity) (*db.PaymentEntity, error)
	GetByPaymentID(ctx context.Context, tenantID, paymentID string) (*db.PaymentEntity, error)
	SelectForUpdateByPaymentID(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*db.PaymentEntity, error)
	ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*db.PaymentEntity, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*db.PaymentEntity, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, entity *db.PaymentEntity) error
	CreateEvent(ctx context.Context, tx pgx.Tx, event *db.PaymentEventEntity) error
}

type CreateInput struct {
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CustomerID string          `json:"customerId"`
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create validates the input, persists a PENDING payment with a fresh
// tenant-scoped payment id and writes the payment.created outbox event in the
// same transaction.
func (s *Service) Create(ctx context.Context, tenantID string, input CreateInput) (*db.PaymentEntity, error) {
	if err := validateCreate(input); err != nil {
		validationFailedCounter.Inc()
		return nil, err
	}

	now := time.Now()
	entity := &db.PaymentEntity{
		ID:         uuid.New(),
		TenantID:   tenantID,
		PaymentID:  uuid.NewString(),
		Amount:     input.Amount,
		Currency:   strings.ToUpper(strings.TrimSpace(input.Currency)),
		CustomerID: strings.TrimSpace(input.CustomerID),
		Status:     db.PaymentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.repo.Create(ctx, tx, entity); err != nil {
		return nil, apperr.InternalErr(err)
	}
	if err := s.createEvent(ctx, tx, entity, message.EventPaymentCreated); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.InternalErr(err)
	}

	createdCounter.Inc()
	s.logger.InfoContext(ctx, "Created payment", "paymentId", entity.PaymentID, "customerId", entity.CustomerID)

	return entity, nil
}

func (s *Service) Get(ctx context.Context, tenantID, paymentID string) (*db.PaymentEntity, error) {
	entity, err := s.repo.GetByPaymentID(ctx, tenantID, paymentID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperr.NotFoundErr("payment %s not found", paymentID)
		}
		return nil, apperr.InternalErr(err)
	}
	return entity, nil
}

func (s *Service) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*db.PaymentEntity, error) {
	payments, err := s.repo.ListByCustomer(ctx, tenantID, customerID)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	if payments == nil {
		payments = []*db.PaymentEntity{}
	}
	return payments, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]*db.PaymentEntity, error) {
	payments, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	if payments == nil {
		payments = []*db.PaymentEntity{}
	}
	return payments, nil
}

// UpdateStatus moves the payment through the enforced transition graph and
// writes the payment.status_changed outbox event atomically with the update.
func (s *Service) UpdateStatus(ctx context.Context, tenantID, paymentID string, status db.PaymentStatus) (*db.PaymentEntity, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	defer tx.Rollback(ctx)

	entity, err := s.repo.SelectForUpdateByPaymentID(ctx, tx, tenantID, paymentID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			statusNotFoundCounter.Inc()
			return nil, apperr.NotFoundErr("payment %s not found", paymentID)
		}
		return nil, apperr.InternalErr(err)
	}

	if !CanTransition(entity.Status, status) {
		statusRejectedCounter.Inc()
		return nil, apperr.InvalidTransitionErr(string(entity.Status), string(status))
	}

	entity.Status = status
	entity.UpdatedAt = time.Now()

	if err := s.repo.UpdateStatus(ctx, tx, entity); err != nil {
		return nil, apperr.InternalErr(err)
	}
	if err := s.createEvent(ctx, tx, entity, message.EventPaymentStatusChanged); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.InternalErr(err)
	}

	statusUpdatedCounter.Inc()
	s.logger.InfoContext(ctx, "Updated payment status", "paymentId", paymentID, "status", status)

	return entity, nil
}

func (s *Service) createEvent(ctx context.Context, tx pgx.Tx, entity *db.PaymentEntity, eventType string) error {
	event := message.PaymentEvent{
		ID:       uuid.New(),
		Event:    eventType,
		TenantID: entity.TenantID,
		Payload: message.Payment{
			PaymentID:  entity.PaymentID,
			Amount:     entity.Amount,
			Currency:   entity.Currency,
			CustomerID: entity.CustomerID,
			Status:     string(entity.Status),
			CreatedAt:  entity.CreatedAt,
			UpdatedAt:  entity.UpdatedAt,
		},
	}

	payloadBytes, err := json.Marshal(event)
	if err != nil {
		return apperr.InternalErr(err)
	}

	now := time.Now()
	row := &db.PaymentEventEntity{
		ID:          event.ID,
		TenantID:    entity.TenantID,
		PaymentID:   entity.PaymentID,
		EventType:   eventType,
		Payload:     string(payloadBytes),
		CreatedAt:   now,
		ScheduledAt: &now,
	}

	if err := s.repo.CreateEvent(ctx, tx, row); err != nil {
		return apperr.InternalErr(err)
	}
	return nil
}

func validateCreate(input CreateInput) error {
	if !input.Amount.IsPositive() {
		return apperr.ValidationErr("amount must be greater than zero")
	}
	if strings.TrimSpace(input.Currency) == "" {
		return apperr.ValidationErr("currency is required")
	}
	if strings.TrimSpace(input.CustomerID) == "" {
		return apperr.ValidationErr("customerId is required")
	}
	return nil
}
