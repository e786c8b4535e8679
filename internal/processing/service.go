package processing

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"payment-platform/internal/apperr"
	"payment-platform/internal/db"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

var openedCounter = metrics.GetOrCreateCounter(`processing_requests_opened_total`)

// Repository is the slice of db.ProcessingRepository the service and runner
// need.
type Repository interface {
	Create(ctx context.Context, entity *db.ProcessingRequestEntity) (*db.ProcessingRequestEntity, error)
	GetByRequestID(ctx context.Context, tenantID, requestID string) (*db.ProcessingRequestEntity, error)
	ListByPayment(ctx context.Context, tenantID, paymentID string) ([]*db.ProcessingRequestEntity, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*db.ProcessingRequestEntity, error)
	ClaimPending(ctx context.Context, tenantID, requestID string) (bool, error)
	Finish(ctx context.Context, tenantID, requestID string, status db.ProcessingStatus, errorMessage *string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Open creates a PENDING processing request for the payment. The payment is
// referenced by value only; its existence is not verified.
func (s *Service) Open(ctx context.Context, tenantID, paymentID string) (*db.ProcessingRequestEntity, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, apperr.ValidationErr("paymentId is required")
	}

	now := time.Now()
	entity := &db.ProcessingRequestEntity{
		ID:        uuid.New(),
		TenantID:  tenantID,
		RequestID: uuid.NewString(),
		PaymentID: paymentID,
		Status:    db.ProcessingPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.repo.Create(ctx, entity); err != nil {
		return nil, apperr.InternalErr(err)
	}

	openedCounter.Inc()
	s.logger.InfoContext(ctx, "Opened processing request", "requestId", entity.RequestID, "paymentId", paymentID)

	return entity, nil
}

func (s *Service) Get(ctx context.Context, tenantID, requestID string) (*db.ProcessingRequestEntity, error) {
	entity, err := s.repo.GetByRequestID(ctx, tenantID, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNoRows) {
			return nil, apperr.NotFoundErr("processing request %s not found", requestID)
		}
		return nil, apperr.InternalErr(err)
	}
	return entity, nil
}

func (s *Service) ListByPayment(ctx context.Context, tenantID, paymentID string) ([]*db.ProcessingRequestEntity, error) {
	requests, err := s.repo.ListByPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	if requests == nil {
		requests = []*db.ProcessingRequestEntity{}
	}
	return requests, nil
}

func (s *Service) ListByTenant(ctx context.Context, tenantID string) ([]*db.ProcessingRequestEntity, error) {
	requests, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.InternalErr(err)
	}
	if requests == nil {
		requests = []*db.ProcessingRequestEntity{}
	}
	return requests, nil
}
