package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

type ProcessingRepository struct {
	pool *pgxpool.Pool
}

func NewProcessingRepository(pool *pgxpool.Pool) *ProcessingRepository {
	return &ProcessingRepository{pool: pool}
}

func (r *ProcessingRepository) Create(ctx context.Context, entity *ProcessingRequestEntity) (*ProcessingRequestEntity, error) {
	query := `INSERT INTO processing_requests (id, tenant_id, request_id, payment_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query, entity.ID, entity.TenantID, entity.RequestID, entity.PaymentID,
		entity.Status, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "inserting processing request")
	}
	return entity, nil
}

const processingColumns = `id, tenant_id, request_id, payment_id, status, error_message, created_at, updated_at`

func scanProcessingRequest(row pgx.Row) (*ProcessingRequestEntity, error) {
	var entity ProcessingRequestEntity
	err := row.Scan(&entity.ID, &entity.TenantID, &entity.RequestID, &entity.PaymentID,
		&entity.Status, &entity.ErrorMessage, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *ProcessingRepository) GetByRequestID(ctx context.Context, tenantID, requestID string) (*ProcessingRequestEntity, error) {
	query := `SELECT ` + processingColumns + ` FROM processing_requests WHERE tenant_id = $1 AND request_id = $2`
	return scanProcessingRequest(r.pool.QueryRow(ctx, query, tenantID, requestID))
}

func (r *ProcessingRepository) listRequests(ctx context.Context, query string, args ...any) ([]*ProcessingRequestEntity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying processing requests")
	}
	defer rows.Close()

	var requests []*ProcessingRequestEntity
	for rows.Next() {
		entity, err := scanProcessingRequest(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning processing request row")
		}
		requests = append(requests, entity)
	}
	return requests, rows.Err()
}

func (r *ProcessingRepository) ListByPayment(ctx context.Context, tenantID, paymentID string) ([]*ProcessingRequestEntity, error) {
	query := `SELECT ` + processingColumns + ` FROM processing_requests WHERE tenant_id = $1 AND payment_id = $2`
	return r.listRequests(ctx, query, tenantID, paymentID)
}

func (r *ProcessingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*ProcessingRequestEntity, error) {
	query := `SELECT ` + processingColumns + ` FROM processing_requests WHERE tenant_id = $1`
	return r.listRequests(ctx, query, tenantID)
}

// ClaimPending conditionally moves the request from PENDING to IN_PROGRESS.
// Returns false when the request is absent, already running, or terminal, so
// concurrent triggers for the same request id cannot interleave.
func (r *ProcessingRepository) ClaimPending(ctx context.Context, tenantID, requestID string) (bool, error) {
	query := `UPDATE processing_requests SET status = $3, updated_at = $4
	          WHERE tenant_id = $1 AND request_id = $2 AND status = $5`
	tag, err := r.pool.Exec(ctx, query, tenantID, requestID, ProcessingInProgress, time.Now(), ProcessingPending)
	if err != nil {
		return false, errors.Wrap(err, "claiming processing request")
	}
	return tag.RowsAffected() == 1, nil
}

// Finish records the terminal state of a run.
func (r *ProcessingRepository) Finish(ctx context.Context, tenantID, requestID string, status ProcessingStatus, errorMessage *string) error {
	query := `UPDATE processing_requests SET status = $3, error_message = $4, updated_at = $5
	          WHERE tenant_id = $1 AND request_id = $2`
	_, err := r.pool.Exec(ctx, query, tenantID, requestID, status, errorMessage, time.Now())
	return errors.Wrap(err, "finishing processing request")
}
