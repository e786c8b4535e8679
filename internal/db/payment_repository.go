package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// ErrNoRows signals that no record matched the tenant-scoped key.
var ErrNoRows = pgx.ErrNoRows

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *PaymentRepository) Create(ctx context.Context, tx pgx.Tx, entity *PaymentEntity) (*PaymentEntity, error) {
	query := `INSERT INTO payments (id, tenant_id, payment_id, amount, currency, customer_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.Exec(ctx, query, entity.ID, entity.TenantID, entity.PaymentID, entity.Amount,
		entity.Currency, entity.CustomerID, entity.Status, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "inserting payment")
	}
	return entity, nil
}

const paymentColumns = `id, tenant_id, payment_id, amount, currency, customer_id, status, created_at, updated_at`

func scanPayment(row pgx.Row) (*PaymentEntity, error) {
	var entity PaymentEntity
	err := row.Scan(&entity.ID, &entity.TenantID, &entity.PaymentID, &entity.Amount,
		&entity.Currency, &entity.CustomerID, &entity.Status, &entity.CreatedAt, &entity.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, tenantID, paymentID string) (*PaymentEntity, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 AND payment_id = $2`
	return scanPayment(r.pool.QueryRow(ctx, query, tenantID, paymentID))
}

// SelectForUpdateByPaymentID locks the row for the status-update transaction.
func (r *PaymentRepository) SelectForUpdateByPaymentID(ctx context.Context, tx pgx.Tx, tenantID, paymentID string) (*PaymentEntity, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 AND payment_id = $2 FOR UPDATE`
	return scanPayment(tx.QueryRow(ctx, query, tenantID, paymentID))
}

func (r *PaymentRepository) listPayments(ctx context.Context, query string, args ...any) ([]*PaymentEntity, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	defer rows.Close()

	var payments []*PaymentEntity
	for rows.Next() {
		entity, err := scanPayment(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning payment row")
		}
		payments = append(payments, entity)
	}
	return payments, rows.Err()
}

func (r *PaymentRepository) ListByCustomer(ctx context.Context, tenantID, customerID string) ([]*PaymentEntity, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1 AND customer_id = $2`
	return r.listPayments(ctx, query, tenantID, customerID)
}

func (r *PaymentRepository) ListByTenant(ctx context.Context, tenantID string) ([]*PaymentEntity, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tenant_id = $1`
	return r.listPayments(ctx, query, tenantID)
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, entity *PaymentEntity) error {
	query := `UPDATE payments SET status = $3, updated_at = $4 WHERE tenant_id = $1 AND payment_id = $2`
	_, err := tx.Exec(ctx, query, entity.TenantID, entity.PaymentID, entity.Status, entity.UpdatedAt)
	return errors.Wrap(err, "updating payment status")
}

func (r *PaymentRepository) CreateEvent(ctx context.Context, tx pgx.Tx, event *PaymentEventEntity) error {
	query := `INSERT INTO payment_event (id, tenant_id, payment_id, event_type, payload, created_at, scheduled_at, publish_attempts)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.Exec(ctx, query, event.ID, event.TenantID, event.PaymentID, event.EventType,
		event.Payload, event.CreatedAt, event.ScheduledAt, event.PublishAttempts)
	return errors.Wrap(err, "inserting payment event")
}

// GetUnpublishedEvents fetches due outbox rows, skipping rows locked by a
// concurrent producer instance.
func (r *PaymentRepository) GetUnpublishedEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*PaymentEventEntity, error) {
	query := `SELECT id, tenant_id, payment_id, event_type, payload, created_at, scheduled_at, published_at, publish_attempts, error
	          FROM payment_event
	          WHERE published_at IS NULL AND scheduled_at IS NOT NULL AND scheduled_at <= now()
	          ORDER BY created_at
	          LIMIT $1
	          FOR UPDATE SKIP LOCKED`
	rows, err := tx.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying unpublished events")
	}
	defer rows.Close()

	var events []*PaymentEventEntity
	for rows.Next() {
		var event PaymentEventEntity
		err := rows.Scan(&event.ID, &event.TenantID, &event.PaymentID, &event.EventType, &event.Payload,
			&event.CreatedAt, &event.ScheduledAt, &event.PublishedAt, &event.PublishAttempts, &event.Error)
		if err != nil {
			return nil, errors.Wrap(err, "scanning payment event row")
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (r *PaymentRepository) UpdateEvent(ctx context.Context, tx pgx.Tx, event *PaymentEventEntity) error {
	query := `UPDATE payment_event SET scheduled_at = $2, published_at = $3, publish_attempts = $4, error = $5 WHERE id = $1`
	_, err := tx.Exec(ctx, query, event.ID, event.ScheduledAt, event.PublishedAt, event.PublishAttempts, event.Error)
	return errors.Wrap(err, "updating payment event")
}
