package processing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"payment-platform/internal/config"
	"payment-platform/internal/db"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
)

type fakeRepo struct {
	mu       sync.Mutex
	requests map[string]*db.ProcessingRequestEntity
	claims   int
	finishes int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{requests: make(map[string]*db.ProcessingRequestEntity)}
}

func (f *fakeRepo) Create(_ context.Context, entity *db.ProcessingRequestEntity) (*db.ProcessingRequestEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[entity.TenantID+"/"+entity.RequestID] = entity
	return entity, nil
}

func (f *fakeRepo) GetByRequestID(_ context.Context, tenantID, requestID string) (*db.ProcessingRequestEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entity, ok := f.requests[tenantID+"/"+requestID]
	if !ok {
		return nil, db.ErrNoRows
	}
	copied := *entity
	return &copied, nil
}

func (f *fakeRepo) ListByPayment(_ context.Context, tenantID, paymentID string) ([]*db.ProcessingRequestEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*db.ProcessingRequestEntity
	for _, entity := range f.requests {
		if entity.TenantID == tenantID && entity.PaymentID == paymentID {
			result = append(result, entity)
		}
	}
	return result, nil
}

func (f *fakeRepo) ListByTenant(_ context.Context, tenantID string) ([]*db.ProcessingRequestEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*db.ProcessingRequestEntity
	for _, entity := range f.requests {
		if entity.TenantID == tenantID {
			result = append(result, entity)
		}
	}
	return result, nil
}

func (f *fakeRepo) ClaimPending(_ context.Context, tenantID, requestID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims++
	entity, ok := f.requests[tenantID+"/"+requestID]
	if !ok || entity.Status != db.ProcessingPending {
		return false, nil
	}
	entity.Status = db.ProcessingInProgress
	return true, nil
}

func (f *fakeRepo) Finish(_ context.Context, tenantID, requestID string, status db.ProcessingStatus, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishes++
	entity, ok := f.requests[tenantID+"/"+requestID]
	if !ok {
		return db.ErrNoRows
	}
	entity.Status = status
	entity.ErrorMessage = errorMessage
	return nil
}

func (f *fakeRepo) pending(tenantID, requestID, paymentID string) {
	f.requests[tenantID+"/"+requestID] = &db.ProcessingRequestEntity{
		TenantID:  tenantID,
		RequestID: requestID,
		PaymentID: paymentID,
		Status:    db.ProcessingPending,
	}
}

func (f *fakeRepo) status(tenantID, requestID string) db.ProcessingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[tenantID+"/"+requestID].Status
}

func testConfig() config.Processing {
	return config.Processing{Parallelism: 4, WorkDurationMs: 1}
}

func TestRunMarksCompleted(t *testing.T) {
	repo := newFakeRepo()
	repo.pending("t1", "r1", "p1")

	sut := NewRunner(context.Background(), repo, nil, testConfig(), slog.Default())
	sut.Trigger("t1", "r1")

	assert.Eventually(t, func() bool {
		return repo.status("t1", "r1") == db.ProcessingCompleted
	}, time.Second, 5*time.Millisecond)
}

func TestRunRecordsWorkFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.pending("t1", "r1", "p1")

	sut := NewRunner(context.Background(), repo, nil, testConfig(), slog.Default())
	sut.work = func(context.Context) error { return errors.New("settlement rejected") }
	sut.Trigger("t1", "r1")

	assert.Eventually(t, func() bool {
		return repo.status("t1", "r1") == db.ProcessingFailed
	}, time.Second, 5*time.Millisecond)

	entity, err := repo.GetByRequestID(context.Background(), "t1", "r1")
	assert.NoError(t, err)
	assert.NotNil(t, entity.ErrorMessage)
	assert.Equal(t, "processing failed: settlement rejected", *entity.ErrorMessage)
}

func TestRunRecordsInterruption(t *testing.T) {
	repo := newFakeRepo()
	repo.pending("t1", "r1", "p1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sut := NewRunner(ctx, repo, nil, config.Processing{Parallelism: 1, WorkDurationMs: 60_000}, slog.Default())
	sut.Trigger("t1", "r1")

	assert.Eventually(t, func() bool {
		return repo.status("t1", "r1") == db.ProcessingFailed
	}, time.Second, 5*time.Millisecond)

	entity, err := repo.GetByRequestID(context.Background(), "t1", "r1")
	assert.NoError(t, err)
	assert.NotNil(t, entity.ErrorMessage)
	assert.Contains(t, *entity.ErrorMessage, "processing interrupted")
}

func TestDoubleTriggerRunsOnce(t *testing.T) {
	repo := newFakeRepo()
	repo.pending("t1", "r1", "p1")

	sut := NewRunner(context.Background(), repo, nil, testConfig(), slog.Default())
	sut.Trigger("t1", "r1")
	sut.Trigger("t1", "r1")

	assert.Eventually(t, func() bool {
		return repo.status("t1", "r1") == db.ProcessingCompleted
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.claims == 2
	}, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Equal(t, 1, repo.finishes)
}

func TestTriggerMissingRequestIsSwallowed(t *testing.T) {
	repo := newFakeRepo()

	sut := NewRunner(context.Background(), repo, nil, testConfig(), slog.Default())
	sut.Trigger("t1", "missing")

	assert.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.claims == 1
	}, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.Zero(t, repo.finishes)
}

func TestRunSendsCompletionWebhook(t *testing.T) {
	defer gock.Off()
	gock.New("http://example.com").
		Post("/webhook").
		Reply(200)

	repo := newFakeRepo()
	repo.pending("t1", "r1", "p1")

	webhook := NewWebhookSender("http://example.com/webhook", 1000, slog.Default())
	sut := NewRunner(context.Background(), repo, webhook, testConfig(), slog.Default())
	sut.Trigger("t1", "r1")

	assert.Eventually(t, func() bool {
		return gock.IsDone()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, db.ProcessingCompleted, repo.status("t1", "r1"))
}
