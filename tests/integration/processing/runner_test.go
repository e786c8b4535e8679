package processing

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"payment-platform/internal/config"
	"payment-platform/internal/db"
	"payment-platform/internal/processing"
	"payment-platform/tests/testhelpers"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type RunnerTestSuite struct {
	suite.Suite
	pgContainer *testhelpers.PostgresContainer
	pool        *pgxpool.Pool
	repo        *db.ProcessingRepository
	service     *processing.Service
	sut         *processing.Runner
	ctx         context.Context
}

func (s *RunnerTestSuite) SetupSuite() {
	time.Local = time.UTC

	s.ctx = context.Background()
	pgContainer, err := testhelpers.CreatePostgresContainer(s.ctx)
	if err != nil {
		log.Fatal(err)
	}
	s.pgContainer = pgContainer

	db.RunMigrations(pgContainer.ConnectionString, "../../../migrations/processor")

	pool, err := db.GetPool(pgContainer.ConnectionString)
	if err != nil {
		log.Fatal(err)
	}

	s.pool = pool
	s.repo = db.NewProcessingRepository(pool)
	s.service = processing.NewService(s.repo, slog.Default())
	s.sut = processing.NewRunner(s.ctx, s.repo, nil, config.Processing{
		Parallelism:    4,
		WorkDurationMs: 50,
	}, slog.Default())
}

func (s *RunnerTestSuite) TearDownSuite() {
	s.pool.Close()

	if err := s.pgContainer.Terminate(s.ctx); err != nil {
		log.Fatalf("error terminating postgres container: %s", err)
	}
}

func (s *RunnerTestSuite) SetupTest() {
	if _, err := s.pool.Exec(s.ctx, "DELETE FROM processing_requests"); err != nil {
		log.Fatalf("error truncating processing_requests table: %s", err)
	}
}

func (s *RunnerTestSuite) TestRunEndsCompleted() {
	t := s.T()

	opened, err := s.service.Open(s.ctx, "t1", "p1")
	assert.NoError(t, err)

	s.sut.Trigger("t1", opened.RequestID)

	assert.Eventually(t, func() bool {
		found, err := s.repo.GetByRequestID(s.ctx, "t1", opened.RequestID)
		return err == nil && found.Status == db.ProcessingCompleted
	}, 5*time.Second, 20*time.Millisecond)

	found, err := s.repo.GetByRequestID(s.ctx, "t1", opened.RequestID)
	assert.NoError(t, err)
	assert.Nil(t, found.ErrorMessage)
}

func (s *RunnerTestSuite) TestConcurrentTriggersLeaveConsistentState() {
	t := s.T()

	opened, err := s.service.Open(s.ctx, "t1", "p1")
	assert.NoError(t, err)

	for range 4 {
		s.sut.Trigger("t1", opened.RequestID)
	}

	assert.Eventually(t, func() bool {
		found, err := s.repo.GetByRequestID(s.ctx, "t1", opened.RequestID)
		return err == nil && (found.Status == db.ProcessingCompleted || found.Status == db.ProcessingFailed)
	}, 5*time.Second, 20*time.Millisecond)

	// only the first trigger claims the request; the rest are skipped and the
	// terminal state stays stable
	time.Sleep(200 * time.Millisecond)
	found, err := s.repo.GetByRequestID(s.ctx, "t1", opened.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, db.ProcessingCompleted, found.Status)
}

func (s *RunnerTestSuite) TestTriggerUnknownRequestIsSwallowed() {
	t := s.T()

	s.sut.Trigger("t1", "missing-request")

	time.Sleep(200 * time.Millisecond)
	requests, err := s.repo.ListByTenant(s.ctx, "t1")
	assert.NoError(t, err)
	assert.Empty(t, requests)
}

func TestRunnerTestSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}
