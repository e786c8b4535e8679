package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"payment-platform/internal/config"
	"payment-platform/internal/db"
	"payment-platform/internal/logcontext"

	"github.com/VictoriaMetrics/metrics"
)

const (
	defaultParallelism    = 100
	defaultWorkDurationMs = 1000
)

var (
	runCompletedCounter  = metrics.GetOrCreateCounter(`processing_runs_total{result="completed"}`)
	runFailedCounter     = metrics.GetOrCreateCounter(`processing_runs_total{result="failed"}`)
	runSkippedCounter    = metrics.GetOrCreateCounter(`processing_runs_total{result="skipped"}`)
	runClaimErrorCounter = metrics.GetOrCreateCounter(`processing_runs_total{result="claim_error"}`)

	runDurationHistogram = metrics.GetOrCreateHistogram(`processing_run_duration_milliseconds`)
)

// Runner executes processing runs on background goroutines, bounded by a
// semaphore. The caller of Trigger only learns that a run was scheduled;
// every outcome is recorded on the entity itself.
type Runner struct {
	repo     Repository
	webhook  *WebhookSender
	sem      chan struct{}
	duration time.Duration
	work     func(ctx context.Context) error
	logger   *slog.Logger

	// base is the service lifecycle context. Runs must not die with the HTTP
	// request that triggered them.
	base context.Context
}

func NewRunner(base context.Context, repo Repository, webhook *WebhookSender, cfg config.Processing, logger *slog.Logger) *Runner {
	parallelism := cfg.Parallelism
	if parallelism <= 0 {
		parallelism = defaultParallelism
	}
	durationMs := cfg.WorkDurationMs
	if durationMs <= 0 {
		durationMs = defaultWorkDurationMs
	}

	r := &Runner{
		repo:     repo,
		webhook:  webhook,
		sem:      make(chan struct{}, parallelism),
		duration: time.Duration(durationMs) * time.Millisecond,
		logger:   logger,
		base:     base,
	}
	r.work = r.simulateSettlement
	return r
}

// Trigger schedules a run and returns immediately. Scheduling success says
// nothing about the run's outcome.
func (r *Runner) Trigger(tenantID, requestID string) {
	r.sem <- struct{}{}
	go func() {
		defer func() { <-r.sem }()
		r.run(tenantID, requestID)
	}()
}

func (r *Runner) run(tenantID, requestID string) {
	start := time.Now()
	ctx := logcontext.AppendCtx(r.base,
		slog.String("tenantId", tenantID),
		slog.String("requestId", requestID),
	)

	claimed, err := r.repo.ClaimPending(ctx, tenantID, requestID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error claiming processing request", "error", err)
		runClaimErrorCounter.Inc()
		return
	}
	if !claimed {
		// Absent, already running, or terminal. The trigger endpoint has
		// already acknowledged, so this is only observable on the entity.
		r.logger.WarnContext(ctx, "Processing request not claimable, skipping run")
		runSkippedCounter.Inc()
		return
	}

	r.logger.InfoContext(ctx, "Processing request claimed, starting work")

	var status db.ProcessingStatus
	var errorMessage *string

	switch err := r.work(ctx); {
	case err == nil:
		status = db.ProcessingCompleted
		runCompletedCounter.Inc()
		r.logger.InfoContext(ctx, "Processing completed")
	case ctx.Err() != nil:
		status = db.ProcessingFailed
		msg := fmt.Sprintf("processing interrupted: %v", ctx.Err())
		errorMessage = &msg
		runFailedCounter.Inc()
		r.logger.ErrorContext(ctx, "Processing interrupted", "error", ctx.Err())
	default:
		status = db.ProcessingFailed
		msg := fmt.Sprintf("processing failed: %v", err)
		errorMessage = &msg
		runFailedCounter.Inc()
		r.logger.ErrorContext(ctx, "Processing failed", "error", err)
	}

	// Persist the terminal state even when the lifecycle context is gone.
	finishCtx := context.WithoutCancel(ctx)
	if err := r.repo.Finish(finishCtx, tenantID, requestID, status, errorMessage); err != nil {
		r.logger.ErrorContext(ctx, "Error persisting terminal state", "error", err)
		return
	}

	runDurationHistogram.Update(float64(time.Since(start).Milliseconds()))

	r.notify(finishCtx, tenantID, requestID, status, errorMessage)
}

// simulateSettlement stands in for real payment settlement: a fixed delay,
// interruptible by shutdown.
func (r *Runner) simulateSettlement(ctx context.Context) error {
	timer := time.NewTimer(r.duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WebhookNotification is posted to the configured URL when a run reaches a
// terminal state.
type WebhookNotification struct {
	TenantID     string  `json:"tenantId"`
	RequestID    string  `json:"requestId"`
	PaymentID    string  `json:"paymentId"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"errorMessage,omitempty"`
}

func (r *Runner) notify(ctx context.Context, tenantID, requestID string, status db.ProcessingStatus, errorMessage *string) {
	if r.webhook == nil {
		return
	}

	entity, err := r.repo.GetByRequestID(ctx, tenantID, requestID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error loading request for webhook", "error", err)
		return
	}

	notification := WebhookNotification{
		TenantID:     tenantID,
		RequestID:    requestID,
		PaymentID:    entity.PaymentID,
		Status:       string(status),
		ErrorMessage: errorMessage,
	}

	payloadBytes, _ := json.Marshal(notification)

	// Delivery is best effort; a failed webhook never touches the stored state.
	if err := r.webhook.Send(ctx, string(payloadBytes)); err != nil {
		r.logger.ErrorContext(ctx, "Error sending completion webhook", "error", err)
	}
}
