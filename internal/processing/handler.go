package processing

import (
	"log/slog"
	"net/http"

	"payment-platform/internal/apperr"
	"payment-platform/internal/httpx"
	"payment-platform/internal/tenant"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
	runner  *Runner
	logger  *slog.Logger
}

func NewHandler(service *Service, runner *Runner, logger *slog.Logger) *Handler {
	return &Handler{service: service, runner: runner, logger: logger}
}

// Register mounts the processing routes behind the tenant middleware.
func (h *Handler) Register(r gin.IRouter) {
	processing := r.Group("/api/processing", tenant.Middleware())
	processing.POST("/payment/:paymentId", h.open)
	processing.GET("/:requestId", h.get)
	processing.GET("/payment/:paymentId", h.listByPayment)
	processing.GET("/tenant", h.listByTenant)
	processing.POST("/:requestId/process", h.trigger)
}

func (h *Handler) open(c *gin.Context) {
	entity, err := h.service.Open(c.Request.Context(), tenant.FromContext(c), c.Param("paymentId"))
	if err != nil {
		h.logError(c, "Failed to open processing request", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity)
}

func (h *Handler) get(c *gin.Context) {
	entity, err := h.service.Get(c.Request.Context(), tenant.FromContext(c), c.Param("requestId"))
	if err != nil {
		h.logError(c, "Failed to get processing request", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, entity)
}

func (h *Handler) listByPayment(c *gin.Context) {
	requests, err := h.service.ListByPayment(c.Request.Context(), tenant.FromContext(c), c.Param("paymentId"))
	if err != nil {
		h.logError(c, "Failed to list processing requests by payment", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *Handler) listByTenant(c *gin.Context) {
	requests, err := h.service.ListByTenant(c.Request.Context(), tenant.FromContext(c))
	if err != nil {
		h.logError(c, "Failed to list processing requests by tenant", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

// trigger schedules the run and acknowledges immediately. The 202 reports
// scheduling, not the run outcome; the outcome is observable via get.
func (h *Handler) trigger(c *gin.Context) {
	tenantID := tenant.FromContext(c)
	requestID := c.Param("requestId")

	h.logger.InfoContext(c.Request.Context(), "Scheduling processing run", "requestId", requestID)
	h.runner.Trigger(tenantID, requestID)

	c.JSON(http.StatusAccepted, gin.H{
		"message":   "processing started",
		"requestId": requestID,
	})
}

func (h *Handler) logError(c *gin.Context, msg string, err error) {
	if ae, ok := apperr.As(err); ok && ae.Code != apperr.Internal {
		h.logger.WarnContext(c.Request.Context(), msg, "error", err)
		return
	}
	h.logger.ErrorContext(c.Request.Context(), msg, "error", err)
}
