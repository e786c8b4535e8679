package payment

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
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the payment routes behind the tenant middleware.
func (h *Handler) Register(r gin.IRouter) {
	payments := r.Group("/api/payments", tenant.Middleware())
	payments.POST("", h.create)
	payments.GET("/:paymentId", h.get)
	payments.GET("/customer/:customerId", h.listByCustomer)
	payments.GET("/tenant", h.listByTenant)
	payments.PUT("/:paymentId/status", h.updateStatus)
}

func (h *Handler) create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.Error(c, apperr.ValidationErr("invalid request body: %v", err))
		return
	}

	entity, err := h.service.Create(c.Request.Context(), tenant.FromContext(c), input)
	if err != nil {
		h.logError(c, "Failed to create payment", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity)
}

func (h *Handler) get(c *gin.Context) {
	entity, err := h.service.Get(c.Request.Context(), tenant.FromContext(c), c.Param("paymentId"))
	if err != nil {
		h.logError(c, "Failed to get payment", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, entity)
}

func (h *Handler) listByCustomer(c *gin.Context) {
	payments, err := h.service.ListByCustomer(c.Request.Context(), tenant.FromContext(c), c.Param("customerId"))
	if err != nil {
		h.logError(c, "Failed to list payments by customer", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *Handler) listByTenant(c *gin.Context) {
	payments, err := h.service.ListByTenant(c.Request.Context(), tenant.FromContext(c))
	if err != nil {
		h.logError(c, "Failed to list payments by tenant", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (h *Handler) updateStatus(c *gin.Context) {
	status, err := ParseStatus(c.Query("status"))
	if err != nil {
		httpx.Error(c, err)
		return
	}

	entity, err := h.service.UpdateStatus(c.Request.Context(), tenant.FromContext(c), c.Param("paymentId"), status)
	if err != nil {
		h.logError(c, "Failed to update payment status", err)
		httpx.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, entity)
}

func (h *Handler) logError(c *gin.Context, msg string, err error) {
	if ae, ok := apperr.As(err); ok && ae.Code != apperr.Internal {
		h.logger.WarnContext(c.Request.Context(), msg, "error", err)
		return
	}
	h.logger.ErrorContext(c.Request.Context(), msg, "error", err)
}
