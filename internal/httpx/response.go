package httpx

import (
	"github.com/gin-gonic/gin"

	"payment-platform/internal/apperr"
)

// Error writes the coded JSON error body for err with the mapped status.
func Error(c *gin.Context, err error) {
	code := apperr.Internal
	if ae, ok := apperr.As(err); ok {
		code = ae.Code
	}

	c.JSON(apperr.HTTPStatus(err), gin.H{
		"code":  code,
		"error": apperr.PublicMessage(err),
	})
}
