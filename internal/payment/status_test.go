package payment

import (
	"testing"

	"payment-platform/internal/db"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, valid := range []string{"PENDING", "PROCESSING", "COMPLETED", "FAILED", "REFUNDED"} {
		status, err := ParseStatus(valid)
		assert.NoError(t, err)
		assert.Equal(t, db.PaymentStatus(valid), status)
	}

	_, err := ParseStatus("SETTLED")
	assert.Error(t, err)
	_, err = ParseStatus("")
	assert.Error(t, err)
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to db.PaymentStatus }{
		{db.PaymentPending, db.PaymentProcessing},
		{db.PaymentPending, db.PaymentCompleted},
		{db.PaymentPending, db.PaymentFailed},
		{db.PaymentProcessing, db.PaymentCompleted},
		{db.PaymentProcessing, db.PaymentFailed},
		{db.PaymentProcessing, db.PaymentRefunded},
		{db.PaymentCompleted, db.PaymentRefunded},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to db.PaymentStatus }{
		{db.PaymentPending, db.PaymentPending},
		{db.PaymentPending, db.PaymentRefunded},
		{db.PaymentCompleted, db.PaymentPending},
		{db.PaymentCompleted, db.PaymentProcessing},
		{db.PaymentFailed, db.PaymentPending},
		{db.PaymentFailed, db.PaymentCompleted},
		{db.PaymentRefunded, db.PaymentPending},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be rejected", tt.from, tt.to)
	}
}
