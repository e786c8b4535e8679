package payment

import (
	"payment-platform/internal/apperr"
	"payment-platform/internal/db"
)

// transitions is the enforced status graph. FAILED and REFUNDED are terminal;
// same-status writes are rejected.
var transitions = map[db.PaymentStatus][]db.PaymentStatus{
	db.PaymentPending:    {db.PaymentProcessing, db.PaymentCompleted, db.PaymentFailed},
	db.PaymentProcessing: {db.PaymentCompleted, db.PaymentFailed, db.PaymentRefunded},
	db.PaymentCompleted:  {db.PaymentRefunded},
	db.PaymentFailed:     {},
	db.PaymentRefunded:   {},
}

func ParseStatus(s string) (db.PaymentStatus, error) {
	switch db.PaymentStatus(s) {
	case db.PaymentPending, db.PaymentProcessing, db.PaymentCompleted, db.PaymentFailed, db.PaymentRefunded:
		return db.PaymentStatus(s), nil
	}
	return "", apperr.ValidationErr("unknown payment status %q", s)
}

func CanTransition(from, to db.PaymentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
