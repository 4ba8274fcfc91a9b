package interfaces

import (
	"context"
	"time"

	"github.com/skillrise/payment-security/internal/models"
)

// VelocityStore owns the per-user transaction windows.
// Record prunes entries older than the retention, returns what remains and then
// appends entry, all atomically with respect to other calls for the same user.
type VelocityStore interface {
	Record(ctx context.Context, userID string, entry models.VelocityEntry) ([]models.VelocityEntry, error)
}

type FraudDetector interface {
	DetectFraud(ctx context.Context, txn *models.FraudTransaction) models.FraudAssessment
}

// AttemptLimiter tracks failed payment attempts per user.
type AttemptLimiter interface {
	Locked(userID string, now time.Time) bool
	RecordFailure(userID string, now time.Time)
	Reset(userID string)
}
