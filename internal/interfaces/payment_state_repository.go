package interfaces

import (
	"context"

	"github.com/skillrise/payment-security/internal/models"
)

// PaymentStateRepository defines the contract for payment state data access
type PaymentStateRepository interface {
	InsertInitialState(ctx context.Context, transactionID string, state models.PaymentState, info *models.PaymentStateInfo) error
	TransitionState(ctx context.Context, transactionID string, from, to models.PaymentState) (int64, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentStateInfo, error)
}
