// Package gateway holds the PaymentGateway implementations the orchestrator can charge through.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/skillrise/payment-security/internal/models"
)

// Test cards with fixed outcomes, matching the processor's public test numbers.
const (
	CardDeclined          = "4000000000000002"
	CardInsufficientFunds = "4000000000009995"
	CardProcessingError   = "4000000000000119"
)

var ErrProcessorUnavailable = errors.New("payment processor unavailable")

// MockGateway approves every charge except the test cards above. It is the
// default gateway outside production.
type MockGateway struct {
	latency time.Duration
}

func NewMockGateway(latency time.Duration) *MockGateway {
	return &MockGateway{latency: latency}
}

func (g *MockGateway) Charge(ctx context.Context, charge *models.GatewayCharge) (*models.GatewayResult, error) {
	if g.latency > 0 {
		select {
		case <-time.After(g.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	result := &models.GatewayResult{
		TransactionID: charge.TransactionID,
		Reference:     "mock_" + uuid.NewString(),
	}

	switch charge.CardNumber {
	case CardDeclined:
		result.DeclineReason = "Card declined"
	case CardInsufficientFunds:
		result.DeclineReason = "Insufficient funds"
	case CardProcessingError:
		return nil, ErrProcessorUnavailable
	default:
		result.Approved = true
	}
	return result, nil
}
