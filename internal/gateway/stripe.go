package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/skillrise/payment-security/internal/models"
)

var zeroDecimalCurrencies = map[string]bool{"JPY": true, "KRW": true}

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGateway charges through Stripe PaymentIntents. Card errors are
// declines; anything else Stripe returns is a gateway error.
type StripeGateway struct {
	intents intentCreator
}

func NewStripeGateway(secretKey string) *StripeGateway {
	sc := client.New(secretKey, nil)
	return &StripeGateway{intents: sc.PaymentIntents}
}

func (g *StripeGateway) Charge(ctx context.Context, charge *models.GatewayCharge) (*models.GatewayResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(minorUnits(charge)),
		Currency:           stripe.String(strings.ToLower(charge.Currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String("SkillRise course payment"),
	}
	params.Context = ctx
	params.IdempotencyKey = stripe.String(charge.TransactionID)
	params.AddMetadata("transaction_id", charge.TransactionID)
	params.AddMetadata("user_id", charge.UserID)

	intent, err := g.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return &models.GatewayResult{
				TransactionID: charge.TransactionID,
				DeclineReason: stripeErr.Msg,
			}, nil
		}
		return nil, fmt.Errorf("stripe payment intent: %w", err)
	}

	return intentResult(charge.TransactionID, intent), nil
}

func intentResult(transactionID string, intent *stripe.PaymentIntent) *models.GatewayResult {
	result := &models.GatewayResult{
		TransactionID: transactionID,
		Reference:     intent.ID,
	}
	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded,
		stripe.PaymentIntentStatusProcessing,
		stripe.PaymentIntentStatusRequiresCapture:
		result.Approved = true
	case stripe.PaymentIntentStatusRequiresAction:
		result.DeclineReason = "Additional authentication required"
	default:
		result.DeclineReason = "Card declined"
	}
	return result
}

func minorUnits(charge *models.GatewayCharge) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(charge.Currency)] {
		return charge.Amount.IntPart()
	}
	return charge.Amount.Shift(2).IntPart()
}
