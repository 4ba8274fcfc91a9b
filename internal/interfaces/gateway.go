package interfaces

import (
	"context"

	"github.com/skillrise/payment-security/internal/models"
)

// PaymentGateway charges a card through an external processor.
// A decline is a normal result (Approved=false); an error means the processor
// could not be reached or answered unexpectedly.
type PaymentGateway interface {
	Charge(ctx context.Context, charge *models.GatewayCharge) (*models.GatewayResult, error)
}

// GeoIPLookup reports whether an IP address originates from a suspicious location.
type GeoIPLookup interface {
	Lookup(ctx context.Context, ip string) (*models.GeoResult, error)
}
