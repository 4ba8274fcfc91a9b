package interfaces

import (
	"context"
	"time"

	"github.com/skillrise/payment-security/internal/models"
)

// AuditSink receives already-masked audit events.
type AuditSink interface {
	Name() string
	Write(ctx context.Context, event *models.AuditEvent) error
}

type AuditLogger interface {
	LogPaymentEvent(ctx context.Context, eventType models.AuditEventType, userID string, details map[string]interface{}) *models.AuditEvent
}

// EventCounter aggregates stored audit events for reporting.
type EventCounter interface {
	CountEvents(ctx context.Context, since time.Time) (*models.EventCounts, error)
}

// TokenStore keeps issued payment tokens so callers only need to retain the token.
type TokenStore interface {
	Save(ctx context.Context, token *models.PaymentToken) error
	Get(ctx context.Context, token string) (*models.PaymentToken, error)
}
