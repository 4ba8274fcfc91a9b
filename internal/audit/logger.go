// Package audit records masked payment events and builds security reports from them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/telemetry"
)

type Logger struct {
	logger *zap.Logger
	sinks  []interfaces.AuditSink
	now    func() time.Time
}

func NewLogger(logger *zap.Logger, sinks ...interfaces.AuditSink) *Logger {
	return &Logger{
		logger: logger,
		sinks:  sinks,
		now:    time.Now,
	}
}

// LogPaymentEvent masks details, stamps the compliance tag and hands the event
// to every sink. Sink failures are logged and counted but never returned.
func (l *Logger) LogPaymentEvent(ctx context.Context, eventType models.AuditEventType, userID string, details map[string]interface{}) *models.AuditEvent {
	event := &models.AuditEvent{
		ID:            uuid.NewString(),
		Timestamp:     l.now().UTC(),
		EventType:     eventType,
		UserID:        userID,
		MaskedDetails: MaskDetails(details),
		ComplianceTag: models.ComplianceTagPCI,
	}

	telemetry.AuditEvents.WithLabelValues(string(eventType)).Inc()
	l.logger.Info("payment audit event",
		zap.String("audit_id", event.ID),
		zap.String("event_type", string(event.EventType)),
		zap.String("user_id", event.UserID),
		zap.Any("details", event.MaskedDetails),
		zap.String("compliance", event.ComplianceTag),
	)

	for _, sink := range l.sinks {
		if err := sink.Write(ctx, event); err != nil {
			telemetry.AuditSinkErrors.WithLabelValues(sink.Name()).Inc()
			l.logger.Error("failed to write audit event",
				zap.String("sink", sink.Name()),
				zap.String("audit_id", event.ID),
				zap.Error(err))
		}
	}

	return event
}
