package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/skillrise/payment-security/internal/models"
)

// Detail keys the orchestrator writes and the counters read back.
const (
	DetailCode      = "code"
	DetailRiskLevel = "riskLevel"
)

// AuditRepository stores masked audit events in PostgreSQL and aggregates
// them for the security report.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) InitDB(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id UUID PRIMARY KEY,
			event_type VARCHAR(20) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			details JSONB NOT NULL DEFAULT '{}',
			compliance VARCHAR(20) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_events_created ON audit_events(created_at)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

func (r *AuditRepository) Name() string { return "postgres" }

func (r *AuditRepository) Write(ctx context.Context, event *models.AuditEvent) error {
	details, err := json.Marshal(event.MaskedDetails)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, event_type, user_id, details, compliance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, event.ID, event.EventType, event.UserID, details, event.ComplianceTag, event.Timestamp)
	return err
}

// CountEvents counts terminal outcomes (SUCCESS, FAILED, ERROR) and risk
// levels recorded since the given time.
func (r *AuditRepository) CountEvents(ctx context.Context, since time.Time) (*models.EventCounts, error) {
	var c models.EventCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE event_type IN ('SUCCESS', 'FAILED', 'ERROR')),
			COUNT(*) FILTER (WHERE event_type = 'SUCCESS'),
			COUNT(*) FILTER (WHERE event_type = 'FAILED'),
			COUNT(*) FILTER (WHERE event_type = 'ERROR'),
			COUNT(*) FILTER (WHERE event_type = 'FAILED' AND details->>'code' = 'FRAUD_DETECTED'),
			COUNT(*) FILTER (WHERE details->>'riskLevel' = 'high'),
			COUNT(*) FILTER (WHERE details->>'riskLevel' = 'medium'),
			COUNT(*) FILTER (WHERE details->>'riskLevel' = 'low')
		FROM audit_events
		WHERE created_at >= $1
	`, since).Scan(&c.Total, &c.Successful, &c.Failed, &c.Errors, &c.Blocked, &c.HighRisk, &c.MediumRisk, &c.LowRisk)
	if err != nil {
		return nil, fmt.Errorf("count audit events: %w", err)
	}
	return &c, nil
}
