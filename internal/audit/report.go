package audit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
)

const (
	DefaultReportDays = 30

	highRiskThreshold    = 10
	failureRateThreshold = 0.10
)

const (
	RecommendFraudHardening   = "Review and strengthen fraud detection rules: high-risk transaction volume is elevated"
	RecommendEnableEncryption = "Enable encryption for payment data at rest"
	RecommendInvestigateFails = "Investigate elevated payment failure rate"
)

// ReportFeatures describes which protections are active in this deployment.
type ReportFeatures struct {
	EncryptionEnabled   bool
	TokenizationEnabled bool
	AuditLogging        bool
}

type ReportGenerator struct {
	counter  interfaces.EventCounter
	features ReportFeatures
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportGenerator builds a generator. counter may be nil, in which case
// every count in the report is zero.
func NewReportGenerator(counter interfaces.EventCounter, features ReportFeatures, logger *zap.Logger) *ReportGenerator {
	return &ReportGenerator{
		counter:  counter,
		features: features,
		logger:   logger,
		now:      time.Now,
	}
}

func (g *ReportGenerator) GenerateSecurityReport(ctx context.Context, days int) (*models.SecurityReport, error) {
	if days <= 0 {
		days = DefaultReportDays
	}

	end := g.now().UTC()
	start := end.AddDate(0, 0, -days)

	counts := &models.EventCounts{}
	if g.counter != nil {
		c, err := g.counter.CountEvents(ctx, start)
		if err != nil {
			return nil, fmt.Errorf("count audit events: %w", err)
		}
		counts = c
	}

	report := &models.SecurityReport{
		Timeframe: models.ReportTimeframe{Days: days, Start: start, End: end},
		Summary: models.ReportSummary{
			TotalTransactions:      counts.Total,
			SuccessfulTransactions: counts.Successful,
			FailedTransactions:     counts.Failed,
			ErroredTransactions:    counts.Errors,
			BlockedTransactions:    counts.Blocked,
		},
		RiskBuckets: models.RiskBuckets{
			Low:    counts.LowRisk,
			Medium: counts.MediumRisk,
			High:   counts.HighRisk,
		},
		Compliance: models.ComplianceStatus{
			EncryptionEnabled:   g.features.EncryptionEnabled,
			TokenizationEnabled: g.features.TokenizationEnabled,
			AuditLogging:        g.features.AuditLogging,
			Standard:            models.ComplianceTagPCI,
		},
		Recommendations: recommendations(counts, g.features),
		GeneratedAt:     end,
	}

	g.logger.Info("security report generated",
		zap.Int("days", days),
		zap.Int("total", counts.Total),
		zap.Int("high_risk", counts.HighRisk),
		zap.Int("recommendations", len(report.Recommendations)))

	return report, nil
}

func recommendations(c *models.EventCounts, f ReportFeatures) []string {
	recs := []string{}
	if c.HighRisk > highRiskThreshold {
		recs = append(recs, RecommendFraudHardening)
	}
	if !f.EncryptionEnabled {
		recs = append(recs, RecommendEnableEncryption)
	}
	if c.Total > 0 {
		failed := float64(c.Failed + c.Errors)
		if failed/float64(c.Total) > failureRateThreshold {
			recs = append(recs, RecommendInvestigateFails)
		}
	}
	return recs
}
