package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

type FraudTransaction struct {
	UserID   string          `json:"userId" binding:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
	IP       string          `json:"ip,omitempty"`
}

// FraudAssessment is created once per transaction attempt and never mutated afterwards.
type FraudAssessment struct {
	FraudScore     int       `json:"fraudScore"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	Reasons        []string  `json:"reasons"`
	RequiresReview bool      `json:"requiresReview"`
	ShouldBlock    bool      `json:"shouldBlock"`
}

type VelocityEntry struct {
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

type GeoResult struct {
	Country    string `json:"country"`
	Suspicious bool   `json:"suspicious"`
}
