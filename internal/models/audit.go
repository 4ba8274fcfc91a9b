package models

import "time"

type AuditEventType string

const (
	AuditAttempt AuditEventType = "ATTEMPT"
	AuditSuccess AuditEventType = "SUCCESS"
	AuditFailed  AuditEventType = "FAILED"
	AuditError   AuditEventType = "ERROR"
)

const ComplianceTagPCI = "PCI-DSS"

// AuditEvent is append-only; details are masked before the event is built.
type AuditEvent struct {
	ID            string                 `json:"id"`
	Timestamp     time.Time              `json:"timestamp"`
	EventType     AuditEventType         `json:"eventType"`
	UserID        string                 `json:"userId"`
	MaskedDetails map[string]interface{} `json:"details"`
	ComplianceTag string                 `json:"compliance"`
}

// EventCounts feeds the security report.
type EventCounts struct {
	Total      int
	Successful int
	Failed     int
	Errors     int
	Blocked    int
	HighRisk   int
	MediumRisk int
	LowRisk    int
}

type SecurityReport struct {
	Timeframe       ReportTimeframe  `json:"timeframe"`
	Summary         ReportSummary    `json:"summary"`
	RiskBuckets     RiskBuckets      `json:"riskBuckets"`
	Compliance      ComplianceStatus `json:"compliance"`
	Recommendations []string         `json:"recommendations"`
	GeneratedAt     time.Time        `json:"generatedAt"`
}

type ReportTimeframe struct {
	Days  int       `json:"days"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type ReportSummary struct {
	TotalTransactions      int `json:"totalTransactions"`
	SuccessfulTransactions int `json:"successfulTransactions"`
	FailedTransactions     int `json:"failedTransactions"`
	ErroredTransactions    int `json:"erroredTransactions"`
	BlockedTransactions    int `json:"blockedTransactions"`
}

type RiskBuckets struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

type ComplianceStatus struct {
	EncryptionEnabled   bool   `json:"encryptionEnabled"`
	TokenizationEnabled bool   `json:"tokenizationEnabled"`
	AuditLogging        bool   `json:"auditLogging"`
	Standard            string `json:"standard"`
}
