package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentState string

const (
	StatePending   PaymentState = "PENDING"
	StateCompleted PaymentState = "COMPLETED"
	StateDeclined  PaymentState = "DECLINED"
	StateFailed    PaymentState = "FAILED"
)

// OutcomeCode classifies a failed payment attempt.
type OutcomeCode string

const (
	CodeValidationFailed OutcomeCode = "VALIDATION_FAILED"
	CodeFraudDetected    OutcomeCode = "FRAUD_DETECTED"
	CodeDeclined         OutcomeCode = "DECLINED"
	CodeGatewayError     OutcomeCode = "GATEWAY_ERROR"
	CodeProcessingError  OutcomeCode = "PROCESSING_ERROR"
)

const StatusCompleted = "completed"

// PaymentRequest is built per call and never persisted in plaintext.
// Nil or empty fields are skipped by validation rather than defaulted.
type PaymentRequest struct {
	CardNumber     *string     `json:"cardNumber,omitempty"`
	CVV            *string     `json:"cvv,omitempty"`
	ExpiryMonth    *int        `json:"expiryMonth,omitempty"`
	ExpiryYear     *int        `json:"expiryYear,omitempty"`
	CardholderName *string     `json:"cardholderName,omitempty"`
	Amount         json.Number `json:"amount,omitempty"`
	Currency       string      `json:"currency,omitempty"`
	UserID         string      `json:"userId"`
	IP             string      `json:"ip,omitempty"`
}

type PaymentOutcome struct {
	Success       bool             `json:"success"`
	TransactionID string           `json:"transactionId,omitempty"`
	Status        string           `json:"status,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Timestamp     *time.Time       `json:"timestamp,omitempty"`
	Error         string           `json:"error,omitempty"`
	Code          OutcomeCode      `json:"code,omitempty"`
	FraudReasons  []string         `json:"fraudReasons,omitempty"`
}

// GatewayCharge is what the orchestrator hands to a PaymentGateway.
type GatewayCharge struct {
	TransactionID  string
	Amount         decimal.Decimal
	Currency       string
	CardNumber     string
	CVV            string
	ExpiryMonth    int
	ExpiryYear     int
	CardholderName string
	UserID         string
}

type GatewayResult struct {
	Approved      bool
	TransactionID string
	Reference     string
	DeclineReason string
}

// PaymentStateInfo represents the current state info of a payment
type PaymentStateInfo struct {
	State         string
	PreviousState string
	UserID        string
	Amount        string
	Currency      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
