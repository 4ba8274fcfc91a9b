package models

import (
	"encoding/json"
	"time"
)

type FraudCheckRequest struct {
	UserID   string      `json:"userId" binding:"required"`
	Amount   json.Number `json:"amount" binding:"required"`
	Currency string      `json:"currency,omitempty"`
	IP       string      `json:"ip,omitempty"`
}

type CardValidationRequest struct {
	CardNumber  string  `json:"cardNumber" binding:"required"`
	CVV         *string `json:"cvv,omitempty"`
	ExpiryMonth *int    `json:"expiryMonth,omitempty"`
	ExpiryYear  *int    `json:"expiryYear,omitempty"`
}

// CardValidationResponse carries the CVV and expiry results only when those fields were supplied.
type CardValidationResponse struct {
	Card   CardValidation    `json:"card"`
	CVV    *CVVValidation    `json:"cvv,omitempty"`
	Expiry *ExpiryValidation `json:"expiry,omitempty"`
}

type AmountValidationRequest struct {
	Amount   json.Number `json:"amount" binding:"required"`
	Currency string      `json:"currency,omitempty"`
}

type PaymentStateResponse struct {
	TransactionID string    `json:"transactionId"`
	State         string    `json:"state"`
	PreviousState string    `json:"previousState,omitempty"`
	UserID        string    `json:"userId"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
