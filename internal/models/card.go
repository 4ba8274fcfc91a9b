package models

import "github.com/shopspring/decimal"

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
	CardDiners     CardType = "diners"
	CardJCB        CardType = "jcb"
	CardUnknown    CardType = "unknown"
)

type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

type CardInfo struct {
	CardType     CardType `json:"cardType"`
	MaskedNumber string   `json:"maskedNumber"`
}

type CardValidation struct {
	IsValid      bool     `json:"isValid"`
	CardType     CardType `json:"cardType,omitempty"`
	MaskedNumber string   `json:"maskedNumber,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type CVVValidation struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

type ExpiryValidation struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

type AmountValidation struct {
	IsValid          bool             `json:"isValid"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Error            string           `json:"error,omitempty"`
	RequiresApproval bool             `json:"requiresApproval,omitempty"`
}

// CardData is the input to tokenization.
type CardData struct {
	Number         string `json:"cardNumber"`
	CVV            string `json:"cvv,omitempty"`
	ExpiryMonth    int    `json:"expiryMonth"`
	ExpiryYear     int    `json:"expiryYear"`
	CardholderName string `json:"cardholderName,omitempty"`
}

// SensitiveCardData is the subset of CardData that only ever exists encrypted at rest.
type SensitiveCardData struct {
	Number         string `json:"number"`
	CVV            string `json:"cvv,omitempty"`
	CardholderName string `json:"cardholderName,omitempty"`
}

type EncryptedPayload struct {
	Encrypted string `json:"encrypted"`
	IV        string `json:"iv"`
	Tag       string `json:"tag"`
}

type PaymentToken struct {
	Token            string           `json:"token"`
	EncryptedPayload EncryptedPayload `json:"encryptedPayload"`
	MaskedNumber     string           `json:"maskedNumber"`
	CardType         CardType         `json:"cardType"`
	ExpiryMonth      int              `json:"expiryMonth"`
	ExpiryYear       int              `json:"expiryYear"`
}
