package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/skillrise/payment-security/internal/models"
)

const (
	DefaultCurrency   = "USD"
	maxYearsAhead     = 10
	maxDecimalPlaces  = 2
	minCardholderName = 2
	maxCardholderName = 50
)

var supportedCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "AUD": true, "CAD": true,
	"CHF": true, "CNY": true, "SEK": true, "NZD": true, "MXN": true, "SGD": true,
	"HKD": true, "NOK": true, "KRW": true, "INR": true, "BRL": true, "ZAR": true,
}

// Validator holds the configurable parts of validation: the transaction ceiling and the clock.
type Validator struct {
	maxTransactionAmount decimal.Decimal
	now                  func() time.Time
}

func NewValidator(maxTransactionAmount decimal.Decimal, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		maxTransactionAmount: maxTransactionAmount,
		now:                  now,
	}
}

var defaultValidator = NewValidator(decimal.NewFromInt(5000), time.Now)

// ValidateExpiryDate validates against the wall clock with the default limits.
func ValidateExpiryDate(month, year int) models.ExpiryValidation {
	return defaultValidator.ValidateExpiryDate(month, year)
}

// ValidatePaymentAmount validates with the default transaction ceiling.
func ValidatePaymentAmount(amount, currency string) models.AmountValidation {
	return defaultValidator.ValidatePaymentAmount(amount, currency)
}

func (v *Validator) ValidateExpiryDate(month, year int) models.ExpiryValidation {
	if month < 1 || month > 12 {
		return models.ExpiryValidation{Error: "Invalid expiry month"}
	}
	if year < 100 {
		year += 2000
	}

	now := v.now()
	currentYear, currentMonth := now.Year(), int(now.Month())

	if year < currentYear || (year == currentYear && month < currentMonth) {
		return models.ExpiryValidation{Error: "Card has expired"}
	}
	if year > currentYear+maxYearsAhead {
		return models.ExpiryValidation{Error: "Invalid expiry year"}
	}

	return models.ExpiryValidation{IsValid: true}
}

// ValidatePaymentAmount parses a decimal amount. Amounts above the transaction ceiling
// are not hard failures: they come back invalid with RequiresApproval set.
func (v *Validator) ValidatePaymentAmount(amount, currency string) models.AmountValidation {
	if currency == "" {
		currency = DefaultCurrency
	}
	if err := ValidateCurrency(currency); err != nil {
		return models.AmountValidation{Error: err.Error()}
	}

	parsed, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return models.AmountValidation{Error: "Invalid amount format"}
	}
	if !parsed.IsPositive() {
		return models.AmountValidation{Error: "Amount must be greater than zero"}
	}
	if !parsed.Truncate(maxDecimalPlaces).Equal(parsed) {
		return models.AmountValidation{Error: "Amount cannot have more than 2 decimal places"}
	}
	if parsed.GreaterThan(v.maxTransactionAmount) {
		return models.AmountValidation{
			Amount:           &parsed,
			Error:            fmt.Sprintf("Amount exceeds maximum transaction limit of %s", v.maxTransactionAmount.StringFixed(2)),
			RequiresApproval: true,
		}
	}

	return models.AmountValidation{IsValid: true, Amount: &parsed}
}

// ValidateCurrency accepts the three-letter codes the platform settles in.
func ValidateCurrency(code string) error {
	if !supportedCurrencies[code] {
		return fmt.Errorf("Unsupported currency: %s", code)
	}
	return nil
}

func ValidateCardholderName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n < minCardholderName || n > maxCardholderName {
		return fmt.Errorf("Cardholder name must be between %d and %d characters", minCardholderName, maxCardholderName)
	}
	return nil
}

// ValidateRequest validates every field present on the request and collects all errors.
// Absent fields are skipped. The detected card type is returned for downstream use.
func (v *Validator) ValidateRequest(req *models.PaymentRequest) (models.ValidationResult, models.CardType) {
	errs := make([]string, 0)
	cardType := models.CardUnknown

	if req.CardNumber != nil {
		card := ValidateCardNumber(*req.CardNumber)
		if card.IsValid {
			cardType = card.CardType
		} else {
			errs = append(errs, card.Error)
		}
	}

	if req.CVV != nil {
		if cvv := ValidateCVV(*req.CVV, cardType); !cvv.IsValid {
			errs = append(errs, cvv.Error)
		}
	}

	if req.ExpiryMonth != nil && req.ExpiryYear != nil {
		if exp := v.ValidateExpiryDate(*req.ExpiryMonth, *req.ExpiryYear); !exp.IsValid {
			errs = append(errs, exp.Error)
		}
	}

	if req.Amount != "" {
		if amt := v.ValidatePaymentAmount(req.Amount.String(), req.Currency); !amt.IsValid {
			errs = append(errs, amt.Error)
		}
	} else if req.Currency != "" {
		if err := ValidateCurrency(req.Currency); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if req.CardholderName != nil {
		if err := ValidateCardholderName(*req.CardholderName); err != nil {
			errs = append(errs, err.Error())
		}
	}

	return models.ValidationResult{IsValid: len(errs) == 0, Errors: errs}, cardType
}
