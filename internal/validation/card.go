package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/skillrise/payment-security/internal/models"
)

const (
	minCardLength = 13
	maxCardLength = 19
)

var (
	separators = strings.NewReplacer(" ", "", "-", "")
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

// cardPatterns are tried in order; the first match wins.
var cardPatterns = []struct {
	cardType models.CardType
	pattern  *regexp.Regexp
}{
	{models.CardVisa, regexp.MustCompile(`^4\d{12}(?:\d{3})?$`)},
	{models.CardMastercard, regexp.MustCompile(`^5[1-5]\d{14}$`)},
	{models.CardAmex, regexp.MustCompile(`^3[47]\d{13}$`)},
	{models.CardDiscover, regexp.MustCompile(`^6(?:011|5\d{2})\d{12}$`)},
	{models.CardDiners, regexp.MustCompile(`^3(?:0[0-5]|[68]\d)\d{11}$`)},
	{models.CardJCB, regexp.MustCompile(`^(?:2131|1800|35\d{3})\d{11}$`)},
}

// SanitizeCardNumber strips the spaces and dashes users type between digit groups.
func SanitizeCardNumber(number string) string {
	return separators.Replace(strings.TrimSpace(number))
}

// ValidateCardNumber checks format, length and Luhn checksum, and classifies the card.
func ValidateCardNumber(number string) models.CardValidation {
	cleaned := SanitizeCardNumber(number)
	result := models.CardValidation{MaskedNumber: MaskCardNumber(cleaned)}

	switch {
	case cleaned == "":
		result.Error = "Card number is required"
	case !digitsOnly.MatchString(cleaned):
		result.Error = "Card number must contain only digits"
	case len(cleaned) < minCardLength || len(cleaned) > maxCardLength:
		result.Error = fmt.Sprintf("Card number must be between %d and %d digits", minCardLength, maxCardLength)
	case !LuhnValid(cleaned):
		result.Error = "Invalid card number"
	default:
		result.IsValid = true
		result.CardType = DetectCardType(cleaned)
	}

	return result
}

// LuhnValid reports whether a digit string passes the Luhn checksum.
func LuhnValid(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return sum%10 == 0
}

// DetectCardType classifies a sanitized card number by prefix and length.
func DetectCardType(number string) models.CardType {
	for _, p := range cardPatterns {
		if p.pattern.MatchString(number) {
			return p.cardType
		}
	}
	return models.CardUnknown
}

// MaskCardNumber replaces all but the last four digits with '*'.
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

// CardInfo derives the non-sensitive view of a card number.
func CardInfo(number string) models.CardInfo {
	cleaned := SanitizeCardNumber(number)
	return models.CardInfo{
		CardType:     DetectCardType(cleaned),
		MaskedNumber: MaskCardNumber(cleaned),
	}
}

// ValidateCVV requires 4 digits for amex and 3 for every other card type.
func ValidateCVV(cvv string, cardType models.CardType) models.CVVValidation {
	cvv = strings.TrimSpace(cvv)
	if cvv == "" {
		return models.CVVValidation{Error: "CVV is required"}
	}
	if !digitsOnly.MatchString(cvv) {
		return models.CVVValidation{Error: "CVV must contain only digits"}
	}

	expected := 3
	if cardType == models.CardAmex {
		expected = 4
	}
	if len(cvv) != expected {
		return models.CVVValidation{Error: fmt.Sprintf("CVV must be %d digits", expected)}
	}

	return models.CVVValidation{IsValid: true}
}
