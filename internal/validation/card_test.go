package validation

import (
	"math/rand"
	"testing"

	"github.com/skillrise/payment-security/internal/models"
)

func TestLuhnValid(t *testing.T) {
	tests := []struct {
		name       string
		cardNumber string
		want       bool
	}{
		{name: "Valid Visa", cardNumber: "4242424242424242", want: true},
		{name: "Valid Mastercard", cardNumber: "5555555555554444", want: true},
		{name: "Valid Amex", cardNumber: "378282246310005", want: true},
		{name: "Invalid card", cardNumber: "1234567890123456", want: false},
		{name: "Non digit", cardNumber: "4242a24242424242", want: false},
		{name: "Empty string", cardNumber: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LuhnValid(tt.cardNumber); got != tt.want {
				t.Errorf("LuhnValid(%q) = %v, want %v", tt.cardNumber, got, tt.want)
			}
		})
	}
}

func TestValidateCardNumber(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		valid    bool
		cardType models.CardType
		masked   string
		errMsg   string
	}{
		{name: "visa", number: "4111111111111111", valid: true, cardType: models.CardVisa, masked: "************1111"},
		{name: "visa with spaces", number: "4111 1111 1111 1111", valid: true, cardType: models.CardVisa, masked: "************1111"},
		{name: "mastercard with dashes", number: "5555-5555-5555-4444", valid: true, cardType: models.CardMastercard, masked: "************4444"},
		{name: "amex", number: "378282246310005", valid: true, cardType: models.CardAmex, masked: "***********0005"},
		{name: "discover", number: "6011111111111117", valid: true, cardType: models.CardDiscover},
		{name: "diners", number: "30569309025904", valid: true, cardType: models.CardDiners},
		{name: "jcb", number: "3530111333300000", valid: true, cardType: models.CardJCB},
		{name: "luhn valid unknown network", number: "9999999999999995", valid: true, cardType: models.CardUnknown},
		{name: "letters", number: "4111abcd11111111", errMsg: "Card number must contain only digits"},
		{name: "too short", number: "411111111111", errMsg: "Card number must be between 13 and 19 digits"},
		{name: "too long", number: "41111111111111111111", errMsg: "Card number must be between 13 and 19 digits"},
		{name: "bad checksum", number: "4111111111111112", errMsg: "Invalid card number", masked: "************1112"},
		{name: "empty", number: "", errMsg: "Card number is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateCardNumber(tt.number)
			if got.IsValid != tt.valid {
				t.Fatalf("IsValid = %v, want %v (error %q)", got.IsValid, tt.valid, got.Error)
			}
			if tt.valid && got.CardType != tt.cardType {
				t.Errorf("CardType = %s, want %s", got.CardType, tt.cardType)
			}
			if tt.masked != "" && got.MaskedNumber != tt.masked {
				t.Errorf("MaskedNumber = %q, want %q", got.MaskedNumber, tt.masked)
			}
			if got.Error != tt.errMsg {
				t.Errorf("Error = %q, want %q", got.Error, tt.errMsg)
			}
		})
	}
}

func TestMaskCardNumber(t *testing.T) {
	if got := MaskCardNumber("4111111111111111"); got != "************1111" {
		t.Errorf("MaskCardNumber() = %q", got)
	}
	if got := MaskCardNumber("1234"); got != "1234" {
		t.Errorf("MaskCardNumber(short) = %q, want unmasked", got)
	}
	if got := MaskCardNumber("12"); got != "12" {
		t.Errorf("MaskCardNumber(very short) = %q, want unmasked", got)
	}
}

// luhnCheckDigit appends the digit that makes body pass the checksum.
func luhnCheckDigit(body string) string {
	for d := byte('0'); d <= '9'; d++ {
		candidate := body + string(d)
		if LuhnValid(candidate) {
			return candidate
		}
	}
	panic("unreachable")
}

func TestLuhnSingleDigitFlipDetected(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		length := 13 + rng.Intn(7)
		body := make([]byte, length-1)
		for j := range body {
			body[j] = byte('0' + rng.Intn(10))
		}
		number := luhnCheckDigit(string(body))

		if got := ValidateCardNumber(number); !got.IsValid {
			t.Fatalf("generated number %s rejected: %s", MaskCardNumber(number), got.Error)
		}

		// Luhn catches every single-digit substitution.
		pos := rng.Intn(length)
		flipped := []byte(number)
		flipped[pos] = byte('0' + (int(flipped[pos]-'0')+1+rng.Intn(9))%10)
		if LuhnValid(string(flipped)) {
			t.Errorf("single digit change at %d not detected", pos)
		}
	}
}

func TestValidateCVV(t *testing.T) {
	tests := []struct {
		name     string
		cvv      string
		cardType models.CardType
		valid    bool
		errMsg   string
	}{
		{name: "visa 3 digits", cvv: "123", cardType: models.CardVisa, valid: true},
		{name: "amex 4 digits", cvv: "1234", cardType: models.CardAmex, valid: true},
		{name: "amex 3 digits", cvv: "123", cardType: models.CardAmex, errMsg: "CVV must be 4 digits"},
		{name: "visa 4 digits", cvv: "1234", cardType: models.CardVisa, errMsg: "CVV must be 3 digits"},
		{name: "letters", cvv: "12a", cardType: models.CardVisa, errMsg: "CVV must contain only digits"},
		{name: "empty", cvv: "", cardType: models.CardVisa, errMsg: "CVV is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateCVV(tt.cvv, tt.cardType)
			if got.IsValid != tt.valid || got.Error != tt.errMsg {
				t.Errorf("ValidateCVV() = %+v, want valid=%v err=%q", got, tt.valid, tt.errMsg)
			}
		})
	}
}
