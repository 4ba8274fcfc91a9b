package audit

import (
	"strings"

	"github.com/skillrise/payment-security/internal/validation"
)

const (
	cvvPlaceholder = "***"
	redacted       = "****"
	ssnMaskPrefix  = "***-**-"
)

type fieldKind int

const (
	fieldPlain fieldKind = iota
	fieldCardNumber
	fieldCVV
	fieldSSN
)

var sensitiveFields = map[string]fieldKind{
	"cardnumber":           fieldCardNumber,
	"number":               fieldCardNumber,
	"pan":                  fieldCardNumber,
	"cvv":                  fieldCVV,
	"cvv2":                 fieldCVV,
	"cvc":                  fieldCVV,
	"securitycode":         fieldCVV,
	"ssn":                  fieldSSN,
	"socialsecuritynumber": fieldSSN,
}

// classify normalizes cardNumber, card_number and card-number to the same key.
func classify(key string) fieldKind {
	k := strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(key))
	return sensitiveFields[k]
}

// MaskDetails returns a copy of details with card numbers, CVVs and SSNs
// masked. Nested maps and slices are masked recursively; details itself is
// not modified.
func MaskDetails(details map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(details))
	for k, v := range details {
		masked[k] = maskValue(classify(k), v)
	}
	return masked
}

func maskValue(kind fieldKind, v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return MaskDetails(val)
	case []map[string]interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = MaskDetails(elem)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = maskValue(kind, elem)
		}
		return out
	case []string:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = maskValue(kind, elem)
		}
		return out
	case nil:
		return nil
	}

	switch kind {
	case fieldCardNumber:
		s, ok := v.(string)
		if !ok {
			return redacted
		}
		return validation.MaskCardNumber(validation.SanitizeCardNumber(s))
	case fieldCVV:
		return cvvPlaceholder
	case fieldSSN:
		s, _ := v.(string)
		return MaskSSN(s)
	}
	return v
}

// MaskSSN keeps only the last four digits: 123-45-6789 becomes ***-**-6789.
func MaskSSN(ssn string) string {
	digits := make([]byte, 0, len(ssn))
	for i := 0; i < len(ssn); i++ {
		if ssn[i] >= '0' && ssn[i] <= '9' {
			digits = append(digits, ssn[i])
		}
	}
	if len(digits) < 4 {
		return ssnMaskPrefix + redacted
	}
	return ssnMaskPrefix + string(digits[len(digits)-4:])
}
