package crypto

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/skillrise/payment-security/internal/interfaces"
	"github.com/skillrise/payment-security/internal/models"
	"github.com/skillrise/payment-security/internal/validation"
)

const tokenPrefix = "tok_"

var (
	ErrEmptyCard    = errors.New("card number is required")
	ErrNoTokenStore = errors.New("no token store configured")
)

type Tokenizer struct {
	cipher *Cipher
	store  interfaces.TokenStore
}

// NewTokenizer builds a tokenizer. store may be nil, in which case tokens are
// only returned to the caller and Detokenize is unavailable.
func NewTokenizer(c *Cipher, store interfaces.TokenStore) *Tokenizer {
	return &Tokenizer{cipher: c, store: store}
}

// TokenizeCard encrypts the sensitive card fields and returns them behind a
// random token that carries no information about the card.
func (t *Tokenizer) TokenizeCard(ctx context.Context, card models.CardData) (*models.PaymentToken, error) {
	number := validation.SanitizeCardNumber(card.Number)
	if number == "" {
		return nil, ErrEmptyCard
	}

	payload, err := t.cipher.EncryptPaymentData(models.SensitiveCardData{
		Number:         number,
		CVV:            card.CVV,
		CardholderName: card.CardholderName,
	})
	if err != nil {
		return nil, err
	}

	token := &models.PaymentToken{
		Token:            newToken(),
		EncryptedPayload: payload,
		MaskedNumber:     validation.MaskCardNumber(number),
		CardType:         validation.DetectCardType(number),
		ExpiryMonth:      card.ExpiryMonth,
		ExpiryYear:       card.ExpiryYear,
	}

	if t.store != nil {
		if err := t.store.Save(ctx, token); err != nil {
			return nil, fmt.Errorf("save token: %w", err)
		}
	}
	return token, nil
}

// Detokenize loads a stored token and decrypts its card data.
func (t *Tokenizer) Detokenize(ctx context.Context, token string) (*models.SensitiveCardData, error) {
	if t.store == nil {
		return nil, ErrNoTokenStore
	}
	stored, err := t.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	var card models.SensitiveCardData
	if err := t.cipher.DecryptPaymentData(stored.EncryptedPayload, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

func newToken() string {
	return tokenPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}
