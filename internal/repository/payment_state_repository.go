package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skillrise/payment-security/internal/models"
)

type PaymentStateRepository struct {
	db *sql.DB
}

func NewPaymentStateRepository(db *sql.DB) *PaymentStateRepository {
	return &PaymentStateRepository{db: db}
}

func (r *PaymentStateRepository) InitDB(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS payment_states (
			transaction_id VARCHAR(64) PRIMARY KEY,
			state VARCHAR(20) NOT NULL,
			previous_state VARCHAR(20) NOT NULL DEFAULT '',
			user_id VARCHAR(255) NOT NULL,
			amount NUMERIC(12, 2) NOT NULL,
			currency CHAR(3) NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_states_state ON payment_states(state)`,
		`CREATE INDEX IF NOT EXISTS idx_payment_states_user ON payment_states(user_id)`,
	}

	for _, query := range queries {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return err
		}
	}

	return nil
}

func (r *PaymentStateRepository) InsertInitialState(ctx context.Context, transactionID string, state models.PaymentState, info *models.PaymentStateInfo) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_states (transaction_id, state, user_id, amount, currency)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO NOTHING
	`, transactionID, state, info.UserID, info.Amount, info.Currency)
	return err
}

// TransitionState moves a payment from one state to another and reports how
// many rows changed; zero means the payment was not in the expected state.
func (r *PaymentStateRepository) TransitionState(ctx context.Context, transactionID string, from, to models.PaymentState) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payment_states
		SET state = $1, previous_state = $2, updated_at = NOW()
		WHERE transaction_id = $3 AND state = $4
	`, to, from, transactionID, from)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *PaymentStateRepository) GetByTransactionID(ctx context.Context, transactionID string) (*models.PaymentStateInfo, error) {
	var info models.PaymentStateInfo
	err := r.db.QueryRowContext(ctx, `
		SELECT state, previous_state, user_id, amount::text, currency, created_at, updated_at
		FROM payment_states WHERE transaction_id = $1
	`, transactionID).Scan(&info.State, &info.PreviousState, &info.UserID, &info.Amount, &info.Currency, &info.CreatedAt, &info.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}
