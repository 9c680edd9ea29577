package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry is the immutable audit record of one completed transfer.
// Entries are appended only after both balance mutations have committed;
// a failed transfer never produces an entry.
type LedgerEntry struct {
	ID                 string
	SenderAccountID    string
	RecipientAccountID string
	Amount             decimal.Decimal
	Description        string
	CreatedAt          time.Time
}

// TransferIntent is the validated input of a single money movement.
type TransferIntent struct {
	SenderAccountID    string
	RecipientAccountID string
	Amount             decimal.Decimal
}

// Validate checks the intent against rules that need no account state:
// distinct accounts and a positive amount at money scale.
func (t *TransferIntent) Validate() error {
	if t.SenderAccountID == t.RecipientAccountID {
		return ErrSelfTransfer
	}
	return ValidateAmountScale(t.Amount)
}

// ValidateAmountScale checks that amount is strictly positive and carries
// at most MoneyScale decimal places.
func ValidateAmountScale(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrInvalidAmount
	}
	return nil
}
