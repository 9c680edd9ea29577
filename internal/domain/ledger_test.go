package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ogdenik/bankcore/internal/domain"
)

func TestTransferIntent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		intent  domain.TransferIntent
		wantErr error
	}{
		{
			name: "valid",
			intent: domain.TransferIntent{
				SenderAccountID:    "acc-1",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromFloat(10.50),
			},
		},
		{
			name: "same account",
			intent: domain.TransferIntent{
				SenderAccountID:    "acc-1",
				RecipientAccountID: "acc-1",
				Amount:             decimal.NewFromInt(10),
			},
			wantErr: domain.ErrSelfTransfer,
		},
		{
			name: "zero amount",
			intent: domain.TransferIntent{
				SenderAccountID:    "acc-1",
				RecipientAccountID: "acc-2",
				Amount:             decimal.Zero,
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			intent: domain.TransferIntent{
				SenderAccountID:    "acc-1",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromInt(-5),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "too many decimal places",
			intent: domain.TransferIntent{
				SenderAccountID:    "acc-1",
				RecipientAccountID: "acc-2",
				Amount:             decimal.NewFromFloat(10.005),
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.intent.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAmountScale(t *testing.T) {
	assert.NoError(t, domain.ValidateAmountScale(decimal.NewFromInt(1)))
	assert.NoError(t, domain.ValidateAmountScale(decimal.NewFromFloat(0.01)))
	assert.NoError(t, domain.ValidateAmountScale(decimal.RequireFromString("99.90")))

	assert.ErrorIs(t, domain.ValidateAmountScale(decimal.Zero), domain.ErrInvalidAmount)
	assert.ErrorIs(t, domain.ValidateAmountScale(decimal.NewFromFloat(0.001)), domain.ErrInvalidAmount)
	assert.ErrorIs(t, domain.ValidateAmountScale(decimal.RequireFromString("1.999")), domain.ErrInvalidAmount)
}
